package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/navarrete-shop/backend/internal/user"
)

func TestDefaultPolicyMatrix(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		role   string
		action Action
		want   bool
	}{
		{user.RoleCustomer, ActionOrderCreate, true},
		{user.RoleAdmin, ActionOrderCreate, false},
		{user.RoleSeller, ActionOrderCreate, false},
		{user.RoleAdmin, ActionOrderRefund, true},
		{user.RoleSeller, ActionOrderRefund, false},
		{user.RoleCustomer, ActionOrderRefund, false},
		{user.RoleSeller, ActionProductWrite, true},
		{user.RoleAdmin, ActionProductWrite, true},
		{user.RoleCustomer, ActionProductWrite, false},
		{user.RoleSeller, ActionPayout, true},
		{user.RoleCustomer, ActionPayout, false},
		{"", ActionOrderCreate, false},
	}
	for _, tc := range cases {
		if got := p.Allows(tc.role, tc.action); got != tc.want {
			t.Errorf("Allows(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestRequire(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := DefaultPolicy()

	newRouter := func(role string) *gin.Engine {
		r := gin.New()
		r.POST("/orders",
			func(c *gin.Context) {
				if role != "" {
					c.Set(ctxUserID, "u1")
					c.Set(ctxRole, role)
				}
			},
			Require(p, ActionOrderCreate),
			func(c *gin.Context) { c.Status(http.StatusCreated) },
		)
		return r
	}

	cases := []struct {
		role string
		want int
	}{
		{user.RoleCustomer, http.StatusCreated},
		{user.RoleAdmin, http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		newRouter(tc.role).ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("role=%q: status=%d, want %d", tc.role, w.Code, tc.want)
		}
	}
}
