package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navarrete-shop/backend/internal/user"
)

// Action names a guarded capability. Authorization is a single role matrix
// consulted before the handler body runs, instead of role checks scattered
// through the handlers.
type Action string

const (
	ActionProductWrite       Action = "product:write"
	ActionOrderCreate        Action = "order:create"
	ActionOrderList          Action = "order:list"
	ActionOrderManage        Action = "order:manage"
	ActionOrderRefund        Action = "order:refund"
	ActionPaymentUse         Action = "payment:use"
	ActionPayout             Action = "payout:use"
	ActionSubscriptionManage Action = "subscription:manage"
	ActionBulkOrderCreate    Action = "bulkorder:create"
	ActionBulkOrderManage    Action = "bulkorder:manage"
)

type Policy map[Action][]string

func DefaultPolicy() Policy {
	return Policy{
		ActionProductWrite:       {user.RoleSeller, user.RoleAdmin},
		ActionOrderCreate:        {user.RoleCustomer},
		ActionOrderList:          {user.RoleAdmin},
		ActionOrderManage:        {user.RoleSeller, user.RoleAdmin},
		ActionOrderRefund:        {user.RoleAdmin},
		ActionPaymentUse:         {user.RoleCustomer},
		ActionPayout:             {user.RoleSeller},
		ActionSubscriptionManage: {user.RoleCustomer},
		ActionBulkOrderCreate:    {user.RoleCustomer},
		ActionBulkOrderManage:    {user.RoleAdmin},
	}
}

func (p Policy) Allows(role string, a Action) bool {
	for _, r := range p[a] {
		if r == role {
			return true
		}
	}
	return false
}

// Require gates a route on the policy matrix. It assumes Auth ran first.
func Require(p Policy, a Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "kind": "Unauthorized"})
			return
		}
		if !p.Allows(role, a) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role", "kind": "Forbidden"})
			return
		}
		c.Next()
	}
}
