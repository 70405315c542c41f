package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navarrete-shop/backend/internal/user"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func registerHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
			return
		}
		// admins are provisioned out of band, never through the public API
		if req.Role == user.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot self-register as admin", "kind": "Forbidden"})
			return
		}

		u, err := svc.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

func loginHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
			return
		}

		token, u, err := svc.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
	}
}
