package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navarrete-shop/backend/internal/cart"
	"github.com/navarrete-shop/backend/internal/httpx"
)

const cartCookie = "cart_id"
const cartCookieMaxAge = 30 * 24 * 60 * 60 // seconds

func cartIdentity(c *gin.Context) cart.Identity {
	ident := cart.Identity{UserID: httpx.UserID(c)}
	if ident.UserID == "" {
		if token, err := c.Cookie(cartCookie); err == nil {
			ident.SessionToken = token
		}
	}
	return ident
}

func getCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Get(c.Request.Context(), cartIdentity(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func addCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
			return
		}

		line, minted, err := svc.AddItem(c.Request.Context(), cartIdentity(c), req.ProductID, req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		// the guest keeps the freshly minted cart in a cookie
		if minted != "" {
			c.SetCookie(cartCookie, minted, cartCookieMaxAge, "/", "", false, true)
		}
		c.JSON(http.StatusCreated, line)
	}
}
