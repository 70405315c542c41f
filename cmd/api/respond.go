package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navarrete-shop/backend/internal/bulkorder"
	"github.com/navarrete-shop/backend/internal/cart"
	"github.com/navarrete-shop/backend/internal/order"
	"github.com/navarrete-shop/backend/internal/payment"
	"github.com/navarrete-shop/backend/internal/product"
	"github.com/navarrete-shop/backend/internal/user"
)

// respondError maps service errors to a status code and a stable error kind.
// Every error leaves through here so no handler invents its own shape.
func respondError(c *gin.Context, err error) {
	status, kind := classify(err)
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func classify(err error) (int, string) {
	var stockErr *product.StockError
	var gwErr *payment.GatewayError

	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, bulkorder.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.As(err, &stockErr):
		return http.StatusConflict, "InsufficientStock"
	case errors.Is(err, order.ErrNoItems),
		errors.Is(err, order.ErrBadQuantity),
		errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, order.ErrNoPaymentOnRecord):
		return http.StatusConflict, "NoPaymentOnRecord"
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict, "InvalidTransition"
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, user.ErrAlreadyExist):
		return http.StatusConflict, "Conflict"
	case errors.As(err, &gwErr):
		if errors.Is(err, payment.ErrInvalidAmount) {
			return http.StatusBadRequest, "InvalidInput"
		}
		return http.StatusBadGateway, "PaymentGatewayError"
	}
	return http.StatusInternalServerError, "Internal"
}
