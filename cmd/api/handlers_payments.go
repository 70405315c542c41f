package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/navarrete-shop/backend/internal/httpx"
	"github.com/navarrete-shop/backend/internal/payment"
	"github.com/navarrete-shop/backend/internal/user"
)

type amountRequest struct {
	Amount string `json:"amount"`
}

func parseAmount(c *gin.Context) (decimal.Decimal, bool) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment amount", "kind": "InvalidInput"})
		return decimal.Zero, false
	}
	return amount, true
}

// currentUser loads the authenticated user's row; identity middleware only
// carries id and role.
func currentUser(c *gin.Context, users user.Repository) (*user.User, bool) {
	u, err := users.GetByID(c.Request.Context(), httpx.UserID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return u, true
}

func createPaymentIntentHandler(gw payment.Gateway, users user.Repository, svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		amount, ok := parseAmount(c)
		if !ok {
			return
		}
		u, ok := currentUser(c, users)
		if !ok {
			return
		}
		custID, err := svc.EnsureStripeCustomer(c.Request.Context(), u)
		if err != nil {
			respondError(c, err)
			return
		}
		ref, err := gw.CreatePaymentIntent(c.Request.Context(), custID, amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"payment_intent_id": ref})
	}
}

func listPaymentsHandler(gw payment.Gateway, users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c, users)
		if !ok {
			return
		}
		if u.StripeCustomerID == "" {
			c.JSON(http.StatusOK, gin.H{"payments": []payment.Payment{}})
			return
		}
		payments, err := gw.ListPayments(c.Request.Context(), u.StripeCustomerID, 10)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": payments})
	}
}

type subscriptionRequest struct {
	PriceID string `json:"price_id"`
}

func createSubscriptionHandler(gw payment.Gateway, users user.Repository, svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.PriceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price_id is required", "kind": "InvalidInput"})
			return
		}
		u, ok := currentUser(c, users)
		if !ok {
			return
		}
		custID, err := svc.EnsureStripeCustomer(c.Request.Context(), u)
		if err != nil {
			respondError(c, err)
			return
		}
		subID, err := gw.CreateSubscription(c.Request.Context(), custID, req.PriceID)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := users.SetSubscription(c.Request.Context(), u.ID, subID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"subscription_id": subID})
	}
}

func cancelSubscriptionHandler(gw payment.Gateway, users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c, users)
		if !ok {
			return
		}
		if u.StripeSubscriptionID == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active subscription", "kind": "NotFound"})
			return
		}
		if err := gw.CancelSubscription(c.Request.Context(), u.StripeSubscriptionID); err != nil {
			respondError(c, err)
			return
		}
		if err := users.SetSubscription(c.Request.Context(), u.ID, ""); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
	}
}

// connectSellerHandler provisions the seller's connected gateway account,
// required before payouts can be transferred.
func connectSellerHandler(gw payment.Gateway, users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c, users)
		if !ok {
			return
		}
		if u.StripeAccountID != "" {
			c.JSON(http.StatusOK, gin.H{"account_id": u.StripeAccountID})
			return
		}
		acctID, err := gw.CreateConnectedAccount(c.Request.Context(), u.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := users.SetStripeAccount(c.Request.Context(), u.ID, acctID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"account_id": acctID})
	}
}

func payoutHandler(gw payment.Gateway, users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		amount, ok := parseAmount(c)
		if !ok {
			return
		}
		u, ok := currentUser(c, users)
		if !ok {
			return
		}
		if u.StripeAccountID == "" {
			c.JSON(http.StatusConflict, gin.H{"error": "seller has no connected gateway account", "kind": "Conflict"})
			return
		}
		ref, err := gw.CreateTransfer(c.Request.Context(), u.StripeAccountID, amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"transfer_id": ref})
	}
}

func listPayoutsHandler(gw payment.Gateway, users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c, users)
		if !ok {
			return
		}
		if u.StripeAccountID == "" {
			c.JSON(http.StatusOK, gin.H{"payouts": []payment.Payout{}})
			return
		}
		payouts, err := gw.ListPayouts(c.Request.Context(), u.StripeAccountID, 10)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payouts": payouts})
	}
}
