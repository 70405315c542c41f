package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/navarrete-shop/backend/internal/bulkorder"
	"github.com/navarrete-shop/backend/internal/httpx"
	"github.com/navarrete-shop/backend/internal/user"
)

func createBulkOrderHandler(repo bulkorder.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkorder.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
			return
		}
		req.Details = strings.TrimSpace(req.Details)
		amount, err := decimal.NewFromString(req.Amount)
		if req.Details == "" || err != nil || amount.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "details and a non-negative amount are required", "kind": "InvalidInput"})
			return
		}

		b := &bulkorder.BulkOrder{
			ID:         uuid.NewString(),
			CustomerID: httpx.UserID(c),
			Details:    req.Details,
			Amount:     amount.StringFixed(2),
			Status:     bulkorder.StatusRequested,
		}
		if err := repo.Create(c.Request.Context(), b); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, b)
	}
}

func getBulkOrderHandler(repo bulkorder.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		// customers may only read their own requests
		if httpx.Role(c) != user.RoleAdmin && b.CustomerID != httpx.UserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role", "kind": "Forbidden"})
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func listBulkOrdersHandler(repo bulkorder.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		out, err := repo.List(c.Request.Context(), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		if out == nil {
			out = []bulkorder.BulkOrder{}
		}
		c.JSON(http.StatusOK, gin.H{"bulk_orders": out})
	}
}

func updateBulkOrderStatusHandler(repo bulkorder.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkorder.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
			return
		}
		status, valid := bulkorder.ParseStatus(req.Status)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + req.Status, "kind": "InvalidInput"})
			return
		}

		b, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if !bulkorder.CanTransition(b.Status, status) {
			c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition", "kind": "InvalidTransition"})
			return
		}
		if err := repo.UpdateStatus(c.Request.Context(), b.ID, status, req.PaymentLink); err != nil {
			respondError(c, err)
			return
		}
		b.Status = status
		if req.PaymentLink != "" {
			b.PaymentLink = req.PaymentLink
		}
		c.JSON(http.StatusOK, b)
	}
}
