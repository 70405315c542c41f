package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/navarrete-shop/backend/internal/httpx"
	"github.com/navarrete-shop/backend/internal/order"
)

type orderResponse struct {
	*order.Order
	Items []order.Line `json:"items"`
}

func createOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok := false
		defer func() { httpx.RecordOrderOperation("create", ok) }()

		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
			return
		}

		o, lines, err := svc.Create(c.Request.Context(), httpx.UserID(c), req.Items)
		if err != nil {
			respondError(c, err)
			return
		}
		ok = true
		c.JSON(http.StatusCreated, orderResponse{Order: o, Items: lines})
	}
}

func getOrderHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, lines, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if lines == nil {
			lines = []order.Line{}
		}
		c.JSON(http.StatusOK, orderResponse{Order: o, Items: lines})
	}
}

func getOrderItemsHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, err := repo.GetLines(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if lines == nil {
			lines = []order.Line{}
		}
		c.JSON(http.StatusOK, gin.H{"items": lines})
	}
}

func listOrdersHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		orders, err := repo.List(c.Request.Context(), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		if orders == nil {
			orders = []order.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func listOrdersByUserHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		// customers may only read their own orders
		if httpx.Role(c) == "customer" && httpx.UserID(c) != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role", "kind": "Forbidden"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		orders, err := repo.ListByCustomer(c.Request.Context(), userID, limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		if orders == nil {
			orders = []order.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func deleteOrderHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found", "kind": "NotFound"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

func updateOrderStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
			return
		}
		status, valid := order.ParseStatus(req.Status)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + req.Status, "kind": "InvalidInput"})
			return
		}

		o, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func refundOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok := false
		defer func() { httpx.RecordOrderOperation("refund", ok) }()

		o, err := svc.Refund(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok = true
		c.JSON(http.StatusOK, o)
	}
}
