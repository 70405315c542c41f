package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/navarrete-shop/backend/internal/httpx"
	"github.com/navarrete-shop/backend/internal/product"
)

func listProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		q := product.Query{Q: c.Query("q"), Limit: limit, Offset: offset}

		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			respondError(c, err)
			return
		}
		if items == nil {
			items = []product.Product{}
		}
		c.JSON(http.StatusOK, product.ListResponse{Q: q.Q, Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

func getProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func validPrice(s string) bool {
	d, err := decimal.NewFromString(s)
	return err == nil && !d.IsNegative()
}

func createProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || !validPrice(req.Price) || req.StockQuantity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, price and stock_quantity are required", "kind": "InvalidInput"})
			return
		}

		p := &product.Product{
			ID:              uuid.NewString(),
			Name:            req.Name,
			Description:     req.Description,
			Price:           req.Price,
			StockQuantity:   req.StockQuantity,
			ImageURL:        req.ImageURL,
			StripeProductID: req.StripeProductID,
			StripePriceID:   req.StripePriceID,
		}
		if httpx.Role(c) == "seller" {
			p.SellerID = httpx.UserID(c)
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := repo.GetByID(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}

		var req product.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "InvalidInput"})
			return
		}
		updatePrice := req.Price != ""
		if updatePrice && !validPrice(req.Price) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price", "kind": "InvalidInput"})
			return
		}
		updateStock := req.StockQuantity != nil
		if updateStock && *req.StockQuantity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock_quantity must be non-negative", "kind": "InvalidInput"})
			return
		}

		p := &product.Product{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			ImageURL:    req.ImageURL,
		}
		if updateStock {
			p.StockQuantity = *req.StockQuantity
		}
		if err := repo.Update(c.Request.Context(), p, updatePrice, updateStock); err != nil {
			respondError(c, err)
			return
		}
		out, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found", "kind": "NotFound"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
