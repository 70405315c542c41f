package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/navarrete-shop/backend/internal/bulkorder"
	"github.com/navarrete-shop/backend/internal/cart"
	"github.com/navarrete-shop/backend/internal/httpx"
	"github.com/navarrete-shop/backend/internal/order"
	"github.com/navarrete-shop/backend/internal/payment"
	"github.com/navarrete-shop/backend/internal/product"
	"github.com/navarrete-shop/backend/internal/user"
)

type app struct {
	log    *zap.Logger
	secret []byte
	policy httpx.Policy

	products   product.Repository
	users      user.Repository
	bulkOrders bulkorder.Repository
	orders     order.Repository

	userSvc  *user.Service
	cartSvc  *cart.Service
	orderSvc *order.Service
	gateway  payment.Gateway
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.AccessLog(a.log), httpx.Metrics())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/auth/register", registerHandler(a.userSvc))
	r.POST("/auth/login", loginHandler(a.userSvc))

	auth := httpx.Auth(a.secret, false)
	maybeAuth := httpx.Auth(a.secret, true)
	require := func(action httpx.Action) gin.HandlerFunc { return httpx.Require(a.policy, action) }

	r.GET("/products", listProductsHandler(a.products))
	r.GET("/products/:id", getProductHandler(a.products))
	r.POST("/products", auth, require(httpx.ActionProductWrite), createProductHandler(a.products))
	r.PUT("/products/:id", auth, require(httpx.ActionProductWrite), updateProductHandler(a.products))
	r.DELETE("/products/:id", auth, require(httpx.ActionProductWrite), deleteProductHandler(a.products))

	// carts work for guests too; identity falls back to the cart cookie
	r.GET("/cart", maybeAuth, getCartHandler(a.cartSvc))
	r.POST("/cart/items", maybeAuth, addCartItemHandler(a.cartSvc))

	r.POST("/orders", auth, require(httpx.ActionOrderCreate), createOrderHandler(a.orderSvc))
	r.GET("/orders", auth, require(httpx.ActionOrderList), listOrdersHandler(a.orders))
	r.GET("/orders/:id", auth, getOrderHandler(a.orders))
	r.GET("/orders/:id/items", auth, getOrderItemsHandler(a.orders))
	r.GET("/orders/user/:user_id", auth, listOrdersByUserHandler(a.orders))
	r.DELETE("/orders/:id", auth, require(httpx.ActionOrderManage), deleteOrderHandler(a.orders))
	r.PUT("/orders/:id/status", auth, require(httpx.ActionOrderManage), updateOrderStatusHandler(a.orderSvc))
	r.POST("/orders/:id/refund", auth, require(httpx.ActionOrderRefund), refundOrderHandler(a.orderSvc))

	r.POST("/payments/intent", auth, require(httpx.ActionPaymentUse), createPaymentIntentHandler(a.gateway, a.users, a.userSvc))
	r.GET("/payments", auth, require(httpx.ActionPaymentUse), listPaymentsHandler(a.gateway, a.users))
	r.POST("/subscriptions", auth, require(httpx.ActionSubscriptionManage), createSubscriptionHandler(a.gateway, a.users, a.userSvc))
	r.DELETE("/subscriptions", auth, require(httpx.ActionSubscriptionManage), cancelSubscriptionHandler(a.gateway, a.users))
	r.POST("/payouts/connect", auth, require(httpx.ActionPayout), connectSellerHandler(a.gateway, a.users))
	r.POST("/payouts", auth, require(httpx.ActionPayout), payoutHandler(a.gateway, a.users))
	r.GET("/payouts", auth, require(httpx.ActionPayout), listPayoutsHandler(a.gateway, a.users))

	r.POST("/bulk-orders", auth, require(httpx.ActionBulkOrderCreate), createBulkOrderHandler(a.bulkOrders))
	r.GET("/bulk-orders", auth, require(httpx.ActionBulkOrderManage), listBulkOrdersHandler(a.bulkOrders))
	r.GET("/bulk-orders/:id", auth, getBulkOrderHandler(a.bulkOrders))
	r.PUT("/bulk-orders/:id/status", auth, require(httpx.ActionBulkOrderManage), updateBulkOrderStatusHandler(a.bulkOrders))

	return r
}
