package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/navarrete-shop/backend/internal/order"
	"github.com/navarrete-shop/backend/internal/payment"
	"github.com/navarrete-shop/backend/internal/product"
	"github.com/navarrete-shop/backend/internal/user"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}

//
// ===== in-memory stubs =====
//

// stubProducts backs both the catalog reads and the stock deduction.
type stubProducts struct {
	items map[string]*product.Product
}

func newStubProducts() *stubProducts {
	return &stubProducts{items: make(map[string]*product.Product)}
}

func (s *stubProducts) GetByID(ctx context.Context, id string) (*product.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type stubOrderRepo struct {
	products *stubProducts
	orders   map[string]*order.Order
	lines    map[string][]order.Line
}

func newStubOrderRepo(products *stubProducts) *stubOrderRepo {
	return &stubOrderRepo{
		products: products,
		orders:   make(map[string]*order.Order),
		lines:    make(map[string][]order.Line),
	}
}

// Create mirrors the transactional contract: nothing is kept when any line
// cannot cover its stock.
func (s *stubOrderRepo) Create(ctx context.Context, o *order.Order, lines []order.Line) error {
	for _, l := range lines {
		p, ok := s.products.items[l.ProductID]
		if !ok || p.StockQuantity < l.Quantity {
			return &product.StockError{ProductID: l.ProductID}
		}
	}
	for _, l := range lines {
		s.products.items[l.ProductID].StockQuantity -= l.Quantity
	}
	cp := *o
	s.orders[o.ID] = &cp
	s.lines[o.ID] = append([]order.Line(nil), lines...)
	return nil
}

func (s *stubOrderRepo) GetByID(ctx context.Context, id string) (*order.Order, []order.Line, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, nil, order.ErrNotFound
	}
	cp := *o
	return &cp, append([]order.Line(nil), s.lines[id]...), nil
}

func (s *stubOrderRepo) GetLines(ctx context.Context, orderID string) ([]order.Line, error) {
	if _, ok := s.orders[orderID]; !ok {
		return nil, order.ErrNotFound
	}
	return append([]order.Line(nil), s.lines[orderID]...), nil
}

func (s *stubOrderRepo) List(ctx context.Context, limit, offset int) ([]order.Order, error) {
	out := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubOrderRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	o, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

func (s *stubOrderRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := s.orders[id]; !ok {
		return false, nil
	}
	delete(s.orders, id)
	delete(s.lines, id)
	return true, nil
}

func (s *stubOrderRepo) MarkRefunded(ctx context.Context, id, stripeRefundID string) error {
	o, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = order.StatusRefunded
	o.StripeRefundID = stripeRefundID
	return nil
}

type stubCustomers struct {
	users map[string]*user.User
}

func (s *stubCustomers) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// stubGateway implements payment.Gateway; only the intent and refund calls
// matter for the order routes.
type stubGateway struct {
	intents    int
	refunds    int
	intentErr  error
	refundErr  error
	lastAmount decimal.Decimal
}

func (g *stubGateway) CreatePaymentIntent(ctx context.Context, customerID string, amount decimal.Decimal) (string, error) {
	if g.intentErr != nil {
		return "", g.intentErr
	}
	g.intents++
	g.lastAmount = amount
	return fmt.Sprintf("pi_%d", g.intents), nil
}

func (g *stubGateway) CreateRefund(ctx context.Context, paymentIntentID string) (string, error) {
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refunds++
	return fmt.Sprintf("re_%d", g.refunds), nil
}

func (g *stubGateway) CreateOrRetrieveCustomer(ctx context.Context, email string) (string, error) {
	return "cus_stub", nil
}

func (g *stubGateway) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	return "acct_stub", nil
}

func (g *stubGateway) CreateTransfer(ctx context.Context, accountID string, amount decimal.Decimal) (string, error) {
	return "tr_stub", nil
}

func (g *stubGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (string, error) {
	return "sub_stub", nil
}

func (g *stubGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return nil
}

func (g *stubGateway) ListPayments(ctx context.Context, customerID string, limit int) ([]payment.Payment, error) {
	return nil, nil
}

func (g *stubGateway) ListPayouts(ctx context.Context, accountID string, limit int) ([]payment.Payout, error) {
	return nil, nil
}

//
// ===== test router wiring the real handlers and service =====
//

type orderFixture struct {
	products *stubProducts
	repo     *stubOrderRepo
	gateway  *stubGateway
	router   *gin.Engine
}

func newOrderFixture() *orderFixture {
	products := newStubProducts()
	repo := newStubOrderRepo(products)
	gateway := &stubGateway{}
	customers := &stubCustomers{users: map[string]*user.User{
		"u1": {ID: "u1", Email: "ana@example.com", Role: user.RoleCustomer, StripeCustomerID: "cus_1"},
	}}
	svc := order.NewService(repo, products, customers, gateway, nil, zap.NewNop())

	asCustomer := func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Set("role", "customer")
	}

	r := gin.New()
	r.POST("/orders", asCustomer, createOrderHandler(svc))
	r.GET("/orders/:id", asCustomer, getOrderHandler(repo))
	r.GET("/orders/:id/items", asCustomer, getOrderItemsHandler(repo))
	r.DELETE("/orders/:id", asCustomer, deleteOrderHandler(repo))
	r.PUT("/orders/:id/status", asCustomer, updateOrderStatusHandler(svc))
	r.POST("/orders/:id/refund", asCustomer, refundOrderHandler(svc))
	return &orderFixture{products: products, repo: repo, gateway: gateway, router: r}
}

func (f *orderFixture) seedProduct(id, price string, stock int) {
	f.products.items[id] = &product.Product{ID: id, Name: "p-" + id, Price: price, StockQuantity: stock}
}

func (f *orderFixture) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	f.router.ServeHTTP(w, req)
	return w
}

type errBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) errBody {
	t.Helper()
	var b errBody
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("invalid error body: %s", w.Body.String())
	}
	return b
}

//
// ===== tests =====
//

func TestCreateOrder_HappyPath(t *testing.T) {
	f := newOrderFixture()
	f.seedProduct("p1", "10.00", 5)
	f.seedProduct("p2", "2.50", 5)

	w := f.do(http.MethodPost, "/orders", `{"items":[{"product_id":"p1","quantity":2},{"product_id":"p2","quantity":1}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var got struct {
		ID         string       `json:"id"`
		CustomerID string       `json:"customer_id"`
		Status     string       `json:"status"`
		Total      string       `json:"total_price"`
		Items      []order.Line `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid body: %s", w.Body.String())
	}
	if got.Total != "22.50" {
		t.Fatalf("total=%q, want 22.50", got.Total)
	}
	if got.Status != "pending" || got.CustomerID != "u1" || len(got.Items) != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if f.products.items["p1"].StockQuantity != 3 || f.products.items["p2"].StockQuantity != 4 {
		t.Fatalf("stock not deducted: p1=%d p2=%d", f.products.items["p1"].StockQuantity, f.products.items["p2"].StockQuantity)
	}
	if f.gateway.intents != 1 || !f.gateway.lastAmount.Equal(decimal.RequireFromString("22.50")) {
		t.Fatalf("gateway: intents=%d amount=%s", f.gateway.intents, f.gateway.lastAmount)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newOrderFixture()
	f.seedProduct("p1", "10.00", 1)

	w := f.do(http.MethodPost, "/orders", `{"items":[{"product_id":"p1","quantity":3}]}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if b := decodeErr(t, w); b.Kind != "InsufficientStock" {
		t.Fatalf("kind=%q", b.Kind)
	}
	if len(f.repo.orders) != 0 || f.gateway.intents != 0 {
		t.Fatalf("side effects: orders=%d intents=%d", len(f.repo.orders), f.gateway.intents)
	}
	if f.products.items["p1"].StockQuantity != 1 {
		t.Fatalf("stock changed: %d", f.products.items["p1"].StockQuantity)
	}
}

func TestCreateOrder_GatewayDown(t *testing.T) {
	f := newOrderFixture()
	f.seedProduct("p1", "10.00", 5)
	f.gateway.intentErr = &payment.GatewayError{Message: "connection refused", Err: payment.ErrUnavailable}

	w := f.do(http.MethodPost, "/orders", `{"items":[{"product_id":"p1","quantity":1}]}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if b := decodeErr(t, w); b.Kind != "PaymentGatewayError" {
		t.Fatalf("kind=%q", b.Kind)
	}
	if len(f.repo.orders) != 0 || f.products.items["p1"].StockQuantity != 5 {
		t.Fatalf("side effects after gateway failure")
	}
}

func TestCreateOrder_BadInput(t *testing.T) {
	f := newOrderFixture()
	f.seedProduct("p1", "10.00", 5)

	cases := []struct {
		name string
		body string
	}{
		{"empty items", `{"items":[]}`},
		{"zero quantity", `{"items":[{"product_id":"p1","quantity":0}]}`},
		{"not json", `{`},
	}
	for _, tc := range cases {
		w := f.do(http.MethodPost, "/orders", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d body=%s", tc.name, w.Code, w.Body.String())
		}
	}

	// unknown product is a 404, not a 400
	w := f.do(http.MethodPost, "/orders", `{"items":[{"product_id":"nope","quantity":1}]}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown product: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newOrderFixture()
	w := f.do(http.MethodGet, "/orders/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGetOrderItems(t *testing.T) {
	f := newOrderFixture()
	f.seedProduct("p1", "5.00", 5)
	created := f.do(http.MethodPost, "/orders", `{"items":[{"product_id":"p1","quantity":2}]}`)
	var o struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(created.Body.Bytes(), &o)

	w := f.do(http.MethodGet, "/orders/"+o.ID+"/items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Items []order.Line `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if len(got.Items) != 1 || got.Items[0].Price != "5.00" || got.Items[0].Quantity != 2 {
		t.Fatalf("items=%+v", got.Items)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newOrderFixture()
	f.seedProduct("p1", "5.00", 5)
	created := f.do(http.MethodPost, "/orders", `{"items":[{"product_id":"p1","quantity":1}]}`)
	var o struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(created.Body.Bytes(), &o)

	// pending -> paid
	w := f.do(http.MethodPut, "/orders/"+o.ID+"/status", `{"status":"paid"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	// paid -> pending is not a transition
	w = f.do(http.MethodPut, "/orders/"+o.ID+"/status", `{"status":"pending"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if b := decodeErr(t, w); b.Kind != "InvalidTransition" {
		t.Fatalf("kind=%q", b.Kind)
	}

	// unknown status string
	w = f.do(http.MethodPut, "/orders/"+o.ID+"/status", `{"status":"shipped"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRefundOrder(t *testing.T) {
	f := newOrderFixture()
	f.seedProduct("p1", "5.00", 5)
	created := f.do(http.MethodPost, "/orders", `{"items":[{"product_id":"p1","quantity":1}]}`)
	var o struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(created.Body.Bytes(), &o)

	// a pending order cannot be refunded
	w := f.do(http.MethodPost, "/orders/"+o.ID+"/refund", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("pending refund: status=%d body=%s", w.Code, w.Body.String())
	}

	if w := f.do(http.MethodPut, "/orders/"+o.ID+"/status", `{"status":"paid"}`); w.Code != http.StatusOK {
		t.Fatalf("mark paid: status=%d", w.Code)
	}

	// gateway rejection leaves the order paid
	f.gateway.refundErr = &payment.GatewayError{Message: "down", Err: payment.ErrUnavailable}
	w = f.do(http.MethodPost, "/orders/"+o.ID+"/refund", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("gateway refund failure: status=%d body=%s", w.Code, w.Body.String())
	}
	if f.repo.orders[o.ID].Status != order.StatusPaid {
		t.Fatalf("status changed after gateway failure: %s", f.repo.orders[o.ID].Status)
	}

	f.gateway.refundErr = nil
	w = f.do(http.MethodPost, "/orders/"+o.ID+"/refund", "")
	if w.Code != http.StatusOK {
		t.Fatalf("refund: status=%d body=%s", w.Code, w.Body.String())
	}
	stored := f.repo.orders[o.ID]
	if stored.Status != order.StatusRefunded || stored.StripeRefundID == "" {
		t.Fatalf("refund not recorded: %+v", stored)
	}
	// stock stays deducted after a refund
	if f.products.items["p1"].StockQuantity != 4 {
		t.Fatalf("stock restored on refund: %d", f.products.items["p1"].StockQuantity)
	}
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture()
	f.seedProduct("p1", "5.00", 5)
	created := f.do(http.MethodPost, "/orders", `{"items":[{"product_id":"p1","quantity":2}]}`)
	var o struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(created.Body.Bytes(), &o)

	w := f.do(http.MethodDelete, "/orders/"+o.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if _, ok := f.repo.orders[o.ID]; ok {
		t.Fatal("order still present after delete")
	}
	// removal is bookkeeping only, stock stays deducted
	if f.products.items["p1"].StockQuantity != 3 {
		t.Fatalf("stock changed on delete: %d", f.products.items["p1"].StockQuantity)
	}

	w = f.do(http.MethodDelete, "/orders/"+o.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRefundOrder_NoPaymentOnRecord(t *testing.T) {
	f := newOrderFixture()
	f.repo.orders["o1"] = &order.Order{ID: "o1", CustomerID: "u1", Status: order.StatusPaid}

	w := f.do(http.MethodPost, "/orders/o1/refund", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if b := decodeErr(t, w); b.Kind != "NoPaymentOnRecord" {
		t.Fatalf("kind=%q", b.Kind)
	}
}
