package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/navarrete-shop/backend/internal/payment"
	"github.com/navarrete-shop/backend/internal/product"
	"github.com/navarrete-shop/backend/internal/user"
)

var (
	ErrNoItems     = errors.New("order must contain at least one item")
	ErrBadQuantity = errors.New("item quantity must be a positive integer")
	// ErrNoPaymentOnRecord means a refund was requested for an order that was
	// never charged.
	ErrNoPaymentOnRecord = errors.New("order has no payment on record")
)

// Catalog is the slice of the product repository the workflow reads.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Customers resolves the buyer's gateway identity.
type Customers interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Publisher emits domain events after state changes; a nil Publisher disables
// publishing. Failures are logged, never surfaced to the caller.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Service struct {
	repo      Repository
	catalog   Catalog
	customers Customers
	gateway   payment.Gateway
	events    Publisher
	log       *zap.Logger
}

func NewService(repo Repository, catalog Catalog, customers Customers, gateway payment.Gateway, events Publisher, log *zap.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, customers: customers, gateway: gateway, events: events, log: log}
}

// Create runs the checkout workflow: price every line from the catalog, check
// stock, authorize payment, then persist order, lines and stock deduction in
// one transaction. A failure at any step leaves no partial state: the
// transaction only starts after the gateway accepted the authorization, and
// rolls back entirely when any stock row cannot cover its line.
func (s *Service) Create(ctx context.Context, customerID string, items []CreateOrderItem) (*Order, []Line, error) {
	if len(items) == 0 {
		return nil, nil, ErrNoItems
	}

	cust, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	orderID := uuid.NewString()
	total := decimal.Zero
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: product %s", ErrBadQuantity, it.ProductID)
		}
		p, err := s.catalog.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if p.StockQuantity < it.Quantity {
			return nil, nil, &product.StockError{ProductID: p.ID}
		}
		// the catalog price is authoritative; client prices are ignored
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, nil, fmt.Errorf("bad catalog price for product %s: %w", p.ID, err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		lines = append(lines, Line{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: p.ID,
			Quantity:  it.Quantity,
			Price:     p.Price,
		})
	}

	if cust.StripeCustomerID == "" {
		return nil, nil, &payment.GatewayError{Message: "customer has no gateway identity", Err: payment.ErrCustomerNotFound}
	}
	intentID, err := s.gateway.CreatePaymentIntent(ctx, cust.StripeCustomerID, total)
	if err != nil {
		return nil, nil, err
	}

	o := &Order{
		ID:                    orderID,
		CustomerID:            customerID,
		Status:                StatusPending,
		Total:                 total.StringFixed(2),
		StripePaymentIntentID: intentID,
	}
	// the repo re-checks stock row by row inside the transaction; a concurrent
	// order that won the race surfaces here as a StockError and nothing is kept
	if err := s.repo.Create(ctx, o, lines); err != nil {
		return nil, nil, err
	}

	s.publish(ctx, "order.created", o)
	return o, lines, nil
}

// Refund issues a gateway refund for the order's recorded payment and only
// then flips the status. A gateway rejection leaves the order untouched.
func (s *Service) Refund(ctx context.Context, orderID string) (*Order, error) {
	o, _, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StripePaymentIntentID == "" {
		return nil, ErrNoPaymentOnRecord
	}
	if !CanTransition(o.Status, StatusRefunded) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusRefunded)
	}

	refundID, err := s.gateway.CreateRefund(ctx, o.StripePaymentIntentID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRefunded(ctx, o.ID, refundID); err != nil {
		return nil, err
	}
	o.Status = StatusRefunded
	o.StripeRefundID = refundID

	// stock is not restored on refund: the goods may already have shipped
	s.publish(ctx, "order.refunded", o)
	return o, nil
}

// UpdateStatus applies a transition-checked status change. The payment
// confirmation path (webhook or poll) uses it for pending->paid and
// pending->failed.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	o, _, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}
	if err := s.repo.UpdateStatus(ctx, o.ID, status); err != nil {
		return nil, err
	}
	o.Status = status
	return o, nil
}

func (s *Service) publish(ctx context.Context, key string, o *Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, key, o); err != nil {
		s.log.Warn("event publish failed", zap.String("routing_key", key), zap.String("order_id", o.ID), zap.Error(err))
	}
}
