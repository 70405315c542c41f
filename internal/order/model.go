package order

import "time"

type Order struct {
	ID                    string    `json:"id"`
	CustomerID            string    `json:"customer_id"`
	Status                Status    `json:"status"`
	Total                 string    `json:"total_price"` // NUMERIC -> string
	StripePaymentIntentID string    `json:"stripe_payment_intent_id,omitempty"`
	StripeRefundID        string    `json:"stripe_refund_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Line captures quantity and price at the moment of purchase; it is never
// recalculated from the catalog afterwards.
type Line struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// CreateOrderItem payload of an order item.
type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest payload of order creation. Prices are intentionally
// absent: the server always prices from the catalog.
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items"`
}

// UpdateStatusRequest payload for the status transition endpoint.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
