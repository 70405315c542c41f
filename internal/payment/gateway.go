// Package payment wraps the external payment processor. The rest of the
// backend depends on the Gateway contract, never on the vendor API directly.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnavailable      = errors.New("payment gateway unavailable")
	ErrInvalidAmount    = errors.New("invalid payment amount")
	ErrAlreadyRefunded  = errors.New("payment already refunded")
	ErrCustomerNotFound = errors.New("gateway customer not found")
)

// GatewayError is returned for any request the processor rejected or that
// never reached it. Err carries the closest sentinel for errors.Is checks.
type GatewayError struct {
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment gateway: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("payment gateway: %s", e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

type Payment struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Created  int64  `json:"created"`
}

type Payout struct {
	ID      string `json:"id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
	Created int64  `json:"created"`
}

// Gateway is the capability set the order, refund and account flows need from
// the processor. Amounts are decimal major units; conversion to the smallest
// currency unit happens at this boundary.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, customerID string, amount decimal.Decimal) (string, error)
	CreateRefund(ctx context.Context, paymentIntentID string) (string, error)
	CreateOrRetrieveCustomer(ctx context.Context, email string) (string, error)
	CreateConnectedAccount(ctx context.Context, email string) (string, error)
	CreateTransfer(ctx context.Context, accountID string, amount decimal.Decimal) (string, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (string, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	ListPayments(ctx context.Context, customerID string, limit int) ([]Payment, error)
	ListPayouts(ctx context.Context, accountID string, limit int) ([]Payout, error)
}
