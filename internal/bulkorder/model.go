package bulkorder

import "time"

type Status string

const (
	StatusRequested Status = "requested"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPaid      Status = "paid"
)

var transitions = map[Status][]Status{
	StatusRequested: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusPaid, StatusRejected},
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusRequested, StatusApproved, StatusRejected, StatusPaid:
		return Status(s), true
	}
	return "", false
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BulkOrder is a negotiated large-volume request; it is quoted and approved by
// an admin before any payment link is issued.
type BulkOrder struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	Details     string    `json:"details"`
	Amount      string    `json:"amount"` // NUMERIC -> string
	Status      Status    `json:"status"`
	PaymentLink string    `json:"payment_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Details string `json:"details"`
	Amount  string `json:"amount"`
}

type UpdateStatusRequest struct {
	Status      string `json:"status"`
	PaymentLink string `json:"payment_link"`
}
