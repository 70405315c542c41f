package order

import "errors"

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusRefunded Status = "refunded"
	StatusFailed   Status = "failed"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

// transitions is the whole lifecycle: pending -> paid -> refunded, with
// pending -> failed as the terminal path for payments that never complete.
var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusFailed},
	StatusPaid:    {StatusRefunded},
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusRefunded, StatusFailed:
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
