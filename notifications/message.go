// Package notifications renders order confirmations and delivers them off
// the request path.
package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultPriority = 5
	HighPriority    = 9
)

var highValueThreshold = decimal.NewFromInt(1000)

// Message is an outbound email.
type Message struct {
	ID       string `json:"id"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	OrderID  int64  `json:"orderId"`
	Priority uint8  `json:"priority"`
}

// Sender delivers a message to a transport or mailbox.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// PriorityFor ranks large orders ahead of the rest.
func PriorityFor(total decimal.Decimal) uint8 {
	if total.GreaterThan(highValueThreshold) {
		return HighPriority
	}
	return DefaultPriority
}

func newMessageID() string {
	return uuid.NewString()
}
