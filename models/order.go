package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusReturning OrderStatus = "RETURNING"
)

var orderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusReturning,
}

// OrderStatuses returns every known line-item status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

// ParseOrderStatus matches name against the known statuses ignoring case
// and surrounding whitespace.
func ParseOrderStatus(name string) (OrderStatus, error) {
	candidate := strings.TrimSpace(name)
	for _, s := range orderStatuses {
		if strings.EqualFold(candidate, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, name)
}

func (s OrderStatus) Valid() bool {
	for _, known := range orderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order owns its line items: they are created and deleted together with it.
type Order struct {
	ID         int64           `json:"id"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Items      []*OrderItem    `json:"items"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// OrderItem is one product+quantity entry of an order. Price is fixed at
// placement time and never recomputed from the catalog.
type OrderItem struct {
	ID        int64           `json:"id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Status    OrderStatus     `json:"status"`
	UserID    int64           `json:"userId"`
	ProductID int64           `json:"productId"`
	OrderID   int64           `json:"orderId"`
	CreatedAt time.Time       `json:"createdAt"`

	// Order is the owning order; set before the graph is persisted.
	Order *Order `json:"-"`
	// Product is the catalog entry the item was priced from, when loaded.
	Product *Product `json:"-"`
}

// OrderItemRequest is one requested line of a placement.
type OrderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// PlaceOrderRequest is the placement payload. TotalPrice is honoured only
// when present and strictly positive.
type PlaceOrderRequest struct {
	Items      []OrderItemRequest `json:"items"`
	TotalPrice *decimal.Decimal   `json:"totalPrice,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderItemView is an order item enriched with product and user summaries.
type OrderItemView struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Product   *ProductSummary `json:"product,omitempty"`
	User      *UserSummary    `json:"user,omitempty"`
}
