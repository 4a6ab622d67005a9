package models

import (
	"fmt"
	"math"
	"time"
)

type PredicateKind int

const (
	PredicateStatus PredicateKind = iota + 1
	PredicateCreatedBetween
	PredicateCreatedFrom
	PredicateCreatedTo
	PredicateItemID
)

func (k PredicateKind) String() string {
	switch k {
	case PredicateStatus:
		return "status"
	case PredicateCreatedBetween:
		return "created_between"
	case PredicateCreatedFrom:
		return "created_from"
	case PredicateCreatedTo:
		return "created_to"
	case PredicateItemID:
		return "item_id"
	default:
		return fmt.Sprintf("predicate(%d)", int(k))
	}
}

// Predicate describes one constraint on order items. Only the fields that
// belong to Kind are meaningful.
type Predicate struct {
	Kind   PredicateKind
	Status OrderStatus
	From   time.Time
	To     time.Time
	ItemID int64
}

// OrderItemFilter holds the optional query arguments. A nil field adds no
// constraint.
type OrderItemFilter struct {
	Status    *OrderStatus
	StartDate *time.Time
	EndDate   *time.Time
	ItemID    *int64
}

// Predicates returns the descriptors of the present arguments, in a stable
// order: status, creation time, item id. An empty result matches every row.
func (f OrderItemFilter) Predicates() []Predicate {
	var preds []Predicate
	if f.Status != nil {
		preds = append(preds, Predicate{Kind: PredicateStatus, Status: *f.Status})
	}
	switch {
	case f.StartDate != nil && f.EndDate != nil:
		preds = append(preds, Predicate{Kind: PredicateCreatedBetween, From: *f.StartDate, To: *f.EndDate})
	case f.StartDate != nil:
		preds = append(preds, Predicate{Kind: PredicateCreatedFrom, From: *f.StartDate})
	case f.EndDate != nil:
		preds = append(preds, Predicate{Kind: PredicateCreatedTo, To: *f.EndDate})
	}
	if f.ItemID != nil {
		preds = append(preds, Predicate{Kind: PredicateItemID, ItemID: *f.ItemID})
	}
	return preds
}

// Validate rejects bounds that can never describe a range.
func (f OrderItemFilter) Validate() error {
	if f.Status != nil && !f.Status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, *f.Status)
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return fmt.Errorf("%w: startDate is after endDate", ErrInvalidArgument)
	}
	return nil
}

const (
	DefaultPageSize = 1000
	MaxPageSize     = 1000
)

// PageRequest is a zero-based page index and a page size.
type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("%w: page must not be negative", ErrInvalidArgument)
	}
	if p.Size <= 0 || p.Size > MaxPageSize {
		return fmt.Errorf("%w: size must be between 1 and %d", ErrInvalidArgument, MaxPageSize)
	}
	if p.Page > math.MaxInt/p.Size {
		return fmt.Errorf("%w: page %d is out of range", ErrInvalidArgument, p.Page)
	}
	return nil
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one slice of a larger result set.
type Page[T any] struct {
	Items         []T
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

func NewPage[T any](items []T, req PageRequest, total int64) *Page[T] {
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Items:         items,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

func (p *Page[T]) Empty() bool {
	return p == nil || len(p.Items) == 0
}
