package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"order-management/models"
)

type OrderItemStore interface {
	FindByID(ctx context.Context, id int64) (*models.OrderItem, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error
	FindAll(ctx context.Context, preds []models.Predicate, page models.PageRequest) (*models.Page[models.OrderItemView], error)
}

type OrderItemService struct {
	items OrderItemStore
	log   *logrus.Logger
}

func NewOrderItemService(items OrderItemStore, log *logrus.Logger) *OrderItemService {
	return &OrderItemService{items: items, log: log}
}

// UpdateStatus overwrites the status of an item. Any status may follow any
// other; the name is matched ignoring case. Callers are expected to have
// checked the admin role already.
func (s *OrderItemService) UpdateStatus(ctx context.Context, id int64, status string) error {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return err
	}
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return err
	}

	if err := s.items.UpdateStatus(ctx, item.ID, next); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"item_id": item.ID,
		"from":    item.Status,
		"to":      next,
	}).Info("Order item status updated")
	return nil
}

// Filter returns one page of items matching every present filter argument.
// An empty page is reported as ErrNotFound.
func (s *OrderItemService) Filter(ctx context.Context, filter models.OrderItemFilter, page models.PageRequest) (*models.Page[models.OrderItemView], error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	result, err := s.items.FindAll(ctx, filter.Predicates(), page)
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		return nil, fmt.Errorf("%w: no matching order items", models.ErrNotFound)
	}
	return result, nil
}
