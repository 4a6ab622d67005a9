package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"order-management/models"
	"order-management/notifications"
)

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	Delete(ctx context.Context, id int64) error
}

// Notifier accepts messages for delivery without blocking.
type Notifier interface {
	Notify(msg notifications.Message)
}

type OrderService struct {
	pricing  *PricingEngine
	orders   OrderStore
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

func NewOrderService(pricing *PricingEngine, orders OrderStore, notifier Notifier, log *logrus.Logger) *OrderService {
	return &OrderService{
		pricing:  pricing,
		orders:   orders,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// PlaceOrder prices the request, stores the order with all its items in one
// transaction and, once committed, queues the confirmation email.
func (s *OrderService) PlaceOrder(ctx context.Context, user *models.User, req models.PlaceOrderRequest) (*models.Order, error) {
	if user == nil {
		return nil, models.ErrUnauthenticated
	}

	quote, err := s.pricing.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		TotalPrice: quote.Total,
		CreatedAt:  now,
		Items:      make([]*models.OrderItem, 0, len(quote.Lines)),
	}
	for _, line := range quote.Lines {
		order.Items = append(order.Items, &models.OrderItem{
			Quantity:  line.Quantity,
			Price:     line.Price,
			Status:    models.StatusPending,
			UserID:    user.ID,
			ProductID: line.Product.ID,
			CreatedAt: now,
			Order:     order,
			Product:   line.Product,
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  user.ID,
		"items":    len(order.Items),
		"total":    order.TotalPrice.String(),
	}).Info("Order placed")

	s.notifyPlaced(user, order)
	return order, nil
}

func (s *OrderService) notifyPlaced(user *models.User, order *models.Order) {
	msg, err := notifications.RenderOrderConfirmation(user, order)
	if err != nil {
		s.log.Errorf("Failed to render confirmation for order %d: %v", order.ID, err)
		return
	}
	s.notifier.Notify(msg)
}

// GetOrder returns an order visible to user: admins see every order, other
// users only orders containing their items.
func (s *OrderService) GetOrder(ctx context.Context, user *models.User, id int64) (*models.Order, error) {
	if user == nil {
		return nil, models.ErrUnauthenticated
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return order, nil
	}
	for _, item := range order.Items {
		if item.UserID == user.ID {
			return order, nil
		}
	}
	return nil, fmt.Errorf("%w: order %d belongs to another user", models.ErrForbidden, id)
}

// DeleteOrder removes an order and its items. The admin role is enforced by
// the route group, not here.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	return s.orders.Delete(ctx, id)
}
