package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-management/internal/testdb"
	"order-management/models"
	"order-management/notifications"
	"order-management/repositories"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notifications.Message
}

func (n *recordingNotifier) Notify(msg notifications.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

type fixture struct {
	db       *sql.DB
	orders   *OrderService
	items    *OrderItemService
	notifier *recordingNotifier
	admin    *models.User
	customer *models.User
	widget   *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testdb.New(t)
	log := testdb.Logger(t)
	notifier := &recordingNotifier{}

	pricing := NewPricingEngine(repositories.NewProductRepository(db, log))
	f := &fixture{
		db:       db,
		orders:   NewOrderService(pricing, repositories.NewOrderRepository(db, log), notifier, log),
		items:    NewOrderItemService(repositories.NewOrderItemRepository(db, log), log),
		notifier: notifier,
		admin:    testdb.InsertUser(t, db, "Admin", "admin@example.com", models.RoleAdmin),
		customer: testdb.InsertUser(t, db, "Carol", "carol@example.com", models.RoleUser),
		widget:   testdb.InsertProduct(t, db, "Widget", "10.00"),
	}
	return f
}

func (f *fixture) count(t *testing.T, table string) int {
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.PlaceOrder(ctx, f.customer, models.PlaceOrderRequest{
		Items: []models.OrderItemRequest{{ProductID: f.widget.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)
	assert.True(t, dec("20.00").Equal(order.TotalPrice))
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.True(t, dec("20.00").Equal(item.Price))
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, f.customer.ID, item.UserID)
	assert.Same(t, order, item.Order)

	stored, err := f.orders.GetOrder(ctx, f.customer, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, dec("20").Equal(stored.TotalPrice))
	assert.Equal(t, models.StatusPending, stored.Items[0].Status)

	require.Len(t, f.notifier.msgs, 1)
	msg := f.notifier.msgs[0]
	assert.Equal(t, "carol@example.com", msg.To)
	assert.Equal(t, order.ID, msg.OrderID)
	assert.Contains(t, msg.Body, "Widget - 2 x 20.00")
	assert.Contains(t, msg.Body, "Hi Carol,")
}

func TestPlaceOrderUsesPositiveSuppliedTotal(t *testing.T) {
	f := newFixture(t)
	total := dec("15.00")

	order, err := f.orders.PlaceOrder(context.Background(), f.customer, models.PlaceOrderRequest{
		Items:      []models.OrderItemRequest{{ProductID: f.widget.ID, Quantity: 2}},
		TotalPrice: &total,
	})
	require.NoError(t, err)
	assert.True(t, total.Equal(order.TotalPrice))
	assert.True(t, dec("20").Equal(order.Items[0].Price))
}

func TestPlaceOrderMissingProductPersistsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.PlaceOrder(context.Background(), f.customer, models.PlaceOrderRequest{
		Items: []models.OrderItemRequest{
			{ProductID: f.widget.ID, Quantity: 1},
			{ProductID: 9999, Quantity: 1},
		},
	})
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Zero(t, f.count(t, "orders"))
	assert.Zero(t, f.count(t, "order_items"))
	assert.Empty(t, f.notifier.msgs)
}

func TestPlaceOrderRequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.PlaceOrder(context.Background(), nil, models.PlaceOrderRequest{
		Items: []models.OrderItemRequest{{ProductID: f.widget.ID, Quantity: 1}},
	})
	assert.True(t, errors.Is(err, models.ErrUnauthenticated))
}

func TestGetOrderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := testdb.InsertUser(t, f.db, "Dan", "dan@example.com", models.RoleUser)

	order, err := f.orders.PlaceOrder(ctx, f.customer, models.PlaceOrderRequest{
		Items: []models.OrderItemRequest{{ProductID: f.widget.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, f.admin, order.ID)
	assert.NoError(t, err)
	_, err = f.orders.GetOrder(ctx, other, order.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden))
	_, err = f.orders.GetOrder(ctx, f.admin, order.ID+1)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.PlaceOrder(ctx, f.customer, models.PlaceOrderRequest{
		Items: []models.OrderItemRequest{{ProductID: f.widget.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.orders.DeleteOrder(ctx, order.ID))
	assert.Zero(t, f.count(t, "order_items"))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testdb.InsertOrderItem(t, f.db, f.customer.ID, f.widget.ID, models.StatusPending, time.Now())

	require.NoError(t, f.items.UpdateStatus(ctx, id, "shipped"))
	assert.Equal(t, models.StatusShipped, f.itemStatus(t, id))

	// Any status may follow any other.
	require.NoError(t, f.items.UpdateStatus(ctx, id, "Pending"))
	assert.Equal(t, models.StatusPending, f.itemStatus(t, id))
}

func TestUpdateStatusUnknownNameLeavesItemUnchanged(t *testing.T) {
	f := newFixture(t)
	id := testdb.InsertOrderItem(t, f.db, f.customer.ID, f.widget.ID, models.StatusConfirmed, time.Now())

	err := f.items.UpdateStatus(context.Background(), id, "bogus")
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
	assert.Equal(t, models.StatusConfirmed, f.itemStatus(t, id))
}

func TestUpdateStatusMissingItem(t *testing.T) {
	f := newFixture(t)
	err := f.items.UpdateStatus(context.Background(), 404, "shipped")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func (f *fixture) itemStatus(t *testing.T, id int64) models.OrderStatus {
	var status string
	require.NoError(t, f.db.QueryRow("SELECT status FROM order_items WHERE id = ?", id).Scan(&status))
	return models.OrderStatus(status)
}

func TestFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	all := models.PageRequest{Page: 0, Size: models.DefaultPageSize}

	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	jan20 := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	mar1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	testdb.InsertOrderItem(t, f.db, f.customer.ID, f.widget.ID, models.StatusShipped, jan5)
	testdb.InsertOrderItem(t, f.db, f.customer.ID, f.widget.ID, models.StatusShipped, jan20)
	testdb.InsertOrderItem(t, f.db, f.customer.ID, f.widget.ID, models.StatusShipped, mar1)
	testdb.InsertOrderItem(t, f.db, f.customer.ID, f.widget.ID, models.StatusPending, jan20)

	shipped := models.StatusShipped
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	page, err := f.items.Filter(ctx, models.OrderItemFilter{Status: &shipped, StartDate: &start, EndDate: &end}, all)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.TotalElements)
	assert.Equal(t, 1, page.TotalPages)

	page, err = f.items.Filter(ctx, models.OrderItemFilter{}, all)
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)

	delivered := models.StatusDelivered
	_, err = f.items.Filter(ctx, models.OrderItemFilter{Status: &delivered}, all)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Contains(t, err.Error(), "no matching order items")

	_, err = f.items.Filter(ctx, models.OrderItemFilter{StartDate: &end, EndDate: &start}, all)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestFilterEmptyStore(t *testing.T) {
	f := newFixture(t)
	_, err := f.items.Filter(context.Background(), models.OrderItemFilter{},
		models.PageRequest{Page: 0, Size: 10})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
