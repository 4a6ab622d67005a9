package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"order-management/models"
)

// OrderRepository persists orders together with the items they own.
type OrderRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewOrderRepository(db *sql.DB, log *logrus.Logger) *OrderRepository {
	return &OrderRepository{db: db, log: log}
}

// Create writes the order and every item in one transaction. On success the
// generated ids are set on order and its items.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := withTx(ctx, r.db, nil, r.log, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO orders (total_price, created_at) VALUES (?, ?)",
			order.TotalPrice.String(), formatTimestamp(order.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("order id: %w", err)
		}

		ids := make([]int64, len(order.Items))
		for i, item := range order.Items {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, user_id, quantity, price, status, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				orderID, item.ProductID, item.UserID, item.Quantity, item.Price.String(), string(item.Status), formatTimestamp(item.CreatedAt))
			if err != nil {
				return fmt.Errorf("insert item for product %d: %w", item.ProductID, err)
			}
			if ids[i], err = res.LastInsertId(); err != nil {
				return fmt.Errorf("order item id: %w", err)
			}
		}

		order.ID = orderID
		for i, item := range order.Items {
			item.ID = ids[i]
			item.OrderID = orderID
			item.Order = order
		}
		return nil
	})
	if err != nil {
		r.log.Errorf("Failed to create order: %v", err)
		return err
	}

	r.log.Infof("Order %d created with %d items", order.ID, len(order.Items))
	return nil
}

// FindByID loads an order and its items.
func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	return findOrder(ctx, r.db, id)
}

// Delete removes an order and its items atomically.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	err := withTx(ctx, r.db, nil, r.log, func(tx *sql.Tx) error {
		var found int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM orders WHERE id = ?", id).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: order %d", models.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("load order %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", id); err != nil {
			return fmt.Errorf("delete items of order %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete order %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Infof("Order %d deleted", id)
	return nil
}

func findOrder(ctx context.Context, q querier, id int64) (*models.Order, error) {
	var (
		order     models.Order
		createdAt nullTimestamp
	)
	err := q.QueryRowContext(ctx,
		"SELECT id, total_price, created_at FROM orders WHERE id = ?", id,
	).Scan(&order.ID, &order.TotalPrice, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}
	order.CreatedAt = createdAt.Time

	rows, err := q.QueryContext(ctx, `
		SELECT `+orderItemColumns+`
		FROM order_items
		WHERE order_id = ?
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load items of order %d: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	order.Items = []*models.OrderItem{}
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		item.Order = &order
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items of order %d: %w", id, err)
	}
	return &order, nil
}
