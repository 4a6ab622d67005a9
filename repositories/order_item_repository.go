package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"order-management/models"
)

const orderItemColumns = "id, order_id, product_id, user_id, quantity, price, status, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrderItem(row rowScanner) (*models.OrderItem, error) {
	var (
		item      models.OrderItem
		status    string
		createdAt nullTimestamp
	)
	err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.UserID,
		&item.Quantity, &item.Price, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	item.Status = models.OrderStatus(status)
	item.CreatedAt = createdAt.Time
	return &item, nil
}

type OrderItemRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewOrderItemRepository(db *sql.DB, log *logrus.Logger) *OrderItemRepository {
	return &OrderItemRepository{db: db, log: log}
}

func (r *OrderItemRepository) FindByID(ctx context.Context, id int64) (*models.OrderItem, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderItemColumns+" FROM order_items WHERE id = ?", id)
	item, err := scanOrderItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order item %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load order item %d: %w", id, err)
	}
	return item, nil
}

// UpdateStatus overwrites the stored status of an existing item.
func (r *OrderItemRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE order_items SET status = ? WHERE id = ?", string(status), id); err != nil {
		r.log.Errorf("Failed to update status of order item %d: %v", id, err)
		return fmt.Errorf("update order item %d: %w", id, err)
	}
	r.log.Infof("Order item %d status set to %s", id, status)
	return nil
}

const orderItemViewQuery = `
	SELECT oi.id, oi.order_id, oi.quantity, oi.price, oi.status, oi.created_at,
		p.id, p.name, p.description, p.price, p.image_url,
		u.id, u.name, u.email, u.phone_number, u.role
	FROM order_items oi
	LEFT JOIN products p ON p.id = oi.product_id
	LEFT JOIN users u ON u.id = oi.user_id`

// FindAll returns the requested page of items matching every predicate,
// newest first, joined with their product and user. The count and the page
// are read in one transaction so the totals agree with the rows.
func (r *OrderItemRepository) FindAll(ctx context.Context, preds []models.Predicate, page models.PageRequest) (*models.Page[models.OrderItemView], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	where, args, err := whereClause(preds)
	if err != nil {
		return nil, err
	}

	var (
		total int64
		views []models.OrderItemView
	)
	err = withTx(ctx, r.db, readOnly, r.log, func(tx *sql.Tx) error {
		var err error
		total, err = countOrderItems(ctx, tx, where, args)
		if err != nil {
			return err
		}
		views, err = pageOrderItems(ctx, tx, where, args, page)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.log.Debugf("Order item query matched %d rows, returning %d", total, len(views))
	return models.NewPage(views, page, total), nil
}

func countOrderItems(ctx context.Context, q querier, where string, args []interface{}) (int64, error) {
	var total int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_items oi"+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count order items: %w", err)
	}
	return total, nil
}

func pageOrderItems(ctx context.Context, q querier, where string, args []interface{}, page models.PageRequest) ([]models.OrderItemView, error) {
	query := orderItemViewQuery + where + " ORDER BY oi.id DESC LIMIT ? OFFSET ?"
	pageArgs := append(append([]interface{}{}, args...), page.Size, page.Offset())

	rows, err := q.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	views := make([]models.OrderItemView, 0, page.Size)
	for rows.Next() {
		view, err := scanOrderItemView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return views, nil
}

func scanOrderItemView(rows *sql.Rows) (models.OrderItemView, error) {
	var (
		v         models.OrderItemView
		status    string
		createdAt nullTimestamp

		productID                       sql.NullInt64
		productName, productDescription sql.NullString
		productPrice                    decimal.NullDecimal
		productImage                    sql.NullString

		userID                         sql.NullInt64
		userName, userEmail, userPhone sql.NullString
		userRole                       sql.NullString
	)
	err := rows.Scan(&v.ID, &v.OrderID, &v.Quantity, &v.Price, &status, &createdAt,
		&productID, &productName, &productDescription, &productPrice, &productImage,
		&userID, &userName, &userEmail, &userPhone, &userRole)
	if err != nil {
		return v, err
	}

	v.Status = models.OrderStatus(status)
	v.CreatedAt = createdAt.Time
	if productID.Valid {
		v.Product = &models.ProductSummary{
			ID:          productID.Int64,
			Name:        productName.String,
			Description: productDescription.String,
			Price:       productPrice.Decimal,
			ImageURL:    productImage.String,
		}
	}
	if userID.Valid {
		v.User = &models.UserSummary{
			ID:          userID.Int64,
			Name:        userName.String,
			Email:       userEmail.String,
			PhoneNumber: userPhone.String,
			Role:        models.UserRole(userRole.String),
		}
	}
	return v, nil
}
