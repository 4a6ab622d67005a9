package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"order-management/models"
)

// ProductRepository is the read-only view of the product catalog.
type ProductRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewProductRepository(db *sql.DB, log *logrus.Logger) *ProductRepository {
	return &ProductRepository{db: db, log: log}
}

func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var (
		p           models.Product
		description sql.NullString
		categoryID  sql.NullInt64
		createdAt   nullTimestamp
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, image_url, category_id, created_at
		FROM products
		WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &description, &p.Price, &p.ImageURL, &categoryID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: product %d", models.ErrNotFound, id)
	}
	if err != nil {
		r.log.Errorf("Failed to load product %d: %v", id, err)
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}

	p.Description = description.String
	p.CategoryID = categoryID.Int64
	p.CreatedAt = createdAt.Time
	return &p, nil
}
