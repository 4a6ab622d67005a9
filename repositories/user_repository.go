package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"order-management/models"
)

type UserRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewUserRepository(db *sql.DB, log *logrus.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone_number, role
		FROM users
		WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	if err != nil {
		r.log.Errorf("Failed to load user %d: %v", id, err)
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	u.Role = models.UserRole(role)
	return &u, nil
}
