// Package testdb provides migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"order-management/config"
	"order-management/database"
	"order-management/models"
)

// New returns a fresh in-memory database with the schema applied. It is
// closed when the test ends.
func New(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, config.DriverSQLite))
	return db
}

// Logger discards output unless the test runs with -v.
func Logger(t testing.TB) *logrus.Logger {
	log := logrus.New()
	if !testing.Verbose() {
		log.SetOutput(io.Discard)
	}
	return log
}

func InsertUser(t testing.TB, db *sql.DB, name, email string, role models.UserRole) *models.User {
	t.Helper()

	res, err := db.Exec("INSERT INTO users (name, email, phone_number, role) VALUES (?, ?, ?, ?)",
		name, email, "555-0100", string(role))
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	return &models.User{ID: id, Name: name, Email: email, PhoneNumber: "555-0100", Role: role}
}

func InsertProduct(t testing.TB, db *sql.DB, name, price string) *models.Product {
	t.Helper()

	p := decimal.RequireFromString(price)
	res, err := db.Exec("INSERT INTO products (name, description, price, image_url) VALUES (?, ?, ?, ?)",
		name, name+" description", p.String(), "https://img.example/"+name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	return &models.Product{ID: id, Name: name, Description: name + " description", Price: p, ImageURL: "https://img.example/" + name}
}

// InsertOrderItem stores a single-item order created at the given time and
// returns the item id.
func InsertOrderItem(t testing.TB, db *sql.DB, userID, productID int64, status models.OrderStatus, createdAt time.Time) int64 {
	t.Helper()

	ts := createdAt.UTC().Format("2006-01-02 15:04:05.000000")
	res, err := db.Exec("INSERT INTO orders (total_price, created_at) VALUES (?, ?)", "10.00", ts)
	require.NoError(t, err)
	orderID, err := res.LastInsertId()
	require.NoError(t, err)

	res, err = db.Exec(`INSERT INTO order_items (order_id, product_id, user_id, quantity, price, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, orderID, productID, userID, 1, "10.00", string(status), ts)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
