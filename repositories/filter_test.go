package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-management/models"
)

func TestWhereClauseEmpty(t *testing.T) {
	where, args, err := whereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestWhereClauseComposesWithAnd(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	preds := []models.Predicate{
		{Kind: models.PredicateStatus, Status: models.StatusShipped},
		{Kind: models.PredicateCreatedBetween, From: from, To: to},
		{Kind: models.PredicateItemID, ItemID: 42},
	}

	where, args, err := whereClause(preds)
	require.NoError(t, err)
	assert.Equal(t, " WHERE oi.status = ? AND oi.created_at BETWEEN ? AND ? AND oi.id = ?", where)
	assert.Equal(t, []interface{}{"SHIPPED", "2024-01-01 00:00:00.000000", "2024-01-31 00:00:00.000000", int64(42)}, args)
}

func TestWhereClauseRejectsUnknownKind(t *testing.T) {
	_, _, err := whereClause([]models.Predicate{{Kind: models.PredicateKind(99)}})
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestTimestampRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 11, 12, 123456000, time.FixedZone("X", 3600))
	v := formatTimestamp(at)
	assert.Equal(t, "2024-03-05 09:11:12.123456", v)

	var ts nullTimestamp
	require.NoError(t, ts.Scan(v))
	assert.True(t, ts.Valid)
	assert.True(t, at.Equal(ts.Time))

	require.NoError(t, ts.Scan([]byte("2024-03-05 09:11:12")))
	assert.Equal(t, 0, ts.Time.Nanosecond())

	require.NoError(t, ts.Scan(nil))
	assert.False(t, ts.Valid)

	assert.Error(t, ts.Scan("yesterday"))
}
