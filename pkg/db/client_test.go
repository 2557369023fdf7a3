package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/julianreyes-dev/storefront-backend/pkg/db/models"
)

func setupTxTestClient(t *testing.T) *Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  total TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT '',
  stripe_session_id TEXT,
  stripe_payment_intent_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return &Client{conn: conn}
}

func countOrders(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	return count
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	client := setupTxTestClient(t)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.Order{
			ID:    uuid.New(),
			Total: decimal.RequireFromString("10.00"),
		}).Error
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, countOrders(t, client.DB()))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := setupTxTestClient(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Order{
			ID:    uuid.New(),
			Total: decimal.RequireFromString("10.00"),
		}).Error; err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	// The insert ran inside the transaction; the error must erase it.
	assert.Zero(t, countOrders(t, client.DB()))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	client := setupTxTestClient(t)
	ctx := context.Background()

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		_ = client.WithTx(ctx, func(tx *gorm.DB) error {
			if err := tx.Create(&models.Order{
				ID:    uuid.New(),
				Total: decimal.RequireFromString("10.00"),
			}).Error; err != nil {
				return err
			}
			panic("midway")
		})
	}()
	require.Equal(t, "midway", recovered)

	assert.Zero(t, countOrders(t, client.DB()))
}
