package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/julianreyes-dev/storefront-backend/pkg/db/models"
	"github.com/julianreyes-dev/storefront-backend/pkg/enums"
	"github.com/julianreyes-dev/storefront-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	orders := `
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
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, userID *uuid.UUID, total string, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Total:     decimal.RequireFromString(total),
		CreatedAt: created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	order, err := repo.Create(ctx, &models.Order{
		ID:     uuid.New(),
		UserID: &userID,
		Total:  decimal.RequireFromString("25.50"),
	})
	require.NoError(t, err)

	items := []models.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, ProductID: uuid.New(), Name: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{ID: uuid.New(), OrderID: order.ID, ProductID: uuid.New(), Name: "Gadget", Quantity: 1, UnitPrice: decimal.RequireFromString("5.50")},
	}
	require.NoError(t, repo.CreateItems(ctx, items))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("25.50")))
	assert.Equal(t, enums.OrderStatus(""), found.Status)
	assert.Len(t, found.Items, 2)
	assert.Nil(t, found.StripeSessionID)
}

func TestRepositoryPaymentLifecycle(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := createTestOrder(t, db, nil, "10.00", time.Now().UTC())

	require.NoError(t, repo.SetPaymentSession(ctx, order.ID, "cs_test_123", enums.OrderStatusPending))
	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.StripeSessionID)
	assert.Equal(t, "cs_test_123", *found.StripeSessionID)
	assert.Equal(t, enums.OrderStatusPending, found.Status)

	require.NoError(t, repo.MarkPaid(ctx, order.ID, "pi_test_456"))
	found, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.StripePaymentIntentID)
	assert.Equal(t, "pi_test_456", *found.StripePaymentIntentID)
	assert.Equal(t, enums.OrderStatusPaid, found.Status)

	// Replayed webhook delivery re-applies the same terminal update.
	require.NoError(t, repo.MarkPaid(ctx, order.ID, "pi_test_456"))
	found, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, found.Status)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := createTestOrder(t, db, nil, "10.00", time.Now().UTC())

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, enums.OrderStatusShipped))
	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, found.Status)
}

func TestRepositoryListByUserPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	createTestOrder(t, db, &userID, "10.00", base)
	createTestOrder(t, db, &userID, "20.00", base.Add(1*time.Hour))
	createTestOrder(t, db, &userID, "30.00", base.Add(2*time.Hour))
	createTestOrder(t, db, &otherID, "99.00", base.Add(3*time.Hour))

	rows, next, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Total.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, rows[1].Total.Equal(decimal.RequireFromString("20.00")))
	require.NotEmpty(t, next)

	rows, next, err = repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Total.Equal(decimal.RequireFromString("10.00")))
	assert.Empty(t, next)
}

func TestRepositoryListAll(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	createTestOrder(t, db, &userID, "10.00", base)
	createTestOrder(t, db, nil, "20.00", base.Add(time.Hour))

	rows, next, err := repo.ListAll(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Empty(t, next)
}
