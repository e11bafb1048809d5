package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fsamadov/tezbazar-backend/pkg/db/models"
	"github.com/fsamadov/tezbazar-backend/pkg/enums"
	"github.com/fsamadov/tezbazar-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  delivery_address TEXT NOT NULL,
  comment TEXT,
  packer_comment TEXT,
  promo_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		TotalAmount:     types.MustMoney("250.00"),
		Status:          status,
		DeliveryAddress: "ул. Айни 10",
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryUpdateStatusGuardsOnPreviousStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := createTestOrder(t, db, uuid.New(), enums.OrderStatusPending, time.Now())

	affected, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPreparing, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Second swap from the stale status updates nothing.
	affected, err = repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPreparing, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, stored.Status)
}

func TestRepositoryUpdateStatusStoresPackerComment(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := createTestOrder(t, db, uuid.New(), enums.OrderStatusPending, time.Now())

	comment := "не хватает хлеба"
	affected, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPreparing, &comment)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PackerComment)
	assert.Equal(t, comment, *stored.PackerComment)
}

func TestRepositoryListByUserNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().Add(-time.Hour)
	older := createTestOrder(t, db, userID, enums.OrderStatusDelivered, base)
	newer := createTestOrder(t, db, userID, enums.OrderStatusPending, base.Add(30*time.Minute))
	createTestOrder(t, db, uuid.New(), enums.OrderStatusPending, base.Add(10*time.Minute))

	rows, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)
}

func TestRepositoryDeleteReportsAffectedRows(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := createTestOrder(t, db, uuid.New(), enums.OrderStatusPending, time.Now())

	affected, err := repo.Delete(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.Delete(ctx, order.ID)
	require.NoError(t, err)
	assert.Zero(t, affected)
}
