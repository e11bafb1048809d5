package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fsamadov/tezbazar-backend/internal/catalog"
	"github.com/fsamadov/tezbazar-backend/pkg/db/models"
	pkgerrors "github.com/fsamadov/tezbazar-backend/pkg/errors"
	"github.com/fsamadov/tezbazar-backend/pkg/types"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price TEXT NOT NULL,
  weight TEXT,
  image_url TEXT,
  category_id TEXT,
  is_popular INTEGER NOT NULL DEFAULT 0,
  in_stock INTEGER NOT NULL DEFAULT 1,
  ingredients TEXT,
  manufacturer TEXT,
  country_of_origin TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT idx_cart_user_product UNIQUE (user_id, product_id)
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	return db
}

// newWiredCartService builds the cart service over a real catalog service,
// mirroring how cmd/api assembles them.
func newWiredCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	catalogService, err := catalog.NewService(catalog.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(NewRepository(db), catalogService, testLogger())
	require.NoError(t, err)
	return svc
}

func createTestProduct(t *testing.T, db *gorm.DB, inStock bool) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:      uuid.New(),
		Name:    "Хлеб Бородинский",
		Price:   types.MustMoney("89.00"),
		InStock: inStock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestAddItemUnknownProductIsNotFound(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newWiredCartService(t, db)

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "missing product must surface as a typed error, got %v", err)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAddItemPersistsAndMerges(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newWiredCartService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	product := createTestProduct(t, db, true)

	item, err := svc.AddItem(ctx, userID, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	merged, err := svc.AddItem(ctx, userID, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, item.ID, merged.ID)
	assert.Equal(t, 5, merged.Quantity)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddItemOutOfStockProductConflicts(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newWiredCartService(t, db)

	product := createTestProduct(t, db, false)

	_, err := svc.AddItem(context.Background(), uuid.New(), product.ID, 1)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}
