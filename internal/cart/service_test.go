package cart

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fsamadov/tezbazar-backend/pkg/db/models"
	pkgerrors "github.com/fsamadov/tezbazar-backend/pkg/errors"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
	"github.com/fsamadov/tezbazar-backend/pkg/types"
)

type fakeRepository struct {
	listByUserFn           func(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	findByIDAndUserFn      func(ctx context.Context, id, userID uuid.UUID) (*models.CartItem, error)
	findByUserAndProductFn func(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	createFn               func(ctx context.Context, item *models.CartItem) error
	updateQuantityFn       func(ctx context.Context, id uuid.UUID, quantity int) error
	deleteFn               func(ctx context.Context, id, userID uuid.UUID) (int64, error)
	deleteByUserFn         func(ctx context.Context, userID uuid.UUID) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeRepository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.CartItem, error) {
	if f.findByIDAndUserFn != nil {
		return f.findByIDAndUserFn(ctx, id, userID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	if f.findByUserAndProductFn != nil {
		return f.findByUserAndProductFn(ctx, userID, productID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Create(ctx context.Context, item *models.CartItem) error {
	if f.createFn != nil {
		return f.createFn(ctx, item)
	}
	return nil
}

func (f *fakeRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if f.updateQuantityFn != nil {
		return f.updateQuantityFn(ctx, id, quantity)
	}
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, userID)
	}
	return 0, nil
}

func (f *fakeRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if f.deleteByUserFn != nil {
		return f.deleteByUserFn(ctx, userID)
	}
	return nil
}

type fakeProducts struct {
	products map[uuid.UUID]models.Product
}

func (f *fakeProducts) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return &p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (f *fakeProducts) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func newTestService(t *testing.T, repo Repository, products productLoader) Service {
	t.Helper()
	svc, err := NewService(repo, products, testLogger())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func inStockProduct(price string) models.Product {
	return models.Product{ID: uuid.New(), Name: "Молоко", Price: types.MustMoney(price), InStock: true}
}

func TestService_AddItemCreates(t *testing.T) {
	product := inStockProduct("89.00")
	var created *models.CartItem
	repo := &fakeRepository{
		createFn: func(ctx context.Context, item *models.CartItem) error {
			created = item
			return nil
		},
	}
	svc := newTestService(t, repo, &fakeProducts{products: map[uuid.UUID]models.Product{product.ID: product}})

	userID := uuid.New()
	item, err := svc.AddItem(context.Background(), userID, product.ID, 2)
	if err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}
	if created == nil {
		t.Fatal("expected item persisted")
	}
	if item.Quantity != 2 || item.UserID != userID {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestService_AddItemMergesAndCaps(t *testing.T) {
	product := inStockProduct("89.00")
	existing := &models.CartItem{ID: uuid.New(), Quantity: 98, ProductID: &product.ID}
	var savedQty int
	repo := &fakeRepository{
		findByUserAndProductFn: func(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
			return existing, nil
		},
		updateQuantityFn: func(ctx context.Context, id uuid.UUID, quantity int) error {
			savedQty = quantity
			return nil
		},
	}
	svc := newTestService(t, repo, &fakeProducts{products: map[uuid.UUID]models.Product{product.ID: product}})

	item, err := svc.AddItem(context.Background(), uuid.New(), product.ID, 5)
	if err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}
	if savedQty != MaxQuantity || item.Quantity != MaxQuantity {
		t.Fatalf("expected merged quantity capped at %d, got %d", MaxQuantity, savedQty)
	}
}

func TestService_AddItemQuantityBounds(t *testing.T) {
	product := inStockProduct("89.00")
	svc := newTestService(t, &fakeRepository{}, &fakeProducts{products: map[uuid.UUID]models.Product{product.ID: product}})

	for _, qty := range []int{0, -1, 100} {
		_, err := svc.AddItem(context.Background(), uuid.New(), product.ID, qty)
		if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for qty %d, got %v", qty, err)
		}
	}
}

func TestService_AddItemOutOfStock(t *testing.T) {
	product := inStockProduct("89.00")
	product.InStock = false
	svc := newTestService(t, &fakeRepository{}, &fakeProducts{products: map[uuid.UUID]models.Product{product.ID: product}})

	_, err := svc.AddItem(context.Background(), uuid.New(), product.ID, 1)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestService_AddItemRetriesOnUniqueViolation(t *testing.T) {
	product := inStockProduct("89.00")
	attempts := 0
	merged := &models.CartItem{ID: uuid.New(), Quantity: 1, ProductID: &product.ID}
	repo := &fakeRepository{
		findByUserAndProductFn: func(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
			if attempts > 0 {
				return merged, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		createFn: func(ctx context.Context, item *models.CartItem) error {
			attempts++
			return errors.New("duplicate key value violates unique constraint \"idx_cart_user_product\"")
		},
	}
	svc := newTestService(t, repo, &fakeProducts{products: map[uuid.UUID]models.Product{product.ID: product}})

	item, err := svc.AddItem(context.Background(), uuid.New(), product.ID, 1)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if item.ID != merged.ID {
		t.Fatal("expected retry to land on the merged row")
	}
	if item.Quantity != 2 {
		t.Fatalf("expected merged quantity 2, got %d", item.Quantity)
	}
}

func TestService_UpdateQuantityZeroDeletes(t *testing.T) {
	itemID := uuid.New()
	userID := uuid.New()
	deleted := false
	repo := &fakeRepository{
		findByIDAndUserFn: func(ctx context.Context, id, uid uuid.UUID) (*models.CartItem, error) {
			return &models.CartItem{ID: itemID, UserID: userID, Quantity: 3}, nil
		},
		deleteFn: func(ctx context.Context, id, uid uuid.UUID) (int64, error) {
			deleted = true
			return 1, nil
		},
	}
	svc := newTestService(t, repo, &fakeProducts{})

	item, err := svc.UpdateQuantity(context.Background(), userID, itemID, 0)
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil item after zero-quantity delete, got %+v", item)
	}
	if !deleted {
		t.Fatal("expected row deleted")
	}
}

func TestService_UpdateQuantityNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeProducts{})
	_, err := svc.UpdateQuantity(context.Background(), uuid.New(), uuid.New(), 2)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_RemoveItemNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeProducts{})
	err := svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_GetCartSkipsDanglingAndTotals(t *testing.T) {
	product := inStockProduct("125.00")
	userID := uuid.New()
	danglingID := uuid.New()
	repo := &fakeRepository{
		listByUserFn: func(ctx context.Context, uid uuid.UUID) ([]models.CartItem, error) {
			return []models.CartItem{
				{ID: uuid.New(), UserID: userID, ProductID: &product.ID, Quantity: 2},
				{ID: uuid.New(), UserID: userID, ProductID: &danglingID, Quantity: 1},
				{ID: uuid.New(), UserID: userID, ProductID: nil, Quantity: 4},
			}, nil
		},
	}
	svc := newTestService(t, repo, &fakeProducts{products: map[uuid.UUID]models.Product{product.ID: product}})

	view, err := svc.GetCart(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected dangling rows excluded, got %d items", len(view.Items))
	}
	if view.Total.String() != "250.00" {
		t.Fatalf("expected total 250.00, got %s", view.Total)
	}
}
