package orders

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fsamadov/tezbazar-backend/internal/cart"
	"github.com/fsamadov/tezbazar-backend/internal/notifications"
	"github.com/fsamadov/tezbazar-backend/internal/promo"
	"github.com/fsamadov/tezbazar-backend/pkg/db/models"
	"github.com/fsamadov/tezbazar-backend/pkg/enums"
	pkgerrors "github.com/fsamadov/tezbazar-backend/pkg/errors"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
	"github.com/fsamadov/tezbazar-backend/pkg/types"
)

// fakeOrderRepo keeps orders in a map and honors the guarded status swap the
// real repository performs.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *order
	f.orders[order.ID] = &copy
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *order
	return &copy, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListAll(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, order := range f.orders {
		out = append(out, *order)
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, packerComment *string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.Status != from {
		return 0, nil
	}
	order.Status = to
	if packerComment != nil {
		order.PackerComment = packerComment
	}
	return 1, nil
}

func (f *fakeOrderRepo) SetPackerComment(ctx context.Context, id uuid.UUID, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order, ok := f.orders[id]; ok {
		order.PackerComment = &comment
	}
	return nil
}

func (f *fakeOrderRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return 0, nil
	}
	delete(f.orders, id)
	return 1, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// fakeCartRepo implements cart.Repository over a slice.
type fakeCartRepo struct {
	mu    sync.Mutex
	items []models.CartItem
}

func (f *fakeCartRepo) WithTx(tx *gorm.DB) cart.Repository { return f }

func (f *fakeCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CartItem
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeCartRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.CartItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) Create(ctx context.Context, item *models.CartItem) error { return nil }

func (f *fakeCartRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return nil
}

func (f *fakeCartRepo) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeCartRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	for _, item := range f.items {
		if item.UserID != userID {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

type fakeProducts struct {
	products map[uuid.UUID]models.Product
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

// fakeNotifier records every emitted notification.
type fakeNotifier struct {
	mu      sync.Mutex
	emitted []notifications.EmitInput
	err     error
}

func (f *fakeNotifier) Emit(ctx context.Context, input notifications.EmitInput) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.emitted = append(f.emitted, input)
	return &models.Notification{ID: uuid.New(), UserID: input.UserID}, nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emitted)
}

func (f *fakeNotifier) last() notifications.EmitInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.emitted[len(f.emitted)-1]
}

type fakeAdvancer struct {
	mu        sync.Mutex
	scheduled []uuid.UUID
	cancelled []uuid.UUID
}

func (f *fakeAdvancer) Schedule(orderID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, orderID)
}

func (f *fakeAdvancer) Cancel(orderID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

type testDeps struct {
	repo     *fakeOrderRepo
	carts    *fakeCartRepo
	products *fakeProducts
	notify   *fakeNotifier
	advance  *fakeAdvancer
	promos   *promo.Registry
}

func newTestService(t *testing.T) (Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		repo:     newFakeOrderRepo(),
		carts:    &fakeCartRepo{},
		products: &fakeProducts{products: map[uuid.UUID]models.Product{}},
		notify:   &fakeNotifier{},
		advance:  &fakeAdvancer{},
	}
	deps.promos, _ = promo.NewRegistry("")

	svc, err := NewService(deps.repo, fakeTx{}, deps.carts, deps.products, deps.promos, deps.notify, testLogger())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	svc.SetAdvancer(deps.advance)
	return svc, deps
}

func seedCart(deps *testDeps, userID uuid.UUID, price string, qty int) models.Product {
	product := models.Product{ID: uuid.New(), Name: "Товар", Price: types.MustMoney(price), InStock: true}
	deps.products.products[product.ID] = product
	deps.carts.items = append(deps.carts.items, models.CartItem{
		ID: uuid.New(), UserID: userID, ProductID: &product.ID, Quantity: qty,
	})
	return product
}

func TestService_CheckoutPricesServerSide(t *testing.T) {
	svc, deps := newTestService(t)
	userID := uuid.New()
	seedCart(deps, userID, "125.00", 2)

	result, err := svc.Checkout(context.Background(), userID, CheckoutInput{DeliveryAddress: "ул. Ленина, 1"})
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}
	if result.Order.TotalAmount.String() != "250.00" {
		t.Fatalf("expected total 250.00, got %s", result.Order.TotalAmount)
	}
	if result.Order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", result.Order.Status)
	}
}

func TestService_CheckoutStoresComments(t *testing.T) {
	svc, deps := newTestService(t)
	userID := uuid.New()
	seedCart(deps, userID, "125.00", 1)

	comment := "позвонить за 10 минут"
	packerComment := "без пакета"
	result, err := svc.Checkout(context.Background(), userID, CheckoutInput{
		DeliveryAddress: "ул. Ленина, 1",
		Comment:         &comment,
		PackerComment:   &packerComment,
	})
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}
	if result.Order.Comment == nil || *result.Order.Comment != comment {
		t.Fatalf("expected comment stored, got %v", result.Order.Comment)
	}
	if result.Order.PackerComment == nil || *result.Order.PackerComment != packerComment {
		t.Fatalf("expected packer comment stored, got %v", result.Order.PackerComment)
	}
	stored, err := deps.repo.GetByID(context.Background(), result.Order.ID)
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if stored.PackerComment == nil || *stored.PackerComment != packerComment {
		t.Fatal("expected packer comment persisted with the order")
	}
}

func TestService_CheckoutAppliesPromo(t *testing.T) {
	svc, deps := newTestService(t)
	userID := uuid.New()
	seedCart(deps, userID, "250.00", 1)

	code := "первый"
	result, err := svc.Checkout(context.Background(), userID, CheckoutInput{
		DeliveryAddress: "ул. Ленина, 1",
		PromoCode:       &code,
	})
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}
	if result.Order.TotalAmount.String() != "200.00" {
		t.Fatalf("expected 20%% discount to yield 200.00, got %s", result.Order.TotalAmount)
	}
	if result.Order.PromoCode == nil || *result.Order.PromoCode != "ПЕРВЫЙ" {
		t.Fatalf("expected canonical promo code stored, got %v", result.Order.PromoCode)
	}
}

func TestService_CheckoutIgnoresUnknownPromo(t *testing.T) {
	svc, deps := newTestService(t)
	userID := uuid.New()
	seedCart(deps, userID, "100.00", 1)

	code := "НЕСУЩЕСТВУЮЩИЙ"
	result, err := svc.Checkout(context.Background(), userID, CheckoutInput{
		DeliveryAddress: "ул. Ленина, 1",
		PromoCode:       &code,
	})
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}
	if result.Order.TotalAmount.String() != "100.00" {
		t.Fatalf("expected full price, got %s", result.Order.TotalAmount)
	}
	if result.Order.PromoCode != nil {
		t.Fatalf("expected no promo stored, got %v", *result.Order.PromoCode)
	}
}

func TestService_CheckoutEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Checkout(context.Background(), uuid.New(), CheckoutInput{DeliveryAddress: "ул. Ленина, 1"})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
}

func TestService_CheckoutExcludesDanglingWithWarning(t *testing.T) {
	svc, deps := newTestService(t)
	userID := uuid.New()
	seedCart(deps, userID, "80.00", 1)
	danglingID := uuid.New()
	deps.carts.items = append(deps.carts.items, models.CartItem{
		ID: uuid.New(), UserID: userID, ProductID: &danglingID, Quantity: 3,
	})

	result, err := svc.Checkout(context.Background(), userID, CheckoutInput{DeliveryAddress: "ул. Ленина, 1"})
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}
	if result.Order.TotalAmount.String() != "80.00" {
		t.Fatalf("expected dangling line excluded from total, got %s", result.Order.TotalAmount)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(result.Warnings))
	}
}

func TestService_CheckoutClearsCartAndNotifies(t *testing.T) {
	svc, deps := newTestService(t)
	userID := uuid.New()
	seedCart(deps, userID, "50.00", 1)

	result, err := svc.Checkout(context.Background(), userID, CheckoutInput{DeliveryAddress: "ул. Ленина, 1"})
	if err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}

	remaining, _ := deps.carts.ListByUser(context.Background(), userID)
	if len(remaining) != 0 {
		t.Fatalf("expected cart cleared, %d items remain", len(remaining))
	}
	if deps.notify.count() != 1 {
		t.Fatalf("expected 1 placed notification, got %d", deps.notify.count())
	}
	if got := deps.notify.last(); got.RelatedOrderID == nil || *got.RelatedOrderID != result.Order.ID {
		t.Fatal("expected notification linked to the order")
	}
	if len(deps.advance.scheduled) != 1 || deps.advance.scheduled[0] != result.Order.ID {
		t.Fatal("expected auto-advance scheduled for the order")
	}
}

func TestService_CheckoutRequiresAddress(t *testing.T) {
	svc, deps := newTestService(t)
	userID := uuid.New()
	seedCart(deps, userID, "50.00", 1)

	_, err := svc.Checkout(context.Background(), userID, CheckoutInput{DeliveryAddress: "   "})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func placeOrder(t *testing.T, svc Service, deps *testDeps) *models.Order {
	t.Helper()
	userID := uuid.New()
	seedCart(deps, userID, "100.00", 1)
	result, err := svc.Checkout(context.Background(), userID, CheckoutInput{DeliveryAddress: "ул. Ленина, 1"})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return result.Order
}

func TestService_TransitionHappyPath(t *testing.T) {
	svc, deps := newTestService(t)
	order := placeOrder(t, svc, deps)
	before := deps.notify.count()

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPreparing,
		enums.OrderStatusDelivering,
		enums.OrderStatusDelivered,
	} {
		updated, err := svc.Transition(context.Background(), order.ID, status, nil)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("expected status %s, got %s", status, updated.Status)
		}
	}

	if got := deps.notify.count() - before; got != 3 {
		t.Fatalf("expected exactly 3 status notifications, got %d", got)
	}
	if len(deps.advance.cancelled) == 0 {
		t.Fatal("expected auto-advance cancelled on terminal status")
	}
}

func TestService_TransitionSkipFails(t *testing.T) {
	svc, deps := newTestService(t)
	order := placeOrder(t, svc, deps)

	_, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusDelivering, nil)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for pending→delivering, got %v", err)
	}

	stored, _ := svc.Get(context.Background(), order.ID)
	if stored.Status != enums.OrderStatusPending {
		t.Fatalf("expected status untouched, got %s", stored.Status)
	}
}

func TestService_TransitionFromTerminalFails(t *testing.T) {
	svc, deps := newTestService(t)
	order := placeOrder(t, svc, deps)

	if _, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusCancelled, nil); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPreparing,
		enums.OrderStatusCancelled,
		enums.OrderStatusPending,
	} {
		_, err := svc.Transition(context.Background(), order.ID, status, nil)
		if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("expected state conflict from cancelled to %s, got %v", status, err)
		}
	}
}

func TestService_TransitionSameStatusNoOp(t *testing.T) {
	svc, deps := newTestService(t)
	order := placeOrder(t, svc, deps)
	before := deps.notify.count()

	updated, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusPending, nil)
	if err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
	if updated.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", updated.Status)
	}
	if deps.notify.count() != before {
		t.Fatal("no-op transition must not emit a notification")
	}
}

func TestService_TransitionBackwardsFails(t *testing.T) {
	svc, deps := newTestService(t)
	order := placeOrder(t, svc, deps)

	if _, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusPreparing, nil); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	_, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusPending, nil)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for preparing→pending, got %v", err)
	}
}

func TestService_TransitionNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Transition(context.Background(), uuid.New(), enums.OrderStatusPreparing, nil)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_TransitionSurvivesNotifierFailure(t *testing.T) {
	svc, deps := newTestService(t)
	order := placeOrder(t, svc, deps)
	deps.notify.err = context.DeadlineExceeded

	updated, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusPreparing, nil)
	if err != nil {
		t.Fatalf("status change must not fail on notifier error, got %v", err)
	}
	if updated.Status != enums.OrderStatusPreparing {
		t.Fatalf("unexpected status %s", updated.Status)
	}
}

func TestService_TransitionSetsPackerComment(t *testing.T) {
	svc, deps := newTestService(t)
	order := placeOrder(t, svc, deps)

	comment := "стеклянные банки, хрупкое"
	updated, err := svc.Transition(context.Background(), order.ID, enums.OrderStatusPreparing, &comment)
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if updated.PackerComment == nil || *updated.PackerComment != comment {
		t.Fatalf("expected packer comment stored, got %v", updated.PackerComment)
	}
}

func TestService_CancelChecksOwnership(t *testing.T) {
	svc, deps := newTestService(t)
	order := placeOrder(t, svc, deps)

	_, err := svc.Cancel(context.Background(), uuid.New(), order.ID)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), order.UserID, order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestService_TransitionManyPartialFailure(t *testing.T) {
	svc, deps := newTestService(t)
	first := placeOrder(t, svc, deps)
	second := placeOrder(t, svc, deps)

	// Push the second order to delivered so a preparing update must fail.
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPreparing,
		enums.OrderStatusDelivering,
		enums.OrderStatusDelivered,
	} {
		if _, err := svc.Transition(context.Background(), second.ID, status, nil); err != nil {
			t.Fatalf("setup transition failed: %v", err)
		}
	}

	succeeded, err := svc.TransitionMany(context.Background(), []uuid.UUID{first.ID, second.ID}, enums.OrderStatusPreparing)
	if err != nil {
		t.Fatalf("partial failure must not error, got %v", err)
	}
	if len(succeeded) != 1 || succeeded[0].ID != first.ID {
		t.Fatalf("expected only the first order updated, got %d", len(succeeded))
	}
}

func TestService_TransitionManyAllFail(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.TransitionMany(context.Background(), []uuid.UUID{uuid.New(), uuid.New()}, enums.OrderStatusPreparing)
	if err == nil {
		t.Fatal("expected error when no order updates")
	}
}

func TestService_DeleteNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Delete(context.Background(), uuid.New())
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_ConcurrentCheckoutsSameUser(t *testing.T) {
	svc, deps := newTestService(t)
	userID := uuid.New()
	seedCart(deps, userID, "10.00", 1)

	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Checkout(context.Background(), userID, CheckoutInput{DeliveryAddress: "ул. Ленина, 1"})
		}(i)
	}
	wg.Wait()

	placed := 0
	for _, err := range results {
		if err == nil {
			placed++
		} else if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("unexpected concurrent checkout error: %v", err)
		}
	}
	if placed != 1 {
		t.Fatalf("expected exactly one checkout to win, got %d", placed)
	}
}
