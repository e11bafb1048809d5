package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/fsamadov/tezbazar-backend/internal/banners"
	"github.com/fsamadov/tezbazar-backend/internal/cart"
	"github.com/fsamadov/tezbazar-backend/internal/catalog"
	"github.com/fsamadov/tezbazar-backend/internal/notifications"
	"github.com/fsamadov/tezbazar-backend/internal/orders"
	"github.com/fsamadov/tezbazar-backend/internal/promo"
	"github.com/fsamadov/tezbazar-backend/internal/users"
	"github.com/fsamadov/tezbazar-backend/pkg/config"
	"github.com/fsamadov/tezbazar-backend/pkg/db/models"
	"github.com/fsamadov/tezbazar-backend/pkg/enums"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct {
	listProducts func(ctx context.Context, filter catalog.ProductFilter) ([]models.Product, error)
}

func (s stubCatalogService) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]models.Product, error) {
	if s.listProducts != nil {
		return s.listProducts(ctx, filter)
	}
	return []models.Product{}, nil
}

func (stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: id}, nil
}

func (stubCatalogService) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (stubCatalogService) CreateProduct(ctx context.Context, input catalog.ProductInput) (*models.Product, error) {
	return &models.Product{ID: uuid.New(), Name: input.Name}, nil
}

func (stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalog.ProductInput) (*models.Product, error) {
	return &models.Product{ID: id, Name: input.Name}, nil
}

func (stubCatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return []models.Category{}, nil
}

func (stubCatalogService) CreateCategory(ctx context.Context, input catalog.CategoryInput) (*models.Category, error) {
	return &models.Category{ID: uuid.New(), Name: input.Name}, nil
}

type stubCartService struct {
	getCart func(ctx context.Context, userID uuid.UUID) (*cart.View, error)
}

func (s stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	if s.getCart != nil {
		return s.getCart(ctx, userID)
	}
	return &cart.View{Items: []cart.Line{}}, nil
}

func (stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	return &models.CartItem{ID: uuid.New(), UserID: userID, ProductID: &productID, Quantity: quantity}, nil
}

func (stubCartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	return &models.CartItem{ID: itemID, UserID: userID, Quantity: quantity}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return nil
}

func (stubCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return nil
}

type stubOrdersService struct {
	checkout func(ctx context.Context, userID uuid.UUID, input orders.CheckoutInput) (*orders.CheckoutResult, error)
}

func (s stubOrdersService) Checkout(ctx context.Context, userID uuid.UUID, input orders.CheckoutInput) (*orders.CheckoutResult, error) {
	if s.checkout != nil {
		return s.checkout(ctx, userID, input)
	}
	return &orders.CheckoutResult{Order: &models.Order{ID: uuid.New(), UserID: userID}}, nil
}

func (stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrdersService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) ListAll(ctx context.Context) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) Transition(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, packerComment *string) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: newStatus}, nil
}

func (stubOrdersService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, UserID: userID, Status: enums.OrderStatusCancelled}, nil
}

func (stubOrdersService) TransitionMany(ctx context.Context, orderIDs []uuid.UUID, newStatus enums.OrderStatus) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) Delete(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

func (stubOrdersService) SetAdvancer(advancer orders.Advancer) {}

type stubNotificationsService struct{}

func (stubNotificationsService) Emit(ctx context.Context, input notifications.EmitInput) (*models.Notification, error) {
	return &models.Notification{ID: uuid.New()}, nil
}

func (stubNotificationsService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (stubNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubBannersService struct{}

func (stubBannersService) ListActive(ctx context.Context) ([]models.Banner, error) {
	return []models.Banner{}, nil
}

func (stubBannersService) ListAll(ctx context.Context) ([]models.Banner, error) {
	return []models.Banner{}, nil
}

func (stubBannersService) Create(ctx context.Context, input banners.Input) (*models.Banner, error) {
	return &models.Banner{ID: uuid.New(), Title: input.Title}, nil
}

func (stubBannersService) Update(ctx context.Context, id uuid.UUID, input banners.Input) (*models.Banner, error) {
	return &models.Banner{ID: id, Title: input.Title}, nil
}

func (stubBannersService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) Create(ctx context.Context, input users.Input) (*models.User, error) {
	return &models.User{ID: uuid.New(), Phone: input.Phone}, nil
}

func (stubUsersService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (stubUsersService) Update(ctx context.Context, id uuid.UUID, input users.Input) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", CORSOrigins: "*"},
	}
}

func newTestRouter(cfg *config.Config, ordersSvc orders.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	registry, err := promo.NewRegistry("")
	if err != nil {
		panic(err)
	}
	if ordersSvc == nil {
		ordersSvc = stubOrdersService{}
	}
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            stubPinger{},
		Catalog:       stubCatalogService{},
		Cart:          stubCartService{},
		Orders:        ordersSvc,
		Notifications: stubNotificationsService{},
		Banners:       stubBannersService{},
		Users:         stubUsersService{},
		Promos:        registry,
	})
}

func TestPublicCatalogNeedsNoIdentity(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	for _, path := range []string{"/api/products", "/api/categories", "/api/banners", "/api/promo-codes"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestUserRoutesRejectMissingIdentity(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	for _, path := range []string{"/api/cart", "/api/orders", "/api/notifications"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 without identity header for %s got %d", path, resp.Code)
		}
	}
}

func TestUserRoutesRejectMalformedIdentity(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("X-User-Id", "not-a-uuid")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed identity got %d", resp.Code)
	}
}

func TestCheckoutPassesIdentityToService(t *testing.T) {
	userID := uuid.New()
	var gotUser uuid.UUID
	var gotAddress string
	svc := stubOrdersService{
		checkout: func(ctx context.Context, uid uuid.UUID, input orders.CheckoutInput) (*orders.CheckoutResult, error) {
			gotUser = uid
			gotAddress = input.DeliveryAddress
			return &orders.CheckoutResult{Order: &models.Order{ID: uuid.New(), UserID: uid}}, nil
		},
	}
	router := newTestRouter(testConfig(), svc)

	body := strings.NewReader(`{"deliveryAddress":"ул. Рудаки 1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", userID.String())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotUser != userID {
		t.Fatalf("expected user %s passed to checkout, got %s", userID, gotUser)
	}
	if gotAddress != "ул. Рудаки 1" {
		t.Fatalf("unexpected delivery address %q", gotAddress)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestAdminOrderRoutesAreWired(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("X-User-Id", uuid.New().String())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin order list got %d", resp.Code)
	}
}
