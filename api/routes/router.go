package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fsamadov/tezbazar-backend/api/controllers"
	"github.com/fsamadov/tezbazar-backend/api/middleware"
	"github.com/fsamadov/tezbazar-backend/internal/banners"
	"github.com/fsamadov/tezbazar-backend/internal/cart"
	"github.com/fsamadov/tezbazar-backend/internal/catalog"
	"github.com/fsamadov/tezbazar-backend/internal/notifications"
	"github.com/fsamadov/tezbazar-backend/internal/orders"
	"github.com/fsamadov/tezbazar-backend/internal/promo"
	"github.com/fsamadov/tezbazar-backend/internal/users"
	"github.com/fsamadov/tezbazar-backend/pkg/config"
	"github.com/fsamadov/tezbazar-backend/pkg/db"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
	"github.com/fsamadov/tezbazar-backend/pkg/metrics"
	pkgredis "github.com/fsamadov/tezbazar-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Gatherer may be nil
// to disable the /metrics endpoint; IdemStore may be nil to run without
// idempotency replay (dev without Redis).
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Idem    pkgredis.IdempotencyStore
	Metrics *metrics.HTTPMetrics

	Gatherer prometheus.Gatherer

	Catalog       catalog.Service
	Cart          cart.Service
	Orders        orders.Service
	Notifications notifications.Service
	Banners       banners.Service
	Users         users.Service
	Promos        *promo.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
		middleware.Metrics(deps.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	idemTTLs := middleware.IdempotencyTTLs{
		Default:  cfg.Demo.DefaultIdemTTL,
		Critical: cfg.Demo.CheckoutIdemTTL,
	}

	r.Route("/api", func(r chi.Router) {
		// Public catalog surface.
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.Catalog, logg))
		})
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
		r.Get("/banners", controllers.ListActiveBanners(deps.Banners, logg))
		r.Get("/promo-codes", controllers.ListPromoCodes(deps.Promos))

		r.Post("/users", controllers.CreateUser(deps.Users, logg))

		// Per-user surface. Identity comes from the X-User-Id header set by
		// the BFF after auth; idempotency replay sits behind it so records
		// are scoped per user.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(logg))
			r.Use(middleware.Idempotency(deps.Idem, logg, idemTTLs))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Post("/", controllers.AddToCart(deps.Cart, logg))
				r.Put("/{itemID}", controllers.UpdateCartItem(deps.Cart, logg))
				r.Delete("/{itemID}", controllers.RemoveCartItem(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.Checkout(deps.Orders, logg))
				r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
				r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
				r.Post("/{orderID}/cancel", controllers.CancelOrder(deps.Orders, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Get("/count", controllers.UnreadNotificationCount(deps.Notifications, logg))
				r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})

			r.Route("/users/{userID}", func(r chi.Router) {
				r.Get("/", controllers.GetUser(deps.Users, logg))
				r.Patch("/", controllers.UpdateUser(deps.Users, logg))
			})
		})

		// Admin surface. Access control lives on the gateway; the service
		// trusts the route prefix the same way the identity header is trusted.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Identity(logg))
			r.Use(middleware.Idempotency(deps.Idem, logg, idemTTLs))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListAllOrders(deps.Orders, logg))
				r.Post("/bulk-status", controllers.BulkUpdateStatus(deps.Orders, logg))
				r.Patch("/{orderID}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
				r.Delete("/{orderID}", controllers.DeleteOrder(deps.Orders, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.CreateProduct(deps.Catalog, logg))
				r.Patch("/{productID}", controllers.UpdateProduct(deps.Catalog, logg))
			})
			r.Post("/categories", controllers.CreateCategory(deps.Catalog, logg))

			r.Post("/notifications", controllers.CreateNotification(deps.Notifications, logg))

			r.Route("/banners", func(r chi.Router) {
				r.Get("/", controllers.ListAllBanners(deps.Banners, logg))
				r.Post("/", controllers.CreateBanner(deps.Banners, logg))
				r.Patch("/{bannerID}", controllers.UpdateBanner(deps.Banners, logg))
				r.Delete("/{bannerID}", controllers.DeleteBanner(deps.Banners, logg))
			})
		})
	})

	return r
}
