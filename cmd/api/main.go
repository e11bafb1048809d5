package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fsamadov/tezbazar-backend/api/routes"
	"github.com/fsamadov/tezbazar-backend/internal/banners"
	"github.com/fsamadov/tezbazar-backend/internal/cart"
	"github.com/fsamadov/tezbazar-backend/internal/catalog"
	"github.com/fsamadov/tezbazar-backend/internal/notifications"
	"github.com/fsamadov/tezbazar-backend/internal/orders"
	"github.com/fsamadov/tezbazar-backend/internal/promo"
	"github.com/fsamadov/tezbazar-backend/internal/seed"
	"github.com/fsamadov/tezbazar-backend/internal/users"
	"github.com/fsamadov/tezbazar-backend/pkg/config"
	"github.com/fsamadov/tezbazar-backend/pkg/db"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
	"github.com/fsamadov/tezbazar-backend/pkg/metrics"
	"github.com/fsamadov/tezbazar-backend/pkg/migrate"
	pkgredis "github.com/fsamadov/tezbazar-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	if cfg.Demo.SeedDemoData {
		if err := seed.Run(context.Background(), dbClient.DB(), logg); err != nil {
			logg.Error(context.Background(), "failed to seed demo data", err)
			os.Exit(1)
		}
	}

	var idemStore pkgredis.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		idemStore = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency replay disabled")
	}

	promoRegistry, err := promo.NewRegistry(cfg.Promo.File)
	if err != nil {
		logg.Error(context.Background(), "failed to load promo codes", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	bannersRepo := banners.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalogRepo)
	exitOnError(logg, "failed to create catalog service", err)

	cartService, err := cart.NewService(cartRepo, catalogService, logg)
	exitOnError(logg, "failed to create cart service", err)

	notificationsService, err := notifications.NewService(notificationsRepo, logg, int(cfg.Demo.NotifyMaxAttempts))
	exitOnError(logg, "failed to create notifications service", err)

	ordersService, err := orders.NewService(ordersRepo, dbClient, cartRepo, catalogService, promoRegistry, notificationsService, logg)
	exitOnError(logg, "failed to create orders service", err)

	bannersService, err := banners.NewService(bannersRepo)
	exitOnError(logg, "failed to create banners service", err)

	usersService, err := users.NewService(usersRepo)
	exitOnError(logg, "failed to create users service", err)

	if cfg.Demo.AutoAdvance {
		scheduler, err := orders.NewScheduler(ordersService, orders.Delays{
			Preparing:  cfg.Demo.PreparingDelay,
			Delivering: cfg.Demo.DeliveringDelay,
			Delivered:  cfg.Demo.DeliveredDelay,
		}, logg)
		exitOnError(logg, "failed to create order scheduler", err)
		ordersService.SetAdvancer(scheduler)
		defer scheduler.Stop()
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

	router := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Idem:          idemStore,
		Metrics:       httpMetrics,
		Gatherer:      promRegistry,
		Catalog:       catalogService,
		Cart:          cartService,
		Orders:        ordersService,
		Notifications: notificationsService,
		Banners:       bannersService,
		Users:         usersService,
		Promos:        promoRegistry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func exitOnError(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
