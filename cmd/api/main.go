package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marketloop/storefront-backend/api/routes"
	authsvc "github.com/marketloop/storefront-backend/internal/auth"
	cartsvc "github.com/marketloop/storefront-backend/internal/cart"
	checkoutsvc "github.com/marketloop/storefront-backend/internal/checkout"
	"github.com/marketloop/storefront-backend/internal/inventory"
	ordersvc "github.com/marketloop/storefront-backend/internal/orders"
	productsvc "github.com/marketloop/storefront-backend/internal/products"
	"github.com/marketloop/storefront-backend/internal/users"
	"github.com/marketloop/storefront-backend/pkg/config"
	"github.com/marketloop/storefront-backend/pkg/db"
	"github.com/marketloop/storefront-backend/pkg/logger"
	"github.com/marketloop/storefront-backend/pkg/metrics"
	"github.com/marketloop/storefront-backend/pkg/migrate"
	"github.com/marketloop/storefront-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	userRepo := users.NewRepository(dbClient.DB())
	authService, err := authsvc.NewService(authsvc.ServiceParams{
		DB:             dbClient,
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productsRepo := productsvc.NewRepository(dbClient.DB())
	productsService, err := productsvc.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	cartRepo := cartsvc.NewRepository(dbClient.DB())
	cartService, err := cartsvc.NewService(cartRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersRepo := ordersvc.NewRepository(dbClient.DB())
	ordersService, err := ordersvc.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		DB:         dbClient,
		CartRepo:   cartRepo,
		OrdersRepo: ordersRepo,
		Ledger:     inventory.NewLedger(dbClient.DB()),
		Metrics:    metrics.NewCheckoutMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Registry:    registry,
			AuthService: authService,
			Products:    productsService,
			Cart:        cartService,
			Orders:      ordersService,
			Checkout:    checkoutService,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
