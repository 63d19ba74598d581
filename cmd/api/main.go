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
	"go.uber.org/multierr"

	"github.com/officinarestomod/marketplace-backend/api/routes"
	"github.com/officinarestomod/marketplace-backend/internal/catalog"
	"github.com/officinarestomod/marketplace-backend/internal/checkout"
	"github.com/officinarestomod/marketplace-backend/internal/orders"
	"github.com/officinarestomod/marketplace-backend/internal/reconciler"
	"github.com/officinarestomod/marketplace-backend/pkg/config"
	"github.com/officinarestomod/marketplace-backend/pkg/db"
	"github.com/officinarestomod/marketplace-backend/pkg/logger"
	"github.com/officinarestomod/marketplace-backend/pkg/metrics"
	"github.com/officinarestomod/marketplace-backend/pkg/migrate"
	"github.com/officinarestomod/marketplace-backend/pkg/payment"
	"github.com/officinarestomod/marketplace-backend/pkg/payment/sim"
	stripepay "github.com/officinarestomod/marketplace-backend/pkg/payment/stripe"
	"github.com/officinarestomod/marketplace-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	provider, err := buildProvider(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to initialize payment provider", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	payMetrics := metrics.NewPaymentMetrics(registry)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	reconcilerService, err := reconciler.NewService(ordersService, catalogService, logg, payMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	webhookGuard, err := reconciler.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, "payments")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(catalogService, ordersService, provider, reconcilerService, logg, payMetrics)
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
		"env":           cfg.App.Env,
		"addr":          addr,
		"payments_mode": cfg.Payments.Mode,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			catalogService,
			ordersService,
			checkoutService,
			provider,
			reconcilerService,
			webhookGuard,
			registry,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	if err := multierr.Append(redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "error closing dependencies", err)
	}
	logg.Info(ctx, "api server stopped")
}

func buildProvider(ctx context.Context, cfg *config.Config, logg *logger.Logger) (payment.Provider, error) {
	if cfg.Payments.IsSimulated() {
		logg.Info(ctx, "using simulated payment provider")
		return sim.NewClient(cfg.Payments)
	}
	return stripepay.NewClient(ctx, cfg.Payments, logg)
}
