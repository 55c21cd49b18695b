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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/tienda-mx/storefront-backend/api/routes"
	"github.com/tienda-mx/storefront-backend/internal/orders"
	"github.com/tienda-mx/storefront-backend/internal/payments"
	"github.com/tienda-mx/storefront-backend/internal/products"
	"github.com/tienda-mx/storefront-backend/internal/shipping"
	paymentwebhook "github.com/tienda-mx/storefront-backend/internal/webhooks/payment"
	"github.com/tienda-mx/storefront-backend/pkg/config"
	"github.com/tienda-mx/storefront-backend/pkg/db"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
	"github.com/tienda-mx/storefront-backend/pkg/mercadopago"
	"github.com/tienda-mx/storefront-backend/pkg/metrics"
	"github.com/tienda-mx/storefront-backend/pkg/migrate"
	"github.com/tienda-mx/storefront-backend/pkg/redis"
	"github.com/tienda-mx/storefront-backend/pkg/skydropx"
)

const (
	shutdownTimeout     = 15 * time.Second
	webhookDedupeWindow = 24 * time.Hour
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}
	defer func() {
		err := multierr.Combine(redisClient.Close(), dbClient.Close())
		if err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	mpClient, err := mercadopago.NewClient(ctx, cfg.MercadoPago, logg)
	if err != nil {
		logg.Error(ctx, "failed to create mercado pago client", err)
		os.Exit(1)
	}

	skydropxClient, err := skydropx.NewClient(ctx, cfg.Skydropx, logg)
	if err != nil {
		logg.Error(ctx, "failed to create skydropx client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	shippingRepo := shipping.NewRepository(dbClient.DB())

	ordersService, err := orders.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(mpClient, cfg.App.PublicBaseURL)
	if err != nil {
		logg.Error(ctx, "failed to create payments service", err)
		os.Exit(1)
	}

	shippingService, err := shipping.NewService(shippingRepo, ordersRepo, skydropxClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to create shipping service", err)
		os.Exit(1)
	}

	webhookService, err := paymentwebhook.NewService(paymentwebhook.ServiceParams{
		OrdersRepo:        ordersRepo,
		ProductsRepo:      productsRepo,
		Provider:          mpClient,
		TransactionRunner: dbClient,
		Logger:            logg,
		Metrics:           webhookMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create payment webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := paymentwebhook.NewIdempotencyGuard(redisClient, webhookDedupeWindow, "webhook:payment")
	if err != nil {
		logg.Error(ctx, "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			ordersService,
			paymentsService,
			shippingService,
			webhookService,
			webhookGuard,
			mpClient,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(startCtx, "shutdown signal received, draining")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(startCtx, "graceful shutdown failed", err)
		}
	}
}
