package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/serviplace/serviplace-backend/api/routes"
	"github.com/serviplace/serviplace-backend/internal/history"
	"github.com/serviplace/serviplace-backend/internal/ledger"
	"github.com/serviplace/serviplace-backend/internal/orders"
	"github.com/serviplace/serviplace-backend/pkg/config"
	"github.com/serviplace/serviplace-backend/pkg/db"
	"github.com/serviplace/serviplace-backend/pkg/logger"
	"github.com/serviplace/serviplace-backend/pkg/metrics"
	"github.com/serviplace/serviplace-backend/pkg/migrate"
	"github.com/serviplace/serviplace-backend/pkg/outbox"
	"github.com/serviplace/serviplace-backend/pkg/payments"
	"github.com/serviplace/serviplace-backend/pkg/redis"
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

	var refunds *payments.Client
	if cfg.Payments.BaseURL != "" {
		refunds, err = payments.NewClient(cfg.Payments.BaseURL, cfg.Payments.APIKey)
		if err != nil {
			logg.Error(context.Background(), "failed to create payments client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "payments base url not set, refund requests will not be forwarded")
	}

	registry := prometheus.NewRegistry()
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	historySvc, err := history.NewService(history.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create history service", err)
		os.Exit(1)
	}
	historyHook, err := history.NewHook(historySvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create history hook", err)
		os.Exit(1)
	}

	ordersDeps := orders.Deps{
		Repo:    orders.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Outbox:  outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Ledger:  ledgerSvc,
		Hooks:   []orders.LifecycleHook{historyHook},
		Logger:  logg,
		Metrics: lifecycleMetrics,
	}
	if refunds != nil {
		ordersDeps.Refunds = refunds
	}
	ordersSvc, err := orders.NewService(ordersDeps)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, ordersSvc, ledgerSvc, historySvc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
