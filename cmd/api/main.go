package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mensahub/canteen-backend/api/routes"
	"github.com/mensahub/canteen-backend/internal/catalog"
	"github.com/mensahub/canteen-backend/internal/orders"
	"github.com/mensahub/canteen-backend/internal/pricing"
	"github.com/mensahub/canteen-backend/internal/reports"
	"github.com/mensahub/canteen-backend/internal/vendors"
	"github.com/mensahub/canteen-backend/pkg/config"
	"github.com/mensahub/canteen-backend/pkg/db"
	"github.com/mensahub/canteen-backend/pkg/logger"
	"github.com/mensahub/canteen-backend/pkg/metrics"
	"github.com/mensahub/canteen-backend/pkg/migrate"
	"github.com/mensahub/canteen-backend/pkg/outbox"
	"github.com/mensahub/canteen-backend/pkg/redis"
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)

	conn := dbClient.DB()
	snapshotter, err := pricing.NewSnapshotter(vendors.NewRepository(conn), catalog.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing snapshotter", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:               orders.NewRepository(conn),
		Tx:                 dbClient,
		Snapshotter:        snapshotter,
		Outbox:             outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:             logg,
		Metrics:            orderMetrics,
		TransitionAttempts: cfg.Orders.TransitionAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	var reportCache reports.Cache
	if redisClient != nil {
		reportCache = redisClient
	}
	reportsService, err := reports.NewService(reports.ServiceParams{
		Repo:     reports.NewRepository(conn),
		Cache:    reportCache,
		CacheTTL: cfg.Reports.CacheTTL,
		Logger:   logg,
		Metrics:  orderMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Orders:       ordersService,
			Reports:      reportsService,
			PromGatherer: registry,
		}),
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
