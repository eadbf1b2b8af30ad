// Package main provides the background refresh worker entry point for the
// figure tracker service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/figure-tracker/internal/adapter"
	"github.com/figure-tracker/internal/config"
	"github.com/figure-tracker/internal/job"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/retry"
	"github.com/figure-tracker/internal/service"
	"github.com/figure-tracker/internal/storage"
	"github.com/figure-tracker/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	ctx := context.Background()

	// Connect to databases with retry. The worker often starts alongside the
	// databases and should outwait their startup.
	logger.Info("Connecting to databases...")

	var postgres *storage.PostgresDB
	err = retry.WithExponentialBackoff(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		var connErr error
		postgres, connErr = storage.NewPostgresDB(&cfg.Database.Postgres)
		if connErr != nil {
			logger.WithError(connErr).WithField("attempt", attempt).Warn("Postgres not ready")
		}
		return connErr
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	var clickhouse *storage.ClickHouseDB
	err = retry.WithExponentialBackoff(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		var connErr error
		clickhouse, connErr = storage.NewClickHouseDB(&cfg.Database.ClickHouse)
		if connErr != nil {
			logger.WithError(connErr).WithField("attempt", attempt).Warn("ClickHouse not ready")
		}
		return connErr
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	var redis *storage.RedisCache
	err = retry.WithExponentialBackoff(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		var connErr error
		redis, connErr = storage.NewRedisCache(&cfg.Database.Redis)
		if connErr != nil {
			logger.WithError(connErr).WithField("attempt", attempt).Warn("Redis not ready")
		}
		return connErr
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	if err := clickhouse.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ensure statement archive schema")
	}

	// Wire repositories and services
	figureRepo := storage.NewFigureRepository(postgres)
	billRepo := storage.NewBillRepository(postgres)
	cacheService := storage.NewCacheService(redis, &cfg.Cache)
	assemblyClient := adapter.NewAssemblyClient(&cfg.Assembly)

	tracker := job.NewStatusTracker(cfg.Sync.JobRetention)

	figureSync := service.NewFigureSyncService(
		assemblyClient,
		figureRepo,
		cacheService,
		tracker,
		cfg.Sync.Workers,
	)
	billSync := service.NewBillSyncService(
		assemblyClient,
		billRepo,
		figureRepo,
		cfg.Sync.PageSize,
		cfg.Sync.PagePause,
	)

	refreshWorker, err := worker.NewRefreshWorker(&worker.RefreshWorkerConfig{
		FigureSync: figureSync,
		BillSync:   billSync,
		Interval:   cfg.Sync.RefreshInterval,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create refresh worker")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := refreshWorker.Start(workerCtx); err != nil {
		logger.WithError(err).Fatal("Failed to start refresh worker")
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	refreshWorker.Stop()
	logger.Info("Worker exited")
}
