// Package main provides the API server entry point for the figure tracker service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/figure-tracker/internal/adapter"
	"github.com/figure-tracker/internal/api"
	"github.com/figure-tracker/internal/config"
	"github.com/figure-tracker/internal/job"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/service"
	"github.com/figure-tracker/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// The statement archive table is owned by this service, not migrations
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := clickhouse.EnsureSchema(ctx); err != nil {
		cancel()
		logger.WithError(err).Fatal("Failed to ensure statement archive schema")
	}
	cancel()

	// Initialize repositories
	figureRepo := storage.NewFigureRepository(postgres)
	billRepo := storage.NewBillRepository(postgres)
	statementRepo := storage.NewStatementRepository(clickhouse)

	// Initialize cache service
	cacheService := storage.NewCacheService(redis, &cfg.Cache)

	// Initialize upstream client and services
	logger.Info("Initializing services...")

	assemblyClient := adapter.NewAssemblyClient(&cfg.Assembly)

	tracker := job.NewStatusTracker(cfg.Sync.JobRetention)
	tracker.StartSweeper(10 * time.Minute)
	defer tracker.Stop()

	figureSync := service.NewFigureSyncService(
		assemblyClient,
		figureRepo,
		cacheService,
		tracker,
		cfg.Sync.Workers,
	)
	statementSync := service.NewStatementSyncService(assemblyClient, figureRepo, statementRepo)
	billSync := service.NewBillSyncService(
		assemblyClient,
		billRepo,
		figureRepo,
		cfg.Sync.PageSize,
		cfg.Sync.PagePause,
	)
	figureQuery := service.NewFigureQueryService(figureRepo, cacheService)
	activityQuery := service.NewActivityQueryService(figureRepo, billRepo, statementRepo)

	logger.Info("Services initialized")

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RequestsPerSec:  cfg.Server.RequestsPerSec,
	}

	server := api.NewServer(serverConfig, figureSync, statementSync, billSync, figureQuery, activityQuery, tracker, cacheService)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
