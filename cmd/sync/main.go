// Package main provides a one-shot CLI for running a full sync of figures,
// bills and statements.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/figure-tracker/internal/adapter"
	"github.com/figure-tracker/internal/config"
	"github.com/figure-tracker/internal/job"
	"github.com/figure-tracker/internal/logging"
	"github.com/figure-tracker/internal/service"
	"github.com/figure-tracker/internal/storage"
)

func main() {
	var (
		withBills      = flag.Bool("bills", false, "Also run the paged bill sync")
		withStatements = flag.String("statements", "", "Comma-separated figure names to sync statements for")
		timeout        = flag.Duration("timeout", 30*time.Minute, "Overall sync timeout")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

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

	if err := clickhouse.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ensure statement archive schema")
	}

	figureRepo := storage.NewFigureRepository(postgres)
	billRepo := storage.NewBillRepository(postgres)
	statementRepo := storage.NewStatementRepository(clickhouse)
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

	logger.Info("Running full figure roster sync...")
	result, err := figureSync.SyncAll(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Figure sync failed")
	}
	logger.WithFields(map[string]interface{}{
		"success": result.SuccessCount,
		"failed":  result.FailCount,
	}).Info("Figure sync finished")

	if *withBills {
		billSync := service.NewBillSyncService(
			assemblyClient,
			billRepo,
			figureRepo,
			cfg.Sync.PageSize,
			cfg.Sync.PagePause,
		)

		logger.Info("Running paged bill sync...")
		billResult, err := billSync.SyncAllPaged(ctx)
		if err != nil {
			logger.WithError(err).Fatal("Bill sync failed")
		}
		logger.WithFields(map[string]interface{}{
			"success": billResult.SuccessCount,
			"failed":  billResult.FailCount,
		}).Info("Bill sync finished")
	}

	if *withStatements != "" {
		names := strings.Split(*withStatements, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}

		statementSync := service.NewStatementSyncService(assemblyClient, figureRepo, statementRepo)

		logger.WithField("figures", len(names)).Info("Running statement sync...")
		stmtResult := statementSync.SyncManyFigures(ctx, names)
		logger.WithFields(map[string]interface{}{
			"success": stmtResult.SuccessCount,
			"failed":  stmtResult.FailCount,
		}).Info("Statement sync finished")
	}

	logger.Info("Sync complete")
}
