package main

import (
	"context"
	"os"
	"time"

	"finapp/internal/amqp"
	"finapp/internal/cli"
	"finapp/internal/log"
	"finapp/internal/metrics"
	gsheet "finapp/internal/sheets/google"
	"finapp/internal/storage"
	"finapp/internal/worker"
)

const (
	shutdownTimeout = 15 * time.Second
	dialTimeout     = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting finapp-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "db_path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := gsheet.NewFromEnv(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	client, err := amqp.Dial(ctx, amqp.Config{
		URL:         cfg.AMQPURL,
		Exchange:    cfg.AMQPExchange,
		Queue:       cfg.AMQPQueue,
		DialTimeout: dialTimeout,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewExportWorker(repo, sheetsClient, logger, metrics.New(), worker.Config{
		BatchSize: cfg.ExportBatchSize,
		Interval:  cfg.ExportInterval,
	})

	// Catch up on rows recorded while the worker was down.
	if err := w.StartupRecovery(ctx); err != nil {
		logger.Error("Startup recovery failed", log.FieldError, err)
	}

	if err := w.Run(ctx, client); err != nil {
		logger.Error("Export worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("finapp-worker stopped")
}
