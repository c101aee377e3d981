package main

import (
	"context"
	"os"
	"time"

	"finapp/internal/backend"
	"finapp/internal/cache"
	"finapp/internal/cli"
	apphttp "finapp/internal/http"
	"finapp/internal/log"
	"finapp/internal/metrics"
	"finapp/internal/services"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	m := metrics.New()
	ledger := services.NewLedgerService(res.Store, res.Publisher, logger, m)
	if err := ledger.EnsureDefaultWallet(context.Background()); err != nil {
		logger.Error("Failed to load wallets", log.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	cacheManager := cache.NewManager(logger)
	var reportCache cache.Cache[any]
	if cfg.ReportCacheSize > 0 {
		lru := cache.NewLRUCache[any](cfg.ReportCacheSize, cfg.ReportCacheTTL)
		cacheManager.Register(lru)
		reportCache = lru
	}

	weekStart := cfg.FirstWeekday()
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:      ledger,
		Reports:     services.NewReportService(ledger, reportCache, m, weekStart),
		Budgets:     services.NewBudgetService(res.Store, ledger, logger, weekStart),
		Portfolio:   services.NewPortfolioService(res.Store, logger),
		Taxonomy:    res.Store,
		Metrics:     m,
		Logger:      logger,
		ResetNotice: res.Reset || res.Fallback,
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Wait()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})
	cacheManager.Start(ctx, cacheCleanupInterval)

	logger.Info("Starting finapp server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"wallets", len(ledger.Wallets()),
		"week_start", weekStart.String())
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
