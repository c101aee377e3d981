package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"finapp/internal/backend"
	"finapp/internal/cli"
	"finapp/internal/config"
	"finapp/internal/log"
	"finapp/internal/metrics"
	"finapp/internal/services"
)

// globals are shared by every command.
type globals struct {
	DB        string `help:"Path of the SQLite ledger." env:"SQLITE_DB_PATH" default:"./data/finapp.db" type:"path"`
	WeekStart string `name:"week-start" help:"First day of the week for week windows." env:"FINAPP_WEEK_START" default:"sunday"`
	Verbose   bool   `short:"v" help:"Log at debug level."`
}

var ctl struct {
	Globals globals `embed:""`

	Wallets walletsCmd `cmd:"" help:"Manage wallets."`
	Tx      txCmd      `cmd:"" help:"Record, edit and list transactions."`
	Report  reportCmd  `cmd:"" help:"Show reports."`
	Budget  budgetCmd  `cmd:"" help:"Manage budgets."`
	Goal    goalCmd    `cmd:"" help:"Manage the monthly saving goal."`
}

// app is what commands run against.
type app struct {
	ctx       context.Context
	out       io.Writer
	now       func() time.Time
	ledger    *services.LedgerService
	reports   *services.ReportService
	budgets   *services.BudgetService
	weekStart time.Weekday
}

func main() {
	// Before parsing so .env values feed the env-backed flags.
	cli.LoadEnvFile()
	kctx := kong.Parse(&ctl,
		kong.Name("finappctl"),
		kong.Description("Command line access to the finapp ledger."),
		kong.UsageOnError(),
	)

	level := slog.LevelWarn
	if ctl.Globals.Verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level, Component: log.ComponentCLI, Writer: os.Stderr})

	a, cleanup, err := newApp(context.Background(), logger, ctl.Globals)
	kctx.FatalIfErrorf(err)

	err = kctx.Run(a)
	cleanup()
	kctx.FatalIfErrorf(err)
}

func newApp(ctx context.Context, logger *log.Logger, g globals) (*app, func(), error) {
	cfg := config.Load()
	cfg.DataBackend = string(backend.SQLiteBackend)
	cfg.SQLiteDBPath = g.DB
	cfg.WeekStart = g.WeekStart
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	// Edits must land in the file; a running server holds the writer lock.
	bcfg.RequireDurable = true
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}

	m := metrics.New()
	ledger := services.NewLedgerService(res.Store, res.Publisher, logger, m)
	if err := ledger.EnsureDefaultWallet(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	weekStart := cfg.FirstWeekday()
	return &app{
		ctx:       ctx,
		out:       os.Stdout,
		now:       time.Now,
		ledger:    ledger,
		reports:   services.NewReportService(ledger, nil, m, weekStart),
		budgets:   services.NewBudgetService(res.Store, ledger, logger, weekStart),
		weekStart: weekStart,
	}, cleanup, nil
}
