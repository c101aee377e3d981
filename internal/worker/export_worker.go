// Package worker exports ledger transactions to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finapp/internal/amqp"
	"finapp/internal/log"
	"finapp/internal/metrics"
	"finapp/internal/ports"
	"finapp/internal/sheets"
	"finapp/internal/storage"
)

const (
	DefaultMaxAttempts = 3
	statusExported     = "exported"
	// recoveryFactor scales the batch size of the startup sweep.
	recoveryFactor = 5
)

// ExportStore is the export bookkeeping of the SQLite store.
type ExportStore interface {
	PendingExports(ctx context.Context, limit int) ([]storage.PendingExport, error)
	TransactionByID(ctx context.Context, id string) (storage.ExportRecord, error)
	MarkExported(ctx context.Context, id string, version int64) error
	MarkExportError(ctx context.Context, id string) error
}

// EventSource delivers ledger events until ctx is done.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler amqp.Handler) error
}

type Config struct {
	BatchSize   int
	Interval    time.Duration
	MaxAttempts int
}

type ExportWorker struct {
	store    ExportStore
	exporter sheets.TransactionExporter
	logger   *log.Logger
	metrics  *metrics.Metrics
	cfg      Config

	mu       sync.Mutex
	attempts map[string]int
}

func NewExportWorker(store ExportStore, exporter sheets.TransactionExporter, logger *log.Logger, m *metrics.Metrics, cfg Config) *ExportWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if m == nil {
		m = metrics.New()
	}
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
		metrics:  m,
		cfg:      cfg,
		attempts: make(map[string]int),
	}
}

// HandleEvent reacts to one ledger event. Recorded and edited transactions
// are exported; deletions are only logged since sheet rows are append-only.
// A returned error asks the broker to redeliver.
func (w *ExportWorker) HandleEvent(ctx context.Context, e ports.LedgerEvent) error {
	switch e.Kind {
	case ports.TransactionRecorded, ports.TransactionEdited:
		return w.export(ctx, e.TransactionID)
	case ports.TransactionDeleted:
		w.logger.InfoContext(ctx, "Transaction deleted, exported rows are kept",
			log.FieldWalletID, e.WalletID, log.FieldTransactionID, e.TransactionID)
	case ports.WalletDeleted:
		w.logger.InfoContext(ctx, "Wallet deleted, exported rows are kept", log.FieldWalletID, e.WalletID)
	}
	return nil
}

// ProcessPending exports up to limit pending transactions. It is the backup
// path for events lost while the worker or the broker was down.
func (w *ExportWorker) ProcessPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.store.PendingExports(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending exports", "count", len(pending))
	exported := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if err := w.export(ctx, p.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export pending transaction", log.FieldTransactionID, p.ID, log.FieldError, err)
			continue
		}
		exported++
	}
	return exported, nil
}

// StartupRecovery sweeps a larger batch once when the worker starts.
func (w *ExportWorker) StartupRecovery(ctx context.Context) error {
	n, err := w.ProcessPending(ctx, w.cfg.BatchSize*recoveryFactor)
	if err != nil {
		return fmt.Errorf("startup recovery: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup recovery completed", "exported", n)
	return nil
}

// Run consumes events and sweeps pending exports every interval until ctx
// is cancelled or the consumer fails.
func (w *ExportWorker) Run(ctx context.Context, source EventSource) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return source.ConsumeLedgerEvents(ctx, w.HandleEvent)
	})
	g.Go(func() error {
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := w.ProcessPending(ctx, w.cfg.BatchSize); err != nil && ctx.Err() == nil {
					w.logger.ErrorContext(ctx, "Pending export sweep failed", log.FieldError, err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *ExportWorker) export(ctx context.Context, id string) error {
	rec, err := w.store.TransactionByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.InfoContext(ctx, "Transaction no longer exists, skipping export", log.FieldTransactionID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if rec.Status == statusExported {
		w.logger.DebugContext(ctx, "Transaction already exported", log.FieldTransactionID, id, "version", rec.Version)
		return nil
	}

	ref, err := w.exporter.ExportTransaction(ctx, rowFromRecord(rec))
	if err != nil {
		w.metrics.IncExport(false)
		return w.handleFailure(ctx, id, err)
	}
	w.metrics.IncExport(true)
	w.resetAttempts(id)

	if err := w.store.MarkExported(ctx, id, rec.Version); err != nil {
		// The row is in the sheet; a later sweep may append it again.
		w.logger.ErrorContext(ctx, "Failed to mark transaction exported", log.FieldTransactionID, id, log.FieldError, err)
	}
	w.logger.InfoContext(ctx, "Exported transaction",
		log.FieldTransactionID, id, "version", rec.Version, log.FieldSheetsRef, ref)
	return nil
}

// handleFailure returns err for a retry until MaxAttempts is reached, then
// marks the transaction with an export error and gives up.
func (w *ExportWorker) handleFailure(ctx context.Context, id string, err error) error {
	w.mu.Lock()
	w.attempts[id]++
	n := w.attempts[id]
	w.mu.Unlock()

	w.logger.WarnContext(ctx, "Export failed", log.FieldTransactionID, id, "attempt", n, log.FieldError, err)
	if n < w.cfg.MaxAttempts {
		return fmt.Errorf("export transaction: %w", err)
	}

	w.resetAttempts(id)
	if merr := w.store.MarkExportError(ctx, id); merr != nil {
		w.logger.ErrorContext(ctx, "Failed to mark export error", log.FieldTransactionID, id, log.FieldError, merr)
	}
	w.logger.ErrorContext(ctx, "Export failed permanently after max attempts", log.FieldTransactionID, id, "attempts", n)
	return nil
}

func (w *ExportWorker) resetAttempts(id string) {
	w.mu.Lock()
	delete(w.attempts, id)
	w.mu.Unlock()
}

func rowFromRecord(rec storage.ExportRecord) sheets.ExportRow {
	return sheets.ExportRow{
		TransactionID: rec.Transaction.ID,
		Version:       rec.Version,
		Date:          rec.Transaction.Date,
		Wallet:        rec.WalletName,
		Currency:      rec.Currency,
		Type:          rec.Transaction.Type,
		Category:      rec.Transaction.Category,
		Note:          rec.Transaction.Note,
		Amount:        rec.Transaction.Amount,
	}
}
