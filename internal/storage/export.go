package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finapp/internal/core"
)

// PendingExport is the minimal data needed to queue an export.
type PendingExport struct {
	ID        string
	WalletID  string
	Version   int64
	UpdatedAt time.Time
}

// ExportRecord is a transaction with the wallet context an exported row needs.
type ExportRecord struct {
	Transaction core.Transaction
	WalletID    string
	WalletName  string
	Currency    string
	Version     int64
	Status      string
}

// PendingExports returns transactions waiting to be exported, oldest first.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.queries.GetPendingExports(ctx, int64(limit))
	if err != nil {
		return nil, storeError("get pending exports", err)
	}
	out := make([]PendingExport, 0, len(rows))
	for _, t := range rows {
		updated, _ := time.Parse(timeLayout, t.UpdatedAt)
		out = append(out, PendingExport{ID: t.ID, WalletID: t.WalletID, Version: t.Version, UpdatedAt: updated})
	}
	return out, nil
}

// MarkExported marks a transaction exported. It is a no-op when the row has
// been edited since version was read, so the newer content stays pending.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string, version int64) error {
	n, err := r.queries.MarkExported(ctx, time.Now().UTC().Format(timeLayout), id, version)
	if err != nil {
		return storeError("mark transaction exported", err)
	}
	if n == 0 {
		slog.InfoContext(ctx, "Transaction changed since export, left pending", "id", id, "version", version)
		return nil
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	if err := r.queries.MarkExportError(ctx, id); err != nil {
		return storeError("mark transaction export error", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

// TransactionByID returns ErrNotFound when the transaction no longer exists.
func (r *SQLiteRepository) TransactionByID(ctx context.Context, id string) (ExportRecord, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRecord{}, ErrNotFound
	}
	if err != nil {
		return ExportRecord{}, storeError("get transaction", err)
	}
	tx, err := transactionFromRow(row)
	if err != nil {
		return ExportRecord{}, fmt.Errorf("decode transaction %s: %w", id, err)
	}

	rec := ExportRecord{
		Transaction: tx,
		WalletID:    row.WalletID,
		Version:     row.Version,
		Status:      row.ExportStatus,
	}
	rec.WalletName, rec.Currency, err = r.queries.GetWalletHeader(ctx, row.WalletID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ExportRecord{}, storeError("get wallet", err)
	}
	return rec, nil
}
