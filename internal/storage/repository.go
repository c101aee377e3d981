// Package storage persists the ledger in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"finapp/internal/budget"
	"finapp/internal/core"
	"finapp/internal/ports"

	_ "modernc.org/sqlite"
)

const (
	settingSavingGoal = "saving_goal_cents"
	timeLayout        = time.RFC3339Nano
)

var ErrNotFound = errors.New("not found")

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		return nil, storeError("run migrations", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storeError("ping database", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
	}, nil
}

// OpenResult is the outcome of OpenWithRecovery.
type OpenResult struct {
	Repo *SQLiteRepository
	// Reset is true when the previous store could not be opened and was
	// replaced by an empty one.
	Reset bool
}

// OpenWithRecovery opens the store at dbPath. When the file is not a
// database, is corrupt, or carries a dirty or unknown schema version it is
// deleted together with its journal files and a fresh store is created once.
// Data in the discarded file is lost. Any other failure, such as a lock held
// by another process, is returned and the file is left alone.
func OpenWithRecovery(dbPath string) (OpenResult, error) {
	repo, err := NewSQLiteRepository(dbPath)
	if err == nil {
		return OpenResult{Repo: repo}, nil
	}
	if !needsReset(err) {
		return OpenResult{}, fmt.Errorf("open store: %w", err)
	}

	slog.Warn("SQLite store unusable, resetting", "path", dbPath, "error", err)
	if rmErr := removeDatabaseFiles(dbPath); rmErr != nil {
		return OpenResult{}, fmt.Errorf("reset store after %v: %w", err, rmErr)
	}

	repo, err = NewSQLiteRepository(dbPath)
	if err != nil {
		return OpenResult{}, fmt.Errorf("open store after reset: %w", err)
	}
	slog.Info("SQLite store recreated", "path", dbPath)
	return OpenResult{Repo: repo, Reset: true}, nil
}

func removeDatabaseFiles(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm", dbPath + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LoadWallets implements ports.LedgerStore.
func (r *SQLiteRepository) LoadWallets(ctx context.Context) ([]core.Wallet, error) {
	wrows, err := r.queries.ListWallets(ctx)
	if err != nil {
		return nil, storeError("list wallets", err)
	}
	trows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, storeError("list transactions", err)
	}

	byWallet := make(map[string][]core.Transaction, len(wrows))
	for _, t := range trows {
		tx, err := transactionFromRow(t)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", t.ID, err)
		}
		byWallet[t.WalletID] = append(byWallet[t.WalletID], tx)
	}

	wallets := make([]core.Wallet, 0, len(wrows))
	for _, w := range wrows {
		created, err := time.Parse(timeLayout, w.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("decode wallet %s: %w", w.ID, err)
		}
		wallets = append(wallets, core.Wallet{
			ID:            w.ID,
			Name:          w.Name,
			Currency:      w.Currency,
			CardType:      core.CardType(w.CardType),
			Balance:       core.Money{Cents: w.BalanceCents},
			TotalIncome:   core.Money{Cents: w.IncomeCents},
			TotalExpenses: core.Money{Cents: w.ExpenseCents},
			Transactions:  byWallet[w.ID],
			CreatedAt:     created,
		})
	}
	return wallets, nil
}

// SaveWallet implements ports.LedgerStore. The wallet row and its full
// transaction set are written in one SQL transaction; rows no longer present
// in the wallet are deleted.
func (r *SQLiteRepository) SaveWallet(ctx context.Context, w core.Wallet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	err = q.UpsertWallet(ctx, WalletRow{
		ID:           w.ID,
		Name:         w.Name,
		Currency:     w.Currency,
		CardType:     string(w.CardType),
		BalanceCents: w.Balance.Cents,
		IncomeCents:  w.TotalIncome.Cents,
		ExpenseCents: w.TotalExpenses.Cents,
		CreatedAt:    w.CreatedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return storeError("upsert wallet", err)
	}

	existing, err := q.ListTransactionIDsByWallet(ctx, w.ID)
	if err != nil {
		return storeError("list transaction ids", err)
	}
	keep := make(map[string]struct{}, len(w.Transactions))
	now := time.Now().UTC().Format(timeLayout)
	for i, t := range w.Transactions {
		keep[t.ID] = struct{}{}
		err := q.UpsertTransaction(ctx, TransactionRow{
			ID:          t.ID,
			WalletID:    w.ID,
			Type:        string(t.Type),
			Category:    t.Category,
			AmountCents: t.Amount.Cents,
			Note:        t.Note,
			OccurredAt:  t.Date.Format(timeLayout),
			Position:    int64(i),
			UpdatedAt:   now,
		})
		if err != nil {
			return storeError(fmt.Sprintf("upsert transaction %s", t.ID), err)
		}
	}
	for _, id := range existing {
		if _, ok := keep[id]; ok {
			continue
		}
		if err := q.DeleteTransaction(ctx, id); err != nil {
			return storeError(fmt.Sprintf("delete transaction %s", id), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit", err)
	}
	return nil
}

// DeleteWallet implements ports.LedgerStore.
func (r *SQLiteRepository) DeleteWallet(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	if err := q.DeleteTransactionsByWallet(ctx, id); err != nil {
		return storeError("delete wallet transactions", err)
	}
	if err := q.DeleteWallet(ctx, id); err != nil {
		return storeError("delete wallet", err)
	}
	if err := tx.Commit(); err != nil {
		return storeError("commit", err)
	}
	return nil
}

// Categories implements ports.TaxonomyReader.
func (r *SQLiteRepository) Categories(ctx context.Context, t core.TransactionType) ([]string, error) {
	names, err := r.queries.ListCategories(ctx, string(t))
	if err != nil {
		return nil, storeError("list categories", err)
	}
	if len(names) == 0 {
		return core.CategoriesFor(t), nil
	}
	return names, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]budget.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, storeError("list budgets", err)
	}
	out := make([]budget.Budget, len(rows))
	for i, b := range rows {
		out[i] = budget.Budget{ID: b.ID, Category: b.Category, Allocated: core.Money{Cents: b.AllocatedCents}}
	}
	return out, nil
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b budget.Budget) error {
	err := r.queries.UpsertBudget(ctx, BudgetRow{ID: b.ID, Category: b.Category, AllocatedCents: b.Allocated.Cents})
	if err != nil {
		return storeError("save budget", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	if err := r.queries.DeleteBudget(ctx, id); err != nil {
		return storeError("delete budget", err)
	}
	return nil
}

// SavingGoal returns zero when no goal was ever set.
func (r *SQLiteRepository) SavingGoal(ctx context.Context) (core.Money, error) {
	v, err := r.queries.GetSetting(ctx, settingSavingGoal)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, storeError("get saving goal", err)
	}
	cents, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return core.Money{}, fmt.Errorf("decode saving goal: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) SetSavingGoal(ctx context.Context, goal core.Money) error {
	if err := r.queries.SetSetting(ctx, settingSavingGoal, strconv.FormatInt(goal.Cents, 10)); err != nil {
		return storeError("set saving goal", err)
	}
	return nil
}

const (
	cryptoTable = "crypto_assets"
	cryptoQty   = "amount"
	stockTable  = "stocks"
	stockQty    = "shares"
)

func (r *SQLiteRepository) ListCryptoAssets(ctx context.Context) ([]core.CryptoAsset, error) {
	rows, err := r.queries.ListHoldings(ctx, cryptoTable, cryptoQty)
	if err != nil {
		return nil, storeError("list crypto assets", err)
	}
	out := make([]core.CryptoAsset, 0, len(rows))
	for _, h := range rows {
		qty, err := decimal.NewFromString(h.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decode crypto asset %s: %w", h.ID, err)
		}
		out = append(out, core.CryptoAsset{
			ID: h.ID, Symbol: h.Symbol, Name: h.Name, Amount: qty,
			Price: core.Money{Cents: h.PriceCents}, IconName: h.IconName,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) SaveCryptoAsset(ctx context.Context, a core.CryptoAsset) error {
	err := r.queries.UpsertHolding(ctx, cryptoTable, cryptoQty, HoldingRow{
		ID: a.ID, Symbol: a.Symbol, Name: a.Name, Quantity: a.Amount.String(),
		PriceCents: a.Price.Cents, IconName: a.IconName,
	})
	if err != nil {
		return storeError("save crypto asset", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCryptoAsset(ctx context.Context, id string) error {
	if err := r.queries.DeleteHolding(ctx, cryptoTable, id); err != nil {
		return storeError("delete crypto asset", err)
	}
	return nil
}

func (r *SQLiteRepository) ListStocks(ctx context.Context) ([]core.Stock, error) {
	rows, err := r.queries.ListHoldings(ctx, stockTable, stockQty)
	if err != nil {
		return nil, storeError("list stocks", err)
	}
	out := make([]core.Stock, 0, len(rows))
	for _, h := range rows {
		qty, err := decimal.NewFromString(h.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decode stock %s: %w", h.ID, err)
		}
		out = append(out, core.Stock{
			ID: h.ID, Symbol: h.Symbol, Name: h.Name, Shares: qty,
			Price: core.Money{Cents: h.PriceCents}, IconName: h.IconName,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) SaveStock(ctx context.Context, s core.Stock) error {
	err := r.queries.UpsertHolding(ctx, stockTable, stockQty, HoldingRow{
		ID: s.ID, Symbol: s.Symbol, Name: s.Name, Quantity: s.Shares.String(),
		PriceCents: s.Price.Cents, IconName: s.IconName,
	})
	if err != nil {
		return storeError("save stock", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteStock(ctx context.Context, id string) error {
	if err := r.queries.DeleteHolding(ctx, stockTable, id); err != nil {
		return storeError("delete stock", err)
	}
	return nil
}

func transactionFromRow(t TransactionRow) (core.Transaction, error) {
	date, err := time.Parse(timeLayout, t.OccurredAt)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(t.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:       t.ID,
		Amount:   core.Money{Cents: t.AmountCents},
		Date:     date,
		Category: t.Category,
		Type:     typ,
		Note:     t.Note,
	}, nil
}
