package storage

import "context"

const listWallets = `SELECT id, name, currency, card_type, balance_cents, income_cents, expense_cents, created_at
FROM wallets ORDER BY created_at, id`

func (q *Queries) ListWallets(ctx context.Context) ([]WalletRow, error) {
	rows, err := q.db.QueryContext(ctx, listWallets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WalletRow
	for rows.Next() {
		var i WalletRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Currency, &i.CardType, &i.BalanceCents, &i.IncomeCents, &i.ExpenseCents, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertWallet = `INSERT INTO wallets (id, name, currency, card_type, balance_cents, income_cents, expense_cents, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    currency = excluded.currency,
    card_type = excluded.card_type,
    balance_cents = excluded.balance_cents,
    income_cents = excluded.income_cents,
    expense_cents = excluded.expense_cents`

func (q *Queries) UpsertWallet(ctx context.Context, w WalletRow) error {
	_, err := q.db.ExecContext(ctx, upsertWallet, w.ID, w.Name, w.Currency, w.CardType, w.BalanceCents, w.IncomeCents, w.ExpenseCents, w.CreatedAt)
	return err
}

const deleteWallet = `DELETE FROM wallets WHERE id = ?`

func (q *Queries) DeleteWallet(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteWallet, id)
	return err
}

const transactionColumns = `id, wallet_id, type, category, amount_cents, note, occurred_at, position, version, export_status, exported_at, updated_at`

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY wallet_id, position`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactions)
}

const listTransactionIDsByWallet = `SELECT id FROM transactions WHERE wallet_id = ?`

func (q *Queries) ListTransactionIDsByWallet(ctx context.Context, walletID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionIDsByWallet, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Rows whose content changes get a new version and go back to pending export.
const upsertTransaction = `INSERT INTO transactions (id, wallet_id, type, category, amount_cents, note, occurred_at, position, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    type = excluded.type,
    category = excluded.category,
    amount_cents = excluded.amount_cents,
    note = excluded.note,
    occurred_at = excluded.occurred_at,
    position = excluded.position,
    version = CASE WHEN ` + changed + ` THEN version + 1 ELSE version END,
    export_status = CASE WHEN ` + changed + ` THEN 'pending' ELSE export_status END,
    updated_at = CASE WHEN ` + changed + ` THEN excluded.updated_at ELSE updated_at END`

const changed = `(type != excluded.type OR category != excluded.category OR amount_cents != excluded.amount_cents OR note != excluded.note OR occurred_at != excluded.occurred_at)`

func (q *Queries) UpsertTransaction(ctx context.Context, t TransactionRow) error {
	_, err := q.db.ExecContext(ctx, upsertTransaction, t.ID, t.WalletID, t.Type, t.Category, t.AmountCents, t.Note, t.OccurredAt, t.Position, t.UpdatedAt)
	return err
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}

const deleteTransactionsByWallet = `DELETE FROM transactions WHERE wallet_id = ?`

func (q *Queries) DeleteTransactionsByWallet(ctx context.Context, walletID string) error {
	_, err := q.db.ExecContext(ctx, deleteTransactionsByWallet, walletID)
	return err
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	return scanTransaction(row)
}

const getPendingExports = `SELECT ` + transactionColumns + ` FROM transactions
WHERE export_status = 'pending' ORDER BY updated_at, id LIMIT ?`

func (q *Queries) GetPendingExports(ctx context.Context, limit int64) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, getPendingExports, limit)
}

const markExported = `UPDATE transactions SET export_status = 'exported', exported_at = ?
WHERE id = ? AND version = ?`

func (q *Queries) MarkExported(ctx context.Context, exportedAt, id string, version int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markExported, exportedAt, id, version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markExportError = `UPDATE transactions SET export_status = 'error' WHERE id = ?`

func (q *Queries) MarkExportError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markExportError, id)
	return err
}

const listBudgets = `SELECT id, category, allocated_cents FROM budgets ORDER BY category COLLATE NOCASE, id`

func (q *Queries) ListBudgets(ctx context.Context) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetRow
	for rows.Next() {
		var i BudgetRow
		if err := rows.Scan(&i.ID, &i.Category, &i.AllocatedCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertBudget = `INSERT INTO budgets (id, category, allocated_cents) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET category = excluded.category, allocated_cents = excluded.allocated_cents`

func (q *Queries) UpsertBudget(ctx context.Context, b BudgetRow) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, b.ID, b.Category, b.AllocatedCents)
	return err
}

const deleteBudget = `DELETE FROM budgets WHERE id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteBudget, id)
	return err
}

const getSetting = `SELECT value FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&v)
	return v, err
}

const setSetting = `INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (q *Queries) SetSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, setSetting, key, value)
	return err
}

// table is one of crypto_assets or stocks; callers pass constants only.
func (q *Queries) ListHoldings(ctx context.Context, table, qtyColumn string) ([]HoldingRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, symbol, name, `+qtyColumn+`, price_cents, icon_name FROM `+table+` ORDER BY symbol, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []HoldingRow
	for rows.Next() {
		var i HoldingRow
		if err := rows.Scan(&i.ID, &i.Symbol, &i.Name, &i.Quantity, &i.PriceCents, &i.IconName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) UpsertHolding(ctx context.Context, table, qtyColumn string, h HoldingRow) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO `+table+` (id, symbol, name, `+qtyColumn+`, price_cents, icon_name)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET symbol = excluded.symbol, name = excluded.name, `+qtyColumn+` = excluded.`+qtyColumn+`,
    price_cents = excluded.price_cents, icon_name = excluded.icon_name`,
		h.ID, h.Symbol, h.Name, h.Quantity, h.PriceCents, h.IconName)
	return err
}

func (q *Queries) DeleteHolding(ctx context.Context, table, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	return err
}

const listCategories = `SELECT name FROM categories WHERE type = ? ORDER BY position, name`

func (q *Queries) ListCategories(ctx context.Context, typ string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s scanner) (TransactionRow, error) {
	var i TransactionRow
	err := s.Scan(&i.ID, &i.WalletID, &i.Type, &i.Category, &i.AmountCents, &i.Note, &i.OccurredAt,
		&i.Position, &i.Version, &i.ExportStatus, &i.ExportedAt, &i.UpdatedAt)
	return i, err
}

const getWalletHeader = `SELECT name, currency FROM wallets WHERE id = ?`

func (q *Queries) GetWalletHeader(ctx context.Context, id string) (name, currency string, err error) {
	err = q.db.QueryRowContext(ctx, getWalletHeader, id).Scan(&name, &currency)
	return name, currency, err
}
