package storage

import "database/sql"

type WalletRow struct {
	ID           string
	Name         string
	Currency     string
	CardType     string
	BalanceCents int64
	IncomeCents  int64
	ExpenseCents int64
	CreatedAt    string
}

type TransactionRow struct {
	ID           string
	WalletID     string
	Type         string
	Category     string
	AmountCents  int64
	Note         string
	OccurredAt   string
	Position     int64
	Version      int64
	ExportStatus string
	ExportedAt   sql.NullString
	UpdatedAt    string
}

type BudgetRow struct {
	ID             string
	Category       string
	AllocatedCents int64
}

type HoldingRow struct {
	ID         string
	Symbol     string
	Name       string
	Quantity   string
	PriceCents int64
	IconName   string
}
