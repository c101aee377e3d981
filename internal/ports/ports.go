// Package ports declares the outbound interfaces the services depend on.
package ports

import (
	"context"
	"errors"

	"finapp/internal/budget"
	"finapp/internal/core"
)

// ErrStoreUnavailable signals that the store cannot serve the request right
// now. Callers treat it like any other save failure.
var ErrStoreUnavailable = errors.New("store temporarily unavailable")

type (
	// LedgerStore persists wallets together with their transactions.
	LedgerStore interface {
		LoadWallets(ctx context.Context) ([]core.Wallet, error)
		SaveWallet(ctx context.Context, w core.Wallet) error
		DeleteWallet(ctx context.Context, id string) error
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context) ([]budget.Budget, error)
		SaveBudget(ctx context.Context, b budget.Budget) error
		DeleteBudget(ctx context.Context, id string) error
		SavingGoal(ctx context.Context) (core.Money, error)
		SetSavingGoal(ctx context.Context, goal core.Money) error
	}

	HoldingStore interface {
		ListCryptoAssets(ctx context.Context) ([]core.CryptoAsset, error)
		SaveCryptoAsset(ctx context.Context, a core.CryptoAsset) error
		DeleteCryptoAsset(ctx context.Context, id string) error
		ListStocks(ctx context.Context) ([]core.Stock, error)
		SaveStock(ctx context.Context, s core.Stock) error
		DeleteStock(ctx context.Context, id string) error
	}

	TaxonomyReader interface {
		Categories(ctx context.Context, t core.TransactionType) ([]string, error)
	}

	// Store is everything a backend provides.
	Store interface {
		LedgerStore
		BudgetStore
		HoldingStore
		TaxonomyReader
		Close() error
	}

	// EventPublisher announces ledger changes to other processes.
	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, e LedgerEvent) error
	}
)
