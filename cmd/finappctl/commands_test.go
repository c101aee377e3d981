package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finapp/internal/core"
	"finapp/internal/log"
	"finapp/internal/services"
	"finapp/internal/storage/memory"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	store := memory.New(core.IncomeCategories(), core.ExpenseCategories())
	ledger := services.NewLedgerService(store, nil, log.Discard(), nil)
	require.NoError(t, ledger.EnsureDefaultWallet(ctx))

	out := &bytes.Buffer{}
	return &app{
		ctx:       ctx,
		out:       out,
		now:       func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local) },
		ledger:    ledger,
		reports:   services.NewReportService(ledger, nil, nil, time.Sunday),
		budgets:   services.NewBudgetService(store, ledger, log.Discard(), time.Sunday),
		weekStart: time.Sunday,
	}, out
}

func TestWalletCommands(t *testing.T) {
	a, out := newTestApp(t)

	require.NoError(t, (&walletsAddCmd{Name: "Travel", Currency: "€", Card: "credit"}).Run(a))
	assert.Contains(t, out.String(), "Added wallet Travel")

	out.Reset()
	require.NoError(t, (&walletsListCmd{}).Run(a))
	assert.Contains(t, out.String(), "My Wallet")
	assert.Contains(t, out.String(), "Travel")
	assert.Contains(t, out.String(), "CREDIT")

	require.NoError(t, (&walletsDeleteCmd{Wallet: "travel"}).Run(a))
	assert.Len(t, a.ledger.Wallets(), 1)

	err := (&walletsDeleteCmd{Wallet: "nope"}).Run(a)
	assert.ErrorIs(t, err, errNotFound)
}

func TestTransactionCommands(t *testing.T) {
	a, out := newTestApp(t)

	require.NoError(t, (&txAddCmd{Wallet: "My Wallet", Type: "income", Amount: "5000", Category: "Salary", Date: "2024-03-01"}).Run(a))
	require.NoError(t, (&txAddCmd{Wallet: "My Wallet", Type: "expense", Amount: "120.50", Category: "Food", Date: "2024-03-10"}).Run(a))
	assert.Contains(t, out.String(), "balance $4,879.50")

	w := a.ledger.Wallets()[0]
	txs, err := a.ledger.RecentTransactions(w.ID, 1, "expense")
	require.NoError(t, err)
	require.Len(t, txs, 1)

	require.NoError(t, (&txEditCmd{Wallet: w.ID, ID: txs[0].ID, Amount: "200", Category: "Food"}).Run(a))
	w, err = a.ledger.Wallet(w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(480000), w.Balance.Cents)

	out.Reset()
	require.NoError(t, (&txRecentCmd{Wallet: w.ID, Limit: 10}).Run(a))
	assert.Contains(t, out.String(), "2024-03-10")
	assert.Contains(t, out.String(), "$200.00")

	require.NoError(t, (&txDeleteCmd{Wallet: w.ID, ID: txs[0].ID}).Run(a))
	assert.ErrorIs(t, (&txDeleteCmd{Wallet: w.ID, ID: txs[0].ID}).Run(a), errNotFound)

	err = (&txAddCmd{Wallet: w.ID, Type: "expense", Amount: "abc", Category: "Food"}).Run(a)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.ErrorIs(t, (&txAddCmd{Wallet: w.ID, Type: "expense", Amount: "1", Category: "Food", Date: "15/03/2024"}).Run(a), core.ErrInvalidDate)
}

func TestReportAndBudgetCommands(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, (&txAddCmd{Wallet: "My Wallet", Type: "income", Amount: "1000", Category: "Salary", Date: "2024-03-01"}).Run(a))
	require.NoError(t, (&txAddCmd{Wallet: "My Wallet", Type: "expense", Amount: "450", Category: "Food", Date: "2024-03-05"}).Run(a))

	out.Reset()
	require.NoError(t, (&reportOverviewCmd{Window: "month"}).Run(a))
	assert.Contains(t, out.String(), "$1,000.00")
	assert.Contains(t, out.String(), "45.0%")

	out.Reset()
	require.NoError(t, (&reportTrendCmd{Page: 1}).Run(a))
	assert.Contains(t, out.String(), "page 1 of 2")

	out.Reset()
	require.NoError(t, (&reportMonthCmd{Year: 2024, Month: 3, Wallet: "My Wallet"}).Run(a))
	assert.Contains(t, out.String(), "$550.00")
	assert.ErrorIs(t, (&reportMonthCmd{Year: 2024, Month: 13}).Run(a), services.ErrValidation)

	require.NoError(t, (&budgetAddCmd{Category: "Food", Amount: "500"}).Run(a))
	require.NoError(t, (&goalSetCmd{Amount: "400"}).Run(a))

	out.Reset()
	require.NoError(t, (&budgetReportCmd{Window: "month"}).Run(a))
	assert.Contains(t, out.String(), "warning")
	assert.Contains(t, out.String(), "Saved $550.00 of $400.00")

	require.NoError(t, (&goalSetCmd{Amount: "0"}).Run(a))
	assert.Contains(t, out.String(), "Saving goal cleared")
}
