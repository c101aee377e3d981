package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finapp/internal/core"
	"finapp/internal/log"
	"finapp/internal/metrics"
	"finapp/internal/ports"
	"finapp/internal/storage/memory"
)

// failingStore accepts loads but rejects every write.
type failingStore struct {
	*memory.Store
}

func (failingStore) SaveWallet(context.Context, core.Wallet) error {
	return ports.ErrStoreUnavailable
}

func (failingStore) DeleteWallet(context.Context, string) error {
	return ports.ErrStoreUnavailable
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, e ports.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) kinds() []ports.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.EventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, store ports.LedgerStore, pub ports.EventPublisher) (*LedgerService, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	s := NewLedgerService(store, pub, log.Discard(), m)
	s.now = func() time.Time { return fixedNow }
	require.NoError(t, s.EnsureDefaultWallet(context.Background()))
	return s, m
}

func defaultWalletID(t *testing.T, s *LedgerService) string {
	t.Helper()
	ws := s.Wallets()
	require.NotEmpty(t, ws)
	return ws[0].ID
}

func TestEnsureDefaultWalletCreatesOneWallet(t *testing.T) {
	store := memory.New(nil, nil)
	s, _ := newLedger(t, store, nil)

	ws := s.Wallets()
	require.Len(t, ws, 1)
	assert.Equal(t, core.DefaultWalletName, ws[0].Name)

	stored, err := store.LoadWallets(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, ws[0].ID, stored[0].ID)

	// A second start reuses the stored wallet.
	again, _ := newLedger(t, store, nil)
	assert.Len(t, again.Wallets(), 1)
}

func TestEnsureDefaultWalletRecalculatesStoredTotals(t *testing.T) {
	store := memory.New(nil, nil)
	w := core.NewWallet("Checking", "$", core.Debit)
	w.Transactions = []core.Transaction{
		core.NewTransaction(core.Money{Cents: 10000}, fixedNow, "Salary", core.Income, ""),
	}
	w.Balance = core.Money{Cents: 1}
	require.NoError(t, store.SaveWallet(context.Background(), w))

	s, _ := newLedger(t, store, nil)
	got, err := s.Wallet(w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got.Balance.Cents)
	assert.True(t, got.Consistent())
}

func TestLedgerScenario(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s, m := newLedger(t, memory.New(nil, nil), pub)
	id := defaultWalletID(t, s)

	_, err := s.RecordTransaction(ctx, id, TransactionInput{Amount: "5000", Category: "Salary", Type: "income"})
	require.NoError(t, err)
	tx, err := s.RecordTransaction(ctx, id, TransactionInput{Amount: "120.50", Category: "Food", Type: "expense", Note: " lunch "})
	require.NoError(t, err)
	assert.Equal(t, "lunch", tx.Note)
	assert.Equal(t, fixedNow, tx.Date)

	w, _ := s.Wallet(id)
	assert.Equal(t, int64(487950), w.Balance.Cents)

	ok, err := s.EditTransaction(ctx, id, tx.ID, TransactionInput{Amount: "200", Category: "Food"})
	require.NoError(t, err)
	assert.True(t, ok)
	w, _ = s.Wallet(id)
	assert.Equal(t, int64(480000), w.Balance.Cents)
	edited, _ := w.Transaction(tx.ID)
	assert.Equal(t, fixedNow, edited.Date, "zero date keeps the recorded date")
	assert.Equal(t, core.Expense, edited.Type)

	assert.True(t, s.DeleteTransaction(ctx, id, tx.ID))
	w, _ = s.Wallet(id)
	assert.Equal(t, int64(500000), w.Balance.Cents)
	assert.True(t, w.Consistent())

	assert.Equal(t, []ports.EventKind{
		ports.TransactionRecorded,
		ports.TransactionRecorded,
		ports.TransactionEdited,
		ports.TransactionDeleted,
	}, pub.kinds())
	assert.Equal(t, float64(2), m.LedgerOps(OpRecordTransaction))
	assert.Equal(t, float64(4), m.EventsPublished(true))
}

func TestRecordTransactionValidation(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s, _ := newLedger(t, memory.New(nil, nil), pub)
	id := defaultWalletID(t, s)
	gen := s.Generation()

	tests := []struct {
		name string
		in   TransactionInput
	}{
		{"empty amount", TransactionInput{Category: "Food", Type: "expense"}},
		{"zero amount", TransactionInput{Amount: "0", Category: "Food", Type: "expense"}},
		{"negative amount", TransactionInput{Amount: "-5", Category: "Food", Type: "expense"}},
		{"garbage amount", TransactionInput{Amount: "abc", Category: "Food", Type: "expense"}},
		{"blank category", TransactionInput{Amount: "5", Category: "  ", Type: "expense"}},
		{"bad type", TransactionInput{Amount: "5", Category: "Food", Type: "transfer"}},
		{"long note", TransactionInput{Amount: "5", Category: "Food", Type: "expense", Note: string(make([]byte, core.MaxNoteLength+1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.RecordTransaction(ctx, id, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	w, _ := s.Wallet(id)
	assert.Empty(t, w.Transactions)
	assert.Equal(t, gen, s.Generation())
	assert.Empty(t, pub.kinds())
}

func TestRecordTransactionUnknownWallet(t *testing.T) {
	s, _ := newLedger(t, memory.New(nil, nil), nil)
	_, err := s.RecordTransaction(context.Background(), "nope", TransactionInput{Amount: "1", Category: "Food", Type: "expense"})
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestMissingIDsAreSilentNoOps(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s, _ := newLedger(t, memory.New(nil, nil), pub)
	id := defaultWalletID(t, s)
	gen := s.Generation()

	ok, err := s.EditTransaction(ctx, id, "missing", TransactionInput{Amount: "1", Category: "Food"})
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.EditTransaction(ctx, "missing", "missing", TransactionInput{Amount: "1", Category: "Food"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, s.DeleteTransaction(ctx, id, "missing"))
	assert.False(t, s.DeleteWallet(ctx, "missing"))
	_, found, err := s.UpdateWallet(ctx, "missing", WalletUpdate{ToggleCardType: true})
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, gen, s.Generation())
	assert.Empty(t, pub.kinds())
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	s, m := newLedger(t, failingStore{memory.New(nil, nil)}, nil)
	id := defaultWalletID(t, s)

	_, err := s.RecordTransaction(ctx, id, TransactionInput{Amount: "10", Category: "Gift", Type: "income"})
	require.NoError(t, err)

	w, _ := s.Wallet(id)
	assert.Len(t, w.Transactions, 1)
	assert.Equal(t, int64(1000), w.Balance.Cents)
	assert.Equal(t, float64(1), m.PersistenceFailures(OpRecordTransaction))
	assert.Equal(t, float64(1), m.PersistenceFailures(OpEnsureWallet))

	assert.True(t, s.DeleteWallet(ctx, id))
	assert.Empty(t, s.Wallets())
	assert.Equal(t, float64(1), m.PersistenceFailures(OpDeleteWallet))
}

func TestPublishFailureIsCounted(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	s, m := newLedger(t, memory.New(nil, nil), pub)
	id := defaultWalletID(t, s)

	_, err := s.RecordTransaction(ctx, id, TransactionInput{Amount: "10", Category: "Gift", Type: "income"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), m.EventsPublished(false))
}

func TestWalletLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil, nil)
	s, _ := newLedger(t, store, nil)

	_, err := s.AddWallet(ctx, WalletInput{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.AddWallet(ctx, WalletInput{Name: "Card", CardType: "gold"})
	assert.ErrorIs(t, err, ErrValidation)

	w, err := s.AddWallet(ctx, WalletInput{Name: "Savings", Currency: "€", CardType: "credit"})
	require.NoError(t, err)
	assert.Equal(t, core.Credit, w.CardType)
	assert.Len(t, s.Wallets(), 2)

	name := "Rainy Day"
	updated, found, err := s.UpdateWallet(ctx, w.ID, WalletUpdate{Name: &name, ToggleCardType: true})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Rainy Day", updated.Name)
	assert.Equal(t, core.Debit, updated.CardType)

	blank := " "
	_, _, err = s.UpdateWallet(ctx, w.ID, WalletUpdate{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)

	assert.True(t, s.DeleteWallet(ctx, w.ID))
	stored, err := store.LoadWallets(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRecentTransactionsFiltersByType(t *testing.T) {
	ctx := context.Background()
	s, _ := newLedger(t, memory.New(nil, nil), nil)
	id := defaultWalletID(t, s)

	for i, in := range []TransactionInput{
		{Amount: "1", Category: "Salary", Type: "income"},
		{Amount: "2", Category: "Food", Type: "expense"},
		{Amount: "3", Category: "Rent", Type: "expense"},
	} {
		in.Date = fixedNow.AddDate(0, 0, i)
		_, err := s.RecordTransaction(ctx, id, in)
		require.NoError(t, err)
	}

	all, err := s.RecentTransactions(id, 0, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Rent", all[0].Category)

	expenses, err := s.RecentTransactions(id, 1, "EXPENSE")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Rent", expenses[0].Category)

	_, err = s.RecentTransactions(id, 0, "bogus")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.RecentTransactions("missing", 0, "")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestConcurrentRecordsKeepTotalsConsistent(t *testing.T) {
	ctx := context.Background()
	s, _ := newLedger(t, memory.New(nil, nil), &recordingPublisher{})
	id := defaultWalletID(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RecordTransaction(ctx, id, TransactionInput{Amount: "1.25", Category: "Food", Type: "expense"})
		}()
	}
	wg.Wait()

	w, _ := s.Wallet(id)
	assert.Len(t, w.Transactions, 50)
	assert.Equal(t, int64(-6250), w.Balance.Cents)
	assert.True(t, w.Consistent())
}
