package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"finapp/internal/core"
	"finapp/internal/log"
	"finapp/internal/metrics"
	"finapp/internal/ports"
)

// Ledger operation names used for metrics and logs.
const (
	OpRecordTransaction = "record_transaction"
	OpEditTransaction   = "edit_transaction"
	OpDeleteTransaction = "delete_transaction"
	OpAddWallet         = "add_wallet"
	OpUpdateWallet      = "update_wallet"
	OpDeleteWallet      = "delete_wallet"
	OpEnsureWallet      = "ensure_default_wallet"
)

// LedgerService owns the in-memory wallets and keeps the store in step.
//
// Mutations are applied in memory first. Persisting and publishing happen
// afterwards and their failures are logged and counted, never returned: the
// in-memory ledger stays authoritative for the running process.
type LedgerService struct {
	mu        sync.Mutex
	wallets   []*core.Wallet
	store     ports.LedgerStore
	publisher ports.EventPublisher
	logger    *log.Logger
	metrics   *metrics.Metrics

	generation atomic.Uint64
	loaded     atomic.Bool
	now        func() time.Time
}

// NewLedgerService wires the ledger. publisher may be nil.
func NewLedgerService(store ports.LedgerStore, publisher ports.EventPublisher, logger *log.Logger, m *metrics.Metrics) *LedgerService {
	if m == nil {
		m = metrics.New()
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		metrics:   m,
		now:       time.Now,
	}
}

// EnsureDefaultWallet loads every wallet, re-derives its totals and creates
// the default wallet when none exist. Call once at startup.
func (s *LedgerService) EnsureDefaultWallet(ctx context.Context) error {
	loaded, err := s.store.LoadWallets(ctx)
	if err != nil {
		return fmt.Errorf("load wallets: %w", err)
	}

	s.mu.Lock()
	s.wallets = make([]*core.Wallet, 0, len(loaded))
	for i := range loaded {
		w := loaded[i]
		if !w.Consistent() {
			s.logger.WarnContext(ctx, "Stored totals differ from transactions, recalculating", log.FieldWalletID, w.ID)
		}
		w.RecalculateTotals()
		s.wallets = append(s.wallets, &w)
	}
	var created *core.Wallet
	if len(s.wallets) == 0 {
		w := core.DefaultWallet()
		s.wallets = append(s.wallets, &w)
		created = &w
	}
	s.generation.Add(1)
	var snap core.Wallet
	if created != nil {
		snap = created.Snapshot()
		s.save(ctx, OpEnsureWallet, snap)
	}
	s.mu.Unlock()

	if created != nil {
		s.logger.InfoContext(ctx, "Default wallet created", log.FieldWalletID, snap.ID, "name", snap.Name)
	}
	s.loaded.Store(true)
	s.logger.InfoContext(ctx, "Ledger loaded", "wallets", len(loaded))
	return nil
}

// Loaded reports whether EnsureDefaultWallet has completed. It stays true
// when every wallet is later deleted.
func (s *LedgerService) Loaded() bool {
	return s.loaded.Load()
}

// Generation changes after every ledger mutation.
func (s *LedgerService) Generation() uint64 {
	return s.generation.Load()
}

// Wallets returns snapshots of all wallets in creation order.
func (s *LedgerService) Wallets() []core.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Wallet, len(s.wallets))
	for i, w := range s.wallets {
		out[i] = w.Snapshot()
	}
	return out
}

func (s *LedgerService) Wallet(id string) (core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.find(id)
	if w == nil {
		return core.Wallet{}, ErrWalletNotFound
	}
	return w.Snapshot(), nil
}

// Transactions returns a copy of the transactions of one wallet, or of all
// wallets when walletID is empty.
func (s *LedgerService) Transactions(walletID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if walletID == "" {
		var out []core.Transaction
		for _, w := range s.wallets {
			out = append(out, w.Transactions...)
		}
		return out, nil
	}
	w := s.find(walletID)
	if w == nil {
		return nil, ErrWalletNotFound
	}
	return append([]core.Transaction(nil), w.Transactions...), nil
}

// RecentTransactions returns up to limit transactions of a wallet, newest
// first, optionally restricted to one type.
func (s *LedgerService) RecentTransactions(walletID string, limit int, typ string) ([]core.Transaction, error) {
	var filter core.TransactionType
	if strings.TrimSpace(typ) != "" {
		t, err := core.ParseTransactionType(typ)
		if err != nil {
			return nil, invalid("type", err)
		}
		filter = t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.find(walletID)
	if w == nil {
		return nil, ErrWalletNotFound
	}
	if filter == "" {
		return w.RecentTransactions(limit), nil
	}
	view := core.Wallet{}
	if filter == core.Income {
		view.Transactions = w.IncomeTransactions()
	} else {
		view.Transactions = w.ExpenseTransactions()
	}
	return view.RecentTransactions(limit), nil
}

func (s *LedgerService) AddWallet(ctx context.Context, in WalletInput) (core.Wallet, error) {
	w, err := newWallet(in)
	if err != nil {
		return core.Wallet{}, err
	}

	s.mu.Lock()
	s.wallets = append(s.wallets, &w)
	snap := s.commit(ctx, OpAddWallet, &w)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Wallet added", log.FieldWalletID, w.ID, "name", w.Name)
	return snap, nil
}

// WalletUpdate carries optional wallet changes.
type WalletUpdate struct {
	Name           *string
	ToggleCardType bool
}

// UpdateWallet renames a wallet and/or flips its card type. Unknown wallets
// are a no-op reported as false.
func (s *LedgerService) UpdateWallet(ctx context.Context, id string, u WalletUpdate) (core.Wallet, bool, error) {
	var name string
	if u.Name != nil {
		name = strings.TrimSpace(*u.Name)
		if name == "" {
			return core.Wallet{}, false, invalid("name", core.ErrEmptyWalletName)
		}
	}

	s.mu.Lock()
	w := s.find(id)
	if w == nil {
		s.mu.Unlock()
		return core.Wallet{}, false, nil
	}
	if u.Name != nil {
		w.Name = name
	}
	if u.ToggleCardType {
		w.CardType = w.CardType.Toggle()
	}
	snap := s.commit(ctx, OpUpdateWallet, w)
	s.mu.Unlock()

	return snap, true, nil
}

// DeleteWallet removes a wallet and all of its transactions.
func (s *LedgerService) DeleteWallet(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.wallets = append(s.wallets[:i], s.wallets[i+1:]...)
	s.metrics.IncLedgerOp(OpDeleteWallet)
	version := s.generation.Add(1)
	if err := s.store.DeleteWallet(ctx, id); err != nil {
		s.persistFailed(ctx, OpDeleteWallet, id, err)
	}
	s.mu.Unlock()

	s.publish(ctx, ports.LedgerEvent{Kind: ports.WalletDeleted, WalletID: id, Version: int64(version)})
	s.logger.InfoContext(ctx, "Wallet deleted", log.FieldWalletID, id)
	return true
}

// RecordTransaction validates in and appends it to the wallet. Invalid input
// leaves the ledger untouched.
func (s *LedgerService) RecordTransaction(ctx context.Context, walletID string, in TransactionInput) (core.Transaction, error) {
	tx, err := newTransaction(in, s.now())
	if err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	w := s.find(walletID)
	if w == nil {
		s.mu.Unlock()
		return core.Transaction{}, ErrWalletNotFound
	}
	w.AddTransaction(tx)
	s.commit(ctx, OpRecordTransaction, w)
	version := s.generation.Load()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction recorded", log.NewFields().
		WithTransaction(walletID, tx.ID, tx.Type.String(), tx.Category, tx.Amount.Cents).ToSlice()...)
	s.publish(ctx, ports.LedgerEvent{Kind: ports.TransactionRecorded, WalletID: walletID, TransactionID: tx.ID, Version: int64(version)})
	return tx, nil
}

// EditTransaction replaces amount, category, note and date of a transaction.
// Unknown wallet or transaction ids are a silent no-op reported as false.
func (s *LedgerService) EditTransaction(ctx context.Context, walletID, txID string, in TransactionInput) (bool, error) {
	edit, err := transactionEdit(in)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	w := s.find(walletID)
	if w == nil {
		s.mu.Unlock()
		return false, nil
	}
	current, ok := w.Transaction(txID)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	if edit.Date.IsZero() {
		edit.Date = current.Date
	}
	w.EditTransaction(txID, edit)
	s.commit(ctx, OpEditTransaction, w)
	version := s.generation.Load()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction edited", log.NewFields().
		WithTransaction(walletID, txID, current.Type.String(), edit.Category, edit.Amount.Cents).ToSlice()...)
	s.publish(ctx, ports.LedgerEvent{Kind: ports.TransactionEdited, WalletID: walletID, TransactionID: txID, Version: int64(version)})
	return true, nil
}

// DeleteTransaction removes a transaction. Unknown ids are a silent no-op.
func (s *LedgerService) DeleteTransaction(ctx context.Context, walletID, txID string) bool {
	s.mu.Lock()
	w := s.find(walletID)
	if w == nil || !w.RemoveTransaction(txID) {
		s.mu.Unlock()
		return false
	}
	s.commit(ctx, OpDeleteTransaction, w)
	version := s.generation.Load()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldWalletID, walletID, log.FieldTransactionID, txID)
	s.publish(ctx, ports.LedgerEvent{Kind: ports.TransactionDeleted, WalletID: walletID, TransactionID: txID, Version: int64(version)})
	return true
}

// commit re-derives totals, bumps the generation and persists w.
// Caller holds s.mu.
func (s *LedgerService) commit(ctx context.Context, op string, w *core.Wallet) core.Wallet {
	w.RecalculateTotals()
	s.generation.Add(1)
	s.metrics.IncLedgerOp(op)
	snap := w.Snapshot()
	s.save(ctx, op, snap)
	return snap
}

func (s *LedgerService) save(ctx context.Context, op string, w core.Wallet) {
	if err := s.store.SaveWallet(ctx, w); err != nil {
		s.persistFailed(ctx, op, w.ID, err)
	}
}

func (s *LedgerService) persistFailed(ctx context.Context, op, walletID string, err error) {
	s.metrics.IncPersistenceFailure(op)
	s.logger.ErrorContext(ctx, "Failed to persist ledger change",
		log.FieldOperation, op, log.FieldWalletID, walletID, log.FieldError, err)
}

func (s *LedgerService) publish(ctx context.Context, e ports.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	e.Timestamp = s.now().UTC()
	if err := s.publisher.PublishLedgerEvent(ctx, e); err != nil {
		s.metrics.IncEventPublished(false)
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, string(e.Kind), log.FieldWalletID, e.WalletID, log.FieldError, err)
		return
	}
	s.metrics.IncEventPublished(true)
}

func (s *LedgerService) find(id string) *core.Wallet {
	if i := s.index(id); i >= 0 {
		return s.wallets[i]
	}
	return nil
}

func (s *LedgerService) index(id string) int {
	for i, w := range s.wallets {
		if w.ID == id {
			return i
		}
	}
	return -1
}
