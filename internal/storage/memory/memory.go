// Package memory is an in-process store used when no database is configured
// and as the fallback when the SQLite store cannot be opened.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"finapp/internal/budget"
	"finapp/internal/core"
	"finapp/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	income  []string
	expense []string
	wallets []core.Wallet
	budgets []budget.Budget
	goal    core.Money
	crypto  []core.CryptoAsset
	stocks  []core.Stock
}

func New(incomeCats, expenseCats []string) *Store {
	return &Store{income: dedupe(incomeCats), expense: dedupe(expenseCats)}
}

// NewFromFiles seeds the category taxonomy from base/seed_income_categories.txt
// and base/seed_expense_categories.txt, falling back to the predefined sets.
func NewFromFiles(base string) *Store {
	income := readLines(filepath.Join(base, "seed_income_categories.txt"))
	expense := readLines(filepath.Join(base, "seed_expense_categories.txt"))
	if len(income) == 0 {
		income = core.IncomeCategories()
	}
	if len(expense) == 0 {
		expense = core.ExpenseCategories()
	}
	return New(income, expense)
}

func (s *Store) LoadWallets(_ context.Context) ([]core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Wallet, len(s.wallets))
	for i := range s.wallets {
		out[i] = s.wallets[i].Snapshot()
	}
	return out, nil
}

func (s *Store) SaveWallet(_ context.Context, w core.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := w.Snapshot()
	for i := range s.wallets {
		if s.wallets[i].ID == w.ID {
			s.wallets[i] = c
			return nil
		}
	}
	s.wallets = append(s.wallets, c)
	return nil
}

func (s *Store) DeleteWallet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets = removeByID(s.wallets, id, func(w core.Wallet) string { return w.ID })
	return nil
}

func (s *Store) ListBudgets(_ context.Context) ([]budget.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]budget.Budget(nil), s.budgets...)
	budget.SortByCategory(out)
	return out, nil
}

func (s *Store) SaveBudget(_ context.Context, b budget.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = upsert(s.budgets, b, func(b budget.Budget) string { return b.ID })
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = removeByID(s.budgets, id, func(b budget.Budget) string { return b.ID })
	return nil
}

func (s *Store) SavingGoal(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goal, nil
}

func (s *Store) SetSavingGoal(_ context.Context, goal core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goal = goal
	return nil
}

func (s *Store) ListCryptoAssets(_ context.Context) ([]core.CryptoAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CryptoAsset(nil), s.crypto...), nil
}

func (s *Store) SaveCryptoAsset(_ context.Context, a core.CryptoAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crypto = upsert(s.crypto, a, func(a core.CryptoAsset) string { return a.ID })
	return nil
}

func (s *Store) DeleteCryptoAsset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crypto = removeByID(s.crypto, id, func(a core.CryptoAsset) string { return a.ID })
	return nil
}

func (s *Store) ListStocks(_ context.Context) ([]core.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Stock(nil), s.stocks...), nil
}

func (s *Store) SaveStock(_ context.Context, st core.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks = upsert(s.stocks, st, func(st core.Stock) string { return st.ID })
	return nil
}

func (s *Store) DeleteStock(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks = removeByID(s.stocks, id, func(st core.Stock) string { return st.ID })
	return nil
}

// Categories returns the seeded taxonomy for a transaction type.
func (s *Store) Categories(_ context.Context, t core.TransactionType) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == core.Income {
		return append([]string(nil), s.income...), nil
	}
	return append([]string(nil), s.expense...), nil
}

func (s *Store) Close() error { return nil }

func upsert[T any](items []T, v T, id func(T) string) []T {
	for i := range items {
		if id(items[i]) == id(v) {
			items[i] = v
			return items
		}
	}
	return append(items, v)
}

func removeByID[T any](items []T, target string, id func(T) string) []T {
	out := items[:0]
	for _, v := range items {
		if id(v) != target {
			out = append(out, v)
		}
	}
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
