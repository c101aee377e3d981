package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finapp/internal/budget"
	"finapp/internal/core"
)

func TestMemoryStoreWalletRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)

	w := core.DefaultWallet()
	w.AddTransaction(core.NewTransaction(core.Money{Cents: 123}, time.Now(), "Food", core.Expense, ""))
	if err := s.SaveWallet(ctx, w); err != nil {
		t.Fatalf("save: %v", err)
	}

	// mutating the caller's copy must not leak into the store
	w.Transactions[0].Note = "changed"

	got, err := s.LoadWallets(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected load: %v err=%v", got, err)
	}
	if got[0].Transactions[0].Note != "" {
		t.Fatalf("store shares memory with caller")
	}

	if err := s.DeleteWallet(ctx, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = s.LoadWallets(ctx)
	if len(got) != 0 {
		t.Fatalf("expected no wallets, got %d", len(got))
	}
}

func TestMemoryStoreBudgets(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	rent := budget.New("Rent", core.Money{Cents: 100})
	_ = s.SaveBudget(ctx, rent)
	_ = s.SaveBudget(ctx, budget.New("Food", core.Money{Cents: 100}))
	rent.Allocated = core.Money{Cents: 500}
	_ = s.SaveBudget(ctx, rent)

	list, _ := s.ListBudgets(ctx)
	if len(list) != 2 || list[0].Category != "Food" || list[1].Allocated.Cents != 500 {
		t.Fatalf("unexpected budgets: %+v", list)
	}
	_ = s.SetSavingGoal(ctx, core.Money{Cents: 42})
	if g, _ := s.SavingGoal(ctx); g.Cents != 42 {
		t.Fatalf("unexpected goal: %d", g.Cents)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	// No files -> defaults
	s := NewFromFiles(dir)
	income, _ := s.Categories(context.Background(), core.Income)
	expense, _ := s.Categories(context.Background(), core.Expense)
	if len(income) != 4 || len(expense) != 9 {
		t.Fatalf("expected defaults when files missing, got %v %v", income, expense)
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("seed_income_categories.txt", "# header\nSalary\nBonus\nSalary\n\n")
	mustWrite("seed_expense_categories.txt", "# header\nFood\nFood\nPets\n\n")

	s = NewFromFiles(dir)
	income, _ = s.Categories(context.Background(), core.Income)
	expense, _ = s.Categories(context.Background(), core.Expense)
	if len(income) != 2 || income[0] != "Salary" || income[1] != "Bonus" {
		t.Fatalf("unexpected income: %v", income)
	}
	if len(expense) != 2 || expense[0] != "Food" || expense[1] != "Pets" {
		t.Fatalf("unexpected expense: %v", expense)
	}
}
