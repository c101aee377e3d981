package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finapp/internal/budget"
	"finapp/internal/core"
	"finapp/internal/log"
	"finapp/internal/ports"
	"finapp/internal/report"
)

type BudgetReport struct {
	budget.Report
	Range  report.Range
	Saving budget.SavingProgress
}

type BudgetService struct {
	store     ports.BudgetStore
	ledger    LedgerReader
	logger    *log.Logger
	weekStart time.Weekday
}

func NewBudgetService(store ports.BudgetStore, ledger LedgerReader, logger *log.Logger, weekStart time.Weekday) *BudgetService {
	return &BudgetService{
		store:     store,
		ledger:    ledger,
		logger:    logger.WithComponent(log.ComponentBudget),
		weekStart: weekStart,
	}
}

// AddBudget creates a monthly allocation for a category.
func (s *BudgetService) AddBudget(ctx context.Context, category, amount string) (budget.Budget, error) {
	cat, err := parseCategory(category)
	if err != nil {
		return budget.Budget{}, err
	}
	alloc, err := parseAmount(amount)
	if err != nil {
		return budget.Budget{}, err
	}
	b := budget.New(cat, alloc)
	if err := s.store.SaveBudget(ctx, b); err != nil {
		return budget.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget added", log.FieldCategory, b.Category, log.FieldAmountCents, b.Allocated.Cents)
	return b, nil
}

func (s *BudgetService) RemoveBudget(ctx context.Context, id string) error {
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// Budgets lists budgets ordered by category.
func (s *BudgetService) Budgets(ctx context.Context) ([]budget.Budget, error) {
	bs, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	budget.SortByCategory(bs)
	return bs, nil
}

// SetSavingGoal stores the monthly saving goal. Empty or "0" clears it.
func (s *BudgetService) SetSavingGoal(ctx context.Context, amount string) (core.Money, error) {
	var goal core.Money
	if t := strings.TrimSpace(amount); t != "" && t != "0" {
		m, err := parseAmount(t)
		if err != nil {
			return core.Money{}, err
		}
		goal = m
	}
	if err := s.store.SetSavingGoal(ctx, goal); err != nil {
		return core.Money{}, fmt.Errorf("save saving goal: %w", err)
	}
	return goal, nil
}

func (s *BudgetService) SavingGoal(ctx context.Context) (core.Money, error) {
	return s.store.SavingGoal(ctx)
}

// Report compares budgets with spending of all wallets in the window
// containing now. Saving progress always uses the month window.
func (s *BudgetService) Report(ctx context.Context, w report.Window, now time.Time) (BudgetReport, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return BudgetReport{}, fmt.Errorf("list budgets: %w", err)
	}
	goal, err := s.store.SavingGoal(ctx)
	if err != nil {
		return BudgetReport{}, fmt.Errorf("get saving goal: %w", err)
	}
	txs, err := s.ledger.Transactions("")
	if err != nil {
		return BudgetReport{}, err
	}

	r := report.Bounds(now, w, s.weekStart)
	month := report.TotalsIn(txs, report.Bounds(now, report.Month, s.weekStart))
	return BudgetReport{
		Report: budget.Evaluate(budgets, report.SpentByCategory(txs, r), w),
		Range:  r,
		Saving: budget.Progress(goal, month.Income, month.Expenses),
	}, nil
}
