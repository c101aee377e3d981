package report

import (
	"sort"
	"time"

	"finapp/internal/core"
)

// HighSpendingShare is the share of income above which spending is flagged.
const HighSpendingShare = 0.5

type Totals struct {
	Income   core.Money
	Expenses core.Money
}

func (t Totals) Net() core.Money {
	return t.Income.Sub(t.Expenses)
}

// Filter returns the transactions dated inside r, preserving order.
func Filter(txs []core.Transaction, r Range) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if r.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}

// Sum totals income and expenses over all of txs.
func Sum(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expenses = t.Expenses.Add(tx.Amount)
		}
	}
	return t
}

// TotalsIn totals the transactions dated inside r.
func TotalsIn(txs []core.Transaction, r Range) Totals {
	return Sum(Filter(txs, r))
}

// ByCategory sums transactions of type t inside r per category, largest first.
func ByCategory(txs []core.Transaction, r Range, t core.TransactionType) []core.CategoryAmount {
	sums := make(map[string]int64)
	for _, tx := range txs {
		if tx.Type != t || !r.Contains(tx.Date) {
			continue
		}
		sums[tx.Category] += tx.Amount.Cents
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for name, c := range sums {
		out = append(out, core.CategoryAmount{Name: name, Amount: core.Money{Cents: c}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SpentByCategory is ByCategory for expenses keyed by category name.
func SpentByCategory(txs []core.Transaction, r Range) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, ca := range ByCategory(txs, r, core.Expense) {
		out[ca.Name] = ca.Amount
	}
	return out
}

// MonthlyData totals the given calendar month.
func MonthlyData(txs []core.Transaction, year int, month time.Month, loc *time.Location) Totals {
	return TotalsIn(txs, MonthRange(year, month, loc))
}

// MonthOverview builds the summary of a calendar month.
func MonthOverview(txs []core.Transaction, year int, month time.Month, loc *time.Location) core.MonthOverview {
	r := MonthRange(year, month, loc)
	t := TotalsIn(txs, r)
	return core.MonthOverview{
		Year:       year,
		Month:      int(month),
		Income:     t.Income,
		Expenses:   t.Expenses,
		ByCategory: ByCategory(txs, r, core.Expense),
	}
}

// SpendingRatio is expenses over income, with income floored at one
// currency unit so a zero-income window still yields a finite number.
func SpendingRatio(income, expenses core.Money) float64 {
	den := income.Max(core.Money{Cents: 100})
	return float64(expenses.Cents) / float64(den.Cents)
}

// IsHighSpending reports whether expenses exceed half of income.
func IsHighSpending(income, expenses core.Money) bool {
	return float64(expenses.Cents) > float64(income.Cents)*HighSpendingShare
}

// Percentage is part/whole*100, unclamped. A non-positive whole yields 0.
func Percentage(part, whole core.Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	return float64(part.Cents) / float64(whole.Cents) * 100
}

// ClampPercent bounds p to [0, 100] for progress displays.
func ClampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// AverageDailySpending divides total expenses by SpendingDays.
func AverageDailySpending(txs []core.Transaction, now time.Time) core.Money {
	days := SpendingDays(txs, now)
	if days == 0 {
		return core.Money{}
	}
	return Sum(txs).Expenses.Div(days)
}

// SpendingDays is the number of whole days elapsed since the earliest
// transaction, counting at least one. It is zero for no transactions.
func SpendingDays(txs []core.Transaction, now time.Time) int64 {
	if len(txs) == 0 {
		return 0
	}
	first := txs[0].Date
	for _, tx := range txs[1:] {
		if tx.Date.Before(first) {
			first = tx.Date
		}
	}
	days := int64(now.Sub(first).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

// MonthlySpending sums expenses per calendar month name across all years,
// ordered January to December. Months without spending are omitted.
func MonthlySpending(txs []core.Transaction) []core.CategoryAmount {
	var sums [12]int64
	var seen [12]bool
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		i := int(tx.Date.Month()) - 1
		sums[i] += tx.Amount.Cents
		seen[i] = true
	}
	var out []core.CategoryAmount
	for i := range sums {
		if seen[i] {
			out = append(out, core.CategoryAmount{Name: time.Month(i + 1).String(), Amount: core.Money{Cents: sums[i]}})
		}
	}
	return out
}
