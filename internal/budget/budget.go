// Package budget compares category spending against monthly allocations and
// tracks progress toward a monthly saving goal.
package budget

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"finapp/internal/core"
	"finapp/internal/report"
)

const (
	WarningPercent = 80.0
	OverPercent    = 100.0
	weeksPerMonth  = 4
	monthsPerYear  = 12
)

type Status string

const (
	Normal     Status = "normal"
	Warning    Status = "warning"
	OverBudget Status = "over_budget"
)

var ErrEmptyCategory = errors.New("empty budget category")

// Budget is a monthly allocation for one expense category.
type Budget struct {
	ID        string
	Category  string
	Allocated core.Money
}

func New(category string, allocated core.Money) Budget {
	return Budget{ID: uuid.NewString(), Category: strings.TrimSpace(category), Allocated: allocated}
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return b.Allocated.Validate()
}

// AdjustedAllocation scales the monthly allocation to the window.
func AdjustedAllocation(b Budget, w report.Window) core.Money {
	switch w {
	case report.Week:
		return b.Allocated.Div(weeksPerMonth)
	case report.Year:
		return b.Allocated.Mul(monthsPerYear)
	default:
		return b.Allocated
	}
}

// Remaining never goes below zero.
func Remaining(allocated, spent core.Money) core.Money {
	return allocated.Sub(spent).Max(core.Money{})
}

func Classify(percent float64) Status {
	switch {
	case percent >= OverPercent:
		return OverBudget
	case percent >= WarningPercent:
		return Warning
	default:
		return Normal
	}
}

// Line is the comparison of one budget against its window spending.
type Line struct {
	Budget         Budget
	Allocated      core.Money
	Spent          core.Money
	Remaining      core.Money
	Percent        float64
	DisplayPercent float64
	Status         Status
}

type Report struct {
	Window      report.Window
	Lines       []Line
	TotalBudget core.Money
	TotalSpent  core.Money
	Remaining   core.Money
	Percent     float64
	Status      Status
}

// Evaluate compares every budget to the window's spending in its category.
// Category matching is case-insensitive. Lines keep the order of budgets.
func Evaluate(budgets []Budget, spent map[string]core.Money, w report.Window) Report {
	byKey := make(map[string]core.Money, len(spent))
	for name, m := range spent {
		k := strings.ToLower(strings.TrimSpace(name))
		byKey[k] = byKey[k].Add(m)
	}

	rep := Report{Window: w, Lines: make([]Line, 0, len(budgets))}
	for _, b := range budgets {
		alloc := AdjustedAllocation(b, w)
		s := byKey[strings.ToLower(b.Category)]
		pct := report.Percentage(s, alloc)
		rep.Lines = append(rep.Lines, Line{
			Budget:         b,
			Allocated:      alloc,
			Spent:          s,
			Remaining:      Remaining(alloc, s),
			Percent:        pct,
			DisplayPercent: report.ClampPercent(pct),
			Status:         Classify(pct),
		})
		rep.TotalBudget = rep.TotalBudget.Add(alloc)
		rep.TotalSpent = rep.TotalSpent.Add(s)
	}
	rep.Remaining = Remaining(rep.TotalBudget, rep.TotalSpent)
	rep.Percent = report.Percentage(rep.TotalSpent, rep.TotalBudget)
	rep.Status = Classify(rep.Percent)
	return rep
}

// SortByCategory orders budgets by category name.
func SortByCategory(budgets []Budget) {
	sort.SliceStable(budgets, func(i, j int) bool {
		return strings.ToLower(budgets[i].Category) < strings.ToLower(budgets[j].Category)
	})
}
