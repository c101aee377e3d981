package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finapp/internal/core"
	"finapp/internal/report"
)

func TestAdjustedAllocation(t *testing.T) {
	b := New("Food", core.Money{Cents: 40000})
	assert.Equal(t, int64(10000), AdjustedAllocation(b, report.Week).Cents)
	assert.Equal(t, int64(40000), AdjustedAllocation(b, report.Month).Cents)
	assert.Equal(t, int64(480000), AdjustedAllocation(b, report.Year).Cents)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		pct  float64
		want Status
	}{
		{0, Normal},
		{79.99, Normal},
		{80, Warning},
		{99.99, Warning},
		{100, OverBudget},
		{250, OverBudget},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.pct), "pct=%v", tc.pct)
	}
}

func TestEvaluate(t *testing.T) {
	budgets := []Budget{
		New("Food", core.Money{Cents: 40000}),
		New("Rent", core.Money{Cents: 100000}),
		New("Fun", core.Money{Cents: 10000}),
	}
	spent := map[string]core.Money{
		"food":   {Cents: 34000},
		"Rent":   {Cents: 120000},
		"Travel": {Cents: 99900},
	}

	rep := Evaluate(budgets, spent, report.Month)
	require.Len(t, rep.Lines, 3)

	food := rep.Lines[0]
	assert.Equal(t, Warning, food.Status)
	assert.InDelta(t, 85.0, food.Percent, 1e-9)
	assert.Equal(t, int64(6000), food.Remaining.Cents)

	rent := rep.Lines[1]
	assert.Equal(t, OverBudget, rent.Status)
	assert.InDelta(t, 120.0, rent.Percent, 1e-9)
	assert.Equal(t, 100.0, rent.DisplayPercent)
	assert.True(t, rent.Remaining.IsZero())

	fun := rep.Lines[2]
	assert.Equal(t, Normal, fun.Status)
	assert.True(t, fun.Spent.IsZero())

	assert.Equal(t, int64(150000), rep.TotalBudget.Cents)
	assert.Equal(t, int64(154000), rep.TotalSpent.Cents)
	assert.True(t, rep.Remaining.IsZero())
	assert.Equal(t, OverBudget, rep.Status)
}

func TestEvaluateWeekWindow(t *testing.T) {
	rep := Evaluate([]Budget{New("Food", core.Money{Cents: 40000})}, map[string]core.Money{"Food": {Cents: 8000}}, report.Week)
	require.Len(t, rep.Lines, 1)
	assert.Equal(t, int64(10000), rep.Lines[0].Allocated.Cents)
	assert.Equal(t, Warning, rep.Lines[0].Status)
}

func TestBudgetValidate(t *testing.T) {
	assert.NoError(t, New("Food", core.Money{Cents: 1}).Validate())
	assert.ErrorIs(t, New(" ", core.Money{Cents: 1}).Validate(), ErrEmptyCategory)
	assert.ErrorIs(t, New("Food", core.Money{}).Validate(), core.ErrInvalidAmount)
}

func TestSavingProgress(t *testing.T) {
	p := Progress(core.Money{Cents: 100000}, core.Money{Cents: 500000}, core.Money{Cents: 450000})
	assert.Equal(t, int64(50000), p.Saved.Cents)
	assert.Equal(t, int64(50000), p.Remaining.Cents)
	assert.InDelta(t, 50.0, p.Percent, 1e-9)
	assert.False(t, p.Achieved)

	p = Progress(core.Money{Cents: 100000}, core.Money{Cents: 500000}, core.Money{Cents: 300000})
	assert.True(t, p.Achieved)
	assert.Equal(t, 100.0, p.DisplayPercent)
	assert.True(t, p.Remaining.IsZero())

	p = Progress(core.Money{}, core.Money{Cents: 500000}, core.Money{})
	assert.Equal(t, 0.0, p.Percent)
	assert.False(t, p.Achieved)

	p = Progress(core.Money{Cents: 1000}, core.Money{}, core.Money{Cents: 500})
	assert.True(t, p.Saved.IsNegative())
	assert.Equal(t, 0.0, p.DisplayPercent)
	assert.Equal(t, int64(1500), p.Remaining.Cents)
}
