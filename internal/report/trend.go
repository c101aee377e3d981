package report

import (
	"time"

	"finapp/internal/core"
)

const (
	DefaultTrendMonths = 7
	DefaultPageSize    = 4
)

// MonthPoint is one month of a trend.
type MonthPoint struct {
	Year     int
	Month    time.Month
	Income   core.Money
	Expenses core.Money
}

func (p MonthPoint) Label() string {
	return p.Month.String()[:3]
}

// Trend returns the trailing months ending with now's month, current month
// first. Months are keyed by (year, month) so December rolls back correctly.
func Trend(txs []core.Transaction, now time.Time, months int) []MonthPoint {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	y, m, _ := now.Date()
	loc := now.Location()
	out := make([]MonthPoint, 0, months)
	for i := 0; i < months; i++ {
		first := time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, loc)
		t := MonthlyData(txs, first.Year(), first.Month(), loc)
		out = append(out, MonthPoint{
			Year:     first.Year(),
			Month:    first.Month(),
			Income:   t.Income,
			Expenses: t.Expenses,
		})
	}
	return out
}

// ChartScale is the largest income or expense in points, at least one unit.
func ChartScale(points []MonthPoint) core.Money {
	scale := core.Money{Cents: 100}
	for _, p := range points {
		scale = scale.Max(p.Income).Max(p.Expenses)
	}
	return scale
}

// TotalPages is the number of pages of size needed for n items.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Paginate returns the zero-based page of items. Out-of-range pages are empty.
func Paginate[T any](items []T, page, size int) []T {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}
	start := page * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
