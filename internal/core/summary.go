package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Income     Money
	Expenses   Money
	ByCategory []CategoryAmount
}

// Net is income minus expenses for the month.
func (m MonthOverview) Net() Money {
	return m.Income.Sub(m.Expenses)
}
