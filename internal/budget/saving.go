package budget

import (
	"finapp/internal/core"
	"finapp/internal/report"
)

// SavingProgress tracks a monthly saving goal against the month's net.
type SavingProgress struct {
	Goal           core.Money
	Saved          core.Money
	Remaining      core.Money
	Percent        float64
	DisplayPercent float64
	Achieved       bool
}

// Progress computes saving progress. A goal of zero or less means no goal is
// set: percent stays 0 and the goal is never achieved.
func Progress(goal, income, expenses core.Money) SavingProgress {
	saved := income.Sub(expenses)
	p := SavingProgress{
		Goal:      goal,
		Saved:     saved,
		Remaining: Remaining(goal, saved),
	}
	if goal.Cents <= 0 {
		p.Remaining = core.Money{}
		return p
	}
	p.Percent = report.Percentage(saved, goal)
	p.DisplayPercent = report.ClampPercent(p.Percent)
	p.Achieved = saved.Cents >= goal.Cents
	return p
}
