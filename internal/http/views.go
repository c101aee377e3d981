package http

import (
	"time"

	"finapp/internal/budget"
	"finapp/internal/core"
	"finapp/internal/services"
)

// JSON shapes of the API. Amounts travel as integer cents plus a display
// string in the wallet's currency.

type moneyView struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

func money(m core.Money, currency string) moneyView {
	return moneyView{Cents: m.Cents, Display: m.Format(currency)}
}

type categoryAmountView struct {
	Name   string    `json:"name"`
	Amount moneyView `json:"amount"`
}

func categoryAmounts(items []core.CategoryAmount, currency string) []categoryAmountView {
	out := make([]categoryAmountView, 0, len(items))
	for _, c := range items {
		out = append(out, categoryAmountView{Name: c.Name, Amount: money(c.Amount, currency)})
	}
	return out
}

type transactionView struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Category string    `json:"category"`
	Amount   moneyView `json:"amount"`
	Date     time.Time `json:"date"`
	Note     string    `json:"note,omitempty"`
}

func transactionsView(txs []core.Transaction, currency string) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionView{
			ID:       tx.ID,
			Type:     tx.Type.String(),
			Category: tx.Category,
			Amount:   money(tx.Amount, currency),
			Date:     tx.Date,
			Note:     tx.Note,
		})
	}
	return out
}

type walletView struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Currency         string    `json:"currency"`
	CardType         string    `json:"card_type"`
	Balance          moneyView `json:"balance"`
	TotalIncome      moneyView `json:"total_income"`
	TotalExpenses    moneyView `json:"total_expenses"`
	TransactionCount int       `json:"transaction_count"`
	CreatedAt        time.Time `json:"created_at"`
}

func newWalletView(w core.Wallet) walletView {
	return walletView{
		ID:               w.ID,
		Name:             w.Name,
		Currency:         w.Currency,
		CardType:         string(w.CardType),
		Balance:          money(w.Balance, w.Currency),
		TotalIncome:      money(w.TotalIncome, w.Currency),
		TotalExpenses:    money(w.TotalExpenses, w.Currency),
		TransactionCount: len(w.Transactions),
		CreatedAt:        w.CreatedAt,
	}
}

type walletListView struct {
	Wallets []walletView `json:"wallets"`
	// ResetNotice is set once after the store had to be recreated.
	ResetNotice bool `json:"reset_notice,omitempty"`
}

type overviewView struct {
	WalletID      string               `json:"wallet_id,omitempty"`
	Window        string               `json:"window"`
	Start         time.Time            `json:"start"`
	End           time.Time            `json:"end"`
	Income        moneyView            `json:"income"`
	Expenses      moneyView            `json:"expenses"`
	Net           moneyView            `json:"net"`
	SpendingRatio float64              `json:"spending_ratio"`
	Breakdown     []categoryAmountView `json:"breakdown"`
	Recent        []transactionView    `json:"recent"`
}

func newOverviewView(o services.Overview, currency string) overviewView {
	return overviewView{
		WalletID:      o.WalletID,
		Window:        string(o.Window),
		Start:         o.Range.Start,
		End:           o.Range.End,
		Income:        money(o.Income, currency),
		Expenses:      money(o.Expenses, currency),
		Net:           money(o.Net, currency),
		SpendingRatio: o.SpendingRatio,
		Breakdown:     categoryAmounts(o.Breakdown, currency),
		Recent:        transactionsView(o.Recent, currency),
	}
}

type trendPointView struct {
	Year     int       `json:"year"`
	Month    int       `json:"month"`
	Label    string    `json:"label"`
	Income   moneyView `json:"income"`
	Expenses moneyView `json:"expenses"`
}

type trendView struct {
	Points     []trendPointView `json:"points"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Scale      moneyView        `json:"scale"`
}

func newTrendView(t services.TrendPage, currency string) trendView {
	v := trendView{Page: t.Page, TotalPages: t.TotalPages, Scale: money(t.Scale, currency)}
	v.Points = make([]trendPointView, 0, len(t.Points))
	for _, p := range t.Points {
		v.Points = append(v.Points, trendPointView{
			Year:     p.Year,
			Month:    int(p.Month),
			Label:    p.Label(),
			Income:   money(p.Income, currency),
			Expenses: money(p.Expenses, currency),
		})
	}
	return v
}

type monthView struct {
	Year       int                  `json:"year"`
	Month      int                  `json:"month"`
	Income     moneyView            `json:"income"`
	Expenses   moneyView            `json:"expenses"`
	Net        moneyView            `json:"net"`
	ByCategory []categoryAmountView `json:"by_category"`
	IncomeTxs  []transactionView    `json:"income_transactions"`
	ExpenseTxs []transactionView    `json:"expense_transactions"`
}

func newMonthView(d services.MonthDetail, currency string) monthView {
	return monthView{
		Year:       d.Overview.Year,
		Month:      d.Overview.Month,
		Income:     money(d.Overview.Income, currency),
		Expenses:   money(d.Overview.Expenses, currency),
		Net:        money(d.Overview.Net(), currency),
		ByCategory: categoryAmounts(d.Overview.ByCategory, currency),
		IncomeTxs:  transactionsView(d.Income, currency),
		ExpenseTxs: transactionsView(d.Expenses, currency),
	}
}

type dashboardView struct {
	TotalBalance     moneyView            `json:"total_balance"`
	WalletCount      int                  `json:"wallet_count"`
	Income           moneyView            `json:"income"`
	Expenses         moneyView            `json:"expenses"`
	SpendingRatio    float64              `json:"spending_ratio"`
	HighSpending     bool                 `json:"high_spending"`
	AverageDaily     moneyView            `json:"average_daily_spending"`
	ByCategory       []categoryAmountView `json:"by_category"`
	MonthlySpending  []categoryAmountView `json:"monthly_spending"`
	RecentActivities []transactionView    `json:"recent_activities"`
}

func newDashboardView(d services.Dashboard) dashboardView {
	c := core.DefaultCurrency
	return dashboardView{
		TotalBalance:     money(d.TotalBalance, c),
		WalletCount:      d.WalletCount,
		Income:           money(d.Income, c),
		Expenses:         money(d.Expenses, c),
		SpendingRatio:    d.SpendingRatio,
		HighSpending:     d.HighSpending,
		AverageDaily:     money(d.AverageDaily, c),
		ByCategory:       categoryAmounts(d.ByCategory, c),
		MonthlySpending:  categoryAmounts(d.MonthlySpending, c),
		RecentActivities: transactionsView(d.RecentActivities, c),
	}
}

type budgetView struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Allocated moneyView `json:"allocated"`
}

func newBudgetView(b budget.Budget) budgetView {
	return budgetView{ID: b.ID, Category: b.Category, Allocated: money(b.Allocated, core.DefaultCurrency)}
}

type budgetLineView struct {
	budgetView
	WindowAllocation moneyView `json:"window_allocation"`
	Spent            moneyView `json:"spent"`
	Remaining        moneyView `json:"remaining"`
	Percent          float64   `json:"percent"`
	DisplayPercent   float64   `json:"display_percent"`
	Status           string    `json:"status"`
}

type savingView struct {
	Goal           moneyView `json:"goal"`
	Saved          moneyView `json:"saved"`
	Remaining      moneyView `json:"remaining"`
	Percent        float64   `json:"percent"`
	DisplayPercent float64   `json:"display_percent"`
	Achieved       bool      `json:"achieved"`
}

func newSavingView(p budget.SavingProgress) savingView {
	c := core.DefaultCurrency
	return savingView{
		Goal:           money(p.Goal, c),
		Saved:          money(p.Saved, c),
		Remaining:      money(p.Remaining, c),
		Percent:        p.Percent,
		DisplayPercent: p.DisplayPercent,
		Achieved:       p.Achieved,
	}
}

type budgetReportView struct {
	Window      string           `json:"window"`
	Start       time.Time        `json:"start"`
	End         time.Time        `json:"end"`
	Lines       []budgetLineView `json:"lines"`
	TotalBudget moneyView        `json:"total_budget"`
	TotalSpent  moneyView        `json:"total_spent"`
	Remaining   moneyView        `json:"remaining"`
	Percent     float64          `json:"percent"`
	Status      string           `json:"status"`
	Saving      savingView       `json:"saving"`
}

func newBudgetReportView(r services.BudgetReport) budgetReportView {
	c := core.DefaultCurrency
	v := budgetReportView{
		Window:      string(r.Window),
		Start:       r.Range.Start,
		End:         r.Range.End,
		TotalBudget: money(r.TotalBudget, c),
		TotalSpent:  money(r.TotalSpent, c),
		Remaining:   money(r.Remaining, c),
		Percent:     r.Percent,
		Status:      string(r.Status),
		Saving:      newSavingView(r.Saving),
	}
	v.Lines = make([]budgetLineView, 0, len(r.Lines))
	for _, l := range r.Lines {
		v.Lines = append(v.Lines, budgetLineView{
			budgetView:       newBudgetView(l.Budget),
			WindowAllocation: money(l.Allocated, c),
			Spent:            money(l.Spent, c),
			Remaining:        money(l.Remaining, c),
			Percent:          l.Percent,
			DisplayPercent:   l.DisplayPercent,
			Status:           string(l.Status),
		})
	}
	return v
}

type holdingView struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name"`
	Quantity string    `json:"quantity"`
	Price    moneyView `json:"price"`
	Value    moneyView `json:"value"`
	IconName string    `json:"icon_name,omitempty"`
}

func holdingsView(hs []core.Holding) []holdingView {
	out := make([]holdingView, 0, len(hs))
	for _, h := range hs {
		out = append(out, holdingView{
			ID:       h.ID,
			Kind:     h.Kind,
			Symbol:   h.Symbol,
			Name:     h.Name,
			Quantity: h.Quantity.String(),
			Price:    money(h.Price, core.DefaultCurrency),
			Value:    money(h.Value, core.DefaultCurrency),
			IconName: h.IconName,
		})
	}
	return out
}

type portfolioView struct {
	Crypto      []holdingView `json:"crypto"`
	Stocks      []holdingView `json:"stocks"`
	CryptoValue moneyView     `json:"crypto_value"`
	StockValue  moneyView     `json:"stock_value"`
	Total       moneyView     `json:"total"`
}

func newPortfolioView(p services.PortfolioSummary) portfolioView {
	c := core.DefaultCurrency
	return portfolioView{
		Crypto:      holdingsView(p.Crypto),
		Stocks:      holdingsView(p.Stocks),
		CryptoValue: money(p.CryptoValue, c),
		StockValue:  money(p.StockValue, c),
		Total:       money(p.Total, c),
	}
}
