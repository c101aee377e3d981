package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"finapp/internal/core"
	"finapp/internal/report"
	"finapp/internal/services"
)

var errNotFound = errors.New("not found")

// wallet resolves a wallet by id or, failing that, by case-insensitive name.
func (a *app) wallet(ref string) (core.Wallet, error) {
	if w, err := a.ledger.Wallet(ref); err == nil {
		return w, nil
	}
	for _, w := range a.ledger.Wallets() {
		if strings.EqualFold(w.Name, strings.TrimSpace(ref)) {
			return w, nil
		}
	}
	return core.Wallet{}, fmt.Errorf("wallet %q: %w", ref, errNotFound)
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, core.ErrInvalidDate)
	}
	return t, nil
}

type walletsCmd struct {
	List   walletsListCmd   `cmd:"" default:"1" help:"List wallets with their balances."`
	Add    walletsAddCmd    `cmd:"" help:"Add a wallet."`
	Delete walletsDeleteCmd `cmd:"" help:"Delete a wallet and its transactions."`
}

type walletsListCmd struct{}

func (c *walletsListCmd) Run(a *app) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tCARD\tBALANCE\tINCOME\tEXPENSES\tTXS")
	for _, w := range a.ledger.Wallets() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			w.ID, w.Name, w.CardType,
			w.Balance.Format(w.Currency),
			w.TotalIncome.Format(w.Currency),
			w.TotalExpenses.Format(w.Currency),
			len(w.Transactions))
	}
	return tw.Flush()
}

type walletsAddCmd struct {
	Name     string `arg:"" help:"Wallet name."`
	Currency string `default:"$" help:"Currency symbol."`
	Card     string `default:"debit" enum:"debit,credit" help:"Card type (debit or credit)."`
}

func (c *walletsAddCmd) Run(a *app) error {
	w, err := a.ledger.AddWallet(a.ctx, services.WalletInput{Name: c.Name, Currency: c.Currency, CardType: c.Card})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added wallet %s (%s)\n", w.Name, w.ID)
	return nil
}

type walletsDeleteCmd struct {
	Wallet string `arg:"" help:"Wallet id or name."`
}

func (c *walletsDeleteCmd) Run(a *app) error {
	w, err := a.wallet(c.Wallet)
	if err != nil {
		return err
	}
	a.ledger.DeleteWallet(a.ctx, w.ID)
	fmt.Fprintf(a.out, "Deleted wallet %s and %d transactions\n", w.Name, len(w.Transactions))
	return nil
}

type txCmd struct {
	Add    txAddCmd    `cmd:"" help:"Record a transaction."`
	Edit   txEditCmd   `cmd:"" help:"Edit a transaction."`
	Delete txDeleteCmd `cmd:"" help:"Delete a transaction."`
	Recent txRecentCmd `cmd:"" help:"List the newest transactions of a wallet."`
}

type txAddCmd struct {
	Wallet   string `arg:"" help:"Wallet id or name."`
	Type     string `arg:"" enum:"income,expense" help:"income or expense."`
	Amount   string `arg:"" help:"Positive amount, e.g. 12.50."`
	Category string `arg:"" help:"Category name."`
	Note     string `help:"Optional note."`
	Date     string `help:"Date as YYYY-MM-DD, defaults to now."`
}

func (c *txAddCmd) Run(a *app) error {
	w, err := a.wallet(c.Wallet)
	if err != nil {
		return err
	}
	date, err := parseDay(c.Date)
	if err != nil {
		return err
	}
	tx, err := a.ledger.RecordTransaction(a.ctx, w.ID, services.TransactionInput{
		Amount: c.Amount, Category: c.Category, Note: c.Note, Type: c.Type, Date: date,
	})
	if err != nil {
		return err
	}
	w, _ = a.ledger.Wallet(w.ID)
	fmt.Fprintf(a.out, "Recorded %s %s in %s (%s), balance %s\n",
		tx.Type, tx.Amount.Format(w.Currency), tx.Category, tx.ID, w.Balance.Format(w.Currency))
	return nil
}

type txEditCmd struct {
	Wallet   string `arg:"" help:"Wallet id or name."`
	ID       string `arg:"" help:"Transaction id."`
	Amount   string `arg:"" help:"New amount."`
	Category string `arg:"" help:"New category."`
	Note     string `help:"New note."`
	Date     string `help:"New date as YYYY-MM-DD, unchanged when empty."`
}

func (c *txEditCmd) Run(a *app) error {
	w, err := a.wallet(c.Wallet)
	if err != nil {
		return err
	}
	date, err := parseDay(c.Date)
	if err != nil {
		return err
	}
	ok, err := a.ledger.EditTransaction(a.ctx, w.ID, c.ID, services.TransactionInput{
		Amount: c.Amount, Category: c.Category, Note: c.Note, Date: date,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transaction %q: %w", c.ID, errNotFound)
	}
	fmt.Fprintf(a.out, "Edited transaction %s\n", c.ID)
	return nil
}

type txDeleteCmd struct {
	Wallet string `arg:"" help:"Wallet id or name."`
	ID     string `arg:"" help:"Transaction id."`
}

func (c *txDeleteCmd) Run(a *app) error {
	w, err := a.wallet(c.Wallet)
	if err != nil {
		return err
	}
	if !a.ledger.DeleteTransaction(a.ctx, w.ID, c.ID) {
		return fmt.Errorf("transaction %q: %w", c.ID, errNotFound)
	}
	fmt.Fprintf(a.out, "Deleted transaction %s\n", c.ID)
	return nil
}

type txRecentCmd struct {
	Wallet string `arg:"" help:"Wallet id or name."`
	Limit  int    `short:"n" default:"10" help:"Number of transactions."`
	Type   string `help:"Only income or expense."`
}

func (c *txRecentCmd) Run(a *app) error {
	w, err := a.wallet(c.Wallet)
	if err != nil {
		return err
	}
	txs, err := a.ledger.RecentTransactions(w.ID, c.Limit, c.Type)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "DATE\tTYPE\tCATEGORY\tAMOUNT\tNOTE\tID")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Date.Format("2006-01-02"), tx.Type, tx.Category, tx.Amount.Format(w.Currency), tx.Note, tx.ID)
	}
	return tw.Flush()
}

type reportCmd struct {
	Overview reportOverviewCmd `cmd:"" help:"Income, expenses and top categories of a window."`
	Trend    reportTrendCmd    `cmd:"" help:"Monthly income and expenses of the last months."`
	Month    reportMonthCmd    `cmd:"" help:"Detail of one calendar month."`
}

type reportOverviewCmd struct {
	Window string `default:"month" enum:"week,month,year" help:"week, month or year."`
	Wallet string `help:"Wallet id or name, all wallets when empty."`
}

func (c *reportOverviewCmd) Run(a *app) error {
	walletID, currency, err := a.scope(c.Wallet)
	if err != nil {
		return err
	}
	w, err := report.ParseWindow(c.Window)
	if err != nil {
		return err
	}
	o, err := a.reports.Overview(a.ctx, services.ReportQuery{WalletID: walletID, Window: w, Now: a.now()})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s to %s\n", o.Range.Start.Format("2006-01-02"), o.Range.End.AddDate(0, 0, -1).Format("2006-01-02"))
	tw := a.table()
	fmt.Fprintf(tw, "Income\t%s\n", o.Income.Format(currency))
	fmt.Fprintf(tw, "Expenses\t%s\n", o.Expenses.Format(currency))
	fmt.Fprintf(tw, "Net\t%s\n", o.Net.Format(currency))
	fmt.Fprintf(tw, "Spent\t%.1f%%\n", o.SpendingRatio*100)
	for _, cat := range o.Breakdown {
		fmt.Fprintf(tw, "  %s\t%s\n", cat.Name, cat.Amount.Format(currency))
	}
	return tw.Flush()
}

type reportTrendCmd struct {
	Page   int    `default:"1" help:"Page, starting at 1."`
	Wallet string `help:"Wallet id or name, all wallets when empty."`
}

func (c *reportTrendCmd) Run(a *app) error {
	walletID, currency, err := a.scope(c.Wallet)
	if err != nil {
		return err
	}
	page := c.Page
	if page < 1 {
		page = 1
	}
	t, err := a.reports.Trend(a.ctx, walletID, a.now(), page-1)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSES")
	for _, p := range t.Points {
		fmt.Fprintf(tw, "%s %d\t%s\t%s\n", p.Label(), p.Year, p.Income.Format(currency), p.Expenses.Format(currency))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d of %d\n", page, t.TotalPages)
	return nil
}

type reportMonthCmd struct {
	Year   int    `arg:"" help:"Year, e.g. 2024."`
	Month  int    `arg:"" help:"Month number, 1 to 12."`
	Wallet string `help:"Wallet id or name, all wallets when empty."`
}

func (c *reportMonthCmd) Run(a *app) error {
	walletID, currency, err := a.scope(c.Wallet)
	if err != nil {
		return err
	}
	d, err := a.reports.Month(a.ctx, walletID, c.Year, time.Month(c.Month), time.Local)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintf(tw, "Income\t%s\n", d.Overview.Income.Format(currency))
	fmt.Fprintf(tw, "Expenses\t%s\n", d.Overview.Expenses.Format(currency))
	fmt.Fprintf(tw, "Net\t%s\n", d.Overview.Net().Format(currency))
	for _, cat := range d.Overview.ByCategory {
		fmt.Fprintf(tw, "  %s\t%s\n", cat.Name, cat.Amount.Format(currency))
	}
	return tw.Flush()
}

// scope maps an optional wallet reference to the id reports filter on and
// the symbol amounts are shown in.
func (a *app) scope(ref string) (string, string, error) {
	if ref == "" {
		return "", core.DefaultCurrency, nil
	}
	w, err := a.wallet(ref)
	if err != nil {
		return "", "", err
	}
	return w.ID, w.Currency, nil
}

type budgetCmd struct {
	Add    budgetAddCmd    `cmd:"" help:"Add a monthly budget for a category."`
	List   budgetListCmd   `cmd:"" help:"List budgets."`
	Report budgetReportCmd `cmd:"" help:"Compare budgets with spending."`
}

type budgetAddCmd struct {
	Category string `arg:"" help:"Expense category."`
	Amount   string `arg:"" help:"Monthly allocation."`
}

func (c *budgetAddCmd) Run(a *app) error {
	b, err := a.budgets.AddBudget(a.ctx, c.Category, c.Amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added budget %s %s (%s)\n", b.Category, b.Allocated.Format(core.DefaultCurrency), b.ID)
	return nil
}

type budgetListCmd struct{}

func (c *budgetListCmd) Run(a *app) error {
	bs, err := a.budgets.Budgets(a.ctx)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "CATEGORY\tMONTHLY\tID")
	for _, b := range bs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Category, b.Allocated.Format(core.DefaultCurrency), b.ID)
	}
	return tw.Flush()
}

type budgetReportCmd struct {
	Window string `default:"month" enum:"week,month,year" help:"week, month or year."`
}

func (c *budgetReportCmd) Run(a *app) error {
	w, err := report.ParseWindow(c.Window)
	if err != nil {
		return err
	}
	r, err := a.budgets.Report(a.ctx, w, a.now())
	if err != nil {
		return err
	}
	cur := core.DefaultCurrency
	tw := a.table()
	fmt.Fprintln(tw, "CATEGORY\tBUDGET\tSPENT\tLEFT\tUSED\tSTATUS")
	for _, l := range r.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			l.Budget.Category, l.Allocated.Format(cur), l.Spent.Format(cur), l.Remaining.Format(cur), l.Percent, l.Status)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%s\t%s\t%.0f%%\t%s\n",
		r.TotalBudget.Format(cur), r.TotalSpent.Format(cur), r.Remaining.Format(cur), r.Percent, r.Status)
	if err := tw.Flush(); err != nil {
		return err
	}
	if !r.Saving.Goal.IsZero() {
		fmt.Fprintf(a.out, "Saved %s of %s this month (%.0f%%)\n",
			r.Saving.Saved.Format(cur), r.Saving.Goal.Format(cur), r.Saving.DisplayPercent)
	}
	return nil
}

type goalCmd struct {
	Set goalSetCmd `cmd:"" help:"Set the monthly saving goal, 0 clears it."`
}

type goalSetCmd struct {
	Amount string `arg:"" help:"Goal amount."`
}

func (c *goalSetCmd) Run(a *app) error {
	goal, err := a.budgets.SetSavingGoal(a.ctx, c.Amount)
	if err != nil {
		return err
	}
	if goal.IsZero() {
		fmt.Fprintln(a.out, "Saving goal cleared")
		return nil
	}
	fmt.Fprintf(a.out, "Saving goal set to %s\n", goal.Format(core.DefaultCurrency))
	return nil
}
