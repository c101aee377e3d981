package core

import (
	"sort"
	"time"
)

// DefaultRecentLimit is the number of transactions RecentTransactions returns
// when no positive limit is given.
const DefaultRecentLimit = 10

// TransactionEdit holds the mutable fields of a transaction.
type TransactionEdit struct {
	Amount   Money
	Category string
	Note     string
	Date     time.Time
}

// AddTransaction appends tx and updates the running totals.
// The amount is assumed to be validated by the caller.
func (w *Wallet) AddTransaction(tx Transaction) {
	w.Transactions = append(w.Transactions, tx)
	w.apply(tx.Type, tx.Amount)
}

// RemoveTransaction removes the transaction with the given id and reverses its
// effect on the totals. An unknown id leaves the wallet untouched and returns false.
func (w *Wallet) RemoveTransaction(id string) bool {
	i := w.indexOf(id)
	if i < 0 {
		return false
	}
	tx := w.Transactions[i]
	w.Transactions = append(w.Transactions[:i], w.Transactions[i+1:]...)
	w.apply(tx.Type, Money{Cents: -tx.Amount.Cents})
	return true
}

// EditTransaction replaces the mutable fields of a transaction in place and
// applies the amount delta to the totals. The transaction type never changes.
func (w *Wallet) EditTransaction(id string, e TransactionEdit) bool {
	i := w.indexOf(id)
	if i < 0 {
		return false
	}
	tx := &w.Transactions[i]
	delta := e.Amount.Sub(tx.Amount)

	tx.Amount = e.Amount
	tx.Category = e.Category
	tx.Note = e.Note
	tx.Date = e.Date

	w.apply(tx.Type, delta)
	return true
}

// RecalculateTotals re-derives income, expenses and balance from the
// transaction set, discarding whatever was stored before.
func (w *Wallet) RecalculateTotals() {
	var income, expenses Money
	for _, tx := range w.Transactions {
		switch tx.Type {
		case Income:
			income = income.Add(tx.Amount)
		case Expense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	w.TotalIncome = income
	w.TotalExpenses = expenses
	w.Balance = income.Sub(expenses)
}

// RecentTransactions returns up to limit transactions, most recent first.
// Ties keep insertion order.
func (w *Wallet) RecentTransactions(limit int) []Transaction {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	sorted := SortByDateDesc(w.Transactions)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func (w *Wallet) IncomeTransactions() []Transaction {
	return w.filter(Income)
}

func (w *Wallet) ExpenseTransactions() []Transaction {
	return w.filter(Expense)
}

// Transaction looks up an owned transaction by id.
func (w *Wallet) Transaction(id string) (Transaction, bool) {
	i := w.indexOf(id)
	if i < 0 {
		return Transaction{}, false
	}
	return w.Transactions[i], true
}

// Snapshot returns a deep copy safe to read while the original keeps changing.
func (w *Wallet) Snapshot() Wallet {
	c := *w
	c.Transactions = append([]Transaction(nil), w.Transactions...)
	return c
}

// Consistent reports whether the stored totals match a full re-derivation.
func (w *Wallet) Consistent() bool {
	c := w.Snapshot()
	c.RecalculateTotals()
	return c.TotalIncome == w.TotalIncome &&
		c.TotalExpenses == w.TotalExpenses &&
		c.Balance == w.Balance
}

func (w *Wallet) apply(t TransactionType, amount Money) {
	switch t {
	case Income:
		w.TotalIncome = w.TotalIncome.Add(amount)
		w.Balance = w.Balance.Add(amount)
	case Expense:
		w.TotalExpenses = w.TotalExpenses.Add(amount)
		w.Balance = w.Balance.Sub(amount)
	}
}

func (w *Wallet) indexOf(id string) int {
	for i := range w.Transactions {
		if w.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func (w *Wallet) filter(t TransactionType) []Transaction {
	out := make([]Transaction, 0, len(w.Transactions))
	for _, tx := range w.Transactions {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	return out
}

// SortByDateDesc returns a copy of txs ordered by date, newest first.
func SortByDateDesc(txs []Transaction) []Transaction {
	out := append([]Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// AllTransactions flattens the transactions of several wallets.
func AllTransactions(wallets []Wallet) []Transaction {
	n := 0
	for _, w := range wallets {
		n += len(w.Transactions)
	}
	out := make([]Transaction, 0, n)
	for _, w := range wallets {
		out = append(out, w.Transactions...)
	}
	return out
}
