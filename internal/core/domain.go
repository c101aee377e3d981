package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Debit  CardType = "DEBIT"
	Credit CardType = "CREDIT"
)

// Predefined categories offered by the category picker. Any other non-empty
// category is accepted as a custom one.
const (
	CategorySalary         = "Salary"
	CategoryInvestment     = "Investment"
	CategoryGift           = "Gift"
	CategoryFood           = "Food"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryUtilities      = "Utilities"
	CategoryRent           = "Rent"
	CategoryShopping       = "Shopping"
	CategoryHealth         = "Health"
	CategoryEducation      = "Education"
	CategoryOther          = "Other"
)

const (
	DefaultWalletName = "My Wallet"
	DefaultCurrency   = "$"
	MaxNoteLength     = 500
)

type (
	TransactionType string

	CardType string

	Transaction struct {
		ID       string
		Amount   Money
		Date     time.Time
		Category string
		Type     TransactionType
		Note     string
	}

	Wallet struct {
		ID            string
		Name          string
		Currency      string
		CardType      CardType
		Balance       Money
		TotalIncome   Money
		TotalExpenses Money
		Transactions  []Transaction
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidDate     = errors.New("invalid date")
	ErrNoteTooLong     = errors.New("note too long (max 500 characters)")
	ErrEmptyWalletName = errors.New("empty wallet name")
	ErrInvalidCardType = errors.New("invalid card type")
)

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseCardType accepts "debit" or "credit" in any case.
func ParseCardType(s string) (CardType, error) {
	switch CardType(strings.ToUpper(strings.TrimSpace(s))) {
	case Debit:
		return Debit, nil
	case Credit:
		return Credit, nil
	default:
		return "", ErrInvalidCardType
	}
}

// Toggle flips between debit and credit.
func (c CardType) Toggle() CardType {
	if c == Credit {
		return Debit
	}
	return Credit
}

// IncomeCategories returns the predefined income categories.
func IncomeCategories() []string {
	return []string{CategorySalary, CategoryInvestment, CategoryGift, CategoryOther}
}

// ExpenseCategories returns the predefined expense categories.
func ExpenseCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransportation,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryRent,
		CategoryShopping,
		CategoryHealth,
		CategoryEducation,
		CategoryOther,
	}
}

// CategoriesFor returns the predefined categories for a transaction type.
func CategoriesFor(t TransactionType) []string {
	if t == Income {
		return IncomeCategories()
	}
	return ExpenseCategories()
}

// IsPredefinedCategory reports whether name is one of the built-in categories.
func IsPredefinedCategory(name string) bool {
	for _, c := range append(IncomeCategories(), ExpenseCategories()...) {
		if strings.EqualFold(c, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// NewTransaction builds a transaction with a fresh identifier.
func NewTransaction(amount Money, date time.Time, category string, t TransactionType, note string) Transaction {
	return Transaction{
		ID:       uuid.NewString(),
		Amount:   amount,
		Date:     date,
		Category: strings.TrimSpace(category),
		Type:     t,
		Note:     strings.TrimSpace(note),
	}
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if len(t.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// NewWallet creates an empty wallet. Blank currency falls back to "$" and a
// blank card type to debit.
func NewWallet(name, currency string, cardType CardType) Wallet {
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	if cardType == "" {
		cardType = Debit
	}
	return Wallet{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Currency:  currency,
		CardType:  cardType,
		CreatedAt: time.Now().UTC(),
	}
}

// DefaultWallet is the wallet created when none exist yet.
func DefaultWallet() Wallet {
	return NewWallet(DefaultWalletName, DefaultCurrency, Debit)
}

func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyWalletName
	}
	if w.CardType != Debit && w.CardType != Credit {
		return ErrInvalidCardType
	}
	return nil
}
