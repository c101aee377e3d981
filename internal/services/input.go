package services

import (
	"fmt"
	"strings"
	"time"

	"finapp/internal/core"
)

// TransactionInput is raw user input for recording or editing a transaction.
type TransactionInput struct {
	Amount   string
	Category string
	Note     string
	Type     string
	// Date defaults to now when zero.
	Date time.Time
}

type WalletInput struct {
	Name     string
	Currency string
	CardType string
}

type HoldingInput struct {
	Symbol   string
	Name     string
	Quantity string
	Price    string
	IconName string
}

func invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrValidation, field, err)
}

func parseAmount(s string) (core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return core.Money{}, invalid("amount", fmt.Errorf("is required"))
	}
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, invalid("amount", err)
	}
	return m, nil
}

func parseNote(s string) (string, error) {
	note := strings.TrimSpace(s)
	if len(note) > core.MaxNoteLength {
		return "", invalid("note", core.ErrNoteTooLong)
	}
	return note, nil
}

func parseCategory(s string) (string, error) {
	c := strings.TrimSpace(s)
	if c == "" {
		return "", invalid("category", core.ErrEmptyCategory)
	}
	return c, nil
}

// newTransaction validates in and builds a transaction dated now when no
// date was given.
func newTransaction(in TransactionInput, now time.Time) (core.Transaction, error) {
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	category, err := parseCategory(in.Category)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(in.Type)
	if err != nil {
		return core.Transaction{}, invalid("type", err)
	}
	note, err := parseNote(in.Note)
	if err != nil {
		return core.Transaction{}, err
	}
	date := in.Date
	if date.IsZero() {
		date = now
	}
	return core.NewTransaction(amount, date, category, typ, note), nil
}

// transactionEdit validates the editable fields. Type is ignored: it cannot
// change after recording. A zero date means keep the current one.
func transactionEdit(in TransactionInput) (core.TransactionEdit, error) {
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.TransactionEdit{}, err
	}
	category, err := parseCategory(in.Category)
	if err != nil {
		return core.TransactionEdit{}, err
	}
	note, err := parseNote(in.Note)
	if err != nil {
		return core.TransactionEdit{}, err
	}
	return core.TransactionEdit{Amount: amount, Category: category, Note: note, Date: in.Date}, nil
}

func newWallet(in WalletInput) (core.Wallet, error) {
	if strings.TrimSpace(in.Name) == "" {
		return core.Wallet{}, invalid("name", core.ErrEmptyWalletName)
	}
	var card core.CardType
	if strings.TrimSpace(in.CardType) != "" {
		c, err := core.ParseCardType(in.CardType)
		if err != nil {
			return core.Wallet{}, invalid("card_type", err)
		}
		card = c
	}
	return core.NewWallet(in.Name, strings.TrimSpace(in.Currency), card), nil
}
