package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultCryptoIcon = "bitcoinsign.circle.fill"
	DefaultStockIcon  = "chart.line.uptrend.xyaxis"
)

var (
	ErrEmptySymbol      = errors.New("empty symbol")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidUnitPrice = errors.New("invalid price")
)

type (
	// CryptoAsset is a crypto currency holding.
	CryptoAsset struct {
		ID       string
		Symbol   string
		Name     string
		Amount   decimal.Decimal
		Price    Money
		IconName string
	}

	// Stock is an equity holding.
	Stock struct {
		ID       string
		Symbol   string
		Name     string
		Shares   decimal.Decimal
		Price    Money
		IconName string
	}

	// Holding is the common read view over crypto assets and stocks.
	Holding struct {
		ID       string
		Kind     string
		Symbol   string
		Name     string
		Quantity decimal.Decimal
		Price    Money
		Value    Money
		IconName string
	}
)

func NewCryptoAsset(symbol, name string, amount decimal.Decimal, price Money, icon string) CryptoAsset {
	if strings.TrimSpace(icon) == "" {
		icon = DefaultCryptoIcon
	}
	return CryptoAsset{
		ID:       uuid.NewString(),
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Name:     strings.TrimSpace(name),
		Amount:   amount,
		Price:    price,
		IconName: icon,
	}
}

// Value is quantity times unit price, rounded to cents.
func (a CryptoAsset) Value() Money {
	return a.Price.MulDecimal(a.Amount)
}

func (a CryptoAsset) Validate() error {
	return validateHolding(a.Symbol, a.Name, a.Amount, a.Price)
}

func (a CryptoAsset) Holding() Holding {
	return Holding{
		ID:       a.ID,
		Kind:     "crypto",
		Symbol:   a.Symbol,
		Name:     a.Name,
		Quantity: a.Amount,
		Price:    a.Price,
		Value:    a.Value(),
		IconName: a.IconName,
	}
}

func NewStock(symbol, name string, shares decimal.Decimal, price Money, icon string) Stock {
	if strings.TrimSpace(icon) == "" {
		icon = DefaultStockIcon
	}
	return Stock{
		ID:       uuid.NewString(),
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Name:     strings.TrimSpace(name),
		Shares:   shares,
		Price:    price,
		IconName: icon,
	}
}

// Value is shares times unit price, rounded to cents.
func (s Stock) Value() Money {
	return s.Price.MulDecimal(s.Shares)
}

func (s Stock) Validate() error {
	return validateHolding(s.Symbol, s.Name, s.Shares, s.Price)
}

func (s Stock) Holding() Holding {
	return Holding{
		ID:       s.ID,
		Kind:     "stock",
		Symbol:   s.Symbol,
		Name:     s.Name,
		Quantity: s.Shares,
		Price:    s.Price,
		Value:    s.Value(),
		IconName: s.IconName,
	}
}

func validateHolding(symbol, name string, qty decimal.Decimal, price Money) error {
	if strings.TrimSpace(symbol) == "" {
		return ErrEmptySymbol
	}
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if price.Cents <= 0 {
		return ErrInvalidUnitPrice
	}
	return nil
}
