package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finapp/internal/core"
	"finapp/internal/log"
	"finapp/internal/ports"
)

type PortfolioSummary struct {
	Crypto      []core.Holding
	Stocks      []core.Holding
	CryptoValue core.Money
	StockValue  core.Money
	Total       core.Money
}

type PortfolioService struct {
	store  ports.HoldingStore
	logger *log.Logger
}

func NewPortfolioService(store ports.HoldingStore, logger *log.Logger) *PortfolioService {
	return &PortfolioService{store: store, logger: logger.WithComponent(log.ComponentPortfolio)}
}

func (s *PortfolioService) AddCryptoAsset(ctx context.Context, in HoldingInput) (core.CryptoAsset, error) {
	symbol, name, qty, price, err := parseHolding(in)
	if err != nil {
		return core.CryptoAsset{}, err
	}
	a := core.NewCryptoAsset(symbol, name, qty, price, in.IconName)
	if err := s.store.SaveCryptoAsset(ctx, a); err != nil {
		return core.CryptoAsset{}, fmt.Errorf("save crypto asset: %w", err)
	}
	s.logger.InfoContext(ctx, "Crypto asset added", "symbol", a.Symbol)
	return a, nil
}

func (s *PortfolioService) CryptoAssets(ctx context.Context) ([]core.CryptoAsset, error) {
	return s.store.ListCryptoAssets(ctx)
}

func (s *PortfolioService) DeleteCryptoAsset(ctx context.Context, id string) error {
	return s.store.DeleteCryptoAsset(ctx, id)
}

func (s *PortfolioService) AddStock(ctx context.Context, in HoldingInput) (core.Stock, error) {
	symbol, name, qty, price, err := parseHolding(in)
	if err != nil {
		return core.Stock{}, err
	}
	st := core.NewStock(symbol, name, qty, price, in.IconName)
	if err := s.store.SaveStock(ctx, st); err != nil {
		return core.Stock{}, fmt.Errorf("save stock: %w", err)
	}
	s.logger.InfoContext(ctx, "Stock added", "symbol", st.Symbol)
	return st, nil
}

func (s *PortfolioService) Stocks(ctx context.Context) ([]core.Stock, error) {
	return s.store.ListStocks(ctx)
}

func (s *PortfolioService) DeleteStock(ctx context.Context, id string) error {
	return s.store.DeleteStock(ctx, id)
}

// Summary values every holding and totals the portfolio.
func (s *PortfolioService) Summary(ctx context.Context) (PortfolioSummary, error) {
	assets, err := s.store.ListCryptoAssets(ctx)
	if err != nil {
		return PortfolioSummary{}, fmt.Errorf("list crypto assets: %w", err)
	}
	stocks, err := s.store.ListStocks(ctx)
	if err != nil {
		return PortfolioSummary{}, fmt.Errorf("list stocks: %w", err)
	}

	var sum PortfolioSummary
	for _, a := range assets {
		h := a.Holding()
		sum.Crypto = append(sum.Crypto, h)
		sum.CryptoValue = sum.CryptoValue.Add(h.Value)
	}
	for _, st := range stocks {
		h := st.Holding()
		sum.Stocks = append(sum.Stocks, h)
		sum.StockValue = sum.StockValue.Add(h.Value)
	}
	sum.Total = sum.CryptoValue.Add(sum.StockValue)
	return sum, nil
}

func parseHolding(in HoldingInput) (symbol, name string, qty decimal.Decimal, price core.Money, err error) {
	symbol = strings.TrimSpace(in.Symbol)
	if symbol == "" {
		return "", "", qty, price, invalid("symbol", core.ErrEmptySymbol)
	}
	name = strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", qty, price, invalid("name", core.ErrEmptyName)
	}
	qty, err = core.ParsePositiveDecimal(in.Quantity)
	if err != nil {
		return "", "", qty, price, invalid("quantity", core.ErrInvalidQuantity)
	}
	price, err = core.ParseMoney(in.Price)
	if err != nil {
		return "", "", qty, price, invalid("price", core.ErrInvalidUnitPrice)
	}
	return symbol, name, qty, price, nil
}
