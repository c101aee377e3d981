package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finapp/internal/core"
	"finapp/internal/log"
	"finapp/internal/storage/memory"
)

func TestPortfolioSummary(t *testing.T) {
	ctx := context.Background()
	svc := NewPortfolioService(memory.New(nil, nil), log.Discard())

	btc, err := svc.AddCryptoAsset(ctx, HoldingInput{Symbol: " btc ", Name: "Bitcoin", Quantity: "0.5", Price: "60000"})
	require.NoError(t, err)
	assert.Equal(t, "BTC", btc.Symbol)
	assert.Equal(t, core.DefaultCryptoIcon, btc.IconName)

	_, err = svc.AddStock(ctx, HoldingInput{Symbol: "aapl", Name: "Apple", Quantity: "3", Price: "190,25", IconName: "apple.logo"})
	require.NoError(t, err)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, sum.Crypto, 1)
	require.Len(t, sum.Stocks, 1)
	assert.Equal(t, int64(3000000), sum.CryptoValue.Cents)
	assert.Equal(t, int64(57075), sum.StockValue.Cents)
	assert.Equal(t, int64(3057075), sum.Total.Cents)
	assert.Equal(t, "apple.logo", sum.Stocks[0].IconName)

	require.NoError(t, svc.DeleteCryptoAsset(ctx, btc.ID))
	assets, err := svc.CryptoAssets(ctx)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestPortfolioValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewPortfolioService(memory.New(nil, nil), log.Discard())

	tests := []struct {
		name string
		in   HoldingInput
		want error
	}{
		{"no symbol", HoldingInput{Name: "Apple", Quantity: "1", Price: "1"}, core.ErrEmptySymbol},
		{"no name", HoldingInput{Symbol: "AAPL", Quantity: "1", Price: "1"}, core.ErrEmptyName},
		{"zero quantity", HoldingInput{Symbol: "AAPL", Name: "Apple", Quantity: "0", Price: "1"}, core.ErrInvalidQuantity},
		{"bad price", HoldingInput{Symbol: "AAPL", Name: "Apple", Quantity: "1", Price: "x"}, core.ErrInvalidUnitPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddStock(ctx, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stocks, err := svc.Stocks(ctx)
	require.NoError(t, err)
	assert.Empty(t, stocks)
}
