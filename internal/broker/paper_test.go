package broker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/strategy"
)

func fixedQuote(price float64) Quoter {
	return func(ctx context.Context, ticker string) (decimal.Decimal, error) {
		return decimal.NewFromFloat(price), nil
	}
}

func TestPaperBuyAndSell(t *testing.T) {
	p := NewPaper(decimal.NewFromInt(10000), fixedQuote(100), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Buy, Quantity: decimal.NewFromInt(10), Type: Market},
	}))

	cash, _ := p.Cash(ctx)
	assert.True(t, cash.Equal(decimal.NewFromInt(9000)))

	positions, _ := p.Positions(ctx)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, positions[0].AveragePrice.Equal(decimal.NewFromInt(100)))

	require.NoError(t, p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Sell, Quantity: decimal.NewFromInt(4), Type: Market},
	}))

	cash, _ = p.Cash(ctx)
	assert.True(t, cash.Equal(decimal.NewFromInt(9400)))

	positions, _ = p.Positions(ctx)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Quantity.Equal(decimal.NewFromInt(6)))
}

func TestPaperAveragesUpOnRepeatBuys(t *testing.T) {
	quotes := []float64{100, 200}
	i := 0
	quoter := func(ctx context.Context, ticker string) (decimal.Decimal, error) {
		price := decimal.NewFromFloat(quotes[i])
		i++
		return price, nil
	}

	p := NewPaper(decimal.NewFromInt(10000), quoter, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Buy, Quantity: decimal.NewFromInt(10), Type: Market},
	}))
	require.NoError(t, p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Buy, Quantity: decimal.NewFromInt(10), Type: Market},
	}))

	positions, _ := p.Positions(ctx)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].AveragePrice.Equal(decimal.NewFromInt(150)))
	assert.True(t, positions[0].Quantity.Equal(decimal.NewFromInt(20)))
}

func TestPaperSkipsHoldAndZeroQuantity(t *testing.T) {
	p := NewPaper(decimal.NewFromInt(10000), fixedQuote(100), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Hold, Quantity: decimal.NewFromInt(10), Type: Market},
		{Ticker: "MSFT", Signal: strategy.Buy, Quantity: decimal.Zero, Type: Market},
	}))

	cash, _ := p.Cash(ctx)
	assert.True(t, cash.Equal(decimal.NewFromInt(10000)))

	positions, _ := p.Positions(ctx)
	assert.Empty(t, positions)
}

func TestPaperRejectsOverdraftAndOversell(t *testing.T) {
	p := NewPaper(decimal.NewFromInt(500), fixedQuote(100), zap.NewNop())
	ctx := context.Background()

	err := p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Buy, Quantity: decimal.NewFromInt(10), Type: Market},
	})
	assert.Error(t, err)

	err = p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Sell, Quantity: decimal.NewFromInt(1), Type: Market},
	})
	assert.Error(t, err, "selling with no position must fail")
}

func TestPaperLimitOrderFillsAtLimit(t *testing.T) {
	p := NewPaper(decimal.NewFromInt(10000), fixedQuote(100), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Buy, Quantity: decimal.NewFromInt(10), Type: Limit, LimitPrice: decimal.NewFromInt(95)},
	}))

	cash, _ := p.Cash(ctx)
	assert.True(t, cash.Equal(decimal.NewFromInt(9050)))
}

func TestPaperEquityMarksToQuote(t *testing.T) {
	p := NewPaper(decimal.NewFromInt(10000), fixedQuote(100), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Buy, Quantity: decimal.NewFromInt(10), Type: Market},
	}))

	equity, err := p.Equity(ctx)
	require.NoError(t, err)
	assert.True(t, equity.Equal(decimal.NewFromInt(10000)))
}

func TestPaperClosePositions(t *testing.T) {
	p := NewPaper(decimal.NewFromInt(10000), fixedQuote(100), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.PlaceOrders(ctx, []Order{
		{Ticker: "AAPL", Signal: strategy.Buy, Quantity: decimal.NewFromInt(10), Type: Market},
	}))

	require.NoError(t, p.ClosePositions(ctx, []string{"AAPL", "UNKNOWN"}))

	positions, _ := p.Positions(ctx)
	assert.Empty(t, positions)

	cash, _ := p.Cash(ctx)
	assert.True(t, cash.Equal(decimal.NewFromInt(10000)))
}
