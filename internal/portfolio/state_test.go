package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAccount struct {
	positions []Position
	cash      decimal.Decimal
	equity    decimal.Decimal
	err       error
}

func (f *fakeAccount) Positions(ctx context.Context) ([]Position, error) {
	return f.positions, f.err
}

func (f *fakeAccount) Cash(ctx context.Context) (decimal.Decimal, error) {
	return f.cash, f.err
}

func (f *fakeAccount) Equity(ctx context.Context) (decimal.Decimal, error) {
	return f.equity, f.err
}

func position(ticker string, qty, avg float64) Position {
	return Position{
		Ticker:       ticker,
		Quantity:     decimal.NewFromFloat(qty),
		AveragePrice: decimal.NewFromFloat(avg),
		MarketValue:  decimal.NewFromFloat(qty * avg),
		Direction:    Long,
	}
}

func TestRefreshReplacesWholesale(t *testing.T) {
	state := NewState(zap.NewNop())

	// A local entry the broker does not know about.
	state.Set(position("GHOST", 5, 10))

	account := &fakeAccount{
		positions: []Position{position("AAPL", 10, 100)},
		cash:      decimal.NewFromInt(5000),
		equity:    decimal.NewFromInt(6000),
	}
	require.NoError(t, state.Refresh(context.Background(), account))

	assert.False(t, state.Exists("GHOST"), "stale local entries must be dropped")
	assert.True(t, state.Exists("AAPL"))
	assert.True(t, state.Cash().Equal(decimal.NewFromInt(5000)))
	assert.True(t, state.Equity().Equal(decimal.NewFromInt(6000)))
}

func TestRefreshFailureLeavesStateUntouched(t *testing.T) {
	state := NewState(zap.NewNop())
	require.NoError(t, state.Refresh(context.Background(), &fakeAccount{
		positions: []Position{position("AAPL", 10, 100)},
		cash:      decimal.NewFromInt(5000),
		equity:    decimal.NewFromInt(6000),
	}))

	err := state.Refresh(context.Background(), &fakeAccount{err: errors.New("broker down")})
	require.Error(t, err)

	assert.True(t, state.Exists("AAPL"))
	assert.True(t, state.Cash().Equal(decimal.NewFromInt(5000)))
}

func TestGetNotFound(t *testing.T) {
	state := NewState(zap.NewNop())

	_, err := state.Get("AAPL")
	assert.ErrorIs(t, err, ErrNotFound)

	state.Set(position("AAPL", 10, 100))
	pos, err := state.Get("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", pos.Ticker)

	state.Remove("AAPL")
	_, err = state.Get("AAPL")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCostBasis(t *testing.T) {
	pos := position("AAPL", 10, 100)
	assert.True(t, pos.CostBasis().Equal(decimal.NewFromInt(1000)))
}
