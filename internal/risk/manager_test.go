package risk

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/broker"
	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

func newTestManager() *Manager {
	return NewManager(Limits{
		StopLossFraction:       decimal.NewFromFloat(0.05),
		TakeProfitFraction:     decimal.NewFromFloat(0.10),
		MaxExposure:            decimal.NewFromFloat(0.10),
		PositionSizingNotional: decimal.NewFromInt(1000),
	}, zap.NewNop())
}

func stateWith(t *testing.T, equity float64, positions ...portfolio.Position) *portfolio.State {
	t.Helper()
	state := portfolio.NewState(zap.NewNop())
	require.NoError(t, state.Refresh(t.Context(), stubAccount{
		positions: positions,
		equity:    decimal.NewFromFloat(equity),
	}))
	return state
}

type stubAccount struct {
	positions []portfolio.Position
	equity    decimal.Decimal
}

func (s stubAccount) Positions(ctx context.Context) ([]portfolio.Position, error) {
	return s.positions, nil
}

func (s stubAccount) Cash(ctx context.Context) (decimal.Decimal, error) {
	return s.equity, nil
}

func (s stubAccount) Equity(ctx context.Context) (decimal.Decimal, error) {
	return s.equity, nil
}

func heldPosition(ticker string, qty, avg, marketValue float64) portfolio.Position {
	return portfolio.Position{
		Ticker:       ticker,
		Quantity:     decimal.NewFromFloat(qty),
		AveragePrice: decimal.NewFromFloat(avg),
		MarketValue:  decimal.NewFromFloat(marketValue),
		Direction:    portfolio.Long,
	}
}

func TestCheckStopLoss(t *testing.T) {
	m := newTestManager()

	// quantity=10, avg=100, fraction=0.05 -> threshold 950.
	flagged := m.CheckStopLoss(stateWith(t, 10000, heldPosition("AAPL", 10, 100, 940)))
	assert.Equal(t, []string{"AAPL"}, flagged)

	flagged = m.CheckStopLoss(stateWith(t, 10000, heldPosition("AAPL", 10, 100, 960)))
	assert.Empty(t, flagged)

	flagged = m.CheckStopLoss(stateWith(t, 10000, heldPosition("AAPL", 10, 100, 950)))
	assert.Empty(t, flagged, "the threshold itself must not trigger")
}

func TestCheckTakeProfit(t *testing.T) {
	m := newTestManager()

	// quantity=10, avg=100, fraction=0.10 -> threshold 1100.
	flagged := m.CheckTakeProfit(stateWith(t, 10000, heldPosition("AAPL", 10, 100, 1100)))
	assert.Equal(t, []string{"AAPL"}, flagged, "the boundary is inclusive")

	flagged = m.CheckTakeProfit(stateWith(t, 10000, heldPosition("AAPL", 10, 100, 1099.99)))
	assert.Empty(t, flagged)
}

func TestCheckMaxExposure(t *testing.T) {
	m := newTestManager()
	state := stateWith(t, 100000)

	orders := []broker.Order{
		{Ticker: "X", Signal: strategy.Buy, Quantity: decimal.NewFromInt(90)},
		{Ticker: "Y", Signal: strategy.Buy, Quantity: decimal.NewFromInt(110)},
	}
	prices := map[string]decimal.Decimal{
		"X": decimal.NewFromInt(100),
		"Y": decimal.NewFromInt(100),
	}

	approved, err := m.CheckMaxExposure(state, orders, prices)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "X", approved[0].Ticker, "9000/100000 passes, 11000/100000 is dropped")
}

func TestCheckMaxExposureCountsExistingPosition(t *testing.T) {
	m := newTestManager()
	state := stateWith(t, 100000, heldPosition("X", 50, 100, 5000))

	orders := []broker.Order{
		{Ticker: "X", Signal: strategy.Buy, Quantity: decimal.NewFromInt(60)},
	}
	prices := map[string]decimal.Decimal{"X": decimal.NewFromInt(100)}

	// 5000 held + 6000 new = 11000 over the 10000 budget.
	approved, err := m.CheckMaxExposure(state, orders, prices)
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestCheckMaxExposureGatesSells(t *testing.T) {
	m := newTestManager()

	// The gate applies to every candidate order regardless of side. A sell
	// against a position already at half of equity is over the 10% budget.
	state := stateWith(t, 100000, heldPosition("X", 500, 100, 50000))
	orders := []broker.Order{
		{Ticker: "X", Signal: strategy.Sell, Quantity: decimal.NewFromInt(10)},
	}
	prices := map[string]decimal.Decimal{"X": decimal.NewFromInt(100)}

	approved, err := m.CheckMaxExposure(state, orders, prices)
	require.NoError(t, err)
	assert.Empty(t, approved)

	// A sell on an untracked ticker is gated on its own order value.
	state = stateWith(t, 100000)
	orders = []broker.Order{
		{Ticker: "X", Signal: strategy.Sell, Quantity: decimal.NewFromInt(50)},
	}
	approved, err = m.CheckMaxExposure(state, orders, prices)
	require.NoError(t, err)
	assert.Len(t, approved, 1, "5000/100000 stays under the budget")
}

func TestCheckMaxExposureZeroEquity(t *testing.T) {
	m := newTestManager()
	state := stateWith(t, 0)

	_, err := m.CheckMaxExposure(state, []broker.Order{
		{Ticker: "X", Signal: strategy.Buy, Quantity: decimal.NewFromInt(1)},
	}, map[string]decimal.Decimal{"X": decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUnitsToTrade(t *testing.T) {
	m := newTestManager()

	units, err := m.UnitsToTrade(decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, units.Equal(decimal.NewFromInt(20)), "1000 notional at price 50 buys 20 units")

	units, err = m.UnitsToTrade(decimal.NewFromInt(400))
	require.NoError(t, err)
	assert.True(t, units.Equal(decimal.NewFromFloat(2.5)), "fractional units are allowed")

	_, err = m.UnitsToTrade(decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidState)
}
