// Package risk applies the account protection rules: stop loss, take profit,
// exposure budgeting and position sizing. All checks read the portfolio
// snapshot; none of them touch the broker.
package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/broker"
	"github.com/tradepulse/tradepulse/internal/portfolio"
)

// ErrInvalidState marks an account snapshot the rules cannot be applied to,
// such as zero equity.
var ErrInvalidState = errors.New("account state invalid for risk evaluation")

// Limits holds the rule parameters.
type Limits struct {
	// StopLossFraction is the loss fraction of cost basis at which a
	// position is cut.
	StopLossFraction decimal.Decimal
	// TakeProfitFraction is the gain fraction of cost basis at which
	// profits are taken.
	TakeProfitFraction decimal.Decimal
	// MaxExposure caps the per-ticker share of equity new orders may reach.
	MaxExposure decimal.Decimal
	// PositionSizingNotional is the cash value one new position targets.
	PositionSizingNotional decimal.Decimal
}

// Manager evaluates the rules against a portfolio snapshot.
type Manager struct {
	limits Limits
	log    *zap.Logger
}

// NewManager creates a risk manager with the given limits.
func NewManager(limits Limits, log *zap.Logger) *Manager {
	return &Manager{limits: limits, log: log}
}

// CheckStopLoss returns the tickers whose market value has fallen below the
// stop loss threshold, cost basis scaled down by the configured fraction.
func (m *Manager) CheckStopLoss(state *portfolio.State) []string {
	factor := decimal.NewFromInt(1).Sub(m.limits.StopLossFraction)

	var flagged []string
	for _, ticker := range state.Tickers() {
		pos, err := state.Get(ticker)
		if err != nil {
			continue
		}

		threshold := pos.CostBasis().Mul(factor)
		if pos.MarketValue.LessThan(threshold) {
			flagged = append(flagged, ticker)
			m.log.Info("stop loss triggered",
				zap.String("ticker", ticker),
				zap.String("market_value", pos.MarketValue.String()),
				zap.String("threshold", threshold.String()))
		}
	}
	return flagged
}

// CheckTakeProfit returns the tickers whose market value has reached the take
// profit threshold, cost basis scaled up by the configured fraction. The
// boundary itself triggers.
func (m *Manager) CheckTakeProfit(state *portfolio.State) []string {
	factor := decimal.NewFromInt(1).Add(m.limits.TakeProfitFraction)

	var flagged []string
	for _, ticker := range state.Tickers() {
		pos, err := state.Get(ticker)
		if err != nil {
			continue
		}

		threshold := pos.CostBasis().Mul(factor)
		if pos.MarketValue.GreaterThanOrEqual(threshold) {
			flagged = append(flagged, ticker)
			m.log.Info("take profit triggered",
				zap.String("ticker", ticker),
				zap.String("market_value", pos.MarketValue.String()),
				zap.String("threshold", threshold.String()))
		}
	}
	return flagged
}

// CheckMaxExposure filters orders against the exposure budget using the given
// prices. An order on a new ticker passes when its value stays under
// MaxExposure of equity; an order on a ticker already held counts the held
// market value too. Every candidate order is gated regardless of side.
// Orders over budget are dropped, not failed; the approved orders come back
// in evaluation order.
func (m *Manager) CheckMaxExposure(state *portfolio.State, orders []broker.Order, prices map[string]decimal.Decimal) ([]broker.Order, error) {
	equity := state.Equity()
	if !equity.IsPositive() {
		return nil, fmt.Errorf("equity %s: %w", equity, ErrInvalidState)
	}

	allowed := make([]broker.Order, 0, len(orders))
	for _, order := range orders {
		price, ok := prices[order.Ticker]
		if !ok {
			return nil, fmt.Errorf("no price for %s: %w", order.Ticker, ErrInvalidState)
		}

		exposure := order.Quantity.Mul(price)
		if pos, err := state.Get(order.Ticker); err == nil {
			exposure = exposure.Add(pos.MarketValue)
		}

		if exposure.Div(equity).GreaterThanOrEqual(m.limits.MaxExposure) {
			m.log.Warn("order dropped, exposure over budget",
				zap.String("ticker", order.Ticker),
				zap.String("exposure", exposure.String()),
				zap.String("equity", equity.String()))
			continue
		}
		allowed = append(allowed, order)
	}
	return allowed, nil
}

// UnitsToTrade sizes a new position: the sizing notional divided by the
// price. Fractional units are kept; the broker rounds if its venue requires
// whole shares.
func (m *Manager) UnitsToTrade(price decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price %s: %w", price, ErrInvalidState)
	}
	return m.limits.PositionSizingNotional.Div(price), nil
}
