// Package portfolio mirrors the broker's view of the account: open positions,
// free cash and total equity. The broker remains the source of truth; the
// state here is a snapshot, replaced wholesale on every refresh.
package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNotFound marks a lookup of a ticker with no open position.
var ErrNotFound = errors.New("no open position for ticker")

// AccountSource is the slice of a broker the portfolio state refreshes from.
type AccountSource interface {
	Positions(ctx context.Context) ([]Position, error)
	Cash(ctx context.Context) (decimal.Decimal, error)
	Equity(ctx context.Context) (decimal.Decimal, error)
}

// State is the local snapshot of the brokerage account. It is confined to the
// control loop goroutine and needs no locking.
type State struct {
	positions map[string]Position
	cash      decimal.Decimal
	equity    decimal.Decimal

	log *zap.Logger
}

// NewState creates an empty portfolio state.
func NewState(log *zap.Logger) *State {
	return &State{
		positions: make(map[string]Position),
		log:       log,
	}
}

// Refresh replaces the whole snapshot with the broker's current view. Local
// entries with no broker counterpart are dropped; a partial failure leaves
// the previous snapshot untouched.
func (s *State) Refresh(ctx context.Context, source AccountSource) error {
	positions, err := source.Positions(ctx)
	if err != nil {
		return fmt.Errorf("refresh positions: %w", err)
	}
	cash, err := source.Cash(ctx)
	if err != nil {
		return fmt.Errorf("refresh cash: %w", err)
	}
	equity, err := source.Equity(ctx)
	if err != nil {
		return fmt.Errorf("refresh equity: %w", err)
	}

	next := make(map[string]Position, len(positions))
	for _, p := range positions {
		next[p.Ticker] = p
	}

	s.positions = next
	s.cash = cash
	s.equity = equity

	s.log.Debug("portfolio state refreshed",
		zap.Int("positions", len(next)),
		zap.String("cash", cash.String()),
		zap.String("equity", equity.String()))
	return nil
}

// Exists reports whether an open position is held for ticker.
func (s *State) Exists(ticker string) bool {
	_, ok := s.positions[ticker]
	return ok
}

// Get returns the open position for ticker.
func (s *State) Get(ticker string) (Position, error) {
	p, ok := s.positions[ticker]
	if !ok {
		return Position{}, fmt.Errorf("%s: %w", ticker, ErrNotFound)
	}
	return p, nil
}

// Set stores or replaces the position for its ticker.
func (s *State) Set(p Position) {
	s.positions[p.Ticker] = p
}

// Remove drops the position for ticker, if any.
func (s *State) Remove(ticker string) {
	delete(s.positions, ticker)
}

// Tickers returns the tickers with open positions.
func (s *State) Tickers() []string {
	out := make([]string, 0, len(s.positions))
	for ticker := range s.positions {
		out = append(out, ticker)
	}
	return out
}

// Cash returns the free cash balance from the last refresh.
func (s *State) Cash() decimal.Decimal { return s.cash }

// Equity returns the total account equity from the last refresh.
func (s *State) Equity() decimal.Decimal { return s.equity }
