// Package broker is the execution boundary: order submission and account
// queries against a brokerage. The live connector talks to Longport; the
// paper broker simulates fills locally for dry runs.
package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

// OrderType selects how an order prices its fill.
type OrderType string

const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
)

// Order is one instruction derived from a strategy signal. Hold signals and
// non-positive quantities are dropped at submission, not rejected.
type Order struct {
	Ticker     string
	Signal     strategy.Signal
	Quantity   decimal.Decimal
	Type       OrderType
	LimitPrice decimal.Decimal
}

// Broker executes orders and reports account state. Positions, Cash and
// Equity satisfy portfolio.AccountSource.
type Broker interface {
	Name() string
	Positions(ctx context.Context) ([]portfolio.Position, error)
	Cash(ctx context.Context) (decimal.Decimal, error)
	Equity(ctx context.Context) (decimal.Decimal, error)
	PlaceOrders(ctx context.Context, orders []Order) error
	ClosePositions(ctx context.Context, tickers []string) error
}
