package portfolio

import (
	"github.com/shopspring/decimal"
)

// Direction is the side of an open position.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Position is one open holding as reported by the broker. Exchange,
// CurrentPrice and UnrealizedPNL are filled when the broker reports them.
type Position struct {
	Ticker        string          `json:"ticker"`
	Exchange      string          `json:"exchange,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	AveragePrice  decimal.Decimal `json:"average_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPNL decimal.Decimal `json:"unrealized_pnl"`
	Direction     Direction       `json:"direction"`
}

// CostBasis returns the capital committed to the position at its average
// entry price.
func (p Position) CostBasis() decimal.Decimal {
	return p.AveragePrice.Mul(p.Quantity)
}
