// Package strategy turns market data into trading signals. A strategy emits
// one signal per ticker each cycle; it never talks to the broker.
package strategy

import (
	"context"
)

// Signal is a trading decision for one ticker.
type Signal string

const (
	Buy  Signal = "BUY"
	Sell Signal = "SELL"
	Hold Signal = "HOLD"
)

// Strategy produces one signal per requested ticker.
type Strategy interface {
	Name() string
	GenerateSignals(ctx context.Context, tickers []string) (map[string]Signal, error)
}
