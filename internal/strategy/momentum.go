package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/market"
)

// Momentum buys strength and sells weakness within the session: a ticker
// trading above its session open gets a buy, below it a sell, flat a hold.
type Momentum struct {
	svc          *market.Service
	providerName string
	log          *zap.Logger
}

// NewMomentum creates a momentum strategy reading prices from the named
// provider.
func NewMomentum(svc *market.Service, providerName string, log *zap.Logger) *Momentum {
	return &Momentum{svc: svc, providerName: providerName, log: log}
}

// Name implements Strategy.
func (m *Momentum) Name() string { return "momentum" }

// GenerateSignals implements Strategy. Every ticker gets a signal; a single
// failed lookup fails the whole batch.
func (m *Momentum) GenerateSignals(ctx context.Context, tickers []string) (map[string]Signal, error) {
	signals := make(map[string]Signal, len(tickers))

	for _, ticker := range tickers {
		bar, err := m.svc.LatestBar(m.providerName, ticker)
		if err != nil {
			return nil, fmt.Errorf("momentum %s: %w", ticker, err)
		}

		price, err := m.svc.RealTimePrice(ctx, m.providerName, ticker)
		if err != nil {
			return nil, fmt.Errorf("momentum %s: %w", ticker, err)
		}

		signal := Hold
		switch {
		case price.GreaterThan(bar.Open):
			signal = Buy
		case price.LessThan(bar.Open):
			signal = Sell
		}
		signals[ticker] = signal

		m.log.Debug("momentum signal",
			zap.String("ticker", ticker),
			zap.String("open", bar.Open.String()),
			zap.String("price", price.String()),
			zap.String("signal", string(signal)))
	}

	return signals, nil
}
