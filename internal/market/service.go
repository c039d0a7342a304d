package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse/internal/provider"
)

// Service is the read side of the market data state: reusable lookups over
// the stored series plus passthroughs to live provider capabilities.
type Service struct {
	sync *Synchronizer
}

// NewService creates a service over the given synchronizer.
func NewService(sync *Synchronizer) *Service {
	return &Service{sync: sync}
}

// LatestBar returns the most recent stored bar for a (provider, ticker) pair.
func (s *Service) LatestBar(providerName, ticker string) (provider.Bar, error) {
	series, ok := s.sync.Series(providerName, ticker)
	if !ok {
		return provider.Bar{}, fmt.Errorf("%s/%s: %w", providerName, ticker, ErrNotFound)
	}

	latest, ok := series.Latest()
	if !ok {
		return provider.Bar{}, fmt.Errorf("%s/%s has no bars: %w", providerName, ticker, ErrNotFound)
	}
	return latest, nil
}

// LatestPrice returns the close of the most recent stored bar.
func (s *Service) LatestPrice(providerName, ticker string) (decimal.Decimal, error) {
	bar, err := s.LatestBar(providerName, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	return bar.Close, nil
}

// BarAt returns the stored bar with the given timestamp.
func (s *Service) BarAt(providerName, ticker string, ts time.Time) (provider.Bar, error) {
	series, ok := s.sync.Series(providerName, ticker)
	if !ok {
		return provider.Bar{}, fmt.Errorf("%s/%s: %w", providerName, ticker, ErrNotFound)
	}

	bar, ok := series.At(ts)
	if !ok {
		return provider.Bar{}, fmt.Errorf("%s/%s has no bar at %s: %w", providerName, ticker, ts, ErrNotFound)
	}
	return bar, nil
}

// Between returns the stored bars within [start, end], newest first.
func (s *Service) Between(providerName, ticker string, start, end time.Time) (provider.BarSeries, error) {
	series, ok := s.sync.Series(providerName, ticker)
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", providerName, ticker, ErrNotFound)
	}
	return series.Between(start, end), nil
}

// RealTimePrice fetches the current price from the named provider.
func (s *Service) RealTimePrice(ctx context.Context, providerName, ticker string) (decimal.Decimal, error) {
	p, ok := s.sync.Provider(providerName)
	if !ok {
		return decimal.Zero, fmt.Errorf("provider %s: %w", providerName, ErrNotFound)
	}
	return p.RealTimePrice(ctx, ticker)
}

// News fetches articles for a ticker from the named provider.
func (s *Service) News(ctx context.Context, providerName, ticker string, from, to time.Time) ([]provider.NewsItem, error) {
	p, ok := s.sync.Provider(providerName)
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", providerName, ErrNotFound)
	}
	return p.News(ctx, ticker, from, to)
}
