// Package provider defines the capability contract for market data vendors
// and the connectors that implement it. Every vendor exposes the full
// capability set; operations a vendor does not offer fail with ErrUnsupported
// so callers can tell "no data" from "not offered".
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnsupported marks a capability a vendor does not offer at all.
	ErrUnsupported = errors.New("capability not supported by provider")

	// ErrUnsupportedConfiguration marks an interval/horizon combination a
	// vendor cannot serve, e.g. intraday history older than its window.
	ErrUnsupportedConfiguration = errors.New("interval/horizon configuration not servable")
)

// NewsItem is one article returned by a vendor news feed.
type NewsItem struct {
	Symbol      string    `json:"symbol"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   float64   `json:"sentiment,omitempty"`
}

// IndicatorValue is one point of a technical indicator series.
type IndicatorValue struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
}

// Profile is the company descriptor behind a listed symbol.
type Profile struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Exchange    string `json:"exchange"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`
}

// Provider is the uniform vendor contract consumed by the market data
// synchronizer and the strategies.
type Provider interface {
	// Name returns the vendor identifier used as the series map key.
	Name() string

	// HistoricalPrices fetches bars for [start, end] at the given interval.
	// Timestamps in the result are localized to loc. Fails with
	// ErrUnsupportedConfiguration when the vendor cannot serve the
	// interval/horizon combination.
	HistoricalPrices(ctx context.Context, symbol string, interval Period, start, end time.Time, loc *time.Location) (BarSeries, error)

	// IntradayPrices fetches the most recent points bars at the given interval.
	IntradayPrices(ctx context.Context, symbol string, interval Period, points int, loc *time.Location) (BarSeries, error)

	// RealTimePrice fetches the current price for a symbol.
	RealTimePrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	// News fetches articles for a symbol in [from, to].
	News(ctx context.Context, symbol string, from, to time.Time) ([]NewsItem, error)

	// CryptoPrices fetches cryptocurrency bars, e.g. for "BTC/USD".
	CryptoPrices(ctx context.Context, symbol string, interval Period) (BarSeries, error)

	// ForexPrices fetches currency pair bars, e.g. for "EUR/USD".
	ForexPrices(ctx context.Context, pair string, interval Period) (BarSeries, error)

	// TechnicalIndicator fetches an indicator series (sma, ema, rsi, ...).
	TechnicalIndicator(ctx context.Context, symbol, indicator string, interval Period) ([]IndicatorValue, error)

	// CompanyProfile fetches the company descriptor for a symbol.
	CompanyProfile(ctx context.Context, symbol string) (Profile, error)

	// Sentiment fetches an aggregate sentiment score for a symbol.
	Sentiment(ctx context.Context, symbol string) (float64, error)
}
