package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

const yahooName = "yahoo"

// Yahoo is the Yahoo Finance connector, backed by the finance-go chart and
// quote clients. It serves price and company profile data; news, sentiment,
// crypto, forex and indicators are not offered through this connector.
type Yahoo struct {
	cache *Cache
}

// NewYahoo creates a Yahoo Finance connector. cache may be nil.
func NewYahoo(cache *Cache) *Yahoo {
	return &Yahoo{cache: cache}
}

// Name implements Provider.
func (y *Yahoo) Name() string { return yahooName }

// yahooInterval maps a Period onto the chart API's interval set.
func yahooInterval(p Period) (datetime.Interval, error) {
	switch p.String() {
	case "1min":
		return datetime.OneMin, nil
	case "5min":
		return datetime.FiveMins, nil
	case "15min":
		return datetime.FifteenMins, nil
	case "30min":
		return datetime.ThirtyMins, nil
	case "1h":
		return datetime.OneHour, nil
	case "1d":
		return datetime.OneDay, nil
	default:
		return "", fmt.Errorf("yahoo interval %s: %w", p, ErrUnsupportedConfiguration)
	}
}

// HistoricalPrices implements Provider.
func (y *Yahoo) HistoricalPrices(ctx context.Context, symbol string, interval Period, start, end time.Time, loc *time.Location) (BarSeries, error) {
	chartInterval, err := yahooInterval(interval)
	if err != nil {
		return nil, err
	}

	cacheKey := map[string]string{
		"symbol":   symbol,
		"interval": string(chartInterval),
		"start":    start.Format(time.RFC3339),
		"end":      end.Format(time.RFC3339),
	}
	var cached BarSeries
	if y.cache.Get(yahooName, "chart", cacheKey, &cached) {
		return cached, nil
	}

	if loc == nil {
		loc = time.UTC
	}

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: chartInterval,
	}
	params.Context = &ctx

	iter := chart.Get(params)

	bars := make([]Bar, 0)
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, Bar{
			Timestamp: time.Unix(int64(b.Timestamp), 0).In(loc),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart for %s: %w", symbol, err)
	}

	series := NewBarSeries(bars)
	y.cache.Set(yahooName, "chart", cacheKey, series)
	return series, nil
}

// IntradayPrices implements Provider. The chart API takes a window rather
// than a point count, so the window is derived from points and the interval.
func (y *Yahoo) IntradayPrices(ctx context.Context, symbol string, interval Period, points int, loc *time.Location) (BarSeries, error) {
	end := time.Now()
	start := end.Add(-time.Duration(points) * interval.Duration())

	series, err := y.HistoricalPrices(ctx, symbol, interval, start, end, loc)
	if err != nil {
		return nil, err
	}
	if len(series) > points {
		series = series[:points]
	}
	return series, nil
}

// RealTimePrice implements Provider.
func (y *Yahoo) RealTimePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("yahoo quote for %s: %w", symbol, err)
	}
	if q == nil {
		return decimal.Zero, fmt.Errorf("yahoo quote for %s: no quote returned", symbol)
	}
	return decimal.NewFromFloat(q.RegularMarketPrice), nil
}

// News implements Provider. Yahoo has no news feed through this connector.
func (y *Yahoo) News(ctx context.Context, symbol string, from, to time.Time) ([]NewsItem, error) {
	return nil, fmt.Errorf("yahoo news: %w", ErrUnsupported)
}

// Sentiment implements Provider.
func (y *Yahoo) Sentiment(ctx context.Context, symbol string) (float64, error) {
	return 0, fmt.Errorf("yahoo sentiment: %w", ErrUnsupported)
}

// CryptoPrices implements Provider.
func (y *Yahoo) CryptoPrices(ctx context.Context, symbol string, interval Period) (BarSeries, error) {
	return nil, fmt.Errorf("yahoo crypto prices: %w", ErrUnsupported)
}

// ForexPrices implements Provider.
func (y *Yahoo) ForexPrices(ctx context.Context, pair string, interval Period) (BarSeries, error) {
	return nil, fmt.Errorf("yahoo forex prices: %w", ErrUnsupported)
}

// TechnicalIndicator implements Provider.
func (y *Yahoo) TechnicalIndicator(ctx context.Context, symbol, indicator string, interval Period) ([]IndicatorValue, error) {
	return nil, fmt.Errorf("yahoo technical indicators: %w", ErrUnsupported)
}

// CompanyProfile implements Provider, built from the quote descriptor fields.
func (y *Yahoo) CompanyProfile(ctx context.Context, symbol string) (Profile, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return Profile{}, fmt.Errorf("yahoo quote for %s: %w", symbol, err)
	}
	if q == nil {
		return Profile{}, fmt.Errorf("yahoo quote for %s: no quote returned", symbol)
	}

	return Profile{
		Symbol:   q.Symbol,
		Name:     q.ShortName,
		Exchange: q.FullExchangeName,
	}, nil
}
