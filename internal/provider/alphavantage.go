package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const alphaVantageName = "alpha_vantage"

// alphaVantageIntradayWindow is how far back the vendor keeps intraday bars.
const alphaVantageIntradayWindow = 30 * 24 * time.Hour

// AlphaVantage is the Alpha Vantage connector. It serves historical,
// intraday, real-time, crypto, forex, technical indicator, news, sentiment
// and company profile data.
type AlphaVantage struct {
	client *resty.Client
	cache  *Cache
	apiKey string
}

// NewAlphaVantage creates an Alpha Vantage connector. cache may be nil.
func NewAlphaVantage(apiKey string, cache *Cache) *AlphaVantage {
	client := resty.New()
	client.SetBaseURL("https://www.alphavantage.co")
	client.SetTimeout(30 * time.Second)

	return &AlphaVantage{
		client: client,
		cache:  cache,
		apiKey: apiKey,
	}
}

// Name implements Provider.
func (av *AlphaVantage) Name() string { return alphaVantageName }

// HistoricalPrices implements Provider. Intraday intervals are limited to the
// vendor's trailing window; daily data must be requested as 1d/1w/1M.
func (av *AlphaVantage) HistoricalPrices(ctx context.Context, symbol string, interval Period, start, end time.Time, loc *time.Location) (BarSeries, error) {
	params := map[string]string{"symbol": symbol}

	switch {
	case interval.Intraday():
		if end.Sub(start) > alphaVantageIntradayWindow {
			return nil, fmt.Errorf("alpha_vantage intraday history for %s limited to %s: %w",
				symbol, alphaVantageIntradayWindow, ErrUnsupportedConfiguration)
		}
		params["function"] = "TIME_SERIES_INTRADAY"
		params["interval"] = avInterval(interval)
		params["outputsize"] = "full"
	case interval.Units != 1:
		return nil, fmt.Errorf("alpha_vantage daily data only servable as 1d/1w/1M, got %s: %w",
			interval, ErrUnsupportedConfiguration)
	case interval.Unit == UnitDay:
		params["function"] = "TIME_SERIES_DAILY"
		params["outputsize"] = "full"
	case interval.Unit == UnitWeek:
		params["function"] = "TIME_SERIES_WEEKLY"
	case interval.Unit == UnitMonth:
		params["function"] = "TIME_SERIES_MONTHLY"
	default:
		return nil, fmt.Errorf("alpha_vantage interval %s: %w", interval, ErrUnsupportedConfiguration)
	}

	series, err := av.timeSeries(ctx, params, loc)
	if err != nil {
		return nil, err
	}
	return series.Between(start, end), nil
}

// IntradayPrices implements Provider.
func (av *AlphaVantage) IntradayPrices(ctx context.Context, symbol string, interval Period, points int, loc *time.Location) (BarSeries, error) {
	if !interval.Intraday() {
		return nil, fmt.Errorf("alpha_vantage intraday interval %s: %w", interval, ErrUnsupportedConfiguration)
	}

	outputsize := "compact"
	if points > 100 {
		outputsize = "full"
	}

	series, err := av.timeSeries(ctx, map[string]string{
		"function":   "TIME_SERIES_INTRADAY",
		"symbol":     symbol,
		"interval":   avInterval(interval),
		"outputsize": outputsize,
	}, loc)
	if err != nil {
		return nil, err
	}

	if len(series) > points {
		series = series[:points]
	}
	return series, nil
}

// avInterval converts a Period into the vendor's intraday interval notation.
func avInterval(p Period) string {
	if p.Unit == UnitHour {
		return fmt.Sprintf("%dmin", p.Units*60)
	}
	return fmt.Sprintf("%dmin", p.Units)
}

func (av *AlphaVantage) timeSeries(ctx context.Context, params map[string]string, loc *time.Location) (BarSeries, error) {
	var cached BarSeries
	if av.cache.Get(alphaVantageName, params["function"], params, &cached) {
		return cached, nil
	}

	raw, err := av.query(ctx, params)
	if err != nil {
		return nil, err
	}

	entries, err := avSeriesEntries(raw)
	if err != nil {
		return nil, fmt.Errorf("alpha_vantage %s for %s: %w", params["function"], params["symbol"], err)
	}

	if loc == nil {
		loc = time.UTC
	}

	bars := make([]Bar, 0, len(entries))
	for stamp, fields := range entries {
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", stamp, loc)
		if err != nil {
			ts, err = time.ParseInLocation("2006-01-02", stamp, loc)
			if err != nil {
				return nil, fmt.Errorf("alpha_vantage timestamp %q: %w", stamp, err)
			}
		}

		bar, err := avBar(ts, fields)
		if err != nil {
			return nil, fmt.Errorf("alpha_vantage bar at %s: %w", stamp, err)
		}
		bars = append(bars, bar)
	}

	series := NewBarSeries(bars)
	av.cache.Set(alphaVantageName, params["function"], params, series)
	return series, nil
}

// query issues a request against /query and surfaces vendor-reported errors.
func (av *AlphaVantage) query(ctx context.Context, params map[string]string) (map[string]json.RawMessage, error) {
	merged := make(map[string]string, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	merged["apikey"] = av.apiKey

	resp, err := av.client.R().
		SetContext(ctx).
		SetQueryParams(merged).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("alpha_vantage %s: %w", params["function"], err)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("alpha_vantage %s response: %w", params["function"], err)
	}

	for _, key := range []string{"Error Message", "Information", "Note"} {
		if raw, ok := body[key]; ok {
			var msg string
			json.Unmarshal(raw, &msg)
			return nil, fmt.Errorf("alpha_vantage %s: %s", params["function"], msg)
		}
	}
	return body, nil
}

// avSeriesEntries finds the series object in a response body; the vendor keys
// it by function, e.g. "Time Series (5min)" or "Weekly Time Series".
func avSeriesEntries(body map[string]json.RawMessage) (map[string]map[string]string, error) {
	for key, raw := range body {
		if !strings.Contains(key, "Time Series") {
			continue
		}
		var entries map[string]map[string]string
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("series %q: %w", key, err)
		}
		return entries, nil
	}
	return nil, fmt.Errorf("no time series object in response")
}

// avBar builds a bar from the vendor's numbered field names. Crypto and forex
// series omit volume.
func avBar(ts time.Time, fields map[string]string) (Bar, error) {
	pick := func(names ...string) (decimal.Decimal, error) {
		for _, name := range names {
			if raw, ok := fields[name]; ok {
				return decimal.NewFromString(raw)
			}
		}
		return decimal.Zero, fmt.Errorf("missing field %q", names[0])
	}

	open, err := pick("1. open", "1a. open (USD)")
	if err != nil {
		return Bar{}, err
	}
	high, err := pick("2. high", "2a. high (USD)")
	if err != nil {
		return Bar{}, err
	}
	low, err := pick("3. low", "3a. low (USD)")
	if err != nil {
		return Bar{}, err
	}
	closePx, err := pick("4. close", "4a. close (USD)")
	if err != nil {
		return Bar{}, err
	}

	var volume int64
	if raw, ok := fields["5. volume"]; ok {
		vol, err := decimal.NewFromString(raw)
		if err != nil {
			return Bar{}, fmt.Errorf("parse volume %q: %w", raw, err)
		}
		volume = vol.IntPart()
	}

	return Bar{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePx,
		Volume:    volume,
	}, nil
}

// RealTimePrice implements Provider.
func (av *AlphaVantage) RealTimePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	body, err := av.query(ctx, map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
	})
	if err != nil {
		return decimal.Zero, err
	}

	raw, ok := body["Global Quote"]
	if !ok {
		return decimal.Zero, fmt.Errorf("alpha_vantage quote for %s: no quote object", symbol)
	}

	var quote map[string]string
	if err := json.Unmarshal(raw, &quote); err != nil {
		return decimal.Zero, fmt.Errorf("alpha_vantage quote for %s: %w", symbol, err)
	}

	price, err := decimal.NewFromString(quote["05. price"])
	if err != nil {
		return decimal.Zero, fmt.Errorf("alpha_vantage price %q for %s: %w", quote["05. price"], symbol, err)
	}
	return price, nil
}

type avFeedItem struct {
	Title                 string  `json:"title"`
	URL                   string  `json:"url"`
	TimePublished         string  `json:"time_published"`
	Summary               string  `json:"summary"`
	Source                string  `json:"source"`
	OverallSentimentScore float64 `json:"overall_sentiment_score"`
}

// News implements Provider, backed by the vendor's news & sentiment feed.
func (av *AlphaVantage) News(ctx context.Context, symbol string, from, to time.Time) ([]NewsItem, error) {
	params := map[string]string{
		"function": "NEWS_SENTIMENT",
		"tickers":  symbol,
		"sort":     "LATEST",
		"limit":    "200",
	}
	if !from.IsZero() {
		params["time_from"] = from.UTC().Format("20060102T1504")
	}
	if !to.IsZero() {
		params["time_to"] = to.UTC().Format("20060102T1504")
	}

	var cached []NewsItem
	if av.cache.Get(alphaVantageName, "news", params, &cached) {
		return cached, nil
	}

	body, err := av.query(ctx, params)
	if err != nil {
		return nil, err
	}

	raw, ok := body["feed"]
	if !ok {
		return nil, fmt.Errorf("alpha_vantage news for %s: no feed object", symbol)
	}

	var feed []avFeedItem
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("alpha_vantage news for %s: %w", symbol, err)
	}

	items := make([]NewsItem, 0, len(feed))
	for _, f := range feed {
		published, err := time.Parse("20060102T150405", f.TimePublished)
		if err != nil {
			published = time.Time{}
		}
		items = append(items, NewsItem{
			Symbol:      symbol,
			Title:       f.Title,
			Summary:     f.Summary,
			Source:      f.Source,
			URL:         f.URL,
			PublishedAt: published,
			Sentiment:   f.OverallSentimentScore,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	av.cache.Set(alphaVantageName, "news", params, items)
	return items, nil
}

// Sentiment implements Provider: the mean article score over the last week.
func (av *AlphaVantage) Sentiment(ctx context.Context, symbol string) (float64, error) {
	now := time.Now().UTC()
	items, err := av.News(ctx, symbol, now.AddDate(0, 0, -7), now)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	var total float64
	for _, item := range items {
		total += item.Sentiment
	}
	return total / float64(len(items)), nil
}

// CompanyProfile implements Provider, backed by the vendor's OVERVIEW
// function.
func (av *AlphaVantage) CompanyProfile(ctx context.Context, symbol string) (Profile, error) {
	params := map[string]string{
		"function": "OVERVIEW",
		"symbol":   symbol,
	}

	var cached Profile
	if av.cache.Get(alphaVantageName, "overview", params, &cached) {
		return cached, nil
	}

	body, err := av.query(ctx, params)
	if err != nil {
		return Profile{}, err
	}

	field := func(key string) string {
		var s string
		if raw, ok := body[key]; ok {
			json.Unmarshal(raw, &s)
		}
		return s
	}

	if field("Symbol") == "" {
		return Profile{}, fmt.Errorf("alpha_vantage overview for %s: no company data", symbol)
	}

	profile := Profile{
		Symbol:      field("Symbol"),
		Name:        field("Name"),
		Exchange:    field("Exchange"),
		Sector:      field("Sector"),
		Industry:    field("Industry"),
		Description: field("Description"),
	}
	av.cache.Set(alphaVantageName, "overview", params, profile)
	return profile, nil
}

// CryptoPrices implements Provider.
func (av *AlphaVantage) CryptoPrices(ctx context.Context, symbol string, interval Period) (BarSeries, error) {
	base, market := symbol, "USD"
	if parts := strings.SplitN(symbol, "/", 2); len(parts) == 2 {
		base, market = parts[0], parts[1]
	}

	return av.timeSeries(ctx, map[string]string{
		"function": "DIGITAL_CURRENCY_DAILY",
		"symbol":   base,
		"market":   market,
	}, time.UTC)
}

// ForexPrices implements Provider.
func (av *AlphaVantage) ForexPrices(ctx context.Context, pair string, interval Period) (BarSeries, error) {
	parts := strings.SplitN(pair, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("alpha_vantage forex pair %q: want BASE/QUOTE", pair)
	}

	return av.timeSeries(ctx, map[string]string{
		"function":    "FX_INTRADAY",
		"from_symbol": parts[0],
		"to_symbol":   parts[1],
		"interval":    avInterval(interval),
	}, time.UTC)
}

// TechnicalIndicator implements Provider.
func (av *AlphaVantage) TechnicalIndicator(ctx context.Context, symbol, indicator string, interval Period) ([]IndicatorValue, error) {
	indicator = strings.ToUpper(indicator)

	body, err := av.query(ctx, map[string]string{
		"function":    indicator,
		"symbol":      symbol,
		"interval":    avInterval(interval),
		"time_period": "20",
		"series_type": "close",
	})
	if err != nil {
		return nil, err
	}

	raw, ok := body["Technical Analysis: "+indicator]
	if !ok {
		return nil, fmt.Errorf("alpha_vantage %s for %s: no analysis object", indicator, symbol)
	}

	var entries map[string]map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("alpha_vantage %s for %s: %w", indicator, symbol, err)
	}

	out := make([]IndicatorValue, 0, len(entries))
	for stamp, fields := range entries {
		ts, err := time.Parse("2006-01-02 15:04:05", stamp)
		if err != nil {
			ts, err = time.Parse("2006-01-02", stamp)
			if err != nil {
				return nil, fmt.Errorf("alpha_vantage %s timestamp %q: %w", indicator, stamp, err)
			}
		}

		value, err := decimal.NewFromString(fields[indicator])
		if err != nil {
			return nil, fmt.Errorf("alpha_vantage %s value %q: %w", indicator, fields[indicator], err)
		}
		out = append(out, IndicatorValue{Timestamp: ts, Value: value})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
