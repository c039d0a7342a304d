package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const twelveDataName = "twelve_data"

// TwelveData is the Twelve Data connector. It serves historical, intraday,
// real-time, crypto, forex and technical indicator data; news, sentiment and
// company profiles are not offered on the vendor's base plan.
type TwelveData struct {
	client *resty.Client
	cache  *Cache
	apiKey string
}

// NewTwelveData creates a Twelve Data connector. cache may be nil.
func NewTwelveData(apiKey string, cache *Cache) *TwelveData {
	client := resty.New()
	client.SetBaseURL("https://api.twelvedata.com")
	client.SetTimeout(30 * time.Second)

	return &TwelveData{
		client: client,
		cache:  cache,
		apiKey: apiKey,
	}
}

// Name implements Provider.
func (td *TwelveData) Name() string { return twelveDataName }

// tdInterval converts a Period into the vendor's interval notation.
func tdInterval(p Period) string {
	switch p.Unit {
	case UnitMinute:
		return fmt.Sprintf("%dmin", p.Units)
	case UnitHour:
		return fmt.Sprintf("%dh", p.Units)
	case UnitDay:
		return fmt.Sprintf("%dday", p.Units)
	case UnitWeek:
		return fmt.Sprintf("%dweek", p.Units)
	case UnitMonth:
		return fmt.Sprintf("%dmonth", p.Units)
	default:
		return p.String()
	}
}

type tdValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

type tdTimeSeriesResponse struct {
	Status  string    `json:"status"`
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Values  []tdValue `json:"values"`
}

// HistoricalPrices implements Provider.
func (td *TwelveData) HistoricalPrices(ctx context.Context, symbol string, interval Period, start, end time.Time, loc *time.Location) (BarSeries, error) {
	params := map[string]string{
		"symbol":     symbol,
		"interval":   tdInterval(interval),
		"start_date": start.Format("2006-01-02 15:04:05"),
		"end_date":   end.Format("2006-01-02 15:04:05"),
	}
	if loc != nil {
		params["timezone"] = loc.String()
	}
	return td.timeSeries(ctx, params, loc)
}

// IntradayPrices implements Provider.
func (td *TwelveData) IntradayPrices(ctx context.Context, symbol string, interval Period, points int, loc *time.Location) (BarSeries, error) {
	params := map[string]string{
		"symbol":     symbol,
		"interval":   tdInterval(interval),
		"outputsize": fmt.Sprintf("%d", points),
	}
	if loc != nil {
		params["timezone"] = loc.String()
	}
	return td.timeSeries(ctx, params, loc)
}

func (td *TwelveData) timeSeries(ctx context.Context, params map[string]string, loc *time.Location) (BarSeries, error) {
	var cached BarSeries
	if td.cache.Get(twelveDataName, "time_series", params, &cached) {
		return cached, nil
	}

	params["apikey"] = td.apiKey
	resp, err := td.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/time_series")
	if err != nil {
		return nil, fmt.Errorf("twelve_data time_series for %s: %w", params["symbol"], err)
	}

	var body tdTimeSeriesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("twelve_data time_series response for %s: %w", params["symbol"], err)
	}
	if body.Status == "error" {
		if body.Code == 400 {
			return nil, fmt.Errorf("twelve_data %s %s: %s: %w",
				params["symbol"], params["interval"], body.Message, ErrUnsupportedConfiguration)
		}
		return nil, fmt.Errorf("twelve_data error %d: %s", body.Code, body.Message)
	}

	bars := make([]Bar, 0, len(body.Values))
	for _, v := range body.Values {
		bar, err := v.toBar(loc)
		if err != nil {
			return nil, fmt.Errorf("twelve_data value for %s: %w", params["symbol"], err)
		}
		bars = append(bars, bar)
	}

	series := NewBarSeries(bars)
	delete(params, "apikey")
	td.cache.Set(twelveDataName, "time_series", params, series)
	return series, nil
}

func (v tdValue) toBar(loc *time.Location) (Bar, error) {
	if loc == nil {
		loc = time.UTC
	}

	ts, err := time.ParseInLocation("2006-01-02 15:04:05", v.Datetime, loc)
	if err != nil {
		ts, err = time.ParseInLocation("2006-01-02", v.Datetime, loc)
		if err != nil {
			return Bar{}, fmt.Errorf("parse datetime %q: %w", v.Datetime, err)
		}
	}

	open, err := decimal.NewFromString(v.Open)
	if err != nil {
		return Bar{}, fmt.Errorf("parse open %q: %w", v.Open, err)
	}
	high, err := decimal.NewFromString(v.High)
	if err != nil {
		return Bar{}, fmt.Errorf("parse high %q: %w", v.High, err)
	}
	low, err := decimal.NewFromString(v.Low)
	if err != nil {
		return Bar{}, fmt.Errorf("parse low %q: %w", v.Low, err)
	}
	closePx, err := decimal.NewFromString(v.Close)
	if err != nil {
		return Bar{}, fmt.Errorf("parse close %q: %w", v.Close, err)
	}

	var volume int64
	if v.Volume != "" {
		vol, err := decimal.NewFromString(v.Volume)
		if err != nil {
			return Bar{}, fmt.Errorf("parse volume %q: %w", v.Volume, err)
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
func (td *TwelveData) RealTimePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	resp, err := td.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"apikey": td.apiKey,
		}).
		Get("/price")
	if err != nil {
		return decimal.Zero, fmt.Errorf("twelve_data price for %s: %w", symbol, err)
	}

	var body struct {
		Price   string `json:"price"`
		Status  string `json:"status"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return decimal.Zero, fmt.Errorf("twelve_data price response for %s: %w", symbol, err)
	}
	if body.Status == "error" {
		return decimal.Zero, fmt.Errorf("twelve_data error %d: %s", body.Code, body.Message)
	}

	price, err := decimal.NewFromString(body.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("twelve_data price %q for %s: %w", body.Price, symbol, err)
	}
	return price, nil
}

// News implements Provider. Twelve Data has no news feed.
func (td *TwelveData) News(ctx context.Context, symbol string, from, to time.Time) ([]NewsItem, error) {
	return nil, fmt.Errorf("twelve_data news: %w", ErrUnsupported)
}

// Sentiment implements Provider. Twelve Data has no sentiment data.
func (td *TwelveData) Sentiment(ctx context.Context, symbol string) (float64, error) {
	return 0, fmt.Errorf("twelve_data sentiment: %w", ErrUnsupported)
}

// CompanyProfile implements Provider. The vendor keeps profiles behind a
// paid plan.
func (td *TwelveData) CompanyProfile(ctx context.Context, symbol string) (Profile, error) {
	return Profile{}, fmt.Errorf("twelve_data company profile: %w", ErrUnsupported)
}

// CryptoPrices implements Provider. Crypto pairs go through the same time
// series endpoint, e.g. "BTC/USD".
func (td *TwelveData) CryptoPrices(ctx context.Context, symbol string, interval Period) (BarSeries, error) {
	return td.IntradayPrices(ctx, symbol, interval, 30, time.UTC)
}

// ForexPrices implements Provider.
func (td *TwelveData) ForexPrices(ctx context.Context, pair string, interval Period) (BarSeries, error) {
	return td.IntradayPrices(ctx, pair, interval, 30, time.UTC)
}

// TechnicalIndicator implements Provider. The vendor exposes each indicator
// as its own endpoint, e.g. /sma.
func (td *TwelveData) TechnicalIndicator(ctx context.Context, symbol, indicator string, interval Period) ([]IndicatorValue, error) {
	resp, err := td.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": tdInterval(interval),
			"apikey":   td.apiKey,
		}).
		Get("/" + indicator)
	if err != nil {
		return nil, fmt.Errorf("twelve_data %s for %s: %w", indicator, symbol, err)
	}

	var body struct {
		Status  string              `json:"status"`
		Code    int                 `json:"code"`
		Message string              `json:"message"`
		Values  []map[string]string `json:"values"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("twelve_data %s response for %s: %w", indicator, symbol, err)
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("twelve_data error %d: %s", body.Code, body.Message)
	}

	out := make([]IndicatorValue, 0, len(body.Values))
	for _, v := range body.Values {
		ts, err := time.Parse("2006-01-02 15:04:05", v["datetime"])
		if err != nil {
			ts, err = time.Parse("2006-01-02", v["datetime"])
			if err != nil {
				return nil, fmt.Errorf("twelve_data %s datetime %q: %w", indicator, v["datetime"], err)
			}
		}

		for key, raw := range v {
			if key == "datetime" {
				continue
			}
			value, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("twelve_data %s value %q: %w", indicator, raw, err)
			}
			out = append(out, IndicatorValue{Timestamp: ts, Value: value})
			break
		}
	}
	return out, nil
}
