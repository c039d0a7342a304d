package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAlphaVantageTestServer(t *testing.T, handler http.HandlerFunc) *AlphaVantage {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	av := NewAlphaVantage("test-key", nil)
	av.client.SetBaseURL(server.URL)
	return av
}

func TestAlphaVantageIntradayWindowLimit(t *testing.T) {
	av := NewAlphaVantage("test-key", nil)

	end := time.Date(2024, 3, 15, 16, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -2, 0)

	_, err := av.HistoricalPrices(context.Background(), "AAPL", MustPeriod("5min"), start, end, time.UTC)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedConfiguration)
}

func TestAlphaVantageDailyIntervalMustBeUnit(t *testing.T) {
	av := NewAlphaVantage("test-key", nil)

	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	_, err := av.HistoricalPrices(context.Background(), "AAPL", MustPeriod("2d"), end.AddDate(0, -1, 0), end, time.UTC)
	assert.ErrorIs(t, err, ErrUnsupportedConfiguration)
}

func TestAlphaVantageIntradayPrices(t *testing.T) {
	av := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "TIME_SERIES_INTRADAY", r.URL.Query().Get("function"))
		assert.Equal(t, "5min", r.URL.Query().Get("interval"))
		assert.Equal(t, "compact", r.URL.Query().Get("outputsize"))

		w.Write([]byte(`{
			"Meta Data": {"2. Symbol": "AAPL"},
			"Time Series (5min)": {
				"2024-03-15 10:05:00": {"1. open": "170.1", "2. high": "170.5", "3. low": "170.0", "4. close": "170.4", "5. volume": "1200"},
				"2024-03-15 10:00:00": {"1. open": "169.8", "2. high": "170.2", "3. low": "169.7", "4. close": "170.1", "5. volume": "900"},
				"2024-03-15 09:55:00": {"1. open": "169.5", "2. high": "169.9", "3. low": "169.4", "4. close": "169.8", "5. volume": "800"}
			}
		}`))
	})

	series, err := av.IntradayPrices(context.Background(), "AAPL", MustPeriod("5min"), 2, time.UTC)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len(), "series must be truncated to the requested points")

	latest, _ := series.Latest()
	assert.True(t, latest.Timestamp.Equal(time.Date(2024, 3, 15, 10, 5, 0, 0, time.UTC)))
	assert.True(t, latest.Close.Equal(decimal.NewFromFloat(170.4)))
}

func TestAlphaVantageVendorNoteIsError(t *testing.T) {
	av := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "API call frequency exceeded"}`))
	})

	_, err := av.IntradayPrices(context.Background(), "AAPL", MustPeriod("5min"), 10, time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API call frequency exceeded")
}

func TestAlphaVantageRealTimePrice(t *testing.T) {
	av := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "171.2500"}}`))
	})

	price, err := av.RealTimePrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(171.25)))
}

func TestAlphaVantageCompanyProfile(t *testing.T) {
	av := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OVERVIEW", r.URL.Query().Get("function"))
		w.Write([]byte(`{
			"Symbol": "AAPL",
			"Name": "Apple Inc",
			"Exchange": "NASDAQ",
			"Sector": "TECHNOLOGY",
			"Industry": "ELECTRONIC COMPUTERS",
			"Description": "Apple Inc. designs consumer electronics."
		}`))
	})

	profile, err := av.CompanyProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", profile.Name)
	assert.Equal(t, "NASDAQ", profile.Exchange)
	assert.Equal(t, "TECHNOLOGY", profile.Sector)
}

func TestAlphaVantageCompanyProfileUnknownSymbol(t *testing.T) {
	av := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := av.CompanyProfile(context.Background(), "ZZZZ")
	assert.Error(t, err)
}

func TestAlphaVantageNews(t *testing.T) {
	av := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NEWS_SENTIMENT", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("tickers"))
		assert.Equal(t, "20240314T0930", r.URL.Query().Get("time_from"))

		w.Write([]byte(`{
			"feed": [
				{"title": "Old story", "url": "https://example.com/a", "time_published": "20240314T100000", "summary": "s1", "source": "WireA", "overall_sentiment_score": -0.2},
				{"title": "New story", "url": "https://example.com/b", "time_published": "20240315T090000", "summary": "s2", "source": "WireB", "overall_sentiment_score": 0.4}
			]
		}`))
	})

	from := time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)
	to := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	items, err := av.News(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "New story", items[0].Title, "items must be newest first")
	assert.Equal(t, 0.4, items[0].Sentiment)
	assert.Equal(t, "AAPL", items[0].Symbol)
	assert.True(t, items[0].PublishedAt.Equal(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)))
}
