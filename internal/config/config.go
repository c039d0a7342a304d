// Package config loads the runtime configuration: a JSON file merged with
// environment variables, secrets coming from the environment only.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse/internal/provider"
)

type Config struct {
	Tickers []string `json:"tickers"`
	Venue   string   `json:"venue"`

	// Providers lists the market data connectors to run. PrimaryProvider is
	// the one strategies read prices from; NewsProvider feeds sentiment.
	Providers       []string `json:"providers"`
	PrimaryProvider string   `json:"primary_provider"`
	NewsProvider    string   `json:"news_provider"`

	Strategy string `json:"strategy"`

	HistoricalFrequency provider.Period `json:"historical_frequency"`
	HistoricalHorizon   provider.Period `json:"historical_horizon"`
	IntradayInterval    provider.Period `json:"intraday_interval"`

	StopLossFraction       decimal.Decimal `json:"stop_loss_fraction"`
	TakeProfitFraction     decimal.Decimal `json:"take_profit_fraction"`
	MaxExposure            decimal.Decimal `json:"max_exposure"`
	PositionSizingNotional decimal.Decimal `json:"position_sizing_notional"`
	OrderType              string          `json:"order_type"`

	Broker            string          `json:"broker"`
	PaperStartingCash decimal.Decimal `json:"paper_starting_cash"`
	LongportRegion    string          `json:"longport_region"`

	CacheDir        string `json:"cache_dir"`
	CacheEnabled    bool   `json:"cache_enabled"`
	CacheTTLMinutes int    `json:"cache_ttl_minutes"`

	StatsCSVPath string `json:"stats_csv_path"`
	Debug        bool   `json:"debug"`

	// Secrets, environment only.
	TwelveDataAPIKey    string `json:"-"`
	AlphaVantageAPIKey  string `json:"-"`
	LongportAppKey      string `json:"-"`
	LongportAppSecret   string `json:"-"`
	LongportAccessToken string `json:"-"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		Venue: "NYSE",

		Providers:       []string{"yahoo"},
		PrimaryProvider: "yahoo",

		Strategy: "momentum",

		HistoricalFrequency: provider.MustPeriod("1d"),
		HistoricalHorizon:   provider.MustPeriod("1M"),
		IntradayInterval:    provider.MustPeriod("5min"),

		StopLossFraction:       decimal.NewFromFloat(0.05),
		TakeProfitFraction:     decimal.NewFromFloat(0.1),
		MaxExposure:            decimal.NewFromFloat(0.2),
		PositionSizingNotional: decimal.NewFromInt(1000),
		OrderType:              "MARKET",

		Broker:            "paper",
		PaperStartingCash: decimal.NewFromInt(100000),
		LongportRegion:    "US",

		CacheDir:        filepath.Join(currentDir, "data", "cache"),
		CacheEnabled:    true,
		CacheTTLMinutes: 60,

		Debug: false,
	}

	_ = godotenv.Load()
	cfg.loadFromEnv()

	return cfg
}

// Load reads a JSON config file over the defaults. Environment variables win
// over both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.loadFromEnv()
	return cfg, nil
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("TRADEPULSE_VENUE"); val != "" {
		c.Venue = val
	}
	if val := os.Getenv("TRADEPULSE_BROKER"); val != "" {
		c.Broker = val
	}
	if val := os.Getenv("TRADEPULSE_STRATEGY"); val != "" {
		c.Strategy = val
	}
	if val := os.Getenv("TRADEPULSE_CACHE_DIR"); val != "" {
		c.CacheDir = val
	}
	if val := os.Getenv("TRADEPULSE_CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("TRADEPULSE_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("TWELVEDATA_API_KEY"); val != "" {
		c.TwelveDataAPIKey = val
	}
	if val := os.Getenv("ALPHAVANTAGE_API_KEY"); val != "" {
		c.AlphaVantageAPIKey = val
	}
	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}
}

// Validate rejects configurations the control loop cannot run with.
func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return fmt.Errorf("config: no tickers configured")
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: no providers configured")
	}
	if c.PrimaryProvider == "" {
		return fmt.Errorf("config: no primary provider configured")
	}

	if c.HistoricalFrequency.IsZero() || c.HistoricalHorizon.IsZero() || c.IntradayInterval.IsZero() {
		return fmt.Errorf("config: historical_frequency, historical_horizon and intraday_interval are required")
	}
	if !c.IntradayInterval.Intraday() {
		return fmt.Errorf("config: intraday_interval %s must be an intraday period", c.IntradayInterval)
	}

	for name, frac := range map[string]decimal.Decimal{
		"stop_loss_fraction":   c.StopLossFraction,
		"take_profit_fraction": c.TakeProfitFraction,
		"max_exposure":         c.MaxExposure,
	} {
		if !frac.IsPositive() || frac.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("config: %s %s must be in (0, 1]", name, frac)
		}
	}
	if !c.PositionSizingNotional.IsPositive() {
		return fmt.Errorf("config: position_sizing_notional %s must be positive", c.PositionSizingNotional)
	}
	if c.OrderType != "MARKET" && c.OrderType != "LIMIT" {
		return fmt.Errorf("config: unknown order_type %q", c.OrderType)
	}

	switch c.Broker {
	case "paper":
		if !c.PaperStartingCash.IsPositive() {
			return fmt.Errorf("config: paper_starting_cash %s must be positive", c.PaperStartingCash)
		}
	case "longport":
	default:
		return fmt.Errorf("config: unknown broker %q", c.Broker)
	}

	return nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
