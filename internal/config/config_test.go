package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepulse/tradepulse/internal/provider"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tickers = []string{"AAPL"}
	return cfg
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingTickers(t *testing.T) {
	cfg := validConfig()
	cfg.Tickers = nil
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDailyIntradayInterval(t *testing.T) {
	cfg := validConfig()
	cfg.IntradayInterval = provider.MustPeriod("1d")
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsFractionOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.StopLossFraction = decimal.NewFromFloat(1.5)
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.MaxExposure = decimal.Zero
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownBroker(t *testing.T) {
	cfg := validConfig()
	cfg.Broker = "robinhood"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownOrderType(t *testing.T) {
	cfg := validConfig()
	cfg.OrderType = "ICEBERG"
	assert.Error(t, cfg.Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradepulse.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"tickers": ["AAPL", "MSFT"],
		"venue": "LSE",
		"intraday_interval": "15min",
		"stop_loss_fraction": "0.02"
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Tickers)
	assert.Equal(t, "LSE", cfg.Venue)
	assert.Equal(t, provider.MustPeriod("15min"), cfg.IntradayInterval)
	assert.True(t, cfg.StopLossFraction.Equal(decimal.NewFromFloat(0.02)))

	// Untouched fields keep their defaults.
	assert.Equal(t, "momentum", cfg.Strategy)
	assert.Equal(t, "paper", cfg.Broker)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradepulse.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tickers": ["AAPL"], "venue": "NYSE"}`), 0o644))

	t.Setenv("TRADEPULSE_VENUE", "HKEX")
	t.Setenv("TWELVEDATA_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "HKEX", cfg.Venue)
	assert.Equal(t, "secret", cfg.TwelveDataAPIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tradepulse.json")

	cfg := validConfig()
	cfg.Venue = "XETRA"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "XETRA", loaded.Venue)
	assert.Equal(t, cfg.Tickers, loaded.Tickers)
}
