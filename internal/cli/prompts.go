package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse/internal/config"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// promptForConfig walks the user through a starter configuration.
func promptForConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	var tickersInput string
	if err := survey.AskOne(&survey.Input{
		Message: "Tickers to trade (comma separated, e.g. AAPL,MSFT):",
	}, &tickersInput, survey.WithValidator(func(val interface{}) error {
		str, _ := val.(string)
		tickers := splitTickers(str)
		if len(tickers) == 0 {
			return fmt.Errorf("at least one ticker is required")
		}
		for _, t := range tickers {
			if !tickerPattern.MatchString(t) {
				return fmt.Errorf("invalid ticker %q", t)
			}
		}
		return nil
	})); err != nil {
		return nil, err
	}
	cfg.Tickers = splitTickers(tickersInput)

	if err := survey.AskOne(&survey.Select{
		Message: "Market venue:",
		Options: []string{"NYSE", "NASDAQ", "LSE", "XETRA", "TSE", "HKEX"},
		Default: "NYSE",
	}, &cfg.Venue); err != nil {
		return nil, err
	}

	if err := survey.AskOne(&survey.MultiSelect{
		Message: "Market data providers:",
		Options: []string{"yahoo", "twelvedata", "alphavantage"},
		Default: []string{"yahoo"},
	}, &cfg.Providers, survey.WithValidator(survey.MinItems(1))); err != nil {
		return nil, err
	}

	if err := survey.AskOne(&survey.Select{
		Message: "Primary provider (strategies read prices from it):",
		Options: cfg.Providers,
	}, &cfg.PrimaryProvider); err != nil {
		return nil, err
	}

	if err := survey.AskOne(&survey.Select{
		Message: "Strategy:",
		Options: []string{"momentum", "sentiment"},
		Default: "momentum",
	}, &cfg.Strategy); err != nil {
		return nil, err
	}

	if cfg.Strategy == "sentiment" {
		if err := survey.AskOne(&survey.Select{
			Message: "News provider:",
			Options: []string{"alphavantage"},
			Default: "alphavantage",
		}, &cfg.NewsProvider); err != nil {
			return nil, err
		}
	}

	if err := survey.AskOne(&survey.Select{
		Message: "Broker:",
		Options: []string{"paper", "longport"},
		Default: "paper",
	}, &cfg.Broker); err != nil {
		return nil, err
	}

	var notional string
	if err := survey.AskOne(&survey.Input{
		Message: "Position sizing notional per trade:",
		Default: cfg.PositionSizingNotional.String(),
	}, &notional, survey.WithValidator(func(val interface{}) error {
		str, _ := val.(string)
		d, err := decimal.NewFromString(strings.TrimSpace(str))
		if err != nil {
			return fmt.Errorf("not a number: %q", str)
		}
		if !d.IsPositive() {
			return fmt.Errorf("must be positive")
		}
		return nil
	})); err != nil {
		return nil, err
	}
	cfg.PositionSizingNotional, _ = decimal.NewFromString(strings.TrimSpace(notional))

	return cfg, nil
}

func splitTickers(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
