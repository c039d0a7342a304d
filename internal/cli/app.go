package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/broker"
	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/engine"
	"github.com/tradepulse/tradepulse/internal/market"
	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/provider"
	"github.com/tradepulse/tradepulse/internal/risk"
	"github.com/tradepulse/tradepulse/internal/stats"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

// newLogger builds the process logger. Debug mode switches to the console
// encoder with debug-level output.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// app holds the assembled collaborators for one run.
type app struct {
	engine *engine.Engine
	stats  *stats.Gatherer
}

// buildApp wires every component from the resolved configuration.
func buildApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cal, err := market.NewCalendar(cfg.Venue)
	if err != nil {
		return nil, err
	}

	cache := provider.NewCache(cfg.CacheDir, time.Duration(cfg.CacheTTLMinutes)*time.Minute, cfg.CacheEnabled)

	providers := make(map[string]provider.Provider, len(cfg.Providers))
	for _, name := range cfg.Providers {
		p, err := buildProvider(name, cfg, cache)
		if err != nil {
			return nil, err
		}
		providers[p.Name()] = p
	}
	if _, ok := providers[cfg.PrimaryProvider]; !ok {
		return nil, fmt.Errorf("primary provider %q is not among configured providers", cfg.PrimaryProvider)
	}

	sync := market.NewSynchronizer(cal, market.SyncOptions{
		HistoricalFrequency: cfg.HistoricalFrequency,
		HistoricalHorizon:   cfg.HistoricalHorizon,
		IntradayInterval:    cfg.IntradayInterval,
	}, log)
	sync.RegisterProviders(providers)
	svc := market.NewService(sync)

	brk, err := buildBroker(cfg, svc, log)
	if err != nil {
		return nil, err
	}

	strat, err := buildStrategy(cfg, svc, cache, log)
	if err != nil {
		return nil, err
	}

	riskMgr := risk.NewManager(risk.Limits{
		StopLossFraction:       cfg.StopLossFraction,
		TakeProfitFraction:     cfg.TakeProfitFraction,
		MaxExposure:            cfg.MaxExposure,
		PositionSizingNotional: cfg.PositionSizingNotional,
	}, log)

	gatherer := stats.NewGatherer()

	eng := engine.New(engine.Options{
		Synchronizer:    sync,
		Market:          svc,
		Portfolio:       portfolio.NewState(log),
		Risk:            riskMgr,
		Strategy:        strat,
		Broker:          brk,
		Stats:           gatherer,
		Calendar:        cal,
		Tickers:         cfg.Tickers,
		PrimaryProvider: cfg.PrimaryProvider,
		OrderType:       broker.OrderType(cfg.OrderType),
	}, log)

	return &app{engine: eng, stats: gatherer}, nil
}

func buildProvider(name string, cfg *config.Config, cache *provider.Cache) (provider.Provider, error) {
	switch name {
	case "twelvedata":
		if cfg.TwelveDataAPIKey == "" {
			return nil, fmt.Errorf("provider twelvedata: TWELVEDATA_API_KEY not set")
		}
		return provider.NewTwelveData(cfg.TwelveDataAPIKey, cache), nil
	case "alphavantage":
		if cfg.AlphaVantageAPIKey == "" {
			return nil, fmt.Errorf("provider alphavantage: ALPHAVANTAGE_API_KEY not set")
		}
		return provider.NewAlphaVantage(cfg.AlphaVantageAPIKey, cache), nil
	case "yahoo":
		return provider.NewYahoo(cache), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func buildBroker(cfg *config.Config, svc *market.Service, log *zap.Logger) (broker.Broker, error) {
	switch cfg.Broker {
	case "paper":
		quoter := func(ctx context.Context, ticker string) (decimal.Decimal, error) {
			return svc.RealTimePrice(ctx, cfg.PrimaryProvider, ticker)
		}
		return broker.NewPaper(cfg.PaperStartingCash, quoter, log), nil
	case "longport":
		return broker.NewLongport(broker.LongportCredentials{
			AppKey:      cfg.LongportAppKey,
			AppSecret:   cfg.LongportAppSecret,
			AccessToken: cfg.LongportAccessToken,
		}, cfg.LongportRegion, log)
	default:
		return nil, fmt.Errorf("unknown broker %q", cfg.Broker)
	}
}

func buildStrategy(cfg *config.Config, svc *market.Service, cache *provider.Cache, log *zap.Logger) (strategy.Strategy, error) {
	switch cfg.Strategy {
	case "momentum":
		return strategy.NewMomentum(svc, cfg.PrimaryProvider, log), nil
	case "sentiment":
		newsProvider := cfg.NewsProvider
		if newsProvider == "" {
			newsProvider = cfg.PrimaryProvider
		}
		articles := provider.NewArticleFetcher(cache)
		return strategy.NewSentiment(svc, newsProvider, articles, log), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}
