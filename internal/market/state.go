// Package market owns the per-provider, per-ticker bar series and keeps them
// fresh: first population over a historical horizon, an intraday top-up at
// startup, and an incremental refresh once per bar interval. The refresh is
// also the control loop's pacing mechanism: when the latest stored bar is
// younger than one interval, the refresh blocks until the boundary passes.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/provider"
)

// ErrNotFound marks a lookup of a (provider, ticker) pair that is not tracked.
var ErrNotFound = errors.New("ticker not tracked in market data state")

// SyncOptions fixes the data shape the synchronizer maintains.
type SyncOptions struct {
	// HistoricalFrequency is the bar interval for first population.
	HistoricalFrequency provider.Period
	// HistoricalHorizon is how far back first population reaches.
	HistoricalHorizon provider.Period
	// IntradayInterval is the bar interval for intraday top-ups and refresh;
	// it is also the loop's cycle cadence.
	IntradayInterval provider.Period
}

// Synchronizer owns the market data state: a bar series per registered
// (provider, ticker) pair. Series are replaced on merge, never patched, and a
// ticker registered at first population is never silently dropped. The
// synchronizer is confined to the control loop goroutine and needs no
// locking.
type Synchronizer struct {
	providers map[string]provider.Provider
	series    map[string]map[string]provider.BarSeries
	tickers   []string
	tracked   map[string]bool

	calendar *Calendar
	opts     SyncOptions
	log      *zap.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewSynchronizer creates an empty synchronizer for the given venue calendar.
func NewSynchronizer(cal *Calendar, opts SyncOptions, log *zap.Logger) *Synchronizer {
	return &Synchronizer{
		providers: make(map[string]provider.Provider),
		series:    make(map[string]map[string]provider.BarSeries),
		tracked:   make(map[string]bool),
		calendar:  cal,
		opts:      opts,
		log:       log,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// RegisterProviders adds providers to the state; an idempotent union with the
// existing set.
func (s *Synchronizer) RegisterProviders(providers map[string]provider.Provider) {
	for name, p := range providers {
		s.providers[name] = p
	}
}

// Provider returns a registered provider by name.
func (s *Synchronizer) Provider(name string) (provider.Provider, bool) {
	p, ok := s.providers[name]
	return p, ok
}

// Series returns the stored bar series for a (provider, ticker) pair.
func (s *Synchronizer) Series(providerName, ticker string) (provider.BarSeries, bool) {
	byTicker, ok := s.series[providerName]
	if !ok {
		return nil, false
	}
	series, ok := byTicker[ticker]
	return series, ok
}

// Tickers returns the registered tickers in registration order.
func (s *Synchronizer) Tickers() []string {
	out := make([]string, len(s.tickers))
	copy(out, s.tickers)
	return out
}

func (s *Synchronizer) track(ticker string) {
	if s.tracked[ticker] {
		return
	}
	s.tracked[ticker] = true
	s.tickers = append(s.tickers, ticker)
}

// PopulateHistorical performs first population: for every (provider, ticker)
// pair not yet present it fetches the full window [now-horizon, now] at the
// configured historical frequency. A provider that cannot serve the
// frequency/horizon combination fails the call.
func (s *Synchronizer) PopulateHistorical(ctx context.Context, tickers []string) error {
	loc := s.calendar.Location()
	now := s.now().In(loc)
	start := s.opts.HistoricalHorizon.ShiftBack(now)

	for name, p := range s.providers {
		byTicker := s.series[name]
		if byTicker == nil {
			byTicker = make(map[string]provider.BarSeries, len(tickers))
			s.series[name] = byTicker
		}

		for _, ticker := range tickers {
			s.track(ticker)
			if _, ok := byTicker[ticker]; ok {
				continue
			}

			series, err := p.HistoricalPrices(ctx, ticker, s.opts.HistoricalFrequency, start, now, loc)
			if err != nil {
				return fmt.Errorf("populate historical %s/%s: %w", name, ticker, err)
			}
			byTicker[ticker] = series

			s.log.Debug("historical series populated",
				zap.String("provider", name),
				zap.String("ticker", ticker),
				zap.Int("bars", series.Len()))
		}
	}
	return nil
}

// PopulateIntraday appends bars covering today's session so far, from the
// venue's session open to now. Called once at startup after historical
// population.
func (s *Synchronizer) PopulateIntraday(ctx context.Context, tickers []string) error {
	for _, ticker := range tickers {
		s.track(ticker)
	}

	now := s.now().In(s.calendar.Location())
	return s.appendBetween(ctx, s.calendar.SessionOpen(now), now)
}

// Refresh is the incremental sync. It derives the reference timestamp from
// the stored series, blocks until the next bar boundary when the data is
// still fresh, then appends exactly the bars needed to cover the elapsed
// window. Provider failures propagate unmodified; an empty window is a
// logged no-op.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	ref, found, synced := s.referenceTimestamp()
	if !found {
		s.log.Warn("no tracked series, skipping refresh")
		return nil
	}
	if !synced {
		// Tracked pairs have diverged; refreshing from the oldest latest
		// timestamp lets lagging series catch up, and the merge drops any
		// bars the fresher ones already hold.
		s.log.Warn("tracked series have diverging latest timestamps",
			zap.Time("reference", ref))
	}

	loc := s.calendar.Location()
	now := s.now().In(loc)
	step := s.opts.IntradayInterval.Duration()

	if elapsed := now.Sub(ref); elapsed < step {
		wait := step - elapsed
		s.log.Info("latest bar still current, waiting for next interval",
			zap.Time("now", now),
			zap.Time("latest", ref),
			zap.Duration("wait", wait))
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
		now = s.now().In(loc)
	}

	return s.appendBetween(ctx, ref, now)
}

// appendBetween fetches the bars needed to cover (start, end] for every
// registered pair and merges them into the stored series. Each provider's
// series map is swapped in as one update so readers never observe a
// partially merged state.
func (s *Synchronizer) appendBetween(ctx context.Context, start, end time.Time) error {
	points := s.opts.IntradayInterval.PointsBetween(start, end)
	if points <= 0 {
		s.log.Warn("refresh window is empty, skipping",
			zap.Time("start", start),
			zap.Time("end", end))
		return nil
	}

	loc := s.calendar.Location()

	for name, p := range s.providers {
		byTicker := s.series[name]
		merged := make(map[string]provider.BarSeries, len(s.tickers))

		for _, ticker := range s.tickers {
			existing, ok := byTicker[ticker]
			if !ok || existing.Len() == 0 {
				// A pair with no series yet gets a full first fetch.
				series, err := p.HistoricalPrices(ctx, ticker, s.opts.HistoricalFrequency,
					s.opts.HistoricalHorizon.ShiftBack(end), end, loc)
				if err != nil {
					return fmt.Errorf("first fetch %s/%s: %w", name, ticker, err)
				}
				merged[ticker] = series
				continue
			}

			fresh, err := p.IntradayPrices(ctx, ticker, s.opts.IntradayInterval, points, loc)
			if err != nil {
				return fmt.Errorf("refresh %s/%s: %w", name, ticker, err)
			}
			merged[ticker] = existing.Merge(fresh)
		}

		s.series[name] = merged
	}
	return nil
}

// referenceTimestamp returns the oldest of the latest timestamps across all
// tracked series, whether any series holds data, and whether all pairs share
// the same latest timestamp.
func (s *Synchronizer) referenceTimestamp() (ref time.Time, found, synced bool) {
	synced = true
	for _, byTicker := range s.series {
		for _, series := range byTicker {
			latest, ok := series.Latest()
			if !ok {
				continue
			}
			if !found {
				ref = latest.Timestamp
				found = true
				continue
			}
			if !latest.Timestamp.Equal(ref) {
				synced = false
				if latest.Timestamp.Before(ref) {
					ref = latest.Timestamp
				}
			}
		}
	}
	return ref, found, synced
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
