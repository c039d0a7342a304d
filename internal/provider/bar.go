package provider

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV record for a fixed time bucket. Bars are immutable values;
// a series update replaces bars instead of mutating them in place.
type Bar struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// BarSeries is the ordered bar sequence for one symbol: sorted by timestamp
// descending with strictly unique timestamps.
type BarSeries []Bar

// NewBarSeries builds a series from unordered bars, dropping duplicate
// timestamps (the later entry in the input wins) and sorting newest-first.
func NewBarSeries(bars []Bar) BarSeries {
	byTime := make(map[int64]Bar, len(bars))
	for _, b := range bars {
		byTime[b.Timestamp.UnixNano()] = b
	}

	out := make(BarSeries, 0, len(byTime))
	for _, b := range byTime {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Len returns the number of bars in the series.
func (s BarSeries) Len() int { return len(s) }

// Latest returns the most recent bar, if any.
func (s BarSeries) Latest() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[0], true
}

// At returns the bar with the given timestamp.
func (s BarSeries) At(ts time.Time) (Bar, bool) {
	for _, b := range s {
		if b.Timestamp.Equal(ts) {
			return b, true
		}
	}
	return Bar{}, false
}

// Between returns the bars with start <= timestamp <= end, newest first.
func (s BarSeries) Between(start, end time.Time) BarSeries {
	out := make(BarSeries, 0)
	for _, b := range s {
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Merge combines the series with freshly fetched bars and returns a new
// series. Duplicate timestamps resolve in favor of the fresh fetch.
func (s BarSeries) Merge(fresh BarSeries) BarSeries {
	combined := make([]Bar, 0, len(s)+len(fresh))
	combined = append(combined, s...)
	combined = append(combined, fresh...)
	return NewBarSeries(combined)
}
