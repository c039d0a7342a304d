// Package stats counts what the control loop does: signals emitted, stop
// losses and take profits fired. The gatherer accumulates across cycles and
// renders a summary at shutdown.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/tradepulse/tradepulse/internal/strategy"
)

// Row is one counter in the summary: an event type for a ticker and how often
// it fired.
type Row struct {
	Ticker string
	Event  string
	Count  int
}

// Gatherer accumulates per-ticker event counters. It is confined to the
// control loop goroutine and needs no locking.
type Gatherer struct {
	counters map[string]map[string]int
}

// NewGatherer creates an empty gatherer.
func NewGatherer() *Gatherer {
	return &Gatherer{counters: make(map[string]map[string]int)}
}

func (g *Gatherer) increment(ticker, event string) {
	byEvent, ok := g.counters[ticker]
	if !ok {
		byEvent = make(map[string]int)
		g.counters[ticker] = byEvent
	}
	byEvent[event]++
}

// RecordSignal counts one emitted signal for ticker.
func (g *Gatherer) RecordSignal(ticker string, signal strategy.Signal) {
	g.increment(ticker, "signal:"+string(signal))
}

// RecordStopLoss counts one stop loss firing for ticker.
func (g *Gatherer) RecordStopLoss(ticker string) {
	g.increment(ticker, "stop_loss")
}

// RecordTakeProfit counts one take profit firing for ticker.
func (g *Gatherer) RecordTakeProfit(ticker string) {
	g.increment(ticker, "take_profit")
}

// RecordOrder counts one submitted order for ticker.
func (g *Gatherer) RecordOrder(ticker string) {
	g.increment(ticker, "order")
}

// Snapshot returns the counters sorted by ticker then event.
func (g *Gatherer) Snapshot() []Row {
	var rows []Row
	for ticker, byEvent := range g.counters {
		for event, count := range byEvent {
			rows = append(rows, Row{Ticker: ticker, Event: event, Count: count})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Event < rows[j].Event
	})
	return rows
}

// WriteCSV writes the snapshot as CSV with a header row.
func (g *Gatherer) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ticker", "event", "count"}); err != nil {
		return fmt.Errorf("write stats header: %w", err)
	}
	for _, row := range g.Snapshot() {
		if err := cw.Write([]string{row.Ticker, row.Event, fmt.Sprint(row.Count)}); err != nil {
			return fmt.Errorf("write stats row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
