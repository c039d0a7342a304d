// Package engine runs the control loop: a cyclic state machine that keeps
// market data fresh, applies the risk rules, turns signals into orders and
// submits them, once per bar while the venue is open.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/broker"
	"github.com/tradepulse/tradepulse/internal/market"
	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/risk"
	"github.com/tradepulse/tradepulse/internal/stats"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

// State is the loop's lifecycle phase.
type State string

const (
	StateStarting State = "STARTING"
	StateCycle    State = "CYCLE"
	StateStopped  State = "STOPPED"
)

// Options wires the engine's collaborators and fixed parameters.
type Options struct {
	Synchronizer *market.Synchronizer
	Market       *market.Service
	Portfolio    *portfolio.State
	Risk         *risk.Manager
	Strategy     strategy.Strategy
	Broker       broker.Broker
	Stats        *stats.Gatherer
	Calendar     *market.Calendar

	Tickers         []string
	PrimaryProvider string
	OrderType       broker.OrderType
}

// Engine is the control loop. It owns no goroutines; Run drives everything
// on the caller's goroutine and the pacing wait inside the market refresh is
// the only suspension point.
type Engine struct {
	opts  Options
	state State
	log   *zap.Logger

	now func() time.Time
}

// New creates an engine in the starting state.
func New(opts Options, log *zap.Logger) *Engine {
	return &Engine{
		opts:  opts,
		state: StateStarting,
		log:   log,
		now:   time.Now,
	}
}

// State returns the loop's current lifecycle phase.
func (e *Engine) State() State { return e.state }

// Run executes the loop until the venue closes, the context is cancelled or
// a step fails. Any step failure aborts the whole run; there is no per-cycle
// isolation or retry.
func (e *Engine) Run(ctx context.Context) error {
	e.state = StateStarting
	e.log.Info("starting up",
		zap.Strings("tickers", e.opts.Tickers),
		zap.String("venue", e.opts.Calendar.Venue()),
		zap.String("strategy", e.opts.Strategy.Name()),
		zap.String("broker", e.opts.Broker.Name()))

	if err := e.opts.Synchronizer.PopulateHistorical(ctx, e.opts.Tickers); err != nil {
		return e.stop(err)
	}
	if err := e.opts.Synchronizer.PopulateIntraday(ctx, e.opts.Tickers); err != nil {
		return e.stop(err)
	}
	if err := e.opts.Portfolio.Refresh(ctx, e.opts.Broker); err != nil {
		return e.stop(err)
	}

	e.state = StateCycle
	cycles := 0
	for e.opts.Calendar.IsOpen(e.now()) {
		if err := ctx.Err(); err != nil {
			return e.stop(err)
		}

		if err := e.runCycle(ctx); err != nil {
			return e.stop(err)
		}
		cycles++
	}

	e.log.Info("market closed", zap.Int("cycles", cycles))
	return e.stop(nil)
}

func (e *Engine) stop(err error) error {
	e.state = StateStopped
	if err != nil {
		e.log.Error("control loop aborted", zap.Error(err))
	}
	return err
}

// runCycle executes one bar's worth of work in strict order. The market
// refresh at the end blocks until the next bar boundary and paces the loop.
func (e *Engine) runCycle(ctx context.Context) error {
	if err := e.applyStopLoss(ctx); err != nil {
		return err
	}
	if err := e.applyTakeProfit(ctx); err != nil {
		return err
	}

	signals, err := e.opts.Strategy.GenerateSignals(ctx, e.opts.Tickers)
	if err != nil {
		return fmt.Errorf("generate signals: %w", err)
	}

	orders, prices, err := e.buildOrders(ctx, signals)
	if err != nil {
		return err
	}

	approved, err := e.opts.Risk.CheckMaxExposure(e.opts.Portfolio, orders, prices)
	if err != nil {
		return fmt.Errorf("exposure check: %w", err)
	}

	if err := e.opts.Broker.PlaceOrders(ctx, approved); err != nil {
		return fmt.Errorf("place orders: %w", err)
	}

	for _, ticker := range e.opts.Tickers {
		signal, ok := signals[ticker]
		if !ok {
			continue
		}
		e.opts.Stats.RecordSignal(ticker, signal)
	}
	for _, order := range approved {
		e.opts.Stats.RecordOrder(order.Ticker)
	}

	if err := e.opts.Portfolio.Refresh(ctx, e.opts.Broker); err != nil {
		return err
	}

	return e.opts.Synchronizer.Refresh(ctx)
}

func (e *Engine) applyStopLoss(ctx context.Context) error {
	flagged := e.opts.Risk.CheckStopLoss(e.opts.Portfolio)
	if len(flagged) == 0 {
		return nil
	}
	if err := e.opts.Broker.ClosePositions(ctx, flagged); err != nil {
		return fmt.Errorf("close stop loss positions: %w", err)
	}
	for _, ticker := range flagged {
		e.opts.Stats.RecordStopLoss(ticker)
	}
	return nil
}

func (e *Engine) applyTakeProfit(ctx context.Context) error {
	flagged := e.opts.Risk.CheckTakeProfit(e.opts.Portfolio)
	if len(flagged) == 0 {
		return nil
	}
	if err := e.opts.Broker.ClosePositions(ctx, flagged); err != nil {
		return fmt.Errorf("close take profit positions: %w", err)
	}
	for _, ticker := range flagged {
		e.opts.Stats.RecordTakeProfit(ticker)
	}
	return nil
}

// buildOrders turns the non-hold signals into sized orders and collects the
// prices used, keyed by ticker, for the exposure check.
func (e *Engine) buildOrders(ctx context.Context, signals map[string]strategy.Signal) ([]broker.Order, map[string]decimal.Decimal, error) {
	var orders []broker.Order
	prices := make(map[string]decimal.Decimal)

	for _, ticker := range e.opts.Tickers {
		signal := signals[ticker]
		if signal == strategy.Hold || signal == "" {
			continue
		}

		price, err := e.opts.Market.RealTimePrice(ctx, e.opts.PrimaryProvider, ticker)
		if err != nil {
			return nil, nil, fmt.Errorf("price for %s: %w", ticker, err)
		}
		prices[ticker] = price

		quantity, err := e.opts.Risk.UnitsToTrade(price)
		if err != nil {
			return nil, nil, fmt.Errorf("size order for %s: %w", ticker, err)
		}

		order := broker.Order{
			Ticker:   ticker,
			Signal:   signal,
			Quantity: quantity,
			Type:     e.opts.OrderType,
		}
		if e.opts.OrderType == broker.Limit {
			order.LimitPrice = price
		}
		orders = append(orders, order)
	}
	return orders, prices, nil
}
