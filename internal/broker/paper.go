package broker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

// Quoter prices a ticker for simulated fills.
type Quoter func(ctx context.Context, ticker string) (decimal.Decimal, error)

// Paper is an in-memory broker. Orders fill immediately and fully, market
// orders at the quoted price, limit orders at the limit price. No fees,
// no slippage, no short selling.
type Paper struct {
	cash      decimal.Decimal
	positions map[string]portfolio.Position

	quote Quoter
	log   *zap.Logger
}

// NewPaper creates a paper broker with the given starting cash.
func NewPaper(startingCash decimal.Decimal, quote Quoter, log *zap.Logger) *Paper {
	return &Paper{
		cash:      startingCash,
		positions: make(map[string]portfolio.Position),
		quote:     quote,
		log:       log,
	}
}

// Name implements Broker.
func (p *Paper) Name() string { return "paper" }

// Positions implements Broker.
func (p *Paper) Positions(ctx context.Context) ([]portfolio.Position, error) {
	out := make([]portfolio.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos)
	}
	return out, nil
}

// Cash implements Broker.
func (p *Paper) Cash(ctx context.Context) (decimal.Decimal, error) {
	return p.cash, nil
}

// Equity implements Broker. Positions are marked to the current quote.
func (p *Paper) Equity(ctx context.Context) (decimal.Decimal, error) {
	equity := p.cash
	for ticker, pos := range p.positions {
		price, err := p.quote(ctx, ticker)
		if err != nil {
			return decimal.Zero, fmt.Errorf("paper equity quote %s: %w", ticker, err)
		}
		equity = equity.Add(price.Mul(pos.Quantity))
	}
	return equity, nil
}

// PlaceOrders implements Broker.
func (p *Paper) PlaceOrders(ctx context.Context, orders []Order) error {
	for _, order := range orders {
		if order.Signal == strategy.Hold || !order.Quantity.IsPositive() {
			continue
		}

		price := order.LimitPrice
		if order.Type == Market || price.IsZero() {
			quoted, err := p.quote(ctx, order.Ticker)
			if err != nil {
				return fmt.Errorf("paper quote %s: %w", order.Ticker, err)
			}
			price = quoted
		}

		switch order.Signal {
		case strategy.Buy:
			if err := p.fillBuy(order.Ticker, order.Quantity, price); err != nil {
				return err
			}
		case strategy.Sell:
			if err := p.fillSell(order.Ticker, order.Quantity, price); err != nil {
				return err
			}
		}

		p.log.Info("paper order filled",
			zap.String("ticker", order.Ticker),
			zap.String("side", string(order.Signal)),
			zap.String("quantity", order.Quantity.String()),
			zap.String("price", price.String()))
	}
	return nil
}

func (p *Paper) fillBuy(ticker string, quantity, price decimal.Decimal) error {
	cost := price.Mul(quantity)
	if cost.GreaterThan(p.cash) {
		return fmt.Errorf("paper buy %s: cost %s exceeds cash %s", ticker, cost, p.cash)
	}
	p.cash = p.cash.Sub(cost)

	pos, ok := p.positions[ticker]
	if !ok {
		p.positions[ticker] = portfolio.Position{
			Ticker:       ticker,
			Quantity:     quantity,
			AveragePrice: price,
			CurrentPrice: price,
			MarketValue:  cost,
			Direction:    portfolio.Long,
		}
		return nil
	}

	total := pos.Quantity.Add(quantity)
	pos.AveragePrice = pos.CostBasis().Add(cost).Div(total)
	pos.Quantity = total
	pos.CurrentPrice = price
	pos.MarketValue = price.Mul(total)
	pos.UnrealizedPNL = pos.MarketValue.Sub(pos.CostBasis())
	p.positions[ticker] = pos
	return nil
}

func (p *Paper) fillSell(ticker string, quantity, price decimal.Decimal) error {
	pos, ok := p.positions[ticker]
	if !ok {
		return fmt.Errorf("paper sell %s: no open position", ticker)
	}
	if quantity.GreaterThan(pos.Quantity) {
		return fmt.Errorf("paper sell %s: quantity %s exceeds held %s", ticker, quantity, pos.Quantity)
	}

	p.cash = p.cash.Add(price.Mul(quantity))

	remaining := pos.Quantity.Sub(quantity)
	if remaining.IsZero() {
		delete(p.positions, ticker)
		return nil
	}
	pos.Quantity = remaining
	pos.CurrentPrice = price
	pos.MarketValue = price.Mul(remaining)
	pos.UnrealizedPNL = pos.MarketValue.Sub(pos.CostBasis())
	p.positions[ticker] = pos
	return nil
}

// ClosePositions implements Broker. Unknown tickers are skipped.
func (p *Paper) ClosePositions(ctx context.Context, tickers []string) error {
	for _, ticker := range tickers {
		pos, ok := p.positions[ticker]
		if !ok {
			continue
		}

		price, err := p.quote(ctx, ticker)
		if err != nil {
			return fmt.Errorf("paper close quote %s: %w", ticker, err)
		}
		if err := p.fillSell(ticker, pos.Quantity, price); err != nil {
			return err
		}

		p.log.Info("paper position closed",
			zap.String("ticker", ticker),
			zap.String("price", price.String()))
	}
	return nil
}
