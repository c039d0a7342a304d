package broker

import (
	"context"
	"fmt"
	"strings"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
	"github.com/longportapp/openapi-go/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

// Longport is the live brokerage connector, backed by the Longport OpenAPI
// trade and quote contexts. Quantities are rounded down to whole units at
// submission since the venue takes integer share counts.
type Longport struct {
	tradeCtx *trade.TradeContext
	quoteCtx *quote.QuoteContext

	// region is appended to bare tickers, e.g. "AAPL" becomes "AAPL.US".
	region string
	log    *zap.Logger
}

// LongportCredentials holds the three Longport OpenAPI secrets.
type LongportCredentials struct {
	AppKey      string
	AppSecret   string
	AccessToken string
}

// NewLongport connects to the Longport OpenAPI with the given credentials.
func NewLongport(creds LongportCredentials, region string, log *zap.Logger) (*Longport, error) {
	if creds.AppKey == "" || creds.AppSecret == "" || creds.AccessToken == "" {
		return nil, fmt.Errorf("longport credentials not configured")
	}
	if region == "" {
		region = "US"
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(creds.AppKey, creds.AppSecret, creds.AccessToken))
	if err != nil {
		return nil, fmt.Errorf("longport config: %w", err)
	}

	tradeCtx, err := trade.NewFromCfg(conf)
	if err != nil {
		return nil, fmt.Errorf("longport trade context: %w", err)
	}

	quoteCtx, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, fmt.Errorf("longport quote context: %w", err)
	}

	return &Longport{
		tradeCtx: tradeCtx,
		quoteCtx: quoteCtx,
		region:   region,
		log:      log,
	}, nil
}

// Name implements Broker.
func (l *Longport) Name() string { return "longport" }

func (l *Longport) symbol(ticker string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + "." + l.region
}

func stripRegion(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i > 0 {
		return symbol[:i]
	}
	return symbol
}

func regionOf(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i > 0 {
		return symbol[i+1:]
	}
	return ""
}

// Positions implements Broker.
func (l *Longport) Positions(ctx context.Context) ([]portfolio.Position, error) {
	channels, err := l.tradeCtx.StockPositions(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("longport stock positions: %w", err)
	}

	var out []portfolio.Position
	for _, channel := range channels {
		for _, pos := range channel.Positions {
			quantity, err := decimal.NewFromString(pos.Quantity)
			if err != nil {
				return nil, fmt.Errorf("longport position %s quantity %q: %w", pos.Symbol, pos.Quantity, err)
			}
			if pos.CostPrice == nil {
				return nil, fmt.Errorf("longport position %s: no cost price", pos.Symbol)
			}
			costPrice := *pos.CostPrice

			price, err := l.lastDone(ctx, pos.Symbol)
			if err != nil {
				return nil, err
			}

			direction := portfolio.Long
			if quantity.IsNegative() {
				direction = portfolio.Short
				quantity = quantity.Abs()
			}

			marketValue := price.Mul(quantity)
			out = append(out, portfolio.Position{
				Ticker:        stripRegion(pos.Symbol),
				Exchange:      regionOf(pos.Symbol),
				Quantity:      quantity,
				AveragePrice:  costPrice,
				CurrentPrice:  price,
				MarketValue:   marketValue,
				UnrealizedPNL: marketValue.Sub(costPrice.Mul(quantity)),
				Direction:     direction,
			})
		}
	}
	return out, nil
}

func (l *Longport) lastDone(ctx context.Context, symbol string) (decimal.Decimal, error) {
	quotes, err := l.quoteCtx.Quote(ctx, []string{symbol})
	if err != nil {
		return decimal.Zero, fmt.Errorf("longport quote %s: %w", symbol, err)
	}
	if len(quotes) == 0 || quotes[0].LastDone == nil {
		return decimal.Zero, fmt.Errorf("longport quote %s: empty response", symbol)
	}
	return *quotes[0].LastDone, nil
}

// Cash implements Broker.
func (l *Longport) Cash(ctx context.Context) (decimal.Decimal, error) {
	balances, err := l.tradeCtx.AccountBalance(ctx, &trade.GetAccountBalance{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("longport account balance: %w", err)
	}
	if len(balances) == 0 || balances[0].TotalCash == nil {
		return decimal.Zero, fmt.Errorf("longport account balance: empty response")
	}
	return *balances[0].TotalCash, nil
}

// Equity implements Broker.
func (l *Longport) Equity(ctx context.Context) (decimal.Decimal, error) {
	balances, err := l.tradeCtx.AccountBalance(ctx, &trade.GetAccountBalance{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("longport account balance: %w", err)
	}
	if len(balances) == 0 || balances[0].NetAssets == nil {
		return decimal.Zero, fmt.Errorf("longport account balance: empty response")
	}
	return *balances[0].NetAssets, nil
}

// PlaceOrders implements Broker.
func (l *Longport) PlaceOrders(ctx context.Context, orders []Order) error {
	for _, order := range orders {
		if order.Signal == strategy.Hold || !order.Quantity.IsPositive() {
			continue
		}

		side := trade.OrderSideBuy
		if order.Signal == strategy.Sell {
			side = trade.OrderSideSell
		}

		submission := &trade.SubmitOrder{
			Symbol:            l.symbol(order.Ticker),
			OrderType:         trade.OrderTypeMO,
			Side:              side,
			SubmittedQuantity: uint64(order.Quantity.IntPart()),
			TimeInForce:       trade.TimeTypeDay,
		}
		if order.Type == Limit && !order.LimitPrice.IsZero() {
			submission.OrderType = trade.OrderTypeLO
			submission.SubmittedPrice = order.LimitPrice
		}
		if submission.SubmittedQuantity == 0 {
			continue
		}

		orderID, err := l.tradeCtx.SubmitOrder(ctx, submission)
		if err != nil {
			return fmt.Errorf("longport submit %s %s: %w", order.Signal, order.Ticker, err)
		}

		l.log.Info("longport order submitted",
			zap.String("ticker", order.Ticker),
			zap.String("side", string(order.Signal)),
			zap.Uint64("quantity", submission.SubmittedQuantity),
			zap.String("order_id", orderID))
	}
	return nil
}

// ClosePositions implements Broker. Each ticker's full held quantity is sold
// at market; tickers with no open position are skipped.
func (l *Longport) ClosePositions(ctx context.Context, tickers []string) error {
	positions, err := l.Positions(ctx)
	if err != nil {
		return err
	}
	held := make(map[string]portfolio.Position, len(positions))
	for _, pos := range positions {
		held[pos.Ticker] = pos
	}

	var orders []Order
	for _, ticker := range tickers {
		pos, ok := held[ticker]
		if !ok {
			continue
		}
		orders = append(orders, Order{
			Ticker:   ticker,
			Signal:   strategy.Sell,
			Quantity: pos.Quantity,
			Type:     Market,
		})
	}
	return l.PlaceOrders(ctx, orders)
}
