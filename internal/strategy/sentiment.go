package strategy

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/tradepulse/tradepulse/internal/market"
	"github.com/tradepulse/tradepulse/internal/provider"
)

// Word lists for the headline scorer. Matching is case-insensitive and
// word-bounded so "upgrade" does not fire on "upgraded" twice.
var (
	bullishPattern = regexp.MustCompile(`(?i)\b(surge[sd]?|soar(s|ed)?|rall(y|ies|ied)|gain(s|ed)?|jump(s|ed)?|beat(s)?|record|upgrade[sd]?|outperform(s|ed)?|strong|bullish|growth|profit(s)?|buyback)\b`)
	bearishPattern = regexp.MustCompile(`(?i)\b(plunge[sd]?|tumble[sd]?|sink(s)?|sank|drop(s|ped)?|fall(s)?|fell|miss(es|ed)?|downgrade[sd]?|underperform(s|ed)?|weak|bearish|loss(es)?|lawsuit|recall|layoff(s)?|bankrupt(cy)?)\b`)
)

// Sentiment compares today's news tone with yesterday's: improving tone is a
// buy, deteriorating tone a sell. Article bodies are fetched when a feed item
// carries no summary.
type Sentiment struct {
	svc          *market.Service
	providerName string
	articles     *provider.ArticleFetcher
	log          *zap.Logger

	now func() time.Time
}

// NewSentiment creates a sentiment strategy reading news from the named
// provider. articles may be nil to score headlines and summaries only.
func NewSentiment(svc *market.Service, providerName string, articles *provider.ArticleFetcher, log *zap.Logger) *Sentiment {
	return &Sentiment{
		svc:          svc,
		providerName: providerName,
		articles:     articles,
		log:          log,
		now:          time.Now,
	}
}

// Name implements Strategy.
func (s *Sentiment) Name() string { return "sentiment" }

// GenerateSignals implements Strategy.
func (s *Sentiment) GenerateSignals(ctx context.Context, tickers []string) (map[string]Signal, error) {
	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	signals := make(map[string]Signal, len(tickers))

	for _, ticker := range tickers {
		items, err := s.svc.News(ctx, s.providerName, ticker, yesterdayStart, now)
		if err != nil {
			return nil, fmt.Errorf("sentiment %s: %w", ticker, err)
		}

		var today, yesterday []provider.NewsItem
		for _, item := range items {
			if item.PublishedAt.Before(todayStart) {
				yesterday = append(yesterday, item)
			} else {
				today = append(today, item)
			}
		}

		todayScore := s.scoreItems(ctx, today)
		yesterdayScore := s.scoreItems(ctx, yesterday)

		signal := Hold
		switch {
		case todayScore > yesterdayScore:
			signal = Buy
		case todayScore < yesterdayScore:
			signal = Sell
		}
		signals[ticker] = signal

		s.log.Debug("sentiment signal",
			zap.String("ticker", ticker),
			zap.Float64("today", todayScore),
			zap.Float64("yesterday", yesterdayScore),
			zap.Int("articles", len(items)),
			zap.String("signal", string(signal)))
	}

	return signals, nil
}

// scoreItems averages the per-article scores; no articles scores neutral.
func (s *Sentiment) scoreItems(ctx context.Context, items []provider.NewsItem) float64 {
	if len(items) == 0 {
		return 0
	}

	var total float64
	for _, item := range items {
		// A vendor-supplied score wins over the lexicon.
		if item.Sentiment != 0 {
			total += item.Sentiment
			continue
		}

		text := item.Title + " " + item.Summary
		if item.Summary == "" && s.articles != nil && item.URL != "" {
			body, err := s.articles.FetchText(ctx, item.URL)
			if err != nil {
				s.log.Debug("article fetch failed, scoring headline only",
					zap.String("url", item.URL), zap.Error(err))
			} else {
				text += " " + body
			}
		}
		total += scoreText(text)
	}
	return total / float64(len(items))
}

// scoreText returns the lexicon tone of text in [-1, 1].
func scoreText(text string) float64 {
	bullish := len(bullishPattern.FindAllStringIndex(text, -1))
	bearish := len(bearishPattern.FindAllStringIndex(text, -1))
	if bullish+bearish == 0 {
		return 0
	}
	return float64(bullish-bearish) / float64(bullish+bearish)
}
