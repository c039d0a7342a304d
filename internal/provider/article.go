package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// ArticleFetcher pulls the body text of a news article from its URL. It backs
// the sentiment scoring when a vendor feed carries headlines without
// summaries.
type ArticleFetcher struct {
	client *resty.Client
	cache  *Cache
}

// NewArticleFetcher creates an article fetcher. cache may be nil.
func NewArticleFetcher(cache *Cache) *ArticleFetcher {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; TradePulse/1.0)")

	return &ArticleFetcher{
		client: client,
		cache:  cache,
	}
}

// FetchText returns the readable text of the article at url, paragraphs
// joined by newlines.
func (af *ArticleFetcher) FetchText(ctx context.Context, url string) (string, error) {
	var cached string
	if af.cache.Get("article", "text", url, &cached) {
		return cached, nil
	}

	resp, err := af.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch article %s: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("fetch article %s: HTTP %d", url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", fmt.Errorf("parse article %s: %w", url, err)
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	var paragraphs []string
	doc.Find("article p, main p, p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) < 40 {
			return
		}
		paragraphs = append(paragraphs, text)
	})

	text := strings.Join(paragraphs, "\n")
	af.cache.Set("article", "text", url, text)
	return text, nil
}
