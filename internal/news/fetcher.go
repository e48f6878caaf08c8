package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// DefaultFeedURL is a public RSS search feed; {symbol} is substituted.
const DefaultFeedURL = "https://news.google.com/rss/search?q={symbol}+stock&hl=en-US&gl=US&ceid=US:en"

// Fetcher returns raw (unlabelled) headlines for a symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) ([]model.NewsItem, error)
}

// FeedFetcher reads an RSS/Atom feed built from a URL template.
type FeedFetcher struct {
	template string
	client   *http.Client
	maxItems int
}

// NewFeedFetcher creates a fetcher. Empty template uses DefaultFeedURL;
// a zero timeout means 10s.
func NewFeedFetcher(template string, timeout time.Duration) *FeedFetcher {
	if template == "" {
		template = DefaultFeedURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FeedFetcher{template: template, client: &http.Client{Timeout: timeout}, maxItems: 20}
}

func (f *FeedFetcher) Fetch(ctx context.Context, symbol string) ([]model.NewsItem, error) {
	u := strings.ReplaceAll(f.template, "{symbol}", url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "dreamtrade/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: status %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]model.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		item := model.NewsItem{Title: title, Link: it.Link}
		if it.PublishedParsed != nil {
			item.Published = it.PublishedParsed.UTC()
		}
		items = append(items, item)
		if len(items) == f.maxItems {
			break
		}
	}
	return items, nil
}
