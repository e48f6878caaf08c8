package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

var (
	_ model.PriceSource = (*PriceBook)(nil)
	_ model.PriceSource = (*HTTPQuoteSource)(nil)
	_ model.PriceSource = StaticPrices(nil)
	_ model.PriceSource = QuoteChain(nil)
)

// PriceBook remembers the last valid price seen per symbol.
type PriceBook struct {
	mu     sync.RWMutex
	prices map[string]float64
}

func NewPriceBook() *PriceBook {
	return &PriceBook{prices: make(map[string]float64)}
}

// Set records price for symbol; invalid prices are ignored.
func (b *PriceBook) Set(symbol string, price float64) {
	if !validPrice(price) || symbol == "" {
		return
	}
	b.mu.Lock()
	b.prices[symbol] = price
	b.mu.Unlock()
}

func (b *PriceBook) CurrentPrice(_ context.Context, symbol string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.prices[symbol]
	return p, ok
}

// Snapshot returns a copy of all known prices.
func (b *PriceBook) Snapshot() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]float64, len(b.prices))
	for k, v := range b.prices {
		out[k] = v
	}
	return out
}

// StaticPrices is a fixed symbol → price map, e.g. from a liquidate request.
type StaticPrices map[string]float64

func (s StaticPrices) CurrentPrice(_ context.Context, symbol string) (float64, bool) {
	p, ok := s[symbol]
	if !ok || !validPrice(p) {
		return 0, false
	}
	return p, true
}

// UniformPrice quotes the same price for every symbol. It serves the
// single-instrument liquidate request carrying just {price}.
type UniformPrice float64

func (u UniformPrice) CurrentPrice(context.Context, string) (float64, bool) {
	p := float64(u)
	return p, validPrice(p)
}

// QuoteChain asks each source in order and returns the first usable price.
type QuoteChain []model.PriceSource

func (c QuoteChain) CurrentPrice(ctx context.Context, symbol string) (float64, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if p, ok := src.CurrentPrice(ctx, symbol); ok && validPrice(p) {
			return p, true
		}
	}
	return 0, false
}

// HTTPQuoteSource fetches a price from a URL template containing {symbol}.
// The response may be a bare number or a JSON object with a "price" field.
type HTTPQuoteSource struct {
	template string
	client   *http.Client
}

// NewHTTPQuoteSource creates a quote source. A zero timeout means 10s.
func NewHTTPQuoteSource(template string, timeout time.Duration) *HTTPQuoteSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPQuoteSource{template: template, client: &http.Client{Timeout: timeout}}
}

func (q *HTTPQuoteSource) CurrentPrice(ctx context.Context, symbol string) (float64, bool) {
	p, err := q.Fetch(ctx, symbol)
	if err != nil {
		log.Printf("[quotes] %s: %v", symbol, err)
		return 0, false
	}
	return p, true
}

// Fetch returns the quoted price or the failure reason.
func (q *HTTPQuoteSource) Fetch(ctx context.Context, symbol string) (float64, error) {
	u := strings.ReplaceAll(q.template, "{symbol}", url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}
	return ParsePrice(body)
}

// ParsePrice accepts "123.45", "1,234.5", or {"price": 123.45}. Thousands
// separators are stripped, as quote widgets usually render them.
func ParsePrice(body []byte) (float64, error) {
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") {
		var v struct {
			Price json.Number `json:"price"`
		}
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return 0, fmt.Errorf("decode: %w", err)
		}
		text = v.Price.String()
	}
	text = strings.Trim(strings.ReplaceAll(text, ",", ""), `"`)
	p, err := strconv.ParseFloat(text, 64)
	if err != nil || !validPrice(p) {
		return 0, fmt.Errorf("no usable price in %q", text)
	}
	return p, nil
}
