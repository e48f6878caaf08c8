// Package quotesim serves random-walk quotes for local runs of the overlay
// agent and the exit monitor without a real market data feed.
package quotesim

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultStart is the opening price of a symbol seen for the first time.
const DefaultStart = 100.0

// Quote is the JSON body served for one symbol.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	TS     time.Time `json:"ts"`
}

// Market holds per-symbol simulated prices. Safe for concurrent use.
type Market struct {
	mu     sync.Mutex
	prices map[string]float64
	rng    *rand.Rand
	step   float64 // max fractional move per Walk
}

// NewMarket creates a market seeded with starting prices. step is the
// maximum fractional move per tick; zero means 0.1%.
func NewMarket(start map[string]float64, step float64, seed int64) *Market {
	if step <= 0 {
		step = 0.001
	}
	m := &Market{prices: make(map[string]float64, len(start)), rng: rand.New(rand.NewSource(seed)), step: step}
	for s, p := range start {
		m.prices[strings.ToUpper(s)] = p
	}
	return m
}

// Walk moves every symbol by a uniform step in [-step, +step], floored at 0.01.
func (m *Market) Walk() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for s, p := range m.prices {
		m.prices[s] = walk(p, (m.rng.Float64()*2-1)*m.step)
	}
}

func walk(price, pct float64) float64 {
	next := math.Round(price*(1+pct)*100) / 100
	if next < 0.01 {
		next = 0.01
	}
	return next
}

// Price returns the symbol's price, opening it at DefaultStart if new.
func (m *Market) Price(symbol string) float64 {
	symbol = strings.ToUpper(symbol)
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[symbol]
	if !ok {
		p = DefaultStart
		m.prices[symbol] = p
	}
	return p
}

// Run walks prices every interval until ctx is cancelled.
func (m *Market) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Walk()
		}
	}
}

// Router serves GET /quote?symbol=X and /health.
func (m *Market) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/quote", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		if symbol == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "symbol is required"})
			return
		}
		json.NewEncoder(w).Encode(Quote{Symbol: strings.ToUpper(symbol), Price: m.Price(symbol), TS: time.Now().UTC()})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"quoteserver"}`))
	})
	return r
}
