// Package sampler polls the active instrument's price on a fixed period and
// publishes accepted samples.
//
// Consecutive identical prices for the same symbol are dropped here, not in
// the series. Disable bumps a generation counter; a fetch that started under
// an older generation is discarded when it completes.
package sampler

import (
	"context"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// DefaultInterval is the overlay sampling period.
const DefaultInterval = 2 * time.Second

// Stats counts sampler outcomes.
type Stats struct {
	Emitted    uint64
	Duplicates uint64
	Stale      uint64
	Missing    uint64
}

// Sampler pulls prices from a PriceSource for the symbol reported by a
// SymbolSource.
type Sampler struct {
	prices   model.PriceSource
	symbols  model.SymbolSource
	interval time.Duration
	out      chan<- model.PriceSample
	now      func() time.Time

	// OnSymbolChange is called (from the sampling goroutine) when the active
	// symbol differs from the previous sample's.
	OnSymbolChange func(prev, next string)

	gen     atomic.Uint64
	enabled atomic.Bool

	mu         sync.Mutex
	lastSymbol string
	lastPrice  float64
	hasLast    bool

	emitted, duplicates, stale, missing atomic.Uint64
}

// New creates a sampler writing accepted samples to out. The sampler starts enabled.
func New(prices model.PriceSource, symbols model.SymbolSource, interval time.Duration, out chan<- model.PriceSample) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Sampler{
		prices:   prices,
		symbols:  symbols,
		interval: interval,
		out:      out,
		now:      time.Now,
	}
	s.enabled.Store(true)
	return s
}

// Enable resumes sampling under a fresh generation.
func (s *Sampler) Enable() {
	s.gen.Add(1)
	s.enabled.Store(true)
}

// Disable stops sampling. In-flight fetches complete but their results are dropped.
func (s *Sampler) Disable() {
	s.enabled.Store(false)
	s.gen.Add(1)
}

// Enabled reports whether sampling is active.
func (s *Sampler) Enabled() bool { return s.enabled.Load() }

// Run polls every interval until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[sampler] started (interval=%s)", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[sampler] stopped: emitted=%d dup=%d stale=%d",
				s.emitted.Load(), s.duplicates.Load(), s.stale.Load())
			return
		case <-ticker.C:
			s.Poll(ctx)
		}
	}
}

// Poll performs one sampling cycle. It returns the emitted sample, or
// ok=false when nothing was published.
func (s *Sampler) Poll(ctx context.Context) (model.PriceSample, bool) {
	if !s.enabled.Load() {
		return model.PriceSample{}, false
	}
	gen := s.gen.Load()

	symbol := s.symbols.CurrentSymbol(ctx)
	if symbol == "" {
		s.missing.Add(1)
		return model.PriceSample{}, false
	}
	price, ok := s.prices.CurrentPrice(ctx, symbol)

	if gen != s.gen.Load() || !s.enabled.Load() {
		s.stale.Add(1)
		return model.PriceSample{}, false
	}
	if !ok || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		s.missing.Add(1)
		return model.PriceSample{}, false
	}

	s.mu.Lock()
	if s.hasLast && s.lastSymbol != symbol && s.OnSymbolChange != nil {
		s.OnSymbolChange(s.lastSymbol, symbol)
	}
	if s.hasLast && s.lastSymbol == symbol && s.lastPrice == price {
		s.mu.Unlock()
		s.duplicates.Add(1)
		return model.PriceSample{}, false
	}
	s.lastSymbol, s.lastPrice, s.hasLast = symbol, price, true
	s.mu.Unlock()

	sample := model.PriceSample{Symbol: symbol, Price: price, TS: s.now().UTC()}
	select {
	case s.out <- sample:
	case <-ctx.Done():
		return model.PriceSample{}, false
	}
	s.emitted.Add(1)
	return sample, true
}

// Stats returns a snapshot of the counters.
func (s *Sampler) Stats() Stats {
	return Stats{
		Emitted:    s.emitted.Load(),
		Duplicates: s.duplicates.Load(),
		Stale:      s.stale.Load(),
		Missing:    s.missing.Load(),
	}
}
