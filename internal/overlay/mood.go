package overlay

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/risk"
)

// DefaultMoodInterval is the news mood refresh period.
const DefaultMoodInterval = 20 * time.Second

// MoodPoller refreshes the news report for the active symbol. Disable bumps
// a generation counter, so a fetch in flight when the poller is disabled
// (or re-enabled) is discarded instead of applied.
type MoodPoller struct {
	provider risk.MoodProvider
	symbols  model.SymbolSource
	interval time.Duration
	timeout  time.Duration

	gen     atomic.Uint64
	enabled atomic.Bool

	mu     sync.RWMutex
	latest *model.NewsReport
	err    error

	// OnUpdate receives each applied report.
	OnUpdate func(model.NewsReport)
}

func NewMoodPoller(provider risk.MoodProvider, symbols model.SymbolSource, interval time.Duration) *MoodPoller {
	if interval <= 0 {
		interval = DefaultMoodInterval
	}
	p := &MoodPoller{provider: provider, symbols: symbols, interval: interval, timeout: 10 * time.Second}
	p.enabled.Store(true)
	return p
}

func (p *MoodPoller) Enable() {
	p.gen.Add(1)
	p.enabled.Store(true)
}

func (p *MoodPoller) Disable() {
	p.gen.Add(1)
	p.enabled.Store(false)
}

func (p *MoodPoller) Enabled() bool { return p.enabled.Load() }

// Latest returns the last applied report and the last fetch error.
func (p *MoodPoller) Latest() (model.NewsReport, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return model.NewsReport{}, false, p.err
	}
	return *p.latest, true, p.err
}

// Run polls immediately and then every interval until ctx is cancelled.
func (p *MoodPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		p.Poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll fetches once. It reports whether the result was applied.
func (p *MoodPoller) Poll(ctx context.Context) bool {
	if !p.enabled.Load() {
		return false
	}
	gen := p.gen.Load()
	symbol := p.symbols.CurrentSymbol(ctx)
	if symbol == "" {
		return false
	}

	fctx, cancel := context.WithTimeout(ctx, p.timeout)
	report, err := p.provider.Report(fctx, symbol)
	cancel()

	if p.gen.Load() != gen || !p.enabled.Load() {
		log.Printf("[mood] discarding stale report for %s", symbol)
		return false
	}

	p.mu.Lock()
	if err != nil {
		p.err = err
		p.mu.Unlock()
		log.Printf("[mood] %s: %v", symbol, err)
		return false
	}
	p.latest, p.err = &report, nil
	p.mu.Unlock()

	if p.OnUpdate != nil {
		p.OnUpdate(report)
	}
	return true
}
