package indicator

import (
	"context"
	"sync"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/ringbuf"
)

// TrackerConfig sizes the per-symbol buffers.
type TrackerConfig struct {
	RSIPeriod      int  // Wilder lookback (default 14)
	HistoryCap     int  // RSI history length (default 250)
	MomentumWindow int  // momentum window (default 12)
	TrailPoints    int  // RSI points kept for charting (default 30)
	Incremental    bool // use the O(1) RSI instead of a full recompute
}

func (c TrackerConfig) withDefaults() TrackerConfig {
	if c.RSIPeriod < 1 {
		c.RSIPeriod = DefaultRSIPeriod
	}
	if c.HistoryCap < 1 {
		c.HistoryCap = 250
	}
	if c.MomentumWindow < 1 {
		c.MomentumWindow = 12
	}
	if c.TrailPoints < 0 {
		c.TrailPoints = 0
	} else if c.TrailPoints == 0 {
		c.TrailPoints = 30
	}
	return c
}

// Snapshot is the indicator view of one symbol after a sample.
type Snapshot struct {
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	RSI      *float64  `json:"rsi,omitempty"`
	RSITrail []float64 `json:"rsi_trail,omitempty"`
	Momentum Momentum  `json:"momentum"`
	Samples  int       `json:"samples"`
}

type symbolState struct {
	history  *ringbuf.Series
	momentum *ringbuf.Series
	rsi      *RSI
	last     Snapshot
}

// Tracker keeps bounded price history per symbol and recomputes RSI and
// momentum on every accepted sample. Safe for concurrent use.
type Tracker struct {
	cfg TrackerConfig

	mu    sync.RWMutex
	state map[string]*symbolState
}

// NewTracker creates a tracker with the given buffer sizes.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{
		cfg:   cfg.withDefaults(),
		state: make(map[string]*symbolState, 8),
	}
}

// Process appends a sample and returns the refreshed snapshot.
// Non-finite prices leave the state untouched and ok=false.
func (t *Tracker) Process(s model.PriceSample) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, exists := t.state[s.Symbol]
	if !exists {
		st = &symbolState{
			history:  ringbuf.New(t.cfg.HistoryCap),
			momentum: ringbuf.New(t.cfg.MomentumWindow),
			rsi:      NewRSI(t.cfg.RSIPeriod),
		}
		t.state[s.Symbol] = st
	}

	if !st.history.Push(s.Price) {
		return st.last, false
	}
	st.momentum.Push(s.Price)
	st.rsi.Update(s.Price)

	closes := st.history.Values()
	snap := Snapshot{
		Symbol:   s.Symbol,
		Price:    s.Price,
		Momentum: ComputeMomentum(st.momentum.Values()),
		Samples:  len(closes),
	}

	if t.cfg.Incremental {
		// The incremental RSI never forgets evicted closes, so it can drift
		// from the batch value once the history is full.
		if st.rsi.Ready() {
			v := Round2(st.rsi.Value())
			snap.RSI = &v
		}
	} else if v, ok := ComputeRSI(closes, t.cfg.RSIPeriod); ok {
		snap.RSI = &v
	}
	snap.RSITrail = RSISeries(closes, t.cfg.RSIPeriod, t.cfg.TrailPoints)

	st.last = snap
	return snap, true
}

// Latest returns the most recent snapshot for symbol.
func (t *Tracker) Latest(symbol string) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.state[symbol]
	if !ok || st.last.Samples == 0 {
		return Snapshot{}, false
	}
	return st.last, true
}

// Closes returns a copy of the retained closes for symbol, oldest first.
func (t *Tracker) Closes(symbol string) []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.state[symbol]
	if !ok {
		return nil
	}
	return st.history.Values()
}

// Reset drops all state for symbol (e.g. when the viewed symbol changes).
func (t *Tracker) Reset(symbol string) {
	t.mu.Lock()
	delete(t.state, symbol)
	t.mu.Unlock()
}

// Run consumes samples and emits snapshots. Blocks until ctx done or in closes.
func (t *Tracker) Run(ctx context.Context, in <-chan model.PriceSample, out chan<- Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-in:
			if !ok {
				return
			}
			snap, accepted := t.Process(s)
			if !accepted || out == nil {
				continue
			}
			select {
			case out <- snap:
			default:
				// drop if channel full
			}
		}
	}
}
