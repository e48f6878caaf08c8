package strategy

import (
	"fmt"
	"sync"

	"github.com/abhay-codes07/dream-trade-bot/internal/indicator"
)

// DefaultOversold is the RSI level below which the entry rule buys.
const DefaultOversold = 30.0

// RSIOversold buys when RSI is strictly below Threshold.
type RSIOversold struct {
	Threshold float64

	mu       sync.Mutex
	oversold map[string]bool
}

// NewRSIOversold creates the rule. threshold <= 0 uses DefaultOversold.
func NewRSIOversold(threshold float64) *RSIOversold {
	if threshold <= 0 {
		threshold = DefaultOversold
	}
	return &RSIOversold{Threshold: threshold, oversold: make(map[string]bool)}
}

func (r *RSIOversold) Name() string { return "RSI_Oversold" }

// Decide applies the rule to an already resolved RSI.
func (r *RSIOversold) Decide(symbol string, price, rsi float64) Signal {
	sig := Signal{
		StrategyName: r.Name(),
		Symbol:       symbol,
		Price:        price,
		RSI:          &rsi,
	}
	if rsi < r.Threshold {
		sig.Action = ActionBuy
		sig.Reason = fmt.Sprintf("RSI %.2f < %.0f", rsi, r.Threshold)
	} else {
		sig.Action = ActionHold
		sig.Reason = fmt.Sprintf("RSI %.2f >= %.0f", rsi, r.Threshold)
	}
	return sig
}

// OnSnapshot emits a BUY when a symbol's RSI first drops below the
// threshold. It re-arms once RSI is back at or above it, so a long
// oversold stretch produces a single signal.
func (r *RSIOversold) OnSnapshot(s indicator.Snapshot) *Signal {
	if s.RSI == nil {
		return nil
	}
	sig := r.Decide(s.Symbol, s.Price, *s.RSI)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.oversold == nil {
		r.oversold = make(map[string]bool)
	}
	was := r.oversold[s.Symbol]
	r.oversold[s.Symbol] = sig.Action == ActionBuy
	if sig.Action != ActionBuy || was {
		return nil
	}
	return &sig
}
