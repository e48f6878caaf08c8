package strategy

import (
	"fmt"
	"sync"

	"github.com/abhay-codes07/dream-trade-bot/internal/indicator"
	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/ringbuf"
)

// ExitAction is the verdict of an exit policy for one observation.
type ExitAction string

const (
	ExitHold       ExitAction = "HOLD"
	ExitSell       ExitAction = "SELL"        // trailing stop hit
	ExitSellProfit ExitAction = "SELL_PROFIT" // take-profit band
	ExitSellLoss   ExitAction = "SELL_LOSS"   // stop-loss band
	ExitSellNow    ExitAction = "SELL_NOW"    // ATR trailing stop
)

// ExitDecision is what an exit policy returns.
type ExitDecision struct {
	Action ExitAction `json:"action"`
	Reason string     `json:"reason"`
}

// ShouldSell reports whether the decision closes the position.
func (d ExitDecision) ShouldSell() bool { return d.Action != ExitHold }

// ExitStrategy decides whether an open position should be sold at price.
// Implementations may keep per-symbol state; Forget drops it after a sale.
type ExitStrategy interface {
	Name() string
	Evaluate(pos model.Position, price float64) ExitDecision
	Forget(symbol string)
}

// ── Trailing stop ──

// TrailingStop sells when price falls Drawdown below the highest price
// observed for the symbol since monitoring began.
type TrailingStop struct {
	Drawdown float64 // fraction, e.g. 0.02

	mu    sync.Mutex
	peaks map[string]float64
}

// NewTrailingStop creates a trailing stop. drawdown <= 0 uses 2%.
func NewTrailingStop(drawdown float64) *TrailingStop {
	if drawdown <= 0 {
		drawdown = 0.02
	}
	return &TrailingStop{Drawdown: drawdown, peaks: make(map[string]float64)}
}

func (t *TrailingStop) Name() string { return "trailing" }

func (t *TrailingStop) Evaluate(pos model.Position, price float64) ExitDecision {
	t.mu.Lock()
	peak := t.peaks[pos.Symbol]
	if price > peak {
		peak = price
		t.peaks[pos.Symbol] = peak
	}
	t.mu.Unlock()

	stop := peak * (1 - t.Drawdown)
	if price <= stop {
		return ExitDecision{
			Action: ExitSell,
			Reason: fmt.Sprintf("trailing stop: %.4f <= %.4f (peak %.4f)", price, stop, peak),
		}
	}
	return ExitDecision{Action: ExitHold}
}

// Peak returns the tracked peak for symbol.
func (t *TrailingStop) Peak(symbol string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peaks[symbol]
	return p, ok
}

func (t *TrailingStop) Forget(symbol string) {
	t.mu.Lock()
	delete(t.peaks, symbol)
	t.mu.Unlock()
}

// ── Fixed profit / loss bands ──

// ProfitLossBands sells at a fixed return above or below the entry price.
// Stateless.
type ProfitLossBands struct {
	TakeProfit float64 // e.g. 0.02
	StopLoss   float64 // e.g. 0.01, compared against -StopLoss
}

// NewProfitLossBands creates the band policy; zero values use 2% / 1%.
func NewProfitLossBands(takeProfit, stopLoss float64) *ProfitLossBands {
	if takeProfit <= 0 {
		takeProfit = 0.02
	}
	if stopLoss <= 0 {
		stopLoss = 0.01
	}
	return &ProfitLossBands{TakeProfit: takeProfit, StopLoss: stopLoss}
}

func (b *ProfitLossBands) Name() string { return "bands" }

func (b *ProfitLossBands) Evaluate(pos model.Position, price float64) ExitDecision {
	ret := pos.ReturnPct(price)
	switch {
	case ret >= b.TakeProfit:
		return ExitDecision{Action: ExitSellProfit, Reason: fmt.Sprintf("take profit: %+.2f%%", ret*100)}
	case ret <= -b.StopLoss:
		return ExitDecision{Action: ExitSellLoss, Reason: fmt.Sprintf("stop loss: %+.2f%%", ret*100)}
	default:
		return ExitDecision{Action: ExitHold}
	}
}

func (b *ProfitLossBands) Forget(string) {}

// ── ATR trailing stop ──

// DefaultATRMultiplier is the ATR distance below the high at which to sell.
const DefaultATRMultiplier = 2.0

// BestExit returns SELL_NOW when current <= high - atr*multiplier.
func BestExit(current, high, atr, multiplier float64) ExitAction {
	if current <= high-atr*multiplier {
		return ExitSellNow
	}
	return ExitHold
}

// ATRTrailing sells when price drops Multiplier ATRs below the highest
// observed price. ATR is the close-to-close average over Period
// observations; it holds until enough observations exist.
type ATRTrailing struct {
	Period     int
	Multiplier float64

	mu    sync.Mutex
	state map[string]*atrState
}

type atrState struct {
	closes *ringbuf.Series
	high   float64
}

// NewATRTrailing creates the policy. Zero values use period 14, multiplier 2.
func NewATRTrailing(period int, multiplier float64) *ATRTrailing {
	if period < 1 {
		period = indicator.DefaultRSIPeriod
	}
	if multiplier <= 0 {
		multiplier = DefaultATRMultiplier
	}
	return &ATRTrailing{Period: period, Multiplier: multiplier, state: make(map[string]*atrState)}
}

func (a *ATRTrailing) Name() string { return "atr" }

func (a *ATRTrailing) Evaluate(pos model.Position, price float64) ExitDecision {
	a.mu.Lock()
	st, ok := a.state[pos.Symbol]
	if !ok {
		st = &atrState{closes: ringbuf.New(a.Period + 1)}
		a.state[pos.Symbol] = st
	}
	st.closes.Push(price)
	if price > st.high {
		st.high = price
	}
	high := st.high
	closes := st.closes.Values()
	a.mu.Unlock()

	atr, ready := indicator.CloseATR(closes, a.Period)
	if !ready {
		return ExitDecision{Action: ExitHold}
	}
	if BestExit(price, high, atr, a.Multiplier) == ExitSellNow {
		return ExitDecision{
			Action: ExitSellNow,
			Reason: fmt.Sprintf("ATR stop: %.4f <= %.4f - %.1f*%.4f", price, high, a.Multiplier, atr),
		}
	}
	return ExitDecision{Action: ExitHold}
}

func (a *ATRTrailing) Forget(symbol string) {
	a.mu.Lock()
	delete(a.state, symbol)
	a.mu.Unlock()
}

// NewExitStrategy builds the policy named by EXIT_STRATEGY.
func NewExitStrategy(name string) (ExitStrategy, error) {
	switch name {
	case "", "trailing":
		return NewTrailingStop(0.02), nil
	case "bands":
		return NewProfitLossBands(0.02, 0.01), nil
	case "atr":
		return NewATRTrailing(indicator.DefaultRSIPeriod, DefaultATRMultiplier), nil
	default:
		return nil, fmt.Errorf("unknown exit strategy %q (want trailing, bands or atr)", name)
	}
}
