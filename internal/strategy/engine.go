// Package strategy holds the entry rule that turns indicator readings into
// BUY signals, and the pluggable exit policies that decide when an open
// position is sold.
//
// The Engine routes indicator snapshots to registered strategies and
// collects the signals they emit.
package strategy

import (
	"context"

	"github.com/abhay-codes07/dream-trade-bot/internal/indicator"
)

// Action represents a trading action.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Signal represents a trading signal emitted by a strategy.
type Signal struct {
	StrategyName string   `json:"strategy_name"`
	Action       Action   `json:"action"`
	Symbol       string   `json:"symbol"`
	Price        float64  `json:"price"`
	RSI          *float64 `json:"rsi,omitempty"`
	Reason       string   `json:"reason"`
}

// Strategy reacts to indicator snapshots.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// OnSnapshot is called for each refreshed snapshot.
	// Return a Signal if the strategy wants to act, or nil to skip.
	OnSnapshot(s indicator.Snapshot) *Signal
}

// Engine manages registered strategies and routes snapshots to them.
type Engine struct {
	strategies []Strategy
	signalCh   chan Signal
}

// NewEngine creates a new strategy engine.
func NewEngine(signalBufferSize int) *Engine {
	return &Engine{
		signalCh: make(chan Signal, signalBufferSize),
	}
}

// Register adds a strategy to the engine.
func (e *Engine) Register(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// Signals returns the channel of signals emitted by strategies.
func (e *Engine) Signals() <-chan Signal {
	return e.signalCh
}

// Run consumes snapshots and routes them to all registered strategies.
// Blocks until ctx is cancelled or snapCh is closed.
func (e *Engine) Run(ctx context.Context, snapCh <-chan indicator.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapCh:
			if !ok {
				return
			}
			for _, s := range e.strategies {
				if sig := s.OnSnapshot(snap); sig != nil {
					select {
					case e.signalCh <- *sig:
					default:
						// signal channel full, drop
					}
				}
			}
		}
	}
}
