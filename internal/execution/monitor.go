package execution

import (
	"context"
	"log"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// DefaultExitInterval is how often open positions are re-priced.
const DefaultExitInterval = 5 * time.Second

// ExitMonitor periodically prices every open position and sells those the
// engine's exit policy flags.
type ExitMonitor struct {
	engine   *Engine
	prices   model.PriceSource
	interval time.Duration
}

// NewExitMonitor creates a monitor. A zero interval means DefaultExitInterval.
func NewExitMonitor(engine *Engine, prices model.PriceSource, interval time.Duration) *ExitMonitor {
	if interval <= 0 {
		interval = DefaultExitInterval
	}
	return &ExitMonitor{engine: engine, prices: prices, interval: interval}
}

// Run ticks until ctx is cancelled.
func (m *ExitMonitor) Run(ctx context.Context) {
	log.Printf("[exit] monitor started: policy=%s interval=%s", m.engine.exit.Name(), m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := m.Tick(ctx); err != nil {
				log.Printf("[exit] tick failed after %d sells: %v", n, err)
			}
		}
	}
}

// Tick evaluates every open position once and returns how many were sold.
// Positions without a price this tick are left alone.
func (m *ExitMonitor) Tick(ctx context.Context) (int, error) {
	positions, err := m.engine.ledger.OpenPositions(ctx)
	if err != nil {
		return 0, err
	}

	// One quote per symbol per tick.
	quotes := make(map[string]float64)
	sold := 0
	for _, pos := range positions {
		price, seen := quotes[pos.Symbol]
		if !seen {
			p, ok := m.prices.CurrentPrice(ctx, pos.Symbol)
			if !ok {
				quotes[pos.Symbol] = 0
				continue
			}
			price = p
			quotes[pos.Symbol] = p
		}
		if price == 0 {
			continue
		}

		d := m.engine.exit.Evaluate(pos, price)
		if !d.ShouldSell() {
			continue
		}
		_, ok, err := m.engine.SellPosition(ctx, pos, price, string(d.Action)+": "+d.Reason, m.engine.exit.Name())
		if err != nil {
			return sold, err
		}
		if ok {
			sold++
		}
	}
	return sold, nil
}
