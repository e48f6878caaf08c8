package execution

import (
	"context"
	"fmt"
	"log"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// LiquidationResult lists what LiquidateAll sold and what it could not price.
type LiquidationResult struct {
	Sold    []model.HistoryEntry `json:"sold"`
	Skipped []string             `json:"skipped,omitempty"` // position IDs without a price
}

// LiquidateAll sells every open position, one at a time. The ledger is
// re-read before each sale, so a position closed concurrently (by the exit
// monitor, say) is simply not found and never sold twice. Positions with
// no price from quote are skipped and reported.
func (e *Engine) LiquidateAll(ctx context.Context, quote model.PriceSource) (LiquidationResult, error) {
	var res LiquidationResult
	attempted := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		positions, err := e.ledger.OpenPositions(ctx)
		if err != nil {
			return res, fmt.Errorf("execution: liquidate: %w", err)
		}

		var next *model.Position
		for i := range positions {
			if !attempted[positions[i].ID] {
				next = &positions[i]
				break
			}
		}
		if next == nil {
			break
		}
		attempted[next.ID] = true

		price, ok := quote.CurrentPrice(ctx, next.Symbol)
		if !ok || !validPrice(price) {
			log.Printf("[execution] liquidate: no price for %s, skipping position %s", next.Symbol, next.ID)
			res.Skipped = append(res.Skipped, next.ID)
			continue
		}

		fill, sold, err := e.SellPosition(ctx, *next, price, "liquidate all", "liquidate")
		if err != nil {
			return res, fmt.Errorf("execution: liquidate: %w", err)
		}
		if sold {
			res.Sold = append(res.Sold, fill.Entry)
		}
	}

	dec := model.Decision{
		Status:  model.StatusLiquidated,
		Message: fmt.Sprintf("sold %d position(s), skipped %d", len(res.Sold), len(res.Skipped)),
	}
	e.metrics.ObserveSignal(string(dec.Status))
	e.publish(Event{Kind: EventLiquidation, Decision: &dec})
	log.Printf("[execution] %s", dec.Message)
	return res, nil
}
