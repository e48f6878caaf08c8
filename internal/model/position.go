package model

import "time"

// Position is an open long position in the virtual portfolio.
type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	EntryPrice float64   `json:"entryPrice"`
	Qty        int64     `json:"qty"`
	OpenedAt   time.Time `json:"openedAt"`
}

// UnrealizedPnL returns the profit/loss of the position at the given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * float64(p.Qty)
}

// ReturnPct returns (price-entry)/entry, or 0 for a non-positive entry price.
func (p *Position) ReturnPct(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice
}
