package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// Summary is a point-in-time P&L view of an account.
type Summary struct {
	Balance       float64 `json:"balance"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Equity        float64 `json:"equity"` // balance + marked value of open positions
	OpenPositions int     `json:"open_positions"`
	Trades        int     `json:"trades"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
}

// Summarize computes realized P&L from SELL history and marks open
// positions at prices. Positions without a price are valued at entry.
func Summarize(acct *model.Account, prices map[string]float64) Summary {
	s := Summary{
		Balance:       acct.Balance,
		OpenPositions: len(acct.Positions),
		Trades:        len(acct.History),
	}

	realized := decimal.Zero
	for _, h := range acct.History {
		if h.Type != model.EntrySell || h.Profit == nil {
			continue
		}
		p := decimal.NewFromFloat(*h.Profit)
		realized = realized.Add(p)
		switch {
		case p.IsPositive():
			s.Wins++
		case p.IsNegative():
			s.Losses++
		}
	}

	unrealized := decimal.Zero
	marked := decimal.Zero
	for _, pos := range acct.Positions {
		qty := decimal.NewFromInt(pos.Qty)
		entry := decimal.NewFromFloat(pos.EntryPrice)
		px := entry
		if p, ok := prices[pos.Symbol]; ok && p > 0 {
			px = decimal.NewFromFloat(p)
		}
		unrealized = unrealized.Add(px.Sub(entry).Mul(qty))
		marked = marked.Add(px.Mul(qty))
	}

	s.RealizedPnL = realized.InexactFloat64()
	s.UnrealizedPnL = unrealized.InexactFloat64()
	s.Equity = decimal.NewFromFloat(acct.Balance).Add(marked).InexactFloat64()
	return s
}
