// Package portfolio owns the virtual account: cash balance, open positions
// and the fill history.
//
// The Ledger is the single writer. Each mutation loads the full document
// from the AccountStore, applies the change and saves it back before the
// next mutation may start.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

var (
	// ErrInsufficientFunds means balance < price; nothing was written.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoPosition means there is no open position for the symbol.
	ErrNoPosition = errors.New("no open position")
)

// Fill describes a completed ledger mutation.
type Fill struct {
	Entry    model.HistoryEntry `json:"entry"`
	Position model.Position     `json:"position"`
	Balance  float64            `json:"balance"`

	// Remaining is the number of positions still open for the symbol.
	Remaining     int `json:"remaining"`
	OpenPositions int `json:"openPositions"`
}

// Ledger serialises every account mutation.
type Ledger struct {
	mu      sync.Mutex
	store   model.AccountStore
	journal model.TradeJournal
	now     func() time.Time
	newID   func() string

	// OnFill is called after a fill has been persisted.
	OnFill func(Fill)
}

// NewLedger creates a ledger over store. journal may be nil.
func NewLedger(store model.AccountStore, journal model.TradeJournal) *Ledger {
	return &Ledger{
		store:   store,
		journal: journal,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Snapshot returns the current persisted account.
func (l *Ledger) Snapshot(ctx context.Context) (*model.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: load: %w", err)
	}
	return acct, nil
}

// OpenPositions returns the open positions, oldest first.
func (l *Ledger) OpenPositions(ctx context.Context) ([]model.Position, error) {
	acct, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return acct.Positions, nil
}

// Buy debits price and opens a one-unit position for symbol.
// Returns ErrInsufficientFunds, without saving, when balance < price.
func (l *Ledger) Buy(ctx context.Context, symbol string, price float64, reason string) (Fill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.store.Load(ctx)
	if err != nil {
		return Fill{}, fmt.Errorf("ledger: load: %w", err)
	}

	bal := decimal.NewFromFloat(acct.Balance)
	px := decimal.NewFromFloat(price)
	if bal.LessThan(px) {
		return Fill{Balance: acct.Balance}, ErrInsufficientFunds
	}

	now := l.now().UTC()
	pos := model.Position{
		ID:         l.newID(),
		Symbol:     symbol,
		EntryPrice: price,
		Qty:        1,
		OpenedAt:   now,
	}
	entry := model.HistoryEntry{
		ID:     l.newID(),
		Type:   model.EntryBuy,
		Symbol: symbol,
		Price:  price,
		Qty:    1,
		Reason: reason,
		At:     now,
	}

	acct.Balance = bal.Sub(px).InexactFloat64()
	acct.Positions = append(acct.Positions, pos)
	acct.History = append(acct.History, entry)

	if err := l.store.Save(ctx, acct); err != nil {
		return Fill{}, fmt.Errorf("ledger: save buy %s: %w", symbol, err)
	}

	remaining := 0
	for _, p := range acct.Positions {
		if p.Symbol == symbol {
			remaining++
		}
	}
	fill := Fill{Entry: entry, Position: pos, Balance: acct.Balance, Remaining: remaining, OpenPositions: len(acct.Positions)}
	l.afterFill(ctx, fill)
	log.Printf("[ledger] BUY %s @ %.4f, balance %.2f", symbol, price, acct.Balance)
	return fill, nil
}

// Sell closes the earliest open position for symbol at price. The realized
// profit is price - entryPrice. Returns ErrNoPosition, without saving, when
// nothing is open for symbol.
func (l *Ledger) Sell(ctx context.Context, symbol string, price float64, reason string) (Fill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.store.Load(ctx)
	if err != nil {
		return Fill{}, fmt.Errorf("ledger: load: %w", err)
	}
	idx := acct.FindPosition(symbol)
	if idx < 0 {
		return Fill{Balance: acct.Balance}, ErrNoPosition
	}
	return l.sellLocked(ctx, acct, idx, price, reason)
}

// SellPosition closes the open position with the given id. Returns
// ErrNoPosition when it is no longer open.
func (l *Ledger) SellPosition(ctx context.Context, id string, price float64, reason string) (Fill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.store.Load(ctx)
	if err != nil {
		return Fill{}, fmt.Errorf("ledger: load: %w", err)
	}
	for i := range acct.Positions {
		if acct.Positions[i].ID == id {
			return l.sellLocked(ctx, acct, i, price, reason)
		}
	}
	return Fill{Balance: acct.Balance}, ErrNoPosition
}

func (l *Ledger) sellLocked(ctx context.Context, acct *model.Account, idx int, price float64, reason string) (Fill, error) {
	pos := acct.Positions[idx]

	px := decimal.NewFromFloat(price)
	qty := decimal.NewFromInt(pos.Qty)
	profit := px.Sub(decimal.NewFromFloat(pos.EntryPrice)).Mul(qty).InexactFloat64()

	entry := model.HistoryEntry{
		ID:     l.newID(),
		Type:   model.EntrySell,
		Symbol: pos.Symbol,
		Price:  price,
		Qty:    pos.Qty,
		Profit: &profit,
		Reason: reason,
		At:     l.now().UTC(),
	}

	acct.Balance = decimal.NewFromFloat(acct.Balance).Add(px.Mul(qty)).InexactFloat64()
	acct.Positions = append(acct.Positions[:idx], acct.Positions[idx+1:]...)
	acct.History = append(acct.History, entry)

	if err := l.store.Save(ctx, acct); err != nil {
		return Fill{}, fmt.Errorf("ledger: save sell %s: %w", pos.Symbol, err)
	}

	remaining := 0
	for _, p := range acct.Positions {
		if p.Symbol == pos.Symbol {
			remaining++
		}
	}
	fill := Fill{Entry: entry, Position: pos, Balance: acct.Balance, Remaining: remaining, OpenPositions: len(acct.Positions)}
	l.afterFill(ctx, fill)
	log.Printf("[ledger] SELL %s @ %.4f profit %.4f (%s), balance %.2f", pos.Symbol, price, profit, reason, acct.Balance)
	return fill, nil
}

// afterFill mirrors the entry to the journal. The account document is the
// source of truth, so journal failures are logged, not returned.
func (l *Ledger) afterFill(ctx context.Context, fill Fill) {
	if l.journal != nil {
		if err := l.journal.Record(ctx, fill.Entry); err != nil {
			log.Printf("[ledger] journal record %s failed: %v", fill.Entry.ID, err)
		}
	}
	if l.OnFill != nil {
		l.OnFill(fill)
	}
}
