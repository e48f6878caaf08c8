package model

import "time"

// DefaultBalance is the starting balance of a freshly created account.
const DefaultBalance = 10000.0

// EntryType is the kind of a history entry.
type EntryType string

const (
	EntryBuy  EntryType = "BUY"
	EntrySell EntryType = "SELL"
)

// HistoryEntry is an immutable audit record of a fill.
type HistoryEntry struct {
	ID     string    `json:"id"`
	Type   EntryType `json:"type"`
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Qty    int64     `json:"qty"`
	Profit *float64  `json:"profit,omitempty"` // realized, SELL only
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Account is the persisted virtual portfolio document.
type Account struct {
	Balance   float64        `json:"balance"`
	Positions []Position     `json:"positions"`
	History   []HistoryEntry `json:"history"`
}

// NewAccount returns an account with the default balance and no activity.
func NewAccount() *Account {
	return &Account{
		Balance:   DefaultBalance,
		Positions: []Position{},
		History:   []HistoryEntry{},
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	cp := &Account{
		Balance:   a.Balance,
		Positions: make([]Position, len(a.Positions)),
		History:   make([]HistoryEntry, len(a.History)),
	}
	copy(cp.Positions, a.Positions)
	copy(cp.History, a.History)
	for i, h := range cp.History {
		if h.Profit != nil {
			p := *h.Profit
			cp.History[i].Profit = &p
		}
	}
	return cp
}

// FindPosition returns the index of the earliest open position for symbol, or -1.
func (a *Account) FindPosition(symbol string) int {
	for i := range a.Positions {
		if a.Positions[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

// Normalize replaces nil slices so the document always encodes as arrays.
func (a *Account) Normalize() {
	if a.Positions == nil {
		a.Positions = []Position{}
	}
	if a.History == nil {
		a.History = []HistoryEntry{}
	}
}
