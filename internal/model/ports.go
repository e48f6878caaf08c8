package model

import "context"

// ── Capability Port Interfaces ──
// These decouple the engines from page scraping, quote feeds and storage.

// PriceSource provides the latest price for a symbol.
// ok=false means no usable price is currently available.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (price float64, ok bool)
}

// SymbolSource reports the currently active instrument.
type SymbolSource interface {
	CurrentSymbol(ctx context.Context) string
}

// AccountStore loads and saves the full account document.
type AccountStore interface {
	// Load returns the persisted account, or a default account if none exists.
	Load(ctx context.Context) (*Account, error)

	// Save rewrites the full account document.
	Save(ctx context.Context, acct *Account) error
}

// TradeJournal mirrors history entries to an audit store.
type TradeJournal interface {
	Record(ctx context.Context, entry HistoryEntry) error
	Close() error
}
