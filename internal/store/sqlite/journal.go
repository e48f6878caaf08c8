// Package sqlite mirrors ledger fills into a SQLite trade journal for audit
// and offline analysis. The account document stays the source of truth.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

var _ model.TradeJournal = (*Journal)(nil)

// Journal persists history entries to SQLite.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the journal database at path. Use ":memory:" in tests.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[journal] opened trade journal at %s", path)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			price       REAL NOT NULL,
			qty         INTEGER NOT NULL,
			profit      REAL,
			reason      TEXT,
			at          DATETIME NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
		CREATE INDEX IF NOT EXISTS idx_trades_at ON trades(at);
	`)
	return err
}

// Record inserts one entry. Re-recording the same ID is ignored.
func (j *Journal) Record(ctx context.Context, e model.HistoryEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var profit sql.NullFloat64
	if e.Profit != nil {
		profit = sql.NullFloat64{Float64: *e.Profit, Valid: true}
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO trades (id, type, symbol, price, qty, profit, reason, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), e.Symbol, e.Price, e.Qty, profit, e.Reason,
		e.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("journal insert %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns the last limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, type, symbol, price, qty, profit, reason, at
		 FROM trades ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var (
			e      model.HistoryEntry
			typ    string
			profit sql.NullFloat64
			reason sql.NullString
			at     string
		)
		if err := rows.Scan(&e.ID, &typ, &e.Symbol, &e.Price, &e.Qty, &profit, &reason, &at); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		e.Type = model.EntryType(typ)
		e.Reason = reason.String
		if profit.Valid {
			p := profit.Float64
			e.Profit = &p
		}
		if ts, err := time.Parse(time.RFC3339Nano, at); err == nil {
			e.At = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RealizedBySymbol sums SELL profit per symbol.
func (j *Journal) RealizedBySymbol(ctx context.Context) (map[string]float64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT symbol, SUM(profit) FROM trades WHERE type = 'SELL' GROUP BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var sym string
		var sum sql.NullFloat64
		if err := rows.Scan(&sym, &sum); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		out[sym] = sum.Float64
	}
	return out, rows.Err()
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
