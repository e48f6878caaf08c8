// Package postgres stores the account document in PostgreSQL as a single
// JSONB row, rewritten in full on every Save.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// Schema creates the document table. Applied by EnsureSchema.
const Schema = `CREATE TABLE IF NOT EXISTS account_documents (
	id         TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DefaultAccountID names the single account row.
const DefaultAccountID = "default"

// querier is the subset of *pgxpool.Pool used by the store.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ model.AccountStore = (*AccountStore)(nil)

// AccountStore implements model.AccountStore on PostgreSQL.
type AccountStore struct {
	db querier
	id string
}

// NewPool creates and pings a connection pool.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewAccountStore creates a store for the account row id (DefaultAccountID if empty).
func NewAccountStore(pool *pgxpool.Pool, id string) *AccountStore {
	return newAccountStore(pool, id)
}

func newAccountStore(db querier, id string) *AccountStore {
	if id == "" {
		id = DefaultAccountID
	}
	return &AccountStore{db: db, id: id}
}

// EnsureSchema creates the table if needed.
func (s *AccountStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create account_documents: %w", err)
	}
	return nil
}

// Load returns the stored document, or the default account if the row is absent.
func (s *AccountStore) Load(ctx context.Context) (*model.Account, error) {
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT doc FROM account_documents WHERE id = $1`, s.id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.NewAccount(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", s.id, err)
	}

	acct := &model.Account{Balance: model.DefaultBalance}
	if err := json.Unmarshal(doc, acct); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", s.id, err)
	}
	acct.Normalize()
	return acct, nil
}

// Save upserts the full document.
func (s *AccountStore) Save(ctx context.Context, acct *model.Account) error {
	acct.Normalize()
	doc, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO account_documents (id, doc, updated_at)
		 VALUES ($1, $2::JSONB, now())
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		s.id, string(doc))
	if err != nil {
		return fmt.Errorf("save account %s: %w", s.id, err)
	}
	return nil
}
