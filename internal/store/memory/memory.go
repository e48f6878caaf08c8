// Package memory provides an in-memory AccountStore for tests and dry runs.
// Nothing is persisted across restarts.
package memory

import (
	"context"
	"sync"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

var _ model.AccountStore = (*Store)(nil)

// Store keeps the account document in memory. Every Load returns a deep
// copy, so callers never share state with the store.
type Store struct {
	mu    sync.Mutex
	acct  *model.Account
	loads int
	saves int

	// LoadErr / SaveErr, when set, are returned instead of touching state.
	LoadErr error
	SaveErr error
}

// New creates a store seeded with acct, or the default account if nil.
func New(acct *model.Account) *Store {
	if acct == nil {
		acct = model.NewAccount()
	}
	return &Store{acct: acct.Clone()}
}

func (s *Store) Load(_ context.Context) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	s.loads++
	return s.acct.Clone(), nil
}

func (s *Store) Save(_ context.Context, acct *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.saves++
	s.acct = acct.Clone()
	return nil
}

// Counts returns how many successful loads and saves have happened.
func (s *Store) Counts() (loads, saves int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, s.saves
}

// Mutate applies fn directly to the stored document, bypassing Save.
// Used to simulate a concurrent writer.
func (s *Store) Mutate(fn func(*model.Account)) {
	s.mu.Lock()
	fn(s.acct)
	s.mu.Unlock()
}
