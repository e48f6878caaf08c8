// Package file persists the account document as a single JSON file.
//
// Every Save rewrites the whole document through a temp file and rename,
// so a crash mid-write leaves the previous version intact.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

var _ model.AccountStore = (*Store)(nil)

// Store is a JSON file AccountStore.
type Store struct {
	path string
}

// New creates a store at path. Parent directories are created on first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Load reads the document. A missing or empty file yields the default account.
func (s *Store) Load(_ context.Context) (*model.Account, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewAccount(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("account file: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return model.NewAccount(), nil
	}

	// Decode into a map first so an absent balance falls back to the default
	// while an explicit 0 is preserved.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("account file: decode %s: %w", s.path, err)
	}
	acct := &model.Account{}
	if err := json.Unmarshal(data, acct); err != nil {
		return nil, fmt.Errorf("account file: decode %s: %w", s.path, err)
	}
	if _, ok := raw["balance"]; !ok {
		acct.Balance = model.DefaultBalance
	}
	acct.Normalize()
	return acct, nil
}

// Save rewrites the full document.
func (s *Store) Save(_ context.Context, acct *model.Account) error {
	acct.Normalize()
	data, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		return fmt.Errorf("account file: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("account file: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".account-*.json")
	if err != nil {
		return fmt.Errorf("account file: temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("account file: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("account file: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("account file: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("account file: rename: %w", err)
	}
	return nil
}
