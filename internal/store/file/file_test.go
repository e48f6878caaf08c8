package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

func TestStore_MissingFileYieldsDefault(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope", "account.json"))
	acct, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if acct.Balance != model.DefaultBalance || acct.Positions == nil || acct.History == nil {
		t.Errorf("default account = %+v", acct)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "account.json")
	s := New(path)

	profit := 1.5
	at := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	in := &model.Account{
		Balance:   9876.5,
		Positions: []model.Position{{ID: "p1", Symbol: "BTCUSD", EntryPrice: 123.5, Qty: 1, OpenedAt: at}},
		History: []model.HistoryEntry{
			{ID: "h1", Type: model.EntryBuy, Symbol: "BTCUSD", Price: 123.5, Qty: 1, At: at},
			{ID: "h2", Type: model.EntrySell, Symbol: "ETHUSD", Price: 10, Qty: 1, Profit: &profit, At: at},
		},
	}
	if err := s.Save(context.Background(), in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Balance != 9876.5 || len(out.Positions) != 1 || len(out.History) != 2 {
		t.Fatalf("loaded = %+v", out)
	}
	if out.History[1].Profit == nil || *out.History[1].Profit != 1.5 {
		t.Errorf("profit lost: %+v", out.History[1])
	}
	if !out.Positions[0].OpenedAt.Equal(at) {
		t.Errorf("openedAt = %v", out.Positions[0].OpenedAt)
	}

	// no temp files left behind
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
}

func TestStore_AbsentBalanceDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.json")
	os.WriteFile(path, []byte(`{"positions":[],"history":[]}`), 0o644)
	acct, err := New(path).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if acct.Balance != model.DefaultBalance {
		t.Errorf("balance = %v", acct.Balance)
	}

	os.WriteFile(path, []byte(`{"balance":0}`), 0o644)
	acct, err = New(path).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if acct.Balance != 0 || acct.Positions == nil {
		t.Errorf("explicit zero balance not kept: %+v", acct)
	}
}

func TestStore_CorruptFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.json")
	os.WriteFile(path, []byte(`{"balance":`), 0o644)
	if _, err := New(path).Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestStore_UnwritableIsError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	os.WriteFile(blocker, []byte("x"), 0o644)

	// parent "directory" is a regular file
	s := New(filepath.Join(blocker, "account.json"))
	if err := s.Save(context.Background(), model.NewAccount()); err == nil {
		t.Fatal("expected save error")
	}
}
