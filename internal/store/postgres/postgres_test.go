package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

type fakeRow struct {
	doc []byte
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.doc
	return nil
}

type fakeDB struct {
	docs    map[string]string
	execErr error
	sqls    []string
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if len(args) == 2 {
		f.docs[args[0].(string)] = args[1].(string)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	doc, ok := f.docs[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{doc: []byte(doc)}
}

func TestAccountStore_MissingRowIsDefault(t *testing.T) {
	s := newAccountStore(&fakeDB{docs: map[string]string{}}, "")
	acct, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if acct.Balance != model.DefaultBalance {
		t.Errorf("balance = %v", acct.Balance)
	}
}

func TestAccountStore_SaveThenLoad(t *testing.T) {
	db := &fakeDB{docs: map[string]string{}}
	s := newAccountStore(db, "paper")

	in := model.NewAccount()
	in.Balance = 9000
	in.Positions = append(in.Positions, model.Position{ID: "p", Symbol: "SOLUSD", EntryPrice: 1000, Qty: 1})
	if err := s.Save(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(db.sqls[0], "ON CONFLICT (id) DO UPDATE") {
		t.Errorf("save is not an upsert: %s", db.sqls[0])
	}

	out, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out.Balance != 9000 || len(out.Positions) != 1 || out.Positions[0].Symbol != "SOLUSD" {
		t.Errorf("loaded %+v", out)
	}
}

func TestAccountStore_ErrorsWrapped(t *testing.T) {
	boom := errors.New("conn reset")
	s := newAccountStore(&fakeDB{docs: map[string]string{}, execErr: boom}, "")
	if err := s.Save(context.Background(), model.NewAccount()); !errors.Is(err, boom) {
		t.Errorf("save err = %v", err)
	}
	if err := s.EnsureSchema(context.Background()); !errors.Is(err, boom) {
		t.Errorf("schema err = %v", err)
	}

	bad := newAccountStore(&fakeDB{docs: map[string]string{DefaultAccountID: "{"}}, "")
	if _, err := bad.Load(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}
