package guardrails

import (
	"context"
	"errors"
	"strings"
	"testing"

	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/store"
)

type lockRow struct {
	v   bool
	err error
}

func (r lockRow) Scan(dst ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dst[0].(*bool)) = r.v
	return nil
}

type lockQ struct {
	row  lockRow
	key  int64
	sql  string
	txns int
}

func (q *lockQ) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (q *lockQ) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (q *lockQ) QueryRow(_ context.Context, sql string, args ...any) store.Row {
	q.sql, q.key = sql, args[0].(int64)
	return q.row
}
func (q *lockQ) Tx(_ context.Context, fn func(store.RowQuerier) error) error {
	q.txns++
	return fn(q)
}

func TestAdvisoryLease(t *testing.T) {
	cases := []struct {
		name string
		row  lockRow
		want error
	}{
		{"free", lockRow{v: true}, nil},
		{"held", lockRow{v: false}, ErrLeaseHeld},
		{"scan error", lockRow{err: errors.New("conn reset")}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := &lockQ{row: c.row}
			err := MakeAdvisoryLease(DefaultLeaseKey)(context.Background(), q)
			if q.key != DefaultLeaseKey || !strings.Contains(q.sql, "pg_try_advisory_xact_lock") {
				t.Fatalf("lock query = %q key=%d", q.sql, q.key)
			}
			switch {
			case c.row.err != nil:
				if !errors.Is(err, c.row.err) || errors.Is(err, ErrLeaseHeld) {
					t.Fatalf("err = %v", err)
				}
			case !errors.Is(err, c.want) || (c.want == nil && err != nil):
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestHeldLeaseSkipsTxBody(t *testing.T) {
	q := &lockQ{row: lockRow{v: false}}
	ran := false
	err := repokit.WithBeginHooks(q, MakeAdvisoryLease(7)).Tx(context.Background(), func(repokit.Queryer) error {
		ran = true
		return nil
	})
	if !errors.Is(err, ErrLeaseHeld) || ran || q.key != 7 {
		t.Fatalf("err=%v ran=%v key=%d", err, ran, q.key)
	}
}
