package store

import (
	"context"
	"errors"
	"testing"

	"insightmart/internal/platform/store/ch"
)

type fakeCH struct {
	table   string
	cols    []string
	rows    [][]any
	execSQL string
	pingErr error
	closed  bool
}

func (f *fakeCH) Insert(_ context.Context, table string, cols []string, rows [][]any) error {
	f.table, f.cols, f.rows = table, cols, rows
	return nil
}
func (f *fakeCH) Query(context.Context, string, ...any) (ch.Rows, error) {
	return nil, errors.New("unreachable")
}
func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error { f.execSQL = sql; return nil }
func (f *fakeCH) Ping(context.Context) error                         { return f.pingErr }
func (f *fakeCH) Close() error                                       { f.closed = true; return nil }

func TestCHAdapterDelegates(t *testing.T) {
	f := &fakeCH{}
	a := newCHAdapter(f)
	ctx := context.Background()

	if err := a.Insert(ctx, "stream_news", []string{"id"}, [][]any{{"n1"}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if f.table != "stream_news" || len(f.rows) != 1 {
		t.Fatalf("Insert not delegated: %+v", f)
	}
	if _, err := a.Query(ctx, "SELECT 1"); err == nil {
		t.Fatalf("Query error should surface")
	}
	if err := a.Exec(ctx, "OPTIMIZE TABLE stream_news FINAL"); err != nil || f.execSQL == "" {
		t.Fatalf("Exec not delegated")
	}

	s := &Store{CH: a}
	f.pingErr = errors.New("timeout")
	if err := s.Guard(ctx); err == nil || err.Error() != "ch: timeout" {
		t.Fatalf("Guard = %v", err)
	}
	if err := s.Close(ctx); err != nil || !f.closed {
		t.Fatalf("Close not delegated")
	}
}
