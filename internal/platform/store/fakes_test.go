package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

type fakeTag int64

func (t fakeTag) String() string      { return fmt.Sprintf("UPDATE %d", int64(t)) }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

// fakeRows serves data row by row; Scan assigns by reflection
type fakeRows struct {
	cols   []string
	data   [][]any
	idx    int
	err    error
	closed bool
}

func newRows(cols []string, data ...[]any) *fakeRows {
	return &fakeRows{cols: cols, data: data, idx: -1}
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Err() error        { return r.err }
func (r *fakeRows) Close()            { r.closed = true }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d dest for %d cols", len(dest), len(row))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d).Elem()
		if row[i] == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		dv.Set(reflect.ValueOf(row[i]))
	}
	return nil
}

type fakeQuerier struct {
	rows    *fakeRows
	tag     CommandTag
	err     error
	lastSQL string
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	f.lastSQL = sql
	return f.tag, f.err
}

func (f *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (Rows, error) {
	f.lastSQL = sql
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, _ ...any) Row {
	f.lastSQL = sql
	if f.err != nil {
		return errRow{f.err}
	}
	if !f.rows.Next() {
		return errRow{errors.New("no rows")}
	}
	return f.rows
}

type errRow struct{ err error }

func (e errRow) Scan(...any) error { return e.err }

type fakePinger struct {
	fakeQuerier
	pingErr error
	closed  bool
}

func (p *fakePinger) Ping(context.Context) error { return p.pingErr }
func (p *fakePinger) Close() error               { p.closed = true; return nil }
func (p *fakePinger) Tx(ctx context.Context, fn func(RowQuerier) error) error {
	return fn(&p.fakeQuerier)
}
