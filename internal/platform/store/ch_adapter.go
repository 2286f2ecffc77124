package store

import (
	"context"
	"errors"

	"insightmart/internal/platform/store/ch"
)

// chClient is the slice of *ch.CH the adapter uses
type chClient interface {
	Insert(ctx context.Context, table string, columns []string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

func newCHAdapter(c chClient) Clickhouse { return &chAdapter{inner: c} }

type chAdapter struct{ inner chClient }

var _ Clickhouse = (*chAdapter)(nil)

func (a *chAdapter) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	return a.inner.Insert(ctx, table, columns, rows)
}

func (a *chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.inner.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (a *chAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.inner.Exec(ctx, sql, args...)
}

func (a *chAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return errors.New("ch: nil adapter")
	}
	return a.inner.Ping(ctx)
}

func (a *chAdapter) Close() error { return a.inner.Close() }

// chRows narrows driver rows (Close returns an error) to Rows
type chRows struct{ r ch.Rows }

func (x chRows) Next() bool             { return x.r.Next() }
func (x chRows) Scan(dest ...any) error { return x.r.Scan(dest...) }
func (x chRows) Err() error             { return x.r.Err() }
func (x chRows) Close()                 { _ = x.r.Close() }
func (x chRows) Columns() []string      { return x.r.Columns() }
