package pg

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// withTestDB opens a client against dsn and closes it on cleanup
func withTestDB(t *testing.T, dsn string, mut func(*pgxpool.Config), fn func(p *PG)) {
	t.Helper()
	p, err := Open(context.Background(), Config{URL: dsn}, nil, mut)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	fn(p)
}
