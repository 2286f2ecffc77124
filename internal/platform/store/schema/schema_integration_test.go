//go:build integration_pg

package schema

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"insightmart/internal/platform/store"

	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "mart",
				"POSTGRES_PASSWORD": "mart",
				"POSTGRES_DB":       "mart",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("postgres://mart:mart@%s:%s/mart?sslmode=disable", host, port.Port())
}

func TestUpPGAgainstServer(t *testing.T) {
	dsn := startPostgres(t)

	// second run finds nothing pending
	for i := 0; i < 2; i++ {
		if err := UpPG(dsn); err != nil {
			t.Fatalf("UpPG #%d: %v", i+1, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s, err := store.Open(ctx, store.Config{AppName: "schema-it", PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2}},
		store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(ctx)

	for _, table := range []string{
		"raw_online_sales", "fct_sales", "snap_customers", "mart_runs", "mart_validation_results", "stream_rejects",
	} {
		n, err := store.Scalar[int](ctx, s.PG, `
			SELECT count(*)::int FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1`, table)
		if err != nil || n != 1 {
			t.Fatalf("table %s: n=%d err=%v", table, n, err)
		}
	}

	// one open history row per customer
	if _, err := s.PG.Exec(ctx, `
		INSERT INTO snap_customers (history_id, customer_id, valid_from)
		VALUES (gen_random_uuid(), 'c1', now()), (gen_random_uuid(), 'c1', now())`); err == nil {
		t.Fatalf("expected unique violation on two open rows")
	}
}
