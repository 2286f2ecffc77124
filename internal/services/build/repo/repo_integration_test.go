//go:build integration_pg

package repo_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"insightmart/internal/modkit"
	"insightmart/internal/platform/config"
	"insightmart/internal/platform/store"
	"insightmart/internal/platform/store/schema"
	"insightmart/internal/services/build/domain"
	buildmod "insightmart/internal/services/build/module"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
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

func seed(t *testing.T, ctx context.Context, db store.RowQuerier) {
	t.Helper()
	for _, q := range []string{
		`INSERT INTO raw_customers (customer_id, gender, location, tenure_months) VALUES ('C1', 'F', 'Chicago', '30')`,
		`INSERT INTO raw_online_sales (customer_id, transaction_id, transaction_date, product_sku, product_description,
			product_category, quantity, avg_price, delivery_charges, coupon_status)
		 VALUES ('C1', 'T1', '1/1/2019', 'SKU1', 'Tee', 'Apparel', '3', '100', '6.5', 'Used')`,
		`INSERT INTO raw_discount_coupon (month, product_category, coupon_code, discount_pct) VALUES ('Jan', 'Apparel', 'SALE10', '10')`,
		`INSERT INTO raw_tax_amount (product_category, gst) VALUES ('Apparel', '0.1')`,
	} {
		if _, err := db.Exec(ctx, q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestBuildAgainstServer(t *testing.T) {
	dsn := startPostgres(t)
	if err := schema.UpPG(dsn); err != nil {
		t.Fatalf("UpPG: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s, err := store.Open(ctx, store.Config{AppName: "build-it", PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 4}},
		store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(ctx)
	seed(t, ctx, s.PG)

	runner := buildmod.New(modkit.Deps{Cfg: config.New(), PG: s.PG}).Ports().(buildmod.Ports).Runner

	run, err := runner.RunOnce(ctx)
	if err != nil || run.Status != domain.StatusSucceeded {
		t.Fatalf("RunOnce = %+v, %v", run, err)
	}

	total, err := store.Scalar[decimal.Decimal](ctx, s.PG, `SELECT total_amount FROM fct_sales WHERE transaction_id = 'T1'`)
	if err != nil || !total.Equal(decimal.RequireFromString("303.5")) {
		t.Fatalf("total = %s, %v", total, err)
	}
	open, err := store.Scalar[int](ctx, s.PG, `SELECT count(*)::int FROM snap_customers WHERE valid_to IS NULL`)
	if err != nil || open != 1 {
		t.Fatalf("open history = %d, %v", open, err)
	}
	status, err := store.Scalar[string](ctx, s.PG, `SELECT status FROM mart_runs WHERE run_id = $1::uuid`, run.ID)
	if err != nil || status != domain.StatusSucceeded {
		t.Fatalf("run log = %q, %v", status, err)
	}
	results, err := store.Scalar[int](ctx, s.PG, `SELECT count(*)::int FROM mart_validation_results WHERE run_id = $1::uuid`, run.ID)
	if err != nil || results == 0 {
		t.Fatalf("validation results = %d, %v", results, err)
	}

	// unchanged inputs touch nothing
	again, err := runner.RunOnce(ctx)
	if err != nil || again.Upserted != 0 || again.HistoryOpened != 0 {
		t.Fatalf("rerun = %+v, %v", again, err)
	}
	facts, _ := store.Scalar[int](ctx, s.PG, `SELECT count(*)::int FROM fct_sales`)
	if facts != 1 {
		t.Fatalf("facts = %d", facts)
	}
}
