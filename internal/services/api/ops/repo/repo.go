// Package repo provides postgres reads over the mart bookkeeping tables
package repo

import (
	"context"
	"encoding/json"

	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/store"
	"insightmart/internal/services/api/ops/domain"
)

// Repo is the read surface the ops API needs
type Repo interface {
	Runs(ctx context.Context, kind, status string, limit int) ([]domain.Run, error)
	Run(ctx context.Context, id string) (domain.Run, error)
	Validation(ctx context.Context, runID string) ([]domain.ValidationResult, error)
	Cursors(ctx context.Context) ([]domain.Cursor, error)
	Rejects(ctx context.Context, source string, limit int) ([]domain.Reject, error)
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const runColumns = `
run_id::text, kind, started_at, finished_at, status,
selected, upserted, fact_rows, customers, products, dates, segments,
history_opened, history_closed, duplicates, rejected, failed_rules,
cursor_value, COALESCE(error, '')`

func scanRun(row store.Row) (domain.Run, error) {
	var r domain.Run
	err := row.Scan(
		&r.ID, &r.Kind, &r.StartedAt, &r.FinishedAt, &r.Status,
		&r.Selected, &r.Upserted, &r.FactRows, &r.Customers, &r.Products, &r.Dates, &r.Segments,
		&r.HistoryOpened, &r.HistoryClosed, &r.Duplicates, &r.Rejected, &r.FailedRules,
		&r.Cursor, &r.Error,
	)
	return r, err
}

func (r *queries) Runs(ctx context.Context, kind, status string, limit int) ([]domain.Run, error) {
	return store.Many(ctx, r.q, scanRun, `
select `+runColumns+`
from mart_runs
where ($1 = '' or kind = $1)
and ($2 = '' or status = $2)
order by started_at desc, run_id
limit $3`, kind, status, limit)
}

// Run returns perr.ErrNotFound when no row matches
func (r *queries) Run(ctx context.Context, id string) (domain.Run, error) {
	return store.One(ctx, r.q, scanRun, `select `+runColumns+` from mart_runs where run_id = $1::uuid`, id)
}

func (r *queries) Validation(ctx context.Context, runID string) ([]domain.ValidationResult, error) {
	return store.Many(ctx, r.q, func(row store.Row) (domain.ValidationResult, error) {
		var v domain.ValidationResult
		err := row.Scan(&v.Rule, &v.Table, &v.Kind, &v.Severity, &v.Violations, &v.Samples)
		return v, err
	}, `
select rule, table_name, kind, severity, violations, samples
from mart_validation_results
where run_id = $1::uuid
order by rule`, runID)
}

func (r *queries) Cursors(ctx context.Context) ([]domain.Cursor, error) {
	return store.Many(ctx, r.q, func(row store.Row) (domain.Cursor, error) {
		var c domain.Cursor
		err := row.Scan(&c.Name, &c.Value, &c.UpdatedAt)
		return c, err
	}, `select name, value, updated_at from mart_cursors order by name`)
}

func (r *queries) Rejects(ctx context.Context, source string, limit int) ([]domain.Reject, error) {
	return store.Many(ctx, r.q, func(row store.Row) (domain.Reject, error) {
		var (
			x       domain.Reject
			payload string
		)
		err := row.Scan(&x.Source, &x.EventID, &x.Reason, &x.EventTimestamp, &payload, &x.RunID, &x.RejectedAt)
		x.Payload = json.RawMessage(payload)
		return x, err
	}, `
select source, event_id, reason, event_timestamp, payload::text, run_id::text, rejected_at
from stream_rejects
where ($1 = '' or source = $1)
order by rejected_at desc, source, event_id
limit $2`, source, limit)
}
