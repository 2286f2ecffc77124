package repo

import (
	"context"

	"insightmart/internal/core/validate"
	"insightmart/internal/services/build/domain"
)

func (r *queries) StartRun(ctx context.Context, run domain.RunLog) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO mart_runs (run_id, kind, started_at, status) VALUES ($1::uuid, $2, $3, $4)`,
		run.ID, run.Kind, run.StartedAt, run.Status,
	)
	return err
}

func (r *queries) FinishRun(ctx context.Context, run domain.RunLog) error {
	_, err := r.q.Exec(ctx, `
		UPDATE mart_runs
		   SET finished_at = $2, status = $3,
		       selected = $4, upserted = $5, fact_rows = $6, customers = $7, products = $8, dates = $9,
		       segments = $10, history_opened = $11, history_closed = $12, failed_rules = $13,
		       cursor_value = $14, error = NULLIF($15, '')
		 WHERE run_id = $1::uuid`,
		run.ID, run.FinishedAt, run.Status,
		run.Selected, run.Upserted, run.FactRows, run.Customers, run.Products, run.Dates,
		run.Segments, run.HistoryOpened, run.HistoryClosed, run.FailedRules,
		run.Cursor, run.Error,
	)
	return err
}

func (r *queries) SaveValidation(ctx context.Context, runID string, rs []validate.Result) error {
	for _, x := range rs {
		samples := x.Samples
		if samples == nil {
			samples = []string{}
		}
		if _, err := r.q.Exec(ctx, `
			INSERT INTO mart_validation_results (run_id, rule, table_name, kind, severity, violations, samples)
			VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (run_id, rule) DO UPDATE SET
				violations = EXCLUDED.violations, samples = EXCLUDED.samples, severity = EXCLUDED.severity`,
			runID, x.Rule, x.Table, string(x.Kind), string(x.Severity), x.Violations, samples,
		); err != nil {
			return err
		}
	}
	return nil
}
