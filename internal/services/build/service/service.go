// Package service runs the batch build: load, build in memory, write in one transaction
package service

import (
	"context"
	"errors"
	"time"

	"insightmart/internal/core/pipeline"
	"insightmart/internal/core/staging"
	"insightmart/internal/core/validate"
	"insightmart/internal/modkit/repokit"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/logger"
	"insightmart/internal/services/build/domain"
	"insightmart/internal/services/build/guardrails"

	"github.com/google/uuid"
)

// Config controls one build
type Config struct {
	Pipeline pipeline.Options

	// Reseed derives a missing cursor from fct_sales instead of failing
	Reseed bool

	// StatementTimeout applies to the build transaction; 0 disables the server timeout
	StatementTimeout time.Duration

	Retry repokit.RetryPolicy
}

// Service wires storage, the raw source and the pipeline
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Source domain.Source
	Cfg    Config

	// main is DB with the timeout and lease hooks
	main repokit.TxRunner
	now  func() time.Time
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the build service; lease may be nil
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	source domain.Source,
	cfg Config,
	lease repokit.BeginHook,
) *Service {
	if db == nil {
		panic("build.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("build.Service requires a non nil Repo binder")
	}
	if source == nil {
		panic("build.Service requires a non nil Source")
	}
	hooks := []repokit.BeginHook{repokit.StatementTimeout(cfg.StatementTimeout)}
	if lease != nil {
		hooks = append(hooks, lease)
	}
	return &Service{
		DB:     db,
		Binder: binder,
		Source: source,
		Cfg:    cfg,
		main:   repokit.WithBeginHooks(db, hooks...),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce implements domain.RunnerPort
func (s *Service) RunOnce(ctx context.Context) (domain.RunLog, error) {
	run := domain.RunLog{ID: uuid.NewString(), Kind: domain.KindBuild, StartedAt: s.now(), Status: domain.StatusRunning}
	ctx = logger.WithRun(ctx, run.ID)
	l := logger.C(ctx).With().Str("mod", "build").Logger()
	l.Info().Msg("build: run start")

	if err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).StartRun(ctx, run)
	}); err != nil {
		return run, err
	}

	out, err := s.build(ctx, run.StartedAt)

	if len(out.Report.Results) > 0 {
		if verr := s.DB.Tx(ctx, func(q repokit.Queryer) error {
			return s.Binder.Bind(q).SaveValidation(ctx, run.ID, out.Report.Results)
		}); verr != nil {
			l.Error().Err(verr).Msg("build: persist validation results failed")
		}
		logReport(&l, out.Report)
	}

	fin := s.now()
	run.FinishedAt = &fin
	run.FailedRules = len(out.Report.Failed())
	switch {
	case errors.Is(err, guardrails.ErrLeaseHeld):
		run.Status = domain.StatusSkipped
		l.Info().Msg("build: lease not acquired; clean skip")
		err = nil
	case err != nil:
		run.Status = domain.StatusFailed
		run.Error = err.Error()
		l.Error().Err(err).Msg("build: run failed")
	default:
		run.Status = domain.StatusSucceeded
		fill(&run, out)
		l.Info().Int("selected", run.Selected).Int("fact_rows", run.FactRows).Time("cursor", deref(run.Cursor)).Msg("build: run done")
	}

	if ferr := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).FinishRun(ctx, run)
	}); ferr != nil {
		l.Error().Err(ferr).Msg("build: finish run failed")
		if err == nil {
			err = ferr
		}
	}
	return run, err
}

// build loads, runs the pipeline and writes every output in one transaction.
// A validation failure returns the pipeline output so the report can be persisted
func (s *Service) build(ctx context.Context, now time.Time) (pipeline.Output, error) {
	var raw staging.Raw
	if err := repokit.Retry(ctx, s.Cfg.Retry, func(ctx context.Context) error {
		var err error
		raw, err = s.Source.Load(ctx)
		return err
	}); err != nil {
		return pipeline.Output{}, perr.Wrap(err, perr.CodeOf(err), "build: load raw")
	}

	var out pipeline.Output
	err := repokit.Retry(ctx, s.Cfg.Retry, func(ctx context.Context) error {
		out = pipeline.Output{}
		return s.main.Tx(ctx, func(q repokit.Queryer) error {
			r := repokit.MustBind(s.Binder, q)
			cursor, err := r.Cursor(ctx, domain.CursorSales)
			if err != nil {
				return err
			}
			facts, err := r.Facts(ctx)
			if err != nil {
				return err
			}
			open, err := r.OpenHistory(ctx)
			if err != nil {
				return err
			}
			assign, err := r.Assignments(ctx)
			if err != nil {
				return err
			}

			out, err = pipeline.Run(pipeline.Input{
				Raw:         raw,
				Facts:       facts,
				Cursor:      cursor,
				Reseed:      s.Cfg.Reseed,
				OpenHistory: open,
				Assignments: assign,
				Now:         now,
			}, s.Cfg.Pipeline)
			if err != nil {
				return err
			}
			return write(ctx, r, out)
		})
	})
	return out, err
}

// write persists outputs in dependency order and advances the cursor last
func write(ctx context.Context, r domain.StorageRepo, out pipeline.Output) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"dim_date", func() error { return r.ReplaceDates(ctx, out.Calendar) }},
		{"dim_customers", func() error { return r.ReplaceCustomers(ctx, out.Customers) }},
		{"dim_products", func() error { return r.ReplaceProducts(ctx, out.Products) }},
		{"stg_marketing_spend", func() error { return r.ReplaceSpend(ctx, out.Staged.Spend) }},
		{"fct_sales", func() error { return r.UpsertFacts(ctx, out.Batch) }},
		{"snap_customers", func() error { return r.ApplyHistory(ctx, out.History) }},
		{"fct_customer_segments", func() error { return r.ReplaceSegments(ctx, out.Segments) }},
		{"mart_cursors", func() error { return r.SetCursor(ctx, domain.CursorSales, out.Cursor) }},
	}
	for _, st := range steps {
		if err := st.fn(); err != nil {
			return perr.WithOp(perr.Wrap(err, perr.CodeOf(err), "build: write "+st.name), st.name)
		}
	}
	return nil
}

func fill(run *domain.RunLog, out pipeline.Output) {
	run.Selected = out.Selected
	run.Upserted = len(out.Batch)
	run.FactRows = len(out.Facts)
	run.Customers = len(out.Customers)
	run.Products = len(out.Products)
	run.Dates = len(out.Calendar)
	run.Segments = len(out.Segments)
	run.HistoryOpened = len(out.History.Open)
	run.HistoryClosed = len(out.History.Close)
	run.Cursor = out.Cursor
}

func logReport(l *logger.Logger, rep validate.Report) {
	for _, r := range rep.Failed() {
		l.Error().Str("rule", r.Rule).Str("table", r.Table).Int("violations", r.Violations).Strs("samples", r.Samples).Msg("build: validation failed")
	}
	for _, r := range rep.Warnings() {
		l.Warn().Str("rule", r.Rule).Str("table", r.Table).Int("violations", r.Violations).Strs("samples", r.Samples).Msg("build: validation warning")
	}
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
