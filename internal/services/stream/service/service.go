// Package service ingests the landed price and news streams into the append-only sink
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"insightmart/internal/core/pipeline"
	"insightmart/internal/core/stream"
	"insightmart/internal/core/validate"
	"insightmart/internal/modkit/repokit"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/logger"
	"insightmart/internal/services/stream/domain"
	"insightmart/internal/services/stream/guardrails"

	"github.com/google/uuid"
)

// Config controls ingestion
type Config struct {
	// Sources lists the enabled sources; RunOnce fans out over them
	Sources []string

	Prices stream.PriceOptions
	News   stream.NewsOptions
	Rules  []validate.Rule

	StatementTimeout time.Duration
	Retry            repokit.RetryPolicy
}

// Service wires storage and the stream evaluators
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Cfg    Config

	// Lease returns the begin hook guarding one source, nil for none
	Lease func(source string) repokit.BeginHook

	locks map[string]*sync.Mutex
	now   func() time.Time
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the stream service; lease may be nil
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	cfg Config,
	lease func(source string) repokit.BeginHook,
) *Service {
	if db == nil {
		panic("stream.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("stream.Service requires a non nil Repo binder")
	}
	locks := map[string]*sync.Mutex{}
	for _, src := range cfg.Sources {
		if _, ok := flows[src]; !ok {
			panic("stream.Service: unknown source " + src)
		}
		locks[src] = &sync.Mutex{}
	}
	return &Service{
		DB:     db,
		Binder: binder,
		Cfg:    cfg,
		Lease:  lease,
		locks:  locks,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce implements domain.RunnerPort; sources run concurrently
func (s *Service) RunOnce(ctx context.Context) ([]domain.RunLog, error) {
	logs := make([]domain.RunLog, len(s.Cfg.Sources))
	errs := make([]error, len(s.Cfg.Sources))

	var wg sync.WaitGroup
	for i, src := range s.Cfg.Sources {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			logs[i], errs[i] = s.RunSource(ctx, src)
		}(i, src)
	}
	wg.Wait()
	return logs, errors.Join(errs...)
}

// RunSource implements domain.RunnerPort. A source already running in this process,
// or holding the lease elsewhere, is a clean skip
func (s *Service) RunSource(ctx context.Context, name string) (domain.RunLog, error) {
	mu, ok := s.locks[name]
	if !ok {
		return domain.RunLog{}, perr.WithField(perr.InvalidArgf("stream: source %q is not enabled", name), "source")
	}
	run := domain.RunLog{ID: uuid.NewString(), Kind: name, StartedAt: s.now(), Status: domain.StatusRunning}
	ctx = logger.WithRun(ctx, run.ID)
	l := logger.C(ctx).With().Str("mod", "stream").Str("source", name).Logger()

	if !mu.TryLock() {
		run.Status = domain.StatusSkipped
		l.Debug().Msg("stream: source busy in process; clean skip")
		return run, nil
	}
	defer mu.Unlock()

	if err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).StartRun(ctx, run)
	}); err != nil {
		return run, err
	}

	p, err := s.ingest(ctx, name, run.ID, run.StartedAt)

	if len(p.report.Results) > 0 {
		if verr := s.DB.Tx(ctx, func(q repokit.Queryer) error {
			return s.Binder.Bind(q).SaveValidation(ctx, run.ID, p.report.Results)
		}); verr != nil {
			l.Error().Err(verr).Msg("stream: persist validation results failed")
		}
		for _, w := range p.report.Warnings() {
			l.Warn().Str("rule", w.Rule).Int("violations", w.Violations).Strs("samples", w.Samples).Msg("stream: validation warning")
		}
	}

	fin := s.now()
	run.FinishedAt = &fin
	run.FailedRules = len(p.report.Failed())
	switch {
	case errors.Is(err, guardrails.ErrLeaseHeld):
		run.Status = domain.StatusSkipped
		l.Info().Msg("stream: lease not acquired; clean skip")
		err = nil
	case err != nil:
		run.Status = domain.StatusFailed
		run.Error = err.Error()
		l.Error().Err(err).Msg("stream: ingest failed")
	default:
		run.Status = domain.StatusSucceeded
		run.Selected, run.Appended, run.Duplicates, run.Rejected = p.selected, p.appended, p.duplicates, p.rejected
		run.Cursor = p.cursor
		l.Info().
			Int("selected", p.selected).
			Int("appended", p.appended).
			Int("duplicates", p.duplicates).
			Int("rejected", p.rejected).
			Msg("stream: ingest done")
	}

	if ferr := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).FinishRun(ctx, run)
	}); ferr != nil {
		l.Error().Err(ferr).Msg("stream: finish run failed")
		if err == nil {
			err = ferr
		}
	}
	return run, err
}

// pass is the outcome of one ingest transaction
type pass struct {
	selected, appended, duplicates, rejected int

	cursor *time.Time
	report validate.Report
}

// ingest reads the cursor, evaluates landed rows, appends new facts, records rejects
// and advances the cursor, all inside one Postgres transaction. The sink append comes
// before the cursor write so a failed append leaves the cursor where it was
func (s *Service) ingest(ctx context.Context, name, runID string, now time.Time) (pass, error) {
	hooks := []repokit.BeginHook{repokit.StatementTimeout(s.Cfg.StatementTimeout)}
	if s.Lease != nil {
		if h := s.Lease(name); h != nil {
			hooks = append(hooks, h)
		}
	}
	db := repokit.WithBeginHooks(s.DB, hooks...)
	f := flows[name]

	var p pass
	err := repokit.Retry(ctx, s.Cfg.Retry, func(ctx context.Context) error {
		p = pass{}
		return db.Tx(ctx, func(q repokit.Queryer) error {
			r := repokit.MustBind(s.Binder, q)
			cursor, err := r.Cursor(ctx, name)
			if err != nil {
				return err
			}
			var b batch
			if b, err = f(ctx, r, s.Cfg, cursor, now); err != nil {
				return err
			}
			p.selected, p.rejected, p.cursor = b.selected, len(b.rejects), b.cursor
			p.duplicates = b.duplicates

			p.report = validate.Evaluate(validate.Snapshot{}.Add(b.table), s.Cfg.Rules)
			if err := pipeline.Failure(p.report); err != nil {
				return err
			}
			if err := b.append(ctx); err != nil {
				code := perr.CodeOf(err)
				if code == perr.ErrorCodeUnknown {
					code = perr.ErrorCodeDB
				}
				return perr.Wrapf(err, code, "stream: append %s", name)
			}
			p.appended = b.facts
			if err := r.SaveRejects(ctx, runID, b.rejects); err != nil {
				return err
			}
			return r.SetCursor(ctx, name, b.cursor)
		})
	})
	return p, err
}

// batch is one evaluated source batch with its pending append
type batch struct {
	selected   int
	facts      int
	duplicates int
	rejects    []stream.Reject
	cursor     *time.Time
	table      validate.Table
	append     func(ctx context.Context) error
}

type flow func(ctx context.Context, r domain.StorageRepo, cfg Config, cursor *time.Time, now time.Time) (batch, error)

var flows = map[string]flow{
	stream.SourcePrices: pricesFlow,
	stream.SourceNews:   newsFlow,
}

func pricesFlow(ctx context.Context, r domain.StorageRepo, cfg Config, cursor *time.Time, now time.Time) (batch, error) {
	rows, err := r.Prices(ctx, cursor)
	if err != nil {
		return batch{}, err
	}
	opts := cfg.Prices
	opts.Now = now
	if opts.Previous, err = r.LastPrice(ctx); err != nil {
		return batch{}, err
	}
	b := stream.Ingest(rows, cursor, func(sel []stream.PriceRaw) []stream.Result[stream.PriceFact] {
		return stream.EvalPrices(sel, opts)
	})
	fresh, err := unseen(ctx, r, validate.TablePrices, b.Facts, func(f stream.PriceFact) string { return f.ID })
	if err != nil {
		return batch{}, err
	}
	return batch{
		selected:   b.Selected,
		facts:      len(fresh),
		duplicates: len(b.Facts) - len(fresh),
		rejects:    b.Rejects,
		cursor:     b.Cursor,
		table:      pipeline.PriceTable(fresh),
		append:     func(ctx context.Context) error { return r.AppendPrices(ctx, fresh) },
	}, nil
}

func newsFlow(ctx context.Context, r domain.StorageRepo, cfg Config, cursor *time.Time, now time.Time) (batch, error) {
	rows, err := r.News(ctx, cursor)
	if err != nil {
		return batch{}, err
	}
	opts := cfg.News
	opts.Now = now
	b := stream.Ingest(rows, cursor, func(sel []stream.NewsRaw) []stream.Result[stream.NewsFact] {
		return stream.EvalNews(sel, opts)
	})
	fresh, err := unseen(ctx, r, validate.TableNews, b.Facts, func(f stream.NewsFact) string { return f.ID })
	if err != nil {
		return batch{}, err
	}
	return batch{
		selected:   b.Selected,
		facts:      len(fresh),
		duplicates: len(b.Facts) - len(fresh),
		rejects:    b.Rejects,
		cursor:     b.Cursor,
		table:      pipeline.NewsTable(fresh),
		append:     func(ctx context.Context) error { return r.AppendNews(ctx, fresh) },
	}, nil
}

// unseen drops facts the sink already holds so a retried pass appends nothing twice
func unseen[F any](ctx context.Context, r domain.StorageRepo, table string, facts []F, id func(F) string) ([]F, error) {
	ids := make([]string, len(facts))
	for i, f := range facts {
		ids[i] = id(f)
	}
	seen, err := r.Seen(ctx, table, ids)
	if err != nil {
		return nil, err
	}
	return stream.Unseen(facts, seen, id), nil
}
