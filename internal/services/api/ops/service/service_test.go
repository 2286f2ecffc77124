package service

import (
	"context"
	"errors"
	"testing"

	"insightmart/internal/modkit/repokit"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/store"
	kit "insightmart/internal/platform/testkit"
	"insightmart/internal/services/api/ops/domain"
	"insightmart/internal/services/api/ops/repo"
)

const knownRun = "5b7c1a52-8f0e-4a55-9c1e-0d6f3c2b9a10"

type fakeRepo struct {
	runs      []domain.Run
	results   []domain.ValidationResult
	rejects   []domain.Reject
	err       error
	gotLimit  int
	gotSource string
}

func (f *fakeRepo) Runs(_ context.Context, kind, status string, limit int) ([]domain.Run, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Run
	for _, r := range f.runs {
		if (kind == "" || r.Kind == kind) && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) Run(_ context.Context, id string) (domain.Run, error) {
	for _, r := range f.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Run{}, perr.ErrNotFound
}

func (f *fakeRepo) Validation(context.Context, string) ([]domain.ValidationResult, error) {
	return f.results, f.err
}

func (f *fakeRepo) Cursors(context.Context) ([]domain.Cursor, error) { return nil, f.err }

func (f *fakeRepo) Rejects(_ context.Context, source string, limit int) ([]domain.Reject, error) {
	f.gotSource, f.gotLimit = source, limit
	return f.rejects, f.err
}

type nopDB struct{}

func (nopDB) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (nopDB) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (nopDB) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (nopDB) Tx(context.Context, func(store.RowQuerier) error) error         { return nil }

func newSvc(f *fakeRepo) *Svc {
	return New(nopDB{}, repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return f }))
}

func TestNewPanicsOnNil(t *testing.T) {
	kit.MustPanic(t, func() { New(nil, repo.NewPG()) })
	kit.MustPanic(t, func() { New(nopDB{}, nil) })
	kit.MustNotPanic(t, func() { New(nopDB{}, repo.NewPG()) })
}

func TestRunsFiltersAndDefaultsLimit(t *testing.T) {
	f := &fakeRepo{runs: []domain.Run{
		{ID: knownRun, Kind: "build", Status: "succeeded"},
		{ID: "b", Kind: "stream_prices", Status: "skipped"},
	}}
	s := newSvc(f)

	got, err := s.Runs(context.Background(), domain.RunsInput{Kind: "build"})
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(got) != 1 || got[0].ID != knownRun || f.gotLimit != domain.DefaultLimit {
		t.Fatalf("got %+v limit %d", got, f.gotLimit)
	}

	got, err = s.Runs(context.Background(), domain.RunsInput{Status: "failed", Limit: 5})
	if err != nil || got == nil || len(got) != 0 || f.gotLimit != 5 {
		t.Fatalf("empty result = %#v, %v", got, err)
	}
}

func TestRun(t *testing.T) {
	s := newSvc(&fakeRepo{runs: []domain.Run{{ID: knownRun, Kind: "build"}}})

	cases := []struct {
		name string
		id   string
		code perr.ErrorCode
	}{
		{"found", knownRun, perr.ErrorCodeUnknown},
		{"not a uuid", "abc", perr.ErrorCodeInvalidArgument},
		{"missing", "0b7c1a52-8f0e-4a55-9c1e-0d6f3c2b9a10", perr.ErrorCodeNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			run, err := s.Run(context.Background(), c.id)
			if c.code == perr.ErrorCodeUnknown {
				if err != nil || run.ID != c.id {
					t.Fatalf("run = %+v, err = %v", run, err)
				}
				return
			}
			e, ok := perr.As(err)
			if !ok || e.Code() != c.code || e.Field() != "id" {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestValidationNeedsRun(t *testing.T) {
	f := &fakeRepo{
		runs:    []domain.Run{{ID: knownRun}},
		results: []domain.ValidationResult{{Rule: "fct_sales_unique", Violations: 0}},
	}
	s := newSvc(f)

	got, err := s.Validation(context.Background(), knownRun)
	if err != nil {
		t.Fatalf("Validation: %v", err)
	}
	if len(got) != 1 || got[0].Samples == nil {
		t.Fatalf("got %+v", got)
	}

	if _, err := s.Validation(context.Background(), "0b7c1a52-8f0e-4a55-9c1e-0d6f3c2b9a10"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestRepoErrorsAreDBErrors(t *testing.T) {
	s := newSvc(&fakeRepo{err: errors.New("connection reset")})

	if _, err := s.Cursors(context.Background()); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("cursors err = %v", err)
	}
	if _, err := s.Rejects(context.Background(), domain.RejectsInput{}); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("rejects err = %v", err)
	}
}

func TestRejectsPassesFilter(t *testing.T) {
	f := &fakeRepo{}
	got, err := newSvc(f).Rejects(context.Background(), domain.RejectsInput{Source: "stream_news", Limit: 7})
	if err != nil || got == nil {
		t.Fatalf("got %#v, %v", got, err)
	}
	if f.gotSource != "stream_news" || f.gotLimit != 7 {
		t.Fatalf("filter = %q/%d", f.gotSource, f.gotLimit)
	}
}
