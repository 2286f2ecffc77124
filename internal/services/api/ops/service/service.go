// Package service contains the ops read workflows
package service

import (
	"context"

	"insightmart/internal/modkit/repokit"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/services/api/ops/domain"
	"insightmart/internal/services/api/ops/repo"

	"github.com/google/uuid"
)

// Service defines the ops service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the ops service
type Svc struct {
	Repo repo.Repo
}

// New constructs an ops service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("ops.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("ops.Service requires a non nil Repo binder")
	}
	return &Svc{Repo: binder.Bind(db)}
}

var _ Service = (*Svc)(nil)

// Runs lists the newest runs first
func (s *Svc) Runs(ctx context.Context, in domain.RunsInput) ([]domain.Run, error) {
	if in.Limit <= 0 {
		in.Limit = domain.DefaultLimit
	}
	rows, err := s.Repo.Runs(ctx, in.Kind, in.Status, in.Limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "ops: list runs")
	}
	return nonNil(rows), nil
}

// Run returns one run or a not found error
func (s *Svc) Run(ctx context.Context, id string) (domain.Run, error) {
	if err := runID(id); err != nil {
		return domain.Run{}, err
	}
	run, err := s.Repo.Run(ctx, id)
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return domain.Run{}, perr.WithField(perr.NotFoundf("run %s not found", id), "id")
	case err != nil:
		return domain.Run{}, perr.FromPostgres(err, "ops: get run")
	}
	return run, nil
}

// Validation returns the rule outcomes recorded for a run
func (s *Svc) Validation(ctx context.Context, id string) ([]domain.ValidationResult, error) {
	if _, err := s.Run(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.Repo.Validation(ctx, id)
	if err != nil {
		return nil, perr.FromPostgres(err, "ops: list validation results")
	}
	for i := range rows {
		rows[i].Samples = nonNil(rows[i].Samples)
	}
	return nonNil(rows), nil
}

// Cursors lists every high-water mark
func (s *Svc) Cursors(ctx context.Context) ([]domain.Cursor, error) {
	rows, err := s.Repo.Cursors(ctx)
	if err != nil {
		return nil, perr.FromPostgres(err, "ops: list cursors")
	}
	return nonNil(rows), nil
}

// Rejects lists the newest stream rejects first
func (s *Svc) Rejects(ctx context.Context, in domain.RejectsInput) ([]domain.Reject, error) {
	if in.Limit <= 0 {
		in.Limit = domain.DefaultLimit
	}
	rows, err := s.Repo.Rejects(ctx, in.Source, in.Limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "ops: list rejects")
	}
	return nonNil(rows), nil
}

func runID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return perr.WithField(perr.InvalidArgf("invalid run id %q", id), "id")
	}
	return nil
}

// nonNil keeps empty lists as [] on the wire
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
