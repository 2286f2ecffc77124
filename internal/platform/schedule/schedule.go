// Package schedule runs a job on a gocron schedule until the context ends
package schedule

import (
	"context"
	"strings"
	"time"

	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/logger"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled unit of work; its error is logged, never fatal
type Job func(ctx context.Context) error

// Run blocks until ctx is done, firing job per spec.
// spec is a Go duration ("15m") or a five field cron expression ("0 * * * *").
// Runs never overlap; a tick that lands while the previous run is busy is dropped
func Run(ctx context.Context, name, spec string, job Job) error {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	l := logger.Named(name)
	task := func() {
		start := time.Now()
		if err := job(ctx); err != nil {
			l.Error().Err(err).Dur("took", time.Since(start)).Msg("scheduled run failed")
			return
		}
		l.Debug().Dur("took", time.Since(start)).Msg("scheduled run done")
	}

	spec = strings.TrimSpace(spec)
	var err error
	if d, derr := time.ParseDuration(spec); derr == nil {
		if d <= 0 {
			return perr.InvalidArgf("schedule: interval must be positive, got %s", spec)
		}
		_, err = s.Every(d).Do(task)
	} else {
		_, err = s.Cron(spec).Do(task)
	}
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "schedule: "+spec)
	}

	l.Info().Str("spec", spec).Msg("scheduler started")
	s.StartAsync()
	<-ctx.Done()
	s.Stop()
	l.Info().Msg("scheduler stopped")
	return nil
}
