package repokit

import (
	"context"
	"math/rand"
	"time"

	perr "insightmart/internal/platform/errors"
)

// RetryPolicy bounds Retry; zero values fall back to 3 attempts from 250ms capped at 10s
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// sleep is swapped in tests
var sleep = SleepCtx

// Retry runs fn until it succeeds, returns a non retryable error, or runs out of attempts.
// Backoff doubles per attempt with jitter in [d/2, d)
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)
	base := p.Base
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	ceil := p.Max
	if ceil <= 0 {
		ceil = 10 * time.Second
	}

	var last error
	for i := range attempts {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		last = err
		if !perr.Retryable(err) || i == attempts-1 {
			break
		}
		d := min(base<<i, ceil)
		j := d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
		if se := sleep(ctx, j); se != nil {
			return last
		}
	}
	return last
}

// SleepCtx sleeps for d or until ctx is done
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
