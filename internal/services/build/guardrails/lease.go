// Package guardrails holds the advisory lease that serializes build runs across processes
package guardrails

import (
	"context"
	"errors"

	"insightmart/internal/modkit/repokit"
)

// ErrLeaseHeld signals another process is building right now
var ErrLeaseHeld = errors.New("build: advisory lease already held")

// DefaultLeaseKey is the pg advisory lock key for builds
const DefaultLeaseKey int64 = 0x6d617274 // "mart"

// MakeAdvisoryLease returns a begin hook that takes a transaction scoped advisory lock.
// The lock is released on commit or rollback; a busy lock fails the tx with ErrLeaseHeld
func MakeAdvisoryLease(key int64) repokit.BeginHook {
	return func(ctx context.Context, q repokit.Queryer) error {
		var ok bool
		if err := q.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, key).Scan(&ok); err != nil {
			return err
		}
		if !ok {
			return ErrLeaseHeld
		}
		return nil
	}
}
