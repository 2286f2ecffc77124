// Package guardrails holds the per source advisory lease of the stream ingest
package guardrails

import (
	"context"
	"errors"
	"hash/fnv"

	"insightmart/internal/modkit/repokit"
)

// ErrLeaseHeld signals another process is ingesting the source right now
var ErrLeaseHeld = errors.New("stream: advisory lease already held")

// DefaultLeaseBase is mixed with the source name into the lock key
const DefaultLeaseBase int64 = 0x73747265 // "stre"

// KeyFor derives a stable lock key for one source
func KeyFor(base int64, source string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(source))
	return base<<32 | int64(h.Sum32())
}

// MakeAdvisoryLease returns a begin hook taking a transaction scoped advisory lock on key
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
