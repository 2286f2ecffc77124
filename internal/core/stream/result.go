// Package stream turns landed streaming rows into append-only facts.
// Every selected row ends up either as a fact or as a reject with a reason
package stream

import (
	"time"
)

// Reject records why a row was not materialized
type Reject struct {
	Source         string
	EventID        string
	Reason         string
	EventTimestamp time.Time
	Payload        any
}

// Result is Valid(fact) or Rejected(reject)
type Result[F any] struct {
	fact   F
	reject Reject
	valid  bool
}

// Valid wraps a fact
func Valid[F any](f F) Result[F] { return Result[F]{fact: f, valid: true} }

// Rejected wraps a reject
func Rejected[F any](r Reject) Result[F] { return Result[F]{reject: r} }

// Fact returns the fact and true for a valid result
func (r Result[F]) Fact() (F, bool) { return r.fact, r.valid }

// Reject returns the reject and true for a rejected result
func (r Result[F]) Reject() (Reject, bool) { return r.reject, !r.valid }

// Event is a landed row with an id and a timestamp
type Event interface {
	EventID() string
	EventTime() time.Time
}

// Batch is one ingest pass over a source
type Batch[F any] struct {
	Facts    []F
	Rejects  []Reject
	Selected int
	// Cursor is the max event time over selected rows, valid or not; the input cursor when none
	Cursor *time.Time
}

// Ingest selects rows after cursor, evaluates them, and splits the results
func Ingest[T Event, F any](rows []T, cursor *time.Time, eval func([]T) []Result[F]) Batch[F] {
	sel := Select(rows, cursor)
	b := Batch[F]{Selected: len(sel), Cursor: cursor}
	for _, r := range sel {
		if ts := r.EventTime(); b.Cursor == nil || ts.After(*b.Cursor) {
			b.Cursor = &ts
		}
	}
	for _, res := range eval(sel) {
		if f, ok := res.Fact(); ok {
			b.Facts = append(b.Facts, f)
			continue
		}
		rj, _ := res.Reject()
		b.Rejects = append(b.Rejects, rj)
	}
	return b
}

// Unseen drops facts whose id is already in the sink
func Unseen[F any](facts []F, seen map[string]bool, id func(F) string) []F {
	if len(seen) == 0 {
		return facts
	}
	out := facts[:0:0]
	for _, f := range facts {
		if !seen[id(f)] {
			out = append(out, f)
		}
	}
	return out
}
