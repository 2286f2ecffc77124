// Package history keeps type-2 change history of the customer dimension
package history

import (
	"database/sql"
	"sort"
	"time"

	"insightmart/internal/core/dims"
	perr "insightmart/internal/platform/errors"

	"github.com/google/uuid"
)

// ErrDuplicateOpen is returned when a customer has more than one open record
var ErrDuplicateOpen = perr.New(perr.ErrorCodeState, "history: duplicate open records")

// Tracked is the attribute tuple whose change opens a new version. It is compared with ==
type Tracked struct {
	Gender        sql.Null[string]
	Location      sql.Null[string]
	TenureMonths  sql.Null[int]
	TenureSegment sql.Null[string]
}

// Record is one row of snap_customers
type Record struct {
	HistoryID  string
	CustomerID string
	Tracked
	ValidFrom time.Time
	ValidTo   *time.Time
}

// Open reports whether the record is current
func (r Record) Open() bool { return r.ValidTo == nil }

// TrackedOf lifts the tracked attributes off a dimension row
func TrackedOf(c dims.Customer) Tracked {
	return Tracked{
		Gender:        nullOf(c.Gender),
		Location:      nullOf(c.Location),
		TenureMonths:  nullOf(c.TenureMonths),
		TenureSegment: nullOf(c.TenureSegment),
	}
}

func nullOf[T any](p *T) sql.Null[T] {
	if p == nil {
		return sql.Null[T]{}
	}
	return sql.Null[T]{V: *p, Valid: true}
}

// Options tunes Diff
type Options struct {
	// CloseMissing closes open records of customers absent from the current dimension
	CloseMissing bool
	// NewID mints history ids; uuid v4 when nil
	NewID func() string
}

// Change lists records to close and records to insert
type Change struct {
	Close []Record
	Open  []Record
}

// Empty reports whether nothing changed
func (c Change) Empty() bool { return len(c.Close) == 0 && len(c.Open) == 0 }

// Diff compares open records with the current dimension at now
func Diff(open []Record, current []dims.Customer, now time.Time, o Options) (Change, error) {
	newID := o.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	byID := make(map[string]Record, len(open))
	for _, r := range open {
		if !r.Open() {
			continue
		}
		if _, dup := byID[r.CustomerID]; dup {
			return Change{}, perr.Wrap(ErrDuplicateOpen, perr.ErrorCodeState, "customer "+r.CustomerID)
		}
		byID[r.CustomerID] = r
	}

	var ch Change
	seen := make(map[string]bool, len(current))
	for _, c := range current {
		seen[c.CustomerID] = true
		tr := TrackedOf(c)
		prev, ok := byID[c.CustomerID]
		if ok && prev.Tracked == tr {
			continue
		}
		if ok {
			ch.Close = append(ch.Close, closed(prev, now))
		}
		ch.Open = append(ch.Open, Record{HistoryID: newID(), CustomerID: c.CustomerID, Tracked: tr, ValidFrom: now})
	}

	if o.CloseMissing {
		var gone []Record
		for id, r := range byID {
			if !seen[id] {
				gone = append(gone, closed(r, now))
			}
		}
		sort.Slice(gone, func(i, j int) bool { return gone[i].CustomerID < gone[j].CustomerID })
		ch.Close = append(ch.Close, gone...)
	}
	return ch, nil
}

func closed(r Record, now time.Time) Record {
	r.ValidTo = &now
	return r
}

// Apply folds a change into the full history, closing by history id and appending opens
func Apply(all []Record, ch Change) []Record {
	ends := make(map[string]*time.Time, len(ch.Close))
	for _, r := range ch.Close {
		ends[r.HistoryID] = r.ValidTo
	}
	out := make([]Record, 0, len(all)+len(ch.Open))
	for _, r := range all {
		if end, ok := ends[r.HistoryID]; ok {
			r.ValidTo = end
		}
		out = append(out, r)
	}
	return append(out, ch.Open...)
}

// OpenOf filters current records
func OpenOf(all []Record) []Record {
	var out []Record
	for _, r := range all {
		if r.Open() {
			out = append(out, r)
		}
	}
	return out
}
