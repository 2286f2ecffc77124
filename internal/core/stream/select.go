package stream

import (
	"sort"
	"time"
)

// Select keeps rows strictly after cursor, one per event id, ordered by time then id.
// When an id repeats, the row that sorts last wins
func Select[T Event](rows []T, cursor *time.Time) []T {
	var in []T
	for _, r := range rows {
		if cursor == nil || r.EventTime().After(*cursor) {
			in = append(in, r)
		}
	}
	sort.SliceStable(in, func(i, j int) bool { return less(in[i], in[j]) })

	last := make(map[string]int, len(in))
	for i, r := range in {
		last[r.EventID()] = i
	}
	out := make([]T, 0, len(last))
	for i, r := range in {
		if last[r.EventID()] == i {
			out = append(out, r)
		}
	}
	return out
}

func less[T Event](a, b T) bool {
	ta, tb := a.EventTime(), b.EventTime()
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return a.EventID() < b.EventID()
}
