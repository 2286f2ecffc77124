package validate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxSamples caps sample keys per result
const MaxSamples = 5

// Result is the outcome of one rule
type Result struct {
	Rule       string
	Table      string
	Kind       Kind
	Severity   Severity
	Violations int
	Samples    []string
}

// Passed reports a clean result
func (r Result) Passed() bool { return r.Violations == 0 }

// Report is every evaluated rule in catalogue order
type Report struct {
	Results []Result
}

// Failed lists violated fail-severity results
func (r Report) Failed() []Result { return r.violated(SeverityFail) }

// Warnings lists violated warn-severity results
func (r Report) Warnings() []Result { return r.violated(SeverityWarn) }

func (r Report) violated(sev Severity) []Result {
	var out []Result
	for _, x := range r.Results {
		if x.Severity == sev && !x.Passed() {
			out = append(out, x)
		}
	}
	return out
}

// Evaluate runs rules over s. Rules whose table, or referenced table, is absent are skipped
func Evaluate(s Snapshot, rules []Rule) Report {
	var rep Report
	sets := refSets{}
	for _, r := range rules {
		t, ok := s[r.Table]
		if !ok {
			continue
		}
		if r.Kind == KindForeignKey {
			if _, ok := s[r.Ref.Table]; !ok {
				continue
			}
		}
		bad := violations(s, t, r, sets)
		res := Result{Rule: r.Name, Table: r.Table, Kind: r.Kind, Severity: r.Severity, Violations: len(bad)}
		for i := 0; i < len(bad) && i < MaxSamples; i++ {
			res.Samples = append(res.Samples, bad[i])
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}

// violations returns one sample key per violation
func violations(s Snapshot, t Table, r Rule, sets refSets) []string {
	switch r.Kind {
	case KindUnique:
		return unique(t, r.Columns)
	case KindExpression:
		if r.Check == nil {
			return nil
		}
		return keys(t, r.Check(s))
	}

	var bad []Row
	for _, row := range t.Rows {
		if !rowOK(s, row, r, sets) {
			bad = append(bad, row)
		}
	}
	return keys(t, bad)
}

func rowOK(s Snapshot, row Row, r Rule, sets refSets) bool {
	switch r.Kind {
	case KindNotNull:
		for _, c := range r.Columns {
			if isNull(row[c]) {
				return false
			}
		}
		return true
	case KindForeignKey:
		v, ok := text(row[r.Columns[0]])
		return !ok || sets.of(s, r.Ref)[v]
	case KindAcceptedValues:
		v, ok := text(row[r.Columns[0]])
		if !ok {
			return true
		}
		for _, a := range r.Values {
			if v == a {
				return true
			}
		}
		return false
	case KindRange:
		n, ok := number(row[r.Columns[0]])
		if !ok {
			return true
		}
		if r.Min != nil {
			lo := decimal.NewFromFloat(*r.Min)
			if n.LessThan(lo) || (r.MinOpen && n.Equal(lo)) {
				return false
			}
		}
		if r.Max != nil && n.GreaterThan(decimal.NewFromFloat(*r.Max)) {
			return false
		}
		return true
	}
	return true
}

// refSets caches referenced value sets for one evaluation
type refSets map[Ref]map[string]bool

func (c refSets) of(s Snapshot, ref Ref) map[string]bool {
	if set, ok := c[ref]; ok {
		return set
	}
	set := map[string]bool{}
	for _, row := range s[ref.Table].Rows {
		if v, ok := text(row[ref.Column]); ok {
			set[v] = true
		}
	}
	c[ref] = set
	return set
}

func unique(t Table, cols []string) []string {
	groups := map[string]int{}
	var order []string
	for _, row := range t.Rows {
		parts := make([]string, len(cols))
		skip := false
		for i, c := range cols {
			v, ok := text(row[c])
			if !ok {
				skip = true
				break
			}
			parts[i] = v
		}
		if skip {
			continue
		}
		k := strings.Join(parts, "|")
		if groups[k] == 1 {
			order = append(order, k)
		}
		groups[k]++
	}
	sort.Strings(order)
	return order
}

func keys(t Table, rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = t.KeyOf(r)
	}
	return out
}
