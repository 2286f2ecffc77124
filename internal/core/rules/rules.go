// Package rules holds the ordered, first-match-wins lookup tables used to categorize rows.
// Tables are plain data so binaries can load them from config instead of code
package rules

import (
	"strings"
)

// Rule maps a pattern to a label.
// Patterns are case-insensitive: "Nest*" is a prefix match, "*coin*" a substring match,
// "*desk" a suffix match and anything else an exact match
type Rule struct {
	Pattern string
	Value   string
}

// Table is an ordered rule list with a fallback value
type Table struct {
	rules []Rule
	def   string
}

// NewTable builds a table; rules are evaluated in the order given
func NewTable(def string, rs ...Rule) Table {
	return Table{rules: append([]Rule(nil), rs...), def: def}
}

// Match returns the value of the first rule whose pattern matches s, or the default
func (t Table) Match(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, r := range t.rules {
		if matches(strings.ToLower(r.Pattern), v) {
			return r.Value
		}
	}
	return t.def
}

// Default is the fallback value
func (t Table) Default() string { return t.def }

// Rules returns a copy of the ordered rules
func (t Table) Rules() []Rule { return append([]Rule(nil), t.rules...) }

// Values lists every label the table can produce, default last, without duplicates
func (t Table) Values() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range t.rules {
		if !seen[r.Value] {
			seen[r.Value] = true
			out = append(out, r.Value)
		}
	}
	if !seen[t.def] {
		out = append(out, t.def)
	}
	return out
}

func matches(pattern, v string) bool {
	lead := strings.HasPrefix(pattern, "*")
	trail := strings.HasSuffix(pattern, "*") && len(pattern) > 1
	core := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
	switch {
	case lead && trail:
		return strings.Contains(v, core)
	case lead:
		return strings.HasSuffix(v, core)
	case trail:
		return strings.HasPrefix(v, core)
	default:
		return v == pattern
	}
}

// ParseTable reads ordered pattern/value pairs; the "*" pattern sets the default
func ParseTable(def string, pairs [][2]string) Table {
	var rs []Rule
	for _, p := range pairs {
		if strings.TrimSpace(p[0]) == "*" {
			def = strings.TrimSpace(p[1])
			continue
		}
		rs = append(rs, Rule{Pattern: strings.TrimSpace(p[0]), Value: strings.TrimSpace(p[1])})
	}
	return NewTable(def, rs...)
}
