// Package validate evaluates a declarative rule catalogue over table snapshots
package validate

import (
	"strings"

	perr "insightmart/internal/platform/errors"
)

// Kind is the shape of a rule
type Kind string

// Rule kinds
const (
	KindUnique         Kind = "unique"
	KindNotNull        Kind = "not_null"
	KindForeignKey     Kind = "foreign_key"
	KindAcceptedValues Kind = "accepted_values"
	KindRange          Kind = "range"
	KindExpression     Kind = "expression"
)

// Severity decides whether a violation blocks the run
type Severity string

// Severities
const (
	SeverityFail Severity = "fail"
	SeverityWarn Severity = "warn"
)

// ParseSeverity accepts fail or warn in any case
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityFail:
		return SeverityFail, nil
	case SeverityWarn:
		return SeverityWarn, nil
	}
	return "", perr.InvalidArgf("validate: unknown severity %q", s)
}

// Ref points a foreign key at table.column
type Ref struct {
	Table  string
	Column string
}

// Rule is one declarative check
type Rule struct {
	Name     string
	Table    string
	Kind     Kind
	Columns  []string
	Ref      Ref
	Values   []string
	Min, Max *float64
	// MinOpen makes Min exclusive
	MinOpen bool
	// Check returns violating rows for expression rules
	Check    func(Snapshot) []Row
	Severity Severity
}

// ApplySeverity returns a copy of rules with overrides applied by rule name
func ApplySeverity(rules []Rule, overrides map[string]Severity) ([]Rule, error) {
	out := append([]Rule(nil), rules...)
	idx := make(map[string]int, len(out))
	for i, r := range out {
		idx[r.Name] = i
	}
	for name, sev := range overrides {
		i, ok := idx[name]
		if !ok {
			return nil, perr.WithField(perr.InvalidArgf("validate: unknown rule %q", name), name)
		}
		out[i].Severity = sev
	}
	return out, nil
}

// ParseOverrides reads "rule:warn,other:fail"
func ParseOverrides(s string) (map[string]Severity, error) {
	out := map[string]Severity{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, sev, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, perr.InvalidArgf("validate: bad severity override %q", part)
		}
		v, err := ParseSeverity(sev)
		if err != nil {
			return nil, err
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}
