package rules

import (
	"strconv"
	"strings"

	perr "insightmart/internal/platform/errors"
)

// Band is one step of a numeric ladder: values below Max (or at Max when Inclusive) get Label
type Band struct {
	Max       float64
	Inclusive bool
	Label     string
}

// Bands is an ordered ladder of upper bounds with a label for anything above the last one
type Bands struct {
	steps []Band
	above string
}

// NewBands builds a ladder; steps must be ordered by Max ascending
func NewBands(above string, steps ...Band) (Bands, error) {
	for i := 1; i < len(steps); i++ {
		if steps[i].Max < steps[i-1].Max {
			return Bands{}, perr.InvalidArgf("bands: %q (%v) is below the previous bound %v", steps[i].Label, steps[i].Max, steps[i-1].Max)
		}
	}
	if above == "" {
		return Bands{}, perr.InvalidArgf("bands: missing label for values above the last bound")
	}
	return Bands{steps: append([]Band(nil), steps...), above: above}, nil
}

// MustBands is NewBands for literals
func MustBands(above string, steps ...Band) Bands {
	b, err := NewBands(above, steps...)
	if err != nil {
		panic(err)
	}
	return b
}

// Pick returns the label of the first step v falls into
func (b Bands) Pick(v float64) string {
	for _, s := range b.steps {
		if v < s.Max || (s.Inclusive && v == s.Max) {
			return s.Label
		}
	}
	return b.above
}

// Above is the label past the last bound
func (b Bands) Above() string { return b.above }

// Labels lists every label in ladder order
func (b Bands) Labels() []string {
	out := make([]string, 0, len(b.steps)+1)
	for _, s := range b.steps {
		out = append(out, s.Label)
	}
	return append(out, b.above)
}

// ParseBands reads a ladder written as ordered key/label pairs:
// "<50" and "<=200" are bounds, "*" labels everything above the last bound
func ParseBands(pairs [][2]string) (Bands, error) {
	var steps []Band
	above := ""
	for _, p := range pairs {
		key, label := strings.TrimSpace(p[0]), strings.TrimSpace(p[1])
		if key == "*" {
			above = label
			continue
		}
		inclusive := strings.HasPrefix(key, "<=")
		num := strings.TrimPrefix(strings.TrimPrefix(key, "<="), "<")
		if num == key {
			return Bands{}, perr.InvalidArgf("bands: bound %q must start with < or <=", key)
		}
		max, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return Bands{}, perr.InvalidArgf("bands: bound %q is not a number", key)
		}
		steps = append(steps, Band{Max: max, Inclusive: inclusive, Label: label})
	}
	return NewBands(above, steps...)
}
