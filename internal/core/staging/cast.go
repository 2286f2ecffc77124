package staging

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var titlePool = sync.Pool{New: func() any { c := cases.Title(language.Und); return &c }}

// Text applies NFC and collapses runs of whitespace
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// ID trims an identifier and drops a trailing ".0" left by spreadsheet exports
func ID(s string) string {
	s = Text(s)
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.ParseInt(strings.TrimSuffix(s, ".0"), 10, 64); err == nil {
			return strings.TrimSuffix(s, ".0")
		}
	}
	return s
}

// Title title-cases s, "new delhi" becomes "New Delhi"
func Title(s string) string {
	s = Text(s)
	if s == "" {
		return ""
	}
	c := titlePool.Get().(*cases.Caser)
	defer titlePool.Put(c)
	return c.String(s)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Decimal parses a numeric, tolerating thousands separators and a currency sign.
// Anything unparseable is nil
func Decimal(s string, places int32) *decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	d = d.Round(places)
	return &d
}

// Int parses a whole number; "3.0" is accepted, "3.5" is not
func Int(s string) *int {
	d := Decimal(s, 6)
	if d == nil || !d.IsInteger() {
		return nil
	}
	n := int(d.IntPart())
	return &n
}

// Date tries each layout in order and returns the UTC midnight of the first that parses
func Date(s string, layouts []string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// Percent reads a rate as a percentage: "10%", "10" and "0.1" are all 10.
// Bare values in (0, 1) are taken as fractions, so a bare "1" is 1%
func Percent(s string, places int32) *decimal.Decimal {
	s = strings.TrimSpace(s)
	hasSign := strings.HasSuffix(s, "%")
	d := Decimal(strings.TrimSuffix(s, "%"), places+4)
	if d == nil {
		return nil
	}
	if !hasSign && d.IsPositive() && d.LessThan(decimal.NewFromInt(1)) {
		v := d.Mul(decimal.NewFromInt(100))
		d = &v
	}
	v := d.Round(places)
	return &v
}

var monthNames = func() map[string]int {
	m := map[string]int{}
	for i := time.January; i <= time.December; i++ {
		full := strings.ToLower(i.String())
		m[full] = int(i)
		m[full[:3]] = int(i)
	}
	m["sept"] = 9
	return m
}()

// Month reads "Jan", "January" or "1"
func Month(s string) *int {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, ok := monthNames[s]; ok {
		return &n
	}
	if n := Int(s); n != nil && *n >= 1 && *n <= 12 {
		return n
	}
	return nil
}
