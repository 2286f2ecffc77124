package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one table row keyed by column name
type Row map[string]any

// Table is a named set of rows with its primary key columns
type Table struct {
	Name string
	Key  []string
	Rows []Row
}

// Snapshot holds the tables a rule set runs against
type Snapshot map[string]Table

// Add stores t under its name
func (s Snapshot) Add(t Table) Snapshot {
	s[t.Name] = t
	return s
}

// KeyOf renders the primary key of r for samples
func (t Table) KeyOf(r Row) string {
	parts := make([]string, len(t.Key))
	for i, c := range t.Key {
		v, _ := text(r[c])
		parts[i] = v
	}
	return strings.Join(parts, "|")
}

// value unwraps the pointer forms the builders produce; nil means SQL NULL
func value(v any) any {
	switch x := v.(type) {
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

// isNull treats blank strings as null, the same as text
func isNull(v any) bool {
	_, ok := text(v)
	return !ok
}

// text renders a comparable form; blank strings count as absent
func text(v any) (string, bool) {
	switch x := value(v).(type) {
	case nil:
		return "", false
	case string:
		return x, strings.TrimSpace(x) != ""
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true
	case decimal.Decimal:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

func number(v any) (decimal.Decimal, bool) {
	switch x := value(v).(type) {
	case decimal.Decimal:
		return x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	}
	return decimal.Decimal{}, false
}
