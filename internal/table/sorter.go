package table

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rshade/winlist/internal/dataset"
)

// ValidateSortField reports ErrInvalidSortField when field is not one of
// columns. An empty field is always valid.
func ValidateSortField(field string, columns []string) error {
	if field == "" || slices.Contains(columns, field) {
		return nil
	}
	return fmt.Errorf("%w: %q (valid: %s)", ErrInvalidSortField, field, strings.Join(columns, ", "))
}

// SortRecords returns a stably sorted copy of records ordered by field.
// Records missing the field sort last in either order.
func SortRecords(records []dataset.Record, field, order string) []dataset.Record {
	sorted := slices.Clone(records)
	if field == "" {
		return sorted
	}
	desc := order == SortOrderDesc

	slices.SortStableFunc(sorted, func(a, b dataset.Record) int {
		av, aok := a[field]
		bv, bok := b[field]
		aok = aok && av != nil
		bok = bok && bv != nil
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c := compareValues(av, bv)
		if desc {
			return -c
		}
		return c
	})
	return sorted
}

// compareValues orders numbers numerically, times chronologically, bools
// false-first and everything else by its display string.
func compareValues(a, b any) int {
	if an, ok := toFloat(a); ok {
		if bn, ok := toFloat(b); ok {
			return cmp.Compare(an, bn)
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(
		strings.ToLower(dataset.FormatValue(a)),
		strings.ToLower(dataset.FormatValue(b)),
	)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
