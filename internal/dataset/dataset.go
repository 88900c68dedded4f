// Package dataset loads and synthesizes the flat record lists that the
// windowed views display.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// KeyField is the field generated records use as their stable key.
const KeyField = "id"

var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrInvalidCount      = errors.New("invalid record count")
)

// Record is one row of a dataset.
type Record = map[string]any

// Columns returns the union of field names across records, with KeyField
// first when present and the rest sorted.
func Columns(records []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	for k := range seen {
		if k != KeyField {
			cols = append(cols, k)
		}
	}
	slices.Sort(cols)
	if _, ok := seen[KeyField]; ok {
		cols = append([]string{KeyField}, cols...)
	}
	return cols
}

// FormatValue renders a field value for display and filtering.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Filter returns the records where any field contains query,
// case-insensitively. An empty query returns records unchanged.
func Filter(records []Record, query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}

	out := make([]Record, 0, len(records)/4)
	for _, r := range records {
		if Matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether any field of r contains the lower-cased query.
func Matches(r Record, lowerQuery string) bool {
	for _, v := range r {
		if strings.Contains(strings.ToLower(FormatValue(v)), lowerQuery) {
			return true
		}
	}
	return false
}
