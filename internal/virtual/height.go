package virtual

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// HeightKind distinguishes how a declared container height is resolved.
type HeightKind int

const (
	// HeightAbsolute is a fixed length ("600", "600px", 24).
	HeightAbsolute HeightKind = iota
	// HeightPercent is a share of the parent's measured height ("50%").
	HeightPercent
)

// percentBase converts a percentage to a ratio.
const percentBase = 100

// leadingNumber matches the numeric prefix of an absolute-unit string.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// DeclaredHeight is a parsed container height configuration.
type DeclaredHeight struct {
	Kind  HeightKind
	Value float64
}

func (h DeclaredHeight) String() string {
	if h.Kind == HeightPercent {
		return strconv.FormatFloat(h.Value, 'f', -1, 64) + "%"
	}
	return strconv.FormatFloat(h.Value, 'f', -1, 64)
}

// ParseHeight accepts a literal number, a percentage string or an
// absolute-unit string and returns the declared height it describes.
// Zero, negative and unparseable values fail with ErrConfiguration.
func ParseHeight(v any) (DeclaredHeight, error) {
	var h DeclaredHeight

	switch val := v.(type) {
	case DeclaredHeight:
		h = val
	case int:
		h = DeclaredHeight{Kind: HeightAbsolute, Value: float64(val)}
	case int64:
		h = DeclaredHeight{Kind: HeightAbsolute, Value: float64(val)}
	case float64:
		h = DeclaredHeight{Kind: HeightAbsolute, Value: val}
	case float32:
		h = DeclaredHeight{Kind: HeightAbsolute, Value: float64(val)}
	case string:
		parsed, err := parseHeightString(val)
		if err != nil {
			return DeclaredHeight{}, err
		}
		h = parsed
	default:
		return DeclaredHeight{}, configError("unsupported container height type %T", v)
	}

	if !isFinite(h.Value) || h.Value <= 0 {
		return DeclaredHeight{}, configError("container height must be positive, got %s", h)
	}
	return h, nil
}

func parseHeightString(s string) (DeclaredHeight, error) {
	trimmed := strings.TrimSpace(s)
	if pct, ok := strings.CutSuffix(trimmed, "%"); ok {
		value, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil {
			return DeclaredHeight{}, configError("unparseable percentage height %q", s)
		}
		return DeclaredHeight{Kind: HeightPercent, Value: value}, nil
	}

	num := leadingNumber.FindString(trimmed)
	if num == "" {
		return DeclaredHeight{}, configError("unparseable container height %q", s)
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return DeclaredHeight{}, configError("unparseable container height %q", s)
	}
	return DeclaredHeight{Kind: HeightAbsolute, Value: value}, nil
}

// Resolve turns the declared height into a concrete length. Percentages are
// resolved against the parent's height at call time; an unmeasurable parent
// yields ErrMeasurementUnavailable.
func (h DeclaredHeight) Resolve(parent Measurer) (float64, error) {
	if h.Kind == HeightAbsolute {
		return h.Value, nil
	}

	if parent == nil {
		return 0, fmt.Errorf("%w: no parent to resolve %s against", ErrMeasurementUnavailable, h)
	}
	parentHeight, err := parent.ParentHeight()
	if err != nil {
		if errors.Is(err, ErrMeasurementUnavailable) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", ErrMeasurementUnavailable, err)
	}
	if !isFinite(parentHeight) || parentHeight <= 0 {
		return 0, fmt.Errorf("%w: parent height is %v", ErrMeasurementUnavailable, parentHeight)
	}
	return parentHeight * h.Value / percentBase, nil
}
