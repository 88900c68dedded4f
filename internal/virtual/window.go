package virtual

import (
	"fmt"
	"math"
)

// DefaultBufferItems is the render-ahead margin, in items, above and below the viewport.
const DefaultBufferItems = 5

// Geometry is a snapshot of everything the window calculation depends on.
// Lengths share one unit (terminal rows, pixels); only their ratios matter.
type Geometry struct {
	// ContainerHeight is the visible height of the scroll container.
	ContainerHeight float64

	// ItemHeight is the uniform height of every item. Must be positive.
	ItemHeight float64

	// ScrollOffset is the raw scroll position reported by the host.
	ScrollOffset float64

	// BufferItems is the number of extra items rendered on each side.
	BufferItems int
}

// Validate reports a configuration error for geometry that would make the
// window arithmetic divide by zero or produce non-finite indices.
func (g Geometry) Validate() error {
	if !isFinite(g.ItemHeight) || g.ItemHeight <= 0 {
		return configError("item height must be a positive finite number, got %v", g.ItemHeight)
	}
	if g.BufferItems < 0 {
		return configError("buffer item count must be non-negative, got %d", g.BufferItems)
	}
	if !isFinite(g.ContainerHeight) || g.ContainerHeight < 0 {
		return configError("container height must be a non-negative finite number, got %v", g.ContainerHeight)
	}
	if !isFinite(g.ScrollOffset) {
		return configError("scroll offset must be finite, got %v", g.ScrollOffset)
	}
	return nil
}

// Window is an inclusive range of dataset indices to materialize.
// The zero value is the empty window.
type Window struct {
	Start int
	End   int

	ok bool
}

// IsEmpty reports whether the window selects no items.
func (w Window) IsEmpty() bool {
	return !w.ok
}

// Len returns the number of items in the window.
func (w Window) Len() int {
	if !w.ok {
		return 0
	}
	return w.End - w.Start + 1
}

// Contains reports whether index falls inside the window.
func (w Window) Contains(index int) bool {
	return w.ok && index >= w.Start && index <= w.End
}

func (w Window) String() string {
	if !w.ok {
		return "[]"
	}
	return fmt.Sprintf("[%d..%d]", w.Start, w.End)
}

// ComputeWindow derives the contiguous index range that must be rendered for
// a dataset of the given length. It is a pure function of its arguments.
//
// An empty dataset yields the empty window. Invalid geometry fails with
// ErrConfiguration before any arithmetic is attempted.
func ComputeWindow(g Geometry, length int) (Window, error) {
	if err := g.Validate(); err != nil {
		return Window{}, err
	}
	if length <= 0 {
		return Window{}, nil
	}

	buffer := float64(g.BufferItems) * g.ItemHeight

	rawStart := math.Max(0, g.ScrollOffset-buffer)
	start := toIndex(math.Floor(rawStart / g.ItemHeight))

	rawEnd := g.ScrollOffset + g.ContainerHeight + buffer
	end := toIndex(math.Ceil(rawEnd / g.ItemHeight))

	last := length - 1
	start = clamp(start, 0, last)
	end = clamp(end, start, last)

	return Window{Start: start, End: end, ok: true}, nil
}

// MaxWindowLen returns the largest window ComputeWindow can produce for g,
// whatever the dataset length. When the scroll offset is a whole multiple of
// the item height the window never exceeds MaxWindowLen(g)-1 items; a
// misaligned offset can straddle one more partially visible item.
func MaxWindowLen(g Geometry) (int, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	visible := toIndex(math.Ceil(g.ContainerHeight / g.ItemHeight))
	return visible + 2*g.BufferItems + 2, nil
}

// maxIndexFloat is the largest float64 that converts to int without overflow.
const maxIndexFloat = float64(math.MaxInt64 >> 1)

// toIndex converts an already-rounded float to int, saturating instead of
// overflowing for extreme scroll offsets.
func toIndex(v float64) int {
	switch {
	case v >= maxIndexFloat:
		return int(maxIndexFloat)
	case v <= -maxIndexFloat:
		return -int(maxIndexFloat)
	default:
		return int(v)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
