package virtual

import (
	"sync"

	"github.com/rs/zerolog"
)

// Option configures a List.
type Option[T any] func(*List[T])

// WithItemHeight sets the uniform item height. It is required.
func WithItemHeight[T any](h float64) Option[T] {
	return func(l *List[T]) {
		l.itemHeight = h
	}
}

// WithBufferItems sets the render-ahead margin. Defaults to DefaultBufferItems.
func WithBufferItems[T any](n int) Option[T] {
	return func(l *List[T]) {
		l.buffer = n
	}
}

// WithKeyField keys entries by the named record field.
func WithKeyField[T any](field string) Option[T] {
	return func(l *List[T]) {
		l.keyOf = FieldKey[T](field)
	}
}

// WithKeyFunc keys entries with a custom function.
func WithKeyFunc[T any](fn KeyFunc[T]) Option[T] {
	return func(l *List[T]) {
		l.keyOf = fn
	}
}

// WithOnRender registers the callback that receives every new RenderSlice.
func WithOnRender[T any](fn func(RenderSlice[T])) Option[T] {
	return func(l *List[T]) {
		l.onRender = fn
	}
}

// WithLogger sets the list's logger.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(l *List[T]) {
		l.logger = logger
	}
}

// List recomputes the visible slice of a dataset whenever its tracker
// reports a geometry change or the dataset is replaced.
//
// The dataset stays owned by the caller: List keeps the slice header it was
// given and never copies or mutates the elements.
type List[T any] struct {
	tracker    *Tracker
	itemHeight float64
	buffer     int
	keyOf      KeyFunc[T]
	onRender   func(RenderSlice[T])
	logger     zerolog.Logger

	mu       sync.Mutex
	items    []T
	viewport Viewport
	current  RenderSlice[T]
	cancel   func()
}

// New creates a list bound to tracker. Invalid item height or buffer count
// fail with ErrConfiguration before anything is computed.
func New[T any](tracker *Tracker, items []T, opts ...Option[T]) (*List[T], error) {
	l := &List[T]{
		tracker: tracker,
		items:   items,
		buffer:  DefaultBufferItems,
		keyOf:   FieldKey[T](DefaultKeyField),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if tracker == nil {
		return nil, configError("nil tracker")
	}
	if err := (Geometry{ItemHeight: l.itemHeight, BufferItems: l.buffer}).Validate(); err != nil {
		return nil, err
	}

	l.cancel = tracker.Subscribe(l.handleViewport)
	l.handleViewport(tracker.Viewport())
	return l, nil
}

// Close detaches the list from its tracker.
func (l *List[T]) Close() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// SetDataset replaces the dataset and recomputes the slice for the current geometry.
func (l *List[T]) SetDataset(items []T) {
	l.mu.Lock()
	l.items = items
	l.recomputeLocked()
}

// Len returns the dataset length.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// ItemHeight returns the configured item height.
func (l *List[T]) ItemHeight() float64 {
	return l.itemHeight
}

// Current returns the most recent slice. Before the first measurement it is
// empty but still carries the full TotalHeightPx.
func (l *List[T]) Current() RenderSlice[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Geometry returns the geometry the current slice was computed from. The
// bool is false while the container is awaiting its first measurement.
func (l *List[T]) Geometry() (Geometry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.geometryLocked(), l.viewport.Measured
}

func (l *List[T]) geometryLocked() Geometry {
	return Geometry{
		ContainerHeight: l.viewport.ContainerHeight,
		ItemHeight:      l.itemHeight,
		ScrollOffset:    l.viewport.ScrollOffset,
		BufferItems:     l.buffer,
	}
}

func (l *List[T]) handleViewport(vp Viewport) {
	l.mu.Lock()
	if vp.Seq < l.viewport.Seq {
		l.mu.Unlock()
		return
	}
	l.viewport = vp
	l.recomputeLocked()
}

// recomputeLocked must be called with l.mu held and always releases it.
func (l *List[T]) recomputeLocked() {
	next := RenderSlice[T]{TotalHeightPx: float64(len(l.items)) * l.itemHeight}

	if l.viewport.Measured {
		g := l.geometryLocked()
		w, err := ComputeWindow(g, len(l.items))
		if err != nil {
			l.logger.Error().Err(err).Msg("window computation failed")
		} else {
			next = Project(l.items, w, l.itemHeight, l.keyOf)
		}
		l.logger.Debug().
			Float64("scroll_offset", g.ScrollOffset).
			Float64("container_height", g.ContainerHeight).
			Int("start", next.Window.Start).
			Int("end", next.Window.End).
			Int("materialized", len(next.Entries)).
			Msg("window recomputed")
	}

	l.current = next
	onRender := l.onRender
	l.mu.Unlock()

	if onRender != nil {
		onRender(next)
	}
}
