package virtual

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Measurer reports the height of the element a percentage height is resolved
// against. It returns ErrMeasurementUnavailable while no layout exists.
type Measurer interface {
	ParentHeight() (float64, error)
}

// MeasurerFunc adapts a function to the Measurer interface.
type MeasurerFunc func() (float64, error)

// ParentHeight implements Measurer.
func (f MeasurerFunc) ParentHeight() (float64, error) { return f() }

// ResizeSource delivers resize notifications. OnResize registers fn and
// returns the function that deregisters it.
type ResizeSource interface {
	OnResize(fn func()) (remove func())
}

// Viewport is the tracker's view of the scroll container.
type Viewport struct {
	ContainerHeight float64
	ScrollOffset    float64

	// Measured is false until a declared height has been resolved.
	Measured bool

	// Seq increases with every change. Deliveries can arrive out of order
	// when the tracker is driven from more than one goroutine; consumers
	// drop snapshots older than one they have already applied.
	Seq uint64
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerLogger sets the logger used for measurement diagnostics.
func WithTrackerLogger(logger zerolog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithResizeErrorHandler receives errors from remeasurements triggered by a
// mounted resize source. They are logged either way.
func WithResizeErrorHandler(fn func(error)) TrackerOption {
	return func(t *Tracker) {
		t.onResizeErr = fn
	}
}

type subscriber struct {
	id int
	fn func(Viewport)
}

// Tracker maintains container height and scroll offset and notifies
// subscribers whenever either changes. It never triggers rendering itself.
// Methods are safe to call from a resize goroutine and the host concurrently;
// subscribers run outside the tracker's lock.
type Tracker struct {
	measurer    Measurer
	logger      zerolog.Logger
	onResizeErr func(error)

	mu          sync.Mutex
	declared    *DeclaredHeight
	viewport    Viewport
	pending     bool
	nextID      int
	subscribers []subscriber
}

// NewTracker creates a tracker that resolves percentage heights against m.
// m may be nil when only absolute heights are used.
func NewTracker(m Measurer, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		measurer: m,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers fn for geometry-changed notifications and returns the
// function that cancels the subscription.
func (t *Tracker) Subscribe(fn func(Viewport)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.subscribers = append(t.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, s := range t.subscribers {
				if s.id == id {
					t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Viewport returns the current container height and scroll offset.
func (t *Tracker) Viewport() Viewport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewport
}

// Pending reports whether a declared height is waiting for its parent to
// become measurable.
func (t *Tracker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Declared returns the declared height, if any.
func (t *Tracker) Declared() (DeclaredHeight, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.declared == nil {
		return DeclaredHeight{}, false
	}
	return *t.declared, true
}

// SetScrollOffset stores the raw scroll offset. The host scroll container
// already clamps, so no clamping happens here.
func (t *Tracker) SetScrollOffset(px float64) {
	t.mu.Lock()
	if t.viewport.ScrollOffset == px {
		t.mu.Unlock()
		return
	}
	t.viewport.ScrollOffset = px
	t.notifyLocked()
}

// MeasureContainer records the declared height and resolves it. Invalid
// declarations fail with ErrConfiguration. A percentage whose parent is not
// yet measurable leaves the tracker pending without returning an error.
func (t *Tracker) MeasureContainer(declared any) error {
	h, err := ParseHeight(declared)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.declared = &h
	return t.measureLocked()
}

// Remeasure resolves the stored declared height again, typically after a
// resize. It is a no-op before the first MeasureContainer call.
func (t *Tracker) Remeasure() error {
	t.mu.Lock()
	if t.declared == nil {
		t.mu.Unlock()
		return nil
	}
	return t.measureLocked()
}

// LayoutPass retries a pending measurement. Hosts call it after their first
// layout so a percentage height does not wait for a resize to resolve.
func (t *Tracker) LayoutPass() error {
	t.mu.Lock()
	if !t.pending {
		t.mu.Unlock()
		return nil
	}
	return t.measureLocked()
}

// Mount registers a debounced resize listener on src and retries any pending
// measurement. The returned unmount is idempotent; if Mount fails the
// listener has already been released.
func (t *Tracker) Mount(src ResizeSource, delay time.Duration) (unmount func(), err error) {
	if src == nil {
		return nil, errors.New("nil resize source")
	}

	debouncer := NewDebouncer(delay, func() {
		if remeasureErr := t.Remeasure(); remeasureErr != nil {
			t.logger.Error().Err(remeasureErr).Msg("remeasure after resize failed")
			if t.onResizeErr != nil {
				t.onResizeErr(remeasureErr)
			}
		}
	})
	remove := src.OnResize(debouncer.Trigger)

	var once sync.Once
	release := func() {
		once.Do(func() {
			debouncer.Stop()
			if remove != nil {
				remove()
			}
		})
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	if err = t.LayoutPass(); err != nil {
		return nil, err
	}
	return release, nil
}

// measureLocked resolves the declared height. It must be called with t.mu
// held and always releases it.
func (t *Tracker) measureLocked() error {
	height, err := t.declared.Resolve(t.measurer)
	switch {
	case errors.Is(err, ErrMeasurementUnavailable):
		t.logger.Debug().Err(err).Str("declared", t.declared.String()).Msg("deferring container measurement")
		t.pending = true
		if !t.viewport.Measured {
			t.mu.Unlock()
			return nil
		}
		t.viewport.Measured = false
		t.viewport.ContainerHeight = 0
		t.notifyLocked()
		return nil
	case err != nil:
		t.mu.Unlock()
		return err
	}

	if !isFinite(height) || height <= 0 {
		t.mu.Unlock()
		return configError("container height %s resolved to %v", t.declared, height)
	}

	t.pending = false
	if t.viewport.Measured && t.viewport.ContainerHeight == height {
		t.mu.Unlock()
		return nil
	}
	t.viewport.ContainerHeight = height
	t.viewport.Measured = true
	t.logger.Debug().Float64("container_height", height).Msg("container measured")
	t.notifyLocked()
	return nil
}

// notifyLocked snapshots state and subscribers, releases t.mu and delivers
// the notification.
func (t *Tracker) notifyLocked() {
	t.viewport.Seq++
	vp := t.viewport
	subs := make([]subscriber, len(t.subscribers))
	copy(subs, t.subscribers)
	t.mu.Unlock()

	for _, s := range subs {
		s.fn(vp)
	}
}
