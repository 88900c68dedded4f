package virtual_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/winlist/internal/virtual"
)

// fakeParent is a Measurer whose height the test controls.
type fakeParent struct {
	mu     sync.Mutex
	height float64
}

func (p *fakeParent) ParentHeight() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.height <= 0 {
		return 0, virtual.ErrMeasurementUnavailable
	}
	return p.height, nil
}

func (p *fakeParent) set(h float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.height = h
}

// fakeWindow is a ResizeSource that records listener registration.
type fakeWindow struct {
	mu        sync.Mutex
	listeners map[int]func()
	next      int
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{listeners: make(map[int]func())}
}

func (w *fakeWindow) OnResize(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
	}
}

func (w *fakeWindow) resize() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (w *fakeWindow) listenerCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}

func TestTracker_SetScrollOffsetNotifies(t *testing.T) {
	tracker := virtual.NewTracker(nil)

	var got []virtual.Viewport
	cancel := tracker.Subscribe(func(vp virtual.Viewport) { got = append(got, vp) })
	defer cancel()

	tracker.SetScrollOffset(120)
	tracker.SetScrollOffset(120)
	tracker.SetScrollOffset(-30)

	require.Len(t, got, 2)
	assert.InDelta(t, 120.0, got[0].ScrollOffset, 1e-9)
	assert.InDelta(t, -30.0, got[1].ScrollOffset, 1e-9, "offsets are stored raw, unclamped")
}

func TestTracker_MeasureAbsolute(t *testing.T) {
	tracker := virtual.NewTracker(nil)

	require.NoError(t, tracker.MeasureContainer("600px"))

	vp := tracker.Viewport()
	assert.True(t, vp.Measured)
	assert.InDelta(t, 600.0, vp.ContainerHeight, 1e-9)
	assert.False(t, tracker.Pending())

	declared, ok := tracker.Declared()
	require.True(t, ok)
	assert.Equal(t, virtual.HeightAbsolute, declared.Kind)
}

func TestTracker_MeasureRejectsBadConfiguration(t *testing.T) {
	tracker := virtual.NewTracker(nil)

	for _, declared := range []any{0, "-1", "abc", "0%"} {
		err := tracker.MeasureContainer(declared)
		require.ErrorIs(t, err, virtual.ErrConfiguration, "declared=%v", declared)
	}
	assert.False(t, tracker.Viewport().Measured)
}

func TestTracker_PercentageDefersUntilLayout(t *testing.T) {
	parent := &fakeParent{}
	tracker := virtual.NewTracker(parent)

	var notifications int
	cancel := tracker.Subscribe(func(virtual.Viewport) { notifications++ })
	defer cancel()

	require.NoError(t, tracker.MeasureContainer("50%"))
	assert.True(t, tracker.Pending())
	assert.False(t, tracker.Viewport().Measured)
	assert.Equal(t, 0, notifications)

	// Nothing laid out yet: retry stays pending.
	require.NoError(t, tracker.LayoutPass())
	assert.True(t, tracker.Pending())

	parent.set(40)
	require.NoError(t, tracker.LayoutPass())
	assert.False(t, tracker.Pending())
	assert.True(t, tracker.Viewport().Measured)
	assert.InDelta(t, 20.0, tracker.Viewport().ContainerHeight, 1e-9)
	assert.Equal(t, 1, notifications)

	// Not pending: layout passes do nothing.
	parent.set(80)
	require.NoError(t, tracker.LayoutPass())
	assert.InDelta(t, 20.0, tracker.Viewport().ContainerHeight, 1e-9)
}

func TestTracker_RemeasureFollowsParent(t *testing.T) {
	parent := &fakeParent{height: 100}
	tracker := virtual.NewTracker(parent)

	require.NoError(t, tracker.MeasureContainer("25%"))
	assert.InDelta(t, 25.0, tracker.Viewport().ContainerHeight, 1e-9)

	parent.set(200)
	require.NoError(t, tracker.Remeasure())
	assert.InDelta(t, 50.0, tracker.Viewport().ContainerHeight, 1e-9)

	// Parent detaches: container goes back to unmeasured.
	parent.set(0)
	require.NoError(t, tracker.Remeasure())
	assert.False(t, tracker.Viewport().Measured)
	assert.True(t, tracker.Pending())
}

func TestTracker_RemeasureBeforeMeasureIsNoop(t *testing.T) {
	tracker := virtual.NewTracker(nil)
	require.NoError(t, tracker.Remeasure())
	assert.False(t, tracker.Viewport().Measured)
}

func TestTracker_SubscribeCancel(t *testing.T) {
	tracker := virtual.NewTracker(nil)

	var calls int
	cancel := tracker.Subscribe(func(virtual.Viewport) { calls++ })
	tracker.SetScrollOffset(1)
	cancel()
	cancel()
	tracker.SetScrollOffset(2)

	assert.Equal(t, 1, calls)
}

func TestTracker_MountRegistersAndReleasesListener(t *testing.T) {
	parent := &fakeParent{height: 100}
	window := newFakeWindow()
	tracker := virtual.NewTracker(parent)
	require.NoError(t, tracker.MeasureContainer("50%"))

	unmount, err := tracker.Mount(window, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, window.listenerCount())

	parent.set(300)
	window.resize()
	assert.InDelta(t, 150.0, tracker.Viewport().ContainerHeight, 1e-9)

	unmount()
	unmount()
	assert.Equal(t, 0, window.listenerCount())

	parent.set(50)
	window.resize()
	assert.InDelta(t, 150.0, tracker.Viewport().ContainerHeight, 1e-9)
}

func TestTracker_MountRetriesPendingMeasurement(t *testing.T) {
	parent := &fakeParent{}
	tracker := virtual.NewTracker(parent)
	require.NoError(t, tracker.MeasureContainer("100%"))
	require.True(t, tracker.Pending())

	parent.set(30)
	unmount, err := tracker.Mount(newFakeWindow(), virtual.DefaultResizeDebounce)
	require.NoError(t, err)
	defer unmount()

	assert.True(t, tracker.Viewport().Measured)
	assert.InDelta(t, 30.0, tracker.Viewport().ContainerHeight, 1e-9)
}

func TestTracker_MountFailureReleasesListener(t *testing.T) {
	parent := &fakeParent{}
	window := newFakeWindow()
	tracker := virtual.NewTracker(parent)
	require.NoError(t, tracker.MeasureContainer("1e308%"))

	// Resolves to +Inf on the retry during mount.
	parent.set(1e308)
	unmount, err := tracker.Mount(window, 0)
	require.ErrorIs(t, err, virtual.ErrConfiguration)
	assert.Nil(t, unmount)
	assert.Equal(t, 0, window.listenerCount())
}

func TestTracker_MountNilSource(t *testing.T) {
	_, err := virtual.NewTracker(nil).Mount(nil, 0)
	require.Error(t, err)
}

func TestTracker_MountDebouncesResizeBursts(t *testing.T) {
	var measured atomic.Int32
	parent := virtual.MeasurerFunc(func() (float64, error) {
		measured.Add(1)
		return 100, nil
	})
	window := newFakeWindow()
	tracker := virtual.NewTracker(parent)
	require.NoError(t, tracker.MeasureContainer("100%"))
	measured.Store(0)

	unmount, err := tracker.Mount(window, 20*time.Millisecond)
	require.NoError(t, err)
	defer unmount()

	for range 10 {
		window.resize()
	}

	require.Eventually(t, func() bool { return measured.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), measured.Load())
}

func TestTracker_SeqIncreasesPerChange(t *testing.T) {
	tracker := virtual.NewTracker(nil)

	var seqs []uint64
	cancel := tracker.Subscribe(func(vp virtual.Viewport) { seqs = append(seqs, vp.Seq) })
	defer cancel()

	require.NoError(t, tracker.MeasureContainer(10))
	tracker.SetScrollOffset(5)
	tracker.SetScrollOffset(5)
	require.NoError(t, tracker.MeasureContainer(20))

	assert.Equal(t, []uint64{1, 2, 3}, seqs)
	assert.Equal(t, uint64(3), tracker.Viewport().Seq)
}

func TestTracker_ResizeErrorHandler(t *testing.T) {
	parent := &fakeParent{height: 1}
	window := newFakeWindow()

	var got []error
	tracker := virtual.NewTracker(parent, virtual.WithResizeErrorHandler(func(err error) { got = append(got, err) }))
	require.NoError(t, tracker.MeasureContainer("1e308%"))

	unmount, err := tracker.Mount(window, 0)
	require.NoError(t, err)
	defer unmount()

	window.resize()
	assert.Empty(t, got)

	// Resolves to +Inf.
	parent.set(1e308)
	window.resize()
	require.Len(t, got, 1)
	require.ErrorIs(t, got[0], virtual.ErrConfiguration)
}
