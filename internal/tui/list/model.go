package listview

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/rshade/winlist/internal/virtual"
)

// wheelRows is how far one mouse wheel notch scrolls.
const wheelRows = 3

// RenderFunc renders the item at absolute index. Output with fewer lines
// than the item height is padded; extra lines are dropped.
type RenderFunc[T any] func(item T, index int) string

// Config configures a VirtualListModel. Start from DefaultConfig.
type Config struct {
	// ItemHeight is the fixed height of every item in rows. Must be > 0.
	ItemHeight int
	// ContainerHeight is rows (int), a percentage of the available
	// terminal height ("50%") or an absolute string ("20rows").
	ContainerHeight any
	// BufferItems is the overscan above and below the viewport.
	BufferItems int
	// KeyField names the record field used as the stable key.
	KeyField string
	// ResizeDebounce delays remeasuring after terminal resizes. Zero
	// remeasures immediately.
	ResizeDebounce time.Duration
	// ReservedRows are terminal rows used by surrounding chrome and
	// excluded from percentage heights.
	ReservedRows int
	Logger       zerolog.Logger
}

// DefaultConfig fills the whole terminal with one-row items.
func DefaultConfig() Config {
	return Config{
		ItemHeight:      1,
		ContainerHeight: "100%",
		BufferItems:     virtual.DefaultBufferItems,
		KeyField:        virtual.DefaultKeyField,
		ResizeDebounce:  virtual.DefaultResizeDebounce,
		Logger:          zerolog.Nop(),
	}
}

// renderKey identifies cached output. The index is part of the key so
// records sharing a stable key never reuse each other's rows.
type renderKey struct {
	key   any
	index int
}

// resizeSettledMsg fires when a resize burst has been quiet for the debounce delay.
type resizeSettledMsg struct{ seq int }

// VirtualListModel is a Bubble Tea model that renders only the window of
// items intersecting the viewport.
type VirtualListModel[T any] struct {
	// Keys are the scroll bindings. Replace to customize.
	Keys KeyMap

	tracker *virtual.Tracker
	list    *virtual.List[T]
	render  RenderFunc[T]
	cfg     Config
	resizes *resizeNotifier
	unmount func()

	width      int
	termHeight int
	sized      bool
	resizeSeq  int
	err        error

	// rendered caches item output across frames.
	rendered      map[renderKey][]string
	renderedWidth int
}

// NewVirtualListModel validates cfg and builds the model. With a
// percentage height nothing is shown until the first tea.WindowSizeMsg.
func NewVirtualListModel[T any](items []T, cfg Config, render RenderFunc[T]) (*VirtualListModel[T], error) {
	if render == nil {
		return nil, fmt.Errorf("%w: nil render func", virtual.ErrConfiguration)
	}
	if cfg.ReservedRows < 0 {
		return nil, fmt.Errorf("%w: reserved rows must be >= 0, got %d", virtual.ErrConfiguration, cfg.ReservedRows)
	}
	if cfg.ContainerHeight == nil {
		cfg.ContainerHeight = DefaultConfig().ContainerHeight
	}

	m := &VirtualListModel[T]{
		Keys:     DefaultKeyMap(),
		render:   render,
		cfg:      cfg,
		resizes:  newResizeNotifier(),
		rendered: make(map[renderKey][]string),
	}

	m.tracker = virtual.NewTracker(virtual.MeasurerFunc(m.availableRows),
		virtual.WithTrackerLogger(cfg.Logger),
		virtual.WithResizeErrorHandler(m.setErr))
	if err := m.tracker.MeasureContainer(cfg.ContainerHeight); err != nil {
		return nil, err
	}

	opts := []virtual.Option[T]{
		virtual.WithItemHeight[T](float64(cfg.ItemHeight)),
		virtual.WithBufferItems[T](cfg.BufferItems),
		virtual.WithLogger[T](cfg.Logger),
	}
	if cfg.KeyField != "" {
		opts = append(opts, virtual.WithKeyField[T](cfg.KeyField))
	}
	list, err := virtual.New(m.tracker, items, opts...)
	if err != nil {
		return nil, err
	}
	m.list = list

	// Resizes are debounced with tea.Tick, so the tracker remeasures as soon
	// as the notifier fires.
	unmount, err := m.tracker.Mount(m.resizes, 0)
	if err != nil {
		list.Close()
		return nil, err
	}
	m.unmount = unmount
	return m, nil
}

// availableRows is the parent height for percentage containers.
func (m *VirtualListModel[T]) availableRows() (float64, error) {
	rows := m.termHeight - m.cfg.ReservedRows
	if !m.sized || rows <= 0 {
		return 0, virtual.ErrMeasurementUnavailable
	}
	return float64(rows), nil
}

// Init implements tea.Model.
func (m *VirtualListModel[T]) Init() tea.Cmd {
	return nil
}

// Update handles resize, scroll keys and the mouse wheel.
func (m *VirtualListModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.handleResize(msg)
	case resizeSettledMsg:
		if msg.seq == m.resizeSeq {
			m.remeasure()
		}
		return m, nil
	case tea.KeyMsg:
		m.handleKey(msg)
		return m, nil
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	return m, nil
}

func (m *VirtualListModel[T]) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	if msg.Width != m.width {
		clear(m.rendered)
	}
	m.width = msg.Width
	m.termHeight = msg.Height

	if !m.sized {
		// The first size message is the first layout pass.
		m.sized = true
		m.setErr(m.tracker.LayoutPass())
		m.clampScroll()
		return nil
	}

	if m.cfg.ResizeDebounce <= 0 {
		m.remeasure()
		return nil
	}
	m.resizeSeq++
	seq := m.resizeSeq
	return tea.Tick(m.cfg.ResizeDebounce, func(time.Time) tea.Msg {
		return resizeSettledMsg{seq: seq}
	})
}

func (m *VirtualListModel[T]) remeasure() {
	m.err = nil
	m.resizes.notify()
	m.clampScroll()
}

// SetContainerHeight changes the declared container height and measures it
// again. Values that do not parse fail with a configuration error and
// leave the current height in place.
func (m *VirtualListModel[T]) SetContainerHeight(declared any) error {
	if err := m.tracker.MeasureContainer(declared); err != nil {
		return err
	}
	m.cfg.ContainerHeight = declared
	m.err = nil
	m.clampScroll()
	return nil
}

func (m *VirtualListModel[T]) setErr(err error) {
	if err != nil {
		m.cfg.Logger.Error().Err(err).Msg("container measurement failed")
	}
	m.err = err
}

func (m *VirtualListModel[T]) handleKey(msg tea.KeyMsg) {
	page := m.viewRows()
	switch {
	case key.Matches(msg, m.Keys.LineUp):
		m.ScrollBy(-1)
	case key.Matches(msg, m.Keys.LineDown):
		m.ScrollBy(1)
	case key.Matches(msg, m.Keys.PageUp):
		m.ScrollBy(-page)
	case key.Matches(msg, m.Keys.PageDown):
		m.ScrollBy(page)
	case key.Matches(msg, m.Keys.HalfPageUp):
		m.ScrollBy(-math.Ceil(page / 2))
	case key.Matches(msg, m.Keys.HalfPageDown):
		m.ScrollBy(math.Ceil(page / 2))
	case key.Matches(msg, m.Keys.Top):
		m.ScrollTo(0)
	case key.Matches(msg, m.Keys.Bottom):
		m.ScrollTo(math.Inf(1))
	}
}

func (m *VirtualListModel[T]) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	switch msg.Button { //nolint:exhaustive // Only the wheel scrolls.
	case tea.MouseButtonWheelUp:
		m.ScrollBy(-wheelRows)
	case tea.MouseButtonWheelDown:
		m.ScrollBy(wheelRows)
	}
}

// ScrollBy moves the viewport by delta rows.
func (m *VirtualListModel[T]) ScrollBy(delta float64) {
	m.ScrollTo(m.ScrollOffset() + delta)
}

// ScrollTo moves the viewport top to offset rows, clamped to the
// scrollable range [0, total-container].
func (m *VirtualListModel[T]) ScrollTo(offset float64) {
	m.tracker.SetScrollOffset(m.clampOffset(offset))
}

func (m *VirtualListModel[T]) clampScroll() {
	m.ScrollTo(m.ScrollOffset())
}

func (m *VirtualListModel[T]) clampOffset(offset float64) float64 {
	if math.IsNaN(offset) {
		return 0
	}
	limit := max(0, m.list.Current().TotalHeightPx-m.viewRows())
	return max(0, min(offset, limit))
}

// viewRows is the container height in whole terminal rows.
func (m *VirtualListModel[T]) viewRows() float64 {
	return math.Floor(m.ContainerHeight())
}

// SetItems replaces the dataset, keeping the scroll offset where possible.
func (m *VirtualListModel[T]) SetItems(items []T) {
	clear(m.rendered)
	m.list.SetDataset(items)
	m.clampScroll()
}

// Close releases the resize listener and detaches the list from its tracker.
func (m *VirtualListModel[T]) Close() {
	if m.unmount != nil {
		m.unmount()
	}
	m.list.Close()
}

// View draws the visible rows followed by a scrollbar column.
func (m *VirtualListModel[T]) View() string {
	vp := m.tracker.Viewport()
	if !vp.Measured || m.width <= 0 {
		return ""
	}
	rows := int(vp.ContainerHeight)
	if rows <= 0 {
		return ""
	}

	s := m.list.Current()
	contentWidth := max(m.width-1, 0)
	if contentWidth != m.renderedWidth {
		clear(m.rendered)
		m.renderedWidth = contentWidth
	}

	lines := m.renderEntries(s, contentWidth)

	skip := max(int(vp.ScrollOffset-s.OffsetPx), 0)
	blank := strings.Repeat(" ", contentWidth)
	bar := scrollbar(rows, vp.ScrollOffset, vp.ContainerHeight, s.TotalHeightPx)

	var b strings.Builder
	for i := range rows {
		line := blank
		if idx := skip + i; idx < len(lines) {
			line = lines[idx]
		}
		b.WriteString(line)
		b.WriteString(bar[i])
		if i < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// renderEntries returns the fitted lines of every entry in the slice,
// reusing cached output for entries rendered in the previous frame at the
// same index under the same key.
func (m *VirtualListModel[T]) renderEntries(s virtual.RenderSlice[T], width int) []string {
	h := m.cfg.ItemHeight
	next := make(map[renderKey][]string, len(s.Entries))
	lines := make([]string, 0, len(s.Entries)*h)

	for _, rendered := range virtual.RenderEntries(s, func(item T, index int) func() []string {
		return func() []string { return fitLines(m.render(item, index), h, width) }
	}) {
		cacheable := isComparable(rendered.Key)
		rk := renderKey{key: rendered.Key, index: rendered.Index}
		var block []string
		if cacheable {
			block = m.rendered[rk]
		}
		if block == nil {
			block = rendered.Node()
		}
		if cacheable {
			next[rk] = block
		}
		lines = append(lines, block...)
	}
	m.rendered = next
	return lines
}

// fitLines pads or truncates text to exactly height lines of width cells.
func fitLines(text string, height, width int) []string {
	src := strings.Split(text, "\n")
	out := make([]string, height)
	for i := range out {
		line := ""
		if i < len(src) {
			line = ansi.Truncate(src[i], width, "…")
		}
		if pad := width - ansi.StringWidth(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		out[i] = line
	}
	return out
}

func isComparable(k any) bool {
	return k != nil && reflect.ValueOf(k).Comparable()
}

// Err returns the last measurement error, if any.
func (m *VirtualListModel[T]) Err() error {
	return m.err
}

// Window returns the current window.
func (m *VirtualListModel[T]) Window() virtual.Window {
	return m.list.Current().Window
}

// Slice returns the current render slice.
func (m *VirtualListModel[T]) Slice() virtual.RenderSlice[T] {
	return m.list.Current()
}

// ScrollOffset returns the viewport top in rows.
func (m *VirtualListModel[T]) ScrollOffset() float64 {
	return m.tracker.Viewport().ScrollOffset
}

// ContainerHeight returns the measured container height in rows, or zero
// before measurement.
func (m *VirtualListModel[T]) ContainerHeight() float64 {
	return m.tracker.Viewport().ContainerHeight
}

// Measured reports whether the container height is known.
func (m *VirtualListModel[T]) Measured() bool {
	return m.tracker.Viewport().Measured
}

// ItemCount returns the dataset length.
func (m *VirtualListModel[T]) ItemCount() int {
	return m.list.Len()
}

// Width returns the terminal width.
func (m *VirtualListModel[T]) Width() int {
	return m.width
}

// IsConfigurationError reports whether err came from invalid list settings.
func IsConfigurationError(err error) bool {
	return errors.Is(err, virtual.ErrConfiguration)
}
