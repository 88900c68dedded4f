package listview

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualListModel_ResizeListenerLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResizeDebounce = 0
	m, err := NewVirtualListModel([]string{"a", "b", "c"}, cfg, func(s string, _ int) string { return s })
	require.NoError(t, err)
	assert.Equal(t, 1, m.resizes.listenerCount(), "mounted on construction")

	m.Update(tea.WindowSizeMsg{Width: 10, Height: 8})
	m.Update(tea.WindowSizeMsg{Width: 10, Height: 4})
	assert.InDelta(t, 4.0, m.ContainerHeight(), 1e-9, "resize remeasures through the mounted listener")

	m.Close()
	m.Close()
	assert.Equal(t, 0, m.resizes.listenerCount())

	// Detached: further resizes no longer reach the tracker.
	m.termHeight = 6
	m.resizes.notify()
	assert.InDelta(t, 4.0, m.ContainerHeight(), 1e-9)
}
