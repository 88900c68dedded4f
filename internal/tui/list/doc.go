// Package listview hosts a windowed list inside a Bubble Tea program.
//
// VirtualListModel owns a virtual.Tracker and virtual.List: terminal size
// messages become container measurements, scroll keys and the mouse wheel
// become scroll offsets, and View draws only the rows of the current
// render slice. Key features:
//   - Container height in rows, as a percentage of the terminal, or "Nrows"
//   - Resize bursts debounced with tea.Tick before remeasuring
//   - Rendered entries reused across frames by their stable key
//   - A proportional scrollbar column
//
// There is no selected item; keys move the viewport only.
package listview
