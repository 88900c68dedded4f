package listview

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

//nolint:gochecknoglobals // Styles are package-level constants.
var (
	trackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	thumbStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

const (
	trackRune = "│"
	thumbRune = "┃"
)

// scrollbar returns one cell per row. The thumb spans container/total of
// the track and sits proportionally to scroll within the scrollable range.
func scrollbar(rows int, scroll, container, total float64) []string {
	cells := make([]string, rows)
	track := trackStyle.Render(trackRune)
	for i := range cells {
		cells[i] = track
	}
	if rows == 0 || total <= container || total <= 0 {
		return cells
	}

	thumb := max(1, int(math.Round(float64(rows)*container/total)))
	thumb = min(thumb, rows)
	pos := int(math.Round(float64(rows-thumb) * scroll / (total - container)))
	pos = max(0, min(pos, rows-thumb))

	rendered := thumbStyle.Render(thumbRune)
	for i := pos; i < pos+thumb; i++ {
		cells[i] = rendered
	}
	return cells
}
