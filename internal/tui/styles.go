package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Palette shared by the interactive views.
//
//nolint:gochecknoglobals // Styles are package-level constants.
var (
	ColorHeader    = lipgloss.Color("39")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("252")
	ColorMuted     = lipgloss.Color("240")
	ColorHighlight = lipgloss.Color("214")
	ColorError     = lipgloss.Color("196")
	ColorSpinner   = lipgloss.Color("205")

	HeaderStyle = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	LabelStyle  = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle  = lipgloss.NewStyle().Foreground(ColorValue)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	InfoStyle   = lipgloss.NewStyle().Foreground(ColorHighlight)
	ErrorStyle  = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)

// ViewState is the lifecycle state of an interactive view.
type ViewState int

const (
	// ViewStateLoading waits for the first data.
	ViewStateLoading ViewState = iota
	// ViewStateList shows data.
	ViewStateList
	// ViewStateError shows a fatal error.
	ViewStateError
	// ViewStateQuitting renders nothing while the program exits.
	ViewStateQuitting
)

const (
	keyQuit  = "q"
	keyCtrlC = "ctrl+c"
	keyEnter = "enter"
	keyEsc   = "esc"
	keySlash = "/"

	filterInputCharLimit = 64
	filterInputWidth     = 32

	defaultWidth  = 80
	defaultHeight = 24
)

// LoadingState is a spinner with a message.
type LoadingState struct {
	spinner spinner.Model
	message string
}

// NewLoadingState returns a dot spinner saying "Loading...".
func NewLoadingState() *LoadingState {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSpinner)
	return &LoadingState{spinner: s, message: "Loading..."}
}

// Init starts the spinner.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner on its tick messages.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// View renders the spinner and message on one line.
func (l *LoadingState) View() string {
	return l.spinner.View() + " " + l.message
}

func newFilterInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/ "
	ti.CharLimit = filterInputCharLimit
	ti.Width = filterInputWidth
	return ti
}

func isQuit(msg tea.KeyMsg) bool {
	s := msg.String()
	return s == keyQuit || s == keyCtrlC
}
