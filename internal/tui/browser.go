package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/winlist/internal/dataset"
	listview "github.com/rshade/winlist/internal/tui/list"
)

const (
	// browserChromeRows are the header and footer lines around the list.
	browserChromeRows = 2

	keyColumnWidth = 28
	colWidth       = 14
)

//nolint:gochecknoglobals // Key bindings are package-level constants.
var (
	quitBinding   = key.NewBinding(key.WithKeys(keyQuit, keyCtrlC), key.WithHelp("q", "quit"))
	filterBinding = key.NewBinding(key.WithKeys(keySlash), key.WithHelp("/", "filter"))
)

// BrowserModel shows a dataset of any size through a windowed list with a
// header, a substring filter and a key help footer.
type BrowserModel struct {
	state   ViewState
	title   string
	all     []dataset.Record
	columns []string

	list       *listview.VirtualListModel[dataset.Record]
	filter     textinput.Model
	showFilter bool
	query      string
	shown      int
	help       help.Model
	printer    *message.Printer

	width int
	err   error
}

// NewBrowserModel builds the browser. cfg.ReservedRows is increased by the
// browser's own header and footer.
func NewBrowserModel(title string, records []dataset.Record, cfg listview.Config) (*BrowserModel, error) {
	columns := dataset.Columns(records)
	cfg.ReservedRows += browserChromeRows

	list, err := listview.NewVirtualListModel(records, cfg, recordRenderer(columns))
	if err != nil {
		return nil, err
	}

	return &BrowserModel{
		state:   ViewStateList,
		title:   title,
		all:     records,
		columns: columns,
		list:    list,
		filter:  newFilterInput("Filter records..."),
		shown:   len(records),
		help:    help.New(),
		printer: message.NewPrinter(language.English),
		width:   defaultWidth,
	}, nil
}

// recordRenderer lays a record out as fixed-width columns.
func recordRenderer(columns []string) listview.RenderFunc[dataset.Record] {
	return func(r dataset.Record, _ int) string {
		var b strings.Builder
		for i, col := range columns {
			w := colWidth
			if i == 0 && col == dataset.KeyField {
				w = keyColumnWidth
			}
			cell := ansi.Truncate(dataset.FormatValue(r[col]), w-1, "…")
			if i == 0 {
				cell = LabelStyle.Render(cell)
			}
			b.WriteString(cell)
			if pad := w - ansi.StringWidth(cell); pad > 0 && i < len(columns)-1 {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		return b.String()
	}
}

// Init implements tea.Model.
func (m *BrowserModel) Init() tea.Cmd {
	return m.list.Init()
}

// Update implements tea.Model.
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.help.Width = size.Width
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.showFilter {
			return m.handleFilterInput(keyMsg)
		}
		switch {
		case isQuit(keyMsg):
			m.state = ViewStateQuitting
			return m, tea.Quit
		case keyMsg.String() == keySlash:
			m.showFilter = true
			m.filter.SetValue(m.query)
			m.filter.Focus()
			return m, textinput.Blink
		}
	}

	_, cmd := m.list.Update(msg)
	m.err = m.list.Err()
	return m, cmd
}

func (m *BrowserModel) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEnter:
		m.showFilter = false
		m.filter.Blur()
		m.applyFilter(m.filter.Value())
		return m, nil
	case keyEsc:
		m.showFilter = false
		m.filter.Blur()
		return m, nil
	case keyCtrlC:
		m.state = ViewStateQuitting
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *BrowserModel) applyFilter(query string) {
	m.query = strings.TrimSpace(query)
	rows := dataset.Filter(m.all, m.query)
	m.shown = len(rows)
	m.list.SetItems(rows)
	m.list.ScrollTo(0)
}

// View implements tea.Model.
func (m *BrowserModel) View() string {
	if m.state == ViewStateQuitting {
		return ""
	}

	body := m.list.View()
	if body == "" {
		body = MutedStyle.Render("Waiting for layout...")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), body, m.footer())
}

func (m *BrowserModel) header() string {
	w := m.list.Window()
	counts := m.printer.Sprintf("%d of %d records", m.shown, len(m.all))
	if m.query != "" {
		counts += m.printer.Sprintf(" matching %q", m.query)
	}
	window := "window " + w.String()
	if !w.IsEmpty() {
		window += m.printer.Sprintf(" · %d rendered", w.Len())
	}
	line := HeaderStyle.Render(m.title) + "  " + ValueStyle.Render(counts) + "  " + MutedStyle.Render(window)
	return ansi.Truncate(line, m.width, "…")
}

func (m *BrowserModel) footer() string {
	if m.showFilter {
		return m.filter.View()
	}
	if m.err != nil {
		return ErrorStyle.Render(m.err.Error())
	}
	return m.help.ShortHelpView(append(m.list.Keys.ShortHelp(), filterBinding, quitBinding))
}

// List exposes the underlying list model.
func (m *BrowserModel) List() *listview.VirtualListModel[dataset.Record] {
	return m.list
}

// Query returns the applied filter.
func (m *BrowserModel) Query() string {
	return m.query
}

// Close releases the list.
func (m *BrowserModel) Close() {
	m.list.Close()
}
