package tui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/winlist/internal/cache"
	"github.com/rshade/winlist/internal/dataset"
	tabledata "github.com/rshade/winlist/internal/table"
)

const (
	// tableChromeRows are the status and help lines under the table.
	tableChromeRows = 2

	sortAscMarker  = " ▲"
	sortDescMarker = " ▼"
)

// TableKeyMap are the paging, sorting and filtering bindings.
type TableKeyMap struct {
	NextPage  key.Binding
	PrevPage  key.Binding
	SortNext  key.Binding
	SortOrder key.Binding
	Filter    key.Binding
	Reload    key.Binding
	Quit      key.Binding
}

// DefaultTableKeyMap returns the default bindings.
func DefaultTableKeyMap() TableKeyMap {
	return TableKeyMap{
		NextPage:  key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		PrevPage:  key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "prev page")),
		SortNext:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		SortOrder: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "flip order")),
		Filter:    filterBinding,
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:      quitBinding,
	}
}

// ShortHelp implements help.KeyMap.
func (k TableKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.PrevPage, k.SortNext, k.SortOrder, k.Filter, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k TableKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Reload}}
}

// pageLoadedMsg carries the result of a page load.
type pageLoadedMsg struct {
	page tabledata.Page
	err  error
}

// prefetchDoneMsg reports the end of a neighbour prefetch.
type prefetchDoneMsg struct{ err error }

// TableModel pages through a dataset with a tabledata.Manager and shows the
// current page in a bubbles table.
type TableModel struct {
	Keys TableKeyMap

	ctx     context.Context
	manager *tabledata.Manager
	columns []string
	logger  zerolog.Logger

	state      ViewState
	table      table.Model
	filter     textinput.Model
	showFilter bool
	loading    *LoadingState
	help       help.Model
	printer    *message.Printer
	page       tabledata.Page

	width  int
	height int
	err    error
}

// NewTableModel builds the view. columns fixes the column order.
func NewTableModel(ctx context.Context, manager *tabledata.Manager, columns []string, logger zerolog.Logger) *TableModel {
	m := &TableModel{
		Keys:    DefaultTableKeyMap(),
		ctx:     ctx,
		manager: manager,
		columns: columns,
		logger:  logger,
		state:   ViewStateLoading,
		filter:  newFilterInput("Filter rows..."),
		loading: NewLoadingState(),
		help:    help.New(),
		printer: message.NewPrinter(language.English),
		width:   defaultWidth,
		height:  defaultHeight,
	}
	m.table = table.New(table.WithFocused(true))
	m.resize()
	return m
}

// Init starts the spinner and loads the first page.
func (m *TableModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.loadCmd(m.manager.Load))
}

// loadCmd runs a manager operation off the update loop.
func (m *TableModel) loadCmd(op func(context.Context) (tabledata.Page, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		page, err := op(ctx)
		return pageLoadedMsg{page: page, err: err}
	}
}

func (m *TableModel) prefetchCmd() tea.Cmd {
	ctx, mgr := m.ctx, m.manager
	return func() tea.Msg {
		return prefetchDoneMsg{err: mgr.PrefetchNeighbours(ctx)}
	}
}

// Update implements tea.Model.
func (m *TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil
	case pageLoadedMsg:
		return m, m.handlePageLoaded(msg)
	case prefetchDoneMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("prefetch failed")
		}
		return m, nil
	case spinner.TickMsg:
		if m.manager.Loading() || m.state == ViewStateLoading {
			return m, m.loading.Update(msg)
		}
		return m, nil
	case tea.KeyMsg:
		if m.showFilter {
			return m.handleFilterInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *TableModel) handlePageLoaded(msg pageLoadedMsg) tea.Cmd {
	switch {
	case errors.Is(msg.err, tabledata.ErrStaleResponse):
		return nil
	case msg.err != nil:
		m.err = msg.err
		if m.state == ViewStateLoading {
			m.state = ViewStateError
		}
		m.logger.Error().Err(msg.err).Msg("page load failed")
		return nil
	}

	m.err = nil
	m.state = ViewStateList
	m.page = msg.page
	m.refreshTable()
	return m.prefetchCmd()
}

func (m *TableModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.Keys.Quit) {
		m.state = ViewStateQuitting
		return m, tea.Quit
	}
	if m.state != ViewStateList {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.Keys.NextPage):
		if !m.page.Meta.HasNext {
			return m, nil
		}
		return m, m.loadCmd(m.manager.NextPage)
	case key.Matches(msg, m.Keys.PrevPage):
		if !m.page.Meta.HasPrevious {
			return m, nil
		}
		return m, m.loadCmd(m.manager.PrevPage)
	case key.Matches(msg, m.Keys.SortNext):
		field := m.nextSortField()
		return m, m.loadCmd(func(ctx context.Context) (tabledata.Page, error) {
			return m.manager.SetSort(ctx, field, tabledata.SortOrderAsc)
		})
	case key.Matches(msg, m.Keys.SortOrder):
		field := m.manager.Params().SortField
		if field == "" {
			return m, nil
		}
		return m, m.loadCmd(func(ctx context.Context) (tabledata.Page, error) {
			return m.manager.ToggleSort(ctx, field)
		})
	case key.Matches(msg, m.Keys.Filter):
		m.showFilter = true
		m.filter.SetValue(m.manager.Params().Filter)
		m.filter.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.Keys.Reload):
		return m, m.loadCmd(m.manager.Load)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *TableModel) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEnter:
		m.showFilter = false
		m.filter.Blur()
		query := strings.TrimSpace(m.filter.Value())
		return m, m.loadCmd(func(ctx context.Context) (tabledata.Page, error) {
			return m.manager.SetFilter(ctx, query)
		})
	case keyEsc:
		m.showFilter = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

// nextSortField cycles through the columns, then back to unsorted.
func (m *TableModel) nextSortField() string {
	cur := m.manager.Params().SortField
	i := slices.Index(m.columns, cur)
	if i+1 >= len(m.columns) {
		return ""
	}
	return m.columns[i+1]
}

func (m *TableModel) resize() {
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-tableChromeRows, 1))
	m.refreshTable()
}

// refreshTable rebuilds the columns and rows from the current page.
func (m *TableModel) refreshTable() {
	if len(m.columns) == 0 {
		return
	}
	params := m.manager.Params()
	width := max((m.width-2*len(m.columns))/len(m.columns), 4)

	cols := make([]table.Column, len(m.columns))
	for i, name := range m.columns {
		title := name
		if name == params.SortField {
			if params.SortOrder == tabledata.SortOrderDesc {
				title += sortDescMarker
			} else {
				title += sortAscMarker
			}
		}
		cols[i] = table.Column{Title: title, Width: width}
	}

	rows := make([]table.Row, len(m.page.Rows))
	for i, r := range m.page.Rows {
		row := make(table.Row, len(m.columns))
		for j, name := range m.columns {
			row[j] = dataset.FormatValue(r[name])
		}
		rows[i] = row
	}

	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// View implements tea.Model.
func (m *TableModel) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateLoading:
		return "\n " + m.loading.View() + "\n"
	case ViewStateError:
		return ErrorStyle.Render("Error: "+m.err.Error()) + "\n"
	case ViewStateList:
	}

	footer := m.help.ShortHelpView(m.Keys.ShortHelp())
	if m.showFilter {
		footer = m.filter.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.table.View(), m.status(), footer)
}

func (m *TableModel) status() string {
	if m.err != nil {
		return ErrorStyle.Render(m.err.Error())
	}

	meta := m.page.Meta
	parts := []string{
		m.printer.Sprintf("page %d/%d", meta.CurrentPage, max(meta.TotalPages, 1)),
		m.printer.Sprintf("rows %d–%d of %d", meta.FirstRow(), meta.LastRow(), meta.TotalItems),
	}
	params := m.manager.Params()
	if params.SortField != "" {
		parts = append(parts, "sort "+params.SortField+" "+params.SortOrder)
	}
	if params.Filter != "" {
		parts = append(parts, m.printer.Sprintf("filter %q", params.Filter))
	}
	if m.page.Cached {
		parts = append(parts, "cached "+cache.FormatDuration(time.Since(m.page.FetchedAt))+" ago")
	}
	if m.manager.Loading() {
		parts = append(parts, m.loading.View())
	}
	return LabelStyle.Render(strings.Join(parts, " · "))
}

// Page returns the page on screen.
func (m *TableModel) Page() tabledata.Page {
	return m.page
}

// State returns the view state.
func (m *TableModel) State() ViewState {
	return m.state
}
