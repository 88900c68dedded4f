package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tabledata "github.com/rshade/winlist/internal/table"
)

type failingFetcher struct{ err error }

func (f failingFetcher) Fetch(context.Context, tabledata.Params) (tabledata.Page, error) {
	return tabledata.Page{}, f.err
}

func newTableModel(t *testing.T, n int) *TableModel {
	t.Helper()
	fetcher := tabledata.NewMemoryFetcher(makeRecords(n))
	params := tabledata.NewParams()
	params.PageSize = 10
	mgr, err := tabledata.NewManager(fetcher, params)
	require.NoError(t, err)

	m := NewTableModel(context.Background(), mgr, fetcher.Columns(), zerolog.Nop())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	return m
}

// drive runs cmd and feeds its message back, following the returned
// commands until none is left.
func drive(t *testing.T, m *TableModel, cmd tea.Cmd) {
	t.Helper()
	for range 5 {
		if cmd == nil {
			return
		}
		_, cmd = m.Update(cmd())
	}
	t.Fatal("command chain did not settle")
}

func press(m *TableModel, s string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return cmd
}

func TestTableModel_LoadsFirstPage(t *testing.T) {
	m := newTableModel(t, 95)
	assert.Equal(t, ViewStateLoading, m.State())
	assert.NotNil(t, m.Init())
	assert.Contains(t, ansi.Strip(m.View()), "Loading")

	drive(t, m, m.loadCmd(m.manager.Load))

	assert.Equal(t, ViewStateList, m.State())
	assert.Equal(t, 1, m.Page().Meta.CurrentPage)
	assert.Len(t, m.Page().Rows, 10)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "page 1/10")
	assert.Contains(t, view, "rows 1–10 of 95")
	assert.Contains(t, view, "rec-0000")
}

func TestTableModel_Paging(t *testing.T) {
	m := newTableModel(t, 95)
	drive(t, m, m.loadCmd(m.manager.Load))

	assert.Nil(t, press(m, "p"), "no previous page")

	drive(t, m, press(m, "n"))
	assert.Equal(t, 2, m.Page().Meta.CurrentPage)
	assert.Equal(t, "rec-0010", m.Page().Rows[0]["id"])

	drive(t, m, press(m, "p"))
	assert.Equal(t, 1, m.Page().Meta.CurrentPage)

	for range 9 {
		drive(t, m, press(m, "n"))
	}
	assert.Equal(t, 10, m.Page().Meta.CurrentPage)
	assert.Len(t, m.Page().Rows, 5)
	assert.Nil(t, press(m, "n"), "no next page")
	assert.Contains(t, ansi.Strip(m.View()), "rows 91–95 of 95")
}

func TestTableModel_Sorting(t *testing.T) {
	m := newTableModel(t, 30)
	drive(t, m, m.loadCmd(m.manager.Load))

	assert.Nil(t, press(m, "o"), "nothing to flip without a sort field")

	drive(t, m, press(m, "s"))
	assert.Equal(t, "id", m.manager.Params().SortField)
	assert.Equal(t, "rec-0000", m.Page().Rows[0]["id"])

	drive(t, m, press(m, "o"))
	assert.Equal(t, tabledata.SortOrderDesc, m.manager.Params().SortOrder)
	assert.Equal(t, "rec-0029", m.Page().Rows[0]["id"])
	assert.Contains(t, ansi.Strip(m.View()), "id ▼")

	drive(t, m, press(m, "s"))
	drive(t, m, press(m, "s"))
	assert.Equal(t, "value", m.manager.Params().SortField)
	assert.InDelta(t, 1.0, m.Page().Rows[0]["value"], 1e-9)

	drive(t, m, press(m, "s"))
	assert.Empty(t, m.manager.Params().SortField, "cycling past the last column clears the sort")
}

func TestTableModel_Filter(t *testing.T) {
	m := newTableModel(t, 95)
	drive(t, m, m.loadCmd(m.manager.Load))

	assert.NotNil(t, press(m, "/"))
	press(m, "name-9")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drive(t, m, cmd)

	assert.Equal(t, "name-9", m.manager.Params().Filter)
	assert.Equal(t, 6, m.Page().Meta.TotalItems)
	assert.Contains(t, ansi.Strip(m.View()), `filter "name-9"`)
}

func TestTableModel_LoadError(t *testing.T) {
	boom := errors.New("backend down")
	mgr, err := tabledata.NewManager(failingFetcher{err: boom}, tabledata.NewParams())
	require.NoError(t, err)

	m := NewTableModel(context.Background(), mgr, []string{"id"}, zerolog.Nop())
	drive(t, m, m.loadCmd(mgr.Load))

	assert.Equal(t, ViewStateError, m.State())
	assert.Contains(t, ansi.Strip(m.View()), "backend down")
}

func TestTableModel_IgnoresStaleResponses(t *testing.T) {
	m := newTableModel(t, 20)
	drive(t, m, m.loadCmd(m.manager.Load))

	m.Update(pageLoadedMsg{err: tabledata.ErrStaleResponse})
	assert.Equal(t, ViewStateList, m.State())
	assert.Len(t, m.Page().Rows, 10)
	assert.NotContains(t, ansi.Strip(m.View()), "stale")
}

func TestTableModel_Quit(t *testing.T) {
	m := newTableModel(t, 5)
	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, ViewStateQuitting, m.State())
	assert.Empty(t, m.View())
}
