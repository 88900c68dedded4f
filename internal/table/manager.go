package table

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/winlist/internal/dataset"
)

// DefaultPrefetchLimit bounds concurrent prefetch requests.
const DefaultPrefetchLimit = 3

// ErrStaleResponse is returned by a Load whose result was superseded by a
// newer request before it completed.
var ErrStaleResponse = errors.New("superseded by a newer request")

// Manager owns table state and loads pages through a Fetcher. State
// transitions take effect immediately; the page for the new state arrives
// when Load returns. Only the most recent request's result is kept.
//
// Safe for concurrent use; fetches run without holding the lock.
type Manager struct {
	fetcher Fetcher
	logger  zerolog.Logger

	mu         sync.Mutex
	params     Params
	page       Page
	loaded     bool
	loading    int
	seq        uint64
	err        error
	prefetched map[Params]Page
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the manager logger.
func WithManagerLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager validates the initial params.
func NewManager(f Fetcher, params Params, opts ...ManagerOption) (*Manager, error) {
	if f == nil {
		return nil, errors.New("table manager requires a fetcher")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		fetcher:    f,
		params:     params,
		logger:     zerolog.Nop(),
		prefetched: make(map[Params]Page),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Params returns the current state.
func (m *Manager) Params() Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

// Rows returns the rows of the last loaded page.
func (m *Manager) Rows() []dataset.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page.Rows
}

// Page returns the last loaded page and whether one has loaded.
func (m *Manager) Page() (Page, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page, m.loaded
}

// Meta returns the metadata of the last loaded page.
func (m *Manager) Meta() Meta {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page.Meta
}

// Loading reports whether a load is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading > 0
}

// Err returns the error of the most recent load, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Load fetches the page for the current state.
func (m *Manager) Load(ctx context.Context) (Page, error) {
	m.mu.Lock()
	params := m.params
	m.seq++
	seq := m.seq
	if page, ok := m.prefetched[params]; ok {
		m.applyLocked(page, nil)
		m.mu.Unlock()
		return page, nil
	}
	m.loading++
	m.mu.Unlock()

	page, err := m.fetcher.Fetch(ctx, params)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading--
	if seq != m.seq {
		m.logger.Debug().Int("page", params.Page).Msg("discarding stale page")
		return Page{}, ErrStaleResponse
	}
	m.applyLocked(page, err)
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

func (m *Manager) applyLocked(page Page, err error) {
	m.err = err
	if err != nil {
		return
	}
	m.page = page
	m.loaded = true
}

// SetPage moves to page n and loads it.
func (m *Manager) SetPage(ctx context.Context, n int) (Page, error) {
	if n < 1 {
		return Page{}, fmt.Errorf("%w: got %d", ErrInvalidPage, n)
	}
	m.update(func(p *Params) bool { p.Page = n; return false })
	return m.Load(ctx)
}

// NextPage loads the following page. At the last page it returns the
// current page unchanged.
func (m *Manager) NextPage(ctx context.Context) (Page, error) {
	m.mu.Lock()
	meta, loaded := m.page.Meta, m.loaded
	page := m.page
	m.mu.Unlock()
	if loaded && !meta.HasNext {
		return page, nil
	}
	return m.SetPage(ctx, m.Params().Page+1)
}

// PrevPage loads the preceding page. At page 1 it returns the current page.
func (m *Manager) PrevPage(ctx context.Context) (Page, error) {
	cur := m.Params().Page
	if cur <= 1 {
		page, _ := m.Page()
		return page, nil
	}
	return m.SetPage(ctx, cur-1)
}

// SetPageSize changes the page size and returns to page 1.
func (m *Manager) SetPageSize(ctx context.Context, size int) (Page, error) {
	if size < MinPageSize || size > MaxPageSize {
		return Page{}, fmt.Errorf("%w: got %d", ErrInvalidPageSize, size)
	}
	m.update(func(p *Params) bool { p.PageSize = size; p.Page = 1; return true })
	return m.Load(ctx)
}

// SetSort sorts by field in order and returns to page 1. An empty field
// clears sorting.
func (m *Manager) SetSort(ctx context.Context, field, order string) (Page, error) {
	if order != SortOrderAsc && order != SortOrderDesc {
		return Page{}, fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	m.update(func(p *Params) bool { p.SortField, p.SortOrder, p.Page = field, order, 1; return true })
	return m.Load(ctx)
}

// ToggleSort sorts ascending by a new field, or flips the order when field
// is already the sort field.
func (m *Manager) ToggleSort(ctx context.Context, field string) (Page, error) {
	cur := m.Params()
	order := SortOrderAsc
	if cur.SortField == field {
		order = FlipOrder(cur.SortOrder)
	}
	return m.SetSort(ctx, field, order)
}

// SetFilter applies a case-insensitive substring filter and returns to page 1.
func (m *Manager) SetFilter(ctx context.Context, filter string) (Page, error) {
	m.update(func(p *Params) bool { p.Filter, p.Page = filter, 1; return true })
	return m.Load(ctx)
}

// update mutates params under the lock. fn returns true when the change
// invalidates prefetched pages.
func (m *Manager) update(fn func(*Params) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn(&m.params) {
		clear(m.prefetched)
	}
}

// Prefetch loads the given pages of the current state concurrently and
// keeps them for later SetPage calls. Out-of-range and invalid pages are
// skipped.
func (m *Manager) Prefetch(ctx context.Context, pages ...int) error {
	base := m.Params()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultPrefetchLimit)

	for _, n := range pages {
		if n < 1 {
			continue
		}
		params := base.WithPage(n)
		m.mu.Lock()
		_, have := m.prefetched[params]
		m.mu.Unlock()
		if have {
			continue
		}

		g.Go(func() error {
			page, err := m.fetcher.Fetch(gctx, params)
			if errors.Is(err, ErrPageOutOfRange) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("prefetching page %d: %w", params.Page, err)
			}
			m.mu.Lock()
			defer m.mu.Unlock()
			// Drop results for a state that changed meanwhile.
			if stillCurrent(m.params, params) {
				m.prefetched[params] = page
			}
			return nil
		})
	}
	return g.Wait()
}

// PrefetchNeighbours prefetches the pages either side of the current one.
func (m *Manager) PrefetchNeighbours(ctx context.Context) error {
	cur := m.Params().Page
	return m.Prefetch(ctx, cur-1, cur+1)
}

func stillCurrent(current, fetched Params) bool {
	return current.WithPage(0) == fetched.WithPage(0)
}
