package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/winlist/internal/cache"
	"github.com/rshade/winlist/internal/dataset"
)

// Page is one fetched page of rows.
type Page struct {
	Params    Params           `json:"params"`
	Rows      []dataset.Record `json:"rows"`
	Meta      Meta             `json:"meta"`
	FetchedAt time.Time        `json:"fetched_at"`
	// Cached is set when the page came from a cache rather than the source.
	Cached bool `json:"-"`
}

// Fetcher is a paginated row source.
type Fetcher interface {
	Fetch(ctx context.Context, params Params) (Page, error)
}

// MemoryFetcher serves pages from an in-memory dataset, applying filter
// and sort on the server side the way a paginated API would. The derived
// (filtered, sorted) view is memoized so paging within it is cheap.
type MemoryFetcher struct {
	records []dataset.Record
	columns []string
	latency time.Duration
	logger  zerolog.Logger

	mu       sync.Mutex
	viewKey  Params
	view     []dataset.Record
	hasView  bool
	requests int
}

// MemoryOption configures a MemoryFetcher.
type MemoryOption func(*MemoryFetcher)

// WithLatency delays every fetch by d, honouring context cancellation.
func WithLatency(d time.Duration) MemoryOption {
	return func(f *MemoryFetcher) { f.latency = d }
}

// WithFetchLogger sets the fetcher logger.
func WithFetchLogger(l zerolog.Logger) MemoryOption {
	return func(f *MemoryFetcher) { f.logger = l }
}

// NewMemoryFetcher wraps records. The slice is read, never modified.
func NewMemoryFetcher(records []dataset.Record, opts ...MemoryOption) *MemoryFetcher {
	f := &MemoryFetcher{
		records: records,
		columns: dataset.Columns(records),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Columns returns the sortable fields.
func (f *MemoryFetcher) Columns() []string {
	return f.columns
}

// Requests returns how many fetches reached the source.
func (f *MemoryFetcher) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

// Fetch returns the page described by params.
func (f *MemoryFetcher) Fetch(ctx context.Context, params Params) (Page, error) {
	if err := params.Validate(); err != nil {
		return Page{}, err
	}
	if err := ValidateSortField(params.SortField, f.columns); err != nil {
		return Page{}, err
	}

	if f.latency > 0 {
		timer := time.NewTimer(f.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Page{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	view := f.derive(params)
	meta := NewMeta(params, len(view))
	if params.Page > 1 && params.Page > meta.TotalPages {
		return Page{}, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, params.Page, meta.TotalPages)
	}

	start := min(params.Offset(), len(view))
	end := min(start+params.PageSize, len(view))

	f.logger.Debug().
		Int("page", params.Page).
		Int("rows", end-start).
		Int("total", len(view)).
		Msg("page fetched")

	return Page{
		Params:    params,
		Rows:      view[start:end],
		Meta:      meta,
		FetchedAt: time.Now(),
	}, nil
}

func (f *MemoryFetcher) derive(params Params) []dataset.Record {
	key := params.WithPage(0)
	key.PageSize = 0

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	if f.hasView && f.viewKey == key {
		return f.view
	}
	view := dataset.Filter(f.records, params.Filter)
	if params.SortField != "" {
		view = SortRecords(view, params.SortField, params.SortOrder)
	}
	f.viewKey, f.view, f.hasView = key, view, true
	return view
}

// CachedFetcher memoizes pages from an inner Fetcher in a cache.FileStore.
// namespace separates datasets sharing one store.
type CachedFetcher struct {
	inner     Fetcher
	store     *cache.FileStore
	namespace string
	logger    zerolog.Logger
}

// NewCachedFetcher wraps inner. A nil or disabled store passes through.
func NewCachedFetcher(inner Fetcher, store *cache.FileStore, namespace string, logger zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{inner: inner, store: store, namespace: namespace, logger: logger}
}

// Fetch returns a cached page when one is fresh, otherwise fetches and
// stores it. Cache failures are logged and never fail the fetch.
func (c *CachedFetcher) Fetch(ctx context.Context, params Params) (Page, error) {
	if c.store == nil || !c.store.Enabled() {
		return c.inner.Fetch(ctx, params)
	}

	key, err := cache.GenerateKey("page-"+c.namespace, params)
	if err != nil {
		return c.inner.Fetch(ctx, params)
	}

	page, _, err := cache.GetJSON[Page](c.store, key)
	switch {
	case err == nil:
		page.Cached = true
		c.logger.Debug().Str("key", key).Int("page", params.Page).Msg("page cache hit")
		return page, nil
	case errors.Is(err, cache.ErrCacheNotFound), errors.Is(err, cache.ErrCacheExpired):
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("page cache read failed")
	}

	page, err = c.inner.Fetch(ctx, params)
	if err != nil {
		return Page{}, err
	}
	if setErr := cache.SetJSON(c.store, key, page); setErr != nil {
		c.logger.Warn().Err(setErr).Str("key", key).Msg("page cache write failed")
	}
	return page, nil
}
