// Package table is the data-table state manager: it keeps page, page size,
// sort and filter state, validates it, and drives a paginated Fetcher.
//
//   - Params: the page/sort/filter state plus validation and page arithmetic
//   - Meta: derived page counts for a result
//   - Fetcher: the paginated transport; MemoryFetcher simulates one over an
//     in-memory dataset and CachedFetcher memoizes pages on disk
//   - Manager: orchestrates state transitions, latest-request-wins loading
//     and concurrent prefetch of neighbouring pages
package table
