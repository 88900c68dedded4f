// Package cache is a small file-backed TTL cache. Each entry is one JSON
// file named by its key under the cache directory (by default
// ~/.winlist/cache). The table view uses it to memoize simulated page
// fetches across runs.
package cache
