package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/winlist/internal/cache"
	"github.com/rshade/winlist/internal/config"
)

// openCacheStore opens the configured page cache regardless of whether
// caching is enabled, so it can be inspected and cleaned.
func openCacheStore() (*cache.FileStore, error) {
	dir, err := config.GetCacheDir()
	if err != nil {
		return nil, err
	}
	section := config.GetGlobalConfig().Cache
	settings := cache.Settings{
		Directory: dir,
		TTL:       time.Duration(section.TTLSeconds) * time.Second,
	}.ApplyEnv()
	settings.Enabled = true
	return settings.Open()
}

// NewCacheStatsCmd creates the cache stats command.
func NewCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache location, TTL and entry count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheStore()
			if err != nil {
				return err
			}
			n, err := store.Count()
			if err != nil {
				return err
			}
			cmd.Printf("Directory: %s\n", store.Directory())
			cmd.Printf("TTL: %s\n", cache.FormatDuration(store.TTL()))
			cmd.Printf("Entries: %d\n", n)
			return nil
		},
	}
}

// NewCachePruneCmd creates the cache prune command.
func NewCachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable cache entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheStore()
			if err != nil {
				return err
			}
			before, err := store.Count()
			if err != nil {
				return err
			}
			if err = store.CleanupExpired(); err != nil {
				return fmt.Errorf("pruning cache: %w", err)
			}
			after, err := store.Count()
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d expired entries, %d remain\n", before-after, after)
			return nil
		},
	}
}

// NewCacheClearCmd creates the cache clear command.
func NewCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheStore()
			if err != nil {
				return err
			}
			if err = store.Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			cmd.Printf("Cache cleared\n")
			return nil
		},
	}
}
