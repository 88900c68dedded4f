package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/winlist/internal/cache"
	"github.com/rshade/winlist/internal/config"
	"github.com/rshade/winlist/internal/dataset"
	"github.com/rshade/winlist/internal/logging"
	"github.com/rshade/winlist/internal/table"
	"github.com/rshade/winlist/internal/tui"
)

// tableFlags are the paging overrides of the table command.
type tableFlags struct {
	source   sourceFlags
	pageSize int
	sort     string
	filter   string
	latency  time.Duration
	noCache  bool
}

// NewTableCmd creates the table command, an interactive paginated table.
func NewTableCmd() *cobra.Command {
	var flags tableFlags

	cmd := &cobra.Command{
		Use:         "table",
		Short:       "Page through a dataset in a sortable, filterable table",
		Annotations: map[string]string{annotationTUI: "true"},
		Example: `  # Sort by value, largest first
  winlist table --file records.json --sort value:desc

  # Simulate a slow backend to watch prefetching
  winlist table --generate 50000 --latency 300ms`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTable(cmd, flags)
		},
	}

	addSourceFlags(cmd, &flags.source)
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "rows per page (default from config)")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "initial sort as field[:asc|desc] (default from config)")
	cmd.Flags().StringVar(&flags.filter, "filter", "", "initial case-insensitive filter")
	cmd.Flags().DurationVar(&flags.latency, "latency", 0, "simulated fetch latency (default from config)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "bypass the page cache")

	return cmd
}

// params builds the initial table params from config and flags.
func (f tableFlags) params(cmd *cobra.Command, section config.TableConfig) (table.Params, error) {
	if cmd.Flags().Changed("page-size") {
		section.PageSize = f.pageSize
	}
	if f.sort != "" {
		section.Sort = f.sort
	}
	if err := section.Validate(); err != nil {
		return table.Params{}, err
	}

	params := table.NewParams()
	params.PageSize = section.PageSize
	params.Filter = f.filter
	field, order, err := table.ParseSort(section.Sort)
	if err != nil {
		return table.Params{}, err
	}
	params.SortField, params.SortOrder = field, order
	return params, nil
}

// openPageCache opens the file cache from the global config, or returns nil
// when caching is off.
func openPageCache(noCache bool) *cache.FileStore {
	if noCache {
		return nil
	}
	dir, err := config.GetCacheDir()
	if err != nil {
		logger.Warn().Err(err).Msg("no cache directory, caching disabled")
		return nil
	}
	section := config.GetGlobalConfig().Cache
	settings := cache.Settings{
		Enabled:   section.Enabled,
		Directory: dir,
		TTL:       time.Duration(section.TTLSeconds) * time.Second,
	}.ApplyEnv()
	if !settings.Enabled {
		return nil
	}
	store, err := settings.Open()
	if err != nil {
		logger.Warn().Err(err).Msg("opening page cache failed, caching disabled")
		return nil
	}
	return store
}

// buildFetcher wraps the records in a memory fetcher and, when a cache is
// available, a cache keyed by the dataset fingerprint.
func buildFetcher(records []dataset.Record, latency time.Duration, store *cache.FileStore) (table.Fetcher, []string) {
	fetchLogger := logging.ComponentLogger(logger, "table")
	mem := table.NewMemoryFetcher(records, table.WithLatency(latency), table.WithFetchLogger(fetchLogger))
	if store == nil {
		return mem, mem.Columns()
	}
	return table.NewCachedFetcher(mem, store, dataset.Fingerprint(records), fetchLogger), mem.Columns()
}

func runTable(cmd *cobra.Command, flags tableFlags) error {
	section := config.GetGlobalConfig().Table
	params, err := flags.params(cmd, section)
	if err != nil {
		return err
	}
	latency := time.Duration(section.LatencyMs) * time.Millisecond
	if cmd.Flags().Changed("latency") {
		latency = flags.latency
	}

	ctx := cmd.Context()
	records, _, err := flags.source.load(ctx)
	if err != nil {
		return err
	}

	fetcher, columns := buildFetcher(records, latency, openPageCache(flags.noCache))
	if err = table.ValidateSortField(params.SortField, columns); err != nil {
		return err
	}
	if err = requireTerminal(cmd); err != nil {
		return err
	}

	mgr, err := table.NewManager(fetcher, params, table.WithManagerLogger(logging.ComponentLogger(logger, "table")))
	if err != nil {
		return err
	}

	model := tui.NewTableModel(ctx, mgr, columns, logger)
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err = p.Run(); err != nil {
		return fmt.Errorf("running table view: %w", err)
	}
	return nil
}
