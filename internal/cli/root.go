package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/winlist/internal/config"
	"github.com/rshade/winlist/internal/logging"
)

// annotationTUI marks commands that take over the terminal.
const annotationTUI = "winlist/tui"

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger = zerolog.Nop() //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the winlist CLI.
func NewRootCmd(ver string) *cobra.Command {
	var (
		logResult  *logging.LogPathResult
		configPath string
		overlays   []string
	)

	cmd := &cobra.Command{
		Use:           "winlist",
		Short:         "Windowed list rendering for very large datasets",
		Long:          "winlist renders only the slice of a dataset that intersects the viewport, so lists of millions of records scroll smoothly.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(configPath, overlays); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default $WINLIST_CONFIG or ~/.winlist/config.yaml)")
	cmd.PersistentFlags().StringArrayVar(&overlays, "overlay", nil,
		"YAML file whose top-level sections replace those of the config (repeatable)")

	cmd.AddCommand(
		NewViewCmd(), NewTableCmd(), NewWindowCmd(), NewGenerateCmd(),
		newConfigCmd(), newCacheCmd(),
	)
	return cmd
}

// loadConfig loads the config file, merges overlays and installs the result
// as the global config.
func loadConfig(path string, overlays []string) error {
	resolved, err := config.ResolvePath(path)
	if err != nil {
		return err
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return err
	}
	for _, overlay := range overlays {
		if err = config.ShallowMergeYAML(cfg, overlay); err != nil {
			return err
		}
	}
	config.SetGlobalConfig(cfg)
	return nil
}

const rootCmdExample = `  # Browse a million generated records
  winlist view --generate 1000000

  # Browse a file with two-row items in the top half of the terminal
  winlist view --file records.ndjson --item-height 2 --container-height 50%

  # Page through a file in a sortable table
  winlist table --file records.json --page-size 50 --sort value:desc

  # Print the window for a scroll position
  winlist window --length 100000 --item-height 60 --container-height 600 --scroll 6000 -o json

  # Write a synthetic dataset
  winlist generate --count 1000000 --out records.ndjson

  # Initialize configuration
  winlist config init`

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}

// newCacheCmd creates the cache command group.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Page cache commands"}
	cmd.AddCommand(NewCacheStatsCmd(), NewCachePruneCmd(), NewCacheClearCmd())
	return cmd
}

// requireTerminal fails when cmd's output is not a terminal.
func requireTerminal(cmd *cobra.Command) error {
	if !isTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("%s needs an interactive terminal; use 'winlist window' for scripted output", cmd.Name())
	}
	return nil
}
