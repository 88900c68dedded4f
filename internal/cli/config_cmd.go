package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/winlist/internal/config"
)

// configPathFlag returns the config file the command operates on.
func configPathFlag(cmd *cobra.Command) (string, error) {
	flag, _ := cmd.Flags().GetString("config")
	return config.ResolvePath(flag)
}

// NewConfigInitCmd creates the config init command for initializing configuration.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a configuration file with default values at ~/.winlist/config.yaml,
$WINLIST_CONFIG, or the path given with --config.`,
		Example: `  # Create the default configuration
  winlist config init

  # Create configuration, overwriting existing
  winlist config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPathFlag(cmd)
			if err != nil {
				return err
			}

			if !force {
				_, statErr := os.Stat(path)
				if statErr == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(statErr) {
					return fmt.Errorf("cannot access config path %s: %w", path, statErr)
				}
			}

			if err = config.New().Save(path); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			cmd.Printf("Configuration initialized at %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	return cmd
}

// NewConfigShowCmd creates the config show command, which prints the
// effective configuration after file, overlays and environment.
func NewConfigShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			switch output {
			case outputYAML:
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			case outputJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			default:
				return fmt.Errorf("unknown output format %q (want yaml or json)", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "output format: yaml or json")
	return cmd
}

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration: version compatibility, list geometry,
table paging and sorting, logging and cache settings.`,
		Example: `  # Validate current configuration
  winlist config validate

  # Validate and show detailed information
  winlist config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			cmd.Printf("Configuration is valid\n")
			if verbose {
				printVerboseDetails(cmd, cfg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	return cmd
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	if path := cfg.Path(); path != "" {
		cmd.Printf("  File: %s\n", path)
	}
	cmd.Printf("  Version: %s\n", cfg.Version)
	cmd.Printf("  Item height: %d\n", cfg.List.ItemHeight)
	cmd.Printf("  Container height: %s\n", cfg.List.ContainerHeight)
	cmd.Printf("  Buffer items: %d\n", cfg.List.BufferItems)
	cmd.Printf("  Key field: %s\n", cfg.List.KeyField)
	cmd.Printf("  Resize debounce: %s\n", config.GetResizeDebounce())
	cmd.Printf("  Page size: %d\n", cfg.Table.PageSize)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		cmd.Printf("  Log file: %s\n", cfg.Logging.File)
	}
	cmd.Printf("  Cache enabled: %t\n", cfg.Cache.Enabled)
}
