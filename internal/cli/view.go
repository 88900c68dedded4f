package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/winlist/internal/config"
	"github.com/rshade/winlist/internal/logging"
	"github.com/rshade/winlist/internal/tui"
	listview "github.com/rshade/winlist/internal/tui/list"
)

// viewFlags are the list geometry overrides of the view command.
type viewFlags struct {
	source          sourceFlags
	itemHeight      int
	containerHeight string
	buffer          int
	keyField        string
}

// NewViewCmd creates the view command, an interactive windowed list.
func NewViewCmd() *cobra.Command {
	var flags viewFlags

	cmd := &cobra.Command{
		Use:         "view",
		Short:       "Browse a dataset in a windowed list",
		Long:        "Opens an interactive list that renders only the records intersecting the viewport plus a buffer above and below.",
		Annotations: map[string]string{annotationTUI: "true"},
		Example: `  # Browse 1M generated records
  winlist view --generate 1000000

  # Browse a file, keyed by sku, in half the terminal
  winlist view --file items.yaml --key-field sku --container-height 50%`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, flags)
		},
	}

	addSourceFlags(cmd, &flags.source)
	cmd.Flags().IntVar(&flags.itemHeight, "item-height", 0, "rows per item (default from config)")
	cmd.Flags().StringVar(&flags.containerHeight, "container-height", "",
		`list height: rows ("20"), or a share of the terminal ("50%") (default from config)`)
	cmd.Flags().IntVar(&flags.buffer, "buffer", -1, "items rendered above and below the viewport (default from config)")
	cmd.Flags().StringVar(&flags.keyField, "key-field", "", "record field used as the stable key (default from config)")

	return cmd
}

// listConfig merges the list section of the global config with flags.
func (f viewFlags) listConfig(cmd *cobra.Command) (listview.Config, error) {
	section := config.GetGlobalConfig().List
	if cmd.Flags().Changed("item-height") {
		section.ItemHeight = f.itemHeight
	}
	if f.containerHeight != "" {
		section.ContainerHeight = f.containerHeight
	}
	if cmd.Flags().Changed("buffer") {
		section.BufferItems = f.buffer
	}
	if f.keyField != "" {
		section.KeyField = f.keyField
	}
	if err := section.Validate(); err != nil {
		return listview.Config{}, err
	}

	cfg := listview.DefaultConfig()
	cfg.ItemHeight = section.ItemHeight
	cfg.ContainerHeight = section.ContainerHeight
	cfg.BufferItems = section.BufferItems
	cfg.KeyField = section.KeyField
	cfg.ResizeDebounce = time.Duration(section.ResizeDebounceMs) * time.Millisecond
	cfg.Logger = logging.ComponentLogger(logger, "list")
	return cfg, nil
}

func runView(cmd *cobra.Command, flags viewFlags) error {
	cfg, err := flags.listConfig(cmd)
	if err != nil {
		return err
	}
	if err = requireTerminal(cmd); err != nil {
		return err
	}

	ctx := cmd.Context()
	records, title, err := flags.source.load(ctx)
	if err != nil {
		return err
	}

	model, err := tui.NewBrowserModel(title, records, cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err = p.Run(); err != nil {
		return fmt.Errorf("running list view: %w", err)
	}
	return nil
}
