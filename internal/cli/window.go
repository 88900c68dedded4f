package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/winlist/internal/dataset"
	"github.com/rshade/winlist/internal/logging"
	"github.com/rshade/winlist/internal/virtual"
)

// Output formats of the window command.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// windowFlags describe the geometry to evaluate.
type windowFlags struct {
	file            string
	length          int
	itemHeight      float64
	containerHeight string
	parentHeight    float64
	buffer          int
	scroll          float64
	keyField        string
	output          string
}

// windowReport is the machine-readable result of the window command.
type windowReport struct {
	Length          int     `json:"length"            yaml:"length"`
	ItemHeight      float64 `json:"item_height"       yaml:"item_height"`
	ContainerHeight float64 `json:"container_height"  yaml:"container_height"`
	ScrollOffset    float64 `json:"scroll_offset"     yaml:"scroll_offset"`
	BufferItems     int     `json:"buffer_items"      yaml:"buffer_items"`
	Measured        bool    `json:"measured"          yaml:"measured"`
	Empty           bool    `json:"empty"             yaml:"empty"`
	Start           int     `json:"start"             yaml:"start"`
	End             int     `json:"end"               yaml:"end"`
	Count           int     `json:"count"             yaml:"count"`
	OffsetPx        float64 `json:"offset_px"         yaml:"offset_px"`
	TotalHeightPx   float64 `json:"total_height_px"   yaml:"total_height_px"`
	MaxWindowLen    int     `json:"max_window_len"    yaml:"max_window_len"`
	Keys            []any   `json:"keys,omitempty"    yaml:"keys,omitempty"`
}

// NewWindowCmd creates the window command, which prints the render window
// for a geometry without starting a UI.
func NewWindowCmd() *cobra.Command {
	var flags windowFlags

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Print the render window for a list geometry",
		Long: `Computes which items a windowed list renders for the given dataset length,
item height, container height and scroll offset, and prints the window,
the offset of its first item and the total scroll height.

Percentage container heights are resolved against --parent-height. Without
it the container stays unmeasured and the window is empty.`,
		Example: `  # 100k items of 60px in a 600px container scrolled to 6000px
  winlist window --length 100000 --item-height 60 --container-height 600 --scroll 6000

  # Half of a 40 row parent, as YAML
  winlist window --length 1000 --container-height 50% --parent-height 40 -o yaml

  # Keys of the windowed records of a file
  winlist window --file records.ndjson --container-height 10 --scroll 500 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWindow(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "dataset file; reports the keys of windowed records")
	cmd.Flags().IntVar(&flags.length, "length", 0, "dataset length when no --file is given")
	cmd.Flags().Float64Var(&flags.itemHeight, "item-height", 1, "height of every item")
	cmd.Flags().StringVar(&flags.containerHeight, "container-height", "", `container height: "600", "600px" or "50%"`)
	cmd.Flags().Float64Var(&flags.parentHeight, "parent-height", 0, "parent height for percentage containers")
	cmd.Flags().IntVar(&flags.buffer, "buffer", virtual.DefaultBufferItems, "items rendered above and below the viewport")
	cmd.Flags().Float64Var(&flags.scroll, "scroll", 0, "scroll offset of the container")
	cmd.Flags().StringVar(&flags.keyField, "key-field", virtual.DefaultKeyField, "record field used as the key")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "output format: table, json or yaml")
	_ = cmd.MarkFlagRequired("container-height")

	return cmd
}

func runWindow(cmd *cobra.Command, flags windowFlags) error {
	switch flags.output {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", flags.output)
	}

	var (
		report windowReport
		err    error
	)
	if flags.file != "" {
		records, loadErr := dataset.Load(flags.file)
		if loadErr != nil {
			return loadErr
		}
		report, err = describeWindow(records, flags, true, virtual.WithKeyField[dataset.Record](flags.keyField))
	} else {
		if flags.length < 0 {
			return fmt.Errorf("--length must be >= 0, got %d", flags.length)
		}
		report, err = describeWindow(make([]struct{}, flags.length), flags, false)
	}
	if err != nil {
		return err
	}

	return writeWindowReport(cmd.OutOrStdout(), flags.output, report)
}

// describeWindow runs items through a tracker and list the way a host would
// and reports the resulting slice. withKeys adds the keys of the windowed
// entries.
func describeWindow[T any](items []T, flags windowFlags, withKeys bool, opts ...virtual.Option[T]) (windowReport, error) {
	parent := virtual.MeasurerFunc(func() (float64, error) {
		if flags.parentHeight <= 0 {
			return 0, virtual.ErrMeasurementUnavailable
		}
		return flags.parentHeight, nil
	})

	listLogger := logging.ComponentLogger(logger, "window")
	tracker := virtual.NewTracker(parent, virtual.WithTrackerLogger(listLogger))
	if err := tracker.MeasureContainer(flags.containerHeight); err != nil {
		return windowReport{}, err
	}
	tracker.SetScrollOffset(flags.scroll)

	opts = append([]virtual.Option[T]{
		virtual.WithItemHeight[T](flags.itemHeight),
		virtual.WithBufferItems[T](flags.buffer),
		virtual.WithLogger[T](listLogger),
	}, opts...)
	list, err := virtual.New(tracker, items, opts...)
	if err != nil {
		return windowReport{}, err
	}
	defer list.Close()

	g, measured := list.Geometry()
	s := list.Current()
	report := windowReport{
		Length:          len(items),
		ItemHeight:      g.ItemHeight,
		ContainerHeight: g.ContainerHeight,
		ScrollOffset:    g.ScrollOffset,
		BufferItems:     g.BufferItems,
		Measured:        measured,
		Empty:           s.Window.IsEmpty(),
		Start:           s.Window.Start,
		End:             s.Window.End,
		Count:           s.Window.Len(),
		OffsetPx:        s.OffsetPx,
		TotalHeightPx:   s.TotalHeightPx,
	}
	if measured {
		if report.MaxWindowLen, err = virtual.MaxWindowLen(g); err != nil {
			return windowReport{}, err
		}
	}
	if withKeys {
		report.Keys = make([]any, len(s.Entries))
		for i, e := range s.Entries {
			report.Keys[i] = e.Key
		}
	}
	return report, nil
}

func writeWindowReport(w io.Writer, format string, r windowReport) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Length", fmt.Sprint(r.Length)},
		{"Item height", fmt.Sprint(r.ItemHeight)},
		{"Container height", fmt.Sprint(r.ContainerHeight)},
		{"Scroll offset", fmt.Sprint(r.ScrollOffset)},
		{"Buffer items", fmt.Sprint(r.BufferItems)},
		{"Measured", fmt.Sprint(r.Measured)},
	}
	if r.Empty {
		rows = append(rows, [2]string{"Window", "empty"})
	} else {
		rows = append(rows,
			[2]string{"Window", fmt.Sprintf("%d..%d", r.Start, r.End)},
			[2]string{"Rendered", fmt.Sprint(r.Count)},
		)
	}
	rows = append(rows,
		[2]string{"Offset", fmt.Sprint(r.OffsetPx)},
		[2]string{"Total height", fmt.Sprint(r.TotalHeightPx)},
	)
	if r.MaxWindowLen > 0 {
		rows = append(rows, [2]string{"Max window", fmt.Sprint(r.MaxWindowLen)})
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	for i, k := range r.Keys {
		if _, err := fmt.Fprintf(tw, "  %d\t%v\n", r.Start+i, k); err != nil {
			return err
		}
	}
	return tw.Flush()
}
