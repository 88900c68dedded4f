package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/winlist/internal/dataset"
)

// defaultGenerateCount is used when neither --file nor --generate is given.
const defaultGenerateCount = 100_000

// sourceFlags selects the records a command works on.
type sourceFlags struct {
	file     string
	generate int
	seed     int64
	idFormat string
}

func addSourceFlags(cmd *cobra.Command, f *sourceFlags) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "dataset file (.json, .ndjson, .jsonl, .yaml, .yml, .toml)")
	cmd.Flags().IntVar(&f.generate, "generate", 0,
		fmt.Sprintf("generate this many synthetic records (default %d when no --file)", defaultGenerateCount))
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "seed for generated records")
	cmd.Flags().StringVar(&f.idFormat, "id-format", dataset.IDFormatULID, "id format for generated records: ulid or uuid")
}

// load returns the records and a title describing where they came from.
func (f sourceFlags) load(ctx context.Context) ([]dataset.Record, string, error) {
	if f.file != "" && f.generate != 0 {
		return nil, "", errors.New("--file and --generate are mutually exclusive")
	}

	if f.file != "" {
		records, err := dataset.Load(f.file)
		if err != nil {
			return nil, "", err
		}
		logger.Debug().Ctx(ctx).Str("file", f.file).Int("records", len(records)).Msg("dataset loaded")
		return records, filepath.Base(f.file), nil
	}

	n := f.generate
	if n == 0 {
		n = defaultGenerateCount
	}
	records, err := dataset.Generate(ctx, n, dataset.GenerateOptions{Seed: f.seed, IDFormat: f.idFormat})
	if err != nil {
		return nil, "", err
	}
	logger.Debug().Ctx(ctx).Int("records", n).Int64("seed", f.seed).Msg("dataset generated")
	return records, message.NewPrinter(language.English).Sprintf("%d generated records", n), nil
}
