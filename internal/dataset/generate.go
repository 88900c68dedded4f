package dataset

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/rshade/winlist/internal/batch"
)

// MaxGenerate caps synthetic dataset size.
const MaxGenerate = 50_000_000

// ID formats for generated records.
const (
	IDFormatULID = "ulid"
	IDFormatUUID = "uuid"
)

//nolint:gochecknoglobals // Fixed vocabulary for synthetic records.
var categories = []string{"compute", "storage", "network", "database", "analytics", "security"}

// GenerateOptions controls synthetic record generation.
type GenerateOptions struct {
	// Seed makes output reproducible. Equal seeds give equal datasets.
	Seed int64
	// Start is the created timestamp of record 0; each record is one minute later.
	Start time.Time
	// IDFormat is IDFormatULID (default) or IDFormatUUID.
	IDFormat string
	// Concurrency bounds parallel batches. Zero means 4.
	Concurrency int
	// BatchSize defaults to batch.DefaultBatchSize.
	BatchSize int
}

// Generate builds n synthetic records with id, name, category, value and
// created fields. Output depends only on n and opts.
func Generate(ctx context.Context, n int, opts GenerateOptions) ([]Record, error) {
	if n < 0 || n > MaxGenerate {
		return nil, fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidCount, n, MaxGenerate)
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	switch opts.IDFormat {
	case "":
		opts.IDFormat = IDFormatULID
	case IDFormatULID, IDFormatUUID:
	default:
		return nil, fmt.Errorf("%w: id format %q", ErrUnsupportedFormat, opts.IDFormat)
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = batch.DefaultBatchSize
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = 4
	}

	proc, err := batch.NewProcessor[Record](opts.BatchSize)
	if err != nil {
		return nil, err
	}

	records := make([]Record, n)
	err = proc.ProcessConcurrent(ctx, records, func(_ context.Context, chunk []Record, offset int) error {
		// Seeded per batch so the result is independent of scheduling.
		rng := rand.New(rand.NewSource(opts.Seed ^ int64(offset)*0x5DEECE66D)) //nolint:gosec // synthetic data
		entropy := ulid.Monotonic(rng, 0)
		for i := range chunk {
			idx := offset + i
			created := opts.Start.Add(time.Duration(idx) * time.Minute)
			id, idErr := newID(opts.IDFormat, created, entropy, rng)
			if idErr != nil {
				return idErr
			}
			chunk[i] = Record{
				"id":       id,
				"name":     fmt.Sprintf("item-%08d", idx),
				"category": categories[rng.Intn(len(categories))],
				"value":    math.Round(rng.Float64()*100000) / 100,
				"created":  created.Format(time.RFC3339),
			}
		}
		return nil
	}, opts.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("generating records: %w", err)
	}
	return records, nil
}

func newID(format string, created time.Time, entropy *ulid.MonotonicEntropy, rng *rand.Rand) (string, error) {
	if format == IDFormatUUID {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return "", fmt.Errorf("generating uuid: %w", err)
		}
		return id.String(), nil
	}
	id, err := ulid.New(ulid.Timestamp(created), entropy)
	if err != nil {
		return "", fmt.Errorf("generating ulid: %w", err)
	}
	return id.String(), nil
}
