package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Batch size limits.
const (
	DefaultBatchSize = 500
	MinBatchSize     = 1
	MaxBatchSize     = 10000
)

var (
	ErrInvalidBatchSize = fmt.Errorf("batch size must be between %d and %d", MinBatchSize, MaxBatchSize)
	ErrNilCallback      = errors.New("batch callback cannot be nil")
)

// Func processes one batch. offset is the index of batch[0] in the full slice.
type Func[T any] func(ctx context.Context, batch []T, offset int) error

// ProgressFunc is invoked after each completed batch.
type ProgressFunc func(Snapshot)

// Processor runs a Func over consecutive batches of a slice.
type Processor[T any] struct {
	batchSize  int
	onProgress ProgressFunc
}

// NewProcessor returns a processor with the given batch size.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor[T]{batchSize: batchSize}, nil
}

// WithProgress sets the progress callback and returns p.
func (p *Processor[T]) WithProgress(fn ProgressFunc) *Processor[T] {
	p.onProgress = fn
	return p
}

// BatchSize returns the configured batch size.
func (p *Processor[T]) BatchSize() int {
	return p.batchSize
}

// Bounds returns the [start, end) index pairs covering total items.
func (p *Processor[T]) Bounds(total int) [][2]int {
	if total <= 0 {
		return nil
	}
	n := (total + p.batchSize - 1) / p.batchSize
	out := make([][2]int, n)
	for i := range n {
		start := i * p.batchSize
		out[i] = [2]int{start, min(start+p.batchSize, total)}
	}
	return out
}

// Process runs fn over each batch in order and stops at the first error.
// An empty slice is a no-op.
func (p *Processor[T]) Process(ctx context.Context, items []T, fn Func[T]) error {
	if fn == nil {
		return ErrNilCallback
	}

	bounds := p.Bounds(len(items))
	progress := newProgress(len(items), len(bounds))

	for _, b := range bounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, items[b[0]:b[1]], b[0]); err != nil {
			return fmt.Errorf("batch at offset %d failed: %w", b[0], err)
		}
		p.report(progress, b[1]-b[0])
	}
	return nil
}

// ProcessConcurrent runs fn over batches with at most limit in flight.
// Batches may complete in any order. The first error cancels the
// remaining batches and is returned.
func (p *Processor[T]) ProcessConcurrent(ctx context.Context, items []T, fn Func[T], limit int) error {
	if fn == nil {
		return ErrNilCallback
	}

	bounds := p.Bounds(len(items))
	progress := newProgress(len(items), len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	for _, b := range bounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(gctx, items[b[0]:b[1]], b[0]); err != nil {
				return fmt.Errorf("batch at offset %d failed: %w", b[0], err)
			}
			p.report(progress, b[1]-b[0])
			return nil
		})
	}
	return g.Wait()
}

func (p *Processor[T]) report(progress *Progress, n int) {
	snap := progress.add(n)
	if p.onProgress != nil {
		p.onProgress(snap)
	}
}
