package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_Process(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	t.Run("Sequential", func(t *testing.T) {
		p, err := NewProcessor[int](10)
		require.NoError(t, err)

		var offsets []int
		var snaps []Snapshot
		p.WithProgress(func(s Snapshot) { snaps = append(snaps, s) })

		err = p.Process(context.Background(), items, func(_ context.Context, batch []int, offset int) error {
			offsets = append(offsets, offset)
			assert.Equal(t, offset, batch[0])
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 10, 20}, offsets)
		require.Len(t, snaps, 3)
		assert.True(t, snaps[2].Done())
		assert.InDelta(t, 100.0, snaps[2].Percent(), 1e-9)
		assert.Equal(t, 3, snaps[2].ProcessedBatches)
	})

	t.Run("Concurrent", func(t *testing.T) {
		p, err := NewProcessor[int](5)
		require.NoError(t, err)

		var processed atomic.Int32
		var mu sync.Mutex
		seen := map[int]bool{}
		err = p.ProcessConcurrent(context.Background(), items, func(_ context.Context, batch []int, offset int) error {
			processed.Add(int32(len(batch)))
			mu.Lock()
			seen[offset] = true
			mu.Unlock()
			return nil
		}, 2)
		require.NoError(t, err)
		assert.Equal(t, int32(25), processed.Load())
		assert.Len(t, seen, 5)
	})

	t.Run("StopsOnError", func(t *testing.T) {
		p, err := NewProcessor[int](10)
		require.NoError(t, err)
		boom := errors.New("fail")

		var calls int
		err = p.Process(context.Background(), items, func(_ context.Context, _ []int, offset int) error {
			calls++
			if offset == 10 {
				return boom
			}
			return nil
		})
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "offset 10")
		assert.Equal(t, 2, calls)
	})

	t.Run("ConcurrentError", func(t *testing.T) {
		p, err := NewProcessor[int](5)
		require.NoError(t, err)
		boom := errors.New("fail")

		err = p.ProcessConcurrent(context.Background(), items, func(_ context.Context, _ []int, offset int) error {
			if offset == 15 {
				return boom
			}
			return nil
		}, 3)
		require.ErrorIs(t, err, boom)
	})

	t.Run("Cancelled", func(t *testing.T) {
		p, err := NewProcessor[int](10)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = p.Process(ctx, items, func(context.Context, []int, int) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("EmptyItemsIsNoop", func(t *testing.T) {
		p, err := NewProcessor[int](DefaultBatchSize)
		require.NoError(t, err)
		require.NoError(t, p.Process(context.Background(), nil, func(context.Context, []int, int) error {
			t.Fatal("callback must not run")
			return nil
		}))
	})

	t.Run("NilCallback", func(t *testing.T) {
		p, err := NewProcessor[int](DefaultBatchSize)
		require.NoError(t, err)
		require.ErrorIs(t, p.Process(context.Background(), items, nil), ErrNilCallback)
		require.ErrorIs(t, p.ProcessConcurrent(context.Background(), items, nil, 1), ErrNilCallback)
	})

	t.Run("InvalidBatchSize", func(t *testing.T) {
		_, err := NewProcessor[int](0)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
		_, err = NewProcessor[int](MaxBatchSize + 1)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
	})
}

func TestProcessor_Bounds(t *testing.T) {
	p, err := NewProcessor[int](10)
	require.NoError(t, err)

	bounds := p.Bounds(25)
	require.Len(t, bounds, 3)
	assert.Equal(t, [2]int{0, 10}, bounds[0])
	assert.Equal(t, [2]int{10, 20}, bounds[1])
	assert.Equal(t, [2]int{20, 25}, bounds[2])
	assert.Nil(t, p.Bounds(0))
	assert.Equal(t, 10, p.BatchSize())
}

func TestSnapshot(t *testing.T) {
	assert.InDelta(t, 100.0, Snapshot{}.Percent(), 1e-9)
	assert.True(t, Snapshot{}.Done())
	assert.Zero(t, Snapshot{ProcessedItems: 5}.ItemsPerSecond())

	s := Snapshot{TotalItems: 200, ProcessedItems: 50}
	assert.InDelta(t, 25.0, s.Percent(), 1e-9)
	assert.False(t, s.Done())
}
