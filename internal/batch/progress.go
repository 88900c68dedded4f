package batch

import (
	"sync"
	"time"
)

// Progress accumulates completed work across batches. Safe for concurrent use.
type Progress struct {
	mu        sync.Mutex
	total     int
	batches   int
	doneItems int
	doneBatch int
	started   time.Time
}

// Snapshot is an immutable view of Progress.
type Snapshot struct {
	TotalItems       int
	ProcessedItems   int
	TotalBatches     int
	ProcessedBatches int
	Elapsed          time.Duration
}

func newProgress(total, batches int) *Progress {
	return &Progress{total: total, batches: batches, started: time.Now()}
}

func (p *Progress) add(items int) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doneItems += items
	p.doneBatch++
	return Snapshot{
		TotalItems:       p.total,
		ProcessedItems:   p.doneItems,
		TotalBatches:     p.batches,
		ProcessedBatches: p.doneBatch,
		Elapsed:          time.Since(p.started),
	}
}

// Percent returns completion in the range 0-100.
func (s Snapshot) Percent() float64 {
	if s.TotalItems == 0 {
		return 100
	}
	return float64(s.ProcessedItems) / float64(s.TotalItems) * 100
}

// Done reports whether every item has been processed.
func (s Snapshot) Done() bool {
	return s.ProcessedItems >= s.TotalItems
}

// ItemsPerSecond returns the throughput so far.
func (s Snapshot) ItemsPerSecond() float64 {
	secs := s.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(s.ProcessedItems) / secs
}
