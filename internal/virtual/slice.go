package virtual

// Entry is one materialized item with its absolute index and stable key.
type Entry[T any] struct {
	Item  T
	Index int
	Key   any
}

// RenderSlice is what a host needs to draw one pass: the materialized
// entries, where they sit and how tall the full list is.
type RenderSlice[T any] struct {
	Window  Window
	Entries []Entry[T]

	// OffsetPx positions the first entry where its item sits in the full list.
	OffsetPx float64

	// TotalHeightPx is the height of the full, unvirtualized list. Hosts size
	// their spacer with it so the scroll range reflects the whole dataset.
	TotalHeightPx float64
}

// Project cuts the window out of items. Items are read, never modified.
// keyOf may be nil, in which case entries are keyed by index.
func Project[T any](items []T, w Window, itemHeight float64, keyOf KeyFunc[T]) RenderSlice[T] {
	s := RenderSlice[T]{
		TotalHeightPx: float64(len(items)) * itemHeight,
	}
	if w.IsEmpty() || len(items) == 0 {
		return s
	}

	// Windows come from ComputeWindow over the same length, so this only
	// trims a window computed against a longer, stale dataset.
	if w.End >= len(items) {
		w.End = len(items) - 1
	}
	if w.Start > w.End {
		return s
	}

	if keyOf == nil {
		keyOf = IndexKey[T]
	}

	s.Window = w
	s.OffsetPx = float64(w.Start) * itemHeight
	s.Entries = make([]Entry[T], 0, w.Len())
	for i := w.Start; i <= w.End; i++ {
		s.Entries = append(s.Entries, Entry[T]{
			Item:  items[i],
			Index: i,
			Key:   keyOf(items[i], i),
		})
	}
	return s
}

// Rendered pairs a delegate's output with the entry's index and key.
type Rendered[N any] struct {
	Node  N
	Index int
	Key   any
}

// RenderEntries hands every entry to the caller's delegate in order.
func RenderEntries[T, N any](s RenderSlice[T], render func(item T, index int) N) []Rendered[N] {
	out := make([]Rendered[N], 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, Rendered[N]{
			Node:  render(e.Item, e.Index),
			Index: e.Index,
			Key:   e.Key,
		})
	}
	return out
}
