package listview

import "sync"

// resizeNotifier is the virtual.ResizeSource the model fires once a burst
// of terminal resizes has settled.
type resizeNotifier struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func()
}

func newResizeNotifier() *resizeNotifier {
	return &resizeNotifier{listeners: make(map[int]func())}
}

// OnResize implements virtual.ResizeSource.
func (r *resizeNotifier) OnResize(fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

func (r *resizeNotifier) notify() {
	r.mu.Lock()
	fns := make([]func(), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (r *resizeNotifier) listenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}
