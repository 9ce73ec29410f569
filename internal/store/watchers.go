package store

import "sync"

// registry tracks watchers interested in store writes.
// Each watcher owns a one-slot signal channel; signals coalesce.
type registry struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan struct{}
	closed bool
}

func newRegistry() *registry {
	return &registry{subs: make(map[int]chan struct{})}
}

func (r *registry) add() (int, <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan struct{}, 1)
	if r.closed {
		close(ch)
		return -1, ch
	}
	id := r.next
	r.next++
	r.subs[id] = ch
	return id, ch
}

func (r *registry) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
}

// broadcast signals every watcher without blocking.
func (r *registry) broadcast() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default: // Already pending
		}
	}
}

// closeAll ends every watch; used on store shutdown.
func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
}
