// Package browse folds sync result streams into presentation state for a
// list of entries and for a single entry.
//
// Each model collects only its latest stream: starting a new load stops
// collection of the previous one, whose cache write still completes in the
// orchestrator.
package browse

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/anidex/internal/domain"
)

// model is the shared collect-latest core behind ListModel and DetailModel.
// T is the result payload, S the state it reduces to.
type model[T, S any] struct {
	reduce func(domain.Result[T]) S
	logger *slog.Logger

	mu         sync.Mutex
	state      S
	refreshing bool
	gen        uint64
	cancel     context.CancelFunc
	next       int
	subs       map[int]chan S
	closed     bool
	done       chan struct{}
}

func newModel[T, S any](initial S, reduce func(domain.Result[T]) S, logger *slog.Logger) *model[T, S] {
	if logger == nil {
		logger = slog.Default()
	}
	return &model[T, S]{
		reduce: reduce,
		logger: logger,
		state:  initial,
		subs:   make(map[int]chan S),
		done:   make(chan struct{}),
	}
}

// start begins collecting the stream returned by open, superseding any
// collection in progress. The returned channel closes once this stream has
// delivered its terminal state or been superseded.
func (m *model[T, S]) start(open func(ctx context.Context) <-chan domain.Result[T], refreshing bool) <-chan struct{} {
	done := make(chan struct{})

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(done)
		return done
	}
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.gen++
	gen := m.gen
	m.refreshing = refreshing
	m.mu.Unlock()

	stream := open(ctx)

	go func() {
		defer close(done)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				m.logger.Debug("stream superseded", "generation", gen)
				return
			case r, ok := <-stream:
				if !ok {
					return
				}
				if !m.apply(gen, r) {
					return
				}
			}
		}
	}()

	return done
}

// apply reduces r into the current state unless a newer stream has started.
func (m *model[T, S]) apply(gen uint64, r domain.Result[T]) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.closed {
		return false
	}
	m.state = m.reduce(r)
	if domain.IsTerminal(r) {
		m.refreshing = false
	}
	for _, ch := range m.subs {
		offer(ch, m.state)
	}
	return true
}

func (m *model[T, S]) current() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *model[T, S]) isRefreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

// subscribe emits the current state, then every change until ctx is done or
// the model is closed. Slow subscribers only see the newest state.
func (m *model[T, S]) subscribe(ctx context.Context) <-chan S {
	ch := make(chan S, 1)

	m.mu.Lock()
	if m.closed {
		close(ch)
		m.mu.Unlock()
		return ch
	}
	id := m.next
	m.next++
	m.subs[id] = ch
	ch <- m.state
	m.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-m.done:
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}()

	return ch
}

func (m *model[T, S]) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
	if m.cancel != nil {
		m.cancel()
	}
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}

// offer replaces any unread value in ch with v. Callers hold the model lock.
func offer[S any](ch chan S, v S) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
