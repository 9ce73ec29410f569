// Package connectivity tracks whether the remote catalog is reachable.
//
// A Monitor holds the current value and fans changes out to subscribers.
// Platform hooks call Set directly; a Prober can drive it by dialing the API
// host on an interval.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
)

// Monitor is an observable connected/offline flag. It satisfies
// domain.Connectivity.
type Monitor struct {
	mu        sync.Mutex
	connected bool
	next      int
	subs      map[int]chan bool
	logger    *slog.Logger
}

// NewMonitor returns a monitor starting at initial
func NewMonitor(initial bool, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		connected: initial,
		subs:      make(map[int]chan bool),
		logger:    logger,
	}
}

// Connected reports the current value
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Set records a new value. Subscribers are notified only on change.
func (m *Monitor) Set(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected == connected {
		return
	}
	m.connected = connected
	m.logger.Info("connectivity changed", "connected", connected)

	for _, ch := range m.subs {
		offer(ch, connected)
	}
}

// Subscribe emits the current value, then every change until ctx is done.
// A subscriber that falls behind only sees the newest value.
func (m *Monitor) Subscribe(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)

	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = ch
	ch <- m.connected
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, id)
		close(ch)
		m.mu.Unlock()
	}()

	return ch
}

// offer replaces any unread value in ch with v. Callers hold m.mu, which
// makes them the only sender.
func offer(ch chan bool, v bool) {
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
