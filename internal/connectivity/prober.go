package connectivity

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	defaultProbeInterval = 15 * time.Second
	defaultProbeTimeout  = 3 * time.Second
	defaultOfflineAfter  = 2
)

// DialFunc opens a connection; net.Dialer.DialContext satisfies it.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// ProberOptions tunes a Prober. Zero values select the defaults.
type ProberOptions struct {
	Interval     time.Duration
	Timeout      time.Duration
	OfflineAfter int // consecutive failures before reporting offline
	Dial         DialFunc
}

// Prober feeds a Monitor by TCP-dialing the API host. One failed probe is
// tolerated as a blip; the host is reported offline once OfflineAfter probes
// in a row have failed, and online again after the next success.
type Prober struct {
	monitor      *Monitor
	addr         string
	interval     time.Duration
	timeout      time.Duration
	offlineAfter int
	dial         DialFunc
	logger       *slog.Logger

	mu       sync.Mutex
	failures int
}

// NewProber creates a prober for addr (host:port)
func NewProber(monitor *Monitor, addr string, opts ProberOptions, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultProbeInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultProbeTimeout
	}
	if opts.OfflineAfter < 1 {
		opts.OfflineAfter = defaultOfflineAfter
	}
	if opts.Dial == nil {
		opts.Dial = (&net.Dialer{}).DialContext
	}
	return &Prober{
		monitor:      monitor,
		addr:         addr,
		interval:     opts.Interval,
		timeout:      opts.Timeout,
		offlineAfter: opts.OfflineAfter,
		dial:         opts.Dial,
		logger:       logger,
	}
}

// Run probes immediately and then on every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.Probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Probe performs one reachability check, updates the monitor and returns
// the resulting connected value.
func (p *Prober) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(probeCtx, "tcp", p.addr)
	if err == nil {
		conn.Close()
	}

	// Shutdown is not a failure
	if ctx.Err() != nil {
		return p.monitor.Connected()
	}

	p.mu.Lock()
	if err != nil {
		p.failures++
		p.logger.Debug("probe failed", "addr", p.addr, "failures", p.failures, "error", err)
	} else {
		p.failures = 0
	}
	failures := p.failures
	p.mu.Unlock()

	switch {
	case failures == 0:
		p.monitor.Set(true)
	case failures >= p.offlineAfter:
		p.monitor.Set(false)
	}
	return p.monitor.Connected()
}

// ConsecutiveFailures returns the current failure streak
func (p *Prober) ConsecutiveFailures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}
