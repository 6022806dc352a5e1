// Package network brings the publisher's link up before the broker session
// is started, and drops back to reassociation when the link goes away.
package network

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/metrics"
)

// Station associates with a network and reports the interface address.
type Station interface {
	// Associate joins the configured network.
	Associate(ctx context.Context) error
	// Address returns the interface's IPv4 address, or nil when it has none.
	Address() (net.IP, error)
}

// Config tunes the bring-up loop.
type Config struct {
	// RetryWait is the fixed pause between failed attempts.
	RetryWait time.Duration
	// AddressTimeout bounds the wait for an address after association.
	AddressTimeout time.Duration
	// PollInterval is how often the address is checked.
	PollInterval time.Duration
}

// Bringup runs the Idle → Connecting → Connected → SessionStarting →
// SessionActive state machine.
type Bringup struct {
	station Station
	cfg     Config
	bus     *events.Bus
	logger  *slog.Logger

	mu    sync.RWMutex
	state State
}

// NewBringup creates a bring-up loop in the Idle state.
func NewBringup(station Station, cfg Config, bus *events.Bus, logger *slog.Logger) *Bringup {
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 5 * time.Second
	}
	if cfg.AddressTimeout <= 0 {
		cfg.AddressTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bringup{
		station: station,
		cfg:     cfg,
		bus:     bus,
		logger:  logger,
		state:   Idle,
	}
}

// State returns the current state.
func (b *Bringup) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Run brings the link up, calls startSession once an address is held and
// then watches the link until ctx is cancelled. startSession is retried
// until it succeeds and is never called again afterwards; the session owns
// its reconnects. Retries are unbounded with a fixed wait.
func (b *Bringup) Run(ctx context.Context, startSession func(context.Context) error) {
	started := false
	defer b.setState(Idle)

	for ctx.Err() == nil {
		b.setState(Connecting)
		if err := b.station.Associate(ctx); err != nil {
			b.logger.Warn("Association failed", "error", err, "retry_in", b.cfg.RetryWait)
			b.sleep(ctx, b.cfg.RetryWait)
			continue
		}

		b.setState(Connected)
		addr, ok := b.waitAddress(ctx)
		if !ok {
			if ctx.Err() == nil {
				b.logger.Warn("No address acquired", "timeout", b.cfg.AddressTimeout, "retry_in", b.cfg.RetryWait)
				b.sleep(ctx, b.cfg.RetryWait)
			}
			continue
		}
		b.logger.Info("Address acquired", "ip", addr.String())

		if !started {
			b.setState(SessionStarting)
			if err := startSession(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				b.logger.Warn("Session start failed", "error", err, "retry_in", b.cfg.RetryWait)
				b.sleep(ctx, b.cfg.RetryWait)
				continue
			}
			started = true
		}

		b.setState(SessionActive)
		b.monitor(ctx)
	}
}

// waitAddress polls until the station reports an address or the timeout
// passes.
func (b *Bringup) waitAddress(ctx context.Context) (net.IP, bool) {
	deadline := time.NewTimer(b.cfg.AddressTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		ip, err := b.station.Address()
		if err == nil && ip != nil {
			return ip, true
		}
		if err != nil {
			b.logger.Debug("Address lookup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-deadline.C:
			return nil, false
		case <-ticker.C:
		}
	}
}

// monitor returns when the address is lost or ctx is done.
func (b *Bringup) monitor(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ip, err := b.station.Address()
			if err != nil || ip == nil {
				b.logger.Warn("Link lost, reassociating", "error", err)
				return
			}
		}
	}
}

func (b *Bringup) setState(s State) {
	b.mu.Lock()
	prev := b.state
	b.state = s
	b.mu.Unlock()

	if prev == s {
		return
	}
	b.logger.Info("Network state changed", "from", prev.String(), "to", s.String())
	metrics.SetNetworkState(prev.String(), s.String())
	b.bus.Publish(events.NetworkStateChangedEvent{
		From:      prev.String(),
		To:        s.String(),
		Timestamp: events.Now(),
	})
}

func (b *Bringup) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
