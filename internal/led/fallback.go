package led

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/metrics"
)

// FallbackSequence is the offline indicator: red, green, blue, off.
var FallbackSequence = []Color{Red, Green, Blue, Black}

// DefaultFallbackInterval is how long each phase is shown.
const DefaultFallbackInterval = time.Second

// Fallback cycles FallbackSequence on the renderer until cancelled.
type Fallback struct {
	renderer *Renderer
	interval time.Duration
	bus      *events.Bus
	logger   *slog.Logger
	active   atomic.Bool
}

// NewFallback creates a fallback loop. A non-positive interval uses
// DefaultFallbackInterval.
func NewFallback(renderer *Renderer, interval time.Duration, bus *events.Bus, logger *slog.Logger) *Fallback {
	if interval <= 0 {
		interval = DefaultFallbackInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		renderer: renderer,
		interval: interval,
		bus:      bus,
		logger:   logger,
	}
}

// Run renders one phase per interval, starting immediately, and returns
// when ctx is cancelled. It does not clear the strip on exit.
func (f *Fallback) Run(ctx context.Context) {
	f.logger.Warn("Starting fallback pattern", "interval", f.interval)
	f.setActive(true)
	defer f.setActive(false)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for phase := 0; ; phase = (phase + 1) % len(FallbackSequence) {
		if err := f.renderer.Fill(FallbackSequence[phase]); err != nil {
			f.logger.Warn("Fallback render failed", "phase", phase, "error", err)
		}
		select {
		case <-ctx.Done():
			f.logger.Info("Fallback pattern stopped")
			return
		case <-ticker.C:
		}
	}
}

// Active reports whether Run is currently cycling the pattern.
func (f *Fallback) Active() bool {
	return f != nil && f.active.Load()
}

func (f *Fallback) setActive(active bool) {
	f.active.Store(active)
	metrics.SetFallbackActive(active)
	f.bus.Publish(events.FallbackChangedEvent{Active: active, Timestamp: events.Now()})
}
