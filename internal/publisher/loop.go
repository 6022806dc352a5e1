// Package publisher samples the button line and publishes a state change
// message on every edge.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/gpio"
	"github.com/smazurov/switchlight/internal/message"
	"github.com/smazurov/switchlight/internal/metrics"
)

// DefaultInterval is the sampling period. It doubles as the debounce.
const DefaultInterval = 50 * time.Millisecond

// Publisher is the part of a session the loop needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, qos byte) error
}

// Config configures a Loop.
type Config struct {
	Topic    string
	QoS      byte
	Interval time.Duration
}

// queueDepth bounds the edges waiting for a slow broker.
const queueDepth = 16

// Loop is the edge detector. It owns the last observed state. Sampling and
// publishing run on separate goroutines so a slow acknowledgement never
// delays the next sample.
type Loop struct {
	reader gpio.Reader
	pub    Publisher
	cfg    Config
	bus    *events.Bus
	logger *slog.Logger

	mu   sync.Mutex
	last message.ButtonState

	// queue alternates pressed and released and ends with last.
	qmu   sync.Mutex
	queue []message.ButtonState
	ready chan struct{}
}

// NewLoop creates a loop whose last state starts as released.
func NewLoop(reader gpio.Reader, pub Publisher, cfg Config, bus *events.Bus, logger *slog.Logger) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		reader: reader,
		pub:    pub,
		cfg:    cfg,
		bus:    bus,
		logger: logger,
		last:   message.Released,
		ready:  make(chan struct{}, 1),
	}
}

// Run samples every interval until ctx is cancelled. Edges are published
// in order by a sender goroutine; Run returns after it exits.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("Publisher loop started", "topic", l.cfg.Topic, "interval", l.cfg.Interval, "qos", l.cfg.QoS)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.send(ctx)
	}()
	defer wg.Wait()

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Publisher loop stopped")
			return
		case <-ticker.C:
			l.Step()
		}
	}
}

// Step takes one sample and queues a state change message if the state
// changed. It reports whether a transition was detected. The state advances
// whatever happens to the message, so a held state is never republished.
func (l *Loop) Step() bool {
	state := message.StateFromLevel(l.reader.Sample())

	l.mu.Lock()
	previous := l.last
	if state == previous {
		l.mu.Unlock()
		return false
	}
	l.last = state
	l.mu.Unlock()

	metrics.IncButtonTransition(string(state))
	if !l.enqueue(state) {
		l.logger.Warn("Broker backlog full, dropped a press and release pair", "state", state, "queued", queueDepth)
		metrics.IncPublishFailure()
		l.emit(state, false)
	}
	return true
}

// State returns the last observed button state.
func (l *Loop) State() message.ButtonState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// enqueue appends state. On a full queue it removes the newest queued edge
// instead: that edge and state cancel out, which keeps the queue
// alternating and ending in the current state. It reports false then.
func (l *Loop) enqueue(state message.ButtonState) bool {
	l.qmu.Lock()
	added := len(l.queue) < queueDepth
	if added {
		l.queue = append(l.queue, state)
	} else {
		l.queue = l.queue[:len(l.queue)-1]
	}
	l.qmu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
	return added
}

func (l *Loop) dequeue() (message.ButtonState, bool) {
	l.qmu.Lock()
	defer l.qmu.Unlock()
	if len(l.queue) == 0 {
		return "", false
	}
	state := l.queue[0]
	l.queue = l.queue[1:]
	return state, true
}

func (l *Loop) send(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.ready:
			l.flush(ctx)
		}
	}
}

// flush publishes every queued edge in order.
func (l *Loop) flush(ctx context.Context) {
	for ctx.Err() == nil {
		state, ok := l.dequeue()
		if !ok {
			return
		}
		l.emit(state, l.publish(ctx, state))
	}
}

func (l *Loop) emit(state message.ButtonState, published bool) {
	l.bus.Publish(events.ButtonStateChangedEvent{
		State:     string(state),
		Published: published,
		Timestamp: events.Now(),
	})
}

func (l *Loop) publish(ctx context.Context, state message.ButtonState) bool {
	payload, err := message.StateChangeEvent{State: state}.Marshal()
	if err != nil {
		l.logger.Error("Failed to encode state change", "state", state, "error", err)
		metrics.IncPublishFailure()
		return false
	}

	if err := l.pub.Publish(ctx, l.cfg.Topic, payload, l.cfg.QoS); err != nil {
		l.logger.Warn("Failed to publish state change", "state", state, "error", err)
		metrics.IncPublishFailure()
		return false
	}

	l.logger.Info("Button state published", "state", state, "topic", l.cfg.Topic)
	return true
}
