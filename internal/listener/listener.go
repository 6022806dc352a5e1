// Package listener subscribes to the button topic and drives the LED
// renderer from every delivered message.
package listener

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/message"
	"github.com/smazurov/switchlight/internal/metrics"
	"github.com/smazurov/switchlight/internal/session"
)

// Renderer applies decoded commands.
type Renderer interface {
	Apply(cmd message.Command) (bool, error)
}

// Config configures a Listener.
type Config struct {
	Topic string
	QoS   byte
}

// Status is a point-in-time view of the listener.
type Status struct {
	Connected     bool      `json:"connected"`
	Topic         string    `json:"topic"`
	Received      uint64    `json:"received"`
	Rejected      uint64    `json:"rejected"`
	LastCommand   string    `json:"last_command"`
	LastMessageAt time.Time `json:"last_message_at,omitzero"`
}

// Listener owns the subscriber session.
type Listener struct {
	renderer Renderer
	cfg      Config
	bus      *events.Bus
	logger   *slog.Logger

	mu       sync.Mutex
	sess     session.Session
	received uint64
	rejected uint64
	lastCmd  message.Command
	lastAt   time.Time
}

// New creates a listener that renders through renderer.
func New(renderer Renderer, cfg Config, bus *events.Bus, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		renderer: renderer,
		cfg:      cfg,
		bus:      bus,
		logger:   logger,
	}
}

// Start connects sess and subscribes to the topic. A failure here is the
// caller's cue to show the fallback pattern; sess is closed on failure.
func (l *Listener) Start(ctx context.Context, sess session.Session) error {
	if err := sess.Connect(ctx); err != nil {
		l.logger.Error("Broker connection failed", "error", err)
		_ = sess.Close()
		return err
	}
	if err := sess.Subscribe(ctx, l.cfg.Topic, l.cfg.QoS, l.Handle); err != nil {
		l.logger.Error("Subscribe failed", "topic", l.cfg.Topic, "error", err)
		_ = sess.Close()
		return err
	}

	l.mu.Lock()
	l.sess = sess
	l.mu.Unlock()

	l.logger.Info("Listening for button state", "topic", l.cfg.Topic, "qos", l.cfg.QoS)
	return nil
}

// Stop closes the session. In-flight deliveries complete first.
func (l *Listener) Stop() error {
	l.mu.Lock()
	sess := l.sess
	l.sess = nil
	l.mu.Unlock()

	if sess == nil {
		return nil
	}
	return sess.Close()
}

// Handle decodes one delivered payload and renders it. Malformed payloads
// are logged once and dropped; the frame is left as it was.
func (l *Listener) Handle(topic string, payload []byte) {
	cmd, err := message.Decode(payload)

	l.mu.Lock()
	l.received++
	l.lastAt = time.Now()
	if err != nil {
		l.rejected++
	} else {
		l.lastCmd = cmd
	}
	l.mu.Unlock()

	result := cmd.String()
	if err != nil {
		result = metrics.ResultMalformed
		if errors.Is(err, message.ErrUnknownState) {
			result = metrics.ResultUnknown
		}
		l.logger.Warn("Dropping malformed message", "topic", topic, "payload", truncate(payload, 128), "error", err)
	}
	metrics.IncMessage(result)
	l.bus.Publish(events.CommandReceivedEvent{
		Command:   result,
		Source:    "broker",
		Timestamp: events.Now(),
	})
	if err != nil {
		return
	}

	l.logger.Debug("Command received", "topic", topic, "command", cmd.String())
	if _, err := l.renderer.Apply(cmd); err != nil {
		l.logger.Error("Render failed", "command", cmd.String(), "error", err)
	}
}

// Status returns the listener's counters and connection state.
func (l *Listener) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := Status{
		Topic:         l.cfg.Topic,
		Received:      l.received,
		Rejected:      l.rejected,
		LastCommand:   l.lastCmd.String(),
		LastMessageAt: l.lastAt,
	}
	if l.sess != nil {
		st.Connected = l.sess.IsConnected()
	}
	return st
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
