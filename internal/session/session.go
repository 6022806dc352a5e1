// Package session is the broker client shared by the publisher and the
// listener. MQTT brokers are reached through paho; NATS servers through
// nats.go. Both present the same Session interface.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/metrics"
)

// MessageHandler receives every message delivered on a subscription.
// It runs on the client's delivery goroutine.
type MessageHandler func(topic string, payload []byte)

// Session is one connection to the broker.
type Session interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte, qos byte) error
	Subscribe(ctx context.Context, topic string, qos byte, handler MessageHandler) error
	IsConnected() bool
	Close() error
}

// Defaults taken by New for zero durations.
const (
	DefaultKeepAlive      = 20 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultPublishTimeout = 10 * time.Second
)

// Config describes a session.
type Config struct {
	URL      string
	ClientID string
	Username string
	Password string
	TLS      TLSConfig

	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	PublishTimeout time.Duration

	// Reconnect keeps the session alive across drops.
	Reconnect bool
	// Role labels metrics and events: publisher or listener.
	Role string
	// OnStateChange is called after every connect and drop.
	OnStateChange func(connected bool, err error)
}

// New builds a session for cfg.URL's scheme. It does not connect.
// mqtt, mqtts, ssl, tcp, ws and wss select paho; nats and tls select core
// NATS, which ignores the qos argument and delivers at most once.
func New(cfg Config, bus *events.Bus, logger *slog.Logger) (Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, newError(ErrCodeConfiguration, "invalid broker URL", err)
	}

	state := &stateReporter{role: cfg.Role, bus: bus, logger: logger, hook: cfg.OnStateChange}
	logger = logger.With("role", cfg.Role, "client_id", cfg.ClientID)

	switch strings.ToLower(u.Scheme) {
	case "mqtt", "tcp", "ws":
		return newMQTT(cfg, nil, state, logger), nil
	case "mqtts", "ssl", "wss":
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		return newMQTT(cfg, tlsCfg, state, logger), nil
	case "nats":
		return newNATS(cfg, nil, state, logger), nil
	case "tls":
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		return newNATS(cfg, tlsCfg, state, logger), nil
	default:
		return nil, newError(ErrCodeConfiguration, fmt.Sprintf("unsupported broker scheme %q", u.Scheme), nil)
	}
}

// stateReporter fans session state out to metrics, the event bus and the
// optional hook.
type stateReporter struct {
	role   string
	bus    *events.Bus
	logger *slog.Logger
	hook   func(bool, error)
}

func (s *stateReporter) report(connected bool, err error) {
	metrics.SetSessionConnected(s.role, connected)
	ev := events.SessionStateChangedEvent{
		Role:      s.role,
		Connected: connected,
		Timestamp: events.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.bus.Publish(ev)
	if s.hook != nil {
		s.hook(connected, err)
	}
}

func waitDone(ctx context.Context, done <-chan struct{}, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	}
}
