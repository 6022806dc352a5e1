package session

import (
	"context"
	"crypto/tls"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// natsSession speaks core NATS. Delivery is at-most-once whatever QoS is
// requested; Publish flushes so a dead server is still reported.
type natsSession struct {
	cfg    Config
	tls    *tls.Config
	state  *stateReporter
	logger *slog.Logger

	mu   sync.RWMutex
	conn *nats.Conn
	subs []*nats.Subscription
}

func newNATS(cfg Config, tlsCfg *tls.Config, state *stateReporter, logger *slog.Logger) *natsSession {
	return &natsSession{
		cfg:    cfg,
		tls:    tlsCfg,
		state:  state,
		logger: logger.With("transport", "nats"),
	}
}

func (s *natsSession) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return newError(ErrCodeTransport, "connect", err)
	}

	maxReconnects := 0
	if s.cfg.Reconnect {
		maxReconnects = -1
	}

	opts := []nats.Option{
		nats.Name(s.cfg.ClientID),
		nats.Timeout(s.cfg.ConnectTimeout),
		nats.PingInterval(s.cfg.KeepAlive),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				s.logger.Warn("NATS disconnected", "error", err, "reconnect", s.cfg.Reconnect)
			} else {
				s.logger.Debug("NATS disconnected")
			}
			s.state.report(false, err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			s.logger.Info("NATS reconnected", "url", c.ConnectedUrl())
			s.state.report(true, nil)
		}),
	}
	if s.tls != nil {
		opts = append(opts, nats.Secure(s.tls))
	}
	if s.cfg.Username != "" {
		opts = append(opts, nats.UserInfo(s.cfg.Username, s.cfg.Password))
	}

	s.logger.Info("Connecting to broker", "url", s.cfg.URL)
	conn, err := nats.Connect(s.cfg.URL, opts...)
	if err != nil {
		return newError(ErrCodeTransport, "connect", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.logger.Info("Connected to broker", "url", conn.ConnectedUrl())
	s.state.report(true, nil)
	return nil
}

func (s *natsSession) Publish(ctx context.Context, topic string, payload []byte, _ byte) error {
	conn := s.connection()
	if conn == nil || !conn.IsConnected() {
		return newError(ErrCodeNotConnected, "publish", nil)
	}
	if err := conn.Publish(SubjectFor(topic), payload); err != nil {
		return newError(ErrCodePublish, "publish "+topic, err)
	}

	timeout := s.cfg.PublishTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	if err := conn.FlushTimeout(timeout); err != nil {
		return newError(ErrCodePublish, "flush "+topic, err)
	}
	return nil
}

func (s *natsSession) Subscribe(_ context.Context, topic string, qos byte, handler MessageHandler) error {
	conn := s.connection()
	if conn == nil {
		return newError(ErrCodeNotConnected, "subscribe", nil)
	}
	sub, err := conn.Subscribe(SubjectFor(topic), func(m *nats.Msg) {
		handler(TopicFor(m.Subject), m.Data)
	})
	if err != nil {
		return newError(ErrCodeTransport, "subscribe "+topic, err)
	}
	if err := conn.Flush(); err != nil {
		return newError(ErrCodeTransport, "subscribe "+topic, err)
	}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	s.logger.Info("Subscribed", "topic", topic, "subject", sub.Subject, "qos", qos)
	return nil
}

func (s *natsSession) IsConnected() bool {
	conn := s.connection()
	return conn != nil && conn.IsConnected()
}

func (s *natsSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		s.state.report(false, nil)
	}
	s.logger.Debug("NATS session closed")
	return nil
}

func (s *natsSession) connection() *nats.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// SubjectFor maps an MQTT topic to a NATS subject the way the nats-server
// MQTT gateway does: levels become tokens and wildcards are translated.
func SubjectFor(topic string) string {
	levels := strings.Split(topic, "/")
	for i, l := range levels {
		switch l {
		case "+":
			levels[i] = "*"
		case "#":
			levels[i] = ">"
		}
	}
	return strings.Join(levels, ".")
}

// TopicFor maps a NATS subject back to an MQTT topic.
func TopicFor(subject string) string {
	return strings.ReplaceAll(subject, ".", "/")
}
