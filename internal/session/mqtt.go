package session

import (
	"context"
	"crypto/tls"
	"log/slog"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// mqttSession is a paho client with clean session semantics.
type mqttSession struct {
	cfg    Config
	client mqtt.Client
	state  *stateReporter
	logger *slog.Logger

	mu   sync.Mutex
	subs []subscription
}

func newMQTT(cfg Config, tlsCfg *tls.Config, state *stateReporter, logger *slog.Logger) *mqttSession {
	s := &mqttSession{
		cfg:    cfg,
		state:  state,
		logger: logger.With("transport", "mqtt"),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(cfg.Reconnect).
		SetConnectRetry(false).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost).
		SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
			s.logger.Info("Reconnecting to broker")
		})
	if tlsCfg != nil {
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	s.client = mqtt.NewClient(opts)
	return s
}

func (s *mqttSession) Connect(ctx context.Context) error {
	s.logger.Info("Connecting to broker", "url", s.cfg.URL)
	token := s.client.Connect()
	if err := waitDone(ctx, token.Done(), s.cfg.ConnectTimeout); err != nil {
		return newError(ErrCodeTransport, "connect", err)
	}
	if err := token.Error(); err != nil {
		return newError(ErrCodeTransport, "connect", err)
	}
	return nil
}

func (s *mqttSession) onConnect(c mqtt.Client) {
	s.logger.Info("Connected to broker", "url", s.cfg.URL)
	s.state.report(true, nil)

	// Clean sessions lose their subscriptions on reconnect.
	s.mu.Lock()
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()
	for _, sub := range subs {
		token := c.Subscribe(sub.topic, sub.qos, wrapHandler(sub.handler))
		go func(topic string) {
			if token.WaitTimeout(s.cfg.ConnectTimeout) && token.Error() != nil {
				s.logger.Warn("Resubscribe failed", "topic", topic, "error", token.Error())
			}
		}(sub.topic)
	}
}

func (s *mqttSession) onConnectionLost(_ mqtt.Client, err error) {
	s.logger.Warn("Connection to broker lost", "error", err, "reconnect", s.cfg.Reconnect)
	s.state.report(false, err)
}

func (s *mqttSession) Publish(ctx context.Context, topic string, payload []byte, qos byte) error {
	if !s.client.IsConnectionOpen() {
		return newError(ErrCodeNotConnected, "publish", nil)
	}
	token := s.client.Publish(topic, qos, false, payload)
	if err := waitDone(ctx, token.Done(), s.cfg.PublishTimeout); err != nil {
		return newError(ErrCodePublish, "publish "+topic, err)
	}
	if err := token.Error(); err != nil {
		return newError(ErrCodePublish, "publish "+topic, err)
	}
	return nil
}

func (s *mqttSession) Subscribe(ctx context.Context, topic string, qos byte, handler MessageHandler) error {
	token := s.client.Subscribe(topic, qos, wrapHandler(handler))
	if err := waitDone(ctx, token.Done(), s.cfg.ConnectTimeout); err != nil {
		return newError(ErrCodeTransport, "subscribe "+topic, err)
	}
	if err := token.Error(); err != nil {
		return newError(ErrCodeTransport, "subscribe "+topic, err)
	}

	s.mu.Lock()
	s.subs = append(s.subs, subscription{topic: topic, qos: qos, handler: handler})
	s.mu.Unlock()

	s.logger.Info("Subscribed", "topic", topic, "qos", qos)
	return nil
}

func (s *mqttSession) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

func (s *mqttSession) Close() error {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
		s.state.report(false, nil)
	}
	s.logger.Debug("MQTT session closed")
	return nil
}

func wrapHandler(h MessageHandler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	}
}
