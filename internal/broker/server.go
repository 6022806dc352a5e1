// Package broker runs an embedded nats-server. Besides core NATS it can
// expose the server's MQTT gateway so paho clients and NATS clients share
// one topic space. Used for bench setups without an external broker and by
// the integration tests.
package broker

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// RandomPort asks for any free port.
const RandomPort = -1

const readyTimeout = 10 * time.Second

// Options configures the embedded server. Zero values select 127.0.0.1,
// NATS port 4222, the name "switchlight" and no MQTT gateway.
type Options struct {
	Host string
	// Port is the NATS client port; RandomPort picks one.
	Port int
	// MQTTPort enables the MQTT gateway when non-zero; RandomPort picks one.
	MQTTPort int
	Name     string
	// StoreDir holds JetStream state, which the MQTT gateway requires.
	// Empty uses a temporary directory removed on Stop.
	StoreDir string
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	o.Host = cmp.Or(o.Host, "127.0.0.1")
	o.Name = cmp.Or(o.Name, "switchlight")
	if o.Port == 0 {
		o.Port = 4222
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Server is an embedded nats-server with an optional MQTT listener.
type Server struct {
	opts     Options
	log      *slog.Logger
	ns       *server.Server
	mqttPort int
	scratch  string
}

func NewServer(opts Options) *Server {
	opts = opts.withDefaults()
	return &Server{opts: opts, log: opts.Logger.With("component", "broker")}
}

// Start launches the server and blocks until it accepts clients.
func (s *Server) Start() error {
	nsOpts, err := s.serverOptions()
	if err != nil {
		s.removeScratch()
		return err
	}

	ns, err := server.NewServer(nsOpts)
	if err != nil {
		s.removeScratch()
		return fmt.Errorf("create nats server: %w", err)
	}
	go ns.Start()

	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		s.removeScratch()
		return errors.New("nats server not ready after " + readyTimeout.String())
	}
	s.ns = ns
	s.log.Info("Broker started", "nats_url", s.ClientURL(), "mqtt_url", s.MQTTURL())
	return nil
}

func (s *Server) serverOptions() (*server.Options, error) {
	o := &server.Options{
		ServerName: s.opts.Name,
		Host:       s.opts.Host,
		Port:       s.opts.Port,
		NoLog:      true,
		NoSigs:     true,
		MaxPayload: 1 << 20,
	}
	if s.opts.MQTTPort == 0 {
		return o, nil
	}

	port := s.opts.MQTTPort
	if port == RandomPort {
		var err error
		if port, err = freePort(s.opts.Host); err != nil {
			return nil, fmt.Errorf("pick mqtt port: %w", err)
		}
	}
	store := s.opts.StoreDir
	if store == "" {
		dir, err := os.MkdirTemp("", "switchlight-broker-")
		if err != nil {
			return nil, fmt.Errorf("create jetstream dir: %w", err)
		}
		s.scratch, store = dir, dir
	}

	o.JetStream = true
	o.StoreDir = store
	o.MQTT.Host = s.opts.Host
	o.MQTT.Port = port
	s.mqttPort = port
	return o, nil
}

// Stop shuts the server down and waits for it. Safe on a stopped server.
func (s *Server) Stop() {
	if ns := s.ns; ns != nil {
		s.log.Info("Stopping broker")
		ns.Shutdown()
		ns.WaitForShutdown()
		s.ns = nil
	}
	s.removeScratch()
}

func (s *Server) removeScratch() {
	if s.scratch == "" {
		return
	}
	if err := os.RemoveAll(s.scratch); err != nil {
		s.log.Warn("Failed to remove broker store", "dir", s.scratch, "error", err)
	}
	s.scratch = ""
}

// Running reports whether the server accepts clients.
func (s *Server) Running() bool {
	return s.ns != nil && s.ns.Running()
}

// ClientURL is the nats:// URL for NATS clients.
func (s *Server) ClientURL() string {
	if s.ns != nil {
		return s.ns.ClientURL()
	}
	return "nats://" + net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// MQTTURL is the tcp:// URL of the MQTT gateway, or "" when it is disabled
// or the server has not started.
func (s *Server) MQTTURL() string {
	if s.mqttPort == 0 {
		return ""
	}
	return "tcp://" + net.JoinHostPort(s.opts.Host, strconv.Itoa(s.mqttPort))
}

func freePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
