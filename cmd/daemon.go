package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/switchlight/internal/api"
	"github.com/smazurov/switchlight/internal/broker"
	"github.com/smazurov/switchlight/internal/config"
	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/led"
	"github.com/smazurov/switchlight/internal/listener"
	"github.com/smazurov/switchlight/internal/logging"
	"github.com/smazurov/switchlight/internal/metrics/exporters"
	"github.com/smazurov/switchlight/internal/session"
)

// Daemon is the LED actuator process. It renders broker commands on the
// strip and falls back to the test pattern when the broker is unreachable.
type Daemon struct {
	opts      *config.Options
	bus       *events.Bus
	logger    *slog.Logger
	openStrip func(led.Config, *slog.Logger) (led.Strip, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
	once   sync.Once
	err    error
	stop   sync.Once

	stopWatch func()
	strip     led.Strip
	renderer  *led.Renderer
	fallback  *led.Fallback
	listener  *listener.Listener
	broker    *broker.Server
	server    *api.Server
}

// NewDaemon creates a daemon. Nothing is opened until Start.
func NewDaemon(opts *config.Options, bus *events.Bus) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		opts:      opts,
		bus:       bus,
		logger:    logging.GetLogger("main"),
		openStrip: led.New,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		stopWatch: func() {},
	}
}

// Start opens the strip, starts the optional embedded broker, connects the
// listener and serves the API. A strip or broker failure is returned; a
// listener failure starts the fallback pattern instead.
func (d *Daemon) Start() error {
	if d.opts.Config != "" {
		stop, err := WatchLogging(d.opts.Config, d.logger)
		if err != nil {
			d.logger.Warn("Config file not watched", "path", d.opts.Config, "error", err)
		} else {
			d.stopWatch = stop
		}
	}

	strip, err := d.openStrip(LEDConfig(d.opts), logging.GetLogger("led"))
	if err != nil {
		return fmt.Errorf("open LED strip: %w", err)
	}
	d.strip = strip
	d.renderer = led.NewRenderer(strip, d.bus, logging.GetLogger("led"))
	d.fallback = led.NewFallback(d.renderer, FallbackInterval(d.opts), d.bus, logging.GetLogger("led"))

	sessCfg := SessionConfig(d.opts, RoleListener)
	if d.opts.BrokerEmbed {
		if err := d.startBroker(); err != nil {
			return err
		}
		if sessCfg.URL == "" {
			sessCfg.URL = d.broker.MQTTURL()
		}
	}

	d.listener = listener.New(d.renderer, listener.Config{
		Topic: d.opts.BrokerTopic,
		QoS:   qos(d.opts.BrokerQos),
	}, d.bus, logging.GetLogger("listener"))

	if err := d.startListener(sessCfg); err != nil {
		d.logger.Error("Listener unavailable, running fallback pattern", "error", err)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.fallback.Run(d.ctx)
		}()
	}

	if d.opts.HTTPAddr != "" {
		d.startAPI()
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		d.logger.Warn("Failed to notify systemd", "error", err)
	} else if ok {
		d.logger.Debug("Notified systemd of readiness")
	}
	return nil
}

func (d *Daemon) startBroker() error {
	d.broker = broker.NewServer(broker.Options{
		Host:     d.opts.BrokerEmbedHost,
		Port:     d.opts.BrokerEmbedPort,
		MQTTPort: d.opts.BrokerEmbedMqttPort,
		Name:     "switchlight",
		StoreDir: d.opts.BrokerEmbedStoreDir,
		Logger:   logging.GetLogger("broker"),
	})
	if err := d.broker.Start(); err != nil {
		return fmt.Errorf("start embedded broker: %w", err)
	}
	return nil
}

func (d *Daemon) startListener(cfg session.Config) error {
	sess, err := session.New(cfg, d.bus, logging.GetLogger("session"))
	if err != nil {
		return err
	}
	return d.listener.Start(d.ctx, sess)
}

func (d *Daemon) startAPI() {
	d.server = api.NewServer(&api.Options{
		AuthUsername:      d.opts.HTTPAuthUsername,
		AuthPassword:      d.opts.HTTPAuthPassword,
		EventBus:          d.bus,
		LED:               d.renderer,
		Listener:          d.listener,
		FallbackActive:    d.fallback.Active,
		PrometheusHandler: exporters.HTTPHandler(),
	})
	go func() {
		if err := d.server.Start(d.opts.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("HTTP server failed", "error", err)
			d.finish(err)
		}
	}()
}

// Renderer returns the strip renderer, nil before Start.
func (d *Daemon) Renderer() *led.Renderer {
	return d.renderer
}

// FallbackActive reports whether the fallback pattern is running.
func (d *Daemon) FallbackActive() bool {
	return d.fallback.Active()
}

// Wait blocks until Stop is called or the API server fails.
func (d *Daemon) Wait() error {
	<-d.done
	return d.err
}

// Stop shuts everything down and leaves the strip dark. Only the first
// call does anything.
func (d *Daemon) Stop() {
	d.stop.Do(d.shutdown)
}

func (d *Daemon) shutdown() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		d.logger.Debug("Failed to notify systemd", "error", err)
	}

	d.cancel()
	if d.server != nil {
		if err := d.server.Stop(); err != nil {
			d.logger.Error("Error stopping HTTP server", "error", err)
		}
	}
	if d.listener != nil {
		if err := d.listener.Stop(); err != nil {
			d.logger.Warn("Error stopping listener", "error", err)
		}
	}
	d.wg.Wait()

	if d.renderer != nil {
		if err := d.renderer.Clear(); err != nil {
			d.logger.Warn("Failed to clear LED strip", "error", err)
		}
	}
	if d.strip != nil {
		if err := d.strip.Close(); err != nil {
			d.logger.Warn("Failed to close LED strip", "error", err)
		}
	}
	if d.broker != nil {
		d.broker.Stop()
	}
	d.stopWatch()
	d.finish(nil)
}

func (d *Daemon) finish(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}
