package cmd

import (
	"log/slog"
	"time"

	"github.com/smazurov/switchlight/internal/config"
	"github.com/smazurov/switchlight/internal/led"
	"github.com/smazurov/switchlight/internal/logging"
	"github.com/smazurov/switchlight/internal/network"
	"github.com/smazurov/switchlight/internal/publisher"
	"github.com/smazurov/switchlight/internal/session"
)

// Session roles.
const (
	RolePublisher = "publisher"
	RoleListener  = "listener"
)

// LoggingConfig builds the logging configuration from flat options.
func LoggingConfig(opts *config.Options) logging.Config {
	return logging.Config{
		Level:   opts.LoggingLevel,
		Format:  opts.LoggingFormat,
		Modules: opts.ModuleLevels(),
	}
}

// WatchLogging applies logging level changes from the config file until the
// returned stop function is called.
func WatchLogging(path string, logger *slog.Logger) (func(), error) {
	watcher := config.NewConfigWatcher(path, config.ReadLoggingConfig, logger)
	watcher.OnReload(logging.UpdateLevels)
	if err := watcher.Start(); err != nil {
		return func() {}, err
	}
	return func() {
		if err := watcher.Stop(); err != nil {
			logger.Warn("Failed to stop config watcher", "error", err)
		}
	}, nil
}

// SessionConfig builds the broker session for role. The publisher always
// reconnects; the listener follows listener.reconnect.
func SessionConfig(opts *config.Options, role string) session.Config {
	cfg := session.Config{
		URL:      opts.BrokerURL,
		ClientID: opts.ListenerClientID,
		Username: opts.BrokerUsername,
		Password: opts.BrokerPassword,
		TLS: session.TLSConfig{
			CAFile:   opts.BrokerCAFile,
			CertFile: opts.BrokerCertFile,
			KeyFile:  opts.BrokerKeyFile,
			CAPEM:    opts.BrokerCAPEM,
			CertPEM:  opts.BrokerCertPEM,
			KeyPEM:   opts.BrokerKeyPEM,
		},
		KeepAlive:      config.Duration(opts.BrokerKeepAlive, session.DefaultKeepAlive),
		ConnectTimeout: config.Duration(opts.BrokerConnectTimeout, session.DefaultConnectTimeout),
		PublishTimeout: config.Duration(opts.BrokerPublishTimeout, session.DefaultPublishTimeout),
		Reconnect:      opts.ListenerReconnect,
		Role:           role,
	}
	if role == RolePublisher {
		cfg.ClientID = opts.PublisherClientID
		cfg.Reconnect = true
	}
	return cfg
}

// LEDConfig builds the strip driver configuration.
func LEDConfig(opts *config.Options) led.Config {
	return led.Config{
		Driver:     opts.LEDDriver,
		SPIPort:    opts.LEDSpiPort,
		Count:      opts.LEDCount,
		Brightness: opts.LEDBrightness,
		FreqKHz:    opts.LEDFreqKhz,
	}
}

// FallbackInterval returns the fallback phase duration.
func FallbackInterval(opts *config.Options) time.Duration {
	return config.Duration(opts.LEDFallbackInterval, led.DefaultFallbackInterval)
}

// PublisherConfig builds the edge detector configuration.
func PublisherConfig(opts *config.Options) publisher.Config {
	return publisher.Config{
		Topic:    opts.BrokerTopic,
		QoS:      qos(opts.BrokerQos),
		Interval: config.Duration(opts.PublisherDebounce, publisher.DefaultInterval),
	}
}

// NetworkConfig builds the station and bring-up configuration.
func NetworkConfig(opts *config.Options) (network.StationConfig, network.Config) {
	station := network.StationConfig{
		Mode:      opts.NetworkMode,
		Interface: opts.NetworkInterface,
		SSID:      opts.NetworkSSID,
		Password:  opts.NetworkPassword,
	}
	bringup := network.Config{
		RetryWait:      config.Duration(opts.NetworkRetryWait, 5*time.Second),
		AddressTimeout: config.Duration(opts.NetworkAddressTimeout, 30*time.Second),
	}
	return station, bringup
}

func qos(v int) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 2:
		return 2
	default:
		return 1
	}
}
