package config

import "time"

// Options is the flat option set shared by every switchlight command.
// Fields map to CLI flags (humacli), `SWITCHLIGHT_`-prefixed env vars and
// dotted TOML paths.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"switchlight.toml"`

	// Broker settings
	BrokerURL            string `help:"Broker URL (mqtts://, ssl://, tcp://, nats://)" default:"mqtts://localhost:8883" toml:"broker.url" env:"BROKER_URL"`
	BrokerTopic          string `help:"Button state topic" default:"n8n/button/state" toml:"broker.topic" env:"BROKER_TOPIC"`
	BrokerQos            int    `help:"MQTT QoS for publish and subscribe" default:"1" toml:"broker.qos" env:"BROKER_QOS"`
	BrokerCAFile         string `help:"Root CA certificate file" toml:"broker.ca_file" env:"BROKER_CA_FILE"`
	BrokerCertFile       string `help:"Client certificate file" toml:"broker.cert_file" env:"BROKER_CERT_FILE"`
	BrokerKeyFile        string `help:"Client private key file" toml:"broker.key_file" env:"BROKER_KEY_FILE"`
	BrokerCAPEM          string `help:"Root CA certificate PEM (overrides file)" toml:"broker.ca_pem" env:"BROKER_CA_PEM"`
	BrokerCertPEM        string `help:"Client certificate PEM (overrides file)" toml:"broker.cert_pem" env:"BROKER_CERT_PEM"`
	BrokerKeyPEM         string `help:"Client private key PEM (overrides file)" toml:"broker.key_pem" env:"BROKER_KEY_PEM"`
	BrokerUsername       string `help:"Broker username" toml:"broker.username" env:"BROKER_USERNAME"`
	BrokerPassword       string `help:"Broker password" toml:"broker.password" env:"BROKER_PASSWORD"`
	BrokerKeepAlive      string `help:"Session keep-alive interval" default:"20s" toml:"broker.keep_alive" env:"BROKER_KEEP_ALIVE"`
	BrokerConnectTimeout string `help:"Connect timeout" default:"10s" toml:"broker.connect_timeout" env:"BROKER_CONNECT_TIMEOUT"`
	BrokerPublishTimeout string `help:"Publish acknowledgement timeout" default:"10s" toml:"broker.publish_timeout" env:"BROKER_PUBLISH_TIMEOUT"`

	// Embedded broker settings
	BrokerEmbed         bool   `help:"Run an embedded NATS broker with an MQTT gateway" default:"false" toml:"broker.embed" env:"BROKER_EMBED"`
	BrokerEmbedHost     string `help:"Embedded broker listen host" default:"127.0.0.1" toml:"broker.embed_host" env:"BROKER_EMBED_HOST"`
	BrokerEmbedPort     int    `help:"Embedded broker NATS port" default:"4222" toml:"broker.embed_port" env:"BROKER_EMBED_PORT"`
	BrokerEmbedMqttPort int    `help:"Embedded broker MQTT port" default:"1883" toml:"broker.embed_mqtt_port" env:"BROKER_EMBED_MQTT_PORT"`
	BrokerEmbedStoreDir string `help:"Embedded broker JetStream directory, empty for a temporary one" toml:"broker.embed_store_dir" env:"BROKER_EMBED_STORE_DIR"`

	// Publisher settings
	PublisherClientID string `help:"Publisher client identifier" default:"button_n8n_testing_publisher" toml:"publisher.client_id" env:"PUBLISHER_CLIENT_ID"`
	PublisherGPIOPin  string `help:"Button GPIO line name" default:"GPIO9" toml:"publisher.gpio_pin" env:"PUBLISHER_GPIO_PIN"`
	PublisherDebounce string `help:"Button sampling interval" default:"50ms" toml:"publisher.debounce" env:"PUBLISHER_DEBOUNCE"`

	// Network settings
	NetworkMode           string `help:"Network bring-up mode (none, nmcli)" default:"none" toml:"network.mode" env:"NETWORK_MODE"`
	NetworkInterface      string `help:"Network interface to watch" default:"wlan0" toml:"network.interface" env:"NETWORK_INTERFACE"`
	NetworkSSID           string `help:"Wireless SSID" toml:"network.ssid" env:"NETWORK_SSID"`
	NetworkPassword       string `help:"Wireless passphrase" toml:"network.password" env:"NETWORK_PASSWORD"`
	NetworkRetryWait      string `help:"Wait between association attempts" default:"5s" toml:"network.retry_wait" env:"NETWORK_RETRY_WAIT"`
	NetworkAddressTimeout string `help:"Time allowed for address acquisition" default:"30s" toml:"network.address_timeout" env:"NETWORK_ADDRESS_TIMEOUT"`

	// Listener settings
	ListenerClientID  string `help:"Listener client identifier" default:"button_state_update_subscriber_n8n" toml:"listener.client_id" env:"LISTENER_CLIENT_ID"`
	ListenerReconnect bool   `help:"Reconnect the listener session after a drop" default:"false" toml:"listener.reconnect" env:"LISTENER_RECONNECT"`

	// LED settings
	LEDDriver           string `help:"LED strip driver (spi, noop)" default:"spi" toml:"led.driver" env:"LED_DRIVER"`
	LEDSpiPort          string `help:"SPI port name, empty for the first one" toml:"led.spi_port" env:"LED_SPI_PORT"`
	LEDCount            int    `help:"Number of LEDs on the strip" default:"144" toml:"led.count" env:"LED_COUNT"`
	LEDBrightness       int    `help:"Global brightness 0-255" default:"255" toml:"led.brightness" env:"LED_BRIGHTNESS"`
	LEDFreqKhz          int    `help:"LED data rate in kHz" default:"800" toml:"led.freq_khz" env:"LED_FREQ_KHZ"`
	LEDFallbackInterval string `help:"Fallback pattern phase duration" default:"1s" toml:"led.fallback_interval" env:"LED_FALLBACK_INTERVAL"`

	// HTTP settings
	HTTPAddr         string `help:"Status API listen address, empty disables" default:":8090" toml:"http.addr" env:"HTTP_ADDR"`
	HTTPAuthUsername string `help:"Basic auth username, empty disables auth" toml:"http.auth_username" env:"HTTP_AUTH_USERNAME"`
	HTTPAuthPassword string `help:"Basic auth password" toml:"http.auth_password" env:"HTTP_AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSession   string `help:"Session logging level" default:"info" toml:"logging.session" env:"LOGGING_SESSION"`
	LoggingListener  string `help:"Listener logging level" default:"info" toml:"logging.listener" env:"LOGGING_LISTENER"`
	LoggingPublisher string `help:"Publisher logging level" default:"info" toml:"logging.publisher" env:"LOGGING_PUBLISHER"`
	LoggingNetwork   string `help:"Network logging level" default:"info" toml:"logging.network" env:"LOGGING_NETWORK"`
	LoggingLED       string `help:"LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingBroker    string `help:"Embedded broker logging level" default:"info" toml:"logging.broker" env:"LOGGING_BROKER"`
}

// ModuleLevels returns the per-module logging overrides.
func (o *Options) ModuleLevels() map[string]string {
	return map[string]string{
		"session":   o.LoggingSession,
		"listener":  o.LoggingListener,
		"publisher": o.LoggingPublisher,
		"network":   o.LoggingNetwork,
		"led":       o.LoggingLED,
		"api":       o.LoggingAPI,
		"broker":    o.LoggingBroker,
	}
}

// Duration parses a duration option, falling back when empty or invalid.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
