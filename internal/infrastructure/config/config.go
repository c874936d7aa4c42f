package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Hydro Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Recovery  RecoveryConfig  `yaml:"recovery"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	KeepAlive int                 `yaml:"keep_alive"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
//
// WebSocket selects the transport variant: false uses a plain socket
// connection (tcp/ssl), true uses WebSocket (ws/wss). Deployments
// behind HTTP-only infrastructure need the WebSocket variant; native
// deployments default to the socket transport.
type MQTTBrokerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	TLS       bool   `yaml:"tls"`
	WebSocket bool   `yaml:"websocket"`
	ClientID  string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT auto-reconnect settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// TelemetryConfig contains settings for the telemetry session.
type TelemetryConfig struct {
	// Namespace is the leading topic segment for all grow telemetry.
	// Topic shape: {namespace}/{node}/{category}
	Namespace string `yaml:"namespace"`

	// HistorySize is the capacity of the device-status replay buffer
	// shown to late subscribers.
	HistorySize int `yaml:"history_size"`

	// ReadyTimeout bounds how long EnsureInitialized waits for the
	// session's subscriptions to be in place (seconds).
	ReadyTimeout int `yaml:"ready_timeout"`
}

// RecoveryConfig contains manual-reconnect orchestration settings.
type RecoveryConfig struct {
	// Throttle is the minimum gap between reconnect attempts (seconds).
	Throttle int `yaml:"throttle"`

	// SettleDelay is the pause between disconnect and reconnect so the
	// transport can release cleanly (milliseconds).
	SettleDelay int `yaml:"settle_delay"`

	// WatchdogInterval is how often the connection watchdog checks the
	// session and triggers automatic recovery (seconds, 0 disables).
	WatchdogInterval int `yaml:"watchdog_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HYDROCORE_SECTION_KEY
// For example: HYDROCORE_MQTT_HOST, HYDROCORE_INFLUXDB_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "hydrocore",
			},
			QoS:       1,
			KeepAlive: 60,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "hydro",
			Bucket:        "telemetry",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Telemetry: TelemetryConfig{
			Namespace:    "grow",
			HistorySize:  50,
			ReadyTimeout: 5,
		},
		Recovery: RecoveryConfig{
			Throttle:         5,
			SettleDelay:      100,
			WatchdogInterval: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HYDROCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("HYDROCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HYDROCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HYDROCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("HYDROCORE_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("HYDROCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Telemetry.Namespace == "" {
		errs = append(errs, "telemetry.namespace is required")
	}
	if strings.ContainsAny(c.Telemetry.Namespace, "/+#") {
		errs = append(errs, "telemetry.namespace must be a single topic segment")
	}
	if c.Telemetry.HistorySize < 1 {
		errs = append(errs, "telemetry.history_size must be at least 1")
	}

	if c.Recovery.Throttle < 0 {
		errs = append(errs, "recovery.throttle must not be negative")
	}
	if c.Recovery.SettleDelay < 0 {
		errs = append(errs, "recovery.settle_delay must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadyTimeout returns the session ready timeout as a Duration.
func (c *Config) GetReadyTimeout() time.Duration {
	return time.Duration(c.Telemetry.ReadyTimeout) * time.Second
}

// GetThrottle returns the recovery throttle window as a Duration.
func (c *Config) GetThrottle() time.Duration {
	return time.Duration(c.Recovery.Throttle) * time.Second
}

// GetSettleDelay returns the post-disconnect settle delay as a Duration.
func (c *Config) GetSettleDelay() time.Duration {
	return time.Duration(c.Recovery.SettleDelay) * time.Millisecond
}

// GetWatchdogInterval returns the watchdog check interval as a Duration.
func (c *Config) GetWatchdogInterval() time.Duration {
	return time.Duration(c.Recovery.WatchdogInterval) * time.Second
}
