package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported time-series write backends.
const (
	// BackendInfluxDB writes through the official influxdb-client-go library.
	BackendInfluxDB = "influxdb"

	// BackendLine posts raw line protocol to the InfluxDB 1.x /write endpoint.
	BackendLine = "line"
)

// Config is the root configuration structure for w1logger.
// Values come from defaults, an optional YAML file, environment variables
// and finally command-line flags, in that order.
type Config struct {
	Sensors  SensorsConfig  `yaml:"sensors"`
	Poller   PollerConfig   `yaml:"poller"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SensorsConfig locates the sensor list and the w1 device tree.
type SensorsConfig struct {
	// List is the path to the sensor list file.
	List string `yaml:"list"`

	// Root is the w1 devices directory. Default: /sys/bus/w1/devices
	Root string `yaml:"root"`
}

// PollerConfig controls the sampling loop.
type PollerConfig struct {
	// BatchSize is the number of ticks between flush attempts. Default: 10
	BatchSize int `yaml:"batch_size"`

	// Interval is the sleep between ticks in seconds. Default: 15
	Interval int `yaml:"interval"`

	// RetainFailed keeps a batch after a failed write instead of dropping it.
	// Default: false (failed batches are dropped)
	RetainFailed bool `yaml:"retain_failed"`

	// MaxRetained caps the records kept when RetainFailed is set; the oldest
	// records are discarded first. Default: 1000
	MaxRetained int `yaml:"max_retained"`
}

// InfluxDBConfig contains time-series database connection settings.
type InfluxDBConfig struct {
	// Backend selects the writer: "influxdb" (client library) or "line" (raw HTTP).
	Backend string `yaml:"backend"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`

	// Database and RetentionPolicy address an InfluxDB 1.x database.
	Database        string `yaml:"database"`
	RetentionPolicy string `yaml:"retention_policy"`

	// Measurement is the measurement name every record is written under.
	Measurement string `yaml:"measurement"`

	// Username and Password authenticate against InfluxDB 1.x.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Token, Org and Bucket address InfluxDB 2.x. When Bucket is empty the
	// 1.x database/retention policy pair is used instead.
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`

	// Timeout bounds a single write request in seconds. Default: 20
	Timeout int `yaml:"timeout"`
}

// MQTTConfig contains MQTT broker connection settings for live record publishing.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Override mutates a loaded configuration. Overrides run after the file
// and environment have been applied and before validation; the command
// line uses them to apply explicitly set flags.
type Override func(cfg *Config)

// Load builds the configuration and validates it.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values, if path is non-empty
//  3. Environment variables (W1LOGGER_SECTION_KEY)
//  4. Overrides, in order
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for none
//   - overrides: Final adjustments, typically from command-line flags
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	for _, o := range overrides {
		o(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		Sensors: SensorsConfig{
			Root: "/sys/bus/w1/devices",
		},
		Poller: PollerConfig{
			BatchSize:   10,
			Interval:    15,
			MaxRetained: 1000,
		},
		InfluxDB: InfluxDBConfig{
			Backend:     BackendInfluxDB,
			Host:        "127.0.0.1",
			Port:        8086,
			Database:    "heating",
			Measurement: "onewire",
			Timeout:     20,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "w1logger",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 9108,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: W1LOGGER_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Sensors
	if v := os.Getenv("W1LOGGER_SENSORS_LIST"); v != "" {
		cfg.Sensors.List = v
	}
	if v := os.Getenv("W1LOGGER_SENSORS_ROOT"); v != "" {
		cfg.Sensors.Root = v
	}

	// Poller
	if v := os.Getenv("W1LOGGER_POLLER_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("W1LOGGER_POLLER_BATCH_SIZE: %w", err)
		}
		cfg.Poller.BatchSize = n
	}
	if v := os.Getenv("W1LOGGER_POLLER_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("W1LOGGER_POLLER_INTERVAL: %w", err)
		}
		cfg.Poller.Interval = n
	}

	// InfluxDB
	if v := os.Getenv("W1LOGGER_INFLUXDB_BACKEND"); v != "" {
		cfg.InfluxDB.Backend = v
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_HOST"); v != "" {
		cfg.InfluxDB.Host = v
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("W1LOGGER_INFLUXDB_PORT: %w", err)
		}
		cfg.InfluxDB.Port = port
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_DATABASE"); v != "" {
		cfg.InfluxDB.Database = v
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_RETENTION_POLICY"); v != "" {
		cfg.InfluxDB.RetentionPolicy = v
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_MEASUREMENT"); v != "" {
		cfg.InfluxDB.Measurement = v
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_USERNAME"); v != "" {
		cfg.InfluxDB.Username = v
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_PASSWORD"); v != "" {
		cfg.InfluxDB.Password = v
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_ORG"); v != "" {
		cfg.InfluxDB.Org = v
	}
	if v := os.Getenv("W1LOGGER_INFLUXDB_BUCKET"); v != "" {
		cfg.InfluxDB.Bucket = v
	}

	// MQTT
	if v := os.Getenv("W1LOGGER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("W1LOGGER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("W1LOGGER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Logging
	if v := os.Getenv("W1LOGGER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return nil
}

// Validate checks the configuration for errors.
//
// All problems are collected so the operator can fix them in one pass.
func (c *Config) Validate() error {
	var errs []string

	if c.Sensors.List == "" {
		errs = append(errs, "sensors.list is required")
	}
	if c.Sensors.Root == "" {
		errs = append(errs, "sensors.root is required")
	}

	if c.Poller.BatchSize < 1 {
		errs = append(errs, "poller.batch_size must be at least 1")
	}
	if c.Poller.Interval < 0 {
		errs = append(errs, "poller.interval must not be negative")
	}
	if c.Poller.RetainFailed && c.Poller.MaxRetained < c.Poller.BatchSize {
		errs = append(errs, "poller.max_retained must be at least poller.batch_size")
	}

	switch c.InfluxDB.Backend {
	case BackendInfluxDB, BackendLine:
	default:
		errs = append(errs, fmt.Sprintf("influxdb.backend must be %q or %q", BackendInfluxDB, BackendLine))
	}
	if c.InfluxDB.Host == "" {
		errs = append(errs, "influxdb.host is required")
	}
	if c.InfluxDB.Port < 1 || c.InfluxDB.Port > 65535 {
		errs = append(errs, "influxdb.port must be between 1 and 65535")
	}
	if c.InfluxDB.Measurement == "" {
		errs = append(errs, "influxdb.measurement is required")
	}
	if c.InfluxDB.Bucket == "" && c.InfluxDB.Database == "" {
		errs = append(errs, "influxdb.database (or influxdb.bucket) is required")
	}
	if c.InfluxDB.Backend == BackendLine && c.InfluxDB.Bucket != "" {
		errs = append(errs, "influxdb.bucket is not supported by the line backend")
	}
	if c.InfluxDB.Timeout < 1 {
		errs = append(errs, "influxdb.timeout must be at least 1 second")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetInterval returns the poll interval as a Duration.
func (c *Config) GetInterval() time.Duration {
	return time.Duration(c.Poller.Interval) * time.Second
}

// GetTimeout returns the time-series request timeout as a Duration.
func (c InfluxDBConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// URL returns the base HTTP URL of the time-series server.
func (c InfluxDBConfig) URL() string {
	scheme := "http"
	if c.TLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
