package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for grid-rtu-core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	RTU      RTUConfig      `yaml:"rtu"`
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RTUConfig describes the RTU endpoint itself.
type RTUConfig struct {
	// COA is the RTU's own common address. Required.
	COA int `yaml:"coa" validate:"min=1"`

	// DatapointFile is the path to the YAML datapoint table. Required.
	DatapointFile string `yaml:"datapoint_file" validate:"nonzero"`

	// IncludesRelationships indicates whether the datapoint table rows
	// carry the relationship column.
	IncludesRelationships bool `yaml:"includes_relationships"`

	// AutoStart starts the backend during construction.
	AutoStart bool `yaml:"auto_start"`

	// ReadyTimeout bounds the startup readiness wait, in seconds.
	// 0 waits forever.
	ReadyTimeout int `yaml:"ready_timeout" validate:"min=0"`
}

// BackendConfig selects and tunes the query backend.
type BackendConfig struct {
	// Type selects the backend implementation: "sim" or "mqtt".
	Type string `yaml:"type" validate:"regexp=^(sim|mqtt)$"`

	// Sim tunes the local simulator backend.
	Sim SimConfig `yaml:"sim"`
}

// SimConfig contains simulator backend settings.
type SimConfig struct {
	// PushInterval is the delay between periodic value pushes, in seconds.
	PushInterval int `yaml:"push_interval" validate:"min=1"`

	// HistoryRetentionDays is how long io_history journal entries are
	// kept. Older entries are pruned on backend start.
	HistoryRetentionDays int `yaml:"history_retention_days" validate:"min=1"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path" validate:"nonzero"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout" validate:"min=0"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos" validate:"min=0,max=2"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// RequestTimeout bounds a single query round trip, in seconds.
	RequestTimeout int `yaml:"request_timeout" validate:"min=1"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host" validate:"nonzero"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id" validate:"nonzero"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay" validate:"min=0"`
	MaxDelay     int `yaml:"max_delay" validate:"min=0"`
	MaxAttempts  int `yaml:"max_attempts" validate:"min=0"`
}

// InfluxDBConfig contains InfluxDB connection settings for the IO
// telemetry recorder.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size" validate:"min=0"`
	FlushInterval int    `yaml:"flush_interval" validate:"min=0"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"regexp=^(debug|info|warn|error)$"`
	Format string `yaml:"format" validate:"regexp=^(json|text)$"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRIDRTU_SECTION_KEY
// For example: GRIDRTU_DATABASE_PATH, GRIDRTU_RTU_COA
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		RTU: RTUConfig{
			AutoStart:    true,
			ReadyTimeout: 30,
		},
		Backend: BackendConfig{
			Type: "sim",
			Sim: SimConfig{
				PushInterval:         5,
				HistoryRetentionDays: 7,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/gridrtu.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "gridrtu-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			RequestTimeout: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRIDRTU_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// RTU
	if v := os.Getenv("GRIDRTU_RTU_COA"); v != "" {
		if coa, err := strconv.Atoi(v); err == nil {
			cfg.RTU.COA = coa
		}
	}
	if v := os.Getenv("GRIDRTU_RTU_DATAPOINT_FILE"); v != "" {
		cfg.RTU.DatapointFile = v
	}

	// Backend
	if v := os.Getenv("GRIDRTU_BACKEND_TYPE"); v != "" {
		cfg.Backend.Type = v
	}

	// Database
	if v := os.Getenv("GRIDRTU_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRIDRTU_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRIDRTU_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRIDRTU_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GRIDRTU_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Structural checks (presence, ranges, enumerations) come from the
// struct validation tags; cross-field rules follow by hand.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if err := validator.Validate(c); err != nil {
		errs = append(errs, err.Error())
	}

	// An enabled InfluxDB recorder needs a complete connection block.
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set GRIDRTU_INFLUXDB_TOKEN)")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadyTimeout returns the startup readiness bound as a Duration.
func (c *Config) GetReadyTimeout() time.Duration {
	return time.Duration(c.RTU.ReadyTimeout) * time.Second
}

// GetPushInterval returns the simulator push interval as a Duration.
func (c *Config) GetPushInterval() time.Duration {
	return time.Duration(c.Backend.Sim.PushInterval) * time.Second
}

// GetHistoryRetention returns the simulator journal retention as a Duration.
func (c *Config) GetHistoryRetention() time.Duration {
	return time.Duration(c.Backend.Sim.HistoryRetentionDays) * 24 * time.Hour
}

// GetRequestTimeout returns the MQTT request round-trip bound as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.MQTT.RequestTimeout) * time.Second
}
