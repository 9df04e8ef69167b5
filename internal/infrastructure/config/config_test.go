package config

import (
	"os"
	"path/filepath"
	"testing"
)

// validConfig returns a configuration passing all checks, built from the
// defaults plus the fields with no usable default.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.RTU.COA = 1
	cfg.RTU.DatapointFile = "/etc/gridrtu/datapoints.yaml"
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
rtu:
  coa: 12
  datapoint_file: "/etc/gridrtu/datapoints.yaml"
  includes_relationships: true
backend:
  type: "sim"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RTU.COA != 12 {
		t.Errorf("RTU.COA = %d, want 12", cfg.RTU.COA)
	}

	if !cfg.RTU.IncludesRelationships {
		t.Error("RTU.IncludesRelationships = false, want true")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	// Missing rtu.coa and rtu.datapoint_file.
	content := `
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for missing rtu section, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing coa",
			mutate:  func(c *Config) { c.RTU.COA = 0 },
			wantErr: true,
		},
		{
			name:    "missing datapoint file",
			mutate:  func(c *Config) { c.RTU.DatapointFile = "" },
			wantErr: true,
		},
		{
			name:    "unknown backend type",
			mutate:  func(c *Config) { c.Backend.Type = "opc" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name: "influxdb enabled without token",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Org = "grid"
				c.InfluxDB.Bucket = "rtu"
			},
			wantErr: true,
		},
		{
			name: "influxdb enabled complete",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Token = "secret"
				c.InfluxDB.Org = "grid"
				c.InfluxDB.Bucket = "rtu"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetDurations(t *testing.T) {
	cfg := validConfig()
	cfg.RTU.ReadyTimeout = 30
	cfg.Backend.Sim.PushInterval = 7
	cfg.MQTT.RequestTimeout = 15

	if got := cfg.GetReadyTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadyTimeout() = %v, want 30", got)
	}

	if got := cfg.GetPushInterval().Seconds(); got != 7 {
		t.Errorf("GetPushInterval() = %v, want 7", got)
	}

	cfg.Backend.Sim.HistoryRetentionDays = 3
	if got := cfg.GetHistoryRetention().Hours(); got != 72 {
		t.Errorf("GetHistoryRetention() = %v hours, want 72", got)
	}

	if got := cfg.GetRequestTimeout().Seconds(); got != 15 {
		t.Errorf("GetRequestTimeout() = %v, want 15", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("GRIDRTU_RTU_COA", "42")
	t.Setenv("GRIDRTU_RTU_DATAPOINT_FILE", "/custom/datapoints.yaml")
	t.Setenv("GRIDRTU_BACKEND_TYPE", "mqtt")
	t.Setenv("GRIDRTU_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRIDRTU_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRIDRTU_MQTT_USERNAME", "testuser")
	t.Setenv("GRIDRTU_MQTT_PASSWORD", "testpass")
	t.Setenv("GRIDRTU_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.RTU.COA != 42 {
		t.Errorf("RTU.COA = %d, want 42", cfg.RTU.COA)
	}

	if cfg.RTU.DatapointFile != "/custom/datapoints.yaml" {
		t.Errorf("RTU.DatapointFile = %q, want %q", cfg.RTU.DatapointFile, "/custom/datapoints.yaml")
	}

	if cfg.Backend.Type != "mqtt" {
		t.Errorf("Backend.Type = %q, want %q", cfg.Backend.Type, "mqtt")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.Backend.Type != "sim" {
		t.Errorf("defaultConfig Backend.Type = %q, want %q", cfg.Backend.Type, "sim")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.Backend.Sim.PushInterval != 5 {
		t.Errorf("defaultConfig Backend.Sim.PushInterval = %d, want 5", cfg.Backend.Sim.PushInterval)
	}

	if cfg.Backend.Sim.HistoryRetentionDays != 7 {
		t.Errorf("defaultConfig Backend.Sim.HistoryRetentionDays = %d, want 7", cfg.Backend.Sim.HistoryRetentionDays)
	}
}
