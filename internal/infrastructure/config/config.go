package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Purebridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Dyson    DysonConfig    `yaml:"dyson"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
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

// InfluxDBConfig contains optional telemetry history settings.
type InfluxDBConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`

	// BatchSize is the number of points buffered before a write. Zero
	// uses the client default.
	BatchSize int `yaml:"batch_size"`

	// FlushInterval is the buffer flush interval in seconds. Zero uses
	// the client default.
	FlushInterval int `yaml:"flush_interval"`
}

// DysonConfig contains settings for the Dyson platform as a whole.
type DysonConfig struct {
	// Directory configures the cloud device directory lookup. Optional:
	// devices with a local credentials blob do not need the directory.
	Directory DirectoryConfig `yaml:"directory"`

	// Devices lists the locally reachable appliances.
	Devices []DeviceConfig `yaml:"devices"`
}

// DirectoryConfig contains cloud device-directory settings.
// The token is treated as opaque; acquiring it is outside this process.
type DirectoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`

	// RetryDelaySeconds is the backoff applied after a failed listing
	// before the next attempt.
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`
}

// DeviceConfig contains the per-appliance options recognised by the bridge.
type DeviceConfig struct {
	// IPAddress is the local address of the appliance. Network discovery is
	// not performed; this must be supplied.
	IPAddress string `yaml:"ip_address"`

	// Credentials is the base64 JSON blob produced by the credentials
	// helper, containing Serial, ProductType, Version, Name and password.
	Credentials string `yaml:"credentials"`

	// SerialNumber may be set to match a directory entry when no local
	// credentials blob is configured.
	SerialNumber string `yaml:"serial_number"`

	IsTemperatureSensorEnabled    bool `yaml:"is_temperature_sensor_enabled"`
	IsHumiditySensorEnabled       bool `yaml:"is_humidity_sensor_enabled"`
	IsAirQualitySensorEnabled     bool `yaml:"is_air_quality_sensor_enabled"`
	IsNightModeEnabled            bool `yaml:"is_night_mode_enabled"`
	IsJetFocusEnabled             bool `yaml:"is_jet_focus_enabled"`
	IsContinuousMonitoringEnabled bool `yaml:"is_continuous_monitoring_enabled"`
	IsSingleAccessoryModeEnabled  bool `yaml:"is_single_accessory_mode_enabled"`

	EnableAutoModeWhenActivating    bool `yaml:"enable_auto_mode_when_activating"`
	EnableOscillationWhenActivating bool `yaml:"enable_oscillation_when_activating"`
	EnableNightModeWhenActivating   bool `yaml:"enable_night_mode_when_activating"`

	// IsHeatingSafetyIgnored disables the app-mirroring behaviour of
	// forcing heating off when the unit is powered on.
	IsHeatingSafetyIgnored bool `yaml:"is_heating_safety_ignored"`

	// IsFullRangeHumidityEnabled widens the humidity target clamp from
	// [30,70] to [0,100].
	IsFullRangeHumidityEnabled bool `yaml:"is_full_range_humidity_enabled"`

	TemperatureOffset float64 `yaml:"temperature_offset"`
	HumidityOffset    float64 `yaml:"humidity_offset"`
	UseFahrenheit     bool    `yaml:"use_fahrenheit"`

	// UpdateIntervalMs is the state polling interval in milliseconds.
	// Zero disables polling beyond the initial state request.
	UpdateIntervalMs int `yaml:"update_interval_ms"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PUREBRIDGE_SECTION_KEY
// For example: PUREBRIDGE_API_PORT, PUREBRIDGE_DIRECTORY_TOKEN
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
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 48000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Dyson: DysonConfig{
			Directory: DirectoryConfig{
				RetryDelaySeconds: 60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PUREBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("PUREBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("PUREBRIDGE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Logging
	if v := os.Getenv("PUREBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// InfluxDB
	if v := os.Getenv("PUREBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Directory token (never commit this to the config file)
	if v := os.Getenv("PUREBRIDGE_DIRECTORY_TOKEN"); v != "" {
		cfg.Dyson.Directory.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Dyson.Directory.Enabled && c.Dyson.Directory.BaseURL == "" {
		errs = append(errs, "dyson.directory.base_url is required when the directory is enabled")
	}

	for i, dev := range c.Dyson.Devices {
		if dev.IPAddress == "" {
			errs = append(errs, fmt.Sprintf("dyson.devices[%d].ip_address is required", i))
		}
		if dev.Credentials == "" && dev.SerialNumber == "" {
			errs = append(errs, fmt.Sprintf("dyson.devices[%d] needs credentials or serial_number", i))
		}
		if dev.UpdateIntervalMs < 0 {
			errs = append(errs, fmt.Sprintf("dyson.devices[%d].update_interval_ms must not be negative", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetRetryDelay returns the directory retry backoff as a Duration.
func (c *DirectoryConfig) GetRetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// GetUpdateInterval returns the polling interval as a Duration.
// Zero means polling is disabled.
func (d *DeviceConfig) GetUpdateInterval() time.Duration {
	return time.Duration(d.UpdateIntervalMs) * time.Millisecond
}
