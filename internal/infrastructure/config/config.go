package config

import (
	"fmt"
	"net"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by haptics.backend.
const (
	BackendIOKit     = "iokit"
	BackendSimulated = "simulated"
)

// Config is the root configuration structure for Gray Logic Haptics.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Haptics  HapticsConfig  `yaml:"haptics"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
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

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	Auth     APIAuthConfig    `yaml:"auth"`
}

// API client roles accepted by api.auth.clients[].role.
const (
	APIRoleViewer   = "viewer"
	APIRoleOperator = "operator"
)

// MinJWTSecretLength is the shortest accepted api.auth.jwt_secret.
const MinJWTSecretLength = 32

// APIAuthConfig enables bearer-token authentication on the API.
//
// Clients exchange their name and secret for a short-lived JWT at
// POST /api/v1/auth/token. Only the Argon2id hash of each secret is stored.
type APIAuthConfig struct {
	Enabled bool `yaml:"enabled"`

	// JWTSecret signs access tokens (HS256). At least 32 characters.
	JWTSecret string `yaml:"jwt_secret"`

	// AccessTokenTTL is the token lifetime in minutes.
	// Default: 15
	AccessTokenTTL int `yaml:"access_token_ttl"`

	Clients []APIClientConfig `yaml:"clients"`
}

// APIClientConfig is one API client allowed to request tokens.
type APIClientConfig struct {
	Name string `yaml:"name"`

	// Role is "viewer" (read endpoints) or "operator" (also actuate).
	Role string `yaml:"role"`

	// SecretHash is the Argon2id PHC string of the client secret, as printed
	// by `hapticctl auth hash-secret`.
	SecretHash string `yaml:"secret_hash"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
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

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// HapticsConfig selects the actuator backend and tunes the session.
type HapticsConfig struct {
	// Backend is "iokit" (macOS only) or "simulated".
	// Default: "iokit"
	Backend string `yaml:"backend"`

	// DeviceClass is the registry class searched during discovery.
	// Default: "AppleMultitouchDevice"
	DeviceClass string `yaml:"device_class"`

	// MaxRetries is the number of close-reopen-retry cycles after a failed
	// actuation. Zero disables retrying.
	// Default: 1
	MaxRetries int `yaml:"max_retries"`

	// DefaultPattern is used when a command omits the pattern.
	// Default: 6 (strong)
	DefaultPattern int32 `yaml:"default_pattern"`

	Bridge    HapticsBridgeConfig `yaml:"bridge"`
	Simulated SimulatedConfig     `yaml:"simulated"`
}

// HapticsBridgeConfig configures the MQTT command bridge.
type HapticsBridgeConfig struct {
	Enabled bool `yaml:"enabled"`

	// DeviceID is the id commands are addressed to and acks are published under.
	// Default: "trackpad"
	DeviceID string `yaml:"device_id"`

	// HealthInterval is the health publish period in seconds.
	// Default: 30
	HealthInterval int `yaml:"health_interval"`
}

// SimulatedConfig describes the devices and faults of the simulated backend.
type SimulatedConfig struct {
	Devices []SimulatedDevice `yaml:"devices"`

	// FailActuations makes the first N actuations fail.
	FailActuations int  `yaml:"fail_actuations"`
	FailOpen       bool `yaml:"fail_open"`
	FailClose      bool `yaml:"fail_close"`
}

// SimulatedDevice mirrors the registry properties of one device. A nil
// field is an absent property.
type SimulatedDevice struct {
	Name               string  `yaml:"name"`
	Product            *string `yaml:"product"`
	ActuationSupported *bool   `yaml:"actuation_supported"`
	BuiltIn            *bool   `yaml:"built_in"`
	MultitouchID       *string `yaml:"multitouch_id"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
// For example: GRAYLOGIC_DATABASE_PATH, GRAYLOGIC_HAPTICS_BACKEND
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

// Default returns the built-in configuration with environment overrides
// applied. Used when no config file is given.
func Default() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic",
		},
		Database: DatabaseConfig{
			Path:        "./data/haptics.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-haptics",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8095,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			Auth: APIAuthConfig{
				AccessTokenTTL: 15,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Haptics: HapticsConfig{
			Backend:        BackendIOKit,
			DeviceClass:    "AppleMultitouchDevice",
			MaxRetries:     1,
			DefaultPattern: 6,
			Bridge: HapticsBridgeConfig{
				DeviceID:       "trackpad",
				HealthInterval: 30,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("GRAYLOGIC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_API_JWT_SECRET"); v != "" {
		cfg.API.Auth.JWTSecret = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Haptics
	if v := os.Getenv("GRAYLOGIC_HAPTICS_BACKEND"); v != "" {
		cfg.Haptics.Backend = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.Enabled {
		errs = append(errs, c.API.validateAuth()...)
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	switch c.Haptics.Backend {
	case BackendIOKit, BackendSimulated:
	default:
		errs = append(errs, fmt.Sprintf("haptics.backend must be %q or %q", BackendIOKit, BackendSimulated))
	}
	if c.Haptics.DeviceClass == "" {
		errs = append(errs, "haptics.device_class is required")
	}
	if c.Haptics.MaxRetries < 0 {
		errs = append(errs, "haptics.max_retries must not be negative")
	}
	if c.Haptics.Bridge.Enabled {
		if !c.MQTT.Enabled {
			errs = append(errs, "haptics.bridge requires mqtt.enabled")
		}
		if c.Haptics.Bridge.DeviceID == "" || strings.ContainsAny(c.Haptics.Bridge.DeviceID, "/+#") {
			errs = append(errs, "haptics.bridge.device_id must be a single topic level")
		}
		if c.Haptics.Bridge.HealthInterval < 1 {
			errs = append(errs, "haptics.bridge.health_interval must be at least 1 second")
		}
	}
	if c.Haptics.Simulated.FailActuations < 0 {
		errs = append(errs, "haptics.simulated.fail_actuations must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateAuth refuses an unauthenticated API on anything but loopback.
func (a APIConfig) validateAuth() []string {
	var errs []string
	if !a.Auth.Enabled {
		if !IsLoopbackHost(a.Host) {
			errs = append(errs, fmt.Sprintf("api.auth.enabled is required when api.host %q is not a loopback address", a.Host))
		}
		return errs
	}

	if len(a.Auth.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Sprintf("api.auth.jwt_secret must be at least %d characters (set GRAYLOGIC_API_JWT_SECRET)", MinJWTSecretLength))
	}
	if a.Auth.AccessTokenTTL < 1 {
		errs = append(errs, "api.auth.access_token_ttl must be at least 1 minute")
	}
	if len(a.Auth.Clients) == 0 {
		errs = append(errs, "api.auth.clients must list at least one client")
	}
	seen := make(map[string]bool, len(a.Auth.Clients))
	for i, cl := range a.Auth.Clients {
		switch {
		case cl.Name == "":
			errs = append(errs, fmt.Sprintf("api.auth.clients[%d].name is required", i))
		case seen[cl.Name]:
			errs = append(errs, fmt.Sprintf("api.auth.clients[%d].name %q is duplicated", i, cl.Name))
		}
		seen[cl.Name] = true
		if !slices.Contains([]string{APIRoleViewer, APIRoleOperator}, cl.Role) {
			errs = append(errs, fmt.Sprintf("api.auth.clients[%d].role must be %q or %q", i, APIRoleViewer, APIRoleOperator))
		}
		if !strings.HasPrefix(cl.SecretHash, "$argon2id$") {
			errs = append(errs, fmt.Sprintf("api.auth.clients[%d].secret_hash must be an argon2id hash", i))
		}
	}
	return errs
}

// IsLoopbackHost reports whether host only accepts local connections. An
// empty host listens on every interface and is not loopback.
func IsLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// GetAccessTokenTTL returns the API access token lifetime as a Duration.
func (c *Config) GetAccessTokenTTL() time.Duration {
	return time.Duration(c.API.Auth.AccessTokenTTL) * time.Minute
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

// GetHealthInterval returns the bridge health publish period as a Duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Haptics.Bridge.HealthInterval) * time.Second
}
