package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// PlaceholderSecretKey is the key shipped in the sample config. The server
// refuses to start while it is in effect.
const PlaceholderSecretKey = "CHANGE_THIS_IN_PRODUCTION_USE_ENV_VAR"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabasesConfig `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Security  SecurityConfig  `mapstructure:"security"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Research  ResearchConfig  `mapstructure:"research"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Research DatabaseConfig `mapstructure:"research"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	// SecretKey is the process-wide key used for withdrawal-digest HMACs and
	// network-address hashing. Read once at startup, never logged.
	SecretKey string `mapstructure:"secret_key"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// ResearchConfig holds consent and withdrawal configuration
type ResearchConfig struct {
	// DefaultRetentionDays is reported for studies with no metadata row.
	DefaultRetentionDays int `mapstructure:"default_retention_days"`
	// ScanWarnThreshold is the active-record count beyond which the
	// withdrawal scan logs a capacity warning. The scan is linear; operators
	// are expected to bound the active population per deployment.
	ScanWarnThreshold int `mapstructure:"scan_warn_threshold"`
	// AbuseAlertThreshold is the number of failed withdrawal attempts from a
	// single hashed caller address within AbuseWindow that triggers a warning.
	AbuseAlertThreshold int           `mapstructure:"abuse_alert_threshold"`
	AbuseWindow         time.Duration `mapstructure:"abuse_window"`
}

// TelemetryConfig holds telemetry ingestion validation caps
type TelemetryConfig struct {
	MaxEventType    int           `mapstructure:"max_event_type"`
	MaxEventSubtype int           `mapstructure:"max_event_subtype"`
	MaxCoordinate   int           `mapstructure:"max_coordinate"`
	MaxMagnitude    float64       `mapstructure:"max_magnitude"`
	MaxPayloadBytes int           `mapstructure:"max_payload_bytes"`
	MaxBatchSize    int           `mapstructure:"max_batch_size"`
	TimestampSkew   time.Duration `mapstructure:"timestamp_skew"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("RESEARCH_API")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Research.DefaultRetentionDays <= 0 {
		config.Research.DefaultRetentionDays = 365
	}
	if config.Research.AbuseWindow <= 0 {
		config.Research.AbuseWindow = time.Hour
	}
	if config.Telemetry.MaxEventType <= 0 {
		config.Telemetry.MaxEventType = 999
	}
	if config.Telemetry.MaxEventSubtype <= 0 {
		config.Telemetry.MaxEventSubtype = 999
	}
	if config.Telemetry.MaxCoordinate <= 0 {
		config.Telemetry.MaxCoordinate = 10000
	}
	if config.Telemetry.MaxMagnitude <= 0 {
		config.Telemetry.MaxMagnitude = 100000
	}
	if config.Telemetry.MaxPayloadBytes <= 0 {
		config.Telemetry.MaxPayloadBytes = 10240
	}
	if config.Telemetry.MaxBatchSize <= 0 {
		config.Telemetry.MaxBatchSize = 500
	}
	if config.Telemetry.TimestampSkew <= 0 {
		config.Telemetry.TimestampSkew = 5 * time.Minute
	}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Research.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}

	if config.Database.Research.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Security.SecretKey == "" {
		return fmt.Errorf("security secret key is required")
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// SetGlobal sets the global configuration (for testing purposes)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}
