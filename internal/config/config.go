package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "cgmdose/internal/errors"
	"cgmdose/internal/validation"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
}

// DatabaseConfig locates the record table. Connection fields are only
// required by commands that open the database.
type DatabaseConfig struct {
	Host            string `yaml:"host" envconfig:"HOST"`
	Port            int    `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	Name            string `yaml:"name" envconfig:"NAME"`
	User            string `yaml:"user" envconfig:"USER"`
	Password        string `yaml:"password" envconfig:"PASSWORD"`
	SSLMode         string `yaml:"sslmode" envconfig:"SSLMODE" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	Schema          string `yaml:"schema" envconfig:"SCHEMA" validate:"required,sqlident"`
	Table           string `yaml:"table" envconfig:"TABLE" validate:"required,sqlident"`
	MaxConns        int32  `yaml:"max_conns" envconfig:"MAX_CONNS" validate:"min=1"`
	ConnectAttempts uint   `yaml:"connect_attempts" envconfig:"CONNECT_ATTEMPTS" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName    string        `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Traces         string        `yaml:"traces" envconfig:"TRACES" validate:"oneof=none stdout"`
	Metrics        bool          `yaml:"metrics" envconfig:"METRICS"`
	PushgatewayURL string        `yaml:"pushgateway_url" envconfig:"PUSHGATEWAY_URL" validate:"omitempty,url"`
	PushJob        string        `yaml:"push_job" envconfig:"PUSH_JOB" validate:"required"`
	PushTimeout    time.Duration `yaml:"push_timeout" envconfig:"PUSH_TIMEOUT" validate:"gt=0"`
}

// AnalyticsConfig contains dosing analytics parameters
type AnalyticsConfig struct {
	Target float64 `yaml:"target" envconfig:"TARGET" validate:"gt=0"`
	Days   int     `yaml:"days" envconfig:"DAYS" validate:"min=0"`

	// ISF fixes the insulin sensitivity factor; 0 derives it from the data.
	ISF float64 `yaml:"isf" envconfig:"ISF" validate:"min=0"`
}

// IngestConfig contains file discovery and fan-out settings
type IngestConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Workers   int    `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in increasing precedence. A .env file in the working
// directory is loaded into the environment first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := configFilePath(); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config file", err).
				WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every section against its constraints.
func (c *Config) Validate() error {
	return validation.Struct(c)
}

// loadFromFile overlays the YAML file at path onto cfg. Keys absent from
// the file keep their current value.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// configFilePath returns CGM_CONFIG_FILE when set, otherwise the first
// default location that exists, or "".
func configFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			Schema:          DefaultSchema,
			Table:           DefaultTable,
			MaxConns:        10,
			ConnectAttempts: 5,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/cgmdose.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName: AppName,
			Traces:      "none",
			Metrics:     true,
			PushJob:     AppName,
			PushTimeout: 10 * time.Second,
		},
		Analytics: AnalyticsConfig{
			Target: DefaultTarget,
			Days:   DefaultDays,
		},
		Ingest: IngestConfig{
			InputDir:  "data",
			OutputDir: "reports",
			Workers:   DefaultWorkers,
		},
	}
}
