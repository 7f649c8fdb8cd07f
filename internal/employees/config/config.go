// Package config loads the service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable holding the config file location.
const PathEnv = "EMPLOYEES_CONFIG"

// DefaultPath is used when PathEnv is unset.
var DefaultPath = filepath.Join("internal", "employees", "config", "config.yaml")

// Config struct for YAML configuration. Every field can be overridden by the
// environment variable of the same name.
type Config struct {
	GRPCPort int `yaml:"GRPC_PORT" env:"GRPC_PORT"`
	HTTPPort int `yaml:"HTTP_PORT" env:"HTTP_PORT"`

	DBDriver    string `yaml:"DB_DRIVER" env:"DB_DRIVER"`
	DBPath      string `yaml:"DB_PATH" env:"DB_PATH"`
	DBHost      string `yaml:"DB_HOST" env:"DB_HOST"`
	DBPort      int    `yaml:"DB_PORT" env:"DB_PORT"`
	DBUser      string `yaml:"DB_USER" env:"DB_USER"`
	DBPassword  string `yaml:"DB_PASSWORD" env:"DB_PASSWORD"`
	DBName      string `yaml:"DB_NAME" env:"DB_NAME"`
	DBSSLMode   string `yaml:"DB_SSLMODE" env:"DB_SSLMODE"`
	DBBatchSize int    `yaml:"DB_BATCH_SIZE" env:"DB_BATCH_SIZE"`

	KafkaBrokers []string `yaml:"KAFKA_BROKERS" env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string   `yaml:"TOPIC" env:"TOPIC"`

	MaxUploadBytes int64 `yaml:"MAX_UPLOAD_BYTES" env:"MAX_UPLOAD_BYTES"`
	// UploadRatePerSec of 0 disables upload throttling.
	UploadRatePerSec float64 `yaml:"UPLOAD_RATE_PER_SEC" env:"UPLOAD_RATE_PER_SEC"`
	UploadBurst      int     `yaml:"UPLOAD_BURST" env:"UPLOAD_BURST"`

	LogLevel        string        `yaml:"LOG_LEVEL" env:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `yaml:"SHUTDOWN_TIMEOUT" env:"SHUTDOWN_TIMEOUT"`
}

// Default returns the configuration used for settings absent from both the
// file and the environment.
func Default() *Config {
	return &Config{
		GRPCPort:        50051,
		HTTPPort:        8000,
		DBDriver:        "sqlite",
		DBPath:          "roster.db",
		DBPort:          5432,
		DBSSLMode:       "disable",
		DBBatchSize:     500,
		Topic:           "employees",
		MaxUploadBytes:  10 << 20,
		UploadBurst:     5,
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Path returns the config file location from PathEnv or DefaultPath.
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start the service.
func (c *Config) Validate() error {
	var errs []error
	if !validPort(c.HTTPPort) {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort))
	}
	if !validPort(c.GRPCPort) {
		errs = append(errs, fmt.Errorf("invalid GRPC_PORT %d", c.GRPCPort))
	}
	if c.HTTPPort == c.GRPCPort {
		errs = append(errs, errors.New("HTTP_PORT and GRPC_PORT must differ"))
	}

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case "postgres":
		if c.DBHost == "" || c.DBName == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required for postgres"))
		}
		if !validPort(c.DBPort) {
			errs = append(errs, fmt.Errorf("invalid DB_PORT %d", c.DBPort))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.DBBatchSize <= 0 {
		errs = append(errs, errors.New("DB_BATCH_SIZE must be positive"))
	}

	if len(c.KafkaBrokers) > 0 && c.Topic == "" {
		errs = append(errs, errors.New("TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.UploadRatePerSec < 0 {
		errs = append(errs, errors.New("UPLOAD_RATE_PER_SEC must not be negative"))
	}
	if c.UploadRatePerSec > 0 && c.UploadBurst <= 0 {
		errs = append(errs, errors.New("UPLOAD_BURST must be positive when throttling uploads"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func validPort(p int) bool {
	return p > 0 && p < 65536
}
