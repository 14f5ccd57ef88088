package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gostatlab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Estimation EstimationConfig
	Weather    WeatherConfig
	Data       DataConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds report storage settings. An empty URL disables
// persistence.
type DatabaseConfig struct {
	URL    string
	Driver string
}

// Enabled reports whether a report store is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// EstimationConfig holds interval estimation defaults
type EstimationConfig struct {
	Z                   float64
	ProportionPrecision int
	BatchLimit          int
	BatchWorkers        int
}

// WeatherConfig holds Infoclimat open-data settings
type WeatherConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// DataConfig holds data file settings
type DataConfig struct {
	Dir string
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DefaultInfoclimatURL is the open-data endpoint used when none is configured.
const DefaultInfoclimatURL = "https://www.infoclimat.fr/opendata/"

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Database: *loadDatabaseConfig(),
		Weather:  *loadWeatherConfig(),
		Data:     DataConfig{Dir: getEnvOrDefault("DATA_DIR", "./data")},
	}

	estimation, err := loadEstimationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load estimation configuration")
	}
	config.Estimation = *estimation

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	url := os.Getenv("DATABASE_URL")
	driver := getEnvOrDefault("DB_DRIVER", "")
	if driver == "" {
		driver = DriverFor(url)
	}
	return &DatabaseConfig{URL: url, Driver: driver}
}

// DriverFor infers the sql driver from a database URL: postgres URLs use
// lib/pq, anything else is treated as a SQLite path.
func DriverFor(url string) string {
	if url != "" && !strings.HasPrefix(url, "postgres") {
		return DriverSQLite
	}
	return DriverPostgres
}

func loadEstimationConfig() (*EstimationConfig, error) {
	z, err := getEnvFloat("Z_SCORE", 1.96)
	if err != nil {
		return nil, err
	}
	precision, err := getEnvInt("PROPORTION_PRECISION", 2)
	if err != nil {
		return nil, err
	}
	limit, err := getEnvInt("BATCH_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("BATCH_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	return &EstimationConfig{
		Z:                   z,
		ProportionPrecision: precision,
		BatchLimit:          limit,
		BatchWorkers:        workers,
	}, nil
}

func loadWeatherConfig() *WeatherConfig {
	return &WeatherConfig{
		Token:   os.Getenv("INFOCLIMAT_TOKEN"),
		BaseURL: getEnvOrDefault("INFOCLIMAT_BASE_URL", DefaultInfoclimatURL),
		Timeout: getEnvDurationOrDefault("INFOCLIMAT_TIMEOUT", 30*time.Second),
	}
}

func validateConfig(config *Config) error {
	if config.Estimation.Z <= 0 {
		return errors.ConfigInvalid("Z_SCORE must be positive")
	}
	if config.Estimation.ProportionPrecision < 0 {
		return errors.ConfigInvalid("PROPORTION_PRECISION must not be negative")
	}
	if config.Estimation.BatchLimit < 0 {
		return errors.ConfigInvalid("BATCH_LIMIT must not be negative")
	}
	if config.Estimation.BatchWorkers < 1 {
		return errors.ConfigInvalid("BATCH_WORKERS must be at least 1")
	}
	switch config.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unsupported DB_DRIVER %q", config.Database.Driver))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return intValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	return floatValue, nil
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
