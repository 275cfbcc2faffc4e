package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"gounc/internal/errors"
	"gounc/internal/logging"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Run      RunConfig
	Logging  logging.Config
}

// DatabaseConfig holds database connection settings. An empty URL selects
// the in-memory run store.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RunConfig holds the defaults of an uncertainty run
type RunConfig struct {
	Workers     int
	NSamples    int
	SecondOrder bool
	Seed        uint64
	Resamples   int
	ConfLevel   float64
	OutputDir   string
}

// Load reads configuration from the environment, after loading envFiles
// (default ".env") when they exist, and validates it
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", f)
		}
	}

	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Run:      loadRunConfig(),
		Logging:  loadLoggingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:          getEnvOrDefault("GOUNC_DATABASE_URL", ""),
		MaxOpenConns: getEnvIntOrDefault("GOUNC_DB_MAX_OPEN_CONNS", 10),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:         getEnvOrDefault("GOUNC_PORT", "8080"),
		ReadTimeout:  getEnvDurationOrDefault("GOUNC_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDurationOrDefault("GOUNC_WRITE_TIMEOUT", 30*time.Second),
	}
}

func loadRunConfig() RunConfig {
	return RunConfig{
		Workers:     getEnvIntOrDefault("GOUNC_WORKERS", runtime.NumCPU()),
		NSamples:    getEnvIntOrDefault("GOUNC_SAMPLES", 512),
		SecondOrder: getEnvBoolOrDefault("GOUNC_SECOND_ORDER", false),
		Seed:        uint64(getEnvIntOrDefault("GOUNC_SEED", 0)),
		Resamples:   getEnvIntOrDefault("GOUNC_RESAMPLES", 100),
		ConfLevel:   getEnvFloatOrDefault("GOUNC_CONF_LEVEL", 0.95),
		OutputDir:   getEnvOrDefault("GOUNC_OUTPUT_DIR", "./output"),
	}
}

func loadLoggingConfig() logging.Config {
	def := logging.DefaultConfig()
	return logging.Config{
		Level:       getEnvOrDefault("GOUNC_LOG_LEVEL", def.Level),
		Format:      getEnvOrDefault("GOUNC_LOG_FORMAT", def.Format),
		Output:      getEnvOrDefault("GOUNC_LOG_OUTPUT", def.Output),
		Development: getEnvBoolOrDefault("GOUNC_LOG_DEVELOPMENT", def.Development),
	}
}

func validateConfig(config *Config) error {
	if config.Run.Workers < 0 {
		return errors.ConfigInvalid("GOUNC_WORKERS must not be negative")
	}
	if config.Run.NSamples <= 0 {
		return errors.ConfigInvalid("GOUNC_SAMPLES must be positive")
	}
	if config.Run.ConfLevel <= 0 || config.Run.ConfLevel >= 1 {
		return errors.ConfigInvalid("GOUNC_CONF_LEVEL must be in (0, 1)")
	}
	if config.Run.Resamples < 0 {
		return errors.ConfigInvalid("GOUNC_RESAMPLES must not be negative")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("GOUNC_PORT is required")
	}
	if config.Logging.Format != "console" && config.Logging.Format != "json" {
		return errors.ConfigInvalid("GOUNC_LOG_FORMAT must be console or json")
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

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
