package config

import (
	"os"
	"strconv"

	"goeva/domain/core"
	"goeva/domain/eva"
)

// Config represents the complete runtime configuration. Every field has a
// working default so an empty environment yields a usable setup; values are
// overridden per project through the environment or a .env file.
type Config struct {
	Ingest     IngestConfig
	Extraction ExtractionConfig
	Bootstrap  BootstrapConfig
}

// IngestConfig holds data file parsing settings.
type IngestConfig struct {
	Sheet      string
	Delimiter  string
	DateColumn string
	TimeColumn string
	VoidRows   int
}

// ExtractionConfig holds default windows for event extraction.
type ExtractionConfig struct {
	RunHours  float64
	BlockDays float64
}

// BootstrapConfig holds default resampling settings.
type BootstrapConfig struct {
	Simulations int
	Confidence  float64
	Workers     int
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	config := &Config{
		Ingest:     loadIngestConfig(),
		Extraction: loadExtractionConfig(),
		Bootstrap:  loadBootstrapConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func loadIngestConfig() IngestConfig {
	return IngestConfig{
		Sheet:      getEnvOrDefault("DATA_SHEET", ""),
		Delimiter:  getEnvOrDefault("DATA_DELIMITER", ","),
		DateColumn: getEnvOrDefault("DATE_COLUMN", "Date"),
		TimeColumn: getEnvOrDefault("TIME_COLUMN", "HrMn"),
		VoidRows:   getEnvIntOrDefault("VOID_ROWS", 0),
	}
}

func loadExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		RunHours:  getEnvFloatOrDefault("DECLUSTER_RUN_HOURS", eva.DefaultDeclusterRun.Hours()),
		BlockDays: getEnvFloatOrDefault("BLOCK_DAYS", eva.DefaultBlockSizeDays),
	}
}

func loadBootstrapConfig() BootstrapConfig {
	defaults := eva.DefaultBootstrapConfig()
	return BootstrapConfig{
		Simulations: getEnvIntOrDefault("BOOTSTRAP_SIMULATIONS", defaults.Simulations),
		Confidence:  getEnvFloatOrDefault("CONFIDENCE_LEVEL", defaults.Confidence),
		Workers:     getEnvIntOrDefault("BOOTSTRAP_WORKERS", defaults.Workers),
	}
}

func validateConfig(config *Config) error {
	if config.Ingest.VoidRows < 0 {
		return core.NewInvalidInputError("VOID_ROWS", "must not be negative")
	}
	if config.Extraction.RunHours <= 0 {
		return core.NewInvalidInputError("DECLUSTER_RUN_HOURS", "must be positive")
	}
	if config.Extraction.BlockDays <= 0 {
		return core.NewInvalidInputError("BLOCK_DAYS", "must be positive")
	}
	if config.Bootstrap.Simulations < 1 {
		return core.NewInvalidInputError("BOOTSTRAP_SIMULATIONS", "must be at least 1")
	}
	if config.Bootstrap.Confidence <= 0 || config.Bootstrap.Confidence >= 1 {
		return core.NewInvalidInputError("CONFIDENCE_LEVEL", "must be strictly between 0 and 1")
	}
	if config.Bootstrap.Workers < 0 {
		return core.NewInvalidInputError("BOOTSTRAP_WORKERS", "must not be negative")
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
