// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Simulation defaults. Seed is optional; nil means every unseeded
	// request is nondeterministic.
	DefaultSimulations int
	DefaultSeed        *int64

	// Result cache tuning.
	CacheTTLMinutes int
	CleanupSchedule string // cron expression for the cache cleanup job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FAIRSIM_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path and make sure it exists
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8000),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		DefaultSimulations: getEnvAsInt("SIM_DEFAULT_N", 100000),
		DefaultSeed:        getEnvAsOptionalInt64("SIM_SEED"),
		CacheTTLMinutes:    getEnvAsInt("CACHE_TTL_MINUTES", 60),
		CleanupSchedule:    getEnv("CACHE_CLEANUP_SCHEDULE", "*/15 * * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DefaultSimulations <= 0 {
		return fmt.Errorf("default simulation count must be positive, got %d", c.DefaultSimulations)
	}
	if c.CacheTTLMinutes <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %d minutes", c.CacheTTLMinutes)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsOptionalInt64(key string) *int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return &intVal
		}
	}
	return nil
}
