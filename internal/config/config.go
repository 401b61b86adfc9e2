// Package config reads process configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	StoreDriver    string
	SQLitePath     string
	DatabaseURL    string
	ServerPort     string
	AllowedOrigins []string
	OpenAIKey      string
}

// Load reads the configuration. Variables already set in the environment win over
// values from the .env files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// A missing .env file is normal outside development.
		_ = godotenv.Load(f)
	}

	cfg := &Config{
		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", DriverSQLite)),
		SQLitePath:  os.Getenv("ESTIMATE_DB_PATH"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ServerPort:  getenv("SERVER_PORT", "8080"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
	}
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.SQLitePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.SQLitePath = filepath.Join(home, ".estimate-desk", "estimates.db")
	}

	switch cfg.StoreDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s, %s or %s)", cfg.StoreDriver, DriverSQLite, DriverPostgres, DriverMemory)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
