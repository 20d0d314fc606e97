// ABOUTME: Runtime configuration assembled from .env, environment and XDG defaults
// ABOUTME: Command-line flags override the loaded values in main
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageCharm  = "charm"
	StorageMemory = "memory"
)

const appDir = "dealdesk"

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string
	Development bool
	Encoding    string
}

type Config struct {
	Storage string
	DBPath  string
	Seed    bool
	Actor   string

	WebAddr     string
	AgingCron   string
	APIBaseURL  string
	APIToken    string
	ActivityMax int

	Log LogConfig
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Storage:     StorageSQLite,
		DBPath:      filepath.Join(xdg.DataHome, appDir, "dealdesk.db"),
		Actor:       "system",
		WebAddr:     ":10666",
		AgingCron:   "0 5 * * *",
		APIBaseURL:  "http://localhost:8080",
		ActivityMax: 10,
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load reads .env files (if present, without overriding variables already
// set) and then DEALDESK_* variables on top of the defaults.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", filepath.Join(xdg.ConfigHome, appDir, "env")}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := Default()
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("DEALDESK_STORAGE", &cfg.Storage)
	str("DEALDESK_DB_PATH", &cfg.DBPath)
	str("DEALDESK_ACTOR", &cfg.Actor)
	str("DEALDESK_WEB_ADDR", &cfg.WebAddr)
	str("DEALDESK_AGING_CRON", &cfg.AgingCron)
	str("DEALDESK_API_BASE", &cfg.APIBaseURL)
	str("DEALDESK_API_TOKEN", &cfg.APIToken)
	str("DEALDESK_LOG_LEVEL", &cfg.Log.Level)
	str("DEALDESK_LOG_ENCODING", &cfg.Log.Encoding)

	if v := os.Getenv("DEALDESK_SEED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEALDESK_SEED %q: %w", v, err)
		}
		cfg.Seed = b
	}
	if v := os.Getenv("DEALDESK_LOG_DEV"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEALDESK_LOG_DEV %q: %w", v, err)
		}
		cfg.Log.Development = b
	}
	if v := os.Getenv("DEALDESK_ACTIVITY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEALDESK_ACTIVITY_LIMIT %q: %w", v, err)
		}
		cfg.ActivityMax = n
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail far from their source.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageSQLite, StorageCharm, StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q (want sqlite, charm or memory)", c.Storage)
	}
	if c.Storage == StorageSQLite && c.DBPath == "" {
		return fmt.Errorf("sqlite storage needs a database path")
	}
	if c.ActivityMax <= 0 {
		return fmt.Errorf("activity limit must be positive, got %d", c.ActivityMax)
	}
	return nil
}
