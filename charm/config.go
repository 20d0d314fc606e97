// ABOUTME: Configuration for the Charm KV backend connection
// ABOUTME: Persists server host and auto-sync preference as JSON under XDG data home

package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the charm KV database and the XDG data directory.
	AppName = "dealdesk"

	// ConfigFileName is where the local config is stored.
	ConfigFileName = "charm-config.json"
)

// Config holds charm connection settings.
type Config struct {
	Host string `json:"host,omitempty"`

	// AutoSync syncs after every write.
	AutoSync bool `json:"auto_sync"`

	// StaleThreshold is how old local data may get before a read forces a sync.
	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`

	path string
}

func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

// ConfigPath returns the config file location, creating its directory.
func ConfigPath() (string, error) {
	dir := filepath.Join(xdg.DataHome, AppName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// LoadConfig loads the config from its default location.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil //nolint:nilerr // an unwritable data dir still gets a usable default
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom reads the config at path. A missing or corrupt file yields
// defaults; other read errors are returned.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read charm config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		fresh := DefaultConfig()
		fresh.path = path
		return fresh, nil //nolint:nilerr // corrupt config falls back to defaults
	}
	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}
	if cfg.StaleThreshold == 0 {
		cfg.StaleThreshold = kv.DefaultStaleThreshold
	}
	return cfg, nil
}

// Save writes the config back to the file it was loaded from, or to the
// default location.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetHost(host string) error {
	c.Host = host
	return c.Save()
}

func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}
