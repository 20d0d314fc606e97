// ABOUTME: Charm KV client wrapper with automatic sync support
// ABOUTME: Wraps any byte-keyed store so tests can swap in a local BadgerDB

package charm

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"go.uber.org/zap"
)

// store is the subset of charm/kv.KV the client relies on.
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
}

// Client wraps charm KV with config and sync helpers.
type Client struct {
	kv     store
	config *Config
	logger *zap.Logger
	remote bool
	mu     sync.RWMutex
}

// Open opens the charm KV database for this app against cfg.Host. A nil cfg
// loads the saved config.
func Open(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		loaded, err := LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// charm reads the server from the environment when opening the database.
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, fmt.Errorf("failed to set charm host: %w", err)
	}

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{kv: db, config: cfg, logger: logger, remote: true}

	// Pull remote changes before the first read.
	if cfg.AutoSync {
		if err := db.Sync(); err != nil {
			logger.Warn("initial charm sync failed", zap.String("host", cfg.Host), zap.Error(err))
		}
	}
	return c, nil
}

// Close is a no-op; charm/kv does not expose Close and BadgerDB is released on
// process exit.
func (c *Client) Close() error {
	return nil
}

// Config returns the client's config.
func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// IsConnected reports whether the charm server knows this device. Local
// clients are always connected.
func (c *Client) IsConnected() bool {
	if !c.remote {
		return true
	}
	_, err := c.ID()
	return err == nil
}

// Sync performs a manual sync with the charm server.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Get retrieves a value by key.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Get(key)
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}
	c.autoSync()
	return nil
}

// Delete removes a key and syncs if enabled.
func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(key); err != nil {
		return err
	}
	c.autoSync()
	return nil
}

// autoSync must be called with mu held so a concurrent write cannot slip in
// between the write and the sync.
func (c *Client) autoSync() {
	if !c.config.AutoSync {
		return
	}
	if err := c.kv.Sync(); err != nil {
		c.logger.Warn("charm sync after write failed", zap.Error(err))
	}
}

// Keys returns all keys.
func (c *Client) Keys() ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Keys()
}

// KeysWithPrefix returns all keys starting with prefix.
func (c *Client) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	all, err := c.Keys()
	if err != nil {
		return nil, err
	}

	var matched [][]byte
	for _, k := range all {
		if bytes.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

// Reset wipes all data from the KV store.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}
