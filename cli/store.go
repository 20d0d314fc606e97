// ABOUTME: Builds the pipeline store for a command from runtime config
// ABOUTME: Wires the sqlite, charm, or in-memory backend and optional seed data
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/dealdesk/charm"
	"github.com/harperreed/dealdesk/config"
	"github.com/harperreed/dealdesk/db"
	"github.com/harperreed/dealdesk/pipeline"
	"go.uber.org/zap"
)

// Backend is an open store plus whatever it holds open underneath.
type Backend struct {
	Store *pipeline.Store
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore opens the configured backend, loads its deals, and imports the
// sample dataset when cfg.Seed is set.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []pipeline.Option{
		pipeline.WithActor(cfg.Actor),
		pipeline.WithLogger(logger.Named("pipeline")),
	}

	backend := &Backend{}
	switch cfg.Storage {
	case config.StorageMemory:
	case config.StorageSQLite:
		database, err := db.OpenDatabase(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		backend.close = database.Close
		opts = append(opts, pipeline.WithRepository(db.NewDealRepository(database)))
		logger.Debug("using sqlite storage", zap.String("path", cfg.DBPath))
	case config.StorageCharm:
		client, err := charm.Open(nil, logger.Named("charm"))
		if err != nil {
			return nil, fmt.Errorf("failed to open charm: %w", err)
		}
		backend.close = client.Close
		opts = append(opts, pipeline.WithRepository(charm.NewDealRepository(client)))
		logger.Debug("using charm storage", zap.String("host", client.Config().Host))
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	backend.Store = pipeline.New(opts...)
	if err := backend.Store.Load(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}

	if cfg.Seed {
		deals, err := pipeline.SeedDeals(time.Now())
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("failed to build seed data: %w", err)
		}
		n := backend.Store.Import(deals...)
		logger.Info("seed data imported", zap.Int("deals", n))
	}
	return backend, nil
}
