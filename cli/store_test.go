// ABOUTME: Tests for opening the configured storage backend
// ABOUTME: Covers memory and sqlite backends and seed import
package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harperreed/dealdesk/config"
	"github.com/harperreed/dealdesk/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStoreMemorySeed(t *testing.T) {
	cfg := config.Default()
	cfg.Storage = config.StorageMemory
	cfg.Seed = true

	backend, err := OpenStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer backend.Close()

	assert.Positive(t, backend.Store.Len())
	assert.NoError(t, backend.Close())
}

func TestOpenStoreSQLitePersists(t *testing.T) {
	cfg := config.Default()
	cfg.Storage = config.StorageSQLite
	cfg.DBPath = filepath.Join(t.TempDir(), "deals.db")

	backend, err := OpenStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	deal := backend.Store.AddDeal(models.DealInput{
		Property: models.Property{Address: "10 Persist Pl"},
		Stage:    models.StageLead,
		Value:    decimal.NewFromInt(42000),
		Priority: models.PriorityLow,
		Strategy: models.StrategyRentals,
	})
	backend.Store.MoveDeal(deal.ID, models.StageQualified, "")
	require.NoError(t, backend.Close())

	reopened, err := OpenStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Store.GetDeal(deal.ID)
	require.True(t, ok)
	assert.Equal(t, "10 Persist Pl", got.Property.Address)
	assert.Equal(t, models.StageQualified, got.Stage)
	assert.Len(t, got.StageHistory, 2)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage = "postgres"

	_, err := OpenStore(context.Background(), cfg, nil)
	assert.EqualError(t, err, `unknown storage "postgres"`)
}
