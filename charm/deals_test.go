package charm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealRepositoryRoundTrip(t *testing.T) {
	repo := NewDealRepository(NewTestClient(t))
	ctx := context.Background()

	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	deal := models.Deal{
		ID:           uuid.New(),
		Property:     models.Property{Address: "77 Birch Court", Price: decimal.NewFromInt(189000)},
		Contact:      models.Contact{ID: "c-angela", Name: "Angela Torres"},
		Stage:        models.StageNegotiating,
		Value:        decimal.NewFromInt(182500),
		Priority:     models.PriorityMedium,
		Strategy:     models.StrategySubjectTo,
		CreatedAt:    created,
		UpdatedAt:    created,
		StageHistory: []models.StageChange{{Stage: models.StageNegotiating, Timestamp: created, Actor: "system"}},
		Tags:         []string{"assumable-loan"},
	}

	require.NoError(t, repo.SaveDeal(ctx, deal))

	got, err := repo.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.ID, got.ID)
	assert.Equal(t, models.StrategySubjectTo, got.Strategy)
	assert.True(t, got.Value.Equal(deal.Value))
	assert.Equal(t, []string{"assumable-loan"}, got.Tags)

	n, err := repo.CountDeals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.DeleteDeal(ctx, deal.ID))
	require.NoError(t, repo.DeleteDeal(ctx, deal.ID))
	_, err = repo.GetDeal(ctx, deal.ID)
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestDealRepositoryIgnoresOtherKeys(t *testing.T) {
	client := NewTestClient(t)
	require.NoError(t, client.Set([]byte("settings:theme"), []byte(`"dark"`)))

	deals, err := NewDealRepository(client).LoadDeals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deals)
}

func TestDealRepositoryBacksPipelineStore(t *testing.T) {
	client := NewTestClient(t)
	repo := NewDealRepository(client)

	deals, err := pipeline.SeedDeals(time.Now())
	require.NoError(t, err)

	store := pipeline.New(pipeline.WithRepository(repo))
	assert.Equal(t, len(deals), store.Import(deals...))

	target := deals[0]
	_, ok := store.MoveDeal(target.ID, models.StageProposal, "")
	require.True(t, ok)

	reopened := pipeline.New(pipeline.WithRepository(repo))
	require.NoError(t, reopened.Load(context.Background()))
	assert.Equal(t, len(deals), reopened.Len())

	got, ok := reopened.GetDeal(target.ID)
	require.True(t, ok)
	assert.Equal(t, models.StageProposal, got.Stage)
	assert.Equal(t, len(target.StageHistory)+1, len(got.StageHistory))
}

func TestLoadDealsOrdersByCreation(t *testing.T) {
	repo := NewDealRepository(NewTestClient(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]uuid.UUID, 5)
	for i := 4; i >= 0; i-- {
		ids[i] = uuid.New()
		require.NoError(t, repo.SaveDeal(ctx, models.Deal{
			ID:        ids[i],
			Stage:     models.StageLead,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	deals, err := repo.LoadDeals(ctx)
	require.NoError(t, err)
	require.Len(t, deals, 5)
	for i, d := range deals {
		assert.Equal(t, ids[i], d.ID)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)

	require.NoError(t, cfg.SetHost("charm.example.com"))
	require.NoError(t, cfg.SetAutoSync(false))

	reloaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "charm.example.com", reloaded.Host)
	assert.False(t, reloaded.AutoSync)
	assert.NotZero(t, reloaded.StaleThreshold)
}

func TestClientKeysWithPrefix(t *testing.T) {
	client := NewTestClient(t)
	require.NoError(t, client.Set([]byte("deal:a"), []byte("1")))
	require.NoError(t, client.Set([]byte("deal:b"), []byte("2")))
	require.NoError(t, client.Set([]byte("other"), []byte("3")))

	keys, err := client.KeysWithPrefix([]byte(DealKeyPrefix))
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.True(t, client.IsConnected())

	require.NoError(t, client.Reset())
	keys, err = client.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
