// ABOUTME: Tests for the SQLite deal repository
// ABOUTME: Round-trips deals and drives a pipeline store through the repository
package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, InitSchema(db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testDeal(address string, stage models.Stage) models.Deal {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	arv := decimal.NewFromInt(320000)
	beds := 3
	return models.Deal{
		ID: uuid.New(),
		Property: models.Property{
			Address:  address,
			City:     "Austin",
			State:    "TX",
			Price:    decimal.RequireFromString("200000.25"),
			Bedrooms: &beds,
			ARV:      &arv,
		},
		Contact:   models.Contact{ID: "c-1", Name: "Robert Hayes", ResponseRate: 85},
		Stage:     stage,
		Value:     decimal.NewFromInt(260000),
		Priority:  models.PriorityHigh,
		Strategy:  models.StrategyFlipping,
		CreatedAt: created,
		UpdatedAt: created,
		StageHistory: []models.StageChange{
			{Stage: stage, Timestamp: created, Actor: "system"},
		},
		Messages:     []models.Message{{ID: "01HX", Timestamp: created, Direction: models.DirectionInbound, Body: "hi"}},
		Documents:    []models.Document{},
		Activities:   []models.Activity{{ID: "01HY", Timestamp: created, Kind: models.ActivityCreated, Description: "Deal created in Lead"}},
		Notes:        "Needs roof",
		Tags:         []string{"vacant"},
		LastActivity: models.LastActivityJustNow,
	}
}

func TestSaveAndGetDeal(t *testing.T) {
	repo := NewDealRepository(setupTestDB(t))
	ctx := context.Background()
	deal := testDeal("1428 Maple Street", models.StageLead)

	require.NoError(t, repo.SaveDeal(ctx, deal))

	got, err := repo.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.ID, got.ID)
	assert.Equal(t, models.StageLead, got.Stage)
	assert.True(t, got.Value.Equal(deal.Value))
	assert.True(t, got.Property.Price.Equal(deal.Property.Price))
	require.NotNil(t, got.Property.Bedrooms)
	assert.Equal(t, 3, *got.Property.Bedrooms)
	require.NotNil(t, got.Property.ARV)
	assert.True(t, got.Property.ARV.Equal(*deal.Property.ARV))
	assert.Equal(t, deal.Contact, got.Contact)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, models.StrategyFlipping, got.Strategy)
	assert.True(t, got.CreatedAt.Equal(deal.CreatedAt))
	require.Len(t, got.StageHistory, 1)
	assert.True(t, got.StageHistory[0].Timestamp.Equal(deal.CreatedAt))
	assert.Len(t, got.Messages, 1)
	assert.NotNil(t, got.Documents)
	assert.Equal(t, []string{"vacant"}, got.Tags)
	assert.Equal(t, "Needs roof", got.Notes)
}

func TestSaveDealUpserts(t *testing.T) {
	repo := NewDealRepository(setupTestDB(t))
	ctx := context.Background()
	first := testDeal("first", models.StageLead)
	second := testDeal("second", models.StageLead)

	require.NoError(t, repo.SaveDeal(ctx, first))
	require.NoError(t, repo.SaveDeal(ctx, second))

	first.Stage = models.StageQualified
	first.StageHistory = append(first.StageHistory, models.StageChange{Stage: models.StageQualified, Timestamp: first.CreatedAt.Add(time.Hour)})
	first.UpdatedAt = first.CreatedAt.Add(time.Hour)
	require.NoError(t, repo.SaveDeal(ctx, first))

	n, err := repo.CountDeals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	deals, err := repo.LoadDeals(ctx)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, first.ID, deals[0].ID)
	assert.Equal(t, models.StageQualified, deals[0].Stage)
	assert.Len(t, deals[0].StageHistory, 2)
	assert.Equal(t, second.ID, deals[1].ID)
}

func TestDeleteDeal(t *testing.T) {
	repo := NewDealRepository(setupTestDB(t))
	ctx := context.Background()
	deal := testDeal("x", models.StageLead)
	require.NoError(t, repo.SaveDeal(ctx, deal))

	require.NoError(t, repo.DeleteDeal(ctx, deal.ID))
	require.NoError(t, repo.DeleteDeal(ctx, deal.ID))

	_, err := repo.GetDeal(ctx, deal.ID)
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestLoadDealsEmpty(t *testing.T) {
	repo := NewDealRepository(setupTestDB(t))

	deals, err := repo.LoadDeals(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, deals)
	assert.Empty(t, deals)
}

func TestLoadDealsCancelledContext(t *testing.T) {
	repo := NewDealRepository(setupTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.LoadDeals(ctx)
	assert.Error(t, err)
}

func TestRepositoryBacksPipelineStore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDealRepository(db)

	store := pipeline.New(pipeline.WithRepository(repo))
	deal := store.AddDeal(models.DealInput{
		Property: models.Property{Address: "1428 Maple Street", Price: decimal.NewFromInt(275000)},
		Contact:  models.Contact{ID: "c-1", Name: "Robert Hayes"},
		Stage:    models.StageLead,
		Value:    decimal.NewFromInt(260000),
		Priority: models.PriorityMedium,
		Strategy: models.StrategyFlipping,
	})
	_, ok := store.MoveDeal(deal.ID, models.StageQualified, "Seller confirmed")
	require.True(t, ok)
	doomed := store.AddDeal(models.DealInput{Stage: models.StageLead})
	require.True(t, store.DeleteDeal(doomed.ID))

	reopened := pipeline.New(pipeline.WithRepository(repo))
	require.NoError(t, reopened.Load(context.Background()))

	got, ok := reopened.GetDeal(deal.ID)
	require.True(t, ok)
	assert.Equal(t, models.StageQualified, got.Stage)
	require.Len(t, got.StageHistory, 2)
	assert.Equal(t, "Seller confirmed", got.StageHistory[1].Notes)
	assert.Len(t, got.Activities, 2)
	assert.Equal(t, 1, reopened.Len())

	stats := reopened.GetStageStats(models.StageQualified)
	assert.Equal(t, 1, stats.Count)
	assert.True(t, stats.TotalValue.Equal(decimal.NewFromInt(260000)))
}
