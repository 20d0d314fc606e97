package viz

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeals(now time.Time) []models.Deal {
	mk := func(address string, stage models.Stage, value int64, days int, contactID string) models.Deal {
		return models.Deal{
			ID:          uuid.New(),
			Property:    models.Property{Address: address},
			Contact:     models.Contact{ID: contactID, Name: "Seller " + contactID},
			Stage:       stage,
			Value:       decimal.NewFromInt(value),
			Strategy:    models.StrategyWholesaling,
			DaysInStage: days,
			Activities: []models.Activity{
				{Timestamp: now.AddDate(0, 0, -days), Kind: models.ActivityStageChange, Description: "Moved to " + stage.Label()},
			},
		}
	}
	return []models.Deal{
		mk("12 Oak St", models.StageLead, 100000, 2, "c-1"),
		mk("9 Elm Ave", models.StageProposal, 250000, 20, "c-1"),
		mk("3 Pine Rd", models.StageClosedWon, 400000, 30, "c-2"),
		mk("7 Ash Ct", models.StageClosedLost, 90000, 40, ""),
	}
}

func TestGenerateDashboardStats(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	stats := GenerateDashboardStats(testDeals(now), now)

	require.Len(t, stats.Pipeline, 7)
	assert.Equal(t, models.StageLead, stats.Pipeline[0].Stage)
	assert.Equal(t, 1, stats.Pipeline[0].Count)
	assert.Equal(t, 4, stats.TotalDeals)
	assert.True(t, stats.OpenValue.Equal(decimal.NewFromInt(350000)))
	assert.True(t, stats.WonValue.Equal(decimal.NewFromInt(400000)))

	require.Len(t, stats.StaleDeals, 1)
	assert.Equal(t, "9 Elm Ave", stats.StaleDeals[0].Address)

	require.Len(t, stats.RecentActivity, 1)
	assert.Equal(t, "12 Oak St", stats.RecentActivity[0].Address)
}

func TestRenderDashboard(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	out := RenderDashboard(GenerateDashboardStats(testDeals(now), now))

	assert.Contains(t, out, "PIPELINE OVERVIEW")
	assert.Contains(t, out, "Under Contract")
	assert.Contains(t, out, "$350,000 open")
	assert.Contains(t, out, "$400,000 won")
	assert.Contains(t, out, "NEEDS ATTENTION")
	assert.Contains(t, out, "9 Elm Ave (Proposal, 20 days)")
}

func TestRenderDashboardEmpty(t *testing.T) {
	out := RenderDashboard(GenerateDashboardStats(nil, time.Now()))

	assert.Contains(t, out, "0 deals")
	assert.NotContains(t, out, "NEEDS ATTENTION")
	assert.NotContains(t, out, "RECENT ACTIVITY")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1,234,568", Money(decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "$0", Money(decimal.Zero))
}
