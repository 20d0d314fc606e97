// ABOUTME: Tests for pipeline data models
// ABOUTME: Validates stage ordering, enum validation, cloning, and spread math
package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageOrder(t *testing.T) {
	stages := Stages()
	require.Len(t, stages, 7)
	assert.Equal(t, StageLead, stages[0])
	assert.Equal(t, StageClosedLost, stages[6])

	for i, s := range stages {
		assert.Equal(t, i, s.Index())
		assert.True(t, s.IsValid())
	}

	assert.False(t, Stage("prospecting").IsValid())
	assert.Equal(t, -1, Stage("").Index())
}

func TestStagesReturnsCopy(t *testing.T) {
	stages := Stages()
	stages[0] = StageClosedWon
	assert.Equal(t, StageLead, Stages()[0])
}

func TestStageNeighbours(t *testing.T) {
	next, ok := StageLead.Next()
	assert.True(t, ok)
	assert.Equal(t, StageQualified, next)

	_, ok = StageClosedWon.Next()
	assert.False(t, ok)

	_, ok = StageClosedLost.Next()
	assert.False(t, ok)

	prev, ok := StageClosedLost.Prev()
	assert.True(t, ok)
	assert.Equal(t, StageContract, prev)

	prev, ok = StageClosedWon.Prev()
	assert.True(t, ok)
	assert.Equal(t, StageContract, prev)

	_, ok = StageLead.Prev()
	assert.False(t, ok)
}

func TestPipelineStagesTable(t *testing.T) {
	table := PipelineStages()
	require.Len(t, table, 7)
	for i, cfg := range table {
		assert.Equal(t, Stages()[i], cfg.Stage)
		assert.NotEmpty(t, cfg.Name)
		assert.NotEmpty(t, cfg.Color)
		assert.NotEmpty(t, cfg.Icon)
	}

	assert.Equal(t, "Under Contract", StageContract.Label())
	assert.Equal(t, "bogus", Stage("bogus").Label())
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, PriorityHigh.IsValid())
	assert.False(t, Priority("urgent").IsValid())

	assert.True(t, StrategySubjectTo.IsValid())
	assert.False(t, Strategy("subject_to").IsValid())
	assert.Equal(t, "BRRRR", StrategyBRRRR.Label())
}

func TestDealCloneIsIndependent(t *testing.T) {
	beds := 3
	arv := decimal.NewFromInt(300000)
	deal := Deal{
		Property:     Property{Address: "1 Main St", Bedrooms: &beds, ARV: &arv},
		StageHistory: []StageChange{{Stage: StageLead}},
		Tags:         []string{"hot"},
	}

	c := deal.Clone()
	c.Tags[0] = "cold"
	c.StageHistory[0].Stage = StageClosedWon
	*c.Property.Bedrooms = 5

	assert.Equal(t, "hot", deal.Tags[0])
	assert.Equal(t, StageLead, deal.StageHistory[0].Stage)
	assert.Equal(t, 3, *deal.Property.Bedrooms)
}

func TestDealSpread(t *testing.T) {
	deal := Deal{Property: Property{Price: decimal.NewFromInt(200000)}}
	_, ok := deal.Spread()
	assert.False(t, ok)

	arv := decimal.NewFromInt(320000)
	repairs := decimal.NewFromInt(45000)
	deal.Property.ARV = &arv
	deal.Property.RepairEstimate = &repairs

	spread, ok := deal.Spread()
	require.True(t, ok)
	assert.True(t, spread.Equal(decimal.NewFromInt(75000)), "got %s", spread)
}

func TestHasTag(t *testing.T) {
	deal := Deal{Tags: []string{"motivated", "vacant"}}
	assert.True(t, deal.HasTag("vacant"))
	assert.False(t, deal.HasTag("Vacant"))
}
