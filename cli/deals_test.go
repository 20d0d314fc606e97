// ABOUTME: Tests for the deal CLI commands
// ABOUTME: Runs commands against an in-memory store and checks their output
package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *pipeline.Store {
	t.Helper()
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	return pipeline.New(
		pipeline.WithActor("tester"),
		pipeline.WithClock(func() time.Time {
			tick++
			return start.Add(time.Duration(tick) * time.Minute)
		}),
	)
}

func TestAddDealCommand(t *testing.T) {
	store := setupTestStore(t)
	var out bytes.Buffer

	err := AddDealCommand(&out, store, []string{
		"--address", "123 Main St", "--city", "Austin", "--state", "TX",
		"--price", "$210,000", "--value", "185000", "--stage", "qualified",
		"--contact", "John Smith", "--phone", "555-0100",
		"--strategy", "flipping", "--tags", "motivated, vacant,",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Deal created: 123 Main St")
	assert.Contains(t, out.String(), "Value: $185,000")
	assert.Contains(t, out.String(), "Stage: Qualified")
	assert.Contains(t, out.String(), "Contact: John Smith")

	deals := store.Deals()
	require.Len(t, deals, 1)
	d := deals[0]
	assert.True(t, d.Property.Price.Equal(decimal.NewFromInt(210000)))
	assert.Equal(t, models.StrategyFlipping, d.Strategy)
	assert.Equal(t, models.PriorityMedium, d.Priority)
	assert.Equal(t, []string{"motivated", "vacant"}, d.Tags)
	assert.NotEmpty(t, d.Contact.ID, "a named contact gets a generated id")
}

func TestAddDealCommandValidation(t *testing.T) {
	store := setupTestStore(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing address", []string{"--value", "10"}, "--address is required"},
		{"bad stage", []string{"--address", "a", "--stage", "won"}, "invalid stage: won"},
		{"bad priority", []string{"--address", "a", "--priority", "urgent"}, "invalid priority: urgent"},
		{"bad strategy", []string{"--address", "a", "--strategy", "flip"}, "invalid strategy: flip"},
		{"negative value", []string{"--address", "a", "--value", "-5"}, "value must not be negative"},
		{"garbage price", []string{"--address", "a", "--price", "lots"}, "invalid price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := AddDealCommand(&out, store, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Zero(t, store.Len())
}

func addDeal(t *testing.T, store *pipeline.Store, address string, stage models.Stage, value int64, contactID string) models.Deal {
	t.Helper()
	return store.AddDeal(models.DealInput{
		Property: models.Property{Address: address},
		Contact:  models.Contact{ID: contactID, Name: "Contact " + contactID},
		Stage:    stage,
		Value:    decimal.NewFromInt(value),
		Priority: models.PriorityMedium,
		Strategy: models.StrategyWholesaling,
	})
}

func TestListDealsCommand(t *testing.T) {
	store := setupTestStore(t)
	addDeal(t, store, "1 Low Rd", models.StageLead, 50000, "c-1")
	addDeal(t, store, "2 Mid Rd", models.StageProposal, 150000, "c-2")
	addDeal(t, store, "3 High Rd", models.StageProposal, 900000, "c-1")

	var out bytes.Buffer
	require.NoError(t, ListDealsCommand(&out, store, nil))
	assert.Contains(t, out.String(), "Total: 3 deal(s) - $1,100,000")

	out.Reset()
	require.NoError(t, ListDealsCommand(&out, store, []string{"--stage", "proposal", "--max", "200000"}))
	assert.Contains(t, out.String(), "2 Mid Rd")
	assert.NotContains(t, out.String(), "3 High Rd")
	assert.NotContains(t, out.String(), "1 Low Rd")

	out.Reset()
	require.NoError(t, ListDealsCommand(&out, store, []string{"--min", "100000"}))
	assert.Contains(t, out.String(), "Total: 2 deal(s)")

	out.Reset()
	require.NoError(t, ListDealsCommand(&out, store, []string{"--contact", "c-1"}))
	assert.Contains(t, out.String(), "1 Low Rd")
	assert.Contains(t, out.String(), "3 High Rd")
	assert.NotContains(t, out.String(), "2 Mid Rd")

	out.Reset()
	require.NoError(t, ListDealsCommand(&out, store, []string{"--stage", "contract"}))
	assert.Equal(t, "No deals found\n", out.String())

	err := ListDealsCommand(&out, store, []string{"--stage", "nope"})
	assert.EqualError(t, err, "invalid stage: nope")
}

func TestShowDealCommand(t *testing.T) {
	store := setupTestStore(t)
	deal := addDeal(t, store, "77 Lake Dr", models.StageLead, 120000, "c-9")
	store.MoveDeal(deal.ID, models.StageQualified, "seller called back")

	var out bytes.Buffer
	require.NoError(t, ShowDealCommand(&out, store, []string{deal.ID.String()[:8]}))
	s := out.String()
	assert.Contains(t, s, "77 Lake Dr")
	assert.Contains(t, s, "Stage:      Qualified")
	assert.Contains(t, s, "Strategy:   Wholesaling")
	assert.Contains(t, s, "by tester - seller called back")
	assert.Contains(t, s, "Activity:")

	err := ShowDealCommand(&out, store, []string{"ffffffff"})
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestUpdateDealCommand(t *testing.T) {
	store := setupTestStore(t)
	deal := addDeal(t, store, "5 Birch Ct", models.StageLead, 100000, "c-1")

	var out bytes.Buffer
	err := UpdateDealCommand(&out, store, []string{deal.ID.String(), "--value", "95000", "--priority", "high", "--tags", "hot"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Deal updated")

	got, _ := store.GetDeal(deal.ID)
	assert.True(t, got.Value.Equal(decimal.NewFromInt(95000)))
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, []string{"hot"}, got.Tags)
	assert.Equal(t, "5 Birch Ct", got.Property.Address, "unset flags leave fields alone")
	assert.Equal(t, models.StageLead, got.Stage)

	err = UpdateDealCommand(&out, store, []string{deal.ID.String()})
	assert.EqualError(t, err, "nothing to update")

	err = UpdateDealCommand(&out, store, []string{deal.ID.String(), "--strategy", "bogus"})
	assert.EqualError(t, err, "invalid strategy: bogus")
}

func TestMoveDealCommand(t *testing.T) {
	store := setupTestStore(t)
	deal := addDeal(t, store, "8 Cedar Ln", models.StageNegotiating, 300000, "c-1")

	var out bytes.Buffer
	err := MoveDealCommand(&out, store, []string{deal.ID.String()[:6], "contract", "--notes", "PSA signed", "--actor", "dana"})
	require.NoError(t, err)
	assert.Equal(t, "✓ 8 Cedar Ln moved to Under Contract\n", out.String())

	got, _ := store.GetDeal(deal.ID)
	last := got.StageHistory[len(got.StageHistory)-1]
	assert.Equal(t, models.StageContract, last.Stage)
	assert.Equal(t, "dana", last.Actor)
	assert.Equal(t, "PSA signed", last.Notes)

	err = MoveDealCommand(&out, store, []string{deal.ID.String(), "sold"})
	assert.EqualError(t, err, "invalid stage: sold")

	err = MoveDealCommand(&out, store, []string{deal.ID.String()})
	assert.Error(t, err)
}

func TestDeleteDealCommand(t *testing.T) {
	store := setupTestStore(t)
	deal := addDeal(t, store, "1 Gone Way", models.StageLead, 1000, "c-1")

	var out bytes.Buffer
	require.NoError(t, DeleteDealCommand(&out, store, []string{deal.ID.String()}))
	assert.Contains(t, out.String(), "✓ Deleted deal")
	assert.Zero(t, store.Len())

	err := DeleteDealCommand(&out, store, []string{deal.ID.String()})
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestResolveDealAmbiguousPrefix(t *testing.T) {
	store := setupTestStore(t)
	addDeal(t, store, "a", models.StageLead, 1, "c-1")
	addDeal(t, store, "b", models.StageLead, 1, "c-1")

	_, err := resolveDeal(store, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous deal id")
}

func TestSearchNoteTagCommands(t *testing.T) {
	store := setupTestStore(t)
	deal := addDeal(t, store, "42 Harbor View", models.StageLead, 1000, "c-1")
	addDeal(t, store, "9 Elm Ave", models.StageLead, 1000, "c-2")

	var out bytes.Buffer
	require.NoError(t, SearchDealsCommand(&out, store, []string{"harbor"}))
	assert.Contains(t, out.String(), "42 Harbor View")
	assert.NotContains(t, out.String(), "9 Elm Ave")

	out.Reset()
	require.NoError(t, NoteDealCommand(&out, store, []string{deal.ID.String(), "left", "voicemail"}))
	assert.Equal(t, "✓ Note added to 42 Harbor View\n", out.String())
	got, _ := store.GetDeal(deal.ID)
	last := got.Activities[len(got.Activities)-1]
	assert.Equal(t, models.ActivityNote, last.Kind)
	assert.Contains(t, last.Description, "left voicemail")

	out.Reset()
	require.NoError(t, TagDealCommand(&out, store, []string{deal.ID.String(), "probate", "probate", "cash"}))
	assert.Equal(t, "✓ Tags: probate, cash\n", out.String())

	assert.Error(t, NoteDealCommand(&out, store, []string{deal.ID.String()}))
}

func TestStatsCommand(t *testing.T) {
	store := setupTestStore(t)
	addDeal(t, store, "a", models.StageLead, 100000, "c-1")
	addDeal(t, store, "b", models.StageLead, 50000, "c-1")
	addDeal(t, store, "c", models.StageClosedWon, 250000, "c-2")

	var out bytes.Buffer
	require.NoError(t, StatsCommand(&out, store, nil))
	s := out.String()
	assert.Regexp(t, `Lead\s+2\s+\$150,000`, s)
	assert.Regexp(t, `Closed Won\s+1\s+\$250,000`, s)
	assert.Regexp(t, `Under Contract\s+0\s+\$0`, s)
	assert.Contains(t, s, "Total: 3 deal(s) - $400,000")
}
