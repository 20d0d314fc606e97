// ABOUTME: Tests for the deal board TUI
// ABOUTME: Drives the model with key messages against an in-memory store
package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/harperreed/dealdesk/viz"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func setupTestModel(t *testing.T) (Model, *pipeline.Store) {
	t.Helper()
	tick := 0
	store := pipeline.New(pipeline.WithClock(func() time.Time {
		tick++
		return testStart.Add(time.Duration(tick) * time.Minute)
	}))

	store.AddDeal(models.DealInput{
		Property: models.Property{Address: "12 Oak St", City: "Austin", State: "TX"},
		Contact:  models.Contact{ID: "c-1", Name: "Dana Seller"},
		Stage:    models.StageLead,
		Value:    decimal.NewFromInt(185000),
		Priority: models.PriorityHigh,
		Strategy: models.StrategyFlipping,
	})
	store.AddDeal(models.DealInput{
		Property: models.Property{Address: "9 Elm Ave"},
		Contact:  models.Contact{ID: "c-2", Name: "Sam Owner"},
		Stage:    models.StageProposal,
		Value:    decimal.NewFromInt(90000),
		Priority: models.PriorityMedium,
		Strategy: models.StrategyRentals,
	})
	store.AddDeal(models.DealInput{
		Property: models.Property{Address: "300 Pine Rd"},
		Stage:    models.StageClosedWon,
		Value:    decimal.NewFromInt(410000),
		Priority: models.PriorityLow,
		Strategy: models.StrategyCommercial,
	})

	m := NewModel(store, viz.NewGraphGenerator(nil))
	m.now = func() time.Time { return testStart.Add(time.Hour) }
	return m, store
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestListViewRendering(t *testing.T) {
	m, _ := setupTestModel(t)

	out := m.View()
	assert.Contains(t, out, "DEALDESK PIPELINE")
	assert.Contains(t, out, "All (3)")
	assert.Contains(t, out, "Under Contract (0)")
	assert.Contains(t, out, "12 Oak St")
	assert.Contains(t, out, "$185,000")
}

func TestTabFiltersByStage(t *testing.T) {
	m, _ := setupTestModel(t)

	m = press(t, m, "tab")
	deals := m.visibleDeals()
	require.Len(t, deals, 1)
	assert.Equal(t, "12 Oak St", deals[0].Property.Address)

	// Wraps around backwards onto the stale tab.
	m.tab = tabAll
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = next.(Model)
	assert.Equal(t, tabStale, m.tab)
}

func TestMoveForwardAndBackFromList(t *testing.T) {
	m, store := setupTestModel(t)

	m = press(t, m, ">")
	deal := store.Deals()[0]
	assert.Equal(t, models.StageQualified, deal.Stage)
	assert.Contains(t, m.status, "Qualified")

	m = press(t, m, "<", "<")
	deal = store.Deals()[0]
	assert.Equal(t, models.StageLead, deal.Stage)
	assert.Contains(t, m.status, "no previous stage")
}

func TestClosedDealCannotAdvance(t *testing.T) {
	m, store := setupTestModel(t)

	m = press(t, m, "down", "down", ">")
	assert.Equal(t, models.StageClosedWon, store.Deals()[2].Stage)
	assert.Contains(t, m.status, "no next stage")
}

func TestDetailViewShowsHistory(t *testing.T) {
	m, _ := setupTestModel(t)

	m = press(t, m, ">", "enter")
	require.Equal(t, ViewDetail, m.viewMode)

	out := m.View()
	assert.Contains(t, out, "12 OAK ST")
	assert.Contains(t, out, "Stage history")
	assert.Contains(t, out, "Qualified")
	assert.Contains(t, out, "Fix & Flip")
	assert.Contains(t, out, "Dana Seller")

	m = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
}

func TestDeleteConfirmation(t *testing.T) {
	m, store := setupTestModel(t)

	m = press(t, m, "d")
	require.Equal(t, ViewConfirmDelete, m.viewMode)
	assert.Contains(t, m.View(), "12 Oak St")

	m = press(t, m, "n")
	assert.Equal(t, ViewDetail, m.viewMode)
	assert.Equal(t, 3, store.Len())

	m = press(t, m, "d", "y")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Equal(t, 2, store.Len())
	assert.Contains(t, m.status, "Deleted deal: 12 Oak St")
}

func TestSearch(t *testing.T) {
	m, _ := setupTestModel(t)

	m = press(t, m, "/", "sam", "enter")
	assert.False(t, m.searching)
	deals := m.visibleDeals()
	require.Len(t, deals, 1)
	assert.Equal(t, "9 Elm Ave", deals[0].Property.Address)

	// q typed into the search box does not quit.
	m = press(t, m, "/", "q")
	assert.Equal(t, "samq", m.searchInput.Value())

	m = press(t, m, "esc")
	assert.Len(t, m.visibleDeals(), 3)
}

func TestNewDealForm(t *testing.T) {
	m, store := setupTestModel(t)

	m = press(t, m, "tab", "tab", "n")
	require.Equal(t, ViewEdit, m.viewMode)
	assert.Contains(t, m.View(), "NEW DEAL")

	m = press(t, m, "44 Birch Ln", "tab", "Denver", "tab", "CO", "tab", "Lee", "tab", "tab", "$72,500")
	m = press(t, m, "enter")
	require.NoError(t, m.err)
	assert.Equal(t, ViewDetail, m.viewMode)
	assert.Equal(t, 4, store.Len())

	deal, ok := store.GetDeal(m.selectedID)
	require.True(t, ok)
	assert.Equal(t, "44 Birch Ln", deal.Property.Address)
	assert.Equal(t, models.StageQualified, deal.Stage, "new deals land on the current stage tab")
	assert.True(t, deal.Value.Equal(decimal.NewFromInt(72500)))
	assert.Equal(t, models.PriorityMedium, deal.Priority)
	assert.Equal(t, models.StrategyWholesaling, deal.Strategy)
}

func TestEditDealForm(t *testing.T) {
	m, store := setupTestModel(t)
	id := store.Deals()[1].ID

	m = press(t, m, "down", "enter", "e")
	require.Equal(t, ViewEdit, m.viewMode)
	assert.Equal(t, "9 Elm Ave", m.formInputs[fieldAddress].Value())

	m.formInputs[fieldPriority].SetValue("urgent")
	m = press(t, m, "enter")
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "invalid priority")
	assert.Equal(t, ViewEdit, m.viewMode)

	m.formInputs[fieldPriority].SetValue("high")
	m.formInputs[fieldNotes].SetValue("seller wants a fast close")
	m = press(t, m, "enter")
	require.NoError(t, m.err)

	deal, _ := store.GetDeal(id)
	assert.Equal(t, models.PriorityHigh, deal.Priority)
	assert.Equal(t, "seller wants a fast close", deal.Notes)
	assert.Equal(t, "c-2", deal.Contact.ID)
	assert.Equal(t, models.StageProposal, deal.Stage)
}

func TestStaleTab(t *testing.T) {
	m, store := setupTestModel(t)
	store.RefreshAging(testStart.AddDate(0, 0, 30))

	m.tab = tabStale
	deals := m.visibleDeals()
	assert.Len(t, deals, 2, "closed deals are never stale")
	assert.Contains(t, m.View(), "🔴")
}

func TestGraphView(t *testing.T) {
	m, _ := setupTestModel(t)

	m = press(t, m, "g")
	require.Equal(t, ViewGraph, m.viewMode)
	require.NoError(t, m.err)
	assert.True(t, strings.Contains(m.graphDOT, "digraph"))

	m = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Empty(t, m.graphDOT)
}

func TestStoreChangeRefreshesSelection(t *testing.T) {
	m, store := setupTestModel(t)
	m = press(t, m, "down", "down")
	require.Equal(t, 2, m.selectedRow)

	store.DeleteDeal(store.Deals()[2].ID)
	next, cmd := m.Update(storeChangedMsg{version: 2})
	m = next.(Model)
	assert.Equal(t, 1, m.selectedRow)
	assert.NotNil(t, cmd)
}
