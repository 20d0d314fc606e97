package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHandlers(t *testing.T) (*DealHandlers, *QueryHandlers, []DealOutput) {
	t.Helper()
	store := newTestStore(t)
	dh := NewDealHandlers(store, nil)
	qh := NewQueryHandlers(store)

	inputs := []CreateDealInput{
		{Property: PropertyInput{Address: "12 Oak St"}, Contact: &ContactInput{ID: "c-1", Name: "Dana"}, Value: 100000, Priority: "high", Strategy: "flipping"},
		{Property: PropertyInput{Address: "9 Elm Ave"}, Contact: &ContactInput{ID: "c-1", Name: "Dana"}, Value: 250000, Stage: "proposal", Tags: []string{"pool"}},
		{Property: PropertyInput{Address: "3 Pine Rd"}, Contact: &ContactInput{ID: "c-2", Name: "Ravi"}, Value: 400000, Stage: "proposal", Priority: "high", Notes: "needs roof"},
	}
	var out []DealOutput
	for _, in := range inputs {
		_, d, err := dh.CreateDeal(context.Background(), nil, in)
		require.NoError(t, err)
		out = append(out, d)
	}
	return dh, qh, out
}

func TestListDealsByStage(t *testing.T) {
	_, qh, deals := seedHandlers(t)

	_, out, err := qh.ListDealsByStage(context.Background(), nil, ListDealsByStageInput{Stage: "proposal"})
	require.NoError(t, err)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, deals[1].ID, out.Deals[0].ID)
	assert.Equal(t, deals[2].ID, out.Deals[1].ID)

	_, out, err = qh.ListDealsByStage(context.Background(), nil, ListDealsByStageInput{Stage: "contract"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Count)
	assert.NotNil(t, out.Deals)

	_, _, err = qh.ListDealsByStage(context.Background(), nil, ListDealsByStageInput{})
	assert.ErrorContains(t, err, "stage is required")
}

func TestFindDealsByContact(t *testing.T) {
	_, qh, _ := seedHandlers(t)

	_, out, err := qh.FindDealsByContact(context.Background(), nil, FindDealsByContactInput{ContactID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)

	_, out, err = qh.FindDealsByContact(context.Background(), nil, FindDealsByContactInput{ContactID: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Count)
}

func TestGetStageStats(t *testing.T) {
	_, qh, _ := seedHandlers(t)

	_, out, err := qh.GetStageStats(context.Background(), nil, GetStageStatsInput{Stage: "proposal"})
	require.NoError(t, err)
	require.Len(t, out.Stages, 1)
	assert.Equal(t, 2, out.Stages[0].Count)
	assert.Equal(t, "650000.00", out.Stages[0].TotalValue)

	_, out, err = qh.GetStageStats(context.Background(), nil, GetStageStatsInput{})
	require.NoError(t, err)
	assert.Len(t, out.Stages, 7)
	assert.Equal(t, "lead", out.Stages[0].Stage)
	assert.Equal(t, 3, out.TotalCount)
	assert.Equal(t, "750000.00", out.TotalValue)
}

func TestSearchDeals(t *testing.T) {
	_, qh, _ := seedHandlers(t)

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"OAK", 1},
		{"dana", 2},
		{"roof", 1},
		{"pool", 1},
		{"missing", 0},
	}
	for _, tt := range tests {
		_, out, err := qh.SearchDeals(context.Background(), nil, SearchDealsInput{Query: tt.query})
		require.NoError(t, err)
		assert.Equal(t, tt.want, out.Count, "query %q", tt.query)
	}
}

func TestFilterDeals(t *testing.T) {
	_, qh, deals := seedHandlers(t)

	lo, hi := 200000.0, 400000.0
	_, out, err := qh.FilterDeals(context.Background(), nil, FilterDealsInput{
		Priority: "high",
		MinValue: &lo,
		MaxValue: &hi,
	})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, deals[2].ID, out.Deals[0].ID)

	_, out, err = qh.FilterDeals(context.Background(), nil, FilterDealsInput{
		CreatedAfter:  "2026-05-01T00:00:00Z",
		CreatedBefore: "2026-05-02T00:00:00Z",
		Strategy:      "wholesaling",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)

	_, _, err = qh.FilterDeals(context.Background(), nil, FilterDealsInput{MinValue: &lo})
	assert.ErrorContains(t, err, "max_value")

	_, _, err = qh.FilterDeals(context.Background(), nil, FilterDealsInput{CreatedAfter: "yesterday", CreatedBefore: "2026-05-02T00:00:00Z"})
	assert.ErrorContains(t, err, "created_after must be an RFC 3339 timestamp")
}
