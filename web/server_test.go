// ABOUTME: Tests for the web dashboard and JSON API
// ABOUTME: Drives the handler through httptest against an in-memory store
package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *pipeline.Store, models.Deal) {
	t.Helper()
	store := pipeline.New()
	deal := store.AddDeal(models.DealInput{
		Property: models.Property{Address: "12 Oak St", City: "Austin"},
		Contact:  models.Contact{ID: "c-1", Name: "Dana"},
		Stage:    models.StageProposal,
		Value:    decimal.NewFromInt(260000),
		Strategy: models.StrategyFlipping,
		Priority: models.PriorityHigh,
	})
	store.AddDeal(models.DealInput{
		Property: models.Property{Address: "9 Elm Ave"},
		Stage:    models.StageLead,
		Value:    decimal.NewFromInt(40000),
	})

	srv, err := NewServer(store, nil)
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Now().Add(time.Hour) }
	stop := srv.Observe()
	t.Cleanup(stop)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store, deal
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestDashboardPage(t *testing.T) {
	ts, _, _ := newTestServer(t)

	status, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Under Contract")
	assert.Contains(t, body, "$300,000")
}

func TestDealsPage(t *testing.T) {
	ts, _, _ := newTestServer(t)

	status, body := get(t, ts.URL+"/deals?stage=proposal")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "12 Oak St")
	assert.NotContains(t, body, "9 Elm Ave")

	_, body = get(t, ts.URL+"/deals?q=elm")
	assert.Contains(t, body, "9 Elm Ave")
	assert.NotContains(t, body, "12 Oak St")
}

func TestDealDetailPartial(t *testing.T) {
	ts, _, deal := newTestServer(t)

	status, body := get(t, ts.URL+"/partials/deal-detail?id="+deal.ID.String())
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Fix &amp; Flip")

	status, _ = get(t, ts.URL+"/partials/deal-detail?id=nope")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIDeals(t *testing.T) {
	ts, _, deal := newTestServer(t)

	status, body := get(t, ts.URL+"/api/deals")
	require.Equal(t, http.StatusOK, status)
	var deals []models.Deal
	require.NoError(t, json.Unmarshal([]byte(body), &deals))
	assert.Len(t, deals, 2)

	_, body = get(t, ts.URL+"/api/deals?contact=c-1")
	require.NoError(t, json.Unmarshal([]byte(body), &deals))
	require.Len(t, deals, 1)
	assert.Equal(t, deal.ID, deals[0].ID)

	status, _ = get(t, ts.URL+"/api/deals?stage=bogus")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = get(t, ts.URL+"/api/deals/"+deal.ID.String())
	require.Equal(t, http.StatusOK, status)
	var got models.Deal
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "12 Oak St", got.Property.Address)
	assert.True(t, got.Value.Equal(decimal.NewFromInt(260000)))

	status, body = get(t, ts.URL+"/api/deals/00000000-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "deal not found")
}

func TestAPIDealsStageAndContactCombine(t *testing.T) {
	ts, store, deal := newTestServer(t)
	store.AddDeal(models.DealInput{
		Property: models.Property{Address: "4 Pine Ct"},
		Contact:  models.Contact{ID: "c-1", Name: "Dana"},
		Stage:    models.StageContract,
		Value:    decimal.NewFromInt(120000),
	})

	status, body := get(t, ts.URL+"/api/deals?stage=proposal&contact=c-1")
	require.Equal(t, http.StatusOK, status)
	var deals []models.Deal
	require.NoError(t, json.Unmarshal([]byte(body), &deals))
	require.Len(t, deals, 1)
	assert.Equal(t, deal.ID, deals[0].ID)

	_, body = get(t, ts.URL+"/api/deals?stage=lead&contact=c-1")
	var none []models.Deal
	require.NoError(t, json.Unmarshal([]byte(body), &none))
	assert.Empty(t, none)

	status, _ = get(t, ts.URL+"/api/deals?stage=bogus&contact=c-1")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIStatsStagesSearch(t *testing.T) {
	ts, _, _ := newTestServer(t)

	_, body := get(t, ts.URL+"/api/stats")
	var stats statsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	assert.Len(t, stats.Stages, 7)
	assert.Equal(t, 2, stats.TotalCount)
	assert.True(t, stats.TotalValue.Equal(decimal.NewFromInt(300000)))

	_, body = get(t, ts.URL+"/api/stages")
	var stages []models.StageConfig
	require.NoError(t, json.Unmarshal([]byte(body), &stages))
	assert.Equal(t, models.StageLead, stages[0].Stage)

	_, body = get(t, ts.URL+"/api/search?q=DANA")
	var found []models.Deal
	require.NoError(t, json.Unmarshal([]byte(body), &found))
	assert.Len(t, found, 1)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, store, deal := newTestServer(t)
	store.MoveDeal(deal.ID, models.StageNegotiating, "")

	status, body := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `dealdesk_stage_transitions_total{from="proposal",to="negotiating"} 1`)
	assert.True(t, strings.Contains(body, "go_goroutines"))

	get(t, ts.URL+"/api/deals/"+deal.ID.String())
	get(t, ts.URL+"/api/deals/"+deal.ID.String())
	get(t, ts.URL+"/nowhere")
	_, body = get(t, ts.URL+"/metrics")
	assert.Contains(t, body, `dealdesk_http_requests_total{method="GET",route="GET /api/deals/{id}",status="200"} 2`)
	assert.Contains(t, body, `dealdesk_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

func TestHealthz(t *testing.T) {
	ts, _, _ := newTestServer(t)
	status, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}
