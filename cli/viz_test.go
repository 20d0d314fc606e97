// ABOUTME: Tests for the viz CLI commands
// ABOUTME: Renders the dashboard and pipeline graph from an in-memory store
package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/dealdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVizPipelineCommand(t *testing.T) {
	store := setupTestStore(t)
	addDeal(t, store, "1 Graph Ln", models.StageLead, 1000, "c-1")
	addDeal(t, store, "2 Graph Ln", models.StageProposal, 2000, "c-1")

	var out bytes.Buffer
	require.NoError(t, VizPipelineCommand(context.Background(), &out, store, nil, nil))
	assert.Contains(t, out.String(), "digraph")
	assert.Contains(t, out.String(), "1 Graph Ln")

	out.Reset()
	require.NoError(t, VizPipelineCommand(context.Background(), &out, store, nil, []string{"--stage", "proposal"}))
	assert.NotContains(t, out.String(), "1 Graph Ln")
	assert.Contains(t, out.String(), "2 Graph Ln")

	path := filepath.Join(t.TempDir(), "pipeline.svg")
	require.NoError(t, VizPipelineCommand(context.Background(), &out, store, nil, []string{"--format", "svg", "--output", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestVizPipelineCommandErrors(t *testing.T) {
	store := setupTestStore(t)
	var out bytes.Buffer

	err := VizPipelineCommand(context.Background(), &out, store, nil, []string{"--format", "png"})
	assert.EqualError(t, err, "png output needs --output")

	err = VizPipelineCommand(context.Background(), &out, store, nil, []string{"--stage", "won"})
	assert.EqualError(t, err, "invalid stage: won")

	err = VizPipelineCommand(context.Background(), &out, store, nil, []string{"--format", "gif"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported graph format")
}

func TestVizDashboardCommand(t *testing.T) {
	store := setupTestStore(t)
	addDeal(t, store, "1 Dash Rd", models.StageLead, 120000, "c-1")

	var out bytes.Buffer
	require.NoError(t, VizDashboardCommand(&out, store, nil))
	assert.Contains(t, out.String(), "PIPELINE OVERVIEW")
	assert.Contains(t, out.String(), "$120,000")
}
