// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_pipeline_graph tool for agents
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/harperreed/dealdesk/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type VizHandlers struct {
	store     *pipeline.Store
	generator *viz.GraphGenerator
}

func NewVizHandlers(store *pipeline.Store, logger *zap.Logger) *VizHandlers {
	return &VizHandlers{store: store, generator: viz.NewGraphGenerator(logger)}
}

type GenerateGraphInput struct {
	Stage string `json:"stage,omitempty" jsonschema:"Only include deals in this stage" validate:"omitempty,stage"`
}

type GenerateGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GeneratePipelineGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, GenerateGraphOutput{}, err
	}

	deals := h.store.Deals()
	if input.Stage != "" {
		deals = h.store.GetDealsByStage(models.Stage(input.Stage))
	}

	result, err := h.generator.GeneratePipelineGraph(ctx, deals, "dot")
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}
	return nil, GenerateGraphOutput{
		DOTSource: string(result.Output),
		NodeCount: result.NodeCount,
		EdgeCount: result.EdgeCount,
	}, nil
}
