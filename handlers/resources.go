// ABOUTME: MCP resource handlers for exposing pipeline data
// ABOUTME: Provides read-only access to deals, stages, and stage statistics via pipeline:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "pipeline://"

type ResourceHandlers struct {
	store *pipeline.Store
}

func NewResourceHandlers(store *pipeline.Store) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(_ context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch {
	case parts[0] == "deals" && len(parts) == 1:
		return jsonResource(uri, summarize(h.store.Deals()))
	case parts[0] == "deals" && len(parts) == 2:
		id, err := uuid.Parse(parts[1])
		if err != nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		deal, ok := h.store.GetDeal(id)
		if !ok {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return jsonResource(uri, dealToOutput(deal))
	case parts[0] == "stages" && len(parts) == 1:
		return jsonResource(uri, models.PipelineStages())
	case parts[0] == "stats" && len(parts) == 1:
		return jsonResource(uri, statsToOutput(h.store.AllStageStats()))
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
