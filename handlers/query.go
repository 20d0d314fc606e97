// ABOUTME: Read-only MCP query tools for the deal pipeline
// ABOUTME: Lists by stage or contact, stage statistics, search, and filtering
package handlers

import (
	"context"
	"time"

	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"
)

type QueryHandlers struct {
	store *pipeline.Store
}

func NewQueryHandlers(store *pipeline.Store) *QueryHandlers {
	return &QueryHandlers{store: store}
}

type ListDealsByStageInput struct {
	Stage string `json:"stage" jsonschema:"Pipeline stage" validate:"required,stage"`
}

type FindDealsByContactInput struct {
	ContactID string `json:"contact_id" jsonschema:"Contact id embedded in the deals" validate:"required"`
}

type GetStageStatsInput struct {
	Stage string `json:"stage,omitempty" jsonschema:"Single stage; all stages when empty" validate:"omitempty,stage"`
}

type SearchDealsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive text matched against address, contact name, notes, and tags; empty matches all"`
}

type FilterDealsInput struct {
	Stage         string   `json:"stage,omitempty" validate:"omitempty,stage"`
	Priority      string   `json:"priority,omitempty" validate:"omitempty,priority"`
	Strategy      string   `json:"strategy,omitempty" validate:"omitempty,strategy"`
	MinValue      *float64 `json:"min_value,omitempty" jsonschema:"Inclusive lower bound on value; requires max_value" validate:"required_with=MaxValue,omitempty,gte=0"`
	MaxValue      *float64 `json:"max_value,omitempty" jsonschema:"Inclusive upper bound on value; requires min_value" validate:"required_with=MinValue,omitempty,gte=0"`
	CreatedAfter  string   `json:"created_after,omitempty" jsonschema:"RFC 3339 start of the creation window; requires created_before" validate:"required_with=CreatedBefore,omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	CreatedBefore string   `json:"created_before,omitempty" jsonschema:"RFC 3339 end of the creation window; requires created_after" validate:"required_with=CreatedAfter,omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type DealSummary struct {
	ID           string   `json:"id"`
	Address      string   `json:"address"`
	ContactID    string   `json:"contact_id,omitempty"`
	ContactName  string   `json:"contact_name,omitempty"`
	Stage        string   `json:"stage"`
	Value        string   `json:"value"`
	Priority     string   `json:"priority"`
	Strategy     string   `json:"strategy"`
	DaysInStage  int      `json:"days_in_stage"`
	LastActivity string   `json:"last_activity"`
	Tags         []string `json:"tags,omitempty"`
}

type DealListOutput struct {
	Deals []DealSummary `json:"deals"`
	Count int           `json:"count"`
}

type StageStatsOutput struct {
	Stage      string `json:"stage"`
	Label      string `json:"label"`
	Count      int    `json:"count"`
	TotalValue string `json:"total_value"`
}

type StageStatsListOutput struct {
	Stages     []StageStatsOutput `json:"stages"`
	TotalCount int                `json:"total_count"`
	TotalValue string             `json:"total_value"`
}

func (h *QueryHandlers) ListDealsByStage(_ context.Context, _ *mcp.CallToolRequest, input ListDealsByStageInput) (*mcp.CallToolResult, DealListOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealListOutput{}, err
	}
	return nil, summarize(h.store.GetDealsByStage(models.Stage(input.Stage))), nil
}

func (h *QueryHandlers) FindDealsByContact(_ context.Context, _ *mcp.CallToolRequest, input FindDealsByContactInput) (*mcp.CallToolResult, DealListOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealListOutput{}, err
	}
	return nil, summarize(h.store.GetDealsByContact(input.ContactID)), nil
}

func (h *QueryHandlers) GetStageStats(_ context.Context, _ *mcp.CallToolRequest, input GetStageStatsInput) (*mcp.CallToolResult, StageStatsListOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, StageStatsListOutput{}, err
	}

	var stats []models.StageStats
	if input.Stage != "" {
		stats = []models.StageStats{h.store.GetStageStats(models.Stage(input.Stage))}
	} else {
		stats = h.store.AllStageStats()
	}
	return nil, statsToOutput(stats), nil
}

func (h *QueryHandlers) SearchDeals(_ context.Context, _ *mcp.CallToolRequest, input SearchDealsInput) (*mcp.CallToolResult, DealListOutput, error) {
	return nil, summarize(h.store.SearchDeals(input.Query)), nil
}

func (h *QueryHandlers) FilterDeals(_ context.Context, _ *mcp.CallToolRequest, input FilterDealsInput) (*mcp.CallToolResult, DealListOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DealListOutput{}, err
	}
	filters, err := input.toFilters()
	if err != nil {
		return nil, DealListOutput{}, err
	}
	return nil, summarize(h.store.FilterDeals(filters)), nil
}

func (in FilterDealsInput) toFilters() (models.DealFilters, error) {
	var f models.DealFilters
	if in.Stage != "" {
		s := models.Stage(in.Stage)
		f.Stage = &s
	}
	if in.Priority != "" {
		p := models.Priority(in.Priority)
		f.Priority = &p
	}
	if in.Strategy != "" {
		s := models.Strategy(in.Strategy)
		f.Strategy = &s
	}
	if in.MinValue != nil && in.MaxValue != nil {
		f.ValueRange = &models.ValueRange{
			Min: decimal.NewFromFloat(*in.MinValue),
			Max: decimal.NewFromFloat(*in.MaxValue),
		}
	}
	if in.CreatedAfter != "" && in.CreatedBefore != "" {
		start, err := time.Parse(time.RFC3339, in.CreatedAfter)
		if err != nil {
			return f, err
		}
		end, err := time.Parse(time.RFC3339, in.CreatedBefore)
		if err != nil {
			return f, err
		}
		f.DateRange = &models.DateRange{Start: start, End: end}
	}
	return f, nil
}

func summarize(deals []models.Deal) DealListOutput {
	out := DealListOutput{Deals: make([]DealSummary, 0, len(deals)), Count: len(deals)}
	for _, d := range deals {
		out.Deals = append(out.Deals, DealSummary{
			ID:           d.ID.String(),
			Address:      d.Property.Address,
			ContactID:    d.Contact.ID,
			ContactName:  d.Contact.Name,
			Stage:        string(d.Stage),
			Value:        d.Value.StringFixed(2),
			Priority:     string(d.Priority),
			Strategy:     string(d.Strategy),
			DaysInStage:  d.DaysInStage,
			LastActivity: d.LastActivity,
			Tags:         d.Tags,
		})
	}
	return out
}

func statsToOutput(stats []models.StageStats) StageStatsListOutput {
	out := StageStatsListOutput{Stages: make([]StageStatsOutput, 0, len(stats))}
	total := decimal.Zero
	for _, s := range stats {
		out.Stages = append(out.Stages, StageStatsOutput{
			Stage:      string(s.Stage),
			Label:      s.Stage.Label(),
			Count:      s.Count,
			TotalValue: s.TotalValue.StringFixed(2),
		})
		out.TotalCount += s.Count
		total = total.Add(s.TotalValue)
	}
	out.TotalValue = total.StringFixed(2)
	return out
}
