// ABOUTME: MCP prompt handlers for reusable pipeline workflow templates
// ABOUTME: Provides pipeline-review and deal-analysis prompts built from live store data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Deals older than this in one open stage are called out in reviews.
const staleDays = 14

type PromptHandlers struct {
	store *pipeline.Store
}

func NewPromptHandlers(store *pipeline.Store) *PromptHandlers {
	return &PromptHandlers{store: store}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(_ context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "pipeline-review":
		return h.getPipelineReviewPrompt(request.Params.Arguments)
	case "deal-analysis":
		return h.getDealAnalysisPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getPipelineReviewPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	stage := models.Stage(args["stage"])
	if stage != "" && !stage.IsValid() {
		return nil, fmt.Errorf("invalid stage: %s", stage)
	}

	var promptText strings.Builder
	promptText.WriteString("Please review the current real estate deal pipeline:\n\n")

	stats := statsToOutput(h.store.AllStageStats())
	promptText.WriteString(fmt.Sprintf("Total Deals: %d\n", stats.TotalCount))
	promptText.WriteString(fmt.Sprintf("Total Value: $%s\n\n", stats.TotalValue))
	promptText.WriteString("Pipeline by Stage:\n")
	for _, s := range stats.Stages {
		promptText.WriteString(fmt.Sprintf("  - %s: %d deals, $%s\n", s.Label, s.Count, s.TotalValue))
	}

	deals := h.store.Deals()
	if stage != "" {
		deals = h.store.GetDealsByStage(stage)
		promptText.WriteString(fmt.Sprintf("\nDeals in %s:\n", stage.Label()))
		for _, d := range deals {
			promptText.WriteString(fmt.Sprintf("  - %s (%s, %s priority, %d days in stage, $%s)\n",
				d.Property.Address, d.Strategy.Label(), d.Priority, d.DaysInStage, d.Value.StringFixed(0)))
		}
	}

	var stale []string
	for _, d := range deals {
		if !d.Stage.IsClosed() && d.DaysInStage > staleDays {
			stale = append(stale, fmt.Sprintf("  - %s: %d days in %s", d.Property.Address, d.DaysInStage, d.Stage.Label()))
		}
	}
	if len(stale) > 0 {
		promptText.WriteString("\nStale deals:\n")
		promptText.WriteString(strings.Join(stale, "\n"))
		promptText.WriteString("\n")
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Where deals are bunching up and why that might be")
	promptText.WriteString("\n2. Which stale deals to push or drop")
	promptText.WriteString("\n3. The three highest-leverage next actions for this week")

	description := "Pipeline review"
	if stage != "" {
		description = fmt.Sprintf("Pipeline review: %s", stage.Label())
	}
	return userPrompt(description, promptText.String()), nil
}

func (h *PromptHandlers) getDealAnalysisPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	idStr, ok := args["deal_id"]
	if !ok {
		return nil, fmt.Errorf("deal_id is required")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid deal_id: %w", err)
	}
	deal, ok := h.store.GetDeal(id)
	if !ok {
		return nil, notFound(idStr)
	}

	var promptText strings.Builder
	promptText.WriteString("Please analyze this real estate deal:\n\n")
	promptText.WriteString(fmt.Sprintf("Property: %s, %s, %s %s\n", deal.Property.Address, deal.Property.City, deal.Property.State, deal.Property.Zip))
	promptText.WriteString(fmt.Sprintf("Strategy: %s\n", deal.Strategy.Label()))
	promptText.WriteString(fmt.Sprintf("Stage: %s (%d days)\n", deal.Stage.Label(), deal.DaysInStage))
	promptText.WriteString(fmt.Sprintf("Deal Value: $%s\n", deal.Value.StringFixed(0)))
	promptText.WriteString(fmt.Sprintf("Price: $%s\n", deal.Property.Price.StringFixed(0)))
	if spread, ok := deal.Spread(); ok {
		promptText.WriteString(fmt.Sprintf("Spread (ARV - price - repairs): $%s\n", spread.StringFixed(0)))
	}
	if deal.Contact.Name != "" {
		promptText.WriteString(fmt.Sprintf("Seller: %s (response rate %.0f%%)\n", deal.Contact.Name, deal.Contact.ResponseRate))
	}
	if deal.Notes != "" {
		promptText.WriteString(fmt.Sprintf("\nNotes: %s\n", deal.Notes))
	}

	if len(deal.StageHistory) > 0 {
		promptText.WriteString("\nStage History:\n")
		for _, h := range deal.StageHistory {
			promptText.WriteString(fmt.Sprintf("  - %s: %s by %s", h.Timestamp.Format("2006-01-02"), h.Stage.Label(), h.Actor))
			if h.Notes != "" {
				promptText.WriteString(" (" + h.Notes + ")")
			}
			promptText.WriteString("\n")
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. An assessment of the deal's numbers for its strategy")
	promptText.WriteString("\n2. Risks that could stop it from closing")
	promptText.WriteString("\n3. The next step to move it forward")

	return userPrompt(fmt.Sprintf("Deal analysis: %s", deal.Property.Address), promptText.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
