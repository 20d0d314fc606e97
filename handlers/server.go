// ABOUTME: MCP server assembly
// ABOUTME: Registers every pipeline tool, resource, and prompt on one server
package handlers

import (
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// NewServer builds an MCP server backed by store.
func NewServer(store *pipeline.Store, logger *zap.Logger, version string) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	dealHandlers := NewDealHandlers(store, logger)
	queryHandlers := NewQueryHandlers(store)
	vizHandlers := NewVizHandlers(store, logger)
	resourceHandlers := NewResourceHandlers(store)
	promptHandlers := NewPromptHandlers(store)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dealdesk",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a new real estate deal in the pipeline",
	}, dealHandlers.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Update a deal's property, contact, value, priority, strategy, notes, or tags",
	}, dealHandlers.UpdateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_deal",
		Description: "Move a deal to another pipeline stage and record it in the stage history",
	}, dealHandlers.MoveDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_deal",
		Description: "Remove a deal from the pipeline",
	}, dealHandlers.DeleteDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_deal",
		Description: "Fetch one deal with its stage history and activity trail",
	}, dealHandlers.GetDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_deal_note",
		Description: "Add a note to a deal's activity trail",
	}, dealHandlers.AddDealNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_deal_message",
		Description: "Log an inbound or outbound message in a deal's communication history",
	}, dealHandlers.AddDealMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "attach_deal_document",
		Description: "Attach a document record such as an LOI or inspection report to a deal",
	}, dealHandlers.AttachDealDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_deals_by_stage",
		Description: "List the deals currently in a pipeline stage",
	}, queryHandlers.ListDealsByStage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_deals_by_contact",
		Description: "Find every deal that involves a contact",
	}, queryHandlers.FindDealsByContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stage_stats",
		Description: "Count and total value of deals per stage",
	}, queryHandlers.GetStageStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_deals",
		Description: "Search deals by address, contact name, notes, or tags",
	}, queryHandlers.SearchDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "filter_deals",
		Description: "Filter deals by stage, priority, strategy, value range, and creation date range",
	}, queryHandlers.FilterDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_pipeline_graph",
		Description: "Render the pipeline as GraphViz DOT source",
	}, vizHandlers.GeneratePipelineGraph)

	for _, r := range []*mcp.Resource{
		{URI: "pipeline://deals", Name: "deals", Description: "Every deal in the pipeline", MIMEType: "application/json"},
		{URI: "pipeline://stages", Name: "stages", Description: "Pipeline stage configuration", MIMEType: "application/json"},
		{URI: "pipeline://stats", Name: "stats", Description: "Deal count and value per stage", MIMEType: "application/json"},
	} {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "pipeline://deals/{id}",
		Name:        "deal",
		Description: "A single deal with history",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review pipeline health and suggest next actions",
		Arguments: []*mcp.PromptArgument{
			{Name: "stage", Description: "Limit the review to one stage"},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "deal-analysis",
		Description: "Analyze a single deal's numbers and risks",
		Arguments: []*mcp.PromptArgument{
			{Name: "deal_id", Description: "Deal id", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}
