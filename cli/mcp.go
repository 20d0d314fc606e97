// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server on stdio for assistant integration
package cli

import (
	"context"

	"github.com/harperreed/dealdesk/handlers"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// MCPCommand starts the MCP server on stdio. Logging must not go to stdout.
func MCPCommand(ctx context.Context, store *pipeline.Store, logger *zap.Logger, version string) error {
	logger.Info("starting dealdesk MCP server", zap.Int("deals", store.Len()))

	server := handlers.NewServer(store, logger.Named("mcp"), version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
