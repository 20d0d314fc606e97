// ABOUTME: Interactive TUI subcommand
// ABOUTME: Opens the full-screen deal board over the configured store
package cli

import (
	"context"

	"github.com/harperreed/dealdesk/pipeline"
	"github.com/harperreed/dealdesk/tui"
	"github.com/harperreed/dealdesk/viz"
	"go.uber.org/zap"
)

// TUICommand runs the deal board until the user quits.
func TUICommand(ctx context.Context, store *pipeline.Store, logger *zap.Logger) error {
	return tui.Run(ctx, store, viz.NewGraphGenerator(logger.Named("viz")))
}
