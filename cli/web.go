// ABOUTME: Web dashboard subcommand
// ABOUTME: Serves the read-only dashboard, JSON API, and metrics until interrupted
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/dealdesk/pipeline"
	"github.com/harperreed/dealdesk/web"
	"go.uber.org/zap"
)

// WebCommand starts the web server. addr and agingSpec are the configured
// defaults; flags override them.
func WebCommand(ctx context.Context, store *pipeline.Store, logger *zap.Logger, addr, agingSpec string, args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	listen := fs.String("addr", addr, "Listen address")
	aging := fs.String("aging-cron", agingSpec, "Cron schedule for deal aging (empty disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := web.NewServer(store, logger.Named("web"))
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	return server.Start(ctx, *listen, *aging)
}
