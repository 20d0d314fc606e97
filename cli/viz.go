// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and pipeline graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/harperreed/dealdesk/viz"
	"go.uber.org/zap"
)

// VizPipelineCommand renders the pipeline graph as dot, svg or png.
func VizPipelineCommand(ctx context.Context, w io.Writer, store *pipeline.Store, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("viz pipeline", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Output format: dot, svg, or png")
	stage := fs.String("stage", "", "Only include deals in this stage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *format == "png" && *output == "" {
		return fmt.Errorf("png output needs --output")
	}

	deals := store.Deals()
	if *stage != "" {
		s := models.Stage(*stage)
		if !s.IsValid() {
			return fmt.Errorf("invalid stage: %s", *stage)
		}
		deals = store.GetDealsByStage(s)
	}

	result, err := viz.NewGraphGenerator(logger).GeneratePipelineGraph(ctx, deals, *format)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, result.Output, 0644)
	}
	_, err = w.Write(result.Output)
	return err
}

func VizDashboardCommand(w io.Writer, store *pipeline.Store, _ []string) error {
	stats := viz.GenerateDashboardStats(store.Deals(), time.Now())
	_, err := fmt.Fprint(w, viz.RenderDashboard(stats))
	return err
}
