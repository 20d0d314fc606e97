// ABOUTME: GraphViz rendering of the deal pipeline
// ABOUTME: Stage nodes in pipeline order with their deals, plus shared-contact links
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/dealdesk/models"
	"go.uber.org/zap"
)

// fillColors maps stage color tokens to light X11 colors for node fills.
var fillColors = map[string]string{
	"gray":   "lightgray",
	"blue":   "lightblue",
	"indigo": "lavender",
	"yellow": "lightyellow",
	"purple": "plum",
	"green":  "palegreen",
	"red":    "mistyrose",
}

// Formats accepted by GeneratePipelineGraph.
var graphFormats = map[string]graphviz.Format{
	"dot": graphviz.XDOT,
	"svg": graphviz.SVG,
	"png": graphviz.PNG,
}

type GraphGenerator struct {
	logger *zap.Logger
}

func NewGraphGenerator(logger *zap.Logger) *GraphGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphGenerator{logger: logger}
}

// GraphResult carries the rendered graph and its size.
type GraphResult struct {
	Output    []byte
	NodeCount int
	EdgeCount int
}

// GeneratePipelineGraph renders deals as a left-to-right pipeline. format is
// one of dot, svg or png.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context, deals []models.Deal, format string) (*GraphResult, error) {
	gvFormat, ok := graphFormats[format]
	if !ok {
		return nil, fmt.Errorf("unsupported graph format %q (want dot, svg or png)", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			g.logger.Warn("failed to close graphviz", zap.Error(err))
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			g.logger.Warn("failed to close graph", zap.Error(err))
		}
	}()

	graph.SetLabel("Deal Pipeline")
	graph.SetRankDir(cgraph.LRRank)

	result := &GraphResult{}

	stageNodes := make(map[models.Stage]*cgraph.Node)
	var prev *cgraph.Node
	for _, cfg := range models.PipelineStages() {
		node, err := graph.CreateNodeByName("stage_" + string(cfg.Stage))
		if err != nil {
			return nil, fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetLabel(cfg.Name)
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor(fillColors[cfg.Color])
		stageNodes[cfg.Stage] = node
		result.NodeCount++

		// Closed-lost branches off contract rather than following closed-won.
		from := prev
		if cfg.Stage == models.StageClosedLost {
			from = stageNodes[models.StageContract]
		}
		if from != nil {
			edge, err := graph.CreateEdgeByName("flow_"+string(cfg.Stage), from, node)
			if err != nil {
				return nil, fmt.Errorf("failed to create stage edge: %w", err)
			}
			edge.SetStyle("bold")
			result.EdgeCount++
		}
		if cfg.Stage != models.StageClosedLost {
			prev = node
		}
	}

	contactDeals := make(map[string][]*cgraph.Node)
	for _, d := range deals {
		stageNode, ok := stageNodes[d.Stage]
		if !ok {
			g.logger.Debug("skipping deal with unknown stage", zap.String("id", d.ID.String()), zap.String("stage", string(d.Stage)))
			continue
		}

		node, err := graph.CreateNodeByName("deal_" + d.ID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to create deal node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%s\n%s", d.Property.Address, Money(d.Value), d.Strategy.Label()))
		node.SetShape("note")
		result.NodeCount++

		edge, err := graph.CreateEdgeByName("in_"+d.ID.String(), stageNode, node)
		if err != nil {
			return nil, fmt.Errorf("failed to create deal edge: %w", err)
		}
		edge.SetStyle("dashed")
		result.EdgeCount++

		if d.Contact.ID != "" {
			contactDeals[d.Contact.ID] = append(contactDeals[d.Contact.ID], node)
		}
	}

	// Deals that share a seller are linked so repeat contacts stand out.
	for contactID, nodes := range contactDeals {
		for i := 1; i < len(nodes); i++ {
			edge, err := graph.CreateEdgeByName(fmt.Sprintf("contact_%s_%d", contactID, i), nodes[i-1], nodes[i])
			if err != nil {
				return nil, fmt.Errorf("failed to create contact edge: %w", err)
			}
			edge.SetStyle("dotted")
			edge.SetDir("none")
			edge.SetLabel("same contact")
			result.EdgeCount++
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	result.Output = buf.Bytes()
	return result, nil
}
