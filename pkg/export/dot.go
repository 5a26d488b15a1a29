// Package export renders a stream network's topology for inspection.
//
// The Graphviz output shows the reach graph as a node-link diagram:
// junctions as points, reaches as directed edges labeled with their ids and
// lengths. Auxiliary zero-length edges introduced by confluence resolution
// are drawn dashed so restructured junctions are easy to spot. This is a
// debugging surface for topology; map plotting stays with external GIS
// tooling.
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/openfluvial/streamnet/pkg/geom"
	"github.com/openfluvial/streamnet/pkg/network"
)

// Options configures DOT generation.
type Options struct {
	// Detailed includes length and upstream distance in edge labels.
	// When false, only the reach ids are shown.
	Detailed bool
}

// ToDOT converts a graph to Graphviz DOT format. The resulting DOT string
// can be rendered with [RenderSVG].
func ToDOT(g *network.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph network {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  node [shape=point, width=0.12];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  n%d;\n", n.ID)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.UpNode, e.DownNode, edgeAttrs(e, opts))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func edgeAttrs(e *network.Edge, opts Options) string {
	label := fmt.Sprintf("cat %d", e.Cat)
	if e.NetID != 0 {
		label = fmt.Sprintf("net %d rid %d", e.NetID, e.RID)
	}
	if opts.Detailed {
		label += fmt.Sprintf("\\nlen %.2f updist %.2f", geom.Round2(e.Length), geom.Round2(e.UpDist))
	}
	attrs := fmt.Sprintf("label=%q", label)
	if e.Aux {
		attrs += ", style=dashed, color=grey"
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
