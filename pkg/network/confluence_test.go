package network

import (
	"math"
	"testing"

	"github.com/openfluvial/streamnet/pkg/geom"
)

// buildComplexConfluence builds a junction with k inflows and one outflow.
func buildComplexConfluence(t *testing.T, k int) *Graph {
	t.Helper()
	g := New()
	junction := g.AddNode(geom.Point{X: 0, Y: 0})
	mouth := g.AddNode(geom.Point{X: 0, Y: -10})

	for i := 0; i < k; i++ {
		src := g.AddNode(geom.Point{X: float64(10 * (i + 1)), Y: 10})
		err := g.AddEdge(Edge{
			Cat:      i + 1,
			UpNode:   src.ID,
			DownNode: junction.ID,
			Geom:     geom.Polyline{src.Pos, junction.Pos},
		})
		if err != nil {
			t.Fatalf("AddEdge inflow %d: %v", i+1, err)
		}
	}
	err := g.AddEdge(Edge{
		Cat:      k + 1,
		UpNode:   junction.ID,
		DownNode: mouth.ID,
		Geom:     geom.Polyline{junction.Pos, mouth.Pos},
	})
	if err != nil {
		t.Fatalf("AddEdge outflow: %v", err)
	}
	return g
}

func maxInflow(g *Graph) int {
	max := 0
	for _, n := range g.Nodes() {
		if len(n.In) > max {
			max = len(n.In)
		}
	}
	return max
}

func countAux(g *Graph) int {
	count := 0
	for _, e := range g.Edges() {
		if e.Aux {
			count++
		}
	}
	return count
}

func TestHasComplexConfluences(t *testing.T) {
	if HasComplexConfluences(buildComplexConfluence(t, 2)) {
		t.Error("binary confluence reported as complex")
	}
	if !HasComplexConfluences(buildComplexConfluence(t, 3)) {
		t.Error("3-way confluence not reported as complex")
	}

	// Detection is side-effect-free.
	g := buildComplexConfluence(t, 4)
	edges, nodes := g.EdgeCount(), g.NodeCount()
	HasComplexConfluences(g)
	if g.EdgeCount() != edges || g.NodeCount() != nodes {
		t.Error("HasComplexConfluences modified the graph")
	}
}

func TestResolveConfluencesThreeWay(t *testing.T) {
	g := buildComplexConfluence(t, 3)
	totalBefore := g.TotalLength()

	resolved, more, err := ResolveConfluences(g)
	if err != nil {
		t.Fatalf("ResolveConfluences: %v", err)
	}
	if more {
		t.Error("single pass left complex confluences behind")
	}

	if got := countAux(resolved); got != 1 {
		t.Errorf("auxiliary edges = %d, want exactly 1 for a 3-way merge", got)
	}
	if got := maxInflow(resolved); got > 2 {
		t.Errorf("max inflow degree = %d, want <= 2", got)
	}
	if got := resolved.TotalLength(); math.Abs(got-totalBefore) > 1e-9 {
		t.Errorf("total length changed: %v -> %v", totalBefore, got)
	}

	// The input graph is untouched.
	if g.EdgeCount() != 4 {
		t.Errorf("input graph edge count = %d, want 4", g.EdgeCount())
	}

	// Auxiliary nodes sit exactly on the junction.
	for _, e := range resolved.Edges() {
		if !e.Aux {
			continue
		}
		if e.Length != 0 {
			t.Errorf("auxiliary edge %d has length %v, want 0", e.Cat, e.Length)
		}
		up, _ := resolved.Node(e.UpNode)
		down, _ := resolved.Node(e.DownNode)
		if up.Pos != down.Pos {
			t.Errorf("auxiliary edge %d spans %v -> %v, want coincident endpoints", e.Cat, up.Pos, down.Pos)
		}
	}
}

func TestResolveConfluencesDegrees(t *testing.T) {
	tests := []struct {
		name    string
		inflows int
		wantAux int
	}{
		{name: "Binary", inflows: 2, wantAux: 0},
		{name: "FourWay", inflows: 4, wantAux: 2},
		{name: "SixWay", inflows: 6, wantAux: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildComplexConfluence(t, tt.inflows)
			totalBefore := g.TotalLength()

			resolved, more, err := ResolveConfluences(g)
			if err != nil {
				t.Fatalf("ResolveConfluences: %v", err)
			}
			if more {
				t.Error("resolution did not converge in one pass")
			}
			if got := countAux(resolved); got != tt.wantAux {
				t.Errorf("auxiliary edges = %d, want %d", got, tt.wantAux)
			}
			if got := maxInflow(resolved); got > 2 {
				t.Errorf("max inflow = %d, want <= 2", got)
			}
			if math.Abs(resolved.TotalLength()-totalBefore) > 1e-9 {
				t.Error("total length not preserved")
			}
			if resolved.componentCount() != g.componentCount() {
				t.Error("connectivity changed")
			}
			if err := resolved.Validate(); err != nil {
				t.Errorf("resolved graph invalid: %v", err)
			}
		})
	}
}

func TestResolveConfluencesPreservesDownstreamOrder(t *testing.T) {
	g := buildComplexConfluence(t, 3)
	resolved, _, err := ResolveConfluences(g)
	if err != nil {
		t.Fatalf("ResolveConfluences: %v", err)
	}

	// Every original inflow still reaches the outflow edge.
	for cat := 1; cat <= 3; cat++ {
		e, ok := resolved.Edge(cat)
		if !ok {
			t.Fatalf("inflow %d missing after resolution", cat)
		}
		steps := 0
		for {
			down, ok := resolved.DownstreamEdge(e.Cat)
			if !ok {
				break
			}
			e = down
			steps++
		}
		if e.Cat != 4 {
			t.Errorf("inflow %d drains to edge %d, want outflow edge 4", cat, e.Cat)
		}
		if steps == 0 {
			t.Errorf("inflow %d has no downstream path", cat)
		}
	}
}
