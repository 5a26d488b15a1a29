package network

import (
	"errors"
	"testing"

	"github.com/openfluvial/streamnet/pkg/geom"
)

// buildY constructs the smallest confluence: edges 1 and 2 merge at a
// junction and drain through edge 3.
//
//	n1   n2
//	  \ /
//	  n3
//	   |
//	  n4
func buildY(t *testing.T) *Graph {
	t.Helper()
	g := New()
	n1 := g.AddNode(geom.Point{X: 0, Y: 20})
	n2 := g.AddNode(geom.Point{X: 20, Y: 20})
	n3 := g.AddNode(geom.Point{X: 10, Y: 10})
	n4 := g.AddNode(geom.Point{X: 10, Y: 0})

	for _, e := range []Edge{
		{Cat: 1, UpNode: n1.ID, DownNode: n3.ID, Geom: geom.Polyline{n1.Pos, n3.Pos}},
		{Cat: 2, UpNode: n2.ID, DownNode: n3.ID, Geom: geom.Polyline{n2.Pos, n3.Pos}},
		{Cat: 3, UpNode: n3.ID, DownNode: n4.ID, Geom: geom.Polyline{n3.Pos, n4.Pos}},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%d): %v", e.Cat, err)
		}
	}
	return g
}

func TestAddEdge(t *testing.T) {
	g := New()
	n1 := g.AddNode(geom.Point{X: 0, Y: 0})
	n2 := g.AddNode(geom.Point{X: 3, Y: 4})

	if err := g.AddEdge(Edge{Cat: 1, UpNode: n1.ID, DownNode: n2.ID, Geom: geom.Polyline{n1.Pos, n2.Pos}}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	e, ok := g.Edge(1)
	if !ok {
		t.Fatal("Edge(1) not found")
	}
	if e.Length != 5 {
		t.Errorf("Length = %v, want 5 (derived from geometry)", e.Length)
	}

	if err := g.AddEdge(Edge{Cat: 1, UpNode: n1.ID, DownNode: n2.ID}); !errors.Is(err, ErrDuplicateEdge) {
		t.Errorf("duplicate cat: err = %v, want ErrDuplicateEdge", err)
	}
	if err := g.AddEdge(Edge{Cat: 2, UpNode: 99, DownNode: n2.ID}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown node: err = %v, want ErrUnknownNode", err)
	}
}

func TestAdjacency(t *testing.T) {
	g := buildY(t)

	down, ok := g.DownstreamEdge(1)
	if !ok || down.Cat != 3 {
		t.Errorf("DownstreamEdge(1) = %v, %v; want edge 3", down, ok)
	}
	if _, ok := g.DownstreamEdge(3); ok {
		t.Error("DownstreamEdge(3) found a downstream edge for the outlet")
	}

	ups := g.UpstreamEdges(3)
	if len(ups) != 2 || ups[0].Cat != 1 || ups[1].Cat != 2 {
		t.Errorf("UpstreamEdges(3) = %v, want edges 1 and 2 in id order", ups)
	}
	if got := g.UpstreamEdges(1); len(got) != 0 {
		t.Errorf("UpstreamEdges(1) = %v, want none", got)
	}

	outlets := g.OutletEdges()
	if len(outlets) != 1 || outlets[0].Cat != 3 {
		t.Errorf("OutletEdges() = %v, want edge 3", outlets)
	}
	sources := g.SourceEdges()
	if len(sources) != 2 {
		t.Errorf("SourceEdges() = %v, want edges 1 and 2", sources)
	}
}

func TestRemoveEdgeDropsOrphanNodes(t *testing.T) {
	g := buildY(t)
	g.RemoveEdge(1)

	if _, ok := g.Edge(1); ok {
		t.Error("edge 1 still present after removal")
	}
	if _, ok := g.Node(1); ok {
		t.Error("orphaned source node 1 not dropped")
	}
	if _, ok := g.Node(3); !ok {
		t.Error("junction node 3 dropped although edges remain")
	}
	if g.EdgeCount() != 2 || g.NodeCount() != 3 {
		t.Errorf("counts = %d edges, %d nodes; want 2, 3", g.EdgeCount(), g.NodeCount())
	}
}

func TestValidate(t *testing.T) {
	t.Run("WellFormed", func(t *testing.T) {
		if err := buildY(t).Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("Braided", func(t *testing.T) {
		g := New()
		a := g.AddNode(geom.Point{})
		b := g.AddNode(geom.Point{X: 1})
		c := g.AddNode(geom.Point{X: 2})
		g.AddEdge(Edge{Cat: 1, UpNode: a.ID, DownNode: b.ID, Geom: geom.Polyline{a.Pos, b.Pos}})
		g.AddEdge(Edge{Cat: 2, UpNode: a.ID, DownNode: c.ID, Geom: geom.Polyline{a.Pos, c.Pos}})
		if err := g.Validate(); !errors.Is(err, ErrBraidedNode) {
			t.Errorf("Validate() = %v, want ErrBraidedNode", err)
		}
	})

	t.Run("Cycle", func(t *testing.T) {
		g := New()
		a := g.AddNode(geom.Point{})
		b := g.AddNode(geom.Point{X: 1})
		c := g.AddNode(geom.Point{X: 2})
		g.AddEdge(Edge{Cat: 1, UpNode: a.ID, DownNode: b.ID, Geom: geom.Polyline{a.Pos, b.Pos}})
		g.AddEdge(Edge{Cat: 2, UpNode: b.ID, DownNode: c.ID, Geom: geom.Polyline{b.Pos, c.Pos}})
		g.AddEdge(Edge{Cat: 3, UpNode: c.ID, DownNode: a.ID, Geom: geom.Polyline{c.Pos, a.Pos}})
		if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
			t.Errorf("Validate() = %v, want ErrGraphHasCycle", err)
		}
	})
}

func TestClone(t *testing.T) {
	g := buildY(t)
	c := g.Clone()

	c.RemoveEdge(1)
	if g.EdgeCount() != 3 {
		t.Error("mutating the clone changed the original")
	}

	e, _ := c.Edge(3)
	e.NetID = 42
	if orig, _ := g.Edge(3); orig.NetID == 42 {
		t.Error("clone shares edge structs with the original")
	}
}

func TestDocRoundTrip(t *testing.T) {
	g := buildY(t)
	if err := AssignIdentifiers(g); err != nil {
		t.Fatalf("AssignIdentifiers: %v", err)
	}
	if err := AccumulateUpstreamDistance(g); err != nil {
		t.Fatalf("AccumulateUpstreamDistance: %v", err)
	}

	back, err := FromDoc(g.ToDoc())
	if err != nil {
		t.Fatalf("FromDoc: %v", err)
	}

	if back.EdgeCount() != g.EdgeCount() || back.NodeCount() != g.NodeCount() {
		t.Fatalf("round trip changed counts: %d/%d edges, %d/%d nodes",
			back.EdgeCount(), g.EdgeCount(), back.NodeCount(), g.NodeCount())
	}
	for _, e := range g.Edges() {
		b, ok := back.Edge(e.Cat)
		if !ok {
			t.Fatalf("edge %d missing after round trip", e.Cat)
		}
		if b.RID != e.RID || b.NetID != e.NetID {
			t.Errorf("edge %d ids changed: rid %d/%d, netID %d/%d", e.Cat, b.RID, e.RID, b.NetID, e.NetID)
		}
		if b.UpDist != geom.Round2(e.UpDist) {
			t.Errorf("edge %d upDist = %v, want rounded %v", e.Cat, b.UpDist, geom.Round2(e.UpDist))
		}
	}

	if _, err := FromDoc(Doc{Edges: []EdgeDoc{{Cat: 1, Up: 7, Down: 8}}}); err == nil {
		t.Error("FromDoc accepted dangling edge endpoints")
	}
}
