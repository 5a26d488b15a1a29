package network

import (
	"fmt"

	"github.com/openfluvial/streamnet/pkg/geom"
)

// Doc is the persistence form of a graph: a flat, JSON-friendly document
// with deterministic ordering (nodes by id, edges by raw id).
type Doc struct {
	Nodes []NodeDoc `json:"nodes"`
	Edges []EdgeDoc `json:"edges"`
}

// NodeDoc is a persisted node. Adjacency is not stored; it is rebuilt from
// the edges on restore.
type NodeDoc struct {
	ID NodeID  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// EdgeDoc is a persisted edge. Length and upDist are rounded to two decimal
// places here, at the persistence boundary, never during accumulation.
type EdgeDoc struct {
	Cat    int           `json:"cat"`
	RID    int           `json:"rid"`
	NetID  int           `json:"netid"`
	Geom   geom.Polyline `json:"geom"`
	Length float64       `json:"length"`
	Up     NodeID        `json:"up"`
	Down   NodeID        `json:"down"`
	UpDist float64       `json:"updist"`
	Aux    bool          `json:"aux,omitempty"`
}

// ToDoc converts the graph into its persistence form.
func (g *Graph) ToDoc() Doc {
	doc := Doc{}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeDoc{ID: n.ID, X: n.Pos.X, Y: n.Pos.Y})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeDoc{
			Cat:    e.Cat,
			RID:    e.RID,
			NetID:  e.NetID,
			Geom:   e.Geom,
			Length: geom.Round2(e.Length),
			Up:     e.UpNode,
			Down:   e.DownNode,
			UpDist: geom.Round2(e.UpDist),
			Aux:    e.Aux,
		})
	}
	return doc
}

// FromDoc rebuilds a graph from its persistence form. Returns an error for
// documents with dangling edge endpoints or duplicate ids.
func FromDoc(doc Doc) (*Graph, error) {
	g := New()
	for _, n := range doc.Nodes {
		if err := g.PutNode(Node{ID: n.ID, Pos: geom.Point{X: n.X, Y: n.Y}}); err != nil {
			return nil, fmt.Errorf("restore node %d: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		err := g.AddEdge(Edge{
			Cat:      e.Cat,
			RID:      e.RID,
			NetID:    e.NetID,
			Geom:     e.Geom,
			UpNode:   e.Up,
			DownNode: e.Down,
			UpDist:   e.UpDist,
			Aux:      e.Aux,
		})
		if err != nil {
			return nil, fmt.Errorf("restore edge %d: %w", e.Cat, err)
		}
		// Persisted length is authoritative; the geometry-derived value can
		// differ by the rounding applied at save time.
		g.edges[e.Cat].Length = e.Length
	}
	return g, nil
}
