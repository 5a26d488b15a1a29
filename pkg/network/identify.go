package network

import (
	"github.com/openfluvial/streamnet/pkg/errors"
)

// AssignIdentifiers partitions the edges into connected networks and assigns
// netID and rid to every edge, in place.
//
// Networks are numbered from 1 in discovery order, where discovery iterates
// edges by ascending raw id; reach ids restart from 1 inside each network at
// the outlet edge and grow upstream in depth-first order, visiting upstream
// edges by ascending raw id. Both numberings are therefore stable across
// runs on identical input.
//
// An empty graph is a no-op. A network without an outlet edge cannot be
// ordered and returns a TOPOLOGY error; [Graph.Validate] catches the
// underlying cycle earlier with more detail.
func AssignIdentifiers(g *Graph) error {
	if g.EdgeCount() == 0 {
		return nil
	}

	comp := edgeComponents(g)

	netID := 0
	seen := make(map[int]int) // component root -> netID
	for _, e := range g.Edges() {
		root := comp.find(e.Cat)
		if _, ok := seen[root]; !ok {
			netID++
			seen[root] = netID
		}
		e.NetID = seen[root]
	}

	for _, id := range g.NetIDs() {
		if err := assignReachIDs(g, id); err != nil {
			return err
		}
	}
	return nil
}

func assignReachIDs(g *Graph, netID int) error {
	var outlet *Edge
	for _, e := range g.NetworkEdges(netID) {
		if _, ok := g.DownstreamEdge(e.Cat); !ok {
			outlet = e
			break
		}
	}
	if outlet == nil {
		return errors.New(errors.ErrCodeTopology, "network %d has no outlet edge", netID)
	}

	rid := 0
	var climb func(e *Edge)
	climb = func(e *Edge) {
		rid++
		e.RID = rid
		for _, up := range g.UpstreamEdges(e.Cat) {
			climb(up)
		}
	}
	climb(outlet)
	return nil
}

// edgeComponents builds a union-find over edges joined through shared nodes.
type unionFind struct {
	parent map[int]int
}

func edgeComponents(g *Graph) *unionFind {
	uf := &unionFind{parent: make(map[int]int, g.EdgeCount())}
	for cat := range g.edges {
		uf.parent[cat] = cat
	}
	for _, n := range g.nodes {
		var prev int
		first := true
		for _, cat := range append(append([]int{}, n.In...), n.Out...) {
			if first {
				prev, first = cat, false
				continue
			}
			uf.union(prev, cat)
		}
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x])
	}
	return uf.parent[x]
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}
