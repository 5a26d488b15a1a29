package network

import (
	"slices"

	"github.com/openfluvial/streamnet/pkg/errors"
	"github.com/openfluvial/streamnet/pkg/geom"
)

// HasComplexConfluences reports whether any node has more than two inflowing
// edges. It never modifies the graph.
func HasComplexConfluences(g *Graph) bool {
	for _, n := range g.nodes {
		if len(n.In) > 2 {
			return true
		}
	}
	return false
}

// ResolveConfluences returns a restructured copy of the graph in which every
// confluence is a binary merge, plus a flag telling the caller whether
// another pass is needed. The input graph is never modified; callers iterate
// until the flag is false.
//
// A node with k > 2 inflows gains k-2 zero-length auxiliary edges: the two
// lowest-id inflows are rerouted into a synthetic node placed at the
// junction's coordinates, which drains into the junction through an
// auxiliary edge, and the pairing repeats until two inflows remain. Total
// network length is unchanged because auxiliary edges contribute exactly
// zero, and the junction keeps its geometric position.
//
// Returns a TOPOLOGY error if the restructuring would change the number of
// connected components; given construction this is a defensive check only.
func ResolveConfluences(g *Graph) (*Graph, bool, error) {
	out := g.Clone()
	before := out.componentCount()

	for _, n := range out.Nodes() {
		for len(n.In) > 2 {
			splitLowestPair(out, n)
		}
	}

	if after := out.componentCount(); after != before {
		return nil, false, errors.New(errors.ErrCodeTopology,
			"confluence restructuring changed connectivity: %d components became %d", before, after)
	}
	return out, HasComplexConfluences(out), nil
}

// splitLowestPair reroutes the junction's two lowest-id inflows into a new
// synthetic node joined back by one zero-length auxiliary edge.
func splitLowestPair(g *Graph, junction *Node) {
	in := slices.Clone(junction.In)
	slices.Sort(in)
	first, second := in[0], in[1]

	aux := g.AddNode(junction.Pos)
	for _, cat := range []int{first, second} {
		e := g.edges[cat]
		e.DownNode = aux.ID
		aux.In = append(aux.In, cat)
		junction.In = slices.DeleteFunc(junction.In, func(c int) bool { return c == cat })
	}

	auxEdge := Edge{
		Cat:      g.NextCat(),
		Geom:     geom.Polyline{junction.Pos, junction.Pos},
		UpNode:   aux.ID,
		DownNode: junction.ID,
		Aux:      true,
	}
	// Cannot fail: both endpoints exist and the id is fresh.
	if err := g.AddEdge(auxEdge); err != nil {
		panic(err)
	}
}
