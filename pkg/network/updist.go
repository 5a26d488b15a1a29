package network

import (
	"github.com/openfluvial/streamnet/pkg/errors"
)

// AccumulateUpstreamDistance computes upDist for every edge, in place.
//
// For each network the outlet edge gets upDist 0 and every upstream edge
// gets its downstream neighbor's upDist plus that neighbor's length, so an
// edge's upDist is the flow distance from its downstream end to the network
// outlet. Accumulation runs on full float64 precision; rounding to two
// decimals happens only when the graph is persisted.
//
// Requires [AssignIdentifiers] to have run. Returns a TOPOLOGY error when a
// network holds more than one outlet-like edge or when some edge is not
// reachable from the outlet, both of which indicate inconsistent
// construction.
func AccumulateUpstreamDistance(g *Graph) error {
	for _, netID := range g.NetIDs() {
		if err := accumulateNetwork(g, netID); err != nil {
			return err
		}
	}
	return nil
}

func accumulateNetwork(g *Graph, netID int) error {
	edges := g.NetworkEdges(netID)

	var outlets []*Edge
	for _, e := range edges {
		if _, ok := g.DownstreamEdge(e.Cat); !ok {
			outlets = append(outlets, e)
		}
	}
	switch {
	case len(outlets) == 0:
		return errors.New(errors.ErrCodeTopology, "network %d has no outlet edge", netID)
	case len(outlets) > 1:
		return errors.New(errors.ErrCodeTopology,
			"network %d has %d outlet edges, want exactly one", netID, len(outlets))
	}

	outlet := outlets[0]
	outlet.UpDist = 0
	visited := 1

	// Breadth-first from the outlet following inflows upstream; every edge
	// is enqueued exactly once because each has a single downstream edge.
	queue := []*Edge{outlet}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		for _, up := range g.UpstreamEdges(e.Cat) {
			up.UpDist = e.UpDist + e.Length
			visited++
			queue = append(queue, up)
		}
	}

	if visited != len(edges) {
		return errors.New(errors.ErrCodeTopology,
			"network %d: visited %d of %d edges from the outlet", netID, visited, len(edges))
	}
	return nil
}
