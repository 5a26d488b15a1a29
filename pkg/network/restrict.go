package network

// Filter returns a copy of the graph containing only the edges whose netID
// is in keep, along with the nodes they touch. Identifiers and accumulated
// distances carry over unchanged. An empty result is legal; the caller
// decides whether that deserves a warning.
func Filter(g *Graph, keep map[int]bool) *Graph {
	out := New()
	out.nextNode = g.nextNode
	out.nextCat = g.nextCat

	for _, e := range g.Edges() {
		if !keep[e.NetID] {
			continue
		}
		for _, id := range []NodeID{e.UpNode, e.DownNode} {
			if _, ok := out.Node(id); ok {
				continue
			}
			n := g.nodes[id]
			out.PutNode(Node{ID: n.ID, Pos: n.Pos})
		}
		cp := *e
		cp.Geom = append(cp.Geom[:0:0], e.Geom...)
		if err := out.AddEdge(cp); err != nil {
			panic(err) // fresh graph, ids come from a consistent source
		}
		// AddEdge rederives Length from geometry; keep the stored value so
		// a filtered graph round-trips exactly.
		out.edges[cp.Cat].Length = e.Length
	}
	return out
}

// KeepSet resolves which networks survive a restriction. Explicit keep ids
// win over everything; otherwise the touched set minus the delete list
// remains.
func KeepSet(touched []int, keep, del []int) map[int]bool {
	out := make(map[int]bool)
	if len(keep) > 0 {
		for _, id := range keep {
			out[id] = true
		}
		return out
	}
	for _, id := range touched {
		out[id] = true
	}
	for _, id := range del {
		delete(out, id)
	}
	return out
}
