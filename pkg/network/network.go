package network

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/openfluvial/streamnet/pkg/geom"
)

var (
	// ErrUnknownNode is returned by [Graph.AddEdge] when an endpoint node
	// does not exist in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when an edge with the
	// same raw id already exists. Raw ids must be unique across the graph.
	ErrDuplicateEdge = errors.New("duplicate edge id")

	// ErrDuplicateNode is returned by [Graph.PutNode] when a node with the
	// same id already exists.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrUnknownEdge is returned by accessors when the requested edge does
	// not exist.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrGraphHasCycle is returned by [Graph.Validate] when following
	// downstream links revisits an edge. Stream networks are acyclic; a
	// cycle indicates corrupt flow-direction input.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrBraidedNode is returned by [Graph.Validate] when a node has more
	// than one outgoing edge. Every reach drains into at most one
	// downstream reach.
	ErrBraidedNode = errors.New("node has multiple downstream edges")
)

// NodeID identifies a node within one graph.
type NodeID int

// Node is a topological junction: a source, confluence, or outlet point.
// In and Out hold raw edge ids; In edges flow into the node (their
// downstream end is here), Out edges leave it. After confluence resolution
// every node has len(In) <= 2 and len(Out) <= 1.
type Node struct {
	ID  NodeID
	Pos geom.Point
	In  []int
	Out []int
}

// Edge is a reach: a maximal stream segment between two junctions.
// Geometry runs from the upstream node to the downstream node.
type Edge struct {
	// Cat is the raw segment id assigned at extraction, unique across the
	// graph and stable for a given input raster.
	Cat int
	// RID is the reach id within the owning network, assigned by
	// [AssignIdentifiers]. Zero until assigned.
	RID int
	// NetID is the owning network id, assigned by [AssignIdentifiers].
	// Zero until assigned.
	NetID int
	// Geom is the reach polyline, upstream end first.
	Geom geom.Polyline
	// Length is the arc length of Geom, derived once when the edge is
	// added. Auxiliary edges have length exactly zero.
	Length   float64
	UpNode   NodeID
	DownNode NodeID
	// UpDist is the flow distance from the edge's downstream end to the
	// network outlet, assigned by [AccumulateUpstreamDistance].
	UpDist float64
	// Aux marks a zero-length edge introduced by confluence resolution.
	Aux bool
}

// Graph is a directed stream network: edges flow from upstream nodes to
// downstream nodes. After construction and confluence resolution it is a
// forest of single-outlet trees.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	nodes    map[NodeID]*Node
	edges    map[int]*Edge
	nextNode NodeID
	nextCat  int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[NodeID]*Node),
		edges:    make(map[int]*Edge),
		nextNode: 1,
		nextCat:  1,
	}
}

// AddNode creates a node at the given position and returns it.
// Node ids are assigned sequentially in creation order.
func (g *Graph) AddNode(pos geom.Point) *Node {
	n := &Node{ID: g.nextNode, Pos: pos}
	g.nodes[n.ID] = n
	g.nextNode++
	return n
}

// PutNode inserts a node with an explicit id, used when restoring a
// persisted graph. Returns ErrDuplicateNode if the id is taken.
func (g *Graph) PutNode(n Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
	}
	node := n
	g.nodes[node.ID] = &node
	if node.ID >= g.nextNode {
		g.nextNode = node.ID + 1
	}
	return nil
}

// AddEdge inserts an edge between two existing nodes and indexes it on both.
// The edge's Length is derived from its geometry. Returns ErrUnknownNode if
// either endpoint is missing or ErrDuplicateEdge when the raw id is taken.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.UpNode]; !ok {
		return fmt.Errorf("%w: up node %d of edge %d", ErrUnknownNode, e.UpNode, e.Cat)
	}
	if _, ok := g.nodes[e.DownNode]; !ok {
		return fmt.Errorf("%w: down node %d of edge %d", ErrUnknownNode, e.DownNode, e.Cat)
	}
	if _, exists := g.edges[e.Cat]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateEdge, e.Cat)
	}
	edge := e
	edge.Length = edge.Geom.Length()
	g.edges[edge.Cat] = &edge
	g.nodes[edge.UpNode].Out = append(g.nodes[edge.UpNode].Out, edge.Cat)
	g.nodes[edge.DownNode].In = append(g.nodes[edge.DownNode].In, edge.Cat)
	if edge.Cat >= g.nextCat {
		g.nextCat = edge.Cat + 1
	}
	return nil
}

// RemoveEdge deletes the edge with the given raw id and drops any endpoint
// node left without incident edges. Unknown ids are ignored.
func (g *Graph) RemoveEdge(cat int) {
	e, ok := g.edges[cat]
	if !ok {
		return
	}
	delete(g.edges, cat)
	g.detach(e.UpNode, cat)
	g.detach(e.DownNode, cat)
}

func (g *Graph) detach(id NodeID, cat int) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	n.In = slices.DeleteFunc(n.In, func(c int) bool { return c == cat })
	n.Out = slices.DeleteFunc(n.Out, func(c int) bool { return c == cat })
	if len(n.In) == 0 && len(n.Out) == 0 {
		delete(g.nodes, id)
	}
}

// NextCat returns a fresh raw edge id, used for auxiliary edges.
func (g *Graph) NextCat() int { return g.nextCat }

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given raw id.
func (g *Graph) Edge(cat int) (*Edge, bool) {
	e, ok := g.edges[cat]
	return e, ok
}

// Nodes returns all nodes sorted by id. The returned slice contains pointers
// to the live node structs.
func (g *Graph) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(g.nodes))
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns all edges sorted by raw id. The returned slice contains
// pointers to the live edge structs, so attribute assignment passes over
// this slice mutate the graph.
func (g *Graph) Edges() []*Edge {
	cats := slices.Sorted(maps.Keys(g.edges))
	out := make([]*Edge, len(cats))
	for i, cat := range cats {
		out[i] = g.edges[cat]
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// DownstreamEdge returns the edge that the given edge drains into, or false
// for the network's outlet edge.
func (g *Graph) DownstreamEdge(cat int) (*Edge, bool) {
	e, ok := g.edges[cat]
	if !ok {
		return nil, false
	}
	n := g.nodes[e.DownNode]
	if n == nil || len(n.Out) == 0 {
		return nil, false
	}
	return g.edges[n.Out[0]], true
}

// UpstreamEdges returns the edges flowing into the given edge's upstream
// node, sorted by raw id.
func (g *Graph) UpstreamEdges(cat int) []*Edge {
	e, ok := g.edges[cat]
	if !ok {
		return nil
	}
	n := g.nodes[e.UpNode]
	if n == nil {
		return nil
	}
	cats := slices.Clone(n.In)
	slices.Sort(cats)
	out := make([]*Edge, len(cats))
	for i, c := range cats {
		out[i] = g.edges[c]
	}
	return out
}

// OutletEdges returns every edge with no downstream edge, sorted by raw id.
// A well-formed forest has exactly one per network.
func (g *Graph) OutletEdges() []*Edge {
	var outlets []*Edge
	for _, e := range g.Edges() {
		if _, ok := g.DownstreamEdge(e.Cat); !ok {
			outlets = append(outlets, e)
		}
	}
	return outlets
}

// SourceEdges returns every edge whose upstream node has no inflows, sorted
// by raw id.
func (g *Graph) SourceEdges() []*Edge {
	var sources []*Edge
	for _, e := range g.Edges() {
		if n := g.nodes[e.UpNode]; n != nil && len(n.In) == 0 {
			sources = append(sources, e)
		}
	}
	return sources
}

// TotalLength returns the summed length of all edges.
func (g *Graph) TotalLength() float64 {
	var sum float64
	for _, e := range g.edges {
		sum += e.Length
	}
	return sum
}

// NetIDs returns the distinct network ids present, sorted ascending.
// Empty before [AssignIdentifiers] has run.
func (g *Graph) NetIDs() []int {
	seen := make(map[int]bool)
	for _, e := range g.edges {
		if e.NetID != 0 {
			seen[e.NetID] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// NetworkEdges returns the edges of one network, sorted by raw id.
func (g *Graph) NetworkEdges(netID int) []*Edge {
	var out []*Edge
	for _, e := range g.Edges() {
		if e.NetID == netID {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := New()
	c.nextNode = g.nextNode
	c.nextCat = g.nextCat
	for id, n := range g.nodes {
		cp := *n
		cp.In = slices.Clone(n.In)
		cp.Out = slices.Clone(n.Out)
		c.nodes[id] = &cp
	}
	for cat, e := range g.edges {
		cp := *e
		cp.Geom = slices.Clone(e.Geom)
		c.edges[cat] = &cp
	}
	return c
}

// Validate checks structural invariants and returns nil if the graph is a
// well-formed stream forest:
//
//  1. Adjacency indices are mutually consistent
//  2. No node has more than one outgoing edge (no braiding)
//  3. Following downstream links never revisits an edge (acyclic)
//
// Validate does not enforce the binary-merge inflow limit; that is
// established by [ResolveConfluences] and checked where it matters.
func (g *Graph) Validate() error {
	for _, n := range g.nodes {
		if len(n.Out) > 1 {
			return fmt.Errorf("%w: node %d has %d", ErrBraidedNode, n.ID, len(n.Out))
		}
		for _, cat := range append(slices.Clone(n.In), n.Out...) {
			if _, ok := g.edges[cat]; !ok {
				return fmt.Errorf("%w: node %d references edge %d", ErrUnknownEdge, n.ID, cat)
			}
		}
	}
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[int]int, len(g.edges))
	for _, start := range g.Edges() {
		if color[start.Cat] != white {
			continue
		}
		// Downstream out-degree is at most one, so each walk is a path.
		var path []int
		for e := start; ; {
			if color[e.Cat] == gray {
				return fmt.Errorf("%w: edge %d", ErrGraphHasCycle, e.Cat)
			}
			if color[e.Cat] == black {
				break
			}
			color[e.Cat] = gray
			path = append(path, e.Cat)
			next, ok := g.DownstreamEdge(e.Cat)
			if !ok {
				break
			}
			e = next
		}
		for _, cat := range path {
			color[cat] = black
		}
	}
	return nil
}

// componentCount returns the number of connected components, ignoring edge
// direction. Used as the defensive connectivity check around restructuring.
func (g *Graph) componentCount() int {
	parent := make(map[NodeID]NodeID, len(g.nodes))
	var find func(NodeID) NodeID
	find = func(x NodeID) NodeID {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for id := range g.nodes {
		parent[id] = id
	}
	for _, e := range g.edges {
		ru, rd := find(e.UpNode), find(e.DownNode)
		if ru != rd {
			parent[ru] = rd
		}
	}
	roots := make(map[NodeID]bool)
	for id := range g.nodes {
		roots[find(id)] = true
	}
	return len(roots)
}
