package network

import (
	"slices"

	"github.com/openfluvial/streamnet/pkg/errors"
	"github.com/openfluvial/streamnet/pkg/geom"
	"github.com/openfluvial/streamnet/pkg/raster"
)

// ExtractOptions configures raster-to-graph extraction.
type ExtractOptions struct {
	// MinSegmentLength is the length below which a source segment counts
	// as spurious. Only consulted when Clean is set.
	MinSegmentLength float64
	// Clean removes source segments shorter than MinSegmentLength and
	// dissolves the pass-through junctions left behind, merging the two
	// remaining segments into one.
	Clean bool
}

// Extract builds the initial edge/node graph from a raster stream mask and a
// D8 flow-direction raster.
//
// Every maximal run of stream cells between two topological junctions
// (source, confluence, or outlet) becomes exactly one edge whose polyline
// follows the cell centers; junction cells become nodes. Raw edge ids are
// assigned in row-major order of each run's starting cell, so identical
// rasters always yield identical ids.
//
// Extract returns a GRAPH_EXTRACTION error when a raster is empty, the two
// rasters are not aligned, the mask holds no stream cells, or a stream cell
// carries no valid flow direction.
func Extract(streams, flowdir *raster.IntGrid, opts ExtractOptions) (*Graph, error) {
	if err := streams.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtraction, err, "stream raster")
	}
	if err := flowdir.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtraction, err, "flow-direction raster")
	}
	if !streams.SameShape(flowdir.Header) {
		return nil, errors.New(errors.ErrCodeExtraction,
			"stream raster (%dx%d) and flow-direction raster (%dx%d) are not aligned",
			streams.Rows, streams.Cols, flowdir.Rows, flowdir.Cols)
	}

	ex := &extractor{streams: streams, flowdir: flowdir}
	if err := ex.scan(); err != nil {
		return nil, err
	}

	g, err := ex.trace()
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtraction, err, "flow directions form an invalid network")
	}

	if opts.Clean {
		clean(g, opts.MinSegmentLength)
	}
	return g, nil
}

type cell struct{ r, c int }

type extractor struct {
	streams *raster.IntGrid
	flowdir *raster.IntGrid

	cells  []cell        // stream cells in row-major order
	isCell map[cell]bool // membership of cells
	down   map[cell]cell // downstream stream cell, absent for outlets
	inflow map[cell]int  // count of stream cells draining in
}

// scan collects the stream cells and their downstream links.
func (ex *extractor) scan() error {
	ex.isCell = make(map[cell]bool)
	ex.down = make(map[cell]cell)
	ex.inflow = make(map[cell]int)

	for r := 0; r < ex.streams.Rows; r++ {
		for c := 0; c < ex.streams.Cols; c++ {
			if ex.streams.IsNodata(r, c) || ex.streams.At(r, c) <= 0 {
				continue
			}
			cl := cell{r, c}
			ex.cells = append(ex.cells, cl)
			ex.isCell[cl] = true
		}
	}
	if len(ex.cells) == 0 {
		return errors.New(errors.ErrCodeExtraction, "stream raster contains no stream cells")
	}

	for _, cl := range ex.cells {
		nr, nc, ok := ex.flowdir.Downstream(cl.r, cl.c)
		if !ok {
			return errors.New(errors.ErrCodeExtraction,
				"stream cell (%d,%d) has no valid flow direction", cl.r, cl.c)
		}
		dcell := cell{nr, nc}
		if !ex.isCell[dcell] {
			// Drains off the grid or onto dry land: this cell is an outlet.
			continue
		}
		ex.down[cl] = dcell
		ex.inflow[dcell]++
	}
	return nil
}

// isAnchor reports whether the cell starts or ends a run: a source (no
// inflows), a confluence (two or more inflows), or an outlet.
func (ex *extractor) isAnchor(cl cell) bool {
	if ex.inflow[cl] != 1 {
		return true
	}
	_, hasDown := ex.down[cl]
	return !hasDown
}

// trace walks each run from its starting anchor to the next anchor,
// producing one edge per run.
func (ex *extractor) trace() (*Graph, error) {
	g := New()
	nodeAt := make(map[cell]NodeID)
	node := func(cl cell) NodeID {
		if id, ok := nodeAt[cl]; ok {
			return id
		}
		n := g.AddNode(ex.streams.CellCenter(cl.r, cl.c))
		nodeAt[cl] = n.ID
		return n.ID
	}

	cat := 1
	for _, start := range ex.cells {
		if !ex.isAnchor(start) {
			continue
		}
		next, ok := ex.down[start]
		if !ok {
			continue // outlet with no outgoing run
		}

		poly := geom.Polyline{ex.streams.CellCenter(start.r, start.c)}
		cur := next
		for !ex.isAnchor(cur) {
			poly = append(poly, ex.streams.CellCenter(cur.r, cur.c))
			cur = ex.down[cur]
		}
		poly = append(poly, ex.streams.CellCenter(cur.r, cur.c))

		err := g.AddEdge(Edge{
			Cat:      cat,
			Geom:     poly,
			UpNode:   node(start),
			DownNode: node(cur),
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeExtraction, err, "trace run from cell (%d,%d)", start.r, start.c)
		}
		cat++
	}

	if g.EdgeCount() == 0 {
		return nil, errors.New(errors.ErrCodeExtraction, "stream raster yields no reaches")
	}
	return g, nil
}

// clean drops source edges shorter than minLen and dissolves the pass-through
// nodes left behind so the two adjacent segments merge into one. Iterates
// until no sub-threshold source edge remains, since a merge can expose a new
// short source segment.
func clean(g *Graph, minLen float64) {
	if minLen <= 0 {
		return
	}
	for {
		removed := false
		for _, e := range g.SourceEdges() {
			if e.Length >= minLen {
				continue
			}
			if _, ok := g.DownstreamEdge(e.Cat); !ok {
				continue // sole edge of a tiny network; keep it
			}
			g.RemoveEdge(e.Cat)
			removed = true
		}
		if !removed {
			break
		}
		dissolvePassThrough(g)
	}
}

// dissolvePassThrough merges the in/out edge pair at every node with exactly
// one inflow and one outflow. The merged edge keeps the upstream edge's raw
// id and concatenates the geometries.
func dissolvePassThrough(g *Graph) {
	for {
		merged := false
		for _, n := range g.Nodes() {
			if len(n.In) != 1 || len(n.Out) != 1 {
				continue
			}
			up, _ := g.Edge(n.In[0])
			down, _ := g.Edge(n.Out[0])

			poly := slices.Clone(up.Geom)
			if len(down.Geom) > 1 {
				poly = append(poly, down.Geom[1:]...)
			}
			cat, upNode, downNode := up.Cat, up.UpNode, down.DownNode
			g.RemoveEdge(up.Cat)
			g.RemoveEdge(down.Cat)
			// Endpoint nodes survive the removals because each still has
			// another incident edge or is re-anchored by the merged edge.
			if _, ok := g.Node(upNode); !ok {
				if err := g.PutNode(Node{ID: upNode, Pos: poly[0]}); err != nil {
					panic(err)
				}
			}
			if _, ok := g.Node(downNode); !ok {
				if err := g.PutNode(Node{ID: downNode, Pos: poly[len(poly)-1]}); err != nil {
					panic(err)
				}
			}
			// Cannot fail: both endpoints exist and the upstream id was freed.
			if err := g.AddEdge(Edge{Cat: cat, Geom: poly, UpNode: upNode, DownNode: downNode}); err != nil {
				panic(err)
			}
			merged = true
			break
		}
		if !merged {
			return
		}
	}
}
