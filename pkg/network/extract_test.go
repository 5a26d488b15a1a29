package network

import (
	"math"
	"testing"

	snerrors "github.com/openfluvial/streamnet/pkg/errors"
	"github.com/openfluvial/streamnet/pkg/raster"
)

// testGrid builds an aligned raster with the given cell values; all other
// cells hold nodata.
func testGrid(rows, cols int, cells map[[2]int]int32) *raster.IntGrid {
	g := raster.NewIntGrid(raster.Header{
		Rows: rows, Cols: cols, CellSize: 10, Nodata: -9999,
	})
	for rc, v := range cells {
		g.Set(rc[0], rc[1], v)
	}
	return g
}

func streamMask(rows, cols int, cells [][2]int) *raster.IntGrid {
	m := make(map[[2]int]int32, len(cells))
	for _, rc := range cells {
		m[rc] = 1
	}
	return testGrid(rows, cols, m)
}

func TestExtractStraightRun(t *testing.T) {
	cells := [][2]int{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}}
	streams := streamMask(1, 5, cells)
	flowdir := testGrid(1, 5, map[[2]int]int32{
		{0, 0}: int32(raster.DirE), {0, 1}: int32(raster.DirE), {0, 2}: int32(raster.DirE),
		{0, 3}: int32(raster.DirE), {0, 4}: int32(raster.DirE), // drains off-grid
	})

	g, err := Extract(streams, flowdir, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if g.EdgeCount() != 1 || g.NodeCount() != 2 {
		t.Fatalf("got %d edges, %d nodes; want 1 edge between 2 nodes", g.EdgeCount(), g.NodeCount())
	}
	e, _ := g.Edge(1)
	if len(e.Geom) != 5 {
		t.Errorf("polyline has %d vertices, want 5 cell centers", len(e.Geom))
	}
	if math.Abs(e.Length-40) > 1e-9 {
		t.Errorf("length = %v, want 40", e.Length)
	}
}

func TestExtractYJunction(t *testing.T) {
	streams := streamMask(3, 3, [][2]int{{0, 0}, {0, 2}, {1, 1}, {2, 1}})
	flowdir := testGrid(3, 3, map[[2]int]int32{
		{0, 0}: int32(raster.DirSE),
		{0, 2}: int32(raster.DirSW),
		{1, 1}: int32(raster.DirS),
		{2, 1}: int32(raster.DirS), // off-grid outlet
	})

	g, err := Extract(streams, flowdir, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if g.EdgeCount() != 3 || g.NodeCount() != 4 {
		t.Fatalf("got %d edges, %d nodes; want 3 edges, 4 nodes", g.EdgeCount(), g.NodeCount())
	}
	outlets := g.OutletEdges()
	if len(outlets) != 1 {
		t.Fatalf("outlets = %d, want 1", len(outlets))
	}
	if got := len(g.UpstreamEdges(outlets[0].Cat)); got != 2 {
		t.Errorf("outlet has %d inflows, want 2", got)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestExtractComplexJunction(t *testing.T) {
	streams := streamMask(3, 3, [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {2, 1}})
	flowdir := testGrid(3, 3, map[[2]int]int32{
		{0, 0}: int32(raster.DirSE),
		{0, 1}: int32(raster.DirS),
		{0, 2}: int32(raster.DirSW),
		{1, 0}: int32(raster.DirE),
		{1, 1}: int32(raster.DirS),
		{2, 1}: int32(raster.DirS),
	})

	g, err := Extract(streams, flowdir, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if !HasComplexConfluences(g) {
		t.Fatal("4-way junction not detected as complex confluence")
	}
	if g.EdgeCount() != 5 {
		t.Errorf("edges = %d, want 5 (4 inflows + 1 outflow)", g.EdgeCount())
	}
}

func TestExtractCleanMergesSpur(t *testing.T) {
	cells := [][2]int{{0, 2}, {1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}}
	streams := streamMask(3, 5, cells)
	flowdir := testGrid(3, 5, map[[2]int]int32{
		{0, 2}: int32(raster.DirS), // short spur into the main stem
		{1, 0}: int32(raster.DirE),
		{1, 1}: int32(raster.DirE),
		{1, 2}: int32(raster.DirE),
		{1, 3}: int32(raster.DirE),
		{1, 4}: int32(raster.DirE),
	})

	dirty, err := Extract(streams, flowdir, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract (no clean): %v", err)
	}
	if dirty.EdgeCount() != 3 {
		t.Fatalf("without clean: %d edges, want 3", dirty.EdgeCount())
	}

	g, err := Extract(streams, flowdir, ExtractOptions{Clean: true, MinSegmentLength: 15})
	if err != nil {
		t.Fatalf("Extract (clean): %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("with clean: %d edges, want 1 merged stem", g.EdgeCount())
	}
	e := g.Edges()[0]
	if math.Abs(e.Length-40) > 1e-9 {
		t.Errorf("merged stem length = %v, want 40", e.Length)
	}
}

func TestExtractErrors(t *testing.T) {
	okStreams := streamMask(1, 2, [][2]int{{0, 0}, {0, 1}})
	okFlow := testGrid(1, 2, map[[2]int]int32{
		{0, 0}: int32(raster.DirE),
		{0, 1}: int32(raster.DirE),
	})

	tests := []struct {
		name    string
		streams *raster.IntGrid
		flowdir *raster.IntGrid
	}{
		{
			name:    "EmptyStreamRaster",
			streams: &raster.IntGrid{},
			flowdir: okFlow,
		},
		{
			name:    "NoStreamCells",
			streams: streamMask(1, 2, nil),
			flowdir: okFlow,
		},
		{
			name:    "MisalignedShapes",
			streams: okStreams,
			flowdir: testGrid(2, 2, nil),
		},
		{
			name:    "MissingFlowDirection",
			streams: okStreams,
			flowdir: testGrid(1, 2, map[[2]int]int32{{0, 0}: int32(raster.DirE)}),
		},
		{
			name:    "InvalidFlowCode",
			streams: okStreams,
			flowdir: testGrid(1, 2, map[[2]int]int32{{0, 0}: 3, {0, 1}: int32(raster.DirE)}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.streams, tt.flowdir, ExtractOptions{})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !snerrors.Is(err, snerrors.ErrCodeExtraction) {
				t.Errorf("error code = %v, want GRAPH_EXTRACTION (%v)", snerrors.GetCode(err), err)
			}
		})
	}
}

func TestExtractDeterministicCats(t *testing.T) {
	streams := streamMask(3, 3, [][2]int{{0, 0}, {0, 2}, {1, 1}, {2, 1}})
	flowdir := testGrid(3, 3, map[[2]int]int32{
		{0, 0}: int32(raster.DirSE),
		{0, 2}: int32(raster.DirSW),
		{1, 1}: int32(raster.DirS),
		{2, 1}: int32(raster.DirS),
	})

	first, err := Extract(streams, flowdir, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	second, err := Extract(streams, flowdir, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	a, b := first.Edges(), second.Edges()
	for i := range a {
		if a[i].Cat != b[i].Cat || a[i].UpNode != b[i].UpNode || a[i].DownNode != b[i].DownNode {
			t.Fatalf("edge %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
