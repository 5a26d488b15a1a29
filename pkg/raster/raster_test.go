package raster

import (
	"math"
	"strings"
	"testing"
)

func TestCellCenter(t *testing.T) {
	h := Header{Rows: 3, Cols: 4, CellSize: 10, XMin: 100, YMin: 200}

	// Row 0 is the northern edge.
	top := h.CellCenter(0, 0)
	if top.X != 105 || top.Y != 225 {
		t.Errorf("CellCenter(0,0) = %v, want (105, 225)", top)
	}
	bottom := h.CellCenter(2, 3)
	if bottom.X != 135 || bottom.Y != 205 {
		t.Errorf("CellCenter(2,3) = %v, want (135, 205)", bottom)
	}

	// Adjacent cells are exactly one cell size apart.
	d := h.CellCenter(1, 1).DistanceTo(h.CellCenter(1, 2))
	if math.Abs(d-10) > 1e-9 {
		t.Errorf("horizontal neighbor distance = %v, want 10", d)
	}
}

func TestFlowDirStep(t *testing.T) {
	tests := []struct {
		dir    FlowDir
		dr, dc int
	}{
		{dir: DirE, dr: 0, dc: 1},
		{dir: DirSE, dr: 1, dc: 1},
		{dir: DirS, dr: 1, dc: 0},
		{dir: DirSW, dr: 1, dc: -1},
		{dir: DirW, dr: 0, dc: -1},
		{dir: DirNW, dr: -1, dc: -1},
		{dir: DirN, dr: -1, dc: 0},
		{dir: DirNE, dr: -1, dc: 1},
	}
	for _, tt := range tests {
		if !tt.dir.Valid() {
			t.Errorf("Valid(%d) = false", tt.dir)
		}
		dr, dc := tt.dir.Step()
		if dr != tt.dr || dc != tt.dc {
			t.Errorf("Step(%d) = (%d,%d), want (%d,%d)", tt.dir, dr, dc, tt.dr, tt.dc)
		}
	}
	for _, bad := range []FlowDir{DirNone, 3, 5, 255, -1} {
		if bad.Valid() {
			t.Errorf("Valid(%d) = true for invalid code", bad)
		}
	}
}

func TestDownstream(t *testing.T) {
	g := NewIntGrid(Header{Rows: 2, Cols: 2, CellSize: 1, Nodata: -9999})
	g.Set(0, 0, int32(DirSE))
	g.Set(1, 1, int32(DirE)) // drains off-grid
	g.Set(1, 0, 3)           // invalid code

	if nr, nc, ok := g.Downstream(0, 0); !ok || nr != 1 || nc != 1 {
		t.Errorf("Downstream(0,0) = (%d,%d,%v), want (1,1,true)", nr, nc, ok)
	}
	if nr, nc, ok := g.Downstream(1, 1); !ok || g.InBounds(nr, nc) {
		t.Errorf("Downstream(1,1) = (%d,%d,%v), want valid step off-grid", nr, nc, ok)
	}
	if _, _, ok := g.Downstream(1, 0); ok {
		t.Error("Downstream accepted invalid flow code")
	}
	if _, _, ok := g.Downstream(0, 1); ok {
		t.Error("Downstream accepted nodata cell")
	}
}

func TestValidate(t *testing.T) {
	if err := (&IntGrid{}).Validate(); err == nil {
		t.Error("empty grid passed Validate")
	}
	bad := &IntGrid{Header: Header{Rows: 2, Cols: 2}, Cells: make([]int32, 3)}
	if err := bad.Validate(); err == nil {
		t.Error("shape mismatch passed Validate")
	}
	if err := NewIntGrid(Header{Rows: 2, Cols: 2}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSameShape(t *testing.T) {
	h := Header{Rows: 2, Cols: 3, CellSize: 10, XMin: 1, YMin: 2}
	if !h.SameShape(h) {
		t.Error("header not aligned with itself")
	}
	for _, other := range []Header{
		{Rows: 3, Cols: 3, CellSize: 10, XMin: 1, YMin: 2},
		{Rows: 2, Cols: 3, CellSize: 5, XMin: 1, YMin: 2},
		{Rows: 2, Cols: 3, CellSize: 10, XMin: 0, YMin: 2},
	} {
		if h.SameShape(other) {
			t.Errorf("SameShape(%+v) = true", other)
		}
	}
}

func TestParseASCIIGrid(t *testing.T) {
	const src = `ncols 3
nrows 2
xllcorner 100.0
yllcorner 200.0
cellsize 10.0
NODATA_value -1
1 2 4
-1 0 128
`
	g, err := ParseASCIIGrid(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseASCIIGrid: %v", err)
	}
	if g.Rows != 2 || g.Cols != 3 || g.CellSize != 10 || g.XMin != 100 || g.YMin != 200 {
		t.Errorf("header = %+v", g.Header)
	}
	if g.Nodata != -1 {
		t.Errorf("Nodata = %d, want -1", g.Nodata)
	}
	if g.At(0, 2) != 4 || g.At(1, 2) != 128 {
		t.Errorf("cells = %v", g.Cells)
	}
	if !g.IsNodata(1, 0) {
		t.Error("IsNodata(1,0) = false")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseASCIIGridDefaultsNodata(t *testing.T) {
	g, err := ParseASCIIGrid(strings.NewReader("ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n7\n"))
	if err != nil {
		t.Fatalf("ParseASCIIGrid: %v", err)
	}
	if g.Nodata != -9999 {
		t.Errorf("Nodata = %d, want default -9999", g.Nodata)
	}
}

func TestParseASCIIGridErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "MissingKeyword", src: "ncols 2\nnrows 2\ncellsize 1\n1 2 3 4\n"},
		{name: "UnknownKeyword", src: "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\nbogus 3\n1 2 3 4\n"},
		{name: "TooFewCells", src: "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n"},
		{name: "TooManyCells", src: "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3 4 5\n"},
		{name: "BadCellValue", src: "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 oops\n"},
		{name: "ZeroShape", src: "ncols 0\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n"},
		{name: "BadCellSize", src: "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize -2\n1\n"},
		{name: "Empty", src: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseASCIIGrid(strings.NewReader(tt.src)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
