// Package raster provides the aligned integer grids the extraction stage
// reads: a stream mask and a D8 flow-direction grid, both in ESRI ASCII
// layout with row 0 at the northern edge.
package raster

import (
	"errors"
	"fmt"

	"github.com/openfluvial/streamnet/pkg/geom"
)

var (
	// ErrEmptyGrid is returned by [IntGrid.Validate] for grids with no rows
	// or columns.
	ErrEmptyGrid = errors.New("empty grid")

	// ErrShapeMismatch is returned when a grid's cell slice does not match
	// its declared shape.
	ErrShapeMismatch = errors.New("cell count does not match declared shape")

	// ErrOutOfBounds is returned by bounds-checked accessors.
	ErrOutOfBounds = errors.New("cell outside grid")
)

// FlowDir is a D8 flow-direction code. Codes are the power-of-two compass
// encoding: east is 1 and the remaining directions follow clockwise.
type FlowDir int32

const (
	DirNone FlowDir = 0
	DirE    FlowDir = 1
	DirSE   FlowDir = 2
	DirS    FlowDir = 4
	DirSW   FlowDir = 8
	DirW    FlowDir = 16
	DirNW   FlowDir = 32
	DirN    FlowDir = 64
	DirNE   FlowDir = 128
)

// d8Offsets maps each direction code to its (row, col) step. Row offsets
// grow southward because row 0 is the northern edge.
var d8Offsets = map[FlowDir][2]int{
	DirE:  {0, 1},
	DirSE: {1, 1},
	DirS:  {1, 0},
	DirSW: {1, -1},
	DirW:  {0, -1},
	DirNW: {-1, -1},
	DirN:  {-1, 0},
	DirNE: {-1, 1},
}

// Valid reports whether d is one of the eight D8 codes.
func (d FlowDir) Valid() bool {
	_, ok := d8Offsets[d]
	return ok
}

// Step returns the row and column offsets for the direction. The zero
// offsets are returned for invalid codes.
func (d FlowDir) Step() (dr, dc int) {
	off := d8Offsets[d]
	return off[0], off[1]
}

// Header describes a grid's shape and georeference. XMin and YMin locate the
// lower-left corner of the lower-left cell.
type Header struct {
	Rows     int
	Cols     int
	CellSize float64
	XMin     float64
	YMin     float64
	Nodata   int32
}

// SameShape reports whether two headers describe aligned grids: identical
// shape, cell size, and origin.
func (h Header) SameShape(other Header) bool {
	return h.Rows == other.Rows && h.Cols == other.Cols &&
		h.CellSize == other.CellSize && h.XMin == other.XMin && h.YMin == other.YMin
}

// CellCenter returns the map coordinates of the center of cell (r, c).
// Row 0 is the northern row, so y decreases as r grows.
func (h Header) CellCenter(r, c int) geom.Point {
	return geom.Point{
		X: h.XMin + (float64(c)+0.5)*h.CellSize,
		Y: h.YMin + (float64(h.Rows-r)-0.5)*h.CellSize,
	}
}

// IntGrid is a dense row-major integer grid.
type IntGrid struct {
	Header
	Cells []int32
}

// NewIntGrid allocates a grid for the header's shape with every cell set to
// the header's nodata value.
func NewIntGrid(h Header) *IntGrid {
	g := &IntGrid{Header: h, Cells: make([]int32, h.Rows*h.Cols)}
	for i := range g.Cells {
		g.Cells[i] = h.Nodata
	}
	return g
}

// Validate checks that the grid is non-empty and its cell slice matches the
// declared shape.
func (g *IntGrid) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyGrid, g.Rows, g.Cols)
	}
	if len(g.Cells) != g.Rows*g.Cols {
		return fmt.Errorf("%w: %d cells for %dx%d", ErrShapeMismatch, len(g.Cells), g.Rows, g.Cols)
	}
	return nil
}

// InBounds reports whether (r, c) lies inside the grid.
func (g *IntGrid) InBounds(r, c int) bool {
	return r >= 0 && r < g.Rows && c >= 0 && c < g.Cols
}

// At returns the value at (r, c). Callers are expected to stay in bounds.
func (g *IntGrid) At(r, c int) int32 {
	return g.Cells[r*g.Cols+c]
}

// Set writes the value at (r, c).
func (g *IntGrid) Set(r, c int, v int32) {
	g.Cells[r*g.Cols+c] = v
}

// IsNodata reports whether the cell holds the nodata value.
func (g *IntGrid) IsNodata(r, c int) bool {
	return g.At(r, c) == g.Nodata
}

// Downstream resolves the D8 code stored at (r, c) into the neighboring cell
// it drains to. ok is false when the cell holds nodata or an invalid code;
// the returned cell may lie outside the grid, which callers distinguish with
// [IntGrid.InBounds].
func (g *IntGrid) Downstream(r, c int) (nr, nc int, ok bool) {
	if g.IsNodata(r, c) {
		return 0, 0, false
	}
	d := FlowDir(g.At(r, c))
	if !d.Valid() {
		return 0, 0, false
	}
	dr, dc := d.Step()
	return r + dr, c + dc, true
}
