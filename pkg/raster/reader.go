package raster

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadASCIIGrid reads an ESRI ASCII grid file from disk.
func ReadASCIIGrid(path string) (*IntGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := ParseASCIIGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseASCIIGrid parses an ESRI ASCII grid: a header of keyword/value lines
// (ncols, nrows, xllcorner, yllcorner, cellsize, optional nodata_value)
// followed by rows*cols whitespace-separated cell values, northern row
// first. Fractional cell values are truncated toward zero; the formats this
// reader targets carry integer class and direction codes.
func ParseASCIIGrid(r io.Reader) (*IntGrid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	h := Header{Nodata: -9999}
	seen := map[string]bool{}
	var firstCell string

	for {
		tok, ok := next()
		if !ok {
			return nil, fmt.Errorf("unexpected end of header")
		}
		key := strings.ToLower(tok)
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			// First cell value; header is done.
			firstCell = tok
			break
		}

		val, ok := next()
		if !ok {
			return nil, fmt.Errorf("header keyword %q has no value", tok)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("header keyword %q: bad value %q", tok, val)
		}

		switch key {
		case "ncols":
			h.Cols = int(f)
		case "nrows":
			h.Rows = int(f)
		case "xllcorner":
			h.XMin = f
		case "yllcorner":
			h.YMin = f
		case "cellsize":
			h.CellSize = f
		case "nodata_value":
			h.Nodata = int32(f)
		default:
			return nil, fmt.Errorf("unknown header keyword %q", tok)
		}
		seen[key] = true
	}

	for _, req := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if !seen[req] {
			return nil, fmt.Errorf("missing required header keyword %q", req)
		}
	}
	if h.Rows <= 0 || h.Cols <= 0 {
		return nil, fmt.Errorf("invalid shape %dx%d", h.Rows, h.Cols)
	}
	if h.CellSize <= 0 {
		return nil, fmt.Errorf("invalid cellsize %v", h.CellSize)
	}

	g := &IntGrid{Header: h, Cells: make([]int32, h.Rows*h.Cols)}
	tok, i := firstCell, 0
	for {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("cell %d: bad value %q", i, tok)
		}
		if i >= len(g.Cells) {
			return nil, fmt.Errorf("more than %d cell values for %dx%d grid", len(g.Cells), h.Rows, h.Cols)
		}
		g.Cells[i] = int32(f)
		i++

		var ok bool
		tok, ok = next()
		if !ok {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if i != len(g.Cells) {
		return nil, fmt.Errorf("got %d cell values, want %d for %dx%d grid", i, len(g.Cells), h.Rows, h.Cols)
	}
	return g, nil
}
