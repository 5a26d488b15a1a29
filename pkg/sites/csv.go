package sites

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/openfluvial/streamnet/pkg/errors"
	"github.com/openfluvial/streamnet/pkg/geom"
)

// ReadCSV imports a point set from CSV. The header row must contain x and y
// columns (case-insensitive) holding map-unit coordinates; every other
// column is kept as an attribute. Feature ids are assigned by row order.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeArgument, "point set %q is empty", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read point set %q header", name)
	}

	xCol, yCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "x":
			xCol = i
		case "y":
			yCol = i
		}
	}
	if xCol < 0 || yCol < 0 {
		return nil, errors.New(errors.ErrCodeArgument,
			"point set %q needs x and y columns, got %v", name, header)
	}

	tbl := NewTable(name)
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "read point set %q row %d", name, row)
		}
		row++

		x, err := strconv.ParseFloat(strings.TrimSpace(record[xCol]), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeArgument,
				"point set %q row %d: bad x value %q", name, row, record[xCol])
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(record[yCol]), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeArgument,
				"point set %q row %d: bad y value %q", name, row, record[yCol])
		}

		var attrs map[string]string
		for i, col := range header {
			if i == xCol || i == yCol || i >= len(record) {
				continue
			}
			if attrs == nil {
				attrs = make(map[string]string)
			}
			attrs[strings.TrimSpace(col)] = record[i]
		}
		tbl.Add(geom.Point{X: x, Y: y}, attrs)
	}

	if tbl.Len() == 0 {
		return nil, errors.New(errors.ErrCodeArgument, "point set %q has no rows", name)
	}
	return tbl, nil
}
