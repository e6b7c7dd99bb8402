package bridge

import (
	"github.com/pkg/errors"

	"naparij/pkg/napari"
)

// ShapeLine is the shape type of imported pairs
const ShapeLine = "line"

// GetPairs reads a results table whose first six columns hold two (x, y, z)
// points per row and adds a shapes layer with one line per row. The
// segments are not checked geometrically.
func (b *Bridge) GetPairs(tableName string) (*napari.Shapes, error) {
	table := b.rt.Tables().Get(tableName)
	if table == nil {
		return nil, errors.Wrapf(ErrMissingTable, "%q", tableName)
	}
	headings := Headings(table.ColumnHeadings())
	if len(headings) < 6 {
		return nil, errors.Wrapf(ErrMalformedTable, "%q has %d columns, pairs need 6", tableName, len(headings))
	}

	cols := make([][]float64, 6)
	for i := range cols {
		cols[i] = table.Column(i)
	}
	n := minLen(cols...)

	lines := make([]napari.Line, n)
	for i := 0; i < n; i++ {
		lines[i] = napari.Line{
			{cols[2][i], cols[1][i], cols[0][i]},
			{cols[5][i], cols[4][i], cols[3][i]},
		}
	}

	shapes := b.viewer.AddShapes(lines, tableName, ShapeLine, nil)
	b.log.Info("Displayed pairs", "table", tableName, "lines", n)
	return shapes, nil
}
