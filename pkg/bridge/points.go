package bridge

import (
	"strings"

	"github.com/pkg/errors"

	"naparij/internal/models"
	"naparij/pkg/colormap"
	"naparij/pkg/ij"
	"naparij/pkg/napari"
	"naparij/pkg/threshold"
)

// Export column names, in the order they are written
const (
	ColumnX = "X"
	ColumnY = "Y"
	ColumnZ = "Z"
	ColumnV = "V"
)

// ContrastLimits are the fixed limits of the confidence colormap
var ContrastLimits = [2]float64{0, 1}

// Headings splits tab-separated column headings, dropping the blank
// row-label entry
func Headings(s string) []string {
	var out []string
	for _, h := range strings.Split(s, "\t") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// ResolveConfidenceColumn returns the first candidate present in headings
// and its position, or "", -1 when none is
func ResolveConfidenceColumn(headings, candidates []string) (string, int) {
	for _, c := range candidates {
		for i, h := range headings {
			if h == c {
				return h, i
			}
		}
	}
	return "", -1
}

// ReadRows reads point rows from the first three columns of table. A
// negative confidence index gives every row confidence 1.
func ReadRows(table ij.Table, confidence int) []models.ResultRow {
	xs, ys, zs := table.Column(0), table.Column(1), table.Column(2)
	var vs []float64
	if confidence >= 0 {
		vs = table.Column(confidence)
	}

	n := minLen(xs, ys, zs)
	rows := make([]models.ResultRow, n)
	for i := 0; i < n; i++ {
		rows[i] = models.ResultRow{X: xs[i], Y: ys[i], Z: zs[i], Confidence: 1}
		if vs != nil && i < len(vs) {
			rows[i].Confidence = vs[i]
		}
	}
	return rows
}

func minLen(cols ...[]float64) int {
	n := -1
	for _, c := range cols {
		if n < 0 || len(c) < n {
			n = len(c)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// DisplayPoints reads the results table called tableName and adds a points
// layer with one point per row. Coordinates are stored in the table as
// (x, y, z) and become (z, y, x) points. The confidence column is resolved
// once here and kept in the layer's threshold state.
func (b *Bridge) DisplayPoints(tableName, cmName string) (*napari.Points, error) {
	table := b.rt.Tables().Get(tableName)
	if table == nil {
		return nil, errors.Wrapf(ErrMissingTable, "%q", tableName)
	}

	headings := Headings(table.ColumnHeadings())
	if len(headings) < 3 {
		return nil, errors.Wrapf(ErrMalformedTable, "%q has %d columns, points need 3", tableName, len(headings))
	}

	column, idx := ResolveConfidenceColumn(headings, b.opts.ConfidenceColumns)
	if idx < 0 {
		b.log.Warn("Showing points without filtering",
			"table", tableName, "error", ErrNoConfidenceColumn, "headings", headings, "candidates", b.opts.ConfidenceColumns)
	}

	cm, err := colormap.Get(cmName)
	if err != nil {
		return nil, err
	}

	rows := ReadRows(table, idx)
	coords := make([]napari.Point, len(rows))
	confidence := make([]float64, len(rows))
	for i, r := range rows {
		coords[i] = napari.Point{r.Z, r.Y, r.X}
		confidence[i] = r.Confidence
	}

	points := b.viewer.AddPoints(coords, napari.PointsOptions{
		Name:               tableName,
		Properties:         map[string][]float64{threshold.ConfidenceProperty: confidence},
		FaceColor:          threshold.ConfidenceProperty,
		FaceColormap:       colormap.Crop(cm),
		FaceContrastLimits: ContrastLimits,
		Size:               b.opts.PointSize,
	})
	b.engine.Register(points, column)

	b.log.Info("Displayed points", "table", tableName, "points", len(coords), "confidence", column)
	return points, nil
}

// PointsToIJ writes the points with a live confidence above zero to a
// results table named after the layer. An open table with that name is
// closed first without asking to save it. It returns the number of rows
// written.
func (b *Bridge) PointsToIJ(points *napari.Points) (int, error) {
	if points == nil {
		return 0, errors.New("no points layer selected")
	}
	live := points.Property(threshold.ConfidenceProperty)
	name := points.Name()

	store := b.rt.Tables()
	if store.Get(name) != nil {
		store.Close(name)
		b.log.Debug("Replaced open results table", "table", name)
	}

	table := store.Create()
	row := 0
	for i, p := range points.Coords {
		v := 1.0
		if live != nil {
			if i >= len(live) {
				break
			}
			v = live[i]
		}
		if v <= 0 {
			continue
		}
		table.SetValue(ColumnX, row, p[2])
		table.SetValue(ColumnY, row, p[1])
		table.SetValue(ColumnZ, row, p[0])
		table.SetValue(ColumnV, row, v)
		row++
	}
	table.Show(name)

	b.log.Info("Sent points", "table", name, "rows", row, "dropped", len(points.Coords)-row)
	return row, nil
}

// CycleColormap gives points the next colormap in the configured cycle
func (b *Bridge) CycleColormap(points *napari.Points) error {
	if points == nil || len(b.opts.Colormaps) == 0 {
		return nil
	}
	name := b.opts.Colormaps[b.colormapID%len(b.opts.Colormaps)]
	cm, err := colormap.Get(name)
	if err != nil {
		return err
	}
	points.FaceColormap = colormap.Crop(cm)
	b.colormapID = (b.colormapID + 1) % len(b.opts.Colormaps)
	points.RefreshColors()
	return nil
}
