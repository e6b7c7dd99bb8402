package layerio

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"

	"naparij/pkg/colormap"
	"naparij/pkg/napari"
	"naparij/pkg/ndarray"
)

// Load recreates the layers saved in dir inside viewer. Spatial layers get a
// scale of (zFactor, 1, 1) trimmed to their dimensionality, with zFactor
// taken from the saved calibration. Entries with an unknown type are logged
// and opened as plain images.
func Load(dir string, viewer napari.Viewer, logger *slog.Logger) ([]napari.Layer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	zFactor := m.Calibration.ZFactor()

	var layers []napari.Layer
	for _, e := range m.Layers {
		path := filepath.Join(dir, e.Filename)
		var layer napari.Layer
		switch napari.Kind(e.Type) {
		case napari.KindImage:
			data, err := loadArray(path, e)
			if err != nil {
				return layers, errors.Wrapf(err, "loading layer %q", e.Name)
			}
			layer = viewer.AddImage(data, napari.ImageOptions{
				Name:     e.Name,
				Colormap: e.Colormap,
				Blending: "additive",
				Scale:    scaleFor(zFactor, data.NDim()),
			})
		case napari.KindLabels:
			data, err := loadArray(path, e)
			if err != nil {
				return layers, errors.Wrapf(err, "loading layer %q", e.Name)
			}
			layer = viewer.AddLabels(data, e.Name, scaleFor(zFactor, data.NDim()))
		case napari.KindPoints:
			coords, props, err := loadPoints(path)
			if err != nil {
				return layers, errors.Wrapf(err, "loading layer %q", e.Name)
			}
			cm, err := colormap.Get(e.Colormap)
			if err != nil {
				cm, _ = colormap.Get("viridis")
			}
			layer = viewer.AddPoints(coords, napari.PointsOptions{
				Name:               e.Name,
				Properties:         props,
				FaceColor:          "confidence",
				FaceColormap:       colormap.Crop(cm),
				FaceContrastLimits: [2]float64{0, 1},
				Size:               3,
				Scale:              scaleFor(zFactor, 3),
			})
		case napari.KindShapes:
			lines, shapeType, err := loadShapes(path)
			if err != nil {
				return layers, errors.Wrapf(err, "loading layer %q", e.Name)
			}
			layer = viewer.AddShapes(lines, e.Name, shapeType, scaleFor(zFactor, 3))
		default:
			logger.Warn("Opening layer without styling", "layer", e.Name, "type", e.Type, "error", ErrUnsupportedLayerType)
			data, err := loadArray(path, e)
			if err != nil {
				logger.Warn("Could not open layer", "layer", e.Name, "file", e.Filename, "error", err)
				continue
			}
			layer = viewer.AddImage(data, napari.ImageOptions{Name: e.Name})
		}
		layers = append(layers, layer)
	}

	if m.Unit != "" {
		viewer.SetScaleBarUnit(m.Unit)
	}
	logger.Info("Loaded layers", "dir", dir, "layers", len(layers), "zFactor", zFactor)
	return layers, nil
}

// scaleFor returns the trailing ndim entries of (zFactor, 1, 1), padded with
// leading ones for arrays of more than three axes
func scaleFor(zFactor float64, ndim int) []float64 {
	full := []float64{zFactor, 1, 1}
	if ndim <= 3 {
		return append([]float64(nil), full[3-ndim:]...)
	}
	scale := make([]float64, ndim)
	for i := range scale {
		scale[i] = 1
	}
	scale[ndim-3] = zFactor
	return scale
}

func loadArray(path string, e Entry) (*ndarray.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "decoding tiff")
	}

	dtype, err := ndarray.ParseDType(e.DType)
	if err != nil {
		return nil, err
	}
	shape := e.Shape
	if len(shape) == 0 {
		shape = []int{img.Bounds().Dy(), img.Bounds().Dx()}
	}
	lo, hi := 0.0, 0.0
	if len(e.Range) == 2 {
		lo, hi = e.Range[0], e.Range[1]
	}
	if len(e.Shape) == 0 && e.DType == "" {
		// files without shape information load as 16-bit planes
		dtype = ndarray.Uint16
	}
	return ndarray.FromMosaic(img, dtype, lo, hi, shape...)
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading csv")
	}
	if len(records) == 0 {
		return nil, nil, errors.New("empty csv")
	}
	return records[0], records[1:], nil
}

func loadPoints(path string) ([]napari.Point, map[string][]float64, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}
	axis := make([]int, 3)
	for i := range axis {
		axis[i] = indexOf(header, "axis-"+strconv.Itoa(i))
		if axis[i] < 0 {
			return nil, nil, errors.Errorf("missing column axis-%d", i)
		}
	}

	props := make(map[string][]float64)
	coords := make([]napari.Point, len(rows))
	for r, rec := range rows {
		for i := range axis {
			v, err := parseCell(rec, axis[i])
			if err != nil {
				return nil, nil, errors.Wrapf(err, "row %d", r+1)
			}
			coords[r][i] = v
		}
		for c, name := range header {
			if strings.HasPrefix(name, "axis-") || name == "index" {
				continue
			}
			v, err := parseCell(rec, c)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "row %d", r+1)
			}
			props[name] = append(props[name], v)
		}
	}
	return coords, props, nil
}

func loadShapes(path string) ([]napari.Line, string, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, "", err
	}
	cols := []int{
		indexOf(header, "index"), indexOf(header, "shape-type"), indexOf(header, "vertex-index"),
		indexOf(header, "axis-0"), indexOf(header, "axis-1"), indexOf(header, "axis-2"),
	}
	for _, c := range cols {
		if c < 0 {
			return nil, "", errors.New("shapes csv lacks napari columns")
		}
	}

	shapeType := "line"
	var lines []napari.Line
	for r, rec := range rows {
		idx, err := parseCell(rec, cols[0])
		if err != nil {
			return nil, "", errors.Wrapf(err, "row %d", r+1)
		}
		vertex, err := parseCell(rec, cols[2])
		if err != nil {
			return nil, "", errors.Wrapf(err, "row %d", r+1)
		}
		if idx < 0 || vertex < 0 || vertex > 1 {
			return nil, "", errors.Errorf("row %d: shape %d vertex %d, only two-point lines are supported", r+1, int(idx), int(vertex))
		}
		shapeType = rec[cols[1]]
		for len(lines) <= int(idx) {
			lines = append(lines, napari.Line{})
		}
		for a := 0; a < 3; a++ {
			v, err := parseCell(rec, cols[3+a])
			if err != nil {
				return nil, "", errors.Wrapf(err, "row %d", r+1)
			}
			lines[int(idx)][int(vertex)][a] = v
		}
	}
	return lines, shapeType, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func parseCell(rec []string, i int) (float64, error) {
	if i >= len(rec) {
		return 0, errors.Errorf("missing column %d", i)
	}
	return strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
}
