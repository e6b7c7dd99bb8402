package layerio

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"golang.org/x/image/tiff"

	"naparij/internal/models"
	"naparij/pkg/napari"
	"naparij/pkg/ndarray"
)

// Save writes every layer of viewer to dir together with a manifest.
// Layers of a type the format does not know are logged and skipped.
func Save(dir string, viewer napari.Viewer, cal models.Calibration, logger *slog.Logger) (*Manifest, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating layer folder")
	}

	m := &Manifest{Calibration: cal, Unit: viewer.ScaleBarUnit()}
	used := make(map[string]bool)
	for _, layer := range viewer.Layers().All() {
		var (
			entry Entry
			err   error
		)
		switch l := layer.(type) {
		case *napari.Image:
			entry, err = saveArray(dir, uniqueName(used, l.Name(), ".tif"), l.Data)
			entry.Colormap = l.Colormap
		case *napari.Labels:
			entry, err = saveArray(dir, uniqueName(used, l.Name(), ".tif"), l.Data)
		case *napari.Points:
			entry, err = savePoints(dir, uniqueName(used, l.Name(), ".csv"), l)
			entry.Colormap = l.FaceColormap.Name
		case *napari.Shapes:
			entry, err = saveShapes(dir, uniqueName(used, l.Name(), ".csv"), l)
		default:
			logger.Warn("Skipping layer", "layer", layer.Name(), "type", layer.Kind(), "error", ErrUnsupportedLayerType)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "saving layer %q", layer.Name())
		}
		entry.Name = layer.Name()
		entry.Type = string(layer.Kind())
		m.Layers = append(m.Layers, entry)

		if fi, err := os.Stat(filepath.Join(dir, entry.Filename)); err == nil {
			logger.Debug("Saved layer", "layer", entry.Name, "file", entry.Filename, "size", humanize.Bytes(uint64(fi.Size())))
		}
	}

	if err := WriteManifest(dir, m); err != nil {
		return nil, err
	}
	logger.Info("Saved layers", "dir", dir, "layers", len(m.Layers))
	return m, nil
}

// uniqueName turns a layer name into a file name not used before
func uniqueName(used map[string]bool, name, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if safe == "" {
		safe = "layer"
	}
	file := safe + ext
	for i := 1; used[file]; i++ {
		file = fmt.Sprintf("%s-%d%s", safe, i, ext)
	}
	used[file] = true
	return file
}

func saveArray(dir, file string, data *ndarray.Array) (Entry, error) {
	entry := Entry{Filename: file, Shape: data.Shape, DType: data.DType.String()}
	lo, hi := 0.0, 0.0
	if data.DType == ndarray.Float32 {
		lo, hi = data.MinMax()
		entry.Range = []float64{lo, hi}
	}
	img, err := data.Mosaic(lo, hi)
	if err != nil {
		return entry, err
	}

	f, err := os.Create(filepath.Join(dir, file))
	if err != nil {
		return entry, err
	}
	defer f.Close()
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return entry, errors.Wrap(err, "encoding tiff")
	}
	return entry, f.Close()
}

func savePoints(dir, file string, p *napari.Points) (Entry, error) {
	names := make([]string, 0, len(p.Properties))
	for k := range p.Properties {
		names = append(names, k)
	}
	sort.Strings(names)

	header := append([]string{"axis-0", "axis-1", "axis-2"}, names...)
	records := [][]string{header}
	for i, c := range p.Coords {
		rec := []string{fmtFloat(c[0]), fmtFloat(c[1]), fmtFloat(c[2])}
		for _, k := range names {
			v := 0.0
			if i < len(p.Properties[k]) {
				v = p.Properties[k][i]
			}
			rec = append(rec, fmtFloat(v))
		}
		records = append(records, rec)
	}
	return Entry{Filename: file}, writeCSV(filepath.Join(dir, file), records)
}

func saveShapes(dir, file string, s *napari.Shapes) (Entry, error) {
	records := [][]string{{"index", "shape-type", "vertex-index", "axis-0", "axis-1", "axis-2"}}
	for i, line := range s.Lines {
		for v, p := range line {
			records = append(records, []string{
				strconv.Itoa(i), s.ShapeType, strconv.Itoa(v), fmtFloat(p[0]), fmtFloat(p[1]), fmtFloat(p[2]),
			})
		}
	}
	return Entry{Filename: file}, writeCSV(filepath.Join(dir, file), records)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	return f.Close()
}
