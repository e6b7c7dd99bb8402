package layerio

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naparij/internal/models"
	"naparij/pkg/colormap"
	"naparij/pkg/napari"
	"naparij/pkg/ndarray"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unknownLayer is a layer kind the folder format cannot store
type unknownLayer struct{}

func (unknownLayer) Name() string                { return "mystery" }
func (unknownLayer) Kind() napari.Kind           { return "surface" }
func (unknownLayer) Scale() []float64            { return nil }
func (unknownLayer) Metadata() map[string]string { return nil }

func populate(t *testing.T) *napari.Model {
	t.Helper()
	m := napari.NewModel()
	m.SetScaleBarUnit("micron")

	img := ndarray.New(ndarray.Uint16, 2, 3, 4)
	for i := range img.Data {
		img.Data[i] = float64(i * 1000)
	}
	m.AddImage(img, napari.ImageOptions{Name: "C1-cells", Colormap: "magenta", Blending: "additive"})

	lbl := ndarray.New(ndarray.Int32, 3, 4)
	for i := range lbl.Data {
		lbl.Data[i] = float64(i % 3)
	}
	lbl.Data[5] = 70000
	lbl.Data[6] = -2
	m.AddLabels(lbl, "cells", nil)

	flt := ndarray.New(ndarray.Float32, 2, 2)
	copy(flt.Data, []float64{-1, 0, 0.5, 3})
	m.AddImage(flt, napari.ImageOptions{Name: "C1-cells"})

	cm, err := colormap.Get("inferno")
	require.NoError(t, err)
	m.AddPoints([]napari.Point{{1, 2, 3}, {4, 5, 6}}, napari.PointsOptions{
		Name:         "spots",
		Properties:   map[string][]float64{"confidence": {0.25, 0.75}},
		FaceColor:    "confidence",
		FaceColormap: colormap.Crop(cm),
	})
	m.AddShapes([]napari.Line{{{0, 1, 2}, {3, 4, 5}}, {{6, 7, 8}, {9, 10, 11}}}, "pairs", "line", nil)
	return m
}

func TestSaveWritesManifest(t *testing.T) {
	dir := t.TempDir()
	m := populate(t)
	m.Layers().Append(unknownLayer{})

	manifest, err := Save(dir, m, models.Calibration{X: 0.5, Y: 0.5, Z: 2}, quietLogger())
	require.NoError(t, err)
	require.Len(t, manifest.Layers, 5, "the unknown layer is skipped")

	files := make([]string, len(manifest.Layers))
	for i, e := range manifest.Layers {
		files[i] = e.Filename
		_, err := os.Stat(filepath.Join(dir, e.Filename))
		assert.NoError(t, err, e.Filename)
	}
	assert.Equal(t, []string{"C1-cells.tif", "cells.tif", "C1-cells-1.tif", "spots.csv", "pairs.csv"}, files)

	assert.Equal(t, []int{2, 3, 4}, manifest.Layers[0].Shape)
	assert.Equal(t, "uint16", manifest.Layers[0].DType)
	assert.Equal(t, "magenta", manifest.Layers[0].Colormap)
	assert.Equal(t, []float64{-1, 3}, manifest.Layers[2].Range)
	assert.Equal(t, "inferno", manifest.Layers[3].Colormap)

	read, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, manifest, read)

	data, err := os.ReadFile(filepath.Join(dir, "spots.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "axis-0,axis-1,axis-2,confidence\n"))

	data, err = os.ReadFile(filepath.Join(dir, "pairs.csv"))
	require.NoError(t, err)
	assert.Equal(t, "index,shape-type,vertex-index,axis-0,axis-1,axis-2\n"+
		"0,line,0,0,1,2\n0,line,1,3,4,5\n1,line,0,6,7,8\n1,line,1,9,10,11\n", string(data))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := populate(t)
	_, err := Save(dir, src, models.Calibration{X: 0.5, Y: 0.5, Z: 2}, quietLogger())
	require.NoError(t, err)

	dst := napari.NewModel()
	layers, err := Load(dir, dst, quietLogger())
	require.NoError(t, err)
	require.Len(t, layers, 5)
	assert.Equal(t, "micron", dst.ScaleBarUnit())

	img := layers[0].(*napari.Image)
	want := src.Layers().At(0).(*napari.Image)
	assert.Equal(t, want.Data, img.Data)
	assert.Equal(t, "magenta", img.Colormap)
	assert.Equal(t, []float64{4, 1, 1}, img.Scale(), "z is scaled by z/x")

	lbl := layers[1].(*napari.Labels)
	assert.Equal(t, src.Layers().At(1).(*napari.Labels).Data, lbl.Data)
	assert.Equal(t, []float64{1, 1}, lbl.Scale())

	flt := layers[2].(*napari.Image)
	for i, v := range []float64{-1, 0, 0.5, 3} {
		assert.InDelta(t, v, flt.Data.Data[i], 1e-4)
	}

	pts := layers[3].(*napari.Points)
	assert.Equal(t, []napari.Point{{1, 2, 3}, {4, 5, 6}}, pts.Coords)
	assert.Equal(t, []float64{0.25, 0.75}, pts.Property("confidence"))
	assert.Equal(t, "inferno", pts.FaceColormap.Name)

	shapes := layers[4].(*napari.Shapes)
	assert.Equal(t, "line", shapes.ShapeType)
	assert.Equal(t, []napari.Line{{{0, 1, 2}, {3, 4, 5}}, {{6, 7, 8}, {9, 10, 11}}}, shapes.Lines)
	assert.Equal(t, []float64{4, 1, 1}, shapes.Scale())
}

func TestLoadUnknownTypeAsImage(t *testing.T) {
	dir := t.TempDir()
	src := napari.NewModel()
	src.AddImage(ndarray.New(ndarray.Uint8, 2, 2), napari.ImageOptions{Name: "vol"})
	manifest, err := Save(dir, src, models.Calibration{X: 1, Y: 1, Z: 1}, quietLogger())
	require.NoError(t, err)

	manifest.Layers[0].Type = "surface"
	manifest.Layers = append(manifest.Layers, Entry{Name: "gone", Filename: "gone.tif", Type: "surface"})
	require.NoError(t, WriteManifest(dir, manifest))

	dst := napari.NewModel()
	layers, err := Load(dir, dst, quietLogger())
	require.NoError(t, err)
	require.Len(t, layers, 1, "unreadable unknown layers are skipped")
	assert.Equal(t, napari.KindImage, layers[0].Kind())
	assert.Equal(t, "vol", layers[0].Name())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(t.TempDir(), napari.NewModel(), quietLogger())
	assert.Error(t, err, "a folder without a manifest")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"),
		[]byte("index,shape-type,vertex-index,axis-0,axis-1,axis-2\n0,polygon,2,0,0,0\n"), 0644))
	require.NoError(t, WriteManifest(dir, &Manifest{Layers: []Entry{{Name: "bad", Filename: "bad.csv", Type: "shapes"}}}))
	_, err = Load(dir, napari.NewModel(), quietLogger())
	assert.Error(t, err)
}

func TestScaleFor(t *testing.T) {
	assert.Equal(t, []float64{1, 1}, scaleFor(3, 2))
	assert.Equal(t, []float64{3, 1, 1}, scaleFor(3, 3))
	assert.Equal(t, []float64{1, 3, 1, 1}, scaleFor(3, 4))
}

func TestUniqueName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "a_b.tif", uniqueName(used, "a/b", ".tif"))
	assert.Equal(t, "a_b-1.tif", uniqueName(used, "a:b", ".tif"))
	assert.Equal(t, "layer.csv", uniqueName(used, "", ".csv"))
}
