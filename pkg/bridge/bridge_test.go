package bridge

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naparij/internal/models"
	"naparij/pkg/ij"
	"naparij/pkg/napari"
	"naparij/pkg/ndarray"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBridge(t *testing.T) (*Bridge, *ij.MemRuntime, *napari.Model) {
	t.Helper()
	rt := ij.NewMemRuntime()
	viewer := napari.NewModel()
	return New(rt, viewer, nil, DefaultOptions(), quietLogger()), rt, viewer
}

func TestGetImageSingleChannel(t *testing.T) {
	b, rt, viewer := newTestBridge(t)

	img, err := ij.NewMemImageFromVoxels("blobs.tif", models.Dims{3, 2, 1, 1, 1}, 8, []float64{255, 0, 128, 0, 64, 32})
	require.NoError(t, err)
	img.Cal = ij.MemCalibration{PixelDepth: 2, PixelHeight: 0.5, PixelWidth: 0.25, UnitName: "micron"}
	rt.Open(img)

	layers, err := b.GetImage()
	require.NoError(t, err)
	require.Len(t, layers, 1)

	layer, ok := layers[0].(*napari.Image)
	require.True(t, ok, "expected an image layer, got %T", layers[0])
	assert.Equal(t, "C1-blobs", layer.Name())
	assert.Equal(t, []float64{0.5, 0.25}, layer.Scale())
	assert.Equal(t, "magenta", layer.Colormap)
	assert.Equal(t, Additive, layer.Blending)
	assert.Equal(t, ndarray.Uint8, layer.Data.DType)

	rows, err := layer.Data.Rows()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{255, 0, 128}, {0, 64, 32}}, rows)

	assert.Equal(t, 3, viewer.NDisplay())
	assert.Equal(t, "micron", viewer.ScaleBarUnit())
}

func TestGetImageClearsViewer(t *testing.T) {
	b, rt, viewer := newTestBridge(t)
	viewer.AddImage(ndarray.New(ndarray.Uint8, 2, 2), napari.ImageOptions{Name: "old"})
	viewer.AddImage(ndarray.New(ndarray.Uint8, 2, 2), napari.ImageOptions{Name: "older"})

	img, err := ij.NewMemImageFromVoxels("a", models.Dims{2, 2, 1, 1, 1}, 8, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	rt.Open(img)

	_, err = b.GetImage()
	require.NoError(t, err)
	assert.Equal(t, 1, viewer.Layers().Len())
	assert.Nil(t, viewer.Layers().Find("old"))
}

func TestGetImageNoActiveImage(t *testing.T) {
	b, _, _ := newTestBridge(t)

	_, err := b.GetImage()
	assert.True(t, errors.Is(err, ErrInvalidSource))

	_, err = ExtractMetadata(nil)
	assert.True(t, errors.Is(err, ErrInvalidSource))
}

func TestExtractMetadata(t *testing.T) {
	img := ij.NewMemImage("cells.tif", models.Dims{4, 3, 2, 1, 5}, 16, nil)
	img.Cal = ij.MemCalibration{PixelDepth: 3, PixelHeight: 0.2, PixelWidth: 0.1, UnitName: "micron"}

	desc, err := ExtractMetadata(img)
	require.NoError(t, err)
	assert.Equal(t, "cells", desc.Title)
	assert.Equal(t, models.Dims{4, 3, 2, 1, 5}, desc.Dims)
	assert.Equal(t, models.VoxelSize{Z: 3, Y: 0.2, X: 0.1}, desc.VoxelSize, "z is reported even for a single slice")
	assert.Equal(t, "micron", desc.Unit)
	assert.Equal(t, models.BitDepth16, desc.BitDepth)
}

// voxelAt indexes a flat (t, z, c, y, x) buffer
func voxelAt(d models.Dims, voxels []float64, t, z, c, y, x int) float64 {
	return voxels[(((t*d.Slices()+z)*d.Channels()+c)*d.Height()+y)*d.Width()+x]
}

func TestGetImageChannelFidelity(t *testing.T) {
	b, rt, viewer := newTestBridge(t)

	dims := models.Dims{4, 3, 2, 3, 2}
	voxels := make([]float64, dims.Voxels())
	for i := range voxels {
		voxels[i] = float64((i*37 + 11) % 65536)
	}
	img, err := ij.NewMemImageFromVoxels("stack", dims, 16, voxels)
	require.NoError(t, err)
	require.True(t, img.IsHyperStack())
	rt.Open(img)

	layers, err := b.GetImage()
	require.NoError(t, err)
	require.Len(t, layers, 2)

	for c, l := range layers {
		layer := l.(*napari.Image)
		assert.Equal(t, ChannelName(c, "stack"), layer.Name())
		assert.Equal(t, []int{2, 3, 3, 4}, layer.Data.Shape)
		assert.Equal(t, []float64{1, 1, 1}, layer.Scale())
		for tt := 0; tt < dims.Frames(); tt++ {
			for z := 0; z < dims.Slices(); z++ {
				for y := 0; y < dims.Height(); y++ {
					for x := 0; x < dims.Width(); x++ {
						require.Equal(t, voxelAt(dims, voxels, tt, z, c, y, x), layer.Data.At(tt, z, y, x))
					}
				}
			}
		}
	}
	assert.Equal(t, []string{"magenta", "cyan"}, []string{layers[0].(*napari.Image).Colormap, layers[1].(*napari.Image).Colormap})
	assert.Equal(t, 2, viewer.Layers().Len())

	// the flattened window is replaced by a restored composite
	assert.Equal(t, 1, img.Closes)
}

func TestGetImageTimeSeries(t *testing.T) {
	b, rt, _ := newTestBridge(t)

	dims := models.Dims{2, 2, 1, 1, 3}
	voxels := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	img, err := ij.NewMemImageFromVoxels("movie", dims, 8, voxels)
	require.NoError(t, err)
	require.False(t, img.IsHyperStack())
	rt.Open(img)

	layers, err := b.GetImage()
	require.NoError(t, err)
	require.Len(t, layers, 1)

	layer := layers[0].(*napari.Image)
	assert.Equal(t, []int{3, 1, 2, 2}, layer.Data.Shape, "only leading unit axes are squeezed")
	assert.Equal(t, voxels, layer.Data.Data)
	assert.Equal(t, []float64{1, 1}, layer.Scale())
}

func TestGetImageTooManyChannels(t *testing.T) {
	b, rt, viewer := newTestBridge(t)
	viewer.AddImage(ndarray.New(ndarray.Uint8, 1, 1), napari.ImageOptions{Name: "keep"})

	dims := models.Dims{1, 1, 10, 1, 1}
	img, err := ij.NewMemImageFromVoxels("many", dims, 8, make([]float64, 10))
	require.NoError(t, err)
	rt.Open(img)

	_, err = b.GetImage()
	assert.True(t, errors.Is(err, ErrTooManyChannels))
	assert.NotNil(t, viewer.Layers().Find("keep"), "a failed compose leaves the viewer alone")
}

func TestGetLabels(t *testing.T) {
	b, rt, _ := newTestBridge(t)

	img, err := ij.NewMemImageFromVoxels("seg.tif", models.Dims{2, 2, 1, 2, 1}, 16, []float64{0, 1, 1, 2, 2, 2, 0, 3})
	require.NoError(t, err)
	rt.Open(img)

	layers, err := b.GetLabels()
	require.NoError(t, err)
	require.Len(t, layers, 1)

	labels, ok := layers[0].(*napari.Labels)
	require.True(t, ok)
	assert.Equal(t, "seg", labels.Name())
	assert.Equal(t, ndarray.Uint16, labels.Data.DType)
	assert.Equal(t, []int{2, 2, 2}, labels.Data.Shape)
	assert.Equal(t, []float64{1, 1, 1}, labels.Scale())
}

func TestGetLabelsRejectsChannels(t *testing.T) {
	b, rt, _ := newTestBridge(t)

	img, err := ij.NewMemImageFromVoxels("seg", models.Dims{1, 1, 2, 1, 1}, 8, []float64{1, 2})
	require.NoError(t, err)
	rt.Open(img)

	_, err = b.GetLabels()
	assert.True(t, errors.Is(err, ErrUnsupportedChannels))
}

func TestScreenshot(t *testing.T) {
	rt := ij.NewMemRuntime()
	viewer := napari.NewModel()
	opts := DefaultOptions()
	opts.ScreenshotMaxWidth = 4
	b := New(rt, viewer, nil, opts, quietLogger())

	_, err := b.Screenshot()
	assert.True(t, errors.Is(err, ErrNoScreenshot))

	frame := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			frame.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	viewer.Canvas = frame

	img, err := b.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, ScreenshotTitle, img.ShortTitle())
	assert.Equal(t, models.Dims{4, 2, 3, 1, 1}, img.Dimensions())
	assert.Equal(t, img, rt.ActiveImage())
	assert.Equal(t, 1, rt.Active.Shows)
}

func TestGetImageTwiceFromComposite(t *testing.T) {
	b, rt, _ := newTestBridge(t)

	dims := models.Dims{2, 2, 2, 3, 1}
	voxels := make([]float64, dims.Voxels())
	for i := range voxels {
		voxels[i] = float64(i)
	}
	img, err := ij.NewMemImageFromVoxels("two", dims, 8, voxels)
	require.NoError(t, err)
	rt.Open(img)

	first, err := b.GetImage()
	require.NoError(t, err)
	require.Len(t, first, 2)

	active := rt.ActiveImage()
	require.NotNil(t, active)
	assert.NotEqual(t, img.ID(), active.ID(), "the restored composite is the active window")
	assert.Equal(t, dims, active.Dimensions())
	assert.True(t, active.IsHyperStack())
	assert.Equal(t, 1, img.Closes)

	second, err := b.GetImage()
	require.NoError(t, err)
	require.Len(t, second, 2)
	for c := range second {
		assert.Equal(t, ChannelName(c, "two"), second[c].Name())
		assert.Equal(t, first[c].(*napari.Image).Data, second[c].(*napari.Image).Data)
	}
	assert.Equal(t, dims, rt.ActiveImage().Dimensions())
}
