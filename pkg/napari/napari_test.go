package napari

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naparij/pkg/colormap"
	"naparij/pkg/ndarray"
)

func TestLayerListCallbacks(t *testing.T) {
	m := NewModel()
	var selected, removed []string
	m.Layers().OnSelect(func(l Layer) { selected = append(selected, l.Name()) })
	m.Layers().OnRemoved(func(l Layer) { removed = append(removed, l.Name()) })

	a := m.AddImage(ndarray.New(ndarray.Uint8, 2, 2), ImageOptions{Name: "a"})
	m.AddLabels(ndarray.New(ndarray.Int32, 2, 2), "b", nil)
	m.AddShapes(nil, "c", "line", nil)

	assert.Equal(t, []string{"a", "b", "c"}, selected)
	assert.Equal(t, "c", m.Layers().Selection().Name())
	assert.Equal(t, Layer(a), m.Layers().Find("a"))
	assert.Nil(t, m.Layers().Find("zzz"))

	assert.True(t, m.Layers().Remove(a))
	assert.False(t, m.Layers().Remove(a))
	assert.Equal(t, []string{"a"}, removed)

	m.Layers().Clear()
	assert.Equal(t, []string{"a", "b", "c"}, removed)
	assert.Equal(t, 0, m.Layers().Len())
	assert.Nil(t, m.Layers().Selection())
}

func TestAddImageDefaults(t *testing.T) {
	m := NewModel()
	scale := []float64{2, 1}
	img := m.AddImage(ndarray.New(ndarray.Uint8, 2, 2), ImageOptions{Name: "img", Scale: scale})

	assert.Equal(t, "gray", img.Colormap)
	assert.Equal(t, "translucent", img.Blending)
	assert.Equal(t, KindImage, img.Kind())

	scale[0] = 9
	assert.Equal(t, []float64{2, 1}, img.Scale(), "the layer keeps its own scale")
}

func TestViewerState(t *testing.T) {
	m := NewModel()
	assert.Equal(t, 2, m.NDisplay())
	assert.Nil(t, m.Screenshot())

	m.SetNDisplay(3)
	m.SetScaleBarUnit("micron")
	m.Canvas = image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.Equal(t, 3, m.NDisplay())
	assert.Equal(t, "micron", m.ScaleBarUnit())
	assert.NotNil(t, m.Screenshot())
}

func TestAddPointsColors(t *testing.T) {
	m := NewModel()
	cm, err := colormap.Get("gray")
	require.NoError(t, err)

	props := map[string][]float64{"confidence": {0, 1}}
	p := m.AddPoints([]Point{{0, 0, 0}, {1, 1, 1}}, PointsOptions{
		Name:               "p",
		Properties:         props,
		FaceColor:          "confidence",
		FaceColormap:       colormap.Crop(cm),
		FaceContrastLimits: [2]float64{0, 1},
	})
	require.Len(t, p.FaceColors, 2)
	assert.Equal(t, colormap.Suppressed, p.FaceColors[0])
	assert.Equal(t, uint8(255), p.FaceColors[1].R)

	props["confidence"][0] = 5
	assert.Equal(t, 0.0, p.Property("confidence")[0], "properties are copied")
}

func TestNearest(t *testing.T) {
	m := NewModel()
	p := m.AddPoints(nil, PointsOptions{Name: "empty"})
	i, _ := p.Nearest(Point{0, 0, 0})
	assert.Equal(t, -1, i)

	p = m.AddPoints([]Point{{0, 0, 0}, {10, 10, 10}, {5, 5, 5}, {0, 9, 0}}, PointsOptions{Name: "p"})

	i, d := p.Nearest(Point{4, 6, 5})
	assert.Equal(t, 2, i)
	assert.Equal(t, 2.0, d)

	i, d = p.Nearest(Point{0, 10, 0})
	assert.Equal(t, 3, i)
	assert.Equal(t, 1.0, d)

	// the index follows appended points
	p.Coords = append(p.Coords, Point{0, 10, 1})
	i, d = p.Nearest(Point{0, 10, 1})
	assert.Equal(t, 4, i)
	assert.Equal(t, 0.0, d)
}
