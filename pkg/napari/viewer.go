package napari

import (
	"image"

	"naparij/pkg/ndarray"
)

// Viewer is the handle on the destination viewer
type Viewer interface {
	Layers() *LayerList

	AddImage(data *ndarray.Array, opts ImageOptions) *Image
	AddLabels(data *ndarray.Array, name string, scale []float64) *Labels
	AddPoints(coords []Point, opts PointsOptions) *Points
	AddShapes(lines []Line, name, shapeType string, scale []float64) *Shapes

	NDisplay() int
	SetNDisplay(n int)
	ScaleBarUnit() string
	SetScaleBarUnit(unit string)

	// Screenshot returns the rendered canvas, or nil when nothing is rendered
	Screenshot() image.Image
}

// LayerList is the ordered layer collection of a viewer. Removal callbacks
// run after a layer has left the list.
type LayerList struct {
	layers    []Layer
	active    Layer
	onSelect  []func(Layer)
	onRemoved []func(Layer)
}

// Len returns the number of layers
func (l *LayerList) Len() int { return len(l.layers) }

// At returns layer i
func (l *LayerList) At(i int) Layer { return l.layers[i] }

// All returns a copy of the layers in order
func (l *LayerList) All() []Layer { return append([]Layer(nil), l.layers...) }

// Append adds a layer at the end and makes it the active one
func (l *LayerList) Append(layer Layer) {
	l.layers = append(l.layers, layer)
	l.Select(layer)
}

// Pop removes and returns layer i
func (l *LayerList) Pop(i int) Layer {
	layer := l.layers[i]
	l.layers = append(l.layers[:i], l.layers[i+1:]...)
	if l.active == layer {
		l.active = nil
	}
	for _, fn := range l.onRemoved {
		fn(layer)
	}
	return layer
}

// Remove removes layer if it is in the list
func (l *LayerList) Remove(layer Layer) bool {
	for i, x := range l.layers {
		if x == layer {
			l.Pop(i)
			return true
		}
	}
	return false
}

// Clear pops every layer from the front
func (l *LayerList) Clear() {
	for l.Len() > 0 {
		l.Pop(0)
	}
}

// Find returns the first layer with name
func (l *LayerList) Find(name string) Layer {
	for _, x := range l.layers {
		if x.Name() == name {
			return x
		}
	}
	return nil
}

// Selection returns the active layer, or nil
func (l *LayerList) Selection() Layer { return l.active }

// Select makes layer the active one and notifies selection listeners
func (l *LayerList) Select(layer Layer) {
	l.active = layer
	for _, fn := range l.onSelect {
		fn(layer)
	}
}

// OnSelect registers a callback for active-layer changes
func (l *LayerList) OnSelect(fn func(Layer)) { l.onSelect = append(l.onSelect, fn) }

// OnRemoved registers a callback for layer removal
func (l *LayerList) OnRemoved(fn func(Layer)) { l.onRemoved = append(l.onRemoved, fn) }

// Model is an in-process Viewer that keeps the state a real viewer would
// render
type Model struct {
	layers   LayerList
	ndisplay int
	unit     string
	Canvas   image.Image
}

// NewModel returns an empty 2D viewer model
func NewModel() *Model {
	return &Model{ndisplay: 2}
}

func (m *Model) Layers() *LayerList { return &m.layers }

func (m *Model) AddImage(data *ndarray.Array, opts ImageOptions) *Image {
	layer := &Image{base: newBase(opts.Name, opts.Scale), Data: data, Colormap: opts.Colormap, Blending: opts.Blending}
	if layer.Blending == "" {
		layer.Blending = "translucent"
	}
	if layer.Colormap == "" {
		layer.Colormap = "gray"
	}
	m.layers.Append(layer)
	return layer
}

func (m *Model) AddLabels(data *ndarray.Array, name string, scale []float64) *Labels {
	layer := &Labels{base: newBase(name, scale), Data: data}
	m.layers.Append(layer)
	return layer
}

func (m *Model) AddPoints(coords []Point, opts PointsOptions) *Points {
	props := make(map[string][]float64, len(opts.Properties))
	for k, v := range opts.Properties {
		props[k] = append([]float64(nil), v...)
	}
	layer := &Points{
		base:           newBase(opts.Name, opts.Scale),
		Coords:         append([]Point(nil), coords...),
		Properties:     props,
		FaceProperty:   opts.FaceColor,
		FaceColormap:   opts.FaceColormap,
		ContrastLimits: opts.FaceContrastLimits,
		Size:           opts.Size,
	}
	layer.RefreshColors()
	m.layers.Append(layer)
	return layer
}

func (m *Model) AddShapes(lines []Line, name, shapeType string, scale []float64) *Shapes {
	layer := &Shapes{base: newBase(name, scale), Lines: append([]Line(nil), lines...), ShapeType: shapeType}
	m.layers.Append(layer)
	return layer
}

func (m *Model) NDisplay() int               { return m.ndisplay }
func (m *Model) SetNDisplay(n int)           { m.ndisplay = n }
func (m *Model) ScaleBarUnit() string        { return m.unit }
func (m *Model) SetScaleBarUnit(unit string) { m.unit = unit }
func (m *Model) Screenshot() image.Image     { return m.Canvas }
