// Package napari models the layers of the multi-dimensional viewer and the
// viewer handle the bridge drives.
package napari

import (
	"image/color"

	"naparij/pkg/colormap"
	"naparij/pkg/ndarray"
)

// Kind names a layer variant
type Kind string

const (
	KindImage  Kind = "image"
	KindLabels Kind = "labels"
	KindPoints Kind = "points"
	KindShapes Kind = "shapes"
)

// Layer is implemented by every layer variant
type Layer interface {
	Name() string
	Kind() Kind
	Scale() []float64
	Metadata() map[string]string
}

type base struct {
	name     string
	scale    []float64
	metadata map[string]string
}

func newBase(name string, scale []float64) base {
	return base{name: name, scale: append([]float64(nil), scale...), metadata: make(map[string]string)}
}

func (b *base) Name() string                { return b.name }
func (b *base) Scale() []float64            { return b.scale }
func (b *base) Metadata() map[string]string { return b.metadata }

// Image is an intensity layer
type Image struct {
	base
	Data     *ndarray.Array
	Colormap string
	Blending string
}

func (*Image) Kind() Kind { return KindImage }

// Labels is an integer segmentation layer
type Labels struct {
	base
	Data *ndarray.Array
}

func (*Labels) Kind() Kind { return KindLabels }

// Point is a coordinate in (z, y, x) order
type Point [3]float64

// Points is a point annotation layer. The face colour of each point comes
// from the FaceProperty values passed through FaceColormap.
type Points struct {
	base
	Coords         []Point
	Properties     map[string][]float64
	FaceProperty   string
	FaceColormap   colormap.Colormap
	ContrastLimits [2]float64
	Size           float64
	FaceColors     []color.RGBA

	index *pointIndex
}

func (*Points) Kind() Kind { return KindPoints }

// Property returns the named per-point property
func (p *Points) Property(name string) []float64 {
	return p.Properties[name]
}

// RefreshColors recomputes every face colour from the face property
func (p *Points) RefreshColors() {
	values := p.Properties[p.FaceProperty]
	p.FaceColors = make([]color.RGBA, len(p.Coords))
	for i := range p.Coords {
		v := 0.0
		if i < len(values) {
			v = values[i]
		}
		p.FaceColors[i] = p.FaceColormap.At(v, p.ContrastLimits)
	}
}

// Line is a segment between two (z, y, x) points
type Line [2]Point

// Shapes is a vector layer
type Shapes struct {
	base
	Lines     []Line
	ShapeType string
}

func (*Shapes) Kind() Kind { return KindShapes }

// ImageOptions configures AddImage
type ImageOptions struct {
	Name     string
	Colormap string
	Blending string
	Scale    []float64
}

// PointsOptions configures AddPoints
type PointsOptions struct {
	Name               string
	Properties         map[string][]float64
	FaceColor          string
	FaceColormap       colormap.Colormap
	FaceContrastLimits [2]float64
	Size               float64
	Scale              []float64
}
