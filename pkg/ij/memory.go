package ij

import (
	"image"
	"strings"

	"github.com/pkg/errors"

	"naparij/internal/models"
)

// MemCalibration is a fixed calibration
type MemCalibration struct {
	PixelDepth  float64
	PixelHeight float64
	PixelWidth  float64
	UnitName    string
}

func (c MemCalibration) Z() float64   { return c.PixelDepth }
func (c MemCalibration) Y() float64   { return c.PixelHeight }
func (c MemCalibration) X() float64   { return c.PixelWidth }
func (c MemCalibration) Unit() string { return c.UnitName }

// MemImage is an in-memory image. Planes are ordered channel fastest, then
// z, then time, the same as the platform's stack order.
type MemImage struct {
	id         int
	Title      string
	Dims       models.Dims
	Cal        MemCalibration
	Depth      int
	HyperStack bool
	Planes     [][]float64

	Visible bool
	Shows   int
	Hides   int
	Closes  int

	rt *MemRuntime
}

var nextImageID = -1

// NewMemImage builds an image from planes of width*height samples
func NewMemImage(title string, dims models.Dims, bitDepth int, planes [][]float64) *MemImage {
	id := nextImageID
	nextImageID--
	return &MemImage{
		id:     id,
		Title:  title,
		Dims:   dims,
		Cal:    MemCalibration{PixelDepth: 1, PixelHeight: 1, PixelWidth: 1, UnitName: "pixel"},
		Depth:  bitDepth,
		Planes: planes,
	}
}

// NewMemImageFromVoxels splits a flat buffer in (t, z, c, y, x) order into planes
func NewMemImageFromVoxels(title string, dims models.Dims, bitDepth int, voxels []float64) (*MemImage, error) {
	if int64(len(voxels)) != dims.Voxels() {
		return nil, errors.Errorf("%d voxels do not fill dims %v", len(voxels), dims)
	}
	n := dims.Width() * dims.Height()
	planes := make([][]float64, 0, dims.Planes())
	for p := 0; p < dims.Planes(); p++ {
		planes = append(planes, voxels[p*n:(p+1)*n])
	}
	img := NewMemImage(title, dims, bitDepth, planes)
	img.HyperStack = countAbove1(dims) > 1
	return img, nil
}

func countAbove1(d models.Dims) int {
	n := 0
	for _, v := range []int{d.Channels(), d.Slices(), d.Frames()} {
		if v > 1 {
			n++
		}
	}
	return n
}

func (m *MemImage) ID() int                  { return m.id }
func (m *MemImage) ShortTitle() string       { return shortTitle(m.Title) }
func (m *MemImage) Dimensions() models.Dims  { return m.Dims }
func (m *MemImage) Calibration() Calibration { return m.Cal }
func (m *MemImage) BitDepth() int            { return m.Depth }
func (m *MemImage) IsHyperStack() bool       { return m.HyperStack }
func (m *MemImage) Stack() Stack             { return memStack{m} }

// Show displays the window. Inside a runtime the shown window becomes the
// active image, as it does on the platform.
func (m *MemImage) Show() {
	m.Shows++
	m.Visible = true
	if m.rt != nil {
		m.rt.activate(m)
	}
}

func (m *MemImage) Hide() {
	m.Hides++
	m.Visible = false
}

func (m *MemImage) Close() {
	m.Closes++
	m.Visible = false
	if m.rt != nil && m.rt.Active == m {
		m.rt.Active = nil
	}
}

// shortTitle drops the file extension the way window titles do
func shortTitle(title string) string {
	if i := strings.LastIndex(title, "."); i > 0 && len(title)-i <= 5 {
		return title[:i]
	}
	return title
}

type memStack struct {
	img *MemImage
}

func (s memStack) Size() int { return len(s.img.Planes) }

func (s memStack) ImageArray() [][]float64 { return s.img.Planes }

func (s memStack) Voxels(x, y, z, w, h, d int) []float64 {
	width := s.img.Dims.Width()
	out := make([]float64, 0, w*h*d)
	for p := z; p < z+d; p++ {
		var plane []float64
		if p < len(s.img.Planes) {
			plane = s.img.Planes[p]
		}
		for yy := y; yy < y+h; yy++ {
			for xx := x; xx < x+w; xx++ {
				i := yy*width + xx
				if i < len(plane) {
					out = append(out, plane[i])
				} else {
					out = append(out, 0)
				}
			}
		}
	}
	return out
}

// MemConverter mimics the platform's converter. ToStack flattens a
// hyperstack into one z axis and leaves plain stacks alone, which is why a
// single-channel time series keeps its planes on the time axis.
// ToHyperStack returns a new window for multi-channel composites and
// reuses the input otherwise.
type MemConverter struct{}

func (MemConverter) ToStack(img Image) {
	m, ok := img.(*MemImage)
	if !ok || !m.HyperStack {
		return
	}
	d := m.Dims
	m.Dims = models.Dims{d.Width(), d.Height(), 1, d.Planes(), 1}
	m.HyperStack = false
}

func (MemConverter) ToHyperStack(img Image, channels, slices, frames int, mode string) Image {
	m, ok := img.(*MemImage)
	if !ok {
		return img
	}
	dims := models.Dims{m.Dims.Width(), m.Dims.Height(), channels, slices, frames}
	if strings.EqualFold(mode, "composite") && channels > 1 {
		out := NewMemImage(m.Title, dims, m.Depth, m.Planes)
		out.Cal = m.Cal
		out.HyperStack = true
		out.rt = m.rt
		return out
	}
	m.Dims = dims
	m.HyperStack = true
	return m
}

// MemRuntime is an in-process platform holding images and tables
type MemRuntime struct {
	Images []*MemImage
	Active *MemImage
	Store  *MemTableStore
	Conv   HyperStackConverter
}

// NewMemRuntime returns an empty runtime
func NewMemRuntime() *MemRuntime {
	return &MemRuntime{Store: NewMemTableStore(), Conv: MemConverter{}}
}

// Open adds an image and makes it the active one
func (r *MemRuntime) Open(img *MemImage) {
	img.rt = r
	img.Visible = true
	r.activate(img)
}

func (r *MemRuntime) activate(img *MemImage) {
	known := false
	for _, x := range r.Images {
		if x == img {
			known = true
			break
		}
	}
	if !known {
		r.Images = append(r.Images, img)
	}
	r.Active = img
}

func (r *MemRuntime) ActiveImage() Image {
	if r.Active == nil {
		return nil
	}
	return r.Active
}

func (r *MemRuntime) Tables() TableStore             { return r.Store }
func (r *MemRuntime) Converter() HyperStackConverter { return r.Conv }

// NewImage opens an RGB image as a three-channel 8-bit composite
func (r *MemRuntime) NewImage(title string, img image.Image) Image {
	m := FromImage(title, rgbOnly{img})
	r.Open(m)
	m.Show()
	return m
}

// rgbOnly hides the concrete type so gray frames still open as RGB
type rgbOnly struct {
	image.Image
}
