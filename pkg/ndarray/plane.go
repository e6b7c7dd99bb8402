package ndarray

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// PlaneSize returns the height and width of the trailing x-y plane
func (a *Array) PlaneSize() (int, int) {
	switch len(a.Shape) {
	case 0:
		return 1, 1
	case 1:
		return 1, a.Shape[0]
	default:
		return a.Shape[len(a.Shape)-2], a.Shape[len(a.Shape)-1]
	}
}

// Planes returns the number of x-y planes in the array
func (a *Array) Planes() int {
	h, w := a.PlaneSize()
	if h*w == 0 {
		return 0
	}
	return len(a.Data) / (h * w)
}

// ExtractPlane returns plane p as an image. Uint8 arrays give *image.Gray and
// Int32 arrays give *image.NRGBA with the 32 bits of each sample packed
// big-endian into R, G, B and A. Other dtypes give *image.Gray16, with float
// samples mapped linearly from [lo, hi] onto the full 16-bit range.
func (a *Array) ExtractPlane(p int, lo, hi float64) (image.Image, error) {
	h, w := a.PlaneSize()
	if p < 0 || p >= a.Planes() {
		return nil, errors.Errorf("plane %d exceeds plane count %d", p, a.Planes())
	}
	base := p * h * w

	if a.DType == Uint8 {
		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8(a.Data[base+y*w+x])})
			}
		}
		return img, nil
	}

	if a.DType == Int32 {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetNRGBA(x, y, packInt32(a.Data[base+y*w+x]))
			}
		}
		return img, nil
	}

	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: a.toGray16(a.Data[base+y*w+x], lo, hi)})
		}
	}
	return img, nil
}

func packInt32(v float64) color.NRGBA {
	u := uint32(int32(castValue(v, Int32)))
	return color.NRGBA{R: uint8(u >> 24), G: uint8(u >> 16), B: uint8(u >> 8), A: uint8(u)}
}

func unpackInt32(c color.NRGBA) float64 {
	u := uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
	return float64(int32(u))
}

func (a *Array) toGray16(v, lo, hi float64) uint16 {
	if a.DType != Float32 {
		return uint16(math.Max(0, math.Min(65535, v)))
	}
	if hi <= lo {
		return 0
	}
	return uint16(math.Round(math.Max(0, math.Min(65535, (v-lo)/(hi-lo)*65535))))
}

// Mosaic stacks every plane vertically into one image, first plane on top.
// The original shape must be kept elsewhere to undo it.
func (a *Array) Mosaic(lo, hi float64) (image.Image, error) {
	h, w := a.PlaneSize()
	n := a.Planes()
	if n == 0 {
		return nil, errors.Errorf("array with shape %v has no planes", a.Shape)
	}

	var dst interface {
		image.Image
		Set(x, y int, c color.Color)
	}
	switch a.DType {
	case Uint8:
		dst = image.NewGray(image.Rect(0, 0, w, h*n))
	case Int32:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h*n))
	default:
		dst = image.NewGray16(image.Rect(0, 0, w, h*n))
	}

	for p := 0; p < n; p++ {
		plane, err := a.ExtractPlane(p, lo, hi)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Set(x, p*h+y, plane.At(x, y))
			}
		}
	}
	return dst, nil
}

// FromMosaic rebuilds an array of the given shape from a vertical mosaic.
// Float arrays are mapped back from the 16-bit range onto [lo, hi]. Int32
// arrays are unpacked from an NRGBA mosaic; a grayscale mosaic is read as
// 16-bit labels.
func FromMosaic(img image.Image, dtype DType, lo, hi float64, shape ...int) (*Array, error) {
	a := New(dtype, shape...)
	h, w := a.PlaneSize()
	n := a.Planes()
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h*n {
		return nil, errors.Errorf("mosaic of %dx%d does not hold shape %v", b.Dx(), b.Dy(), shape)
	}

	packed, _ := img.(*image.NRGBA)
	if dtype != Int32 {
		packed = nil
	}

	for p := 0; p < n; p++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if packed != nil {
					a.Data[p*h*w+y*w+x] = unpackInt32(packed.NRGBAAt(b.Min.X+x, b.Min.Y+p*h+y))
					continue
				}
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+p*h+y)).(color.Gray16).Y
				idx := p*h*w + y*w + x
				switch dtype {
				case Uint8:
					a.Data[idx] = float64(g >> 8)
				case Float32:
					a.Data[idx] = float64(float32(lo + float64(g)/65535*(hi-lo)))
				default:
					a.Data[idx] = float64(g)
				}
			}
		}
	}
	return a, nil
}
