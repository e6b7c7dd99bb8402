package ij

import (
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"

	"naparij/internal/models"
)

// OpenTIFF opens a single-page TIFF as an image. Gray files keep their bit
// depth; anything else is split into three 8-bit RGB channels.
func OpenTIFF(path string) (*MemImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening image")
	}
	defer f.Close()

	src, err := tiff.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", filepath.Base(path))
	}
	return FromImage(filepath.Base(path), src), nil
}

// FromImage converts a decoded image into a MemImage
func FromImage(title string, src image.Image) *MemImage {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src.(type) {
	case *image.Gray, *image.Gray16:
		depth := 8
		if _, ok := src.(*image.Gray16); ok {
			depth = 16
		}
		plane := make([]float64, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.Gray16Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y
				if depth == 8 {
					g >>= 8
				}
				plane[y*w+x] = float64(g)
			}
		}
		return NewMemImage(title, models.Dims{w, h, 1, 1, 1}, depth, [][]float64{plane})
	}

	planes := [][]float64{make([]float64, w*h), make([]float64, w*h), make([]float64, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			planes[0][y*w+x] = float64(c.R)
			planes[1][y*w+x] = float64(c.G)
			planes[2][y*w+x] = float64(c.B)
		}
	}
	img := NewMemImage(title, models.Dims{w, h, 3, 1, 1}, 8, planes)
	img.HyperStack = true
	return img
}
