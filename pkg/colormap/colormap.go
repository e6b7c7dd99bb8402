// Package colormap holds the channel palette used for multi-channel images
// and the continuous colormaps used to colour points by confidence.
package colormap

import (
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// ChannelPalette is the positional colour assignment for image channels.
// Channel i is shown with ChannelPalette[i].
var ChannelPalette = []string{
	"magenta",
	"cyan",
	"yellow",
	"red",
	"green",
	"blue",
	"gray",
	"bop orange",
	"bop purple",
}

// ChannelColor returns the palette entry for channel c. Running past the end
// of the palette is an error rather than a wrap.
func ChannelColor(palette []string, c int) (string, error) {
	if c < 0 || c >= len(palette) {
		return "", errors.Errorf("channel %d has no colour, palette holds %d entries", c+1, len(palette))
	}
	return palette[c], nil
}

// Colormap maps a scalar in [0, 1] onto a colour by linear interpolation
// between evenly spaced control points.
type Colormap struct {
	Name     string
	Controls []color.RGBA

	// Low is the colour used for values at or below zero when the map has
	// been cropped. Nil means values below zero clamp to the first control.
	Low *color.RGBA
}

// Suppressed is the colour cropped maps give to points with value 0
var Suppressed = color.RGBA{R: 128, G: 128, B: 128, A: 64}

var named = map[string][]color.RGBA{
	"viridis": {
		{68, 1, 84, 255}, {59, 82, 139, 255}, {33, 145, 140, 255}, {94, 201, 98, 255}, {253, 231, 37, 255},
	},
	"cividis": {
		{0, 34, 78, 255}, {65, 77, 107, 255}, {124, 123, 120, 255}, {187, 175, 113, 255}, {253, 234, 69, 255},
	},
	"inferno": {
		{0, 0, 4, 255}, {87, 16, 110, 255}, {188, 55, 84, 255}, {249, 142, 9, 255}, {252, 255, 164, 255},
	},
	"gray":    {{0, 0, 0, 255}, {255, 255, 255, 255}},
	"magenta": {{0, 0, 0, 255}, {255, 0, 255, 255}},
	"cyan":    {{0, 0, 0, 255}, {0, 255, 255, 255}},
	"yellow":  {{0, 0, 0, 255}, {255, 255, 0, 255}},
	"red":     {{0, 0, 0, 255}, {255, 0, 0, 255}},
	"green":   {{0, 0, 0, 255}, {0, 255, 0, 255}},
	"blue":    {{0, 0, 0, 255}, {0, 0, 255, 255}},
}

// Get returns a named colormap
func Get(name string) (Colormap, error) {
	controls, ok := named[name]
	if !ok {
		return Colormap{}, errors.Errorf("unknown colormap %q", name)
	}
	return Colormap{Name: name, Controls: controls}, nil
}

// Names returns the continuous colormaps points can cycle through
func Names() []string {
	return []string{"viridis", "cividis", "inferno"}
}

// Crop returns a copy of cm where values at or below zero are drawn in the
// Suppressed colour so thresholded points stand out.
func Crop(cm Colormap) Colormap {
	low := Suppressed
	return Colormap{Name: cm.Name, Controls: cm.Controls, Low: &low}
}

// At maps v onto a colour after normalising it with the contrast limits
func (cm Colormap) At(v float64, limits [2]float64) color.RGBA {
	if len(cm.Controls) == 0 {
		return color.RGBA{}
	}
	if cm.Low != nil && v <= 0 {
		return *cm.Low
	}

	t := 0.0
	if limits[1] > limits[0] {
		t = (v - limits[0]) / (limits[1] - limits[0])
	}
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))

	if len(cm.Controls) == 1 {
		return cm.Controls[0]
	}
	pos := t * float64(len(cm.Controls)-1)
	i := int(math.Floor(pos))
	if i >= len(cm.Controls)-1 {
		return cm.Controls[len(cm.Controls)-1]
	}
	f := pos - float64(i)
	a, b := cm.Controls[i], cm.Controls[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
		A: lerp(a.A, b.A, f),
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
