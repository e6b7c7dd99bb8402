package bridge

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"naparij/internal/models"
	"naparij/pkg/colormap"
	"naparij/pkg/napari"
	"naparij/pkg/ndarray"
)

// ComposeKind selects the layer type the composer builds
type ComposeKind int

const (
	KindImage ComposeKind = iota
	KindLabels
)

// Additive is the blending mode of composed image layers
const Additive = "additive"

// Composer turns a marshalled buffer into viewer layers
type Composer struct {
	Viewer  napari.Viewer
	Palette []string
	Log     *slog.Logger
}

// ChannelName returns the layer name of channel c (zero based)
func ChannelName(c int, title string) string {
	return fmt.Sprintf("C%d-%s", c+1, title)
}

// Compose clears the viewer and adds one layer per channel of buf, which
// must hold desc.Dims in (t, z, c, y, x) order. It sets the scale bar unit
// and switches the viewer to 3D.
func (c *Composer) Compose(desc models.ImageDescriptor, buf *ndarray.Array, kind ComposeKind) ([]napari.Layer, error) {
	logger := c.Log
	if logger == nil {
		logger = slog.Default()
	}
	palette := c.Palette
	if len(palette) == 0 {
		palette = colormap.ChannelPalette
	}

	dims := desc.Dims
	channels := dims.Channels()
	switch {
	case kind == KindLabels && channels != 1:
		return nil, errors.Wrapf(ErrUnsupportedChannels, "%s has %d channels", desc.Title, channels)
	case kind == KindImage && channels > len(palette):
		return nil, errors.Wrapf(ErrTooManyChannels, "%s has %d channels, palette has %d", desc.Title, channels, len(palette))
	}

	data, err := buf.Reshape(dims.Frames(), dims.Slices(), channels, dims.Height(), dims.Width())
	if err != nil {
		return nil, errors.Wrapf(err, "composing %s", desc.Title)
	}

	c.Viewer.Layers().Clear()

	scale := desc.VoxelSize.Scale(dims.Slices())
	layers := make([]napari.Layer, 0, channels)
	for ch := 0; ch < channels; ch++ {
		sub, err := data.Take(2, ch)
		if err != nil {
			return layers, errors.Wrapf(err, "slicing channel %d of %s", ch+1, desc.Title)
		}
		sub = sub.SqueezeLeading()

		if kind == KindLabels {
			if !sub.DType.Integer() {
				sub = sub.Cast(ndarray.Int32)
			}
			layers = append(layers, c.Viewer.AddLabels(sub, desc.Title, scale))
			continue
		}

		// palette length was checked above
		cm, _ := colormap.ChannelColor(palette, ch)
		layers = append(layers, c.Viewer.AddImage(sub, napari.ImageOptions{
			Name:     ChannelName(ch, desc.Title),
			Colormap: cm,
			Blending: Additive,
			Scale:    scale,
		}))
	}

	c.Viewer.SetScaleBarUnit(desc.Unit)
	c.Viewer.SetNDisplay(3)
	logger.Info("Composed layers", "title", desc.Title, "layers", len(layers), "scale", scale, "unit", desc.Unit)
	return layers, nil
}
