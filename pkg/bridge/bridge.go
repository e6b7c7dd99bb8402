// Package bridge moves images, point annotations and line pairs between the
// image platform and the viewer. All operations run synchronously on the
// caller's goroutine and move one complete snapshot at a time.
package bridge

import (
	"log/slog"

	"naparij/pkg/colormap"
	"naparij/pkg/ij"
	"naparij/pkg/napari"
	"naparij/pkg/threshold"
)

// Options tune the bridge
type Options struct {
	// ChannelColors is the positional channel palette
	ChannelColors []string

	// PointSize is the display size of imported points
	PointSize float64

	// ConfidenceColumns are the headings tried, in order, to find the
	// confidence column of a points table
	ConfidenceColumns []string

	// Colormaps are cycled through by CycleColormap
	Colormaps []string

	// ScreenshotMaxWidth downsizes screenshots wider than this; 0 keeps them
	ScreenshotMaxWidth uint
}

// DefaultOptions returns the stock options
func DefaultOptions() Options {
	return Options{
		ChannelColors:     append([]string(nil), colormap.ChannelPalette...),
		PointSize:         3,
		ConfidenceColumns: []string{"V", "Confidence", "confidence", "Score", "Value"},
		Colormaps:         colormap.Names(),
	}
}

// Bridge connects one platform runtime to one viewer
type Bridge struct {
	rt     ij.Runtime
	viewer napari.Viewer
	opts   Options
	log    *slog.Logger

	marshaller *Marshaller
	normalizer *Normalizer
	engine     *threshold.Engine

	colormapID int
}

// New creates a bridge. A nil logger uses slog.Default, and a nil engine
// gets a private one that discards histograms.
func New(rt ij.Runtime, viewer napari.Viewer, engine *threshold.Engine, opts Options, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = threshold.NewEngine(nil, logger)
	}
	normalizer := NewNormalizer(rt.Converter(), logger)
	return &Bridge{
		rt:         rt,
		viewer:     viewer,
		opts:       opts,
		log:        logger,
		marshaller: NewMarshaller(rt.Converter(), normalizer, logger),
		normalizer: normalizer,
		engine:     engine,
	}
}

// Viewer returns the destination viewer
func (b *Bridge) Viewer() napari.Viewer { return b.viewer }

// Engine returns the threshold engine tracking imported points
func (b *Bridge) Engine() *threshold.Engine { return b.engine }

// Marshaller returns the pixel marshaller
func (b *Bridge) Marshaller() *Marshaller { return b.marshaller }

// GetImage fetches the active image and shows one image layer per channel
func (b *Bridge) GetImage() ([]napari.Layer, error) {
	return b.fetch(KindImage)
}

// GetLabels fetches the active image as a single labels layer
func (b *Bridge) GetLabels() ([]napari.Layer, error) {
	return b.fetch(KindLabels)
}

func (b *Bridge) fetch(kind ComposeKind) ([]napari.Layer, error) {
	img := b.rt.ActiveImage()
	if img == nil {
		return nil, ErrInvalidSource
	}
	desc, buf, handle, err := b.marshaller.Marshal(img)
	if err != nil {
		return nil, err
	}
	if handle.ID() != img.ID() {
		b.log.Debug("Source window replaced", "title", desc.Title, "old", img.ID(), "new", handle.ID())
	}
	composer := &Composer{Viewer: b.viewer, Palette: b.opts.ChannelColors, Log: b.log}
	return composer.Compose(desc, buf, kind)
}
