package bridge

import (
	"github.com/nfnt/resize"

	"naparij/pkg/ij"
)

// ScreenshotTitle is the window title of screenshots sent to the platform
const ScreenshotTitle = "screenshot"

// Screenshot hands the viewer's rendered frame to the platform as a new RGB
// image. Frames wider than ScreenshotMaxWidth are downsized first.
func (b *Bridge) Screenshot() (ij.Image, error) {
	frame := b.viewer.Screenshot()
	if frame == nil || frame.Bounds().Empty() {
		return nil, ErrNoScreenshot
	}

	if maxWidth := b.opts.ScreenshotMaxWidth; maxWidth > 0 && uint(frame.Bounds().Dx()) > maxWidth {
		frame = resize.Resize(maxWidth, 0, frame, resize.Lanczos3)
	}

	img := b.rt.NewImage(ScreenshotTitle, frame)
	b.log.Info("Sent screenshot", "width", frame.Bounds().Dx(), "height", frame.Bounds().Dy())
	return img, nil
}
