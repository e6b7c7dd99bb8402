package bridge

import (
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"naparij/internal/models"
	"naparij/pkg/ij"
	"naparij/pkg/ndarray"
)

// MaxFlatRead is the largest sample count the platform can return from a
// single voxel read. Larger images are read plane by plane.
const MaxFlatRead = math.MaxInt32

// Marshaller reads the pixels of a source image into a flat buffer in
// (t, z, c, y, x) order
type Marshaller struct {
	conv       ij.HyperStackConverter
	normalizer *Normalizer
	log        *slog.Logger

	// Limit is the flat read limit; it defaults to MaxFlatRead
	Limit int64
}

// NewMarshaller returns a marshaller using conv for stack conversion
func NewMarshaller(conv ij.HyperStackConverter, normalizer *Normalizer, logger *slog.Logger) *Marshaller {
	if logger == nil {
		logger = slog.Default()
	}
	if normalizer == nil {
		normalizer = NewNormalizer(conv, logger)
	}
	return &Marshaller{conv: conv, normalizer: normalizer, log: logger, Limit: MaxFlatRead}
}

// Marshal reads the descriptor and pixels of img. The image is flattened to
// a plain stack for the read and turned back into a hyperstack afterwards
// when it was one, whether or not the read succeeded. The returned handle is
// the image after that restore, which may be a new window.
func (m *Marshaller) Marshal(img ij.Image) (desc models.ImageDescriptor, buf *ndarray.Array, handle ij.Image, err error) {
	desc, err = ExtractMetadata(img)
	if err != nil {
		return desc, nil, nil, err
	}
	dims := desc.Dims
	handle = img

	wasHyperStack := img.IsHyperStack()
	stackDims, rule := m.normalizer.Flatten(img)
	if wasHyperStack {
		defer func() {
			handle = m.normalizer.Normalize(img, dims)
		}()
	}

	depth := rule.Depth(stackDims)
	if depth != dims.Planes() {
		return desc, nil, handle, errors.Errorf("stack of %v holds %d planes, image %v needs %d", stackDims, depth, dims, dims.Planes())
	}

	total := dims.Voxels()
	var samples []float64
	if total > m.limit() {
		m.log.Info("Image exceeds flat read limit, reading plane by plane",
			"title", desc.Title, "voxels", total, "limit", m.limit())
		samples, err = readPlanes(img.Stack(), dims)
		if err != nil {
			return desc, nil, handle, err
		}
	} else {
		samples = img.Stack().Voxels(0, 0, 0, stackDims.Width(), stackDims.Height(), depth)
	}

	buf, err = ndarray.FromData(samples, ndarray.Float32, dims.Frames(), dims.Slices(), dims.Channels(), dims.Height(), dims.Width())
	if err != nil {
		return desc, nil, handle, errors.Wrapf(err, "reading %s", desc.Title)
	}
	buf = buf.Cast(dtypeFor(desc.BitDepth))

	m.log.Info("Read image", "title", desc.Title, "dims", dims, "dtype", buf.DType.String(),
		"size", humanize.Bytes(buf.Bytes()), "rule", rule.Axis.String())
	return desc, buf, handle, nil
}

func (m *Marshaller) limit() int64 {
	if m.Limit <= 0 {
		return MaxFlatRead
	}
	return m.Limit
}

// readPlanes concatenates the non-empty planes of a stack
func readPlanes(stack ij.Stack, dims models.Dims) ([]float64, error) {
	n := dims.Width() * dims.Height()
	out := make([]float64, 0, int64(n)*int64(dims.Planes()))
	for _, plane := range stack.ImageArray() {
		if len(plane) == 0 {
			continue
		}
		if len(plane) != n {
			return nil, errors.Errorf("plane of %d samples in a %dx%d stack", len(plane), dims.Width(), dims.Height())
		}
		out = append(out, plane...)
	}
	return out, nil
}

func dtypeFor(depth models.BitDepth) ndarray.DType {
	switch depth {
	case models.BitDepth8:
		return ndarray.Uint8
	case models.BitDepth16:
		return ndarray.Uint16
	default:
		return ndarray.Float32
	}
}
