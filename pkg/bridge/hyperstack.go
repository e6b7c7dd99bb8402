package bridge

import (
	"fmt"
	"log/slog"

	"naparij/internal/models"
	"naparij/pkg/ij"
)

// DivideRule says how planes of a flattened stack are counted. Axis is the
// axis the stack reports its planes on and Factors are the axes whose
// extents multiply into the plane count.
type DivideRule struct {
	Axis    models.Axis
	Factors []models.Axis
}

// Depth returns the number of planes the rule reads from dims
func (r DivideRule) Depth(dims models.Dims) int {
	d := 1
	for _, a := range r.Factors {
		d *= dims[a]
	}
	return d
}

const (
	unitC = 1 << uint(models.AxisChannel)
	unitZ = 1 << uint(models.AxisZ)
	unitT = 1 << uint(models.AxisTime)

	nonSpatial = unitC | unitZ | unitT
)

// divideTable is keyed by which of channel, z and time have extent 1. The x
// and y bits of the unit mask never change the rule.
//
// A plain stack with only frames keeps them on the time axis, because
// flattening cannot tell z from time when only one of them is present.
var divideTable = map[uint8]DivideRule{
	unitC | unitZ | unitT: {Axis: models.AxisZ, Factors: []models.Axis{models.AxisZ}},
	unitC | unitZ:         {Axis: models.AxisTime, Factors: []models.Axis{models.AxisTime}},
	unitC | unitT:         {Axis: models.AxisZ, Factors: []models.Axis{models.AxisZ}},
	unitC:                 {Axis: models.AxisZ, Factors: []models.Axis{models.AxisZ, models.AxisTime}},
	unitZ | unitT:         {Axis: models.AxisChannel, Factors: []models.Axis{models.AxisChannel}},
	unitZ:                 {Axis: models.AxisChannel, Factors: []models.Axis{models.AxisChannel, models.AxisTime}},
	unitT:                 {Axis: models.AxisChannel, Factors: []models.Axis{models.AxisChannel, models.AxisZ}},
	0:                     {Axis: models.AxisChannel, Factors: []models.Axis{models.AxisChannel, models.AxisZ, models.AxisTime}},
}

// DivideRuleFor returns the rule for a stack's dimensions
func DivideRuleFor(dims models.Dims) DivideRule {
	rule, ok := divideTable[dims.UnitMask()&nonSpatial]
	if !ok {
		// every 3-bit key is in the table
		panic(fmt.Sprintf("no divide rule for dims %v", dims))
	}
	return rule
}

// Normalizer puts images into hyperstack form and keeps their windows
// consistent afterwards
type Normalizer struct {
	conv ij.HyperStackConverter
	log  *slog.Logger
}

// NewNormalizer returns a normalizer using conv
func NewNormalizer(conv ij.HyperStackConverter, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{conv: conv, log: logger}
}

// Normalize converts img to a composite hyperstack with the channel, z and
// time extents of dims and returns the resulting handle.
//
// When the converter hands back the same image it has changed it in place
// without redrawing, so the window is hidden and shown once. When it hands
// back a new image the old window is closed and the new one shown.
func (n *Normalizer) Normalize(img ij.Image, dims models.Dims) ij.Image {
	out := n.conv.ToHyperStack(img, dims.Channels(), dims.Slices(), dims.Frames(), "composite")
	if out == nil || out.ID() == img.ID() {
		img.Hide()
		img.Show()
		n.log.Debug("Refreshed hyperstack in place", "title", img.ShortTitle())
		return img
	}
	img.Close()
	out.Show()
	n.log.Debug("Replaced image with hyperstack", "title", img.ShortTitle(), "old", img.ID(), "new", out.ID())
	return out
}

// Flatten converts img to a plain stack and returns the rule for reading it
func (n *Normalizer) Flatten(img ij.Image) (models.Dims, DivideRule) {
	n.conv.ToStack(img)
	dims := img.Dimensions()
	return dims, DivideRuleFor(dims)
}
