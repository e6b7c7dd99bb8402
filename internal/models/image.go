package models

import "fmt"

// Axis indexes the fixed five-axis order of the source platform
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisChannel
	AxisZ
	AxisTime
)

// String returns the short axis name
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisChannel:
		return "c"
	case AxisZ:
		return "z"
	case AxisTime:
		return "t"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Dims holds the axis extents in (x, y, channel, z, time) order
type Dims [5]int

// Width is the x extent
func (d Dims) Width() int { return d[AxisX] }

// Height is the y extent
func (d Dims) Height() int { return d[AxisY] }

// Channels is the channel extent
func (d Dims) Channels() int { return d[AxisChannel] }

// Slices is the z extent
func (d Dims) Slices() int { return d[AxisZ] }

// Frames is the time extent
func (d Dims) Frames() int { return d[AxisTime] }

// Voxels returns the product of all five extents
func (d Dims) Voxels() int64 {
	n := int64(1)
	for _, v := range d {
		n *= int64(v)
	}
	return n
}

// Planes returns the number of x-y planes (channel * z * time)
func (d Dims) Planes() int {
	return d[AxisChannel] * d[AxisZ] * d[AxisTime]
}

// UnitMask returns a bitmask with bit i set when axis i has extent 1
func (d Dims) UnitMask() uint8 {
	var mask uint8
	for i, v := range d {
		if v == 1 {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// VoxelSize is the physical size of one voxel in (z, y, x) order
type VoxelSize struct {
	Z, Y, X float64
}

// Scale returns the display scale vector. When the z extent is 1 the z
// component is dropped so the vector matches a squeezed 2D array.
func (v VoxelSize) Scale(zExtent int) []float64 {
	if zExtent == 1 {
		return []float64{v.Y, v.X}
	}
	return []float64{v.Z, v.Y, v.X}
}

// BitDepth is the sample bit depth reported by the source
type BitDepth int

const (
	BitDepth8  BitDepth = 8
	BitDepth16 BitDepth = 16
)

// ImageDescriptor describes one fetched source image. It is built fresh on
// every fetch and never stored.
type ImageDescriptor struct {
	// Title is the short title of the source window
	Title string

	// Dims are the extents in (x, y, c, z, t) order
	Dims Dims

	// VoxelSize is the calibration in (z, y, x) order
	VoxelSize VoxelSize

	// Unit is the calibration unit string
	Unit string

	// BitDepth is 8, 16 or anything else (treated as float)
	BitDepth BitDepth
}

// ResultRow is one row of a point results table
type ResultRow struct {
	X, Y, Z    float64
	Confidence float64
}

// Calibration is the physical pixel size stored with exported layers
type Calibration struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// ZFactor returns the z to x anisotropy ratio
func (c Calibration) ZFactor() float64 {
	if c.X == 0 {
		return 1
	}
	return c.Z / c.X
}
