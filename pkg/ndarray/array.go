// Package ndarray holds flat sample buffers with an N-d row-major shape. It is
// the in-memory form of pixel data while it moves between the source platform
// and the viewer.
package ndarray

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// DType is the sample type an array represents
type DType int

const (
	Float32 DType = iota
	Uint8
	Uint16
	Int32
)

// String returns the numpy-style dtype name
func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	default:
		return "float32"
	}
}

// ParseDType is the inverse of DType.String
func ParseDType(s string) (DType, error) {
	switch s {
	case "uint8":
		return Uint8, nil
	case "uint16":
		return Uint16, nil
	case "int32":
		return Int32, nil
	case "float32", "":
		return Float32, nil
	}
	return Float32, errors.Errorf("unknown dtype %q", s)
}

// ItemSize returns the byte size of one sample
func (d DType) ItemSize() int {
	switch d {
	case Uint8:
		return 1
	case Uint16:
		return 2
	default:
		return 4
	}
}

// Integer reports whether the dtype is an integer type
func (d DType) Integer() bool {
	return d != Float32
}

// Array is a row-major N-d array. Samples are kept as float64, which holds
// every value of the supported dtypes exactly.
type Array struct {
	Shape []int
	DType DType
	Data  []float64
}

// New allocates a zeroed array
func New(dtype DType, shape ...int) *Array {
	return &Array{
		Shape: append([]int(nil), shape...),
		DType: dtype,
		Data:  make([]float64, product(shape)),
	}
}

// FromData wraps data without copying. The data length must match the shape.
func FromData(data []float64, dtype DType, shape ...int) (*Array, error) {
	if n := product(shape); n != len(data) {
		return nil, errors.Errorf("data length %d does not match shape %v (%d samples)", len(data), shape, n)
	}
	return &Array{Shape: append([]int(nil), shape...), DType: dtype, Data: data}, nil
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Size returns the number of samples
func (a *Array) Size() int { return len(a.Data) }

// NDim returns the number of axes
func (a *Array) NDim() int { return len(a.Shape) }

// Bytes returns the size of the samples in the array's dtype
func (a *Array) Bytes() uint64 {
	return uint64(len(a.Data)) * uint64(a.DType.ItemSize())
}

// Reshape returns a view with a new shape over the same data
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if n := product(shape); n != len(a.Data) {
		return nil, errors.Errorf("cannot reshape %v into %v", a.Shape, shape)
	}
	return &Array{Shape: append([]int(nil), shape...), DType: a.DType, Data: a.Data}, nil
}

func (a *Array) strides() []int {
	st := make([]int, len(a.Shape))
	acc := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= a.Shape[i]
	}
	return st
}

// Offset returns the flat offset of an index tuple
func (a *Array) Offset(idx ...int) (int, error) {
	if len(idx) != len(a.Shape) {
		return 0, errors.Errorf("index %v has %d axes, array has %d", idx, len(idx), len(a.Shape))
	}
	off := 0
	for i, st := range a.strides() {
		if idx[i] < 0 || idx[i] >= a.Shape[i] {
			return 0, errors.Errorf("index %d out of range for axis %d with size %d", idx[i], i, a.Shape[i])
		}
		off += idx[i] * st
	}
	return off, nil
}

// At returns the sample at idx. It panics on a bad index.
func (a *Array) At(idx ...int) float64 {
	off, err := a.Offset(idx...)
	if err != nil {
		panic(err)
	}
	return a.Data[off]
}

// Take copies out the sub-array at position index along axis. The axis is
// removed from the result's shape.
func (a *Array) Take(axis, index int) (*Array, error) {
	if axis < 0 || axis >= len(a.Shape) {
		return nil, errors.Errorf("axis %d out of range for %d-d array", axis, len(a.Shape))
	}
	if index < 0 || index >= a.Shape[axis] {
		return nil, errors.Errorf("index %d exceeds axis %d size %d", index, axis, a.Shape[axis])
	}

	outer := product(a.Shape[:axis])
	inner := product(a.Shape[axis+1:])
	n := a.Shape[axis]

	out := make([]float64, 0, outer*inner)
	for o := 0; o < outer; o++ {
		start := (o*n + index) * inner
		out = append(out, a.Data[start:start+inner]...)
	}

	shape := make([]int, 0, len(a.Shape)-1)
	shape = append(shape, a.Shape[:axis]...)
	shape = append(shape, a.Shape[axis+1:]...)
	return &Array{Shape: shape, DType: a.DType, Data: out}, nil
}

// SqueezeLeading drops size-1 axes from the front of the shape only.
// Trailing and inner unit axes are kept.
func (a *Array) SqueezeLeading() *Array {
	i := 0
	for i < len(a.Shape)-1 && a.Shape[i] == 1 {
		i++
	}
	return &Array{Shape: append([]int(nil), a.Shape[i:]...), DType: a.DType, Data: a.Data}
}

// Cast converts samples to dtype. Integer targets clamp to their range and
// truncate toward zero.
func (a *Array) Cast(dtype DType) *Array {
	out := make([]float64, len(a.Data))
	for i, v := range a.Data {
		out[i] = castValue(v, dtype)
	}
	return &Array{Shape: append([]int(nil), a.Shape...), DType: dtype, Data: out}
}

func castValue(v float64, dtype DType) float64 {
	if math.IsNaN(v) && dtype.Integer() {
		return 0
	}
	switch dtype {
	case Uint8:
		return math.Trunc(math.Max(0, math.Min(math.MaxUint8, v)))
	case Uint16:
		return math.Trunc(math.Max(0, math.Min(math.MaxUint16, v)))
	case Int32:
		return math.Trunc(math.Max(math.MinInt32, math.Min(math.MaxInt32, v)))
	default:
		return float64(float32(v))
	}
}

// MinMax returns the smallest and largest sample. An empty array yields 0, 0.
func (a *Array) MinMax() (float64, float64) {
	if len(a.Data) == 0 {
		return 0, 0
	}
	return floats.Min(a.Data), floats.Max(a.Data)
}

// Rows returns the last two axes of a 2D array as nested rows
func (a *Array) Rows() ([][]float64, error) {
	if len(a.Shape) != 2 {
		return nil, errors.Errorf("rows need a 2-d array, got shape %v", a.Shape)
	}
	rows := make([][]float64, a.Shape[0])
	for y := range rows {
		rows[y] = a.Data[y*a.Shape[1] : (y+1)*a.Shape[1]]
	}
	return rows, nil
}
