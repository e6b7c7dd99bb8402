package ndarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestFromDataChecksLength(t *testing.T) {
	_, err := FromData(seq(5), Float32, 2, 3)
	assert.Error(t, err)

	a, err := FromData(seq(6), Float32, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, a.NDim())
	assert.Equal(t, 6, a.Size())
	assert.Equal(t, uint64(24), a.Bytes())
}

func TestTakeMatchesIndexing(t *testing.T) {
	shape := []int{2, 3, 4, 5, 6}
	a, err := FromData(seq(2*3*4*5*6), Uint16, shape...)
	require.NoError(t, err)

	for axis := range shape {
		for index := 0; index < shape[axis]; index++ {
			sub, err := a.Take(axis, index)
			require.NoError(t, err)
			require.Equal(t, 4, sub.NDim())

			// walk the source and compare with the sub-array
			idx := make([]int, 5)
			for off := range a.Data {
				rem := off
				for i := 4; i >= 0; i-- {
					idx[i] = rem % shape[i]
					rem /= shape[i]
				}
				if idx[axis] != index {
					continue
				}
				subIdx := append(append([]int(nil), idx[:axis]...), idx[axis+1:]...)
				require.Equal(t, a.Data[off], sub.At(subIdx...))
			}
		}
	}

	_, err = a.Take(5, 0)
	assert.Error(t, err)
	_, err = a.Take(0, 2)
	assert.Error(t, err)
}

func TestTakeCopies(t *testing.T) {
	a, err := FromData(seq(4), Uint8, 2, 2)
	require.NoError(t, err)
	sub, err := a.Take(0, 1)
	require.NoError(t, err)
	sub.Data[0] = 99
	assert.Equal(t, 2.0, a.Data[2])
}

func TestSqueezeLeading(t *testing.T) {
	tests := []struct {
		shape []int
		want  []int
	}{
		{[]int{1, 1, 3, 2}, []int{3, 2}},
		{[]int{3, 1, 2, 2}, []int{3, 1, 2, 2}},
		{[]int{1, 2, 1, 1}, []int{2, 1, 1}},
		{[]int{1, 1, 1}, []int{1}},
	}
	for _, tt := range tests {
		a := New(Uint8, tt.shape...)
		assert.Equal(t, tt.want, a.SqueezeLeading().Shape, "shape %v", tt.shape)
	}
}

func TestReshape(t *testing.T) {
	a, err := FromData(seq(24), Float32, 24)
	require.NoError(t, err)

	b, err := a.Reshape(2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 23.0, b.At(1, 2, 3))
	assert.Equal(t, 13.0, b.At(1, 0, 1))

	_, err = a.Reshape(5, 5)
	assert.Error(t, err)
}

func TestOffsetOutOfRange(t *testing.T) {
	a := New(Float32, 2, 2)
	_, err := a.Offset(2, 0)
	assert.Error(t, err)
	_, err = a.Offset(0)
	assert.Error(t, err)
	assert.Panics(t, func() { a.At(-1, 0) })
}

func TestCast(t *testing.T) {
	a, err := FromData([]float64{-3, 12.7, 300, 70000}, Float32, 4)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 12, 255, 255}, a.Cast(Uint8).Data)
	assert.Equal(t, []float64{0, 12, 300, 65535}, a.Cast(Uint16).Data)
	assert.Equal(t, []float64{-3, 12, 300, 70000}, a.Cast(Int32).Data)
	assert.Equal(t, Uint8, a.Cast(Uint8).DType)
	assert.Equal(t, Float32, a.DType, "cast leaves the source alone")
}

func TestDTypeNames(t *testing.T) {
	for _, d := range []DType{Float32, Uint8, Uint16, Int32} {
		got, err := ParseDType(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDType("complex128")
	assert.Error(t, err)
}

func TestMinMaxAndRows(t *testing.T) {
	a, err := FromData([]float64{4, -1, 7, 2, 0, 3}, Float32, 2, 3)
	require.NoError(t, err)

	lo, hi := a.MinMax()
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)

	rows, err := a.Rows()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{4, -1, 7}, {2, 0, 3}}, rows)

	_, err = New(Float32, 2, 2, 2).Rows()
	assert.Error(t, err)

	lo, hi = New(Float32, 0).MinMax()
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}
