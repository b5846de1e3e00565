package array

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sum returns the sum of all elements.
func Sum(a *Array) float64 {
	return floats.Sum(a.data)
}

// Max returns the maximum element and the flat index of its first occurrence.
func Max(a *Array) (float64, int) {
	idx := floats.MaxIdx(a.data)
	return a.data[idx], idx
}

// Min returns the minimum element and the flat index of its first occurrence.
func Min(a *Array) (float64, int) {
	idx := floats.MinIdx(a.data)
	return a.data[idx], idx
}

// SumAxis sums along axis. With keepDims the reduced axis stays as size 1.
func SumAxis(a *Array, axis int, keepDims bool) (*Array, error) {
	return reduceAxis(a, axis, keepDims, 0, func(acc, v float64) float64 { return acc + v })
}

// MaxAxis takes the maximum along axis.
func MaxAxis(a *Array, axis int, keepDims bool) (*Array, error) {
	return reduceAxis(a, axis, keepDims, math.Inf(-1), math.Max)
}

// reduceAxis folds the elements along axis. The array is viewed as
// [outer, n, inner] where n is the reduced dimension.
func reduceAxis(a *Array, axis int, keepDims bool, init float64, f func(acc, v float64) float64) (*Array, error) {
	axis, err := a.shape.NormalizeAxis(axis)
	if err != nil {
		return nil, err
	}

	outer := a.shape[:axis].NumElements()
	n := a.shape[axis]
	inner := a.shape[axis+1:].NumElements()

	out := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			acc := init
			for k := 0; k < n; k++ {
				acc = f(acc, a.data[(o*n+k)*inner+i])
			}
			out[o*inner+i] = acc
		}
	}

	return wrap(out, reducedShape(a.shape, axis, keepDims)), nil
}

func reducedShape(shape Shape, axis int, keepDims bool) Shape {
	out := make(Shape, 0, len(shape))
	for i, dim := range shape {
		switch {
		case i != axis:
			out = append(out, dim)
		case keepDims:
			out = append(out, 1)
		}
	}
	return out
}
