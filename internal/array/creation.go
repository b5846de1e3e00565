package array

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
)

// Zeros creates an array filled with zeros.
// Panics on an invalid shape; callers validate user input first.
func Zeros(shape Shape) *Array {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	return wrap(make([]float64, shape.NumElements()), shape)
}

// Ones creates an array filled with ones.
func Ones(shape Shape) *Array {
	return Full(shape, 1)
}

// Full creates an array filled with value.
func Full(shape Shape, value float64) *Array {
	a := Zeros(shape)
	for i := range a.data {
		a.data[i] = value
	}
	return a
}

// Scalar creates a rank-0 array.
func Scalar(value float64) *Array {
	return wrap([]float64{value}, Shape{})
}

// ZerosLike creates a zero array with the shape of a.
func ZerosLike(a *Array) *Array {
	return Zeros(a.shape)
}

// OnesLike creates a ones array with the shape of a.
func OnesLike(a *Array) *Array {
	return Ones(a.shape)
}

// Randn creates an array of samples from the standard normal distribution.
//
// Uses math/rand (not crypto/rand), which is appropriate for parameter
// initialization and reproducible with a seeded source.
func Randn(shape Shape, rng *rand.Rand) *Array {
	a := Zeros(shape)
	for i := range a.data {
		a.data[i] = rng.NormFloat64()
	}
	return a
}

// Arange creates a 1-D array with values in [start, stop) spaced by step.
func Arange(start, stop, step float64) (*Array, error) {
	if step == 0 {
		return nil, errors.Wrap(ErrInvalidShape, "arange: step must be non-zero")
	}
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "arange: empty range [%g, %g) with step %g", start, stop, step)
	}
	a := Zeros(Shape{n})
	for i := range a.data {
		a.data[i] = start + float64(i)*step
	}
	return a, nil
}

// Eye creates an n×n identity matrix.
func Eye(n int) (*Array, error) {
	shape := Shape{n, n}
	if err := shape.Validate(); err != nil {
		return nil, errors.WithMessage(err, "eye")
	}
	a := Zeros(shape)
	for i := 0; i < n; i++ {
		a.data[i*n+i] = 1
	}
	return a, nil
}
