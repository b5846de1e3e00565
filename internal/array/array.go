// Package array provides the dense float64 N-dimensional arrays that the
// autodiff engine computes on.
//
// Arrays are row-major and always contiguous. Elementwise arithmetic follows
// NumPy broadcasting rules, MatMul is delegated to gonum's BLAS-backed Dense,
// and vector kernels use gonum/floats.
//
// Operations never mutate their operands; the only mutating entry points are
// Data (direct slice access) and the *InPlace helpers used by optimizers.
package array

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/parallel"
)

// Array is a contiguous row-major float64 N-d array.
type Array struct {
	shape   Shape
	strides []int
	data    []float64
}

// New creates an array with the given shape, copying data.
func New(data []float64, shape Shape) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %v requires %d elements, got %d",
			[]int(shape), shape.NumElements(), len(data))
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return wrap(buf, shape), nil
}

// wrap builds an array around buf without copying. Shape must be valid.
func wrap(buf []float64, shape Shape) *Array {
	return &Array{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    buf,
	}
}

// Shape returns the array's shape. The caller must not modify it.
func (a *Array) Shape() Shape {
	return a.shape
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int {
	return len(a.shape)
}

// Size returns the total number of elements.
func (a *Array) Size() int {
	return len(a.data)
}

// Strides returns the row-major strides.
func (a *Array) Strides() []int {
	return a.strides
}

// Data returns the backing slice.
//
// WARNING: Modifications to the returned slice modify the array.
func (a *Array) Data() []float64 {
	return a.data
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	buf := make([]float64, len(a.data))
	copy(buf, a.data)
	return wrap(buf, a.shape)
}

// Item returns the single element of a one-element array.
func (a *Array) Item() (float64, error) {
	if len(a.data) != 1 {
		return 0, errors.Wrapf(ErrShapeMismatch, "item of array with shape %v", []int(a.shape))
	}
	return a.data[0], nil
}

// At returns the element at the given indices.
// Panics if the indices are out of bounds.
func (a *Array) At(indices ...int) float64 {
	return a.data[a.offset(indices)]
}

// Set stores value at the given indices.
// Panics if the indices are out of bounds.
func (a *Array) Set(value float64, indices ...int) {
	a.data[a.offset(indices)] = value
}

func (a *Array) offset(indices []int) int {
	if len(indices) != len(a.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(a.shape), len(indices)))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= a.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, a.shape[i]))
		}
		off += idx * a.strides[i]
	}
	return off
}

// Reshape returns a copy of the array with a new shape holding the same
// number of elements.
func (a *Array) Reshape(shape Shape) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(a.data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot reshape %v into %v", []int(a.shape), []int(shape))
	}
	return a.Clone().withShape(shape), nil
}

func (a *Array) withShape(shape Shape) *Array {
	a.shape = shape.Clone()
	a.strides = shape.ComputeStrides()
	return a
}

// Map applies f to every element, returning a new array.
func (a *Array) Map(f func(float64) float64) *Array {
	buf := make([]float64, len(a.data))
	parallel.Range(len(buf), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			buf[i] = f(a.data[i])
		}
	}, kernelConfig())
	return wrap(buf, a.shape)
}

// AllClose reports whether both arrays have the same shape and every pair
// of elements differs by at most tol.
func (a *Array) AllClose(b *Array, tol float64) bool {
	if !a.shape.Equal(b.shape) {
		return false
	}
	for i := range a.data {
		d := a.data[i] - b.data[i]
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}

// String returns a compact human-readable representation.
func (a *Array) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Array%v", []int(a.shape))
	sb.WriteString(fmt.Sprint(a.ToList()))
	return sb.String()
}
