package autodiff

import (
	"github.com/born-ml/autograd/internal/array"
)

// Leaf constructors. Leaves require gradients unless stated otherwise.

// Tensor creates a leaf from a number or nested slices of numbers.
func (g *Graph) Tensor(data any) (*Tensor, error) {
	a, err := array.FromNested(data)
	if err != nil {
		return nil, err
	}
	return g.FromArray(a), nil
}

// FromSlice creates a leaf from flat row-major data. The data is copied.
func (g *Graph) FromSlice(data []float64, shape ...int) (*Tensor, error) {
	a, err := array.New(data, array.Shape(shape))
	if err != nil {
		return nil, err
	}
	return g.FromArray(a), nil
}

// FromArray creates a leaf that takes ownership of a.
func (g *Graph) FromArray(a *array.Array) *Tensor {
	return g.newNode(a, nil, nil, true)
}

// Constant creates a leaf that does not require gradients.
func (g *Graph) Constant(a *array.Array) *Tensor {
	return g.newNode(a, nil, nil, false)
}

// Scalar creates a rank-0 leaf.
func (g *Graph) Scalar(v float64) *Tensor {
	return g.FromArray(array.Scalar(v))
}

// Zeros creates a leaf filled with zeros.
func (g *Graph) Zeros(shape ...int) (*Tensor, error) {
	return g.Full(0, shape...)
}

// Ones creates a leaf filled with ones.
func (g *Graph) Ones(shape ...int) (*Tensor, error) {
	return g.Full(1, shape...)
}

// Full creates a leaf filled with value.
func (g *Graph) Full(value float64, shape ...int) (*Tensor, error) {
	s := array.Shape(shape)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return g.FromArray(array.Full(s, value)), nil
}

// Randn creates a leaf with samples from the standard normal distribution,
// drawn from the graph's random source.
func (g *Graph) Randn(shape ...int) (*Tensor, error) {
	s := array.Shape(shape)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	g.rngMu.Lock()
	a := array.Randn(s, g.rng)
	g.rngMu.Unlock()
	return g.FromArray(a), nil
}

// Arange creates a rank-1 leaf with values in [start, stop) spaced by step.
func (g *Graph) Arange(start, stop, step float64) (*Tensor, error) {
	a, err := array.Arange(start, stop, step)
	if err != nil {
		return nil, err
	}
	return g.FromArray(a), nil
}

// Eye creates an n×n identity leaf.
func (g *Graph) Eye(n int) (*Tensor, error) {
	a, err := array.Eye(n)
	if err != nil {
		return nil, err
	}
	return g.FromArray(a), nil
}
