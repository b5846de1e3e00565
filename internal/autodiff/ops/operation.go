// Package ops defines the differentiable primitives of the autodiff engine.
//
// Each operation implements the Operation interface:
//   - Forward: computes the output value from the input values
//   - Backward: computes one gradient per input from the inputs, the cached
//     output and the gradient flowing into the output
//
// Operations are stateless or carry only construction-time parameters
// (axes, slopes, shapes). Neither pass mutates its arguments, so an
// operation value may be shared between any number of graph nodes.
//
// Supported operations:
//   - Add, Sub, Mul, Div: element-wise arithmetic with broadcasting
//   - MatMul: matrix product (d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad)
//   - Pow: element-wise power with optional exponent gradient
//   - Sum, Max, Min: full reductions to a scalar
//   - Exp, Log, Negative, Identity, Transpose, Reshape
//   - ReLU, ReLU6, LeakyReLU, Sigmoid, Tanh, SELU, Softmax
package ops

import (
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
)

// Common errors.
var (
	// ErrDomain is returned when an input lies outside an operation's domain
	// (log of a non-positive value, differentiable power of a non-positive base).
	ErrDomain = errors.New("domain error")

	// ErrArity is returned when an operation receives the wrong number of inputs.
	ErrArity = errors.New("wrong number of inputs")
)

// Operation is a differentiable primitive in the computation graph.
type Operation interface {
	// Name returns the operation name used in diagnostics and graph exports.
	Name() string

	// Forward computes the output value. It fails with a shape error on
	// incompatible inputs and with ErrDomain on out-of-domain values.
	Forward(inputs ...*array.Array) (*array.Array, error)

	// Backward returns exactly one gradient per input, each with the shape
	// of the corresponding input.
	//
	// Example for Add:
	//   inputs: [a, b]
	//   outputGrad: dL/d(a+b)
	//   returns: [dL/d(a+b) summed to a's shape, dL/d(a+b) summed to b's shape]
	Backward(inputs []*array.Array, output, outputGrad *array.Array) ([]*array.Array, error)
}

func expectInputs(op Operation, inputs []*array.Array, n int) error {
	if len(inputs) != n {
		return errors.Wrapf(ErrArity, "%s: expected %d inputs, got %d", op.Name(), n, len(inputs))
	}
	return nil
}

// scaleByDerivative returns outputGrad ⊙ d(src) where d is applied element-wise.
func scaleByDerivative(outputGrad, src *array.Array, d func(float64) float64) (*array.Array, error) {
	return array.Mul(outputGrad, src.Map(d))
}

// unary wraps a single-gradient result into the slice Backward returns.
func unary(grad *array.Array, err error) ([]*array.Array, error) {
	if err != nil {
		return nil, err
	}
	return []*array.Array{grad}, nil
}
