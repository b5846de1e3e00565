package ops

import (
	"math"

	"github.com/born-ml/autograd/internal/array"
)

// ReLUOp represents a ReLU activation: output = max(0, x).
//
// Backward pass:
//   - d(ReLU(x))/dx = 1 if x > 0, else 0
//
// The derivative at exactly 0 is taken as 0.
type ReLUOp struct{}

// Name returns "ReLU".
func (ReLUOp) Name() string { return "ReLU" }

// Forward computes max(0, x).
func (op ReLUOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Map(func(x float64) float64 { return math.Max(0, x) }), nil
}

// Backward masks outputGrad where x <= 0.
func (ReLUOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return unary(scaleByDerivative(outputGrad, inputs[0], func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	}))
}

// ReLU6Op represents a clipped ReLU: output = min(max(0, x), 6).
//
// Backward: derivative is 1 where 0 < x < 6, else 0.
type ReLU6Op struct{}

// Name returns "ReLU6".
func (ReLU6Op) Name() string { return "ReLU6" }

// Forward computes min(max(0, x), 6).
func (op ReLU6Op) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Map(func(x float64) float64 { return math.Min(math.Max(0, x), 6) }), nil
}

// Backward masks outputGrad outside (0, 6).
func (ReLU6Op) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return unary(scaleByDerivative(outputGrad, inputs[0], func(x float64) float64 {
		if x > 0 && x < 6 {
			return 1
		}
		return 0
	}))
}

// LeakyReLUOp represents output = x if x > 0, else NegativeSlope * x.
type LeakyReLUOp struct {
	NegativeSlope float64
}

// DefaultNegativeSlope is the slope used by LeakyReLU when none is given.
const DefaultNegativeSlope = 0.01

// Name returns "LeakyReLU".
func (LeakyReLUOp) Name() string { return "LeakyReLU" }

// Forward applies the leaky rectifier.
func (op LeakyReLUOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Map(func(x float64) float64 {
		if x > 0 {
			return x
		}
		return op.NegativeSlope * x
	}), nil
}

// Backward scales outputGrad by 1 where x > 0 and by NegativeSlope elsewhere.
func (op LeakyReLUOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return unary(scaleByDerivative(outputGrad, inputs[0], func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return op.NegativeSlope
	}))
}
