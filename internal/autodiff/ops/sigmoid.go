package ops

import (
	"math"

	"github.com/born-ml/autograd/internal/array"
)

// SigmoidOp represents σ(x) = 1 / (1 + exp(-x)).
//
// Backward: d(σ(x))/dx = σ(x) * (1 - σ(x)), computed from the cached output.
type SigmoidOp struct{}

// Name returns "Sigmoid".
func (SigmoidOp) Name() string { return "Sigmoid" }

// Forward computes σ(x).
func (op SigmoidOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Map(sigmoid), nil
}

// Backward computes outputGrad * σ * (1 - σ).
func (SigmoidOp) Backward(_ []*array.Array, output, outputGrad *array.Array) ([]*array.Array, error) {
	return unary(scaleByDerivative(outputGrad, output, func(s float64) float64 { return s * (1 - s) }))
}

// sigmoid is evaluated in a form that cannot overflow exp for large |x|.
func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// TanhOp represents the hyperbolic tangent.
//
// Backward: d(tanh(x))/dx = 1 - tanh²(x), computed from the cached output.
type TanhOp struct{}

// Name returns "Tanh".
func (TanhOp) Name() string { return "Tanh" }

// Forward computes tanh(x).
func (op TanhOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Map(math.Tanh), nil
}

// Backward computes outputGrad * (1 - tanh²).
func (TanhOp) Backward(_ []*array.Array, output, outputGrad *array.Array) ([]*array.Array, error) {
	return unary(scaleByDerivative(outputGrad, output, func(t float64) float64 { return 1 - t*t }))
}

// SELU constants from Klambauer et al., "Self-Normalizing Neural Networks".
const (
	SELUAlpha  = 1.6732632423543772848170429916717
	SELULambda = 1.0507009873554804934193349852946
)

// SELUOp represents the scaled exponential linear unit:
//
//	output = Lambda * x                     if x > 0
//	output = Lambda * Alpha * (exp(x) - 1)  otherwise
//
// Backward: derivative is Lambda where x > 0, else Lambda * Alpha * exp(x).
type SELUOp struct {
	Alpha  float64
	Lambda float64
}

// Name returns "SELU".
func (SELUOp) Name() string { return "SELU" }

// Forward applies SELU.
func (op SELUOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Map(func(x float64) float64 {
		if x > 0 {
			return op.Lambda * x
		}
		return op.Lambda * op.Alpha * (math.Exp(x) - 1)
	}), nil
}

// Backward computes the SELU derivative from the input.
func (op SELUOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return unary(scaleByDerivative(outputGrad, inputs[0], func(x float64) float64 {
		if x > 0 {
			return op.Lambda
		}
		return op.Lambda * op.Alpha * math.Exp(x)
	}))
}
