package ops

import (
	"math"

	"github.com/born-ml/autograd/internal/array"
)

// SoftmaxOp represents the softmax along Axis (negative values count from
// the last dimension).
//
// Forward (for each slice along Axis):
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// The max-shifting ensures numerical stability (prevents overflow).
//
// Backward:
//
//	∂L/∂x_j = softmax_j * (∂L/∂softmax_j - Σ_i (∂L/∂softmax_i * softmax_i))
type SoftmaxOp struct {
	Axis int
}

// Name returns "Softmax".
func (SoftmaxOp) Name() string { return "Softmax" }

// Forward computes the softmax along Axis.
func (op SoftmaxOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	x := inputs[0]

	shift, err := array.MaxAxis(x, op.Axis, true)
	if err != nil {
		return nil, err
	}
	shifted, err := array.Sub(x, shift)
	if err != nil {
		return nil, err
	}
	exps := shifted.Map(math.Exp)
	total, err := array.SumAxis(exps, op.Axis, true)
	if err != nil {
		return nil, err
	}
	return array.Div(exps, total)
}

// Backward computes the Jacobian-vector product from the cached output.
func (op SoftmaxOp) Backward(_ []*array.Array, output, outputGrad *array.Array) ([]*array.Array, error) {
	weighted, err := array.Mul(outputGrad, output)
	if err != nil {
		return nil, err
	}
	dot, err := array.SumAxis(weighted, op.Axis, true)
	if err != nil {
		return nil, err
	}
	centered, err := array.Sub(outputGrad, dot)
	if err != nil {
		return nil, err
	}
	return unary(array.Mul(output, centered))
}
