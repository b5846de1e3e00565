package ops

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
)

// ExpOp computes element-wise e^x.
//
// Backward: grad = outputGrad * exp(x) = outputGrad * output.
type ExpOp struct{}

// Name returns "Exp".
func (ExpOp) Name() string { return "Exp" }

// Forward computes exp(x).
func (op ExpOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Map(math.Exp), nil
}

// Backward reuses the cached output.
func (ExpOp) Backward(_ []*array.Array, output, outputGrad *array.Array) ([]*array.Array, error) {
	return unary(array.Mul(outputGrad, output))
}

// LogOp computes the element-wise natural logarithm.
//
// Forward fails with ErrDomain on any non-positive input.
//
// Backward: grad = outputGrad / x.
type LogOp struct{}

// Name returns "Log".
func (LogOp) Name() string { return "Log" }

// Forward computes log(x).
func (op LogOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	for i, v := range inputs[0].Data() {
		if v <= 0 {
			return nil, errors.Wrapf(ErrDomain, "Log: element %d is %g (must be > 0)", i, v)
		}
	}
	return inputs[0].Map(math.Log), nil
}

// Backward computes outputGrad / x.
func (LogOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return unary(array.Div(outputGrad, inputs[0]))
}

// NegativeOp computes -x.
type NegativeOp struct{}

// Name returns "Negative".
func (NegativeOp) Name() string { return "Negative" }

// Forward computes -x.
func (op NegativeOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return array.Neg(inputs[0]), nil
}

// Backward negates outputGrad.
func (NegativeOp) Backward(_ []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return []*array.Array{array.Neg(outputGrad)}, nil
}
