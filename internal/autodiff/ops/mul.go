package ops

import "github.com/born-ml/autograd/internal/array"

// MulOp represents an element-wise multiplication: output = a * b.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = outputGrad * b
//   - d(a*b)/db = a, so grad_b = outputGrad * a
type MulOp struct{}

// Name returns "Mul".
func (MulOp) Name() string { return "Mul" }

// Forward computes a * b.
func (op MulOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 2); err != nil {
		return nil, err
	}
	return array.Mul(inputs[0], inputs[1])
}

// Backward computes input gradients for multiplication.
func (MulOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	a, b := inputs[0], inputs[1]

	gradA, err := array.Mul(outputGrad, b)
	if err != nil {
		return nil, err
	}
	gradB, err := array.Mul(outputGrad, a)
	if err != nil {
		return nil, err
	}
	return routeBroadcast(inputs, gradA, gradB)
}

// DivOp represents an element-wise division: output = a / b.
//
// Backward pass:
//   - grad_a = outputGrad / b
//   - grad_b = -outputGrad * a / b²
type DivOp struct{}

// Name returns "Div".
func (DivOp) Name() string { return "Div" }

// Forward computes a / b.
func (op DivOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 2); err != nil {
		return nil, err
	}
	return array.Div(inputs[0], inputs[1])
}

// Backward computes input gradients for division.
func (DivOp) Backward(inputs []*array.Array, output, outputGrad *array.Array) ([]*array.Array, error) {
	b := inputs[1]

	gradA, err := array.Div(outputGrad, b)
	if err != nil {
		return nil, err
	}

	// a/b² = output/b
	ratio, err := array.Div(output, b)
	if err != nil {
		return nil, err
	}
	gradB, err := array.Mul(outputGrad, ratio)
	if err != nil {
		return nil, err
	}
	return routeBroadcast(inputs, gradA, array.Neg(gradB))
}
