package ops

import "github.com/born-ml/autograd/internal/array"

// SumOp reduces all elements to a scalar: output = Σ x.
//
// Backward pass broadcasts the scalar outputGrad back to the input shape.
type SumOp struct{}

// Name returns "Sum".
func (SumOp) Name() string { return "Sum" }

// Forward computes the total sum.
func (op SumOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return array.Scalar(array.Sum(inputs[0])), nil
}

// Backward broadcasts outputGrad to the input shape.
func (SumOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	g, err := outputGrad.Item()
	if err != nil {
		return nil, err
	}
	return []*array.Array{array.Full(inputs[0].Shape(), g)}, nil
}

// MaxOp reduces all elements to their maximum.
//
// Gradient flows only to the first position attaining the maximum; every
// other position, including later ties, receives zero.
type MaxOp struct{}

// Name returns "Max".
func (MaxOp) Name() string { return "Max" }

// Forward computes the maximum element.
func (op MaxOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	v, _ := array.Max(inputs[0])
	return array.Scalar(v), nil
}

// Backward routes outputGrad to the arg-max position.
func (MaxOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	_, idx := array.Max(inputs[0])
	return extremumGrad(inputs[0], idx, outputGrad)
}

// MinOp reduces all elements to their minimum, with the same first-position
// tie-break as MaxOp.
type MinOp struct{}

// Name returns "Min".
func (MinOp) Name() string { return "Min" }

// Forward computes the minimum element.
func (op MinOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	v, _ := array.Min(inputs[0])
	return array.Scalar(v), nil
}

// Backward routes outputGrad to the arg-min position.
func (MinOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	_, idx := array.Min(inputs[0])
	return extremumGrad(inputs[0], idx, outputGrad)
}

func extremumGrad(input *array.Array, idx int, outputGrad *array.Array) ([]*array.Array, error) {
	g, err := outputGrad.Item()
	if err != nil {
		return nil, err
	}
	grad := array.ZerosLike(input)
	grad.Data()[idx] = g
	return []*array.Array{grad}, nil
}
