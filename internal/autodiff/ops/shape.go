package ops

import "github.com/born-ml/autograd/internal/array"

// IdentityOp passes its input through unchanged. It gives a value a fresh
// node (and label) without changing the math.
type IdentityOp struct{}

// Name returns "Identity".
func (IdentityOp) Name() string { return "Identity" }

// Forward copies x.
func (op IdentityOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Clone(), nil
}

// Backward passes outputGrad through.
func (IdentityOp) Backward(_ []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return []*array.Array{outputGrad.Clone()}, nil
}

// TransposeOp permutes the axes of its input.
//
// Axes lists, for each output dimension, the input dimension it comes from.
// Empty Axes reverses all dimensions. Backward applies the inverse permutation.
type TransposeOp struct {
	Axes []int
}

// Name returns "Transpose".
func (TransposeOp) Name() string { return "Transpose" }

// Forward permutes the axes.
func (op TransposeOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return array.Transpose(inputs[0], op.axes(inputs[0].Rank())...)
}

// Backward applies the inverse permutation to outputGrad.
func (op TransposeOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	inv := array.InversePermutation(op.axes(inputs[0].Rank()))
	return unary(array.Transpose(outputGrad, inv...))
}

func (op TransposeOp) axes(rank int) []int {
	if len(op.Axes) == 0 {
		return array.ReverseAxes(rank)
	}
	return op.Axes
}

// ReshapeOp changes the shape of its input while keeping the elements in
// row-major order. Backward reshapes outputGrad to the input shape.
type ReshapeOp struct {
	Shape array.Shape
}

// Name returns "Reshape".
func (ReshapeOp) Name() string { return "Reshape" }

// Forward reshapes x.
func (op ReshapeOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 1); err != nil {
		return nil, err
	}
	return inputs[0].Reshape(op.Shape)
}

// Backward reshapes outputGrad to the input shape.
func (ReshapeOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return unary(outputGrad.Reshape(inputs[0].Shape()))
}
