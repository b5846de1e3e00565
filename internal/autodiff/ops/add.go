package ops

import "github.com/born-ml/autograd/internal/array"

// AddOp represents an element-wise addition: output = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad
//
// If broadcasting was used in the forward pass, each gradient is summed
// along the broadcast dimensions to match its input shape.
type AddOp struct{}

// Name returns "Add".
func (AddOp) Name() string { return "Add" }

// Forward computes a + b.
func (op AddOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 2); err != nil {
		return nil, err
	}
	return array.Add(inputs[0], inputs[1])
}

// Backward routes outputGrad unchanged to both inputs.
func (AddOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return routeBroadcast(inputs, outputGrad, outputGrad)
}

// SubOp represents an element-wise subtraction: output = a - b.
//
// Backward pass:
//   - grad_a = outputGrad
//   - grad_b = -outputGrad
type SubOp struct{}

// Name returns "Sub".
func (SubOp) Name() string { return "Sub" }

// Forward computes a - b.
func (op SubOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 2); err != nil {
		return nil, err
	}
	return array.Sub(inputs[0], inputs[1])
}

// Backward routes outputGrad to a and its negation to b.
func (SubOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	return routeBroadcast(inputs, outputGrad, array.Neg(outputGrad))
}

// routeBroadcast reduces gradA and gradB to the shapes of inputs[0] and inputs[1].
func routeBroadcast(inputs []*array.Array, gradA, gradB *array.Array) ([]*array.Array, error) {
	a, err := array.SumTo(gradA, inputs[0].Shape())
	if err != nil {
		return nil, err
	}
	b, err := array.SumTo(gradB, inputs[1].Shape())
	if err != nil {
		return nil, err
	}
	return []*array.Array{a, b}, nil
}
