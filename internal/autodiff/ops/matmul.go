package ops

import (
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
)

// MatMulOp represents a matrix product: output = a @ b.
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
//
// Rank-1 operands follow dot-product conventions: a vector on the left is
// treated as a row [1,K], a vector on the right as a column [K,1], and the
// promoted dimension is dropped from the output. Gradients are reshaped back
// to the original operand shapes.
type MatMulOp struct{}

// Name returns "MatMul".
func (MatMulOp) Name() string { return "MatMul" }

// Forward computes the matrix product.
func (op MatMulOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 2); err != nil {
		return nil, err
	}
	a2, b2, outShape, err := promoteMatMul(inputs[0], inputs[1])
	if err != nil {
		return nil, err
	}
	out, err := array.MatMul(a2, b2)
	if err != nil {
		return nil, err
	}
	return out.Reshape(outShape)
}

// Backward computes input gradients for matrix multiplication.
func (MatMulOp) Backward(inputs []*array.Array, _, outputGrad *array.Array) ([]*array.Array, error) {
	a, b := inputs[0], inputs[1]
	a2, b2, _, err := promoteMatMul(a, b)
	if err != nil {
		return nil, err
	}
	g2, err := outputGrad.Reshape(array.Shape{a2.Shape()[0], b2.Shape()[1]})
	if err != nil {
		return nil, err
	}

	// grad_a = outputGrad @ b^T
	bT, err := array.Transpose(b2)
	if err != nil {
		return nil, err
	}
	gradA, err := array.MatMul(g2, bT)
	if err != nil {
		return nil, err
	}

	// grad_b = a^T @ outputGrad
	aT, err := array.Transpose(a2)
	if err != nil {
		return nil, err
	}
	gradB, err := array.MatMul(aT, g2)
	if err != nil {
		return nil, err
	}

	if gradA, err = gradA.Reshape(a.Shape()); err != nil {
		return nil, err
	}
	if gradB, err = gradB.Reshape(b.Shape()); err != nil {
		return nil, err
	}
	return []*array.Array{gradA, gradB}, nil
}

// promoteMatMul lifts rank-1 operands to rank 2 and returns the output shape
// with promoted dimensions dropped.
func promoteMatMul(a, b *array.Array) (*array.Array, *array.Array, array.Shape, error) {
	if a.Rank() < 1 || a.Rank() > 2 || b.Rank() < 1 || b.Rank() > 2 {
		return nil, nil, nil, errors.Wrapf(array.ErrShapeMismatch,
			"MatMul: operands must be rank 1 or 2, got %v and %v", []int(a.Shape()), []int(b.Shape()))
	}

	a2, b2 := a, b
	var outShape array.Shape
	var err error

	if a.Rank() == 1 {
		if a2, err = a.Reshape(array.Shape{1, a.Shape()[0]}); err != nil {
			return nil, nil, nil, err
		}
	} else {
		outShape = append(outShape, a.Shape()[0])
	}
	if b.Rank() == 1 {
		if b2, err = b.Reshape(array.Shape{b.Shape()[0], 1}); err != nil {
			return nil, nil, nil, err
		}
	} else {
		outShape = append(outShape, b.Shape()[1])
	}

	if a2.Shape()[1] != b2.Shape()[0] {
		return nil, nil, nil, errors.Wrapf(array.ErrShapeMismatch,
			"MatMul: inner dimensions differ for %v @ %v", []int(a.Shape()), []int(b.Shape()))
	}
	if outShape == nil {
		outShape = array.Shape{}
	}
	return a2, b2, outShape, nil
}
