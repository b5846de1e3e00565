package array

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MatMul performs matrix multiplication (M, K) @ (K, N) -> (M, N).
//
// Both operands must be rank 2; the product is computed by gonum's Dense.Mul.
func MatMul(a, b *Array) (*Array, error) {
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "matmul: only 2D arrays supported, got %v and %v",
			[]int(a.shape), []int(b.shape))
	}

	m, k := a.shape[0], a.shape[1]
	kAlt, n := b.shape[0], b.shape[1]
	if k != kAlt {
		return nil, errors.Wrapf(ErrShapeMismatch, "matmul: inner dimensions differ [%d,%d] @ [%d,%d]", m, k, kAlt, n)
	}

	// mat.NewDense aliases the slices; Mul only reads them.
	am := mat.NewDense(m, k, a.data)
	bm := mat.NewDense(k, n, b.data)

	var cm mat.Dense
	cm.Mul(am, bm)

	raw := cm.RawMatrix()
	out := make([]float64, m*n)
	for i := 0; i < m; i++ {
		copy(out[i*n:(i+1)*n], raw.Data[i*raw.Stride:i*raw.Stride+n])
	}
	return wrap(out, Shape{m, n}), nil
}
