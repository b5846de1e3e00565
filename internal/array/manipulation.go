package array

import "github.com/pkg/errors"

// Transpose permutes the axes of a. With no axes the order is reversed.
func Transpose(a *Array, axes ...int) (*Array, error) {
	rank := a.Rank()
	if len(axes) == 0 {
		axes = ReverseAxes(rank)
	}
	if err := validatePermutation(axes, rank); err != nil {
		return nil, err
	}

	outShape := make(Shape, rank)
	for i, ax := range axes {
		outShape[i] = a.shape[ax]
	}

	// Stride of output dimension i inside the input buffer.
	srcStrides := make([]int, rank)
	for i, ax := range axes {
		srcStrides[i] = a.strides[ax]
	}

	outStrides := outShape.ComputeStrides()
	out := make([]float64, len(a.data))
	for i := range out {
		out[i] = a.data[flatIndex(i, outStrides, srcStrides)]
	}
	return wrap(out, outShape), nil
}

// ReverseAxes returns the permutation [rank-1, ..., 0].
func ReverseAxes(rank int) []int {
	axes := make([]int, rank)
	for i := range axes {
		axes[i] = rank - 1 - i
	}
	return axes
}

// InversePermutation returns the permutation that undoes axes.
func InversePermutation(axes []int) []int {
	inv := make([]int, len(axes))
	for i, ax := range axes {
		inv[ax] = i
	}
	return inv
}

func validatePermutation(axes []int, rank int) error {
	if len(axes) != rank {
		return errors.Wrapf(ErrAxis, "transpose: got %d axes for rank %d", len(axes), rank)
	}
	seen := make([]bool, rank)
	for _, ax := range axes {
		if ax < 0 || ax >= rank || seen[ax] {
			return errors.Wrapf(ErrAxis, "transpose: %v is not a permutation of %d axes", axes, rank)
		}
		seen[ax] = true
	}
	return nil
}
