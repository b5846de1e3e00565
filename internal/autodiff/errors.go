package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff/ops"
)

// Common errors.
var (
	// ErrGraphIntegrity reports a broken backward pass: an operation returned
	// the wrong number or shape of gradients, or the graph contains a cycle.
	ErrGraphIntegrity = errors.New("graph integrity violation")

	// ErrGraphMismatch is returned when tensors from different graphs are combined.
	ErrGraphMismatch = errors.New("tensors belong to different graphs")

	// Re-exported so callers need a single import.
	ErrShapeMismatch = array.ErrShapeMismatch
	ErrInvalidShape  = array.ErrInvalidShape
	ErrAxis          = array.ErrAxis
	ErrDomain        = ops.ErrDomain
)

// Must panics if err is non-nil and returns t otherwise.
//
// Example:
//
//	y := autodiff.Must(x.Mul(w))
func Must(t *Tensor, err error) *Tensor {
	if err != nil {
		panic(err)
	}
	return t
}
