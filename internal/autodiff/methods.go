package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff/ops"
)

// apply runs op forward on the parents' values and records the result as a
// new node. Intermediate nodes do not keep their gradient unless RetainGrad
// is called.
func (g *Graph) apply(op ops.Operation, parents ...*Tensor) (*Tensor, error) {
	values := make([]*array.Array, len(parents))
	for i, p := range parents {
		if p.graph != g {
			return nil, errors.Wrapf(ErrGraphMismatch, "%s: input %d (node %d)", op.Name(), i, p.id)
		}
		values[i] = p.value
	}
	out, err := op.Forward(values...)
	if err != nil {
		return nil, errors.WithMessage(err, op.Name())
	}
	return g.newNode(out, op, parents, false), nil
}

// Apply records a custom operation. It is the extension point for
// primitives defined outside this module.
func Apply(op ops.Operation, inputs ...*Tensor) (*Tensor, error) {
	if len(inputs) == 0 {
		return nil, errors.Wrapf(ops.ErrArity, "%s: no inputs", op.Name())
	}
	return inputs[0].graph.apply(op, inputs...)
}

// constant wraps a scalar in a leaf that never requires gradients.
func (t *Tensor) constant(v float64) *Tensor {
	return t.graph.Constant(array.Scalar(v))
}

// Add returns t + other with broadcasting.
func (t *Tensor) Add(other *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.AddOp{}, t, other)
}

// Sub returns t - other with broadcasting.
func (t *Tensor) Sub(other *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.SubOp{}, t, other)
}

// Mul returns the element-wise product with broadcasting.
func (t *Tensor) Mul(other *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.MulOp{}, t, other)
}

// Div returns the element-wise quotient with broadcasting.
func (t *Tensor) Div(other *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.DivOp{}, t, other)
}

// Dot returns the matrix product. Rank-1 operands are treated as a row
// (left) or a column (right) and the promoted dimension is dropped, so
// vector·vector yields a scalar.
func (t *Tensor) Dot(other *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.MatMulOp{}, t, other)
}

// Pow returns t raised element-wise to exp.
//
// When exp (or anything upstream of it) requires a gradient, every base
// element must be positive; otherwise ErrDomain is returned immediately.
func (t *Tensor) Pow(exp *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.PowOp{ExponentGrad: needsGrad(exp)}, t, exp)
}

// PowScalar returns t raised element-wise to a constant exponent.
func (t *Tensor) PowScalar(exp float64) (*Tensor, error) {
	return t.graph.apply(ops.PowOp{}, t, t.constant(exp))
}

// AddScalar returns t + c.
func (t *Tensor) AddScalar(c float64) (*Tensor, error) {
	return t.graph.apply(ops.AddOp{}, t, t.constant(c))
}

// MulScalar returns t * c.
func (t *Tensor) MulScalar(c float64) (*Tensor, error) {
	return t.graph.apply(ops.MulOp{}, t, t.constant(c))
}

// Sum reduces all elements to a scalar.
func (t *Tensor) Sum() (*Tensor, error) {
	return t.graph.apply(ops.SumOp{}, t)
}

// Mean reduces all elements to their average.
func (t *Tensor) Mean() (*Tensor, error) {
	s, err := t.Sum()
	if err != nil {
		return nil, err
	}
	return s.MulScalar(1 / float64(t.value.Size()))
}

// Max reduces to the largest element. On ties the gradient goes to the
// first occurrence.
func (t *Tensor) Max() (*Tensor, error) {
	return t.graph.apply(ops.MaxOp{}, t)
}

// Min reduces to the smallest element. On ties the gradient goes to the
// first occurrence.
func (t *Tensor) Min() (*Tensor, error) {
	return t.graph.apply(ops.MinOp{}, t)
}

// Exp returns e^t.
func (t *Tensor) Exp() (*Tensor, error) {
	return t.graph.apply(ops.ExpOp{}, t)
}

// Log returns the natural logarithm. Non-positive elements yield ErrDomain.
func (t *Tensor) Log() (*Tensor, error) {
	return t.graph.apply(ops.LogOp{}, t)
}

// Negative returns -t.
func (t *Tensor) Negative() (*Tensor, error) {
	return t.graph.apply(ops.NegativeOp{}, t)
}

// Transpose permutes the axes; with no arguments the axes are reversed.
func (t *Tensor) Transpose(axes ...int) (*Tensor, error) {
	return t.graph.apply(ops.TransposeOp{Axes: axes}, t)
}

// Identity returns a new node with the same value.
func (t *Tensor) Identity() (*Tensor, error) {
	return t.graph.apply(ops.IdentityOp{}, t)
}

// Reshape returns a node with the same elements in a new shape.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	return t.graph.apply(ops.ReshapeOp{Shape: array.Shape(shape)}, t)
}

// Activations.

// ReLU applies max(0, x).
func ReLU(t *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.ReLUOp{}, t)
}

// ReLU6 applies min(max(0, x), 6).
func ReLU6(t *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.ReLU6Op{}, t)
}

// LeakyReLU applies x for x > 0 and negativeSlope*x otherwise.
func LeakyReLU(t *Tensor, negativeSlope float64) (*Tensor, error) {
	return t.graph.apply(ops.LeakyReLUOp{NegativeSlope: negativeSlope}, t)
}

// Sigmoid applies 1 / (1 + e^-x).
func Sigmoid(t *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.SigmoidOp{}, t)
}

// Tanh applies the hyperbolic tangent.
func Tanh(t *Tensor) (*Tensor, error) {
	return t.graph.apply(ops.TanhOp{}, t)
}

// SELU applies the scaled exponential linear unit with the standard constants.
func SELU(t *Tensor) (*Tensor, error) {
	return SELUWith(t, ops.SELUAlpha, ops.SELULambda)
}

// SELUWith applies SELU with custom alpha and lambda.
func SELUWith(t *Tensor, alpha, lambda float64) (*Tensor, error) {
	return t.graph.apply(ops.SELUOp{Alpha: alpha, Lambda: lambda}, t)
}

// Softmax normalizes along axis; negative axes count from the end.
func Softmax(t *Tensor, axis int) (*Tensor, error) {
	return t.graph.apply(ops.SoftmaxOp{Axis: axis}, t)
}
