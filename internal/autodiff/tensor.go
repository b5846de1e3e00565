package autodiff

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff/ops"
)

// Tensor is a node in the computation graph.
//
// A leaf has no producing operation and no parents. Every other node is
// created exactly once by a forward operation and records its operation and
// its parents in argument order, which is all Backward needs.
//
// The value is never modified by the engine. Optimizers update parameter
// leaves in place through Value().Data().
type Tensor struct {
	graph *Graph
	id    uint64
	label string

	value   *array.Array
	op      ops.Operation // nil for leaves
	parents []*Tensor

	requiresGrad bool
	grad         *array.Array
}

func (g *Graph) newNode(value *array.Array, op ops.Operation, parents []*Tensor, requiresGrad bool) *Tensor {
	return &Tensor{
		graph:        g,
		id:           g.id(),
		value:        value,
		op:           op,
		parents:      parents,
		requiresGrad: requiresGrad,
	}
}

// Graph returns the graph the tensor belongs to.
func (t *Tensor) Graph() *Graph { return t.graph }

// ID returns the node id, unique within its graph.
func (t *Tensor) ID() uint64 { return t.id }

// Label returns the optional display label.
func (t *Tensor) Label() string { return t.label }

// SetLabel sets the display label used by logs and graph exports.
func (t *Tensor) SetLabel(label string) *Tensor {
	t.label = label
	return t
}

// Value returns the tensor's array.
func (t *Tensor) Value() *array.Array { return t.value }

// Shape returns the shape of the value.
func (t *Tensor) Shape() array.Shape { return t.value.Shape() }

// Op returns the producing operation, or nil for a leaf.
func (t *Tensor) Op() ops.Operation { return t.op }

// Parents returns the operation inputs in argument order.
func (t *Tensor) Parents() []*Tensor { return t.parents }

// IsLeaf reports whether the tensor has no producing operation.
func (t *Tensor) IsLeaf() bool { return t.op == nil }

// RequiresGrad reports whether the gradient is kept after Backward.
func (t *Tensor) RequiresGrad() bool { return t.requiresGrad }

// SetRequiresGrad marks whether the tensor keeps its gradient.
func (t *Tensor) SetRequiresGrad(v bool) *Tensor {
	t.requiresGrad = v
	return t
}

// RetainGrad keeps the gradient of an intermediate node after Backward.
func (t *Tensor) RetainGrad() *Tensor {
	return t.SetRequiresGrad(true)
}

// Grad returns the accumulated gradient, or nil if none.
func (t *Tensor) Grad() *array.Array { return t.grad }

// SetGrad replaces the gradient. On a backward root it overrides the
// all-ones seed.
func (t *Tensor) SetGrad(grad *array.Array) error {
	if grad != nil && !grad.Shape().Equal(t.Shape()) {
		return errors.Wrapf(ErrShapeMismatch, "grad shape %v does not match tensor shape %v",
			[]int(grad.Shape()), []int(t.Shape()))
	}
	t.grad = grad
	return nil
}

// ZeroGrad clears the gradient.
func (t *Tensor) ZeroGrad() { t.grad = nil }

// Detach severs the tensor from its history in place. It becomes a leaf and
// later backward passes stop at it.
func (t *Tensor) Detach() *Tensor {
	t.op = nil
	t.parents = nil
	return t
}

// Item returns the value of a single-element tensor.
func (t *Tensor) Item() (float64, error) {
	return t.value.Item()
}

// ToList returns the value as nested []any with float64 leaves.
func (t *Tensor) ToList() any {
	return t.value.ToList()
}

// opName returns the producing operation's name, or "" for a leaf.
func (t *Tensor) opName() string {
	if t.op == nil {
		return ""
	}
	return t.op.Name()
}

// LogValue implements slog.LogValuer.
func (t *Tensor) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Uint64("id", t.id),
		slog.Any("shape", []int(t.Shape())),
	}
	if t.op != nil {
		attrs = append(attrs, slog.String("op", t.op.Name()))
	}
	if t.label != "" {
		attrs = append(attrs, slog.String("label", t.label))
	}
	return slog.GroupValue(attrs...)
}

// String returns a readable representation of the tensor.
func (t *Tensor) String() string {
	op := t.opName()
	if op == "" {
		op = "leaf"
	}
	return fmt.Sprintf("Tensor(id=%d, op=%s, requires_grad=%t, value=%s)", t.id, op, t.requiresGrad, t.value)
}
