package autodiff

import (
	"time"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
)

// Backward computes gradients of t with respect to every ancestor that
// requires one.
//
// Algorithm:
//  1. Collect the ancestor closure of t, each node once.
//  2. Seed t with its current gradient if SetGrad set one, ones otherwise.
//  3. Visit nodes in reverse topological order: a node is processed only
//     after every consumer inside the closure has contributed to its
//     gradient (Kahn's algorithm over consumer edge counts).
//  4. For each processed node call its operation's Backward and add each
//     returned gradient into the corresponding parent's pass-local sum.
//  5. Add the pass-local sums into Grad of nodes that require a gradient
//     and clear Grad everywhere else.
//
// Only this pass's contributions flow through the graph, so a retained
// intermediate gradient from an earlier pass is never propagated again.
// Parents that neither require a gradient nor lead to one are skipped.
// Gradients accumulate across calls; call ZeroGrad between iterations.
func (t *Tensor) Backward() error {
	g := t.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	nodes := ancestors(t)
	needs := gradientPaths(nodes)

	seed := t.grad
	if seed == nil {
		seed = array.OnesLike(t.value)
	}
	local := make(map[*Tensor]*array.Array, len(nodes))
	local[t] = seed

	committed := false
	defer func() {
		for _, n := range nodes {
			switch {
			case !n.requiresGrad:
				n.grad = nil
			case !committed:
			case n == t:
				n.grad = seed
			default:
				n.grad = accumulate(n.grad, local[n])
			}
		}
	}()

	// Consumer edges inside the closure. A node used twice by the same
	// consumer (x*x) has two edges.
	pending := make(map[*Tensor]int, len(nodes))
	edges := 0
	for _, n := range nodes {
		for _, p := range n.parents {
			pending[p]++
			edges++
		}
	}

	queue := []*Tensor{t}
	processed := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		processed++

		if grad := local[n]; n.op != nil && grad != nil && needs[n] {
			if err := propagate(n, grad, needs, local); err != nil {
				return err
			}
		}

		for _, p := range n.parents {
			pending[p]--
			if pending[p] == 0 {
				queue = append(queue, p)
			}
		}
	}

	if processed != len(nodes) {
		return errors.Wrapf(ErrGraphIntegrity, "backward from node %d: visited %d of %d nodes, graph has a cycle",
			t.id, processed, len(nodes))
	}
	committed = true

	g.logger.Debug("backward",
		"root", t,
		"nodes", len(nodes),
		"edges", edges,
		"duration", time.Since(start))
	return nil
}

// accumulate returns prev + grad. Shapes were checked during propagation.
func accumulate(prev, grad *array.Array) *array.Array {
	if grad == nil {
		return prev
	}
	if prev == nil {
		return grad
	}
	sum, err := array.Add(prev, grad)
	if err != nil {
		panic(err)
	}
	return sum
}

// propagate runs n's operation backward on grad and adds the results into
// the pass-local sums of its parents.
func propagate(n *Tensor, grad *array.Array, needs map[*Tensor]bool, local map[*Tensor]*array.Array) error {
	inputs := make([]*array.Array, len(n.parents))
	for i, p := range n.parents {
		inputs[i] = p.value
	}

	grads, err := n.op.Backward(inputs, n.value, grad)
	if err != nil {
		return errors.WithMessagef(err, "backward %s (node %d)", n.op.Name(), n.id)
	}
	if len(grads) != len(n.parents) {
		return errors.Wrapf(ErrGraphIntegrity, "%s (node %d) returned %d gradients for %d parents",
			n.op.Name(), n.id, len(grads), len(n.parents))
	}

	for i, p := range n.parents {
		if !needs[p] {
			continue
		}
		pg := grads[i]
		if pg == nil || !pg.Shape().Equal(p.Shape()) {
			var got []int
			if pg != nil {
				got = pg.Shape()
			}
			return errors.Wrapf(ErrGraphIntegrity, "%s (node %d) returned gradient %d with shape %v, parent node %d has %v",
				n.op.Name(), n.id, i, got, p.id, []int(p.Shape()))
		}
		prev, ok := local[p]
		if !ok {
			local[p] = pg.Clone()
			continue
		}
		if local[p], err = array.Add(prev, pg); err != nil {
			return err
		}
	}
	return nil
}

// ancestors returns root and everything reachable through parents, each
// node once, in post-order (parents before their consumers). The walk is
// iterative so deep chains do not grow the goroutine stack.
func ancestors(root *Tensor) []*Tensor {
	type frame struct {
		node *Tensor
		next int
	}
	visited := map[*Tensor]bool{root: true}
	stack := []frame{{node: root}}
	var order []*Tensor

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.parents) {
			p := top.node.parents[top.next]
			top.next++
			if !visited[p] {
				visited[p] = true
				stack = append(stack, frame{node: p})
			}
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	return order
}

// gradientPaths marks nodes that require a gradient or have an ancestor
// that does. nodes must be in post-order.
func gradientPaths(nodes []*Tensor) map[*Tensor]bool {
	needs := make(map[*Tensor]bool, len(nodes))
	for _, n := range nodes {
		need := n.requiresGrad
		for _, p := range n.parents {
			need = need || needs[p]
		}
		needs[n] = need
	}
	return needs
}

// needsGrad reports whether t or any of its ancestors requires a gradient.
func needsGrad(t *Tensor) bool {
	nodes := ancestors(t)
	return gradientPaths(nodes)[t]
}
