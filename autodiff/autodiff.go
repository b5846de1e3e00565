// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// Tensors are created from a Graph and every operation on them records a
// new node. Calling Backward on a node fills Grad on every ancestor that
// requires a gradient.
//
// Example:
//
//	import "github.com/born-ml/autograd/autodiff"
//
//	func main() {
//	    g := autodiff.NewGraph(autodiff.Config{})
//
//	    w := autodiff.Must(g.Randn(3, 1))
//	    x := g.Constant(data) // inputs that need no gradient
//
//	    pred := autodiff.Must(x.Dot(w))
//	    loss := autodiff.Must(autodiff.Must(pred.Mul(pred)).Mean())
//
//	    if err := loss.Backward(); err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(w.Grad())
//	}
package autodiff

import (
	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/internal/autodiff/ops"
	"github.com/born-ml/autograd/internal/parallel"
)

// Graph owns node ids, the random source and the backward lock.
type Graph = autodiff.Graph

// Config configures a Graph.
type Config = autodiff.Config

// Tensor is a node in the computation graph.
type Tensor = autodiff.Tensor

// Array is the dense float64 value held by a Tensor.
type Array = array.Array

// Shape is the dimensions of an Array.
type Shape = array.Shape

// Operation is a differentiable primitive. Implement it to add custom
// operations and record them with Apply.
type Operation = ops.Operation

// NewGraph creates an empty graph.
func NewGraph(cfg Config) *Graph {
	return autodiff.NewGraph(cfg)
}

// NewArray creates an array with the given shape, copying data.
func NewArray(data []float64, shape ...int) (*Array, error) {
	return array.New(data, Shape(shape))
}

// Must panics if err is non-nil and returns t otherwise.
func Must(t *Tensor, err error) *Tensor {
	return autodiff.Must(t, err)
}

// Apply records a custom operation.
func Apply(op Operation, inputs ...*Tensor) (*Tensor, error) {
	return autodiff.Apply(op, inputs...)
}

// SetParallel enables or disables splitting large elementwise kernels across
// goroutines, process-wide. Disabled by default.
func SetParallel(enabled bool) {
	if enabled {
		array.SetParallel(parallel.DefaultConfig())
		return
	}
	array.SetParallel(parallel.Config{})
}

// Activations

// ReLU applies max(0, x).
func ReLU(t *Tensor) (*Tensor, error) { return autodiff.ReLU(t) }

// ReLU6 applies min(max(0, x), 6).
func ReLU6(t *Tensor) (*Tensor, error) { return autodiff.ReLU6(t) }

// LeakyReLU applies x for x > 0 and negativeSlope*x otherwise.
func LeakyReLU(t *Tensor, negativeSlope float64) (*Tensor, error) {
	return autodiff.LeakyReLU(t, negativeSlope)
}

// DefaultNegativeSlope is the conventional LeakyReLU slope.
const DefaultNegativeSlope = ops.DefaultNegativeSlope

// Sigmoid applies 1 / (1 + e^-x).
func Sigmoid(t *Tensor) (*Tensor, error) { return autodiff.Sigmoid(t) }

// Tanh applies the hyperbolic tangent.
func Tanh(t *Tensor) (*Tensor, error) { return autodiff.Tanh(t) }

// SELU applies the scaled exponential linear unit.
func SELU(t *Tensor) (*Tensor, error) { return autodiff.SELU(t) }

// SELUWith applies SELU with custom alpha and lambda.
func SELUWith(t *Tensor, alpha, lambda float64) (*Tensor, error) {
	return autodiff.SELUWith(t, alpha, lambda)
}

// Softmax normalizes along axis.
func Softmax(t *Tensor, axis int) (*Tensor, error) { return autodiff.Softmax(t, axis) }

// Graph export

// GraphExport is a node/edge list for visualization tools.
type GraphExport = autodiff.GraphExport

// NodeInfo describes one exported node.
type NodeInfo = autodiff.NodeInfo

// Edge connects a parent to its consumer.
type Edge = autodiff.Edge

// Export collects the graph behind root.
func Export(root *Tensor) *GraphExport {
	return autodiff.Export(root)
}

// Errors

var (
	ErrShapeMismatch  = autodiff.ErrShapeMismatch
	ErrInvalidShape   = autodiff.ErrInvalidShape
	ErrAxis           = autodiff.ErrAxis
	ErrDomain         = autodiff.ErrDomain
	ErrGraphIntegrity = autodiff.ErrGraphIntegrity
	ErrGraphMismatch  = autodiff.ErrGraphMismatch
)
