// Package autodiff implements reverse-mode automatic differentiation over a
// dynamically built graph of tensors.
//
// Architecture:
//   - Graph: owns node ids, the random source for Randn and the lock that
//     serializes backward passes
//   - Tensor: a graph vertex holding a value, its producing operation, its
//     parents and a gradient accumulator
//   - ops.Operation: each primitive implements its own backward pass
//   - Backward: walks the ancestors of a node in reverse topological order
//     and accumulates gradients with the chain rule
//
// Usage:
//
//	g := autodiff.NewGraph(autodiff.Config{})
//	x := autodiff.Must(g.FromSlice([]float64{2}, 1))
//	y := autodiff.Must(x.Mul(x)) // y = x²
//	_ = y.Backward()
//	fmt.Println(x.Grad()) // dy/dx = 2x = [4]
package autodiff

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Config configures a Graph. The zero value is usable.
type Config struct {
	Logger *slog.Logger // Debug records for backward passes (default: discard)
	Seed   uint64       // Seed for Randn; 0 seeds from the clock
}

// Graph scopes the mutable state shared by its tensors. Tensors from
// different graphs cannot be combined.
type Graph struct {
	nextID atomic.Uint64
	logger *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	// mu serializes backward passes. Two interleaved passes over
	// overlapping nodes would corrupt gradient accumulation.
	mu sync.Mutex
}

// NewGraph creates an empty graph.
func NewGraph(cfg Config) *Graph {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Graph{
		logger: logger,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Logger returns the graph's logger.
func (g *Graph) Logger() *slog.Logger {
	return g.logger
}

// NumNodes returns how many nodes have been created in this graph.
func (g *Graph) NumNodes() int {
	return int(g.nextID.Load())
}

// id returns the next node id. Ids start at 1 and never repeat.
func (g *Graph) id() uint64 {
	return g.nextID.Add(1)
}
