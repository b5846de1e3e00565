// Package optim implements gradient-based optimizers for autodiff tensors.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation
//   - StepLR: step-decay learning-rate scheduler
//
// Optimizers read the gradient accumulated on each parameter by
// Tensor.Backward and update the parameter's value in place.
//
// Example usage:
//
//	optimizer := optim.NewAdam(params, optim.AdamConfig{LR: 0.01})
//	scheduler := optim.NewStepLR(optimizer, 100, 0.5)
//
//	for epoch := range epochs {
//	    optimizer.ZeroGrad()
//	    loss := computeLoss(params, batch)
//	    if err := loss.Backward(); err != nil {
//	        return err
//	    }
//	    optimizer.Step()
//	    scheduler.Step()
//	}
package optim

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR/SetLR: Read and change the learning rate (for scheduling)
type Optimizer interface {
	// Step updates every parameter that has a gradient. Parameters without
	// one are skipped.
	Step()

	// ZeroGrad clears all parameter gradients.
	//
	// Call it once per iteration before the backward pass, otherwise
	// gradients from previous iterations accumulate.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate.
	SetLR(lr float64)
}

// ErrState is returned when a state dict does not fit the optimizer.
var ErrState = errors.New("invalid optimizer state")

// zeroGrads clears the gradient of every parameter.
func zeroGrads(params []*autodiff.Tensor) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// zerosFor allocates one zero buffer per parameter.
func zerosFor(params []*autodiff.Tensor) [][]float64 {
	bufs := make([][]float64, len(params))
	for i, p := range params {
		bufs[i] = make([]float64, p.Value().Size())
	}
	return bufs
}

// exportBuffers stores per-parameter buffers under prefix.i.
func exportBuffers(state map[string]*array.Array, prefix string, params []*autodiff.Tensor, bufs [][]float64) {
	for i, p := range params {
		a, err := array.New(bufs[i], p.Shape())
		if err != nil {
			// Buffers are allocated from the parameter shapes.
			panic(err)
		}
		state[bufKey(prefix, i)] = a
	}
}

// importBuffers copies prefix.i entries into bufs after checking shapes.
func importBuffers(state map[string]*array.Array, prefix string, params []*autodiff.Tensor, bufs [][]float64) error {
	for i, p := range params {
		a, ok := state[bufKey(prefix, i)]
		if !ok {
			return errors.Wrapf(ErrState, "missing %s", bufKey(prefix, i))
		}
		if !a.Shape().Equal(p.Shape()) {
			return errors.Wrapf(ErrState, "%s has shape %v, parameter %d has %v",
				bufKey(prefix, i), []int(a.Shape()), i, []int(p.Shape()))
		}
		copy(bufs[i], a.Data())
	}
	return nil
}

func bufKey(prefix string, i int) string {
	return fmt.Sprintf("%s.%d", prefix, i)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
