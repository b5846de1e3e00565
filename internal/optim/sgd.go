package optim

import (
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - (grad / batchSize) * lr
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + grad / batchSize
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(params, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	mu         sync.Mutex
	params     []*autodiff.Tensor
	lr         float64
	batchSize  int
	momentum   float64
	velocities [][]float64 // Allocated on first step with momentum
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR        float64 // Learning rate (default: 0.01)
	BatchSize int     // Gradients are divided by this (default: 1)
	Momentum  float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*autodiff.Tensor, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return newSGD(params, config)
}

// newSGD builds the optimizer from config as given. Only a non-positive
// batch size, which would divide by zero, is replaced by 1.
func newSGD(params []*autodiff.Tensor, config SGDConfig) *SGD {
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}
	return &SGD{
		params:    params,
		lr:        config.LR,
		batchSize: config.BatchSize,
		momentum:  config.Momentum,
	}
}

// NewSGDWith creates a plain SGD optimizer from positional arguments. A zero
// lr is used as given.
func NewSGDWith(params []*autodiff.Tensor, lr float64, batchSize int) *SGD {
	return newSGD(params, SGDConfig{LR: lr, BatchSize: batchSize})
}

// Step performs a single optimization step.
//
// Parameters with no gradient (not in the computation graph) are skipped.
func (s *SGD) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	scale := 1 / float64(s.batchSize)
	if s.momentum != 0 && s.velocities == nil {
		s.velocities = zerosFor(s.params)
	}

	for i, param := range s.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}
		data := param.Value().Data()

		if s.momentum == 0 {
			for j, g := range grad.Data() {
				data[j] -= (g * scale) * s.lr
			}
			continue
		}

		// velocity = momentum * velocity + grad / batchSize
		v := s.velocities[i]
		floats.Scale(s.momentum, v)
		floats.AddScaled(v, scale, grad.Data())

		// param -= lr * velocity
		floats.AddScaled(data, -s.lr, v)
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	zeroGrads(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lr = lr
}

// Params returns the tracked parameters.
func (s *SGD) Params() []*autodiff.Tensor {
	return s.params
}

// StateDict returns the optimizer state for serialization.
//
// With momentum this holds the velocity buffers under "velocity.{i}".
// Without momentum, or before the first step, it is empty.
func (s *SGD) StateDict() map[string]*array.Array {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := make(map[string]*array.Array)
	if s.momentum == 0 || s.velocities == nil {
		return state
	}
	exportBuffers(state, "velocity", s.params, s.velocities)
	return state
}

// LoadStateDict restores velocity buffers. An empty state resets them.
func (s *SGD) LoadStateDict(state map[string]*array.Array) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.momentum == 0 || len(state) == 0 {
		s.velocities = nil
		return nil
	}
	velocities := zerosFor(s.params)
	if err := importBuffers(state, "velocity", s.params, velocities); err != nil {
		return err
	}
	s.velocities = velocities
	return nil
}
