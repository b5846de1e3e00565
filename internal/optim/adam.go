package optim

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule at step t, with g = grad / batchSize:
//
//	m = beta1 * m + (1-beta1) * g                      // First moment
//	v = beta2 * v + (1-beta2) * g²                     // Second moment
//	a = lr * sqrt(1 - beta2^t) / (1 - beta1^t)         // Bias-corrected step size
//	param = param - a * m / (sqrt(v) + eps)
//
// The moments start at zero; the bias correction in a compensates for that
// during the first steps.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	optimizer := optim.NewAdam(params, optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	mu        sync.Mutex
	params    []*autodiff.Tensor
	lr        float64
	batchSize int
	beta1     float64
	beta2     float64
	eps       float64
	t         int         // Timestep for bias correction
	m         [][]float64 // First moment estimates, one per parameter
	v         [][]float64 // Second moment estimates, one per parameter
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR        float64    // Learning rate (default: 0.001)
	BatchSize int        // Gradients are divided by this (default: 1)
	Betas     [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps       float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - BatchSize: 1
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(params []*autodiff.Tensor, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return newAdam(params, config)
}

// newAdam builds the optimizer from config as given. Only a non-positive
// batch size, which would divide by zero, is replaced by 1.
func newAdam(params []*autodiff.Tensor, config AdamConfig) *Adam {
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}
	return &Adam{
		params:    params,
		lr:        config.LR,
		batchSize: config.BatchSize,
		beta1:     config.Betas[0],
		beta2:     config.Betas[1],
		eps:       config.Eps,
		m:         zerosFor(params),
		v:         zerosFor(params),
	}
}

// NewAdamWith creates an Adam optimizer from positional arguments. Zero
// values are used as given; no defaults apply.
func NewAdamWith(params []*autodiff.Tensor, lr float64, batchSize int, beta1, beta2, eps float64) *Adam {
	return newAdam(params, AdamConfig{
		LR:        lr,
		BatchSize: batchSize,
		Betas:     [2]float64{beta1, beta2},
		Eps:       eps,
	})
}

// Step performs a single optimization step.
//
// The timestep advances on every call. Parameters without a gradient keep
// their value and their moments.
func (a *Adam) Step() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.t++
	t := float64(a.t)
	stepSize := a.lr * math.Sqrt(1-math.Pow(a.beta2, t)) / (1 - math.Pow(a.beta1, t))
	scale := 1 / float64(a.batchSize)

	for i, param := range a.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}
		a.update(param.Value().Data(), grad.Data(), a.m[i], a.v[i], stepSize, scale)
	}
}

func (a *Adam) update(data, grad, m, v []float64, stepSize, scale float64) {
	for j := range data {
		g := grad[j] * scale
		m[j] = a.beta1*m[j] + (1-a.beta1)*g
		v[j] = a.beta2*v[j] + (1-a.beta2)*g*g
		data[j] -= stepSize * m[j] / (math.Sqrt(v[j]) + a.eps)
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	a.mu.Lock()
	defer a.mu.Unlock()
	zeroGrads(a.params)
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lr = lr
}

// Params returns the tracked parameters.
func (a *Adam) Params() []*autodiff.Tensor {
	return a.params
}

// Timestep returns the number of steps taken.
func (a *Adam) Timestep() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.t
}

// StateDict returns the optimizer state for serialization.
//
// State keys:
//   - "step": scalar timestep
//   - "m.{i}", "v.{i}": moment buffers of parameter i
func (a *Adam) StateDict() map[string]*array.Array {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := map[string]*array.Array{
		"step": array.Scalar(float64(a.t)),
	}
	exportBuffers(state, "m", a.params, a.m)
	exportBuffers(state, "v", a.params, a.v)
	return state
}

// LoadStateDict restores a state produced by StateDict.
func (a *Adam) LoadStateDict(state map[string]*array.Array) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	step, ok := state["step"]
	if !ok {
		return errors.Wrap(ErrState, "missing step")
	}
	t, err := step.Item()
	if err != nil {
		return errors.Wrapf(ErrState, "step: %v", err)
	}

	m, v := zerosFor(a.params), zerosFor(a.params)
	if err := importBuffers(state, "m", a.params, m); err != nil {
		return err
	}
	if err := importBuffers(state, "v", a.params, v); err != nil {
		return err
	}
	a.t, a.m, a.v = int(t), m, v
	return nil
}
