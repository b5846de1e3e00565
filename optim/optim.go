// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// ErrState is returned when a state dict does not fit the optimizer.
var ErrState = optim.ErrState

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(params, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(params []*autodiff.Tensor, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// NewSGDWith creates a plain SGD optimizer: param -= (grad/batchSize)*lr.
func NewSGDWith(params []*autodiff.Tensor, lr float64, batchSize int) *SGD {
	return optim.NewSGDWith(params, lr, batchSize)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(params, optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	})
func NewAdam(params []*autodiff.Tensor, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}

// NewAdamWith creates an Adam optimizer from positional arguments.
func NewAdamWith(params []*autodiff.Tensor, lr float64, batchSize int, beta1, beta2, eps float64) *Adam {
	return optim.NewAdamWith(params, lr, batchSize, beta1, beta2, eps)
}

// Schedulers

// StepLR decays an optimizer's learning rate every StepSize steps.
type StepLR = optim.StepLR

// StepLRConfig contains configuration for StepLR.
type StepLRConfig = optim.StepLRConfig

// NewStepLR creates a step-decay scheduler.
func NewStepLR(optimizer Optimizer, stepSize int, gamma float64) *StepLR {
	return optim.NewStepLR(optimizer, stepSize, gamma)
}

// NewStepLRWithConfig creates a step-decay scheduler from a config.
func NewStepLRWithConfig(optimizer Optimizer, config StepLRConfig) *StepLR {
	return optim.NewStepLRWithConfig(optimizer, config)
}
