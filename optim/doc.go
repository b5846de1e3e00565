// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers for autodiff tensors.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - StepLR: step-decay learning-rate scheduler
//   - Optimizer interface for custom optimizers
//
// Optimizers read Grad from each parameter and update its value in place.
// Parameters without a gradient are skipped.
//
// # Optimizers
//
// SGD (Stochastic Gradient Descent):
//
//	optimizer := optim.NewSGD(params, optim.SGDConfig{
//	    LR:        0.01,
//	    BatchSize: 32,
//	    Momentum:  0.9,
//	})
//
// Adam (Adaptive Moment Estimation):
//
//	optimizer := optim.NewAdam(params, optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
//
// # Training Loop Pattern
//
//	scheduler := optim.NewStepLR(optimizer, 10, 0.5)
//	for epoch := range numEpochs {
//	    for batch := range batches {
//	        // 1. Zero gradients
//	        optimizer.ZeroGrad()
//
//	        // 2. Forward pass
//	        loss := computeLoss(params, batch)
//
//	        // 3. Backward pass
//	        if err := loss.Backward(); err != nil {
//	            return err
//	        }
//
//	        // 4. Update parameters
//	        optimizer.Step()
//	    }
//	    scheduler.Step()
//	}
package optim
