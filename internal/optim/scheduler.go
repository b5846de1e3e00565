package optim

import (
	"log/slog"
	"sync"
)

// StepLR decays the learning rate of an optimizer by Gamma every StepSize
// calls to Step.
//
// The internal counter starts at -1. Each Step increments it and decays the
// rate when the counter is a positive multiple of StepSize. With
// StepSize=2, Gamma=0.5 and an initial rate of 1.0 the rate after calls
// 1..5 is 1.0, 1.0, 0.5, 0.5, 0.25.
type StepLR struct {
	mu        sync.Mutex
	optimizer Optimizer
	stepSize  int
	gamma     float64
	lastStep  int
	logger    *slog.Logger
}

// StepLRConfig holds configuration for StepLR.
type StepLRConfig struct {
	StepSize int          // Calls between decays (default: 1)
	Gamma    float64      // Multiplicative decay (default: 0.1)
	Logger   *slog.Logger // Receives an Info record per decay (default: discard)
}

// NewStepLRWithConfig creates a scheduler from a config.
func NewStepLRWithConfig(optimizer Optimizer, config StepLRConfig) *StepLR {
	if config.Gamma == 0 {
		config.Gamma = 0.1
	}
	return newStepLR(optimizer, config)
}

// newStepLR builds the scheduler from config as given. A non-positive step
// size is replaced by 1.
func newStepLR(optimizer Optimizer, config StepLRConfig) *StepLR {
	if config.StepSize <= 0 {
		config.StepSize = 1
	}
	if config.Logger == nil {
		config.Logger = discardLogger()
	}
	return &StepLR{
		optimizer: optimizer,
		stepSize:  config.StepSize,
		gamma:     config.Gamma,
		lastStep:  -1,
		logger:    config.Logger,
	}
}

// NewStepLR creates a scheduler from positional arguments. A zero gamma is
// used as given.
func NewStepLR(optimizer Optimizer, stepSize int, gamma float64) *StepLR {
	return newStepLR(optimizer, StepLRConfig{StepSize: stepSize, Gamma: gamma})
}

// Step advances the counter and reports whether the rate was decayed.
func (s *StepLR) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastStep++
	if s.lastStep == 0 || s.lastStep%s.stepSize != 0 {
		return false
	}

	lr := s.optimizer.GetLR() * s.gamma
	s.optimizer.SetLR(lr)
	s.logger.Info("learning rate decayed", "step", s.lastStep, "lr", lr)
	return true
}

// LastStep returns the counter value, -1 before the first Step.
func (s *StepLR) LastStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStep
}

// GetLR returns the optimizer's current learning rate.
func (s *StepLR) GetLR() float64 {
	return s.optimizer.GetLR()
}
