package optim_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/internal/optim"
)

// param creates a leaf with a preset gradient.
func param(t *testing.T, g *autodiff.Graph, value, grad []float64) *autodiff.Tensor {
	t.Helper()
	p, err := g.FromSlice(value, len(value))
	require.NoError(t, err)
	if grad != nil {
		ga, err := array.New(grad, array.Shape{len(grad)})
		require.NoError(t, err)
		require.NoError(t, p.SetGrad(ga))
	}
	return p
}

func TestSGD_SimpleUpdate(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, []float64{2.0, -1.0}, []float64{1.0, 4.0})

	opt := optim.NewSGDWith([]*autodiff.Tensor{x}, 0.1, 2)
	opt.Step()

	// x -= (grad / 2) * 0.1
	assert.InDelta(t, 1.95, x.Value().Data()[0], 1e-12)
	assert.InDelta(t, -1.2, x.Value().Data()[1], 1e-12)
}

func TestSGD_WithMomentum(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, []float64{1.0}, []float64{1.0})

	opt := optim.NewSGD([]*autodiff.Tensor{x}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// v = 1, x = 1 - 0.1
	opt.Step()
	assert.InDelta(t, 0.9, x.Value().Data()[0], 1e-12)

	// v = 0.9 + 1 = 1.9, x = 0.9 - 0.19
	opt.Step()
	assert.InDelta(t, 0.71, x.Value().Data()[0], 1e-12)

	state := opt.StateDict()
	require.Contains(t, state, "velocity.0")
	assert.InDelta(t, 1.9, state["velocity.0"].Data()[0], 1e-12)
}

func TestSGD_SkipsMissingGradients(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	used := param(t, g, []float64{1}, []float64{1})
	unused := param(t, g, []float64{5}, nil)

	opt := optim.NewSGD([]*autodiff.Tensor{used, unused}, optim.SGDConfig{LR: 1})
	opt.Step()
	assert.Equal(t, []float64{0}, used.Value().Data())
	assert.Equal(t, []float64{5}, unused.Value().Data())
}

func TestSGD_GetSetLR(t *testing.T) {
	opt := optim.NewSGD(nil, optim.SGDConfig{})
	assert.Equal(t, 0.01, opt.GetLR())
	opt.SetLR(0.5)
	assert.Equal(t, 0.5, opt.GetLR())
}

// TestAdam_BiasCorrection checks the first step against the closed form.
func TestAdam_BiasCorrection(t *testing.T) {
	const (
		lr    = 0.001
		beta1 = 0.9
		beta2 = 0.999
		eps   = 1e-8
		grad  = 0.5
	)
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, []float64{1.0, 1.0}, []float64{grad, -grad})

	opt := optim.NewAdamWith([]*autodiff.Tensor{x}, lr, 1, beta1, beta2, eps)
	opt.Step()

	m := (1 - beta1) * grad
	v := (1 - beta2) * grad * grad
	a := lr * math.Sqrt(1-beta2) / (1 - beta1)
	update := a * m / (math.Sqrt(v) + eps)

	assert.InDelta(t, 1.0-update, x.Value().Data()[0], 1e-15)
	assert.InDelta(t, 1.0+update, x.Value().Data()[1], 1e-15)
	// The first update is close to lr regardless of the gradient scale.
	assert.InDelta(t, lr, update, 1e-6)
	assert.Equal(t, 1, opt.Timestep())
}

func TestAdam_BatchSize(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, []float64{0}, []float64{4})
	y := param(t, g, []float64{0}, []float64{1})

	// A batch of 4 with gradient 4 must match a batch of 1 with gradient 1.
	optim.NewAdam([]*autodiff.Tensor{x}, optim.AdamConfig{LR: 0.1, BatchSize: 4}).Step()
	optim.NewAdam([]*autodiff.Tensor{y}, optim.AdamConfig{LR: 0.1}).Step()
	assert.InDelta(t, y.Value().Data()[0], x.Value().Data()[0], 1e-15)
}

func TestZeroGrad_ThenStepLeavesValues(t *testing.T) {
	tests := []struct {
		name string
		make func([]*autodiff.Tensor) optim.Optimizer
	}{
		{"sgd", func(p []*autodiff.Tensor) optim.Optimizer {
			return optim.NewSGD(p, optim.SGDConfig{LR: 0.1, Momentum: 0.9})
		}},
		{"adam", func(p []*autodiff.Tensor) optim.Optimizer {
			return optim.NewAdam(p, optim.AdamConfig{LR: 0.1})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := autodiff.NewGraph(autodiff.Config{})
			x := param(t, g, []float64{1, 2, 3}, []float64{1, 1, 1})
			opt := tt.make([]*autodiff.Tensor{x})

			opt.ZeroGrad()
			opt.ZeroGrad()
			assert.Nil(t, x.Grad())

			opt.Step()
			assert.Equal(t, []float64{1, 2, 3}, x.Value().Data())
		})
	}
}

func TestStepLR_Schedule(t *testing.T) {
	opt := optim.NewSGD(nil, optim.SGDConfig{LR: 1.0})
	sched := optim.NewStepLR(opt, 2, 0.5)
	assert.Equal(t, -1, sched.LastStep())

	var lrs []float64
	var decayed []bool
	for range 5 {
		decayed = append(decayed, sched.Step())
		lrs = append(lrs, opt.GetLR())
	}
	assert.Equal(t, []float64{1.0, 1.0, 0.5, 0.5, 0.25}, lrs)
	assert.Equal(t, []bool{false, false, true, false, true}, decayed)
}

func TestStepLR_LogsDecay(t *testing.T) {
	var buf bytes.Buffer
	opt := optim.NewAdam(nil, optim.AdamConfig{LR: 0.01})
	sched := optim.NewStepLRWithConfig(opt, optim.StepLRConfig{
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
	})

	sched.Step()
	assert.Empty(t, buf.String())
	sched.Step()
	assert.Contains(t, buf.String(), "learning rate decayed")
	assert.InDelta(t, 0.001, sched.GetLR(), 1e-15)
}

// TestConvergence_SimpleQuadratic minimizes (x - 3)² through the graph.
func TestConvergence_SimpleQuadratic(t *testing.T) {
	tests := []struct {
		name string
		make func([]*autodiff.Tensor) optim.Optimizer
	}{
		{"sgd", func(p []*autodiff.Tensor) optim.Optimizer { return optim.NewSGD(p, optim.SGDConfig{LR: 0.1}) }},
		{"sgd-momentum", func(p []*autodiff.Tensor) optim.Optimizer {
			return optim.NewSGD(p, optim.SGDConfig{LR: 0.05, Momentum: 0.5})
		}},
		{"adam", func(p []*autodiff.Tensor) optim.Optimizer { return optim.NewAdam(p, optim.AdamConfig{LR: 0.1}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := autodiff.NewGraph(autodiff.Config{})
			x := param(t, g, []float64{0}, nil)
			opt := tt.make([]*autodiff.Tensor{x})

			for range 500 {
				opt.ZeroGrad()
				diff := autodiff.Must(x.AddScalar(-3))
				loss := autodiff.Must(autodiff.Must(diff.Mul(diff)).Sum())
				require.NoError(t, loss.Backward())
				opt.Step()
			}
			assert.InDelta(t, 3.0, x.Value().Data()[0], 1e-2)
		})
	}
}

func TestAdam_StateDictRoundTrip(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, []float64{1, 2}, []float64{0.3, -0.7})
	y := param(t, g, []float64{1, 2}, []float64{0.3, -0.7})

	a := optim.NewAdam([]*autodiff.Tensor{x}, optim.AdamConfig{LR: 0.1})
	a.Step()
	a.Step()

	b := optim.NewAdam([]*autodiff.Tensor{y}, optim.AdamConfig{LR: 0.1})
	b.Step()
	b.Step()
	require.NoError(t, b.LoadStateDict(a.StateDict()))
	assert.Equal(t, 2, b.Timestep())

	a.Step()
	b.Step()
	assert.InDeltaSlice(t, x.Value().Data(), y.Value().Data(), 1e-15)

	bad := a.StateDict()
	bad["m.0"] = array.Zeros(array.Shape{3})
	err := b.LoadStateDict(bad)
	assert.True(t, errors.Is(err, optim.ErrState))
}

// TestPositionalConstructors_KeepExplicitZeros checks that zero values passed
// positionally are used as given while Config zero values mean defaults.
func TestPositionalConstructors_KeepExplicitZeros(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	grad := []float64{0.5, -2}

	// beta1 = 0 keeps no history: m equals the gradient after one step.
	x := param(t, g, []float64{1, 1}, grad)
	a := optim.NewAdamWith([]*autodiff.Tensor{x}, 0.1, 1, 0, 0.999, 1e-8)
	a.Step()
	assert.InDeltaSlice(t, grad, a.StateDict()["m.0"].Data(), 1e-15)

	y := param(t, g, []float64{1, 1}, grad)
	b := optim.NewAdam([]*autodiff.Tensor{y}, optim.AdamConfig{LR: 0.1})
	b.Step()
	assert.InDeltaSlice(t, []float64{0.05, -0.2}, b.StateDict()["m.0"].Data(), 1e-15)

	sgd := optim.NewSGDWith(nil, 0, 1)
	assert.Equal(t, 0.0, sgd.GetLR())

	opt := optim.NewSGDWith(nil, 1, 1)
	sched := optim.NewStepLR(opt, 1, 0)
	sched.Step()
	sched.Step()
	assert.Equal(t, 0.0, opt.GetLR())

	opt = optim.NewSGDWith(nil, 1, 1)
	sched = optim.NewStepLRWithConfig(opt, optim.StepLRConfig{StepSize: 1})
	sched.Step()
	sched.Step()
	assert.InDelta(t, 0.1, opt.GetLR(), 1e-15)
}

func TestAdam_LoadStateDictKeepsCause(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, []float64{1}, []float64{1})
	a := optim.NewAdam([]*autodiff.Tensor{x}, optim.AdamConfig{})

	state := a.StateDict()
	state["step"] = array.Zeros(array.Shape{2})
	err := a.LoadStateDict(state)
	require.Error(t, err)
	assert.True(t, errors.Is(err, optim.ErrState))
	assert.Contains(t, err.Error(), "step:")
	assert.Contains(t, err.Error(), "item of array with shape [2]")
}
