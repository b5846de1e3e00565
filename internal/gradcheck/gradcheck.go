// Package gradcheck verifies analytic operation gradients against
// finite-difference estimates.
//
// For an operation f and a fixed probe array p, the scalar
// L(x) = Σ f(x) ⊙ p has gradient Backward(x, f(x), p). Check perturbs every
// input element, estimates ∂L/∂x with a central difference and compares.
//
// Points listed as kinks (for example 0 for ReLU) have no two-sided
// derivative. There the analytic value must equal one of the two one-sided
// differences, which is how a documented boundary choice is validated.
package gradcheck

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff/ops"
)

// Config controls a gradient check.
type Config struct {
	Epsilon   float64    // Finite-difference step (default: 1e-6)
	Tolerance float64    // Allowed error, relative above magnitude 1 (default: 1e-4)
	Rand      *rand.Rand // Source for the probe; nil uses an all-ones probe
}

// DefaultConfig returns the tolerances used by the test suite.
func DefaultConfig() Config {
	return Config{Epsilon: 1e-6, Tolerance: 1e-4}
}

func (c Config) withDefaults() Config {
	if c.Epsilon == 0 {
		c.Epsilon = 1e-6
	}
	if c.Tolerance == 0 {
		c.Tolerance = 1e-4
	}
	return c
}

// Case is one operation evaluated at concrete inputs.
type Case struct {
	Name   string
	Op     ops.Operation
	Inputs []*array.Array
	Kinks  []float64 // Input values where only one-sided derivatives exist

	// Constants lists inputs the operation treats as constants. Only the
	// shape of their gradient is checked.
	Constants []int
}

// Result reports the outcome of checking one Case.
type Result struct {
	Name     string
	Op       string
	MaxError float64 // Largest scaled difference between analytic and numeric gradients
	Worst    string  // Location of MaxError, "input[i][j]"
	Passed   bool
}

// String formats the result as a single report line.
func (r Result) String() string {
	status := "ok"
	if !r.Passed {
		status = "FAIL"
	}
	return fmt.Sprintf("%-4s %-32s %-10s max_err=%.3e at %s", status, r.Name, r.Op, r.MaxError, r.Worst)
}

// ErrShape is returned when Backward yields gradients that do not match
// the number or shapes of the inputs.
var ErrShape = errors.New("gradient shape mismatch")

// Check runs a single gradient check.
func Check(c Case, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	res := Result{Name: c.Name, Op: c.Op.Name(), Passed: true}

	output, err := c.Op.Forward(c.Inputs...)
	if err != nil {
		return res, errors.WithMessagef(err, "%s: forward", c.Name)
	}
	probe := array.OnesLike(output)
	if cfg.Rand != nil {
		probe = array.Randn(output.Shape(), cfg.Rand)
	}

	grads, err := c.Op.Backward(c.Inputs, output, probe)
	if err != nil {
		return res, errors.WithMessagef(err, "%s: backward", c.Name)
	}
	if len(grads) != len(c.Inputs) {
		return res, errors.Wrapf(ErrShape, "%s: %d gradients for %d inputs", c.Name, len(grads), len(c.Inputs))
	}

	for i, in := range c.Inputs {
		if !grads[i].Shape().Equal(in.Shape()) {
			return res, errors.Wrapf(ErrShape, "%s: gradient %d has shape %v, input has %v",
				c.Name, i, []int(grads[i].Shape()), []int(in.Shape()))
		}
		if slices.Contains(c.Constants, i) {
			continue
		}
		if err := checkInput(c, i, probe, grads[i], cfg, &res); err != nil {
			return res, err
		}
	}

	res.Passed = res.MaxError <= cfg.Tolerance
	return res, nil
}

func checkInput(c Case, i int, probe, analytic *array.Array, cfg Config, res *Result) error {
	data := c.Inputs[i].Data()
	for j := range data {
		orig := data[j]
		loss := func(v float64) (float64, error) {
			data[j] = v
			defer func() { data[j] = orig }()
			return probedLoss(c, probe)
		}

		plus, err := loss(orig + cfg.Epsilon)
		if err != nil {
			return err
		}
		minus, err := loss(orig - cfg.Epsilon)
		if err != nil {
			return err
		}
		center, err := loss(orig)
		if err != nil {
			return err
		}

		got := analytic.Data()[j]
		errAt := scaledError(got, (plus-minus)/(2*cfg.Epsilon))
		if isKink(orig, c.Kinks) {
			left := scaledError(got, (center-minus)/cfg.Epsilon)
			right := scaledError(got, (plus-center)/cfg.Epsilon)
			errAt = math.Min(left, right)
		}

		if errAt > res.MaxError || math.IsNaN(errAt) {
			res.MaxError = errAt
			res.Worst = fmt.Sprintf("input[%d][%d]", i, j)
		}
	}
	return nil
}

func probedLoss(c Case, probe *array.Array) (float64, error) {
	out, err := c.Op.Forward(c.Inputs...)
	if err != nil {
		return 0, errors.WithMessagef(err, "%s: forward", c.Name)
	}
	weighted, err := array.Mul(out, probe)
	if err != nil {
		return 0, err
	}
	return array.Sum(weighted), nil
}

func scaledError(analytic, numeric float64) float64 {
	scale := math.Max(1, math.Max(math.Abs(analytic), math.Abs(numeric)))
	return math.Abs(analytic-numeric) / scale
}

func isKink(v float64, kinks []float64) bool {
	for _, k := range kinks {
		if v == k {
			return true
		}
	}
	return false
}

// Run checks every case, stopping at the first hard error.
func Run(cases []Case, cfg Config) ([]Result, error) {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		r, err := Check(c, cfg)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
