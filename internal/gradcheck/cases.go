package gradcheck

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff/ops"
)

// Ranks lists one shape per tensor rank from 0 to 3.
var Ranks = []array.Shape{{}, {3}, {2, 3}, {2, 3, 2}}

// Suite builds the standard cases: every primitive at ranks 0 to 3 where
// the primitive accepts them, broadcasting variants, and ReLU-family
// boundary inputs.
func Suite(rng *rand.Rand) []Case {
	var cases []Case
	add := func(name string, op ops.Operation, kinks []float64, inputs ...*array.Array) {
		cases = append(cases, Case{Name: name, Op: op, Inputs: inputs, Kinks: kinks})
	}
	// Pow without ExponentGrad holds the exponent constant.
	addPow := func(name string, inputs ...*array.Array) {
		cases = append(cases, Case{Name: name, Op: ops.PowOp{}, Inputs: inputs, Constants: []int{1}})
	}

	for _, s := range Ranks {
		r := fmt.Sprintf("rank%d", s.Rank())

		add("add/"+r, ops.AddOp{}, nil, randn(s, rng), randn(s, rng))
		add("sub/"+r, ops.SubOp{}, nil, randn(s, rng), randn(s, rng))
		add("mul/"+r, ops.MulOp{}, nil, randn(s, rng), randn(s, rng))
		add("div/"+r, ops.DivOp{}, nil, randn(s, rng), awayFromZero(s, rng))
		addPow("pow/"+r, randn(s, rng), integers(s, rng))
		add("pow-exp/"+r, ops.PowOp{ExponentGrad: true}, nil, positive(s, rng), randn(s, rng))
		add("sum/"+r, ops.SumOp{}, nil, randn(s, rng))
		add("max/"+r, ops.MaxOp{}, nil, distinct(s, rng))
		add("min/"+r, ops.MinOp{}, nil, distinct(s, rng))
		add("exp/"+r, ops.ExpOp{}, nil, randn(s, rng))
		add("log/"+r, ops.LogOp{}, nil, positive(s, rng))
		add("negative/"+r, ops.NegativeOp{}, nil, randn(s, rng))
		add("identity/"+r, ops.IdentityOp{}, nil, randn(s, rng))
		add("transpose/"+r, ops.TransposeOp{}, nil, randn(s, rng))
		add("reshape/"+r, ops.ReshapeOp{Shape: array.Shape{s.NumElements()}}, nil, randn(s, rng))
		add("relu/"+r, ops.ReLUOp{}, nil, awayFromZero(s, rng))
		add("relu6/"+r, ops.ReLU6Op{}, nil, awayFromKinks(s, rng))
		add("leaky_relu/"+r, ops.LeakyReLUOp{NegativeSlope: ops.DefaultNegativeSlope}, nil, awayFromZero(s, rng))
		add("sigmoid/"+r, ops.SigmoidOp{}, nil, randn(s, rng))
		add("tanh/"+r, ops.TanhOp{}, nil, randn(s, rng))
		add("selu/"+r, ops.SELUOp{Alpha: ops.SELUAlpha, Lambda: ops.SELULambda}, nil, awayFromZero(s, rng))
		if s.Rank() > 0 {
			add("softmax/"+r, ops.SoftmaxOp{Axis: -1}, nil, randn(s, rng))
			add("softmax-axis0/"+r, ops.SoftmaxOp{Axis: 0}, nil, randn(s, rng))
		}
	}

	// Broadcasting.
	add("add/broadcast-row", ops.AddOp{}, nil, randn(array.Shape{2, 3}, rng), randn(array.Shape{3}, rng))
	add("sub/broadcast-col", ops.SubOp{}, nil, randn(array.Shape{2, 1}, rng), randn(array.Shape{2, 3}, rng))
	add("mul/broadcast-scalar", ops.MulOp{}, nil, randn(array.Shape{2, 3, 2}, rng), randn(array.Shape{}, rng))
	add("div/broadcast-keepdim", ops.DivOp{}, nil, randn(array.Shape{2, 3, 2}, rng), awayFromZero(array.Shape{2, 1, 2}, rng))
	add("pow/broadcast-exp", ops.PowOp{ExponentGrad: true}, nil, positive(array.Shape{2, 3}, rng), randn(array.Shape{1, 3}, rng))

	// MatMul and its rank-1 promotions.
	add("matmul/2x2", ops.MatMulOp{}, nil, randn(array.Shape{2, 3}, rng), randn(array.Shape{3, 4}, rng))
	add("matmul/vec-vec", ops.MatMulOp{}, nil, randn(array.Shape{3}, rng), randn(array.Shape{3}, rng))
	add("matmul/mat-vec", ops.MatMulOp{}, nil, randn(array.Shape{2, 3}, rng), randn(array.Shape{3}, rng))
	add("matmul/vec-mat", ops.MatMulOp{}, nil, randn(array.Shape{3}, rng), randn(array.Shape{3, 2}, rng))

	add("transpose/perm", ops.TransposeOp{Axes: []int{2, 0, 1}}, nil, randn(array.Shape{2, 3, 2}, rng))
	add("reshape/split", ops.ReshapeOp{Shape: array.Shape{3, 2}}, nil, randn(array.Shape{2, 3}, rng))

	// Boundary inputs where only one-sided derivatives exist.
	boundary := mustNew([]float64{-1.5, 0, 0.5, 0, 2, -0.25}, array.Shape{2, 3})
	add("relu/boundary", ops.ReLUOp{}, []float64{0}, boundary)
	add("leaky_relu/boundary", ops.LeakyReLUOp{NegativeSlope: 0.2}, []float64{0}, boundary)
	add("selu/boundary", ops.SELUOp{Alpha: ops.SELUAlpha, Lambda: ops.SELULambda}, []float64{0}, boundary)
	add("relu6/boundary", ops.ReLU6Op{}, []float64{0, 6},
		mustNew([]float64{0, 6, 3, -1, 7, 0}, array.Shape{2, 3}))

	return cases
}

// integers samples exponents from {0, 1, 2, 3} so that negative bases stay real.
func integers(s array.Shape, rng *rand.Rand) *array.Array {
	return sample(s, func() float64 { return float64(rng.IntN(4)) })
}

func randn(s array.Shape, rng *rand.Rand) *array.Array {
	return array.Randn(s, rng)
}

// positive samples from [0.5, 2.5).
func positive(s array.Shape, rng *rand.Rand) *array.Array {
	return sample(s, func() float64 { return 0.5 + 2*rng.Float64() })
}

// awayFromZero shifts samples so that |x| >= 0.1.
func awayFromZero(s array.Shape, rng *rand.Rand) *array.Array {
	return array.Randn(s, rng).Map(func(x float64) float64 {
		return math.Copysign(math.Abs(x)+0.1, x)
	})
}

// awayFromKinks samples from (-2, 8) avoiding neighborhoods of 0 and 6.
func awayFromKinks(s array.Shape, rng *rand.Rand) *array.Array {
	return sample(s, func() float64 {
		for {
			x := -2 + 10*rng.Float64()
			if math.Abs(x) > 0.1 && math.Abs(x-6) > 0.1 {
				return x
			}
		}
	})
}

// distinct returns a random permutation of well separated values so that
// the extremum is unique.
func distinct(s array.Shape, rng *rand.Rand) *array.Array {
	n := s.NumElements()
	data := make([]float64, n)
	for i, p := range rng.Perm(n) {
		data[i] = float64(p) - float64(n)/2
	}
	return mustNew(data, s)
}

// sample fills an array by calling next in row-major order.
func sample(s array.Shape, next func() float64) *array.Array {
	data := make([]float64, s.NumElements())
	for i := range data {
		data[i] = next()
	}
	return mustNew(data, s)
}

func mustNew(data []float64, s array.Shape) *array.Array {
	a, err := array.New(data, s)
	if err != nil {
		panic(err)
	}
	return a
}
