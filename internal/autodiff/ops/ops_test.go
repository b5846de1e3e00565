package ops_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff/ops"
	"github.com/born-ml/autograd/internal/gradcheck"
)

func fromSlice(t *testing.T, data []float64, shape ...int) *array.Array {
	t.Helper()
	a, err := array.New(data, array.Shape(shape))
	require.NoError(t, err)
	return a
}

// TestGradients compares every primitive against central differences.
func TestGradients(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3} {
		rng := rand.New(rand.NewPCG(seed, 99))
		cfg := gradcheck.Config{Tolerance: 1e-4, Rand: rng}

		for _, c := range gradcheck.Suite(rng) {
			t.Run(c.Name, func(t *testing.T) {
				res, err := gradcheck.Check(c, cfg)
				require.NoError(t, err)
				assert.True(t, res.Passed, res.String())
			})
		}
	}
}

// TestBackward_ShapeRoundTrip checks that every gradient has the shape of
// its input.
func TestBackward_ShapeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for _, c := range gradcheck.Suite(rng) {
		out, err := c.Op.Forward(c.Inputs...)
		require.NoError(t, err, c.Name)

		grads, err := c.Op.Backward(c.Inputs, out, array.OnesLike(out))
		require.NoError(t, err, c.Name)
		require.Len(t, grads, len(c.Inputs), c.Name)
		for i, g := range grads {
			assert.Equal(t, c.Inputs[i].Shape(), g.Shape(), "%s input %d", c.Name, i)
		}
	}
}

func TestAddOp_BroadcastBackward(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3}, 3)
	b := fromSlice(t, []float64{10}, 1)
	op := ops.AddOp{}

	out, err := op.Forward(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 13}, out.Data())

	grads, err := op.Backward([]*array.Array{a, b}, out, array.Ones(array.Shape{3}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, grads[0].Data())
	assert.Equal(t, []float64{3}, grads[1].Data())
}

func TestSubOp_Backward(t *testing.T) {
	a := fromSlice(t, []float64{1, 2}, 2)
	b := fromSlice(t, []float64{5}, 1)
	op := ops.SubOp{}

	out, err := op.Forward(a, b)
	require.NoError(t, err)
	grads, err := op.Backward([]*array.Array{a, b}, out, fromSlice(t, []float64{1, 2}, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, grads[0].Data())
	assert.Equal(t, []float64{-3}, grads[1].Data())
}

func TestMatMulOp_Backward(t *testing.T) {
	// A = [[1, 2], [3, 4]], B = [[5, 6], [7, 8]]
	a := fromSlice(t, []float64{1, 2, 3, 4}, 2, 2)
	b := fromSlice(t, []float64{5, 6, 7, 8}, 2, 2)
	op := ops.MatMulOp{}

	out, err := op.Forward(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{19, 22, 43, 50}, out.Data())

	grads, err := op.Backward([]*array.Array{a, b}, out, array.Ones(array.Shape{2, 2}))
	require.NoError(t, err)
	// grad_A = ones @ B^T = [[11, 15], [11, 15]]
	assert.Equal(t, []float64{11, 15, 11, 15}, grads[0].Data())
	// grad_B = A^T @ ones = [[4, 4], [6, 6]]
	assert.Equal(t, []float64{4, 4, 6, 6}, grads[1].Data())

	_, err = op.Forward(a, fromSlice(t, []float64{1, 2, 3}, 3))
	assert.True(t, errors.Is(err, array.ErrShapeMismatch))
}

func TestLogOp_Domain(t *testing.T) {
	_, err := ops.LogOp{}.Forward(fromSlice(t, []float64{1, -1}, 2))
	assert.True(t, errors.Is(err, ops.ErrDomain))
}

func TestPowOp_Domain(t *testing.T) {
	base := fromSlice(t, []float64{-2, 2}, 2)
	exp := fromSlice(t, []float64{2, 2}, 2)

	_, err := ops.PowOp{ExponentGrad: true}.Forward(base, exp)
	assert.True(t, errors.Is(err, ops.ErrDomain))

	out, err := ops.PowOp{}.Forward(base, exp)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 4}, out.Data())

	grads, err := ops.PowOp{}.Backward([]*array.Array{base, exp}, out, array.Ones(array.Shape{2}))
	require.NoError(t, err)
	assert.Equal(t, []float64{-4, 4}, grads[0].Data())
	assert.Equal(t, []float64{0, 0}, grads[1].Data())
}

func TestActivation_BoundaryDerivatives(t *testing.T) {
	x := fromSlice(t, []float64{-1, 0, 3, 6, 7}, 5)
	ones := array.Ones(array.Shape{5})

	tests := []struct {
		name string
		op   ops.Operation
		want []float64
	}{
		{"relu", ops.ReLUOp{}, []float64{0, 0, 1, 1, 1}},
		{"relu6", ops.ReLU6Op{}, []float64{0, 0, 1, 0, 0}},
		{"leaky_relu", ops.LeakyReLUOp{NegativeSlope: 0.1}, []float64{0.1, 0.1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.op.Forward(x)
			require.NoError(t, err)
			grads, err := tt.op.Backward([]*array.Array{x}, out, ones)
			require.NoError(t, err)
			assert.Equal(t, tt.want, grads[0].Data())
		})
	}
}

func TestSoftmaxOp_RowsSumToOne(t *testing.T) {
	x := fromSlice(t, []float64{1, 2, 3, 1000, 1000, 1000}, 2, 3)
	out, err := ops.SoftmaxOp{Axis: -1}.Forward(x)
	require.NoError(t, err)

	sums, err := array.SumAxis(out, -1, false)
	require.NoError(t, err)
	for _, s := range sums.Data() {
		assert.InDelta(t, 1.0, s, 1e-12)
	}
	assert.InDelta(t, 1.0/3, out.At(1, 0), 1e-12)

	_, err = ops.SoftmaxOp{Axis: 2}.Forward(x)
	assert.True(t, errors.Is(err, array.ErrAxis))
}

func TestMaxMinOp_TieBreak(t *testing.T) {
	x := fromSlice(t, []float64{2, 5, 5, -1, -1}, 5)
	g := array.Scalar(2)

	out, err := ops.MaxOp{}.Forward(x)
	require.NoError(t, err)
	grads, err := ops.MaxOp{}.Backward([]*array.Array{x}, out, g)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 0, 0, 0}, grads[0].Data())

	out, err = ops.MinOp{}.Forward(x)
	require.NoError(t, err)
	grads, err = ops.MinOp{}.Backward([]*array.Array{x}, out, g)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 2, 0}, grads[0].Data())
}

func TestOperation_Arity(t *testing.T) {
	a := fromSlice(t, []float64{1}, 1)
	_, err := ops.AddOp{}.Forward(a)
	assert.True(t, errors.Is(err, ops.ErrArity))

	_, err = ops.ExpOp{}.Forward(a, a)
	assert.True(t, errors.Is(err, ops.ErrArity))
}

func TestOperations_DoNotMutateInputs(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 11))
	for _, c := range gradcheck.Suite(rng) {
		before := make([]*array.Array, len(c.Inputs))
		for i, in := range c.Inputs {
			before[i] = in.Clone()
		}
		out, err := c.Op.Forward(c.Inputs...)
		require.NoError(t, err)
		g := array.OnesLike(out)
		_, err = c.Op.Backward(c.Inputs, out, g)
		require.NoError(t, err)

		for i, in := range c.Inputs {
			assert.True(t, in.AllClose(before[i], 0), "%s mutated input %d", c.Name, i)
		}
		assert.True(t, g.AllClose(array.OnesLike(out), 0), "%s mutated outputGrad", c.Name)
	}
}
