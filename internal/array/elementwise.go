package array

import (
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/autograd/internal/parallel"
)

// kernels controls how elementwise loops are split across goroutines.
// Unset means every kernel runs on the calling goroutine.
var kernels atomic.Pointer[parallel.Config]

// SetParallel configures goroutine splitting for elementwise kernels
// process-wide. The zero Config, which is the default, disables it.
func SetParallel(cfg parallel.Config) {
	kernels.Store(&cfg)
}

func kernelConfig() parallel.Config {
	if cfg := kernels.Load(); cfg != nil {
		return *cfg
	}
	return parallel.Config{}
}

// binaryKernel is the fast path used when both operands share a shape.
type binaryKernel func(dst, s, t []float64) []float64

// Add returns a + b with broadcasting.
func Add(a, b *Array) (*Array, error) {
	return broadcastBinary("add", a, b, floats.AddTo, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b with broadcasting.
func Sub(a, b *Array) (*Array, error) {
	return broadcastBinary("sub", a, b, floats.SubTo, func(x, y float64) float64 { return x - y })
}

// Mul returns the elementwise product a * b with broadcasting.
func Mul(a, b *Array) (*Array, error) {
	return broadcastBinary("mul", a, b, floats.MulTo, func(x, y float64) float64 { return x * y })
}

// Div returns the elementwise quotient a / b with broadcasting.
func Div(a, b *Array) (*Array, error) {
	return broadcastBinary("div", a, b, floats.DivTo, func(x, y float64) float64 { return x / y })
}

// Pow returns base raised elementwise to exp with broadcasting.
func Pow(base, exp *Array) (*Array, error) {
	return broadcastBinary("pow", base, exp, nil, math.Pow)
}

// Apply2 combines a and b elementwise with f, broadcasting as needed.
func Apply2(a, b *Array, f func(x, y float64) float64) (*Array, error) {
	return broadcastBinary("apply", a, b, nil, f)
}

func broadcastBinary(name string, a, b *Array, fast binaryKernel, f func(x, y float64) float64) (*Array, error) {
	if a.shape.Equal(b.shape) {
		out := make([]float64, len(a.data))
		if fast != nil {
			fast(out, a.data, b.data)
		} else {
			parallel.Range(len(out), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					out[i] = f(a.data[i], b.data[i])
				}
			}, kernelConfig())
		}
		return wrap(out, a.shape), nil
	}

	outShape, _, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, errors.WithMessage(err, name)
	}

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.shape, outShape)
	bStrides := broadcastStrides(b.shape, outShape)

	out := make([]float64, outShape.NumElements())
	parallel.Range(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			x := a.data[flatIndex(i, outStrides, aStrides)]
			y := b.data[flatIndex(i, outStrides, bStrides)]
			out[i] = f(x, y)
		}
	}, kernelConfig())
	return wrap(out, outShape), nil
}

// Scale returns c * a.
func Scale(a *Array, c float64) *Array {
	out := make([]float64, len(a.data))
	floats.ScaleTo(out, c, a.data)
	return wrap(out, a.shape)
}

// AddScalar returns a + c.
func AddScalar(a *Array, c float64) *Array {
	out := a.Clone()
	floats.AddConst(c, out.data)
	return out
}

// Neg returns -a.
func Neg(a *Array) *Array {
	return Scale(a, -1)
}

// AddInPlace accumulates b into a. Shapes must match exactly.
func AddInPlace(a, b *Array) error {
	if !a.shape.Equal(b.shape) {
		return errors.Wrapf(ErrShapeMismatch, "add in place: %v and %v", []int(a.shape), []int(b.shape))
	}
	floats.Add(a.data, b.data)
	return nil
}

// SubInPlace subtracts b from a. Shapes must match exactly.
func SubInPlace(a, b *Array) error {
	if !a.shape.Equal(b.shape) {
		return errors.Wrapf(ErrShapeMismatch, "sub in place: %v and %v", []int(a.shape), []int(b.shape))
	}
	floats.Sub(a.data, b.data)
	return nil
}

// BroadcastTo expands a to shape following broadcasting rules.
func BroadcastTo(a *Array, shape Shape) (*Array, error) {
	if a.shape.Equal(shape) {
		return a.Clone(), nil
	}
	target, _, err := BroadcastShapes(a.shape, shape)
	if err != nil || !target.Equal(shape) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %v to %v", []int(a.shape), []int(shape))
	}
	outStrides := shape.ComputeStrides()
	inStrides := broadcastStrides(a.shape, shape)
	out := make([]float64, shape.NumElements())
	for i := range out {
		out[i] = a.data[flatIndex(i, outStrides, inStrides)]
	}
	return wrap(out, shape), nil
}

// SumTo reduces a broadcast result back to target by summing over the
// dimensions that broadcasting expanded.
//
//	Forward:  a[3,1] + b[3,4] -> c[3,4]
//	Backward: SumTo(grad_c[3,4], [3,1]) -> grad_a[3,1]
func SumTo(a *Array, target Shape) (*Array, error) {
	if a.shape.Equal(target) {
		return a.Clone(), nil
	}
	if len(target) == 0 {
		return Scalar(Sum(a)), nil
	}
	if len(target) > len(a.shape) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot reduce %v to %v", []int(a.shape), []int(target))
	}

	result := a
	var err error
	for lead := len(a.shape) - len(target); lead > 0; lead-- {
		if result, err = SumAxis(result, 0, false); err != nil {
			return nil, err
		}
	}
	for i, dim := range target {
		switch {
		case dim == result.shape[i]:
		case dim == 1:
			if result, err = SumAxis(result, i, true); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Wrapf(ErrShapeMismatch, "cannot reduce %v to %v", []int(a.shape), []int(target))
		}
	}
	if result == a {
		result = a.Clone()
	}
	return result, nil
}
