package ops

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/array"
)

// PowOp represents an element-wise power: output = base^exp.
//
// Backward pass:
//   - grad_base = exp * base^(exp-1) * outputGrad
//   - grad_exp  = output * ln(base) * outputGrad, only when ExponentGrad is set
//
// When ExponentGrad is false the exponent receives a zero gradient and the
// base may be non-positive. When it is set, Forward rejects any base <= 0
// with ErrDomain, since ln(base) is undefined there.
type PowOp struct {
	ExponentGrad bool
}

// Name returns "Pow".
func (PowOp) Name() string { return "Pow" }

// Forward computes base^exp.
func (op PowOp) Forward(inputs ...*array.Array) (*array.Array, error) {
	if err := expectInputs(op, inputs, 2); err != nil {
		return nil, err
	}
	base, exp := inputs[0], inputs[1]
	if op.ExponentGrad {
		for i, v := range base.Data() {
			if v <= 0 {
				return nil, errors.Wrapf(ErrDomain,
					"Pow: base element %d is %g; exponent gradient requires a positive base", i, v)
			}
		}
	}
	return array.Pow(base, exp)
}

// Backward computes input gradients for the power operation.
func (op PowOp) Backward(inputs []*array.Array, output, outputGrad *array.Array) ([]*array.Array, error) {
	base, exp := inputs[0], inputs[1]

	local, err := array.Apply2(base, exp, func(b, e float64) float64 {
		if e == 0 {
			return 0
		}
		return e * math.Pow(b, e-1)
	})
	if err != nil {
		return nil, err
	}
	gradBase, err := array.Mul(outputGrad, local)
	if err != nil {
		return nil, err
	}

	gradExp := outputGrad
	if op.ExponentGrad {
		logBase := base.Map(math.Log)
		scaled, err := array.Mul(output, logBase)
		if err != nil {
			return nil, err
		}
		if gradExp, err = array.Mul(outputGrad, scaled); err != nil {
			return nil, err
		}
	} else {
		gradExp = array.Zeros(outputGrad.Shape())
	}

	return routeBroadcast(inputs, gradBase, gradExp)
}
