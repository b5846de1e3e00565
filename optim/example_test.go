package optim_test

import (
	"fmt"

	"github.com/born-ml/autograd/autodiff"
	"github.com/born-ml/autograd/optim"
)

func ExampleSGD() {
	g := autodiff.NewGraph(autodiff.Config{})
	w := autodiff.Must(g.Tensor([]float64{1, 2}))

	loss := autodiff.Must(autodiff.Must(w.Mul(w)).Sum())
	if err := loss.Backward(); err != nil {
		panic(err)
	}

	opt := optim.NewSGDWith([]*autodiff.Tensor{w}, 0.25, 1)
	opt.Step()
	fmt.Println(w.Value().Data())
	// Output: [0.5 1]
}

func ExampleStepLR() {
	g := autodiff.NewGraph(autodiff.Config{})
	w := autodiff.Must(g.Zeros(1))

	opt := optim.NewSGDWith([]*autodiff.Tensor{w}, 1, 1)
	sched := optim.NewStepLR(opt, 2, 0.5)
	for range 5 {
		sched.Step()
		fmt.Print(opt.GetLR(), " ")
	}
	fmt.Println()
	// Output: 1 1 0.5 0.5 0.25
}
