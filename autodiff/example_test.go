package autodiff_test

import (
	"fmt"

	"github.com/born-ml/autograd/autodiff"
)

func Example() {
	g := autodiff.NewGraph(autodiff.Config{})

	x := g.Scalar(3)
	y := autodiff.Must(autodiff.Must(x.Mul(x)).Add(x)) // x² + x

	if err := y.Backward(); err != nil {
		panic(err)
	}
	grad, _ := x.Grad().Item()
	fmt.Println(grad)
	// Output: 7
}

func ExampleExport() {
	g := autodiff.NewGraph(autodiff.Config{})

	a := g.Scalar(2).SetLabel("a")
	b := g.Scalar(5).SetLabel("b")
	c := autodiff.Must(a.Mul(b))

	exp := autodiff.Export(c)
	for _, e := range exp.Edges {
		fmt.Printf("%d -> %d (input %d)\n", e.From, e.To, e.Index)
	}
	// Output:
	// 1 -> 3 (input 0)
	// 2 -> 3 (input 1)
}
