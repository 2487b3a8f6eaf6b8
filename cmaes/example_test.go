package cmaes_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/volfit/cmaes"
)

// ExampleMinimize searches a 2-D box for the minimum of a shifted sphere.
// The fixed default seed makes the run reproducible.
func ExampleMinimize() {
	obj := func(x []float64) float64 {
		return (x[0]-0.5)*(x[0]-0.5) + (x[1]+0.25)*(x[1]+0.25)
	}
	bounds := [][2]float64{{-1, 1}, {-1, 1}}

	opts := cmaes.DefaultOptions()
	opts.TotalEvalsBudget = 4000
	opts.BIPOPRestarts = 1

	res, err := cmaes.Minimize(context.Background(), obj, bounds, opts)
	if err != nil {
		fmt.Println(err)

		return
	}
	fmt.Println(res.F < 1e-6)
	// Output: true
}
