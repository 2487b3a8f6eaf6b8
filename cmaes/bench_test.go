package cmaes_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/volfit/cmaes"
)

// BenchmarkMinimize_Sphere5D measures a full bounded search with a fixed
// small budget; the work is dominated by sampling and the per-generation
// eigendecomposition.
func BenchmarkMinimize_Sphere5D(b *testing.B) {
	obj := sphere(0.3)
	bounds := unitBox(5)

	opts := cmaes.DefaultOptions()
	opts.TotalEvalsBudget = 2000
	opts.MaxEvaluations = 2000
	opts.BIPOPRestarts = 0

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cmaes.Minimize(context.Background(), obj, bounds, opts); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMinimize_ParallelEval contrasts the worker-pool evaluation path
// on the same budget.
func BenchmarkMinimize_ParallelEval(b *testing.B) {
	obj := sphere(0.3)
	bounds := unitBox(5)

	opts := cmaes.DefaultOptions()
	opts.TotalEvalsBudget = 2000
	opts.MaxEvaluations = 2000
	opts.BIPOPRestarts = 0
	opts.ParallelEval = true

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cmaes.Minimize(context.Background(), obj, bounds, opts); err != nil {
			b.Fatal(err)
		}
	}
}
