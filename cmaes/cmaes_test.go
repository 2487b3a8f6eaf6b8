// Package cmaes_test exercises the optimizer via the public API.
// Focus: convergence on smooth benchmarks, box respect, determinism,
// budget accounting, restart scheduling, and pathological objectives.
package cmaes_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/volfit/cmaes"
)

// sphere returns a shifted sphere objective with its minimum at c.
func sphere(c float64) func([]float64) float64 {
	return func(x []float64) float64 {
		var s float64
		for _, v := range x {
			s += (v - c) * (v - c)
		}

		return s
	}
}

// unitBox returns n copies of [-1, 1].
func unitBox(n int) [][2]float64 {
	b := make([][2]float64, n)
	for i := range b {
		b[i] = [2]float64{-1, 1}
	}

	return b
}

// testOptions returns a compact deterministic configuration for tests.
func testOptions() cmaes.Options {
	opts := cmaes.DefaultOptions()
	opts.TotalEvalsBudget = 8000
	opts.MaxEvaluations = 4000
	opts.BIPOPRestarts = 2

	return opts
}

// -----------------------------------------------------------------------------
// 1) Convergence - shifted sphere in 5D.
// -----------------------------------------------------------------------------

func TestMinimize_SphereConverges(t *testing.T) {
	res, err := cmaes.Minimize(context.Background(), sphere(0.3), unitBox(5), testOptions())
	require.NoError(t, err)
	require.Less(t, res.F, 1e-3, "sphere minimum not reached: f=%v", res.F)
	for i, v := range res.X {
		require.InDelta(t, 0.3, v, 0.05, "coordinate %d far from optimum", i)
	}
}

// -----------------------------------------------------------------------------
// 2) Box respect - optimum outside the box lands on the edge.
// -----------------------------------------------------------------------------

func TestMinimize_RespectsBounds(t *testing.T) {
	bounds := [][2]float64{{0, 1}, {0, 1}, {0, 1}}
	res, err := cmaes.Minimize(context.Background(), sphere(2), bounds, testOptions())
	require.NoError(t, err)
	for i, v := range res.X {
		require.GreaterOrEqual(t, v, bounds[i][0])
		require.LessOrEqual(t, v, bounds[i][1])
		// Unconstrained optimum is at 2; the box edge is the best feasible point.
		require.InDelta(t, 1.0, v, 1e-6)
	}
}

// -----------------------------------------------------------------------------
// 3) Determinism - identical seed, bitwise identical results.
// -----------------------------------------------------------------------------

func TestMinimize_DeterministicAcrossCalls(t *testing.T) {
	obj := func(x []float64) float64 {
		return math.Abs(x[0]-0.2) + 3*(x[1]+0.4)*(x[1]+0.4) + math.Sin(x[2])*0.1 + x[2]*x[2]
	}

	opts := testOptions()
	opts.Seed = 98765

	a, errA := cmaes.Minimize(context.Background(), obj, unitBox(3), opts)
	b, errB := cmaes.Minimize(context.Background(), obj, unitBox(3), opts)
	require.NoError(t, errA)
	require.NoError(t, errB)
	require.Equal(t, a.F, b.F, "objective values differ across identical runs")
	require.Equal(t, a.X, b.X, "argmin differs across identical runs")
	require.Equal(t, a.Evaluations, b.Evaluations)
}

// -----------------------------------------------------------------------------
// 4) Parallel evaluation - same trajectory as serial.
// -----------------------------------------------------------------------------

func TestMinimize_ParallelMatchesSerial(t *testing.T) {
	serial := testOptions()
	parallel := testOptions()
	parallel.ParallelEval = true

	a, errA := cmaes.Minimize(context.Background(), sphere(-0.1), unitBox(4), serial)
	b, errB := cmaes.Minimize(context.Background(), sphere(-0.1), unitBox(4), parallel)
	require.NoError(t, errA)
	require.NoError(t, errB)
	require.Equal(t, a.F, b.F)
	require.Equal(t, a.X, b.X)
}

// -----------------------------------------------------------------------------
// 5) Budget accounting - the shared counter is a hard ceiling.
// -----------------------------------------------------------------------------

func TestMinimize_RespectsTotalBudget(t *testing.T) {
	var calls int
	obj := func(x []float64) float64 {
		calls++

		return sphere(0)(x)
	}

	opts := cmaes.DefaultOptions()
	opts.TotalEvalsBudget = 500
	opts.MaxEvaluations = 0
	opts.BIPOPRestarts = 3

	res, err := cmaes.Minimize(context.Background(), obj, unitBox(5), opts)
	require.NoError(t, err)
	require.LessOrEqual(t, res.Evaluations, 500)
	require.Equal(t, res.Evaluations, calls, "counter and actual invocations disagree")
}

// -----------------------------------------------------------------------------
// 6) Warm start - InitialMean near the optimum converges on a tiny budget.
// -----------------------------------------------------------------------------

func TestMinimize_WarmStart(t *testing.T) {
	opts := cmaes.DefaultOptions()
	opts.TotalEvalsBudget = 600
	opts.MaxEvaluations = 600
	opts.BIPOPRestarts = 0
	opts.Sigma0 = 0.05
	opts.InitialMean = []float64{0.29, 0.31, 0.3, 0.28, 0.3}

	res, err := cmaes.Minimize(context.Background(), sphere(0.3), unitBox(5), opts)
	require.NoError(t, err)
	require.Less(t, res.F, 1e-3)
}

// -----------------------------------------------------------------------------
// 7) Pathological objective - never finite ⇒ typed failure.
// -----------------------------------------------------------------------------

func TestMinimize_NoFiniteEvaluation(t *testing.T) {
	obj := func([]float64) float64 { return math.NaN() }

	opts := cmaes.DefaultOptions()
	opts.TotalEvalsBudget = 200
	opts.BIPOPRestarts = 1

	_, err := cmaes.Minimize(context.Background(), obj, unitBox(3), opts)
	require.ErrorIs(t, err, cmaes.ErrNoFiniteEvaluation)
}

// -----------------------------------------------------------------------------
// 8) Validation - structural errors surface as sentinels.
// -----------------------------------------------------------------------------

func TestMinimize_Validation(t *testing.T) {
	ctx := context.Background()
	obj := sphere(0)

	_, err := cmaes.Minimize(ctx, obj, nil, cmaes.DefaultOptions())
	require.ErrorIs(t, err, cmaes.ErrNoBounds)

	_, err = cmaes.Minimize(ctx, obj, [][2]float64{{1, -1}}, cmaes.DefaultOptions())
	require.ErrorIs(t, err, cmaes.ErrInvertedBound)

	opts := cmaes.DefaultOptions()
	opts.InitialMean = []float64{0, 0}
	_, err = cmaes.Minimize(ctx, obj, unitBox(3), opts)
	require.ErrorIs(t, err, cmaes.ErrDimensionMismatch)

	opts = cmaes.DefaultOptions()
	opts.PopulationSize = 1
	_, err = cmaes.Minimize(ctx, obj, unitBox(3), opts)
	require.ErrorIs(t, err, cmaes.ErrBadOptions)
}

// -----------------------------------------------------------------------------
// 9) Restarts - BIPOP and IPOP schedules actually run.
// -----------------------------------------------------------------------------

func TestMinimize_RestartSchedules(t *testing.T) {
	// Rastrigin-flavored multimodal objective in 3D keeps restarts busy.
	obj := func(x []float64) float64 {
		s := 10.0 * float64(len(x))
		for _, v := range x {
			s += v*v - 10*math.Cos(2*math.Pi*v)
		}

		return s
	}

	bipop := cmaes.DefaultOptions()
	bipop.TotalEvalsBudget = 6000
	bipop.MaxEvaluations = 1000
	bipop.BIPOPRestarts = 4

	res, err := cmaes.Minimize(context.Background(), obj, unitBox(3), bipop)
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.Restarts, 1, "BIPOP schedule never restarted")

	ipop := cmaes.DefaultOptions()
	ipop.TotalEvalsBudget = 6000
	ipop.MaxEvaluations = 1000
	ipop.BIPOPRestarts = 0
	ipop.IPOPRestarts = 3
	ipop.IPOPIncreaseFactor = 2

	res, err = cmaes.Minimize(context.Background(), obj, unitBox(3), ipop)
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.Restarts, 1, "IPOP schedule never restarted")
}

// -----------------------------------------------------------------------------
// 10) Cancellation - a pre-cancelled context stops between generations.
// -----------------------------------------------------------------------------

func TestMinimize_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := cmaes.DefaultOptions()
	opts.TotalEvalsBudget = 100_000

	res, err := cmaes.Minimize(ctx, sphere(0), unitBox(5), opts)
	// Nothing was evaluated, so no finite value exists.
	require.Error(t, err)
	require.True(t, errors.Is(err, cmaes.ErrNoFiniteEvaluation))
	require.Zero(t, res.Evaluations)
}
