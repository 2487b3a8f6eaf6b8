// Package cmaes - unified entry point and restart driver.
//
// Minimize validates the problem, resolves defaults, builds the restart
// schedule (base run plus IPOP or BIPOP restarts), routes each run's budget
// from the appropriate pool, and returns the best pair ever observed.
package cmaes

import (
	"context"
	"math"
)

// regime tags which BIPOP budget pool a restart draws from.
type regime uint8

const (
	regimeBase regime = iota
	regimeLarge
	regimeSmall
)

// runSpec is one scheduled run: its population, regime, and restart index
// (the index seeds the run's RNG substream).
type runSpec struct {
	idx    int
	pop    int
	regime regime
}

// evalPool is a regime's evaluation budget pool.
type evalPool struct {
	limited bool
	initial int
	left    int
	runs    int // scheduled runs drawing from this pool
	started int // runs that already drew a share
}

// newEvalPool builds a pool holding ⌊total·factor⌋ evaluations; a
// non-positive total makes the pool unlimited.
func newEvalPool(total int, factor float64, runs int) evalPool {
	if total <= 0 {
		return evalPool{runs: runs}
	}
	size := int(float64(total) * factor)

	return evalPool{limited: true, initial: size, left: size, runs: runs}
}

// share returns the evaluation allowance for the pool's next run and whether
// the pool is limited. With sub-run budgeting the allowance is an equal split
// of the pool's remainder over its remaining runs; otherwise it is a fixed
// fraction of the pool's initial size, capped by the remainder.
func (p *evalPool) share(subrun bool) (int, bool) {
	defer func() { p.started++ }()
	if !p.limited {
		return 0, false
	}

	var s int
	if subrun {
		if rem := p.runs - p.started; rem > 0 {
			s = p.left / rem
		}
	} else if p.runs > 0 {
		s = p.initial / p.runs
		if s > p.left {
			s = p.left
		}
	}

	return s, true
}

// drain subtracts a run's consumption from the pool.
func (p *evalPool) drain(consumed int) {
	if p.limited {
		p.left = atLeast(p.left-consumed, 0)
	}
}

// Minimize searches the box for the minimum of obj.
//
// Contracts:
//   - bounds must be non-empty with lᵢ < uᵢ and finite edges.
//   - obj must be a pure function of its argument; with ParallelEval it is
//     invoked concurrently for distinct candidates.
//   - The same Seed, bounds, options and objective reproduce the same Result
//     on the same platform.
//
// Errors: ErrNoBounds, ErrInvertedBound, ErrBadOptions, ErrDimensionMismatch
// for structural problems; ErrNoFiniteEvaluation when no candidate ever
// produced a finite value. Optimizer non-convergence is not an error: the
// best finite pair observed is returned.
func Minimize(
	ctx context.Context,
	obj func([]float64) float64,
	bounds [][2]float64,
	opts Options,
) (Result, error) {
	// Stage 1 - structural validation.
	n := len(bounds)
	if n == 0 {
		return Result{}, ErrNoBounds
	}
	for _, b := range bounds {
		if !(b[0] < b[1]) || math.IsInf(b[0], 0) || math.IsInf(b[1], 0) ||
			math.IsNaN(b[0]) || math.IsNaN(b[1]) {
			return Result{}, ErrInvertedBound
		}
	}
	if err := opts.Validate(n); err != nil {
		return Result{}, err
	}
	resolveDefaults(&opts, n)

	// Stage 2 - restart schedule and regime budget pools.
	specs := buildSchedule(&opts)

	var (
		bud       = budget{total: opts.TotalEvalsBudget}
		poolLarge = newEvalPool(opts.TotalEvalsBudget, opts.BIPOPLargeBudgetFactor, countRegime(specs, regimeLarge))
		poolSmall = newEvalPool(opts.TotalEvalsBudget, opts.BIPOPSmallBudgetFactor, countRegime(specs, regimeSmall))
	)

	inc := incumbent{f: math.Inf(1)}

	// Stage 3 - run loop. Each run draws its allowance, executes, and drains
	// its pool; the shared counter bounds everything.
	var restarts int
	for _, spec := range specs {
		if ctx.Err() != nil {
			break
		}
		if bud.remaining() < spec.pop {
			break
		}

		local := opts.MaxEvaluations
		switch spec.regime {
		case regimeLarge:
			s, limited := poolLarge.share(opts.UseSubrunBudgeting)
			if limited && s < spec.pop {
				continue // pool too depleted to fund even one generation
			}
			local = tighten(local, s)
		case regimeSmall:
			s, limited := poolSmall.share(opts.UseSubrunBudgeting)
			if limited && s < spec.pop {
				continue
			}
			local = tighten(local, s)
		case regimeBase:
			// Base run draws directly from the global budget.
		}

		rc := runConfig{
			pop:         spec.pop,
			maxGen:      opts.MaxGenerations,
			localBudget: local,
			rng:         restartRNG(opts.Seed, spec.idx),
		}
		if spec.idx == 0 {
			rc.mean0 = opts.InitialMean
		}

		before := bud.used
		reason := runOnce(ctx, obj, bounds, rc, &opts, &bud, &inc)
		consumed := bud.used - before
		switch spec.regime {
		case regimeLarge:
			poolLarge.drain(consumed)
		case regimeSmall:
			poolSmall.drain(consumed)
		case regimeBase:
		}

		if spec.idx > 0 {
			restarts++
		}
		if opts.Verbosity >= Minimal {
			opts.Logger.Info().
				Int("run", spec.idx).
				Int("population", spec.pop).
				Str("stop", reason.String()).
				Float64("best", inc.f).
				Int("evals", bud.used).
				Msg("cmaes run finished")
		}
		if reason == stopCancelled {
			break
		}
	}

	// Stage 4 - result assembly.
	if math.IsInf(inc.f, 1) {
		return Result{Evaluations: bud.used, Restarts: restarts}, ErrNoFiniteEvaluation
	}

	return Result{F: inc.f, X: inc.x, Evaluations: bud.used, Restarts: restarts}, nil
}

// resolveDefaults fills zero-valued knobs with their documented defaults.
func resolveDefaults(o *Options, n int) {
	if o.PopulationSize == 0 {
		o.PopulationSize = 4 + int(3*math.Log(float64(n)))
	}
	if o.Sigma0 == 0 {
		o.Sigma0 = DefaultSigma0
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.StagnationLimit == 0 {
		o.StagnationLimit = DefaultStagnationLimit
	}
	if o.MinSigma == 0 {
		o.MinSigma = DefaultMinSigma
	}
	if o.EigPrecisionThreshold == 0 {
		o.EigPrecisionThreshold = DefaultEigPrecisionThreshold
	}
	if o.MinEigValue == 0 {
		o.MinEigValue = DefaultMinEigValue
	}
	if o.MatrixOpThreshold == 0 {
		o.MatrixOpThreshold = DefaultMatrixOpThreshold
	}
	if o.IPOPIncreaseFactor == 0 {
		o.IPOPIncreaseFactor = 2.0
	}
	if o.BIPOPSmallPopulationFactor == 0 {
		o.BIPOPSmallPopulationFactor = 0.5
	}
	if o.BIPOPLargePopIncreaseFactor == 0 {
		o.BIPOPLargePopIncreaseFactor = 2.0
	}
	if o.BIPOPSmallBudgetFactor == 0 {
		o.BIPOPSmallBudgetFactor = 0.5
	}
	if o.BIPOPLargeBudgetFactor == 0 {
		o.BIPOPLargeBudgetFactor = 1.0
	}
}

// buildSchedule lays out the base run and the configured restarts.
// BIPOP takes precedence over IPOP when both are configured: the regime
// alternates starting with the large one, the large population grows by
// BIPOPLargePopIncreaseFactor on each large restart, and the small population
// is the base scaled by BIPOPSmallPopulationFactor.
func buildSchedule(o *Options) []runSpec {
	base := o.PopulationSize
	specs := []runSpec{{idx: 0, pop: base, regime: regimeBase}}

	switch {
	case o.BIPOPRestarts > 0:
		var (
			largePop = base
			r        int
		)
		for r = 1; r <= o.BIPOPRestarts; r++ {
			if r%2 == 1 {
				largePop = atLeast(int(math.Round(float64(largePop)*o.BIPOPLargePopIncreaseFactor)), 2)
				specs = append(specs, runSpec{idx: r, pop: largePop, regime: regimeLarge})
			} else {
				smallPop := atLeast(int(math.Round(float64(base)*o.BIPOPSmallPopulationFactor)), 2)
				specs = append(specs, runSpec{idx: r, pop: smallPop, regime: regimeSmall})
			}
		}

	case o.IPOPRestarts > 0:
		var (
			pop = base
			r   int
		)
		for r = 1; r <= o.IPOPRestarts; r++ {
			pop = atLeast(int(math.Round(float64(pop)*o.IPOPIncreaseFactor)), 2)
			specs = append(specs, runSpec{idx: r, pop: pop, regime: regimeBase})
		}
	}

	return specs
}

// countRegime counts scheduled runs of one regime.
func countRegime(specs []runSpec, reg regime) int {
	var c int
	for _, s := range specs {
		if s.regime == reg {
			c++
		}
	}

	return c
}

// tighten combines a run cap with a pool allowance: zero means unlimited.
func tighten(runCap, share int) int {
	switch {
	case runCap == 0:
		return share
	case share == 0:
		return runCap
	case share < runCap:
		return share
	default:
		return runCap
	}
}

// atLeast clamps v from below.
func atLeast(v, lo int) int {
	if v < lo {
		return lo
	}

	return v
}
