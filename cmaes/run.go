// Package cmaes - a single CMA-ES run: sampling, ranking, and the canonical
// rank-μ plus rank-one state update, with numerical safeguards that convert
// degenerate states into restart signals instead of errors.
package cmaes

import (
	"context"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// stopReason records why a single run terminated.
type stopReason uint8

const (
	stopNone stopReason = iota

	// stopSigmaFloor: step size collapsed below MinSigma.
	stopSigmaFloor

	// stopStagnation: best value unchanged for StagnationLimit generations.
	stopStagnation

	// stopConditioning: cond(C) exceeded 1/EigPrecisionThreshold.
	stopConditioning

	// stopEigenFloor: smallest covariance eigenvalue below MinEigValue.
	stopEigenFloor

	// stopMatrixBlowup: some |C_ij| exceeded MatrixOpThreshold.
	stopMatrixBlowup

	// stopEigenFailure: the eigendecomposition itself failed to converge.
	stopEigenFailure

	// stopBudget: local or global evaluation budget exhausted.
	stopBudget

	// stopGenerations: MaxGenerations reached.
	stopGenerations

	// stopCancelled: cooperative cancellation observed between generations.
	stopCancelled
)

// String implements fmt.Stringer for logging.
func (r stopReason) String() string {
	switch r {
	case stopSigmaFloor:
		return "sigma-floor"
	case stopStagnation:
		return "stagnation"
	case stopConditioning:
		return "ill-conditioned"
	case stopEigenFloor:
		return "eigenvalue-floor"
	case stopMatrixBlowup:
		return "matrix-blowup"
	case stopEigenFailure:
		return "eigen-failure"
	case stopBudget:
		return "budget"
	case stopGenerations:
		return "generations"
	case stopCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// budget is the evaluation counter shared by every run of one Minimize call.
type budget struct {
	total int // 0 = unlimited
	used  int
}

// remaining reports how many evaluations are still available globally.
func (b *budget) remaining() int {
	if b.total <= 0 {
		return math.MaxInt
	}

	return b.total - b.used
}

// incumbent is the best (f, x) pair ever observed across all runs.
type incumbent struct {
	f float64
	x []float64
}

// observe folds a candidate into the incumbent.
func (inc *incumbent) observe(f float64, x []float64) {
	if f < inc.f {
		inc.f = f
		if inc.x == nil {
			inc.x = make([]float64, len(x))
		}
		copy(inc.x, x)
	}
}

// runConfig carries the per-run knobs resolved by the restart driver.
type runConfig struct {
	pop         int       // λ for this run
	maxGen      int       // 0 = unlimited
	localBudget int       // evaluations this run may consume; 0 = unlimited
	mean0       []float64 // nil → box center
	rng         *rand.Rand
}

// strategy holds the fixed CMA-ES learning parameters for (n, λ).
// Values follow Hansen's tutorial (arXiv:1604.00772).
type strategy struct {
	mu      int
	weights []float64
	muEff   float64
	cc      float64
	cs      float64
	c1      float64
	cmu     float64
	ds      float64
	eChi    float64
}

// newStrategy derives the learning parameters for dimension n and
// population λ.
func newStrategy(n, lambda int) strategy {
	var st strategy
	st.mu = lambda / 2
	st.weights = make([]float64, st.mu)

	var i int
	for i = 0; i < st.mu; i++ {
		st.weights[i] = math.Log(float64(st.mu)+0.5) - math.Log(float64(i)+1)
	}
	floats.Scale(1/floats.Sum(st.weights), st.weights)

	for _, w := range st.weights {
		st.muEff += w * w
	}
	st.muEff = 1 / st.muEff

	fn := float64(n)
	st.cc = (4 + st.muEff/fn) / (fn + 4 + 2*st.muEff/fn)
	st.cs = (st.muEff + 2) / (fn + st.muEff + 5)
	st.c1 = 2 / ((fn+1.3)*(fn+1.3) + st.muEff)
	st.cmu = math.Min(1-st.c1, 2*(st.muEff-2+1/st.muEff)/((fn+2)*(fn+2)+st.muEff))
	st.ds = 1 + 2*math.Max(0, math.Sqrt((st.muEff-1)/(fn+1))-1) + st.cs
	st.eChi = math.Sqrt(fn) * (1 - 1/(4*fn) + 1/(21*fn*fn))

	return st
}

// runOnce executes one CMA-ES run until a termination trigger fires.
// It folds every finite candidate into inc and returns the trigger.
//
// The distribution state (mean, sigma, C, evolution paths) is owned by this
// function and mutated only between generation barriers; the objective sees
// immutable candidate copies.
func runOnce(
	ctx context.Context,
	obj func([]float64) float64,
	bounds [][2]float64,
	rc runConfig,
	opts *Options,
	bud *budget,
	inc *incumbent,
) stopReason {
	n := len(bounds)

	// 1) Initial distribution: mean at box center (or warm start), isotropic
	//    step sized from the average bound range, per-coordinate ranges
	//    encoded on the covariance diagonal so that the effective initial
	//    standard deviation of coordinate i is Sigma0·(uᵢ−lᵢ).
	var (
		ranges    = make([]float64, n)
		meanRange float64
		i, j      int
	)
	for i = 0; i < n; i++ {
		ranges[i] = bounds[i][1] - bounds[i][0]
		meanRange += ranges[i]
	}
	meanRange /= float64(n)

	mean := make([]float64, n)
	if rc.mean0 != nil {
		copy(mean, rc.mean0)
		clampInto(mean, bounds)
	} else {
		for i = 0; i < n; i++ {
			mean[i] = bounds[i][0] + 0.5*ranges[i]
		}
	}

	sigma := opts.Sigma0 * meanRange
	cov := mat.NewSymDense(n, nil)
	for i = 0; i < n; i++ {
		ratio := ranges[i] / meanRange
		cov.SetSym(i, i, ratio*ratio)
	}

	st := newStrategy(n, rc.pop)
	ps := make([]float64, n)
	pc := make([]float64, n)

	// Scratch buffers reused across generations.
	var (
		xs       = make([][]float64, rc.pop)
		ys       = make([][]float64, rc.pop)
		fs       = make([]float64, rc.pop)
		order    = make([]int, rc.pop)
		z        = make([]float64, n)
		meanOld  = make([]float64, n)
		meanDiff = make([]float64, n)
		tmp      = make([]float64, n)
	)
	for i = 0; i < rc.pop; i++ {
		xs[i] = make([]float64, n)
		ys[i] = make([]float64, n)
	}

	var (
		gen        int
		localUsed  int
		runBest    = math.Inf(1)
		stagnant   int
		eig        mat.EigenSym
		vecs       mat.Dense
		eigvals    []float64
		sqrtD      = make([]float64, n)
		condBound  = 1 / opts.EigPrecisionThreshold
		normalGate = opts.Verbosity >= Normal
	)

	for {
		// 2) Cooperative cancellation: the generation boundary is the
		//    cancellation granularity.
		select {
		case <-ctx.Done():
			return stopCancelled
		default:
		}

		// 3) Generation cap.
		if rc.maxGen > 0 && gen >= rc.maxGen {
			return stopGenerations
		}

		// 4) Budget gate: a full population must fit in what remains.
		rem := bud.remaining()
		if rc.localBudget > 0 && rc.localBudget-localUsed < rem {
			rem = rc.localBudget - localUsed
		}
		if rem < rc.pop {
			return stopBudget
		}

		// 5) Eigendecomposition C = B·D²·Bᵀ and conditioning safeguards.
		if ok := eig.Factorize(cov, true); !ok {
			return stopEigenFailure
		}
		eigvals = eig.Values(eigvals)
		eig.VectorsTo(&vecs)

		minEig, maxEig := eigvals[0], eigvals[0]
		for _, v := range eigvals {
			minEig = math.Min(minEig, v)
			maxEig = math.Max(maxEig, v)
		}
		if minEig < opts.MinEigValue {
			return stopEigenFloor
		}
		if maxEig/minEig > condBound {
			return stopConditioning
		}
		for i = 0; i < n; i++ {
			sqrtD[i] = math.Sqrt(eigvals[i])
			for j = i; j < n; j++ {
				if math.Abs(cov.At(i, j)) > opts.MatrixOpThreshold {
					return stopMatrixBlowup
				}
			}
		}

		// 6) Sample λ candidates xₖ = μ + σ·B·D·zₖ, clamped into the box.
		var k int
		for k = 0; k < rc.pop; k++ {
			for i = 0; i < n; i++ {
				z[i] = rc.rng.NormFloat64() * sqrtD[i]
			}
			y := ys[k]
			for i = 0; i < n; i++ {
				var acc float64
				for j = 0; j < n; j++ {
					acc += vecs.At(i, j) * z[j]
				}
				y[i] = acc
			}
			x := xs[k]
			for i = 0; i < n; i++ {
				x[i] = mean[i] + sigma*y[i]
			}
			clampInto(x, bounds)
			// Keep y consistent with the clamped sample so the covariance
			// update learns the box-projected geometry.
			for i = 0; i < n; i++ {
				y[i] = (x[i] - mean[i]) / sigma
			}
		}

		// 7) Evaluate the population; the generation boundary is a barrier.
		evaluatePopulation(ctx, obj, xs, fs, opts.ParallelEval)
		bud.used += rc.pop
		localUsed += rc.pop

		// 8) Rank (stable, for determinism under ties) and fold the best.
		for i = 0; i < rc.pop; i++ {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return fs[order[a]] < fs[order[b]] })

		genBest := fs[order[0]]
		inc.observe(genBest, xs[order[0]])
		if genBest < runBest {
			runBest = genBest
			stagnant = 0
		} else {
			stagnant++
		}

		if normalGate {
			opts.Logger.Debug().
				Int("generation", gen).
				Float64("best", runBest).
				Float64("sigma", sigma).
				Int("evals", bud.used).
				Msg("cmaes generation")
		}

		// 9) Mean update μ ← Σ wⱼ·x₍ⱼ₎.
		copy(meanOld, mean)
		for i = 0; i < n; i++ {
			mean[i] = 0
		}
		for i = 0; i < st.mu; i++ {
			floats.AddScaled(mean, st.weights[i], xs[order[i]])
		}
		floats.SubTo(meanDiff, mean, meanOld)

		// 10) Step-size path: p_σ ← (1−c_σ)p_σ + √(c_σ(2−c_σ)μ_eff)·C^{−1/2}·Δμ/σ.
		applyInvSqrt(&vecs, sqrtD, meanDiff, tmp)
		sPs := math.Sqrt(st.cs*(2-st.cs)*st.muEff) / sigma
		floats.Scale(1-st.cs, ps)
		floats.AddScaled(ps, sPs, tmp)

		normPs := floats.Norm(ps, 2)
		hsig := 0.0
		expect := math.Sqrt(1 - math.Pow(1-st.cs, 2*float64(gen+1)))
		if normPs/expect < (1.4+2/(float64(n)+1))*st.eChi {
			hsig = 1
		}

		// 11) Covariance path: p_c ← (1−c_c)p_c + h_σ·√(c_c(2−c_c)μ_eff)·Δμ/σ.
		sPc := hsig * math.Sqrt(st.cc*(2-st.cc)*st.muEff) / sigma
		floats.Scale(1-st.cc, pc)
		floats.AddScaled(pc, sPc, meanDiff)

		// 12) Covariance update: rank-one on p_c plus rank-μ on the selected
		//     steps, with the h_σ correction on the decay term.
		decay := 1 - st.c1 - st.cmu + st.c1*(1-hsig)*st.cc*(2-st.cc)
		for i = 0; i < n; i++ {
			for j = i; j < n; j++ {
				v := decay*cov.At(i, j) + st.c1*pc[i]*pc[j]
				var rankMu float64
				for k = 0; k < st.mu; k++ {
					y := ys[order[k]]
					rankMu += st.weights[k] * y[i] * y[j]
				}
				cov.SetSym(i, j, v+st.cmu*rankMu)
			}
		}

		// 13) Cumulative step-size adaptation.
		sigma *= math.Exp((st.cs / st.ds) * (normPs/st.eChi - 1))

		// 14) Run-level restart triggers.
		if sigma < opts.MinSigma {
			return stopSigmaFloor
		}
		if opts.StagnationLimit > 0 && stagnant >= opts.StagnationLimit {
			return stopStagnation
		}

		gen++
	}
}

// evaluatePopulation scores every candidate, optionally on a worker pool.
// Each value lands in its own slot, so parallelism cannot perturb ranking.
// Non-finite objective values are demoted to +Inf so they rank last.
func evaluatePopulation(
	ctx context.Context,
	obj func([]float64) float64,
	xs [][]float64,
	fs []float64,
	parallel bool,
) {
	if !parallel {
		for i := range xs {
			fs[i] = safeEval(obj, xs[i])
		}

		return
	}

	g, _ := errgroup.WithContext(ctx)
	for i := range xs {
		g.Go(func() error {
			fs[i] = safeEval(obj, xs[i])

			return nil
		})
	}
	// Workers never return errors; Wait is the generation barrier.
	_ = g.Wait()
}

// safeEval evaluates obj and demotes NaN/±Inf to +Inf.
func safeEval(obj func([]float64) float64, x []float64) float64 {
	v := obj(x)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.Inf(1)
	}

	return v
}

// clampInto projects x into the box by coordinate clipping.
func clampInto(x []float64, bounds [][2]float64) {
	for i := range x {
		if x[i] < bounds[i][0] {
			x[i] = bounds[i][0]
		} else if x[i] > bounds[i][1] {
			x[i] = bounds[i][1]
		}
	}
}

// applyInvSqrt computes out = C^{−1/2}·v = B·D^{−1}·Bᵀ·v given the
// eigenvectors B and the square roots of the eigenvalues.
func applyInvSqrt(vecs *mat.Dense, sqrtD, v, out []float64) {
	n := len(v)

	var (
		i, j int
		proj = make([]float64, n)
	)
	// proj = D^{−1}·Bᵀ·v
	for i = 0; i < n; i++ {
		var acc float64
		for j = 0; j < n; j++ {
			acc += vecs.At(j, i) * v[j]
		}
		proj[i] = acc / sqrtD[i]
	}
	// out = B·proj
	for i = 0; i < n; i++ {
		var acc float64
		for j = 0; j < n; j++ {
			acc += vecs.At(i, j) * proj[j]
		}
		out[i] = acc
	}
}
