// Package lbfgsb - the bound-constrained quasi-Newton driver.
//
// The driver follows the classical projected-gradient L-BFGS-B outline:
// generalized Cauchy point, active-set identification, limited-memory
// subspace direction, strong Wolfe line search with box projection.
package lbfgsb

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Line-search constants (Nocedal & Wright conventions).
const (
	wolfeC1    = 1e-4 // sufficient-decrease slope fraction
	wolfeC2    = 0.9  // curvature slope fraction
	alphaMax   = 10.0 // largest step tried during bracketing
	maxBracket = 20   // bracketing iterations
	maxZoom    = 30   // zoom bisection iterations
	stepFloor  = 1e-14
)

// Minimize refines x0 over the box by bound-constrained L-BFGS with
// finite-difference gradients.
//
// Contracts:
//   - len(x0) == len(bounds), every interval lᵢ < uᵢ and finite; x0 is
//     clamped into the box before the first evaluation.
//   - obj must return a value for every point; non-finite values are treated
//     as +Inf and rejected by the line search.
//
// Returns the best (f, x) found. The error is nil on a tolerance-based stop,
// ErrMaxIterations when the cap fired first (the point is still usable),
// ErrLineSearch when no acceptable step existed (including a NaN gradient
// stencil during the search), ErrNumerical when the starting value was
// non-finite or the starting gradient stencil was NaN.
//
// Complexity per iteration: O(n) memory ops for the two-loop recursion plus
// O(n) objective evaluations for gradients.
func Minimize(
	ctx context.Context,
	x0 []float64,
	bounds [][2]float64,
	obj func([]float64) float64,
	opts Options,
) (float64, []float64, error) {
	// Stage 1 - validation.
	n := len(x0)
	if n == 0 || n != len(bounds) {
		return 0, nil, ErrDimensionMismatch
	}
	for _, b := range bounds {
		if !(b[0] < b[1]) || math.IsNaN(b[0]) || math.IsNaN(b[1]) ||
			math.IsInf(b[0], 0) || math.IsInf(b[1], 0) {
			return 0, nil, ErrBadBounds
		}
	}
	if err := opts.Validate(); err != nil {
		return 0, nil, err
	}
	resolveOptionDefaults(&opts)

	// Stage 2 - starting point.
	x := make([]float64, n)
	copy(x, x0)
	project(x, bounds)

	f := obj(x)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil, ErrNumerical
	}

	var (
		g       = make([]float64, n)
		pg      = make([]float64, n)
		scratch = make([]float64, n)
	)
	if err := gradient(obj, x, g, scratch); err != nil {
		return 0, nil, err
	}

	best := make([]float64, n)
	copy(best, x)
	bestF := f

	// Curvature-pair memory, newest last.
	var (
		ss, yy [][]float64
		rhos   []float64
	)

	var (
		iter   int
		xc     = make([]float64, n)
		active = make([]bool, n)
		d      = make([]float64, n)
		xn     = make([]float64, n)
		gn     = make([]float64, n)
	)
	for iter = 0; iter < opts.MaxIterations; iter++ {
		// Cancellation is advisory and granular to an iteration.
		select {
		case <-ctx.Done():
			return bestF, best, nil
		default:
		}

		// Stage 3 - convergence on the projected gradient.
		projGrad(x, g, bounds, pg)
		if floats.Norm(pg, math.Inf(1)) <= opts.GradTol {
			return bestF, best, nil
		}

		// Stage 4 - generalized Cauchy point and active set.
		cauchyPoint(x, g, bounds, xc, active)

		// Stage 5 - subspace direction: two-loop recursion on the free
		// coordinates; active coordinates steer straight to their bounds.
		subspaceDirection(g, active, ss, yy, rhos, d)
		var i int
		for i = 0; i < n; i++ {
			if active[i] {
				d[i] = xc[i] - x[i]
			}
		}
		if floats.Dot(d, g) >= 0 {
			// Not a descent direction (degenerate memory): fall back to the
			// projected steepest descent.
			for i = 0; i < n; i++ {
				d[i] = -pg[i]
			}
		}

		// Stage 6 - strong Wolfe line search with projection.
		fn, ok := wolfeSearch(obj, x, f, g, d, bounds, xn, gn, scratch)
		if !ok {
			return bestF, best, ErrLineSearch
		}

		// Stage 7 - curvature-pair update (skip pairs failing the
		// positive-curvature test to keep H positive definite).
		s := make([]float64, n)
		y := make([]float64, n)
		floats.SubTo(s, xn, x)
		floats.SubTo(y, gn, g)
		if sy := floats.Dot(s, y); sy > 1e-10*floats.Norm(s, 2)*floats.Norm(y, 2) {
			ss = append(ss, s)
			yy = append(yy, y)
			rhos = append(rhos, 1/sy)
			if len(ss) > opts.Memory {
				ss = ss[1:]
				yy = yy[1:]
				rhos = rhos[1:]
			}
		}

		fPrev := f
		copy(x, xn)
		copy(g, gn)
		f = fn
		if f < bestF {
			bestF = f
			copy(best, x)
		}
		if opts.Observer != nil {
			opts.Observer(x, f)
		}

		// Stage 8 - relative function-change stop.
		if math.Abs(fPrev-f) <= opts.FuncTol*math.Max(1, math.Max(math.Abs(fPrev), math.Abs(f))) {
			return bestF, best, nil
		}
	}

	return bestF, best, ErrMaxIterations
}

// resolveOptionDefaults fills zero-valued knobs.
func resolveOptionDefaults(o *Options) {
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.GradTol == 0 {
		o.GradTol = DefaultGradTol
	}
	if o.FuncTol == 0 {
		o.FuncTol = DefaultFuncTol
	}
	if o.Memory == 0 {
		o.Memory = DefaultMemory
	}
}

// project clamps x into the box in place.
func project(x []float64, bounds [][2]float64) {
	for i := range x {
		if x[i] < bounds[i][0] {
			x[i] = bounds[i][0]
		} else if x[i] > bounds[i][1] {
			x[i] = bounds[i][1]
		}
	}
}

// cauchyPoint minimizes the unit-Hessian model q(t) = gᵀz(t) + ½‖z(t)‖²
// along the projected steepest-descent path z(t) = P(x − t·g) − x and fills
// xc with the minimizer and active with the bound set identified at it.
//
// Piecewise-linear path: coordinate i travels with slope dᵢ = −gᵢ until its
// breakpoint tᵢ where it hits a bound, then freezes. Within each segment the
// model is quadratic in t, so the minimizer is found segment by segment.
func cauchyPoint(x, g []float64, bounds [][2]float64, xc []float64, active []bool) {
	n := len(x)

	var (
		dir = make([]float64, n)
		ts  = make([]float64, n)
		i   int
	)
	for i = 0; i < n; i++ {
		dir[i] = -g[i]
		switch {
		case g[i] > 0:
			ts[i] = (x[i] - bounds[i][0]) / g[i]
		case g[i] < 0:
			ts[i] = (x[i] - bounds[i][1]) / g[i]
		default:
			ts[i] = math.Inf(1)
		}
		if ts[i] <= 0 {
			// Already at the bound the gradient pushes against: frozen.
			ts[i] = 0
			dir[i] = 0
		}
	}

	// Sorted positive breakpoints delimit the path segments.
	breaks := make([]float64, 0, n)
	for i = 0; i < n; i++ {
		if ts[i] > 0 && !math.IsInf(ts[i], 1) {
			breaks = append(breaks, ts[i])
		}
	}
	sort.Float64s(breaks)

	var (
		told  float64
		tstar float64
		seg   int
		found bool
	)
	for seg = 0; seg <= len(breaks); seg++ {
		tnext := math.Inf(1)
		if seg < len(breaks) {
			tnext = breaks[seg]
		}
		if tnext <= told {
			continue // duplicate breakpoint
		}

		// Model derivatives over the coordinates still moving on (told, tnext].
		var fp, fpp float64
		for i = 0; i < n; i++ {
			if ts[i] > told {
				fp += dir[i] * g[i]
				fpp += dir[i] * dir[i]
			}
		}
		fp += told * fpp

		if fpp == 0 || fp >= 0 {
			tstar = told
			found = true

			break
		}
		if cand := told - fp/fpp; cand < tnext {
			tstar = cand
			found = true

			break
		}
		told = tnext
	}
	if !found {
		tstar = told
	}

	for i = 0; i < n; i++ {
		xc[i] = x[i] + math.Min(tstar, ts[i])*dir[i]
		active[i] = ts[i] <= tstar
	}
	project(xc, bounds)
}

// subspaceDirection fills d with −H·ḡ where ḡ is the gradient with active
// coordinates zeroed and H is the limited-memory inverse-Hessian
// approximation (two-loop recursion, newest pair last). The resulting active
// components are zeroed again so the caller may overwrite them.
func subspaceDirection(g []float64, active []bool, ss, yy [][]float64, rhos []float64, d []float64) {
	n := len(g)

	var i int
	for i = 0; i < n; i++ {
		if active[i] {
			d[i] = 0
		} else {
			d[i] = g[i]
		}
	}

	m := len(ss)
	alphas := make([]float64, m)
	for i = m - 1; i >= 0; i-- {
		alphas[i] = rhos[i] * floats.Dot(ss[i], d)
		floats.AddScaled(d, -alphas[i], yy[i])
	}

	gamma := 1.0
	if m > 0 {
		last := m - 1
		gamma = floats.Dot(ss[last], yy[last]) / floats.Dot(yy[last], yy[last])
	}
	floats.Scale(gamma, d)

	for i = 0; i < m; i++ {
		beta := rhos[i] * floats.Dot(yy[i], d)
		floats.AddScaled(d, alphas[i]-beta, ss[i])
	}

	for i = 0; i < n; i++ {
		if active[i] {
			d[i] = 0
		} else {
			d[i] = -d[i]
		}
	}
}

// wolfeSearch finds a step α along d satisfying the strong Wolfe conditions
// on φ(α) = f(P(x + α·d)), writing the accepted point into xn and its
// gradient into gn, and returning its function value. ok is false when no
// acceptable step exists (including step collapse).
func wolfeSearch(
	obj func([]float64) float64,
	x []float64,
	f0 float64,
	g []float64,
	d []float64,
	bounds [][2]float64,
	xn, gn, scratch []float64,
) (float64, bool) {
	dphi0 := floats.Dot(g, d)
	if dphi0 >= 0 {
		return 0, false
	}

	phi := func(alpha float64) float64 {
		for i := range x {
			xn[i] = x[i] + alpha*d[i]
		}
		project(xn, bounds)
		v := obj(xn)
		if math.IsNaN(v) {
			return math.Inf(1)
		}

		return v
	}
	// dphi evaluates φ'(α) at the point already held in xn.
	dphi := func() (float64, bool) {
		if err := gradient(obj, xn, gn, scratch); err != nil {
			return 0, false
		}

		return floats.Dot(gn, d), true
	}

	var (
		aPrev   = 0.0
		phiPrev = f0
		a       = 1.0
		it      int
	)
	for it = 0; it < maxBracket; it++ {
		phiA := phi(a)
		if phiA > f0+wolfeC1*a*dphi0 || (it > 0 && phiA >= phiPrev) {
			return zoom(phi, dphi, f0, dphi0, aPrev, a, phiPrev)
		}
		slope, ok := dphi()
		if !ok {
			return 0, false
		}
		if math.Abs(slope) <= -wolfeC2*dphi0 {
			return phiA, true
		}
		if slope >= 0 {
			return zoom(phi, dphi, f0, dphi0, a, aPrev, phiA)
		}
		aPrev, phiPrev = a, phiA
		a *= 2
		if a > alphaMax {
			// The projected path flattens once every coordinate is clamped;
			// accept the last point satisfying sufficient decrease.
			return phiA, true
		}
	}

	return 0, false
}

// zoom shrinks the bracket [lo, hi] by bisection until a strong Wolfe point
// is found or the interval collapses.
func zoom(
	phi func(float64) float64,
	dphi func() (float64, bool),
	f0, dphi0 float64,
	lo, hi float64,
	phiLo float64,
) (float64, bool) {
	var it int
	for it = 0; it < maxZoom; it++ {
		if math.Abs(hi-lo) < stepFloor {
			return 0, false
		}
		a := 0.5 * (lo + hi)
		phiA := phi(a)
		if phiA > f0+wolfeC1*a*dphi0 || phiA >= phiLo {
			hi = a

			continue
		}
		slope, ok := dphi()
		if !ok {
			return 0, false
		}
		if math.Abs(slope) <= -wolfeC2*dphi0 {
			return phiA, true
		}
		if slope*(hi-lo) >= 0 {
			hi = lo
		}
		lo, phiLo = a, phiA
	}

	return 0, false
}
