// Package svi - single-expiry slice evaluation and arbitrage checks.
package svi

import (
	"fmt"
	"math"
)

// Slice evaluates the SVI smile for one expiry. It is a thin, copyable view
// over a validated parameter set.
type Slice struct {
	params Params
}

// NewSlice wraps validated parameters; validation happened in NewParams.
func NewSlice(params Params) Slice {
	return Slice{params: params}
}

// Params returns the slice's parameter set.
func (s Slice) Params() Params { return s.params }

// TotalVariance evaluates w(k) = a + b·(ρ·(k−m) + √((k−m)² + σ²)) at
// log-moneyness k.
//
// Complexity: O(1).
func (s Slice) TotalVariance(k float64) float64 {
	km := k - s.params.m
	root := math.Sqrt(km*km + s.params.sigma*s.params.sigma)

	return s.params.a + s.params.b*(s.params.rho*km+root)
}

// ImpliedVol returns σ_imp(k) = √(max(w(k), ε)/t) with a tiny floor ε that
// keeps downstream computations defined when the wing variance degenerates.
//
// Complexity: O(1).
func (s Slice) ImpliedVol(k float64) float64 {
	return math.Sqrt(math.Max(s.TotalVariance(k), varianceFloor) / s.params.t)
}

// TotalVarianceAt evaluates w(k) for an externally supplied time t.
//
// The slice models exactly one expiry: t must agree with the slice's expiry
// time within five minutes (≈ 9.5e−6 years) or ErrTimeMismatch is returned.
// A non-finite k yields ErrNonFiniteMoneyness; a negative or non-finite
// variance (possible only on inadmissible parameters) is rejected.
func (s Slice) TotalVarianceAt(k, t float64) (float64, error) {
	if math.Abs(t-s.params.t) > fiveMinutesInYears {
		return 0, fmt.Errorf("svi: requested t=%g vs slice t=%g (tolerance %.3e years): %w",
			t, s.params.t, fiveMinutesInYears, ErrTimeMismatch)
	}
	if !isFinite(k) {
		return 0, fmt.Errorf("svi: k=%v: %w", k, ErrNonFiniteMoneyness)
	}

	w := s.TotalVariance(k)
	if !isFinite(w) || w < 0 {
		return 0, fmt.Errorf("svi: total variance %g invalid at k=%g: %w",
			w, k, ErrNonFiniteMoneyness)
	}

	return w, nil
}

// CheckButterflyAt verifies Gatheral's no-butterfly-arbitrage condition at
// log-moneyness k and time t:
//
//	g(k) = (1 − k·w′/(2w))² − (w′)²/4·(1/w + 1/4) + w″/2 ≥ 0
//
// with w′ and w″ from central finite differences (step 1e−5) and a −1e−9
// tolerance on the inequality. A near-zero variance (w ≤ tolerance) passes
// trivially. The time-match guard of TotalVarianceAt applies.
func (s Slice) CheckButterflyAt(k, t float64) error {
	if math.Abs(t-s.params.t) > fiveMinutesInYears {
		return fmt.Errorf("svi: butterfly check at t=%g vs slice t=%g: %w",
			t, s.params.t, ErrTimeMismatch)
	}
	if !isFinite(k) {
		return fmt.Errorf("svi: k=%v: %w", k, ErrNonFiniteMoneyness)
	}

	// Evaluate the stencil at the slice's exact time for consistency.
	w := s.TotalVariance(k)
	wp := s.TotalVariance(k - butterflyStep)
	wn := s.TotalVariance(k + butterflyStep)

	if w <= butterflyTol {
		return nil
	}

	wk := (wn - wp) / (2 * butterflyStep)
	wkk := (wn - 2*w + wp) / (butterflyStep * butterflyStep)

	term := 1 - k*wk/(2*w)
	g := term*term - (wk*wk/4)*(1/w+0.25) + wkk/2

	if g < -butterflyTol {
		return fmt.Errorf("svi: g(%.6f) = %.6e at t=%.4f: %w", k, g, t, ErrButterflyArbitrage)
	}

	return nil
}

// LogMoneyness computes k = ln(strike/spot).
func LogMoneyness(strike, spot float64) float64 {
	return math.Log(strike / spot)
}
