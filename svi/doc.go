// Package svi implements the Stochastic Volatility Inspired (SVI) model for
// a single-expiry implied-volatility smile, plus the calibrator that fits it
// to market quotes.
//
// The raw SVI parameterization expresses total variance as a function of
// log-moneyness k:
//
//	w(k) = a + b·(ρ·(k−m) + √((k−m)² + σ²))
//
// with five parameters per expiry:
//
//	a — vertical shift (ATM variance level)
//	b — slope factor (overall variance level), b > 0
//	ρ — asymmetry (skew), ρ ∈ (−1, 1)
//	m — horizontal shift (smile center)
//	σ — curvature, σ > 0
//
// Admissibility additionally requires the wing condition
// a + b·σ·√(1−ρ²) ≥ 0, which keeps total variance non-negative as |k|→∞.
// Parameters are built only through the validating factory NewParams and are
// immutable afterwards.
//
// Calibrator implements calibration.ModelCalibrator: a vega- and
// ATM-weighted root-mean-squared error in total-variance space, with an
// optional L2 anchor toward a previous solution for temporal stability.
// Calibrate, EvaluateObjective and PriceWithSurface are the package-level
// entry points that wire the calibrator into the generic pipeline.
package svi
