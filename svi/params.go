// Package svi - validated SVI parameter sets.
package svi

import (
	"fmt"
	"math"

	"github.com/katalvlaran/volfit/calibration"
)

// Params is a validated, immutable SVI parameter set for one expiry.
// Construct through NewParams; the zero value is not meaningful.
type Params struct {
	t     float64
	a     float64
	b     float64
	rho   float64
	m     float64
	sigma float64
}

// NewParams builds a parameter set, enforcing every admissibility clause:
// t > 0 and finite, a finite, b > 0, ρ ∈ (−1, 1), m finite, σ > 0, and the
// wing condition a + b·σ·√(1−ρ²) ≥ 0.
//
// Violations return an error wrapping calibration.ErrInvalidParameter that
// names the offending clause.
func NewParams(t, a, b, rho, m, sigma float64) (Params, error) {
	if err := validateParams(t, a, b, rho, m, sigma); err != nil {
		return Params{}, err
	}

	return Params{t: t, a: a, b: b, rho: rho, m: m, sigma: sigma}, nil
}

// validateParams holds the shared admissibility rules.
func validateParams(t, a, b, rho, m, sigma float64) error {
	if t <= 0 || !isFinite(t) {
		return fmt.Errorf("svi: time to expiry t=%g must be > 0 and finite: %w",
			t, calibration.ErrInvalidParameter)
	}
	// Negative a is admissible: the wing condition below still guarantees
	// non-negative total variance across strikes.
	if !isFinite(a) {
		return fmt.Errorf("svi: parameter a=%g must be finite: %w",
			a, calibration.ErrInvalidParameter)
	}
	if b <= 0 || !isFinite(b) {
		return fmt.Errorf("svi: parameter b=%g must be > 0 and finite: %w",
			b, calibration.ErrInvalidParameter)
	}
	if rho <= -1 || rho >= 1 || !isFinite(rho) {
		return fmt.Errorf("svi: parameter rho=%g must lie in (-1, 1): %w",
			rho, calibration.ErrInvalidParameter)
	}
	if !isFinite(m) {
		return fmt.Errorf("svi: parameter m=%g must be finite: %w",
			m, calibration.ErrInvalidParameter)
	}
	if sigma <= 0 || !isFinite(sigma) {
		return fmt.Errorf("svi: parameter sigma=%g must be > 0 and finite: %w",
			sigma, calibration.ErrInvalidParameter)
	}

	if wing := a + b*sigma*math.Sqrt(1-rho*rho); wing < 0 {
		return fmt.Errorf("svi: wing condition violated, a + b·σ·√(1−ρ²) = %g < 0: %w",
			wing, calibration.ErrInvalidParameter)
	}

	return nil
}

// ParamsFromVector builds Params from a calibration vector (a, b, ρ, m, σ)
// and the slice time t.
func ParamsFromVector(t float64, x []float64) (Params, error) {
	if len(x) != 5 {
		return Params{}, fmt.Errorf("svi: parameter vector length %d, want 5: %w",
			len(x), calibration.ErrInvalidParameter)
	}

	return NewParams(t, x[0], x[1], x[2], x[3], x[4])
}

// T returns the time to expiry in years.
func (p Params) T() float64 { return p.t }

// A returns the vertical shift.
func (p Params) A() float64 { return p.a }

// B returns the slope factor.
func (p Params) B() float64 { return p.b }

// Rho returns the asymmetry parameter.
func (p Params) Rho() float64 { return p.rho }

// M returns the horizontal shift.
func (p Params) M() float64 { return p.m }

// Sigma returns the curvature parameter.
func (p Params) Sigma() float64 { return p.sigma }

// Vector returns the calibration-vector form (a, b, ρ, m, σ).
func (p Params) Vector() []float64 {
	return []float64{p.a, p.b, p.rho, p.m, p.sigma}
}

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
