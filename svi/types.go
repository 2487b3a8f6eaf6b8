// Package svi - parameter bounds, model knobs, and sentinel errors.
package svi

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/volfit/calibration"
)

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Sentinel errors
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

var (
	// ErrTimeMismatch indicates a variance query whose time differs from the
	// slice's expiry time by more than the five-minute tolerance.
	ErrTimeMismatch = errors.New("svi: requested time too far from slice expiry")

	// ErrNonFiniteMoneyness indicates a NaN or infinite log-moneyness input.
	ErrNonFiniteMoneyness = errors.New("svi: log-moneyness must be finite")

	// ErrButterflyArbitrage indicates Gatheral's g(k) condition is violated:
	// the smile admits static arbitrage via butterfly spreads at that strike.
	ErrButterflyArbitrage = errors.New("svi: butterfly arbitrage detected")
)

// Model constants.
const (
	// fiveMinutesInYears is the tolerance of the slice time-match guard.
	fiveMinutesInYears = 5.0 / (60.0 * 24.0 * 365.0)

	// varianceFloor keeps implied volatility defined when total variance
	// degenerates to zero.
	varianceFloor = 1e-12

	// butterflyStep is the central-difference step for the g(k) check.
	butterflyStep = 1e-5

	// butterflyTol is the tolerance on g(k) ≥ −butterflyTol.
	butterflyTol = 1e-9
)

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Parameter bounds
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

// Interval is a closed bound interval [lower, upper].
type Interval [2]float64

// ParamBounds holds one interval per SVI parameter, in calibration-vector
// order (a, b, ρ, m, σ).
type ParamBounds struct {
	A     Interval
	B     Interval
	Rho   Interval
	M     Interval
	Sigma Interval
}

// DefaultParamBounds returns the domain priors used when no custom bounds
// are supplied. The ρ interval is restricted to the negative side, matching
// the persistent skew of the crypto and equity-index slices the defaults
// were tuned on.
func DefaultParamBounds() ParamBounds {
	return ParamBounds{
		A:     Interval{-0.5, 0.5},
		B:     Interval{0.01, 2.0},
		Rho:   Interval{-0.99, -0.01},
		M:     Interval{-1.0, 1.0},
		Sigma: Interval{0.01, 2.0},
	}
}

// BoundsFromSlice rebuilds ParamBounds from a five-interval slice in vector
// order; any other arity falls back to the defaults.
func BoundsFromSlice(bounds [][2]float64) ParamBounds {
	if len(bounds) != 5 {
		return DefaultParamBounds()
	}

	return ParamBounds{
		A:     bounds[0],
		B:     bounds[1],
		Rho:   bounds[2],
		M:     bounds[3],
		Sigma: bounds[4],
	}
}

// ToSlice flattens the bounds into calibration-vector order.
func (pb ParamBounds) ToSlice() [][2]float64 {
	return [][2]float64{pb.A, pb.B, pb.Rho, pb.M, pb.Sigma}
}

// Validate checks every interval for lower < upper.
func (pb ParamBounds) Validate() error {
	for i, iv := range pb.ToSlice() {
		if !(iv[0] < iv[1]) {
			return fmt.Errorf("svi: bound interval %d inverted [%g, %g]: %w",
				i, iv[0], iv[1], calibration.ErrInvalidInput)
		}
	}

	return nil
}

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Model knobs
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

// ModelParams tunes the calibrator's objective without touching the model
// itself.
type ModelParams struct {
	// ATMBoostFactor is the exponential weight multiplier for near-the-money
	// quotes: a point at log-moneyness k weighs exp(−ATMBoostFactor·|k|).
	// Higher values concentrate the fit around ATM.
	ATMBoostFactor float64

	// UseVegaWeighting multiplies each point's weight by max(vega, 1),
	// recovering dollar-error fidelity when vegas vary materially across
	// strikes. When false every strike contributes equally (after the ATM
	// weighting).
	UseVegaWeighting bool
}

// DefaultModelParams returns the standard objective weighting: strong ATM
// emphasis with vega weighting enabled.
func DefaultModelParams() ModelParams {
	return ModelParams{
		ATMBoostFactor:   25.0,
		UseVegaWeighting: true,
	}
}

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Calibration parameters
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

// DefaultRegLambda is the temporal-regularization strength applied when a
// warm start is supplied without an explicit RegLambda.
const DefaultRegLambda = 1e-2

// CalibrationParams bundles the optional per-calibration settings.
type CalibrationParams struct {
	// Bounds overrides the default parameter bounds when non-nil.
	Bounds *ParamBounds

	// Model overrides the default objective knobs when non-nil.
	Model *ModelParams

	// RegLambda sets the L2 anchor strength toward the warm start. Nil means
	// DefaultRegLambda when an initial guess is provided and 0 otherwise.
	RegLambda *float64
}
