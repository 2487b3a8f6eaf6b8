// Package lbfgsb - configuration options and sentinel errors.
package lbfgsb

import "errors"

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Sentinel errors
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

var (
	// ErrBadBounds indicates an inverted or non-finite bound interval.
	ErrBadBounds = errors.New("lbfgsb: invalid bound interval")

	// ErrDimensionMismatch indicates len(x0) ≠ len(bounds).
	ErrDimensionMismatch = errors.New("lbfgsb: dimension mismatch")

	// ErrBadOptions indicates an invalid option combination.
	ErrBadOptions = errors.New("lbfgsb: invalid options")

	// ErrLineSearch indicates the Wolfe search could not find an acceptable
	// step (the step collapsed or the interval was exhausted).
	ErrLineSearch = errors.New("lbfgsb: line search failed")

	// ErrMaxIterations indicates the iteration cap was reached before the
	// gradient or function tolerances. The best point found is still
	// returned alongside this error.
	ErrMaxIterations = errors.New("lbfgsb: maximum iterations reached")

	// ErrNumerical indicates a non-finite function value where a finite one
	// is required (at the starting point or inside its gradient stencil).
	ErrNumerical = errors.New("lbfgsb: non-finite function value")
)

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Options & defaults
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

// Default knobs.
const (
	// DefaultMaxIterations caps the outer quasi-Newton iterations.
	DefaultMaxIterations = 200

	// DefaultGradTol is the ∞-norm threshold on the projected gradient.
	DefaultGradTol = 1e-6

	// DefaultFuncTol is the relative function-change threshold.
	DefaultFuncTol = 1e-10

	// DefaultMemory is the number of curvature pairs kept.
	DefaultMemory = 6
)

// Observer receives the accepted point after every iteration. It must not
// retain or mutate x.
type Observer func(x []float64, f float64)

// Options configures the refiner. Zero value is not meaningful; use
// DefaultOptions() and override fields as needed.
type Options struct {
	// MaxIterations caps outer iterations. Zero selects the default.
	MaxIterations int

	// GradTol is the convergence threshold on ‖P∇f‖∞. Zero selects the
	// default.
	GradTol float64

	// FuncTol declares convergence when |f_k − f_{k+1}| ≤ FuncTol·max(1, |f|).
	// Zero selects the default.
	FuncTol float64

	// Memory is the number of (s, y) curvature pairs retained. Zero selects
	// the default.
	Memory int

	// Observer, when non-nil, is invoked with each accepted iterate.
	Observer Observer
}

// DefaultOptions returns safe defaults for low-dimensional refinement.
func DefaultOptions() Options {
	return Options{
		MaxIterations: DefaultMaxIterations,
		GradTol:       DefaultGradTol,
		FuncTol:       DefaultFuncTol,
		Memory:        DefaultMemory,
	}
}

// Validate checks the option combination.
func (o *Options) Validate() error {
	if o.MaxIterations < 0 || o.Memory < 0 {
		return ErrBadOptions
	}
	if o.GradTol < 0 || o.FuncTol < 0 {
		return ErrBadOptions
	}

	return nil
}
