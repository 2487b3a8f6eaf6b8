// Package cmaes - configuration options, result types, and sentinel errors.
package cmaes

import (
	"errors"

	"github.com/rs/zerolog"
)

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Sentinel errors (validation, governance)
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

var (
	// ErrNoBounds indicates an empty bounds slice; the search box defines the
	// problem dimension, so it must be present.
	ErrNoBounds = errors.New("cmaes: bounds must be non-empty")

	// ErrInvertedBound indicates some interval with lower ≥ upper.
	ErrInvertedBound = errors.New("cmaes: inverted bound interval")

	// ErrDimensionMismatch indicates InitialMean length ≠ len(bounds).
	ErrDimensionMismatch = errors.New("cmaes: dimension mismatch")

	// ErrBadOptions indicates an invalid option combination (negative factors,
	// population below 2, negative sigma0).
	ErrBadOptions = errors.New("cmaes: invalid options")

	// ErrNoFiniteEvaluation is returned when every restart exhausted without a
	// single finite objective value — a pathological objective, not a
	// non-converging one.
	ErrNoFiniteEvaluation = errors.New("cmaes: no finite objective evaluation observed")
)

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Verbosity
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

// Verbosity selects how much progress reporting the optimizer emits.
type Verbosity uint8

const (
	// Silent emits nothing. The default for library use.
	Silent Verbosity = iota

	// Minimal reports run boundaries: restarts, final best, termination reason.
	Minimal

	// Normal additionally reports per-generation progress.
	Normal
)

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Options & defaults
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

// Default knobs.
const (
	// DefaultSeed is the fixed seed used when Options.Seed is zero, keeping
	// default runs reproducible.
	DefaultSeed uint64 = 123456

	// DefaultSigma0 is the initial step size as a fraction of each bound range.
	DefaultSigma0 = 0.3

	// DefaultStagnationLimit is the number of generations without best-value
	// improvement that triggers a restart.
	DefaultStagnationLimit = 40

	// DefaultMinSigma is the step-size floor below which a run restarts.
	DefaultMinSigma = 1e-12

	// DefaultEigPrecisionThreshold bounds covariance conditioning: a run
	// restarts when cond(C) exceeds 1/DefaultEigPrecisionThreshold.
	DefaultEigPrecisionThreshold = 1e-14

	// DefaultMinEigValue is the smallest admissible covariance eigenvalue.
	DefaultMinEigValue = 1e-30

	// DefaultMatrixOpThreshold caps the magnitude of covariance entries; a run
	// restarts when any |C_ij| exceeds it.
	DefaultMatrixOpThreshold = 1e12
)

// Options configures the optimizer. Zero value is not meaningful; start from
// DefaultOptions() and override fields as needed.
type Options struct {
	// PopulationSize is λ, the number of candidates sampled per generation.
	// Zero selects the canonical default 4 + ⌊3·ln n⌋.
	PopulationSize int

	// MaxGenerations caps generations per run. Zero means unlimited (budget
	// counters then govern termination).
	MaxGenerations int

	// MaxEvaluations caps objective evaluations per run. Zero means unlimited.
	MaxEvaluations int

	// TotalEvalsBudget caps objective evaluations across all restarts; the
	// evaluation counter is shared. Zero means unlimited.
	TotalEvalsBudget int

	// Sigma0 is the initial coordinate-wise step size expressed as a fraction
	// of the bound range. Zero selects DefaultSigma0.
	Sigma0 float64

	// Seed drives the Gaussian sampler deterministically. Zero selects
	// DefaultSeed.
	Seed uint64

	// ParallelEval allows the λ objective evaluations of one generation to run
	// concurrently. The objective must be a pure function of its inputs.
	ParallelEval bool

	// InitialMean, when non-nil, centers the first run's distribution on it
	// instead of the box center ("mini" warm-started search). Restarts always
	// re-center on the box center.
	InitialMean []float64

	// IPOPRestarts is the number of IPOP restarts (0 disables IPOP).
	IPOPRestarts int

	// IPOPIncreaseFactor scales the population on each IPOP restart.
	IPOPIncreaseFactor float64

	// BIPOPRestarts is the number of BIPOP restarts (0 disables BIPOP).
	// When both are configured, BIPOP takes precedence.
	BIPOPRestarts int

	// BIPOPSmallPopulationFactor scales the base population in the small
	// regime.
	BIPOPSmallPopulationFactor float64

	// BIPOPSmallBudgetFactor is the share of TotalEvalsBudget assigned to the
	// small regime's budget pool.
	BIPOPSmallBudgetFactor float64

	// BIPOPLargeBudgetFactor is the share of TotalEvalsBudget assigned to the
	// large regime's budget pool.
	BIPOPLargeBudgetFactor float64

	// BIPOPLargePopIncreaseFactor grows the large-regime population on each
	// large restart.
	BIPOPLargePopIncreaseFactor float64

	// UseSubrunBudgeting, when true, gives each BIPOP restart an equal split
	// of its regime pool's *remaining* evaluations over that pool's remaining
	// runs, instead of a fixed fraction of the pool's initial size. The base
	// run and IPOP restarts draw no pool share and are not affected.
	UseSubrunBudgeting bool

	// StagnationLimit is the number of generations without improvement of the
	// run's best value before restarting. Zero selects the default.
	StagnationLimit int

	// MinSigma is the step-size floor; σ below it triggers a restart. Zero
	// selects the default.
	MinSigma float64

	// EigPrecisionThreshold governs the conditioning trigger: restart when
	// cond(C) > 1/EigPrecisionThreshold. Zero selects the default.
	EigPrecisionThreshold float64

	// MinEigValue is the smallest admissible covariance eigenvalue; anything
	// below it triggers a restart. Zero selects the default.
	MinEigValue float64

	// MatrixOpThreshold caps covariance entry magnitude; exceeding it triggers
	// a restart. Zero selects the default.
	MatrixOpThreshold float64

	// Verbosity selects progress reporting (Silent / Minimal / Normal).
	Verbosity Verbosity

	// Logger receives progress events when Verbosity is above Silent.
	Logger zerolog.Logger
}

// DefaultOptions returns a fully populated Options struct with safe,
// reproducible defaults: canonical population sizing, fixed seed, serial
// evaluation, five BIPOP restarts with balanced budget pools, and silent
// logging.
func DefaultOptions() Options {
	return Options{
		PopulationSize:              0, // 4 + ⌊3·ln n⌋
		MaxGenerations:              0,
		MaxEvaluations:              100_000,
		TotalEvalsBudget:            200_000,
		Sigma0:                      DefaultSigma0,
		Seed:                        DefaultSeed,
		ParallelEval:                false,
		IPOPRestarts:                0,
		IPOPIncreaseFactor:          2.0,
		BIPOPRestarts:               5,
		BIPOPSmallPopulationFactor:  0.5,
		BIPOPSmallBudgetFactor:      0.5,
		BIPOPLargeBudgetFactor:      1.0,
		BIPOPLargePopIncreaseFactor: 2.0,
		UseSubrunBudgeting:          false,
		StagnationLimit:             DefaultStagnationLimit,
		MinSigma:                    DefaultMinSigma,
		EigPrecisionThreshold:       DefaultEigPrecisionThreshold,
		MinEigValue:                 DefaultMinEigValue,
		MatrixOpThreshold:           DefaultMatrixOpThreshold,
		Verbosity:                   Silent,
		Logger:                      zerolog.Nop(),
	}
}

// Validate checks that the options hold a usable combination for dimension n.
// It returns ErrBadOptions for out-of-range knobs and ErrDimensionMismatch
// for an InitialMean of the wrong length.
func (o *Options) Validate(n int) error {
	if o.PopulationSize < 0 || (o.PopulationSize > 0 && o.PopulationSize < 2) {
		return ErrBadOptions
	}
	if o.Sigma0 < 0 {
		return ErrBadOptions
	}
	if o.IPOPRestarts < 0 || o.BIPOPRestarts < 0 {
		return ErrBadOptions
	}
	if o.IPOPRestarts > 0 && o.IPOPIncreaseFactor <= 0 {
		return ErrBadOptions
	}
	if o.BIPOPRestarts > 0 {
		if o.BIPOPSmallPopulationFactor <= 0 || o.BIPOPLargePopIncreaseFactor <= 0 {
			return ErrBadOptions
		}
		if o.BIPOPSmallBudgetFactor < 0 || o.BIPOPLargeBudgetFactor < 0 {
			return ErrBadOptions
		}
	}
	if o.MaxGenerations < 0 || o.MaxEvaluations < 0 || o.TotalEvalsBudget < 0 {
		return ErrBadOptions
	}
	if o.InitialMean != nil && len(o.InitialMean) != n {
		return ErrDimensionMismatch
	}

	return nil
}

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Results
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

// Result encapsulates the outcome of one Minimize call.
type Result struct {
	// F is the best objective value observed across all runs.
	F float64

	// X is the argument achieving F, inside the box.
	X []float64

	// Evaluations is the total number of objective evaluations consumed.
	Evaluations int

	// Restarts is the number of restarts actually performed.
	Restarts int
}
