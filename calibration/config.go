// Package calibration - optimizer configuration surface and preset profiles.
package calibration

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/volfit/cmaes"
)

// CMAESConfig carries the global-search knobs the pipeline forwards to the
// cmaes package, plus the refinement toggles that belong to the same stage.
type CMAESConfig struct {
	// Seed drives every stochastic component. Zero selects cmaes.DefaultSeed.
	Seed uint64

	// ParallelEval allows concurrent objective evaluation inside a
	// generation.
	ParallelEval bool

	// Verbosity selects progress reporting (Silent / Minimal / Normal).
	Verbosity cmaes.Verbosity

	// IPOPRestarts / IPOPIncreaseFactor configure IPOP restarts.
	IPOPRestarts       int
	IPOPIncreaseFactor float64

	// MaxEvaluations caps objective evaluations per run (0 = unlimited).
	MaxEvaluations int

	// Sigma0 is the initial step size as a fraction of each bound range.
	Sigma0 float64

	// BIPOPRestarts configures BIPOP restarts (takes precedence over IPOP).
	BIPOPRestarts int

	// LBFGSBEnabled toggles the local refinement stage.
	LBFGSBEnabled bool

	// LBFGSBMaxIterations caps refinement iterations.
	LBFGSBMaxIterations int

	// TotalEvalsBudget caps objective evaluations across all restarts.
	TotalEvalsBudget int

	// UseSubrunBudgeting shares each BIPOP pool's remaining budget across its
	// restarts instead of fixed fractions; IPOP restarts are not affected.
	UseSubrunBudgeting bool

	// MiniCMAESOnRefinement, with an initial guess present, runs a CMA-ES
	// centered on the guess before refinement instead of skipping the global
	// stage entirely.
	MiniCMAESOnRefinement bool
}

// DefaultCMAESConfig mirrors the silent, reproducible library defaults.
func DefaultCMAESConfig() CMAESConfig {
	return CMAESConfig{
		Seed:                  cmaes.DefaultSeed,
		ParallelEval:          true,
		Verbosity:             cmaes.Silent,
		IPOPRestarts:          0,
		IPOPIncreaseFactor:    2.0,
		MaxEvaluations:        100_000,
		Sigma0:                cmaes.DefaultSigma0,
		BIPOPRestarts:         5,
		LBFGSBEnabled:         true,
		LBFGSBMaxIterations:   200,
		TotalEvalsBudget:      200_000,
		UseSubrunBudgeting:    false,
		MiniCMAESOnRefinement: true,
	}
}

// AdaptiveBoundsConfig governs the outer bound-expansion loop.
type AdaptiveBoundsConfig struct {
	// Enabled toggles the loop; when off the pipeline runs exactly once.
	Enabled bool

	// MaxIterations caps the number of calibration passes.
	MaxIterations int

	// ProximityThreshold is the edge-closeness fraction that triggers an
	// expansion (0.1 = within 10% of the range from an edge).
	ProximityThreshold float64

	// ExpansionFactor is the widening applied to an offending edge,
	// expressed as a fraction of the current range.
	ExpansionFactor float64
}

// DefaultAdaptiveBoundsConfig returns the disabled baseline.
func DefaultAdaptiveBoundsConfig() AdaptiveBoundsConfig {
	return AdaptiveBoundsConfig{
		Enabled:            false,
		MaxIterations:      3,
		ProximityThreshold: 0.1,
		ExpansionFactor:    0.25,
	}
}

// Config is the flat record of recognized optimizer options with explicit
// defaults — no reflection, no dynamic parameter maps. Preset profiles
// differ only in the values of these keys.
type Config struct {
	// MaxIterations is a generic iteration allowance recognized for
	// compatibility; the staged optimizers govern themselves through their
	// own budgets below.
	MaxIterations int

	// Tolerance is the refinement gradient tolerance.
	Tolerance float64

	// Fixed holds the market constants {r, q} used by pricing.
	Fixed FixedParams

	// PopSize is the CMA-ES population λ (0 = canonical default).
	PopSize int

	// MaxGen caps CMA-ES generations per run.
	MaxGen int

	// ObjTol is the refinement function-change tolerance.
	ObjTol float64

	// AlphaCov, AlphaSigma and TargetSR are recognized tuning knobs for
	// success-rule adaptation schemes; the canonical optimizer derives its
	// learning rates from the population size and ignores them.
	AlphaCov   float64
	AlphaSigma float64
	TargetSR   float64

	// CMAES carries the global-search stage configuration.
	CMAES CMAESConfig

	// AdaptiveBounds carries the outer-loop configuration.
	AdaptiveBounds AdaptiveBoundsConfig

	// Logger receives progress events when CMAES.Verbosity is above Silent.
	Logger zerolog.Logger
}

// DefaultConfig returns the baseline configuration: silent, deterministic,
// five BIPOP restarts, refinement enabled, adaptive bounds off.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  5000,
		Tolerance:      1e-6,
		Fixed:          DefaultFixedParams(),
		PopSize:        50,
		MaxGen:         100,
		ObjTol:         1e-8,
		AlphaCov:       0.2,
		AlphaSigma:     0.5,
		TargetSR:       0.2,
		CMAES:          DefaultCMAESConfig(),
		AdaptiveBounds: DefaultAdaptiveBoundsConfig(),
		Logger:         consoleLogger(),
	}
}

// Production returns the high-accuracy profile for live systems.
func Production() Config {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1000
	cfg.Tolerance = 1e-8
	cfg.PopSize = 25
	cfg.MaxGen = 50
	cfg.ObjTol = 1e-8
	cfg.CMAES.MaxEvaluations = 100_000
	cfg.CMAES.TotalEvalsBudget = 200_000

	return cfg
}

// Fast returns the balanced speed/accuracy profile for development and
// testing.
func Fast() Config {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1000
	cfg.Tolerance = 1e-6
	cfg.PopSize = 30
	cfg.MaxGen = 50
	cfg.ObjTol = 1e-6
	cfg.CMAES.Verbosity = cmaes.Normal
	cfg.CMAES.MaxEvaluations = 10_000
	cfg.CMAES.TotalEvalsBudget = 20_000
	cfg.CMAES.BIPOPRestarts = 2

	return cfg
}

// Research returns the high-precision profile for research and backtesting.
func Research() Config {
	cfg := DefaultConfig()
	cfg.MaxIterations = 10_000
	cfg.Tolerance = 1e-9
	cfg.PopSize = 100
	cfg.MaxGen = 200
	cfg.ObjTol = 1e-9
	cfg.AlphaCov = 0.15
	cfg.AlphaSigma = 0.3
	cfg.TargetSR = 0.15
	cfg.CMAES.Verbosity = cmaes.Minimal
	cfg.CMAES.MaxEvaluations = 500_000
	cfg.CMAES.TotalEvalsBudget = 1_000_000
	cfg.CMAES.BIPOPRestarts = 5
	cfg.CMAES.IPOPRestarts = 3

	return cfg
}

// Minimal returns the quick-validation profile for debugging.
func Minimal() Config {
	cfg := DefaultConfig()
	cfg.MaxIterations = 100
	cfg.Tolerance = 1e-4
	cfg.PopSize = 10
	cfg.MaxGen = 20
	cfg.ObjTol = 1e-4
	cfg.AlphaCov = 0.3
	cfg.AlphaSigma = 0.7
	cfg.TargetSR = 0.3
	cfg.CMAES.MaxEvaluations = 1_000
	cfg.CMAES.TotalEvalsBudget = 2_000
	cfg.CMAES.BIPOPRestarts = 1

	return cfg
}

// consoleLogger is the default sink for verbosity above Silent: human-readable
// lines on stderr. Callers replace Config.Logger for structured output.
func consoleLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
