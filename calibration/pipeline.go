// Package calibration - the calibration pipeline: warm-start handling,
// CMA-ES global search, L-BFGS-B refinement, and the adaptive-bounds outer
// loop.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/volfit/cmaes"
	"github.com/katalvlaran/volfit/lbfgsb"
)

// Calibrate runs the full pipeline for one market slice:
//
//  1. Warm-start handling: with an initial guess and MiniCMAESOnRefinement
//     enabled, a CMA-ES centered on the guess runs first; with the toggle off
//     the guess feeds refinement directly; without a guess a full CMA-ES with
//     the configured restarts runs.
//  2. The incumbent is re-scored under the standard objective (the relaxed
//     and strict objectives are currently identical; the re-score keeps the
//     two-stage hook alive for models that split them).
//  3. L-BFGS-B refinement, when enabled, runs from the incumbent; its point
//     is kept only when it strictly reduces the objective, and internal
//     refinement failures are suppressed, never surfaced.
//  4. With AdaptiveBounds enabled, steps 1-3 repeat while the incumbent keeps
//     hitting box edges, widening the offending edges each pass, up to the
//     iteration cap.
//
// The returned Result pairs the best parameters seen across all adaptive
// iterations with the model's bounds after the final pass, including any
// widening that pass triggered (possibly wider than the ones the best vector
// was found under). The bounds are a valid input to a subsequent
// calibration; with the adaptive loop off they round-trip exactly.
//
// Calibrate never errors on optimizer non-convergence. It returns
// ErrInvalidInput for structural problems, and ErrOptimizerFailure only when
// no finite objective value was ever produced.
func Calibrate(
	ctx context.Context,
	model ModelCalibrator,
	market []Observation,
	cfg Config,
	x0 []float64,
) (Result, error) {
	if err := validateMarket(market); err != nil {
		return Result{}, err
	}
	if err := validateBounds(model.ParamBounds()); err != nil {
		return Result{}, err
	}
	if x0 != nil && len(x0) != model.ParamCount() {
		return Result{}, fmt.Errorf("calibration: initial guess length %d, want %d: %w",
			len(x0), model.ParamCount(), ErrInvalidInput)
	}

	if !cfg.AdaptiveBounds.Enabled {
		f, x, err := calibrateOnce(ctx, model, market, &cfg, x0)
		if err != nil {
			return Result{}, err
		}

		return Result{Objective: f, Params: x, Bounds: model.ParamBounds()}, nil
	}

	// Adaptive-bounds outer loop: track the best-ever solution; stop early
	// once an iteration finishes with the incumbent comfortably interior.
	var (
		bestF = math.MaxFloat64
		bestX []float64
		iter  int
	)
	for iter = 0; iter < cfg.AdaptiveBounds.MaxIterations; iter++ {
		f, x, err := calibrateOnce(ctx, model, market, &cfg, x0)
		if err != nil {
			return Result{}, err
		}
		if f < bestF {
			bestF = f
			bestX = x
		}

		adjusted := model.ExpandBoundsIfNeeded(x,
			cfg.AdaptiveBounds.ProximityThreshold,
			cfg.AdaptiveBounds.ExpansionFactor)

		if cfg.CMAES.Verbosity >= cmaes.Minimal {
			cfg.Logger.Info().
				Int("iteration", iter+1).
				Bool("expanded", adjusted).
				Float64("best", bestF).
				Msg("adaptive bounds pass")
		}
		if !adjusted {
			break
		}
	}

	return Result{Objective: bestF, Params: bestX, Bounds: model.ParamBounds()}, nil
}

// calibrateOnce runs the global-then-local sequence under the model's
// current bounds and returns the better of the two stages.
func calibrateOnce(
	ctx context.Context,
	model ModelCalibrator,
	market []Observation,
	cfg *Config,
	x0 []float64,
) (float64, []float64, error) {
	bounds := model.ParamBounds()
	objective := func(x []float64) float64 {
		return model.EvaluateObjective(x, market)
	}

	var (
		bestF float64
		bestX []float64
	)
	switch {
	case x0 != nil && cfg.CMAES.MiniCMAESOnRefinement:
		// Mini CMA-ES: sample around the guess, then refine locally.
		if cfg.CMAES.Verbosity >= cmaes.Minimal {
			cfg.Logger.Info().
				Float64("guess_objective", objective(x0)).
				Msg("warm start: mini CMA-ES around initial guess")
		}

		opts := cmaesOptions(cfg)
		opts.InitialMean = x0
		res, err := cmaes.Minimize(ctx, objective, bounds, opts)
		if err != nil {
			return 0, nil, mapOptimizerErr(err)
		}
		bestX = res.X

	case x0 != nil:
		// Guess feeds refinement directly; no global stage.
		if cfg.CMAES.Verbosity >= cmaes.Minimal {
			cfg.Logger.Info().Msg("warm start: skipping global search")
		}
		bestX = append([]float64(nil), x0...)

	default:
		// Cold start: full CMA-ES with the configured restart strategy.
		opts := cmaesOptions(cfg)
		res, err := cmaes.Minimize(ctx, objective, bounds, opts)
		if err != nil {
			return 0, nil, mapOptimizerErr(err)
		}
		bestX = res.X
	}

	// Score the incumbent under the standard objective. The global stage may
	// have optimized a relaxed variant; the incumbent must be comparable to
	// the refinement stage on the strict one.
	bestF = objective(bestX)

	if cfg.CMAES.LBFGSBEnabled {
		refine(ctx, cfg, objective, bounds, &bestF, &bestX)
	}

	if bestF >= SentinelObjective || !isFinite(bestF) {
		return 0, nil, fmt.Errorf("calibration: objective never left the sentinel: %w", ErrOptimizerFailure)
	}

	return bestF, bestX, nil
}

// refine runs L-BFGS-B from the incumbent, keeping its point only on strict
// improvement. Every refinement failure is contained here: it is logged at
// the configured verbosity and the incumbent survives untouched.
func refine(
	ctx context.Context,
	cfg *Config,
	objective func([]float64) float64,
	bounds [][2]float64,
	bestF *float64,
	bestX *[]float64,
) {
	opts := lbfgsb.DefaultOptions()
	opts.MaxIterations = cfg.CMAES.LBFGSBMaxIterations
	opts.GradTol = cfg.Tolerance
	opts.FuncTol = cfg.ObjTol
	if cfg.CMAES.Verbosity >= cmaes.Normal {
		opts.Observer = func(_ []float64, f float64) {
			cfg.Logger.Debug().Float64("objective", f).Msg("lbfgsb iteration")
		}
	}

	locF, locX, err := lbfgsb.Minimize(ctx, *bestX, bounds, objective, opts)
	switch {
	case err == nil || errors.Is(err, lbfgsb.ErrMaxIterations):
		// An iteration-capped run still carries its best point.
		if locF < *bestF {
			if cfg.CMAES.Verbosity >= cmaes.Minimal {
				cfg.Logger.Info().
					Float64("from", *bestF).
					Float64("to", locF).
					Msg("refinement improved objective")
			}
			*bestF = locF
			*bestX = locX

			return
		}
		if cfg.CMAES.Verbosity >= cmaes.Minimal {
			cfg.Logger.Info().Msg("refinement did not improve, keeping incumbent")
		}

	default:
		if cfg.CMAES.Verbosity >= cmaes.Minimal {
			cfg.Logger.Warn().
				AnErr("cause", fmt.Errorf("%w: %w", ErrRefinementFailure, err)).
				Msg("refinement failed, keeping incumbent")
		}
	}
}

// cmaesOptions maps the pipeline configuration onto the optimizer options.
func cmaesOptions(cfg *Config) cmaes.Options {
	opts := cmaes.DefaultOptions()
	opts.PopulationSize = cfg.PopSize
	opts.MaxGenerations = cfg.MaxGen
	opts.MaxEvaluations = cfg.CMAES.MaxEvaluations
	opts.TotalEvalsBudget = cfg.CMAES.TotalEvalsBudget
	opts.Sigma0 = cfg.CMAES.Sigma0
	opts.Seed = cfg.CMAES.Seed
	opts.ParallelEval = cfg.CMAES.ParallelEval
	opts.IPOPRestarts = cfg.CMAES.IPOPRestarts
	opts.IPOPIncreaseFactor = cfg.CMAES.IPOPIncreaseFactor
	opts.BIPOPRestarts = cfg.CMAES.BIPOPRestarts
	opts.UseSubrunBudgeting = cfg.CMAES.UseSubrunBudgeting
	opts.Verbosity = cfg.CMAES.Verbosity
	opts.Logger = cfg.Logger

	return opts
}

// mapOptimizerErr converts optimizer sentinels into the library taxonomy.
func mapOptimizerErr(err error) error {
	if errors.Is(err, cmaes.ErrNoFiniteEvaluation) {
		return fmt.Errorf("calibration: %w", ErrOptimizerFailure)
	}

	return fmt.Errorf("calibration: global search rejected the problem: %w", ErrInvalidInput)
}

// validateMarket enforces the structural slice invariants: non-empty, one
// expiry tag, finite fields.
func validateMarket(market []Observation) error {
	if len(market) == 0 {
		return fmt.Errorf("calibration: empty market slice: %w", ErrInvalidInput)
	}

	expiry := market[0].Expiry
	for i, row := range market {
		if row.Expiry != expiry {
			return fmt.Errorf("calibration: observation %d has expiry %d, slice has %d: %w",
				i, row.Expiry, expiry, ErrInvalidInput)
		}
		if !isFinite(row.Strike) || !isFinite(row.Underlying) ||
			!isFinite(row.TimeToExpiry) || !isFinite(row.MarketIV) || !isFinite(row.Vega) {
			return fmt.Errorf("calibration: observation %d carries a non-finite field: %w",
				i, ErrInvalidInput)
		}
	}

	return nil
}

// validateBounds enforces lᵢ < uᵢ on every interval.
func validateBounds(bounds [][2]float64) error {
	for i, b := range bounds {
		if !(b[0] < b[1]) || !isFinite(b[0]) || !isFinite(b[1]) {
			return fmt.Errorf("calibration: bound interval %d inverted [%g, %g]: %w",
				i, b[0], b[1], ErrInvalidInput)
		}
	}

	return nil
}

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––
// Side operations & ergonomics
//–––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––––

// EvaluateObjective scores a candidate vector against the market slice
// without optimizing anything.
func EvaluateObjective(model ModelCalibrator, market []Observation, x []float64) float64 {
	return model.EvaluateObjective(x, market)
}

// Process is a small builder over Calibrate for callers that prefer staged
// construction.
type Process struct {
	model  ModelCalibrator
	cfg    Config
	market []Observation
	x0     []float64
}

// NewProcess stages a calibration of model against market under cfg.
func NewProcess(model ModelCalibrator, cfg Config, market []Observation) *Process {
	return &Process{model: model, cfg: cfg, market: market}
}

// WithInitialGuess installs a warm-start vector.
func (p *Process) WithInitialGuess(x0 []float64) *Process {
	p.x0 = append([]float64(nil), x0...)

	return p
}

// Run executes the staged calibration.
func (p *Process) Run(ctx context.Context) (Result, error) {
	return Calibrate(ctx, p.model, p.market, p.cfg, p.x0)
}
