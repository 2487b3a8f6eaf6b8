// Package svi - top-level calibration and pricing entry points.
//
// These functions wire the SVI calibrator into the generic pipeline: they
// are the package's equivalents of the library operations "calibrate a
// surface", "score a candidate", and "price a slice".
package svi

import (
	"context"
	"fmt"
	"sort"

	"github.com/katalvlaran/volfit/calibration"
)

// Calibrate fits an SVI slice to a single-expiry market slice.
//
// Stages:
//  1. build the calibrator (custom bounds and objective knobs from params);
//  2. install the temporal-regularization anchor when a warm start x0 is
//     supplied — λ comes from params.RegLambda, defaulting to
//     DefaultRegLambda with a guess and 0 without one;
//  3. run the calibration pipeline (global search, refinement, adaptive
//     bounds per cfg);
//  4. validate the winning vector's admissibility before returning it.
//
// Errors: calibration.ErrInvalidInput for structural problems,
// calibration.ErrOptimizerFailure when no finite objective ever appeared,
// calibration.ErrInvalidParameter if the assembled result violates
// admissibility (a robustness guard; bound-respecting optimizers do not
// trigger it).
func Calibrate(
	ctx context.Context,
	market []calibration.Observation,
	cfg calibration.Config,
	params CalibrationParams,
	x0 []float64,
) (calibration.Result, error) {
	model, err := NewCalibrator(market, params.Bounds, params.Model)
	if err != nil {
		return calibration.Result{}, err
	}

	if x0 != nil {
		model.SetPreviousSolution(x0)
	}
	switch {
	case params.RegLambda != nil:
		model.SetRegularizationStrength(*params.RegLambda)
	case x0 != nil:
		model.SetRegularizationStrength(DefaultRegLambda)
	}

	res, err := calibration.Calibrate(ctx, model, market, cfg, x0)
	if err != nil {
		return calibration.Result{}, err
	}

	// Result assembly guard: the winner must be an admissible SVI vector.
	if _, err = ParamsFromVector(model.SliceTime(), res.Params); err != nil {
		return calibration.Result{}, fmt.Errorf("svi: calibrated vector rejected: %w", err)
	}

	return res, nil
}

// EvaluateObjective scores a candidate vector (a, b, ρ, m, σ) against the
// market slice under the same weighted objective the calibration uses,
// without optimizing.
func EvaluateObjective(
	market []calibration.Observation,
	x []float64,
	params CalibrationParams,
) (float64, error) {
	model, err := NewCalibrator(market, params.Bounds, params.Model)
	if err != nil {
		return 0, err
	}

	return calibration.EvaluateObjective(model, market, x), nil
}

// PriceWithSurface prices every input observation off a calibrated slice
// under Black-Scholes with the fixed market constants, sorted ascending by
// strike with a stable tie-break by insertion order.
//
// The slice's own expiry time governs the variance queries; observations
// whose time falls outside the five-minute match tolerance, or whose
// underlying is degenerate, yield zero-valued records rather than errors.
func PriceWithSurface(
	p Params,
	market []calibration.Observation,
	fixed calibration.FixedParams,
) ([]calibration.PricingRecord, error) {
	if len(market) == 0 {
		return nil, fmt.Errorf("svi: empty market slice: %w", calibration.ErrInvalidInput)
	}

	slice := NewSlice(p)

	records := make([]calibration.PricingRecord, 0, len(market))
	for _, row := range market {
		rec := calibration.PricingRecord{
			Type:         row.Type,
			Strike:       row.Strike,
			Underlying:   row.Underlying,
			TimeToExpiry: row.TimeToExpiry,
		}
		if row.Underlying > 1e-8 {
			rec.ModelPrice, rec.ModelIV = priceOne(slice, row, fixed)
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Strike < records[j].Strike
	})

	return records, nil
}
