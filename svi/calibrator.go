// Package svi - the SVI implementor of the model-calibrator contract.
package svi

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/volfit/bs"
	"github.com/katalvlaran/volfit/calibration"
)

// Calibrator fits the five SVI parameters (a, b, ρ, m, σ) of one expiry
// slice. It implements calibration.ModelCalibrator.
//
// The objective is a weighted root-mean-squared error in total-variance
// space: operating on w = σ²·t linearizes short-dated behavior, the
// exponential ATM weight keeps the wings from dominating, and the optional
// vega weight recovers dollar-error fidelity. Inadmissible candidate vectors
// score calibration.SentinelObjective so the optimizer ranks them last
// without aborting.
type Calibrator struct {
	expiry int64   // the single expiry tag this calibrator serves
	t      float64 // slice time: mean of the observations' times to expiry

	bounds [][2]float64
	params ModelParams

	prev      []float64
	regLambda float64
}

// compile-time conformance check
var _ calibration.ModelCalibrator = (*Calibrator)(nil)

// NewCalibrator builds a calibrator for a single-expiry market slice.
//
// Contracts:
//   - data must be non-empty and share exactly one expiry tag; anything else
//     returns an error wrapping calibration.ErrInvalidInput.
//   - bounds and params may be nil; the documented defaults then apply.
//
// The slice time is the mean of the observations' times to expiry, matching
// the model's one-slice-per-expiry contract.
func NewCalibrator(
	data []calibration.Observation,
	bounds *ParamBounds,
	params *ModelParams,
) (*Calibrator, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("svi: empty market slice: %w", calibration.ErrInvalidInput)
	}

	var (
		expiry = data[0].Expiry
		tSum   float64
	)
	for _, row := range data {
		if row.Expiry != expiry {
			return nil, fmt.Errorf("svi: observations span expiries %d and %d, want one: %w",
				expiry, row.Expiry, calibration.ErrInvalidInput)
		}
		tSum += row.TimeToExpiry
	}

	pb := DefaultParamBounds()
	if bounds != nil {
		pb = *bounds
	}
	if err := pb.Validate(); err != nil {
		return nil, err
	}

	mp := DefaultModelParams()
	if params != nil {
		mp = *params
	}

	return &Calibrator{
		expiry: expiry,
		t:      tSum / float64(len(data)),
		bounds: pb.ToSlice(),
		params: mp,
	}, nil
}

// ModelName implements calibration.ModelCalibrator.
func (c *Calibrator) ModelName() string { return "svi" }

// ParamCount implements calibration.ModelCalibrator.
func (c *Calibrator) ParamCount() int { return len(c.bounds) }

// ParamNames implements calibration.ModelCalibrator.
func (c *Calibrator) ParamNames() []string {
	return []string{"a", "b", "rho", "m", "sigma"}
}

// SliceTime returns the expiry time (years) the calibrator fits against.
func (c *Calibrator) SliceTime() float64 { return c.t }

// ParamBounds implements calibration.ModelCalibrator. The returned slice is
// a copy; expansion happens only through ExpandBoundsIfNeeded.
func (c *Calibrator) ParamBounds() [][2]float64 {
	out := make([][2]float64, len(c.bounds))
	copy(out, c.bounds)

	return out
}

// SetPreviousSolution implements calibration.ModelCalibrator. Vectors of the
// wrong length are ignored.
func (c *Calibrator) SetPreviousSolution(prev []float64) {
	if len(prev) != c.ParamCount() {
		return
	}
	c.prev = append([]float64(nil), prev...)
}

// SetRegularizationStrength implements calibration.ModelCalibrator.
func (c *Calibrator) SetRegularizationStrength(lambda float64) {
	c.regLambda = math.Max(lambda, 0)
}

// EvaluateObjective implements calibration.ModelCalibrator.
//
// Procedure:
//  1. build a slice from the candidate vector; inadmissible vectors score
//     the sentinel outright;
//  2. accumulate per-point squared errors (w_model − w_market)² for every
//     observation with positive market IV and the calibrator's expiry tag;
//  3. weigh each point by max(vega, 1)·exp(−β·|k|) (vega part optional);
//  4. return the weighted RMSE, plus λ·‖x − x_prev‖² when an anchor is set.
//
// Pure with respect to the receiver and data: safe for concurrent candidate
// fan-out.
func (c *Calibrator) EvaluateObjective(x []float64, data []calibration.Observation) float64 {
	params, err := ParamsFromVector(c.t, x)
	if err != nil {
		return calibration.SentinelObjective
	}
	slice := NewSlice(params)

	var (
		errSum    float64
		weightSum float64
		valid     int
	)
	for _, row := range data {
		if row.Expiry != c.expiry || row.MarketIV <= 0 {
			continue
		}

		k := LogMoneyness(row.Strike, row.Underlying)
		modelIV := slice.ImpliedVol(k)

		modelW := modelIV * modelIV * c.t
		marketW := row.MarketIV * row.MarketIV * c.t
		diff := modelW - marketW

		vegaWeight := 1.0
		if c.params.UseVegaWeighting {
			vegaWeight = math.Max(row.Vega, 1)
		}
		weight := vegaWeight * math.Exp(-c.params.ATMBoostFactor*math.Abs(k))

		errSum += weight * diff * diff
		weightSum += weight
		valid++
	}

	if valid == 0 || weightSum <= 1e-12 {
		return calibration.SentinelObjective
	}

	obj := math.Sqrt(errSum / weightSum)
	if !isFinite(obj) {
		return calibration.SentinelObjective
	}

	if c.prev != nil && c.regLambda > 0 && len(c.prev) == len(x) {
		var penalty float64
		for i := range x {
			d := x[i] - c.prev[i]
			penalty += d * d
		}
		obj += c.regLambda * penalty
	}

	return obj
}

// ExpandBoundsIfNeeded implements calibration.ModelCalibrator. For each
// coordinate sitting within proximity·range of an edge, that edge moves
// outward by factor·range. Expansion is monotone: intervals only widen.
func (c *Calibrator) ExpandBoundsIfNeeded(x []float64, proximity, factor float64) bool {
	if len(x) != len(c.bounds) {
		return false
	}

	var adjusted bool
	for i := range c.bounds {
		span := c.bounds[i][1] - c.bounds[i][0]
		lowerThresh := c.bounds[i][0] + span*proximity
		upperThresh := c.bounds[i][1] - span*proximity

		if x[i] <= lowerThresh {
			c.bounds[i][0] -= span * factor
			adjusted = true
		}
		if x[i] >= upperThresh {
			c.bounds[i][1] += span * factor
			adjusted = true
		}
	}

	return adjusted
}

// PriceOptions implements calibration.ModelCalibrator: it prices every
// observation carrying the calibrator's expiry tag under Black-Scholes with
// the model's implied volatility, sorted ascending by strike with a stable
// tie-break by insertion order.
//
// Degenerate quotes (underlying ≤ 1e−8, or a variance query failure) yield
// zero-valued records rather than errors, keeping the report row-complete.
func (c *Calibrator) PriceOptions(
	data []calibration.Observation,
	x []float64,
	fixed calibration.FixedParams,
) ([]calibration.PricingRecord, error) {
	params, err := ParamsFromVector(c.t, x)
	if err != nil {
		return nil, err
	}
	slice := NewSlice(params)

	records := make([]calibration.PricingRecord, 0, len(data))
	for _, row := range data {
		if row.Expiry != c.expiry {
			continue
		}

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

// priceOne prices a single quote off the slice; failures yield zeros.
func priceOne(slice Slice, row calibration.Observation, fixed calibration.FixedParams) (price, iv float64) {
	k := LogMoneyness(row.Strike, row.Underlying)
	w, err := slice.TotalVarianceAt(k, row.TimeToExpiry)
	if err != nil || w <= 0 {
		return 0, 0
	}

	iv = math.Sqrt(w / row.TimeToExpiry)
	switch row.Type {
	case calibration.Put:
		price = bs.PutPrice(row.Underlying, row.Strike, fixed.R, fixed.Q, row.TimeToExpiry, iv)
	default:
		price = bs.CallPrice(row.Underlying, row.Strike, fixed.R, fixed.Q, row.TimeToExpiry, iv)
	}

	return price, iv
}
