// Package bs - closed-form Black-Scholes pricing.
//
// Both pricers share the d1/d2 decomposition and the standard normal CDF
// from gonum's distuv; no state, no allocations, no panics.
package bs

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// stdNormal is the standard normal distribution used for Φ(x).
var stdNormal = distuv.UnitNormal

// d12 computes the Black-Scholes d1 and d2 terms.
//
// Preconditions: s > 0, k > 0, t > 0, sigma > 0 (checked by the callers).
func d12(s, k, r, q, t, sigma float64) (d1, d2 float64) {
	sqrtT := math.Sqrt(t)
	d1 = (math.Log(s/k) + (r-q+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 = d1 - sigma*sqrtT

	return d1, d2
}

// CallPrice returns the Black-Scholes price of a European call.
//
// For t ≤ 0 or sigma ≤ 0 the price degrades to the discounted intrinsic
// value max(S·e^{−qT} − K·e^{−rT}, 0).
//
// Complexity: O(1).
func CallPrice(s, k, r, q, t, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		return math.Max(s*math.Exp(-q*t)-k*math.Exp(-r*t), 0)
	}

	d1, d2 := d12(s, k, r, q, t, sigma)

	return s*math.Exp(-q*t)*stdNormal.CDF(d1) - k*math.Exp(-r*t)*stdNormal.CDF(d2)
}

// PutPrice returns the Black-Scholes price of a European put.
//
// For t ≤ 0 or sigma ≤ 0 the price degrades to the discounted intrinsic
// value max(K·e^{−rT} − S·e^{−qT}, 0).
//
// Complexity: O(1).
func PutPrice(s, k, r, q, t, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		return math.Max(k*math.Exp(-r*t)-s*math.Exp(-q*t), 0)
	}

	d1, d2 := d12(s, k, r, q, t, sigma)

	return k*math.Exp(-r*t)*stdNormal.CDF(-d2) - s*math.Exp(-q*t)*stdNormal.CDF(-d1)
}
