// Package svi_test exercises slice evaluation and arbitrage checks.
package svi_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/volfit/svi"
)

// testSlice builds the reference 3-month slice used across these tests.
func testSlice(t *testing.T) svi.Slice {
	t.Helper()
	p, err := svi.NewParams(0.25, 0.04, 0.2, -0.3, 0.0, 0.2)
	require.NoError(t, err)

	return svi.NewSlice(p)
}

// TestTotalVariance_ClosedForm checks w at ATM and one wing against the
// hand-computed formula.
func TestTotalVariance_ClosedForm(t *testing.T) {
	s := testSlice(t)
	p := s.Params()

	// ATM with m=0: w(0) = a + b·σ.
	wATM := s.TotalVariance(0)
	require.InDelta(t, p.A()+p.B()*p.Sigma(), wATM, 1e-12)

	// k = 0.2: w = a + b·(ρ·k + √(k² + σ²)).
	k := 0.2
	want := p.A() + p.B()*(p.Rho()*k+math.Sqrt(k*k+p.Sigma()*p.Sigma()))
	require.InDelta(t, want, s.TotalVariance(k), 1e-12)
}

// TestImpliedVol_SkewAsymmetry verifies ρ < 0 lifts the put wing above the
// call wing at equal |k|.
func TestImpliedVol_SkewAsymmetry(t *testing.T) {
	s := testSlice(t)

	ivPut := s.ImpliedVol(-0.3)
	ivCall := s.ImpliedVol(0.3)
	require.Positive(t, ivPut)
	require.Positive(t, ivCall)
	require.Greater(t, ivPut, ivCall, "negative rho must tilt variance toward the put wing")

	ivATM := s.ImpliedVol(0)
	require.Positive(t, ivATM)
	require.Less(t, ivATM, 10.0)
}

// TestImpliedVol_FlooredAtDegenerateVariance keeps σ_imp defined when the
// wing variance touches zero.
func TestImpliedVol_FlooredAtDegenerateVariance(t *testing.T) {
	// Wing condition exactly binding: a = −b·σ·√(1−ρ²); with ρ = 0 and m = 0
	// total variance touches zero at k = 0, yet σ_imp stays positive thanks
	// to the floor.
	b, rho, sigma := 0.2, 0.0, 0.2
	a := -b * sigma
	p, err := svi.NewParams(0.25, a, b, rho, 0, sigma)
	require.NoError(t, err)

	s := svi.NewSlice(p)
	require.Positive(t, s.ImpliedVol(0))
}

// TestTotalVarianceAt_TimeGuard enforces the five-minute expiry match.
func TestTotalVarianceAt_TimeGuard(t *testing.T) {
	s := testSlice(t)

	// Same time: fine.
	w, err := s.TotalVarianceAt(0.1, 0.25)
	require.NoError(t, err)
	require.Positive(t, w)

	// Two minutes off (≈ 3.8e−6 years): inside tolerance.
	_, err = s.TotalVarianceAt(0.1, 0.25+2.0/(60*24*365))
	require.NoError(t, err)

	// A day off: rejected.
	_, err = s.TotalVarianceAt(0.1, 0.25+1.0/365)
	require.ErrorIs(t, err, svi.ErrTimeMismatch)

	// Non-finite moneyness: rejected.
	_, err = s.TotalVarianceAt(math.NaN(), 0.25)
	require.ErrorIs(t, err, svi.ErrNonFiniteMoneyness)
}

// TestCheckButterflyAt_BenignSlice verifies g(k) ≥ 0 across the liquid range
// of a well-behaved slice.
func TestCheckButterflyAt_BenignSlice(t *testing.T) {
	s := testSlice(t)
	for _, k := range []float64{-0.5, -0.2, -0.05, 0, 0.05, 0.2, 0.5} {
		require.NoError(t, s.CheckButterflyAt(k, 0.25), "unexpected butterfly violation at k=%g", k)
	}
}

// TestCheckButterflyAt_TimeGuard applies the same expiry-match rule.
func TestCheckButterflyAt_TimeGuard(t *testing.T) {
	s := testSlice(t)
	err := s.CheckButterflyAt(0, 0.3)
	require.ErrorIs(t, err, svi.ErrTimeMismatch)
}

func TestLogMoneyness(t *testing.T) {
	require.InDelta(t, 0, svi.LogMoneyness(100, 100), 1e-15)
	require.InDelta(t, math.Log(0.95), svi.LogMoneyness(95, 100), 1e-15)
}
