// Package svi_test exercises parameter validation via the public API.
package svi_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/volfit/calibration"
	"github.com/katalvlaran/volfit/svi"
)

// validArgs returns a known-good parameter tuple (3-month slice, mild skew).
func validArgs() (t, a, b, rho, m, sigma float64) {
	return 0.25, 0.04, 0.2, -0.3, 0.0, 0.2
}

func TestNewParams_Valid(t *testing.T) {
	tt, a, b, rho, m, sigma := validArgs()
	p, err := svi.NewParams(tt, a, b, rho, m, sigma)
	require.NoError(t, err)
	require.Equal(t, tt, p.T())
	require.Equal(t, a, p.A())
	require.Equal(t, b, p.B())
	require.Equal(t, rho, p.Rho())
	require.Equal(t, m, p.M())
	require.Equal(t, sigma, p.Sigma())
	require.Equal(t, []float64{a, b, rho, m, sigma}, p.Vector())
}

func TestNewParams_RejectsInadmissible(t *testing.T) {
	cases := []struct {
		name                string
		t, a, b, rho, m, sg float64
	}{
		{"negative t", -0.1, 0.04, 0.2, -0.3, 0, 0.2},
		{"zero t", 0, 0.04, 0.2, -0.3, 0, 0.2},
		{"nan a", 0.25, math.NaN(), 0.2, -0.3, 0, 0.2},
		{"negative b", 0.25, 0.04, -0.1, -0.3, 0, 0.2},
		{"zero b", 0.25, 0.04, 0, -0.3, 0, 0.2},
		{"rho at -1", 0.25, 0.04, 0.2, -1, 0, 0.2},
		{"rho at +1", 0.25, 0.04, 0.2, 1, 0, 0.2},
		{"inf m", 0.25, 0.04, 0.2, -0.3, math.Inf(1), 0.2},
		{"negative sigma", 0.25, 0.04, 0.2, -0.3, 0, -0.1},
		{"wing violated", 0.25, -0.5, 0.1, 0, 0, 0.1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svi.NewParams(tc.t, tc.a, tc.b, tc.rho, tc.m, tc.sg)
			require.Error(t, err)
			require.ErrorIs(t, err, calibration.ErrInvalidParameter)
		})
	}
}

// TestNewParams_NegativeAAdmissible verifies a < 0 passes as long as the
// wing condition holds.
func TestNewParams_NegativeAAdmissible(t *testing.T) {
	// a = -0.01, b·σ·√(1−ρ²) = 0.2·0.2·√(1−0.09) ≈ 0.0381 ⇒ wing ≈ 0.028 ≥ 0.
	_, err := svi.NewParams(0.25, -0.01, 0.2, -0.3, 0, 0.2)
	require.NoError(t, err)
}

func TestParamsFromVector(t *testing.T) {
	p, err := svi.ParamsFromVector(0.25, []float64{0.04, 0.2, -0.3, 0, 0.2})
	require.NoError(t, err)
	require.Equal(t, 0.25, p.T())

	_, err = svi.ParamsFromVector(0.25, []float64{0.04, 0.2})
	require.ErrorIs(t, err, calibration.ErrInvalidParameter)
}
