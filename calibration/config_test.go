// Package calibration_test spot-checks the preset profiles and defaults.
package calibration_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/volfit/calibration"
	"github.com/katalvlaran/volfit/cmaes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := calibration.DefaultConfig()
	require.Equal(t, 5000, cfg.MaxIterations)
	require.Equal(t, 1e-6, cfg.Tolerance)
	require.Equal(t, 50, cfg.PopSize)
	require.Equal(t, 100, cfg.MaxGen)
	require.Equal(t, cmaes.DefaultSeed, cfg.CMAES.Seed)
	require.Equal(t, cmaes.Silent, cfg.CMAES.Verbosity)
	require.True(t, cfg.CMAES.LBFGSBEnabled)
	require.True(t, cfg.CMAES.MiniCMAESOnRefinement)
	require.Equal(t, 5, cfg.CMAES.BIPOPRestarts)
	require.Equal(t, 200_000, cfg.CMAES.TotalEvalsBudget)
	require.False(t, cfg.AdaptiveBounds.Enabled)
	require.Equal(t, 3, cfg.AdaptiveBounds.MaxIterations)
	require.Equal(t, 0.1, cfg.AdaptiveBounds.ProximityThreshold)
	require.Equal(t, 0.25, cfg.AdaptiveBounds.ExpansionFactor)
	require.Equal(t, calibration.FixedParams{R: 0.02, Q: 0}, cfg.Fixed)
}

func TestPresets_DifferOnlyInKnobValues(t *testing.T) {
	fast := calibration.Fast()
	require.Equal(t, 30, fast.PopSize)
	require.Equal(t, 20_000, fast.CMAES.TotalEvalsBudget)
	require.Equal(t, 2, fast.CMAES.BIPOPRestarts)
	require.Equal(t, cmaes.Normal, fast.CMAES.Verbosity)

	prod := calibration.Production()
	require.Equal(t, 25, prod.PopSize)
	require.Equal(t, 1e-8, prod.Tolerance)
	require.Equal(t, 200_000, prod.CMAES.TotalEvalsBudget)

	research := calibration.Research()
	require.Equal(t, 100, research.PopSize)
	require.Equal(t, 1_000_000, research.CMAES.TotalEvalsBudget)
	require.Equal(t, 3, research.CMAES.IPOPRestarts)
	require.Equal(t, 5, research.CMAES.BIPOPRestarts)

	minimal := calibration.Minimal()
	require.Equal(t, 10, minimal.PopSize)
	require.Equal(t, 2_000, minimal.CMAES.TotalEvalsBudget)
	require.Equal(t, 1, minimal.CMAES.BIPOPRestarts)
}

func TestOptionTypeString(t *testing.T) {
	require.Equal(t, "call", calibration.Call.String())
	require.Equal(t, "put", calibration.Put.String())
}
