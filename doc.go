// Package volfit calibrates parametric implied-volatility surfaces to
// observed option-market quotes.
//
// 🚀 What is volfit?
//
//	A deterministic calibration toolkit that couples:
//
//	  • SVI slice model: total variance w(k) with no-arbitrage validation
//	  • Global search: canonical CMA-ES with IPOP/BIPOP restart strategies
//	  • Local refinement: bound-constrained L-BFGS-B with finite differences
//	  • Pipeline: warm starts, temporal regularization, adaptive bounds
//
// ✨ Why choose volfit?
//
//   - Reproducible — every stochastic component is driven by a fixed seed
//   - Robust       — per-candidate failures become sentinel objectives, never panics
//   - Extensible   — new parametric surfaces plug in through one interface
//   - Library-safe — silent by default, structured logging when asked
//
// Everything is organized under five subpackages:
//
//	svi/         — SVI parameters, slice evaluation, arbitrage checks, calibrator
//	calibration/ — market-quote types, calibrator contract, configuration, pipeline
//	cmaes/       — bound-constrained CMA-ES global minimizer with restarts
//	lbfgsb/      — bound-constrained limited-memory quasi-Newton refiner
//	bs/          — closed-form Black-Scholes pricing helpers
//
// Quick sketch of a calibration:
//
//	market := loadSlice()                      // one expiry, many strikes
//	cfg := calibration.Fast()                  // preset optimizer profile
//	res, err := svi.Calibrate(ctx, market, cfg, svi.CalibrationParams{}, nil)
//
// res carries the objective value, the five SVI parameters (a, b, ρ, m, σ)
// and the bound intervals the solution was selected under; feeding those
// bounds into a subsequent calibration reproduces them exactly.
//
//	go get github.com/katalvlaran/volfit
package volfit
