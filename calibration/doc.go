// Package calibration defines the market-quote data model, the model-calibrator
// contract, the optimizer configuration surface, and the calibration pipeline
// that couples a CMA-ES global search to an L-BFGS-B local refinement under an
// adaptive-bounds outer loop.
//
// Design goals:
//   - Determinism: identical seed, configuration, market and bounds reproduce
//     the result; with serial evaluation the reproduction is bitwise.
//   - Strict sentinels: structural problems surface as ErrInvalidInput and
//     friends; optimizer non-convergence never raises — the best finite
//     solution seen is always returned when one exists.
//   - Extensibility: the pipeline consumes only the ModelCalibrator interface;
//     adding a parametric surface model requires a single new implementor.
//   - Library silence: nothing is logged unless a verbosity above Silent is
//     configured.
//
// The package knows nothing about any concrete surface model; see package svi
// for the bundled implementor and its convenience entry points.
package calibration
