// Package cmaes implements the canonical Covariance Matrix Adaptation
// Evolution Strategy (CMA-ES) for bound-constrained minimization of a scalar
// black-box objective, with IPOP and BIPOP restart strategies.
//
// The strategy maintains a multivariate normal search distribution
// N(μ, σ²·C) over the box. Each generation samples λ candidates, clamps them
// into the box by coordinate projection, ranks them by objective value, and
// updates μ, the evolution paths p_σ and p_c, the covariance C (rank-μ plus
// rank-one rules) and the step size σ (cumulative step-size adaptation). The
// learning rates follow Hansen's tutorial (arXiv:1604.00772); the population
// default is 4 + ⌊3·ln n⌋.
//
// Restarts fire on stagnation, step-size collapse, covariance
// ill-conditioning, or local budget exhaustion. IPOP re-launches with a
// population grown by a fixed factor; BIPOP alternates a shrinking "small"
// regime and a growing "large" regime, each drawing from its own evaluation
// budget pool. A shared evaluation counter bounds the whole search.
//
// Determinism: the same Seed, bounds, options and objective produce the same
// best pair on the same platform. Parallel population evaluation writes each
// candidate's value into its own slot, so enabling it does not perturb the
// search trajectory.
//
// Complexity per generation: O(n³) for the eigendecomposition plus
// O(λ·n²) for sampling and updates — negligible at the small dimensions
// (n ≈ 5) this package is built for.
package cmaes
