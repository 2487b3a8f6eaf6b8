// Package lbfgsb implements a bound-constrained limited-memory BFGS
// minimizer (L-BFGS-B) with finite-difference gradients.
//
// Each iteration:
//
//  1. computes the projected gradient and tests convergence;
//  2. finds a generalized Cauchy point by piecewise minimization of the
//     gradient-projection path, identifying the active bound set;
//  3. builds a quasi-Newton direction on the free coordinates from the
//     limited-memory two-loop recursion, steering active coordinates to
//     their bounds;
//  4. accepts a trial point through a strong Wolfe line search whose
//     iterates are projected into the box;
//  5. updates the curvature-pair memory when the pair passes the
//     positive-curvature test.
//
// Gradients come from central finite differences with per-coordinate step
// max(1e−5·|xᵢ|, 1e−7); the objective is therefore called O(n) times per
// gradient. The method suits low-dimensional refinement of a point produced
// by a global search.
//
// Termination: projected-gradient norm below GradTol, relative function
// change below FuncTol, step collapse (ErrLineSearch), or the iteration cap
// (ErrMaxIterations, returned together with the best point found so the
// caller may still use it). Non-finite function values at the start surface
// as ErrNumerical.
package lbfgsb
