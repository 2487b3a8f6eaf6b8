// Package bs provides closed-form Black-Scholes prices for European
// call and put options.
//
// The helpers are pure functions used by the calibration pipeline's
// pricing report; implied-volatility root finding and Greeks are
// intentionally out of scope.
//
// Conventions:
//   - S — spot price of the underlying, K — strike, both > 0 for a
//     meaningful price.
//   - R — continuously compounded risk-free rate, Q — dividend yield.
//   - T — time to expiry in years, Sigma — annualized volatility as a
//     decimal.
//
// Degenerate inputs (T ≤ 0 or Sigma ≤ 0) degrade to the discounted
// intrinsic value instead of returning an error, so expired or
// zero-volatility quotes remain priceable.
package bs
