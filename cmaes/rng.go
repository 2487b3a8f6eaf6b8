// Package cmaes - RNG utilities.
//
// This file centralizes deterministic random generation for the optimizer.
//
// Goals:
//   - Determinism: same seed ⇒ identical sampling across runs and platforms.
//   - Encapsulation: a single RNG factory; no time-based sources anywhere.
//   - Independence: each restart draws from its own derived substream, so a
//     restart's trajectory does not depend on how long earlier runs lasted.
//
// Concurrency:
//   - rand.Rand is NOT goroutine-safe. Sampling happens on the driving
//     goroutine only; parallel evaluation never touches the RNG.
package cmaes

import "golang.org/x/exp/rand"

// rngFromSeed returns a deterministic *rand.Rand.
// Policy: seed==0 ⇒ use DefaultSeed; otherwise use the provided seed verbatim.
//
// Complexity: O(1).
func rngFromSeed(seed uint64) *rand.Rand {
	s := seed
	if s == 0 {
		s = DefaultSeed
	}

	return rand.New(rand.NewSource(s))
}

// deriveSeed mixes a parent seed and a stream identifier into a new 64-bit
// seed using a SplitMix64-style finalizer (Vigna 2014 constants), giving each
// restart an uncorrelated substream.
//
// Complexity: O(1).
func deriveSeed(parent uint64, stream uint64) uint64 {
	x := parent ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return x
}

// restartRNG creates the deterministic RNG stream for restart index idx
// (idx 0 is the base run).
//
// Complexity: O(1).
func restartRNG(seed uint64, idx int) *rand.Rand {
	if seed == 0 {
		seed = DefaultSeed
	}
	if idx == 0 {
		return rngFromSeed(seed)
	}

	return rand.New(rand.NewSource(deriveSeed(seed, uint64(idx))))
}
