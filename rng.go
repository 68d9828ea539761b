package cascadebench

import "math/rand/v2"

// NewRand constructs a deterministic generator from a single seed.
//
// Everything in this package that draws randomness takes one of these
// explicitly. There is no shared global generator: a trial owns its
// generator, which is what makes parallel trial execution reproducible
// regardless of scheduling order.
func NewRand(seed uint64) *rand.Rand {
	// Second PCG word derived from the first so callers only manage one seed.
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Stream offsets keep the random draws of different phases within one trial
// independent: biasing edges must not perturb which seeds the cascade picks.
const (
	streamNetwork = 0
	streamBias    = 5_000
	streamCascade = 10_000
	streamMimic   = 20_000
	streamField   = 30_000
)

// trialStride separates the seed blocks of consecutive trials. It is odd
// (so trial*stride never repeats mod 2^64) and far larger than any stream
// offset, so trial i's streams can never land on trial j's.
const trialStride = 0x1000003

// trialRand returns the generator for one stream of one trial.
// seed = base + trial*stride + stream; every (trial, stream) pair maps to
// a distinct seed.
func trialRand(base uint64, trial int, stream uint64) *rand.Rand {
	return NewRand(base + uint64(trial)*trialStride + stream)
}

// sampleWithoutReplacement returns k distinct indices drawn from [0, n).
// Callers guarantee 0 <= k <= n.
func sampleWithoutReplacement(rng *rand.Rand, n, k int) []int {
	perm := rng.Perm(n)
	out := make([]int, k)
	copy(out, perm[:k])
	return out
}
