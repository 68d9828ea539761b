package cascadebench

import (
	"math"
	"math/rand/v2"
)

// SpinSampler draws spin-state histories from a network under a per-node
// external field. Implementations are interchangeable thermodynamic
// backends for the flip-count analysis pipeline.
type SpinSampler interface {
	// Sample returns `samples` spin states of length net.N, each spin
	// ±1. field may be nil for the free system.
	Sample(net *Network, field []float64, samples int, rng *rand.Rand) [][]int8
}

// GibbsSampler is the default SpinSampler: an Ising model on the network
// topology updated by alternating block Gibbs sweeps. Each full sweep
// resamples the even-index block and then the odd-index block, each spin
// conditioned on the current state of its neighbors and its external
// field.
type GibbsSampler struct {
	// Beta is the inverse temperature. Higher values mean stronger
	// alignment with the local field.
	Beta float64

	// Coupling is the uniform ferromagnetic interaction strength along
	// every edge.
	Coupling float64

	// Warmup sweeps discarded before the first recorded sample.
	Warmup int

	// SweepsPerSample full sweeps between recorded samples, decorrelating
	// consecutive states.
	SweepsPerSample int
}

// DefaultGibbsSampler returns a near-critical sampler for small-world
// topologies.
func DefaultGibbsSampler() GibbsSampler {
	return GibbsSampler{
		Beta:            1.0,
		Coupling:        0.5,
		Warmup:          100,
		SweepsPerSample: 2,
	}
}

// Sample implements SpinSampler.
func (g GibbsSampler) Sample(net *Network, field []float64, samples int, rng *rand.Rand) [][]int8 {
	spins := make([]int8, net.N)
	for i := range spins {
		if rng.Float64() < 0.5 {
			spins[i] = 1
		} else {
			spins[i] = -1
		}
	}

	sweep := func() {
		for parity := 0; parity < 2; parity++ {
			for v := parity; v < net.N; v += 2 {
				h := 0.0
				net.Neighbors(v, func(u int, _ float64) {
					h += g.Coupling * float64(spins[u])
				})
				if field != nil {
					h += field[v]
				}
				pUp := 1 / (1 + math.Exp(-2*g.Beta*h))
				if rng.Float64() < pUp {
					spins[v] = 1
				} else {
					spins[v] = -1
				}
			}
		}
	}

	for i := 0; i < g.Warmup; i++ {
		sweep()
	}

	history := make([][]int8, samples)
	for s := 0; s < samples; s++ {
		for i := 0; i < g.SweepsPerSample; i++ {
			sweep()
		}
		state := make([]int8, net.N)
		copy(state, spins)
		history[s] = state
	}
	return history
}

// Magnetizations returns the mean spin of each sampled state, the
// order-parameter trace of the run.
func Magnetizations(history [][]int8) []float64 {
	out := make([]float64, len(history))
	for i, state := range history {
		sum := 0
		for _, s := range state {
			sum += int(s)
		}
		out[i] = float64(sum) / float64(len(state))
	}
	return out
}

// UpClusterSizes returns the lengths of contiguous up-spin runs in index
// order for one state, the aligned-domain size distribution a sampler
// near criticality makes heavy-tailed.
func UpClusterSizes(state []int8) []int {
	var sizes []int
	run := 0
	for _, s := range state {
		if s > 0 {
			run++
			continue
		}
		if run > 0 {
			sizes = append(sizes, run)
			run = 0
		}
	}
	if run > 0 {
		sizes = append(sizes, run)
	}
	if sizes == nil {
		sizes = []int{}
	}
	return sizes
}

// SpinMasks converts a spin history to boolean activation masks (up =
// active), bridging sampler output into the flip-count avalanche
// extractor.
func SpinMasks(history [][]int8) [][]bool {
	masks := make([][]bool, len(history))
	for i, state := range history {
		m := make([]bool, len(state))
		for j, s := range state {
			m[j] = s > 0
		}
		masks[i] = m
	}
	return masks
}

// SampleEpochs draws an epoch-structured history: each epoch records
// coherent samples under no field, then effect samples under the given
// field, mirroring the cascade engine's pulsed bias. Returns the full
// history and per-sample phase labels.
func SampleEpochs(net *Network, sampler SpinSampler, epochs, coherent, effect int, field []float64, rng *rand.Rand) ([][]int8, []Phase) {
	var history [][]int8
	var phases []Phase
	for e := 0; e < epochs; e++ {
		for _, st := range sampler.Sample(net, nil, coherent, rng) {
			history = append(history, st)
			phases = append(phases, PhaseCoherent)
		}
		for _, st := range sampler.Sample(net, field, effect, rng) {
			history = append(history, st)
			phases = append(phases, PhaseEffect)
		}
	}
	return history, phases
}
