package cascadebench

import (
	"fmt"
	"math/rand/v2"
)

// BFSCascade runs a single-shot cascade from one seed node: activation
// spreads breadth-first across every edge whose current weight exceeds
// threshold, each node activating at most once. Returns the number of
// activated nodes. A seed with no super-threshold edges yields 1.
func BFSCascade(net *Network, seed int, threshold float64) (int, error) {
	if threshold <= 0 {
		return 0, fmt.Errorf("%w: threshold=%g (must be positive)", ErrInvalidThreshold, threshold)
	}
	if seed < 0 || seed >= net.N {
		return 0, fmt.Errorf("%w: seed=%d with %d nodes", ErrInvalidTopology, seed, net.N)
	}

	visited := make([]bool, net.N)
	visited[seed] = true
	queue := []int{seed}
	size := 1
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		net.Neighbors(u, func(v int, w float64) {
			if w > threshold && !visited[v] {
				visited[v] = true
				size++
				queue = append(queue, v)
			}
		})
	}
	return size, nil
}

// RunBFSSeeds runs one BFS cascade from each of nSeeds distinct random
// seed nodes against the network's current weights and returns the size
// of each cascade in seed order.
func RunBFSSeeds(net *Network, nSeeds int, threshold float64, rng *rand.Rand) ([]int, error) {
	if nSeeds <= 0 || nSeeds > net.N {
		return nil, fmt.Errorf("%w: nSeeds=%d with %d nodes", ErrInvalidTopology, nSeeds, net.N)
	}
	seeds := sampleWithoutReplacement(rng, net.N, nSeeds)
	sizes := make([]int, nSeeds)
	for i, s := range seeds {
		size, err := BFSCascade(net, s, threshold)
		if err != nil {
			return nil, err
		}
		sizes[i] = size
	}
	return sizes, nil
}

// Phase labels each step of an epoch-structured run.
type Phase uint8

const (
	// PhaseCoherent steps run with the unbiased baseline firing rate.
	PhaseCoherent Phase = iota

	// PhaseEffect steps run with the biased per-node rates.
	PhaseEffect
)

// EpochConfig structures a stepped run as repeated
// coherent-window / effect-window pairs, modeling a pulsed perturbation
// rather than a continuous one.
type EpochConfig struct {
	Count         int
	CoherentSteps int
	EffectSteps   int

	// EffectProbs overrides the per-node firing probabilities during
	// effect windows. nil means effect windows also run unbiased.
	EffectProbs []float64
}

// CascadeConfig parameterizes the stepped stochastic engine.
type CascadeConfig struct {
	// Steps is the total step count for an unstructured run. Ignored when
	// Epochs is set (the epoch structure determines the length).
	Steps int

	// Threshold a current edge weight must exceed for neighbor
	// propagation.
	Threshold float64

	// FiringProb is the baseline spontaneous activation probability
	// applied to every node each step.
	FiringProb float64

	// NodeProbs optionally replaces FiringProb with per-node
	// probabilities for the whole run (continuous bias).
	NodeProbs []float64

	// Refractory suppresses activation of any node active on the
	// previous step.
	Refractory bool

	// RecordMasks keeps the full per-step activation masks, needed for
	// flip-count avalanche extraction. Off by default to bound memory.
	RecordMasks bool

	Epochs *EpochConfig
}

// DefaultCascadeConfig returns the stepped-engine parameters the trial
// runner uses: 200 steps near threshold with refractory suppression.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		Steps:      200,
		Threshold:  1.15,
		FiringProb: 0.01,
		Refractory: true,
	}
}

// Validate checks the stepped-engine parameters.
func (c CascadeConfig) Validate(n int) error {
	if c.Threshold <= 0 {
		return fmt.Errorf("%w: threshold=%g (must be positive)", ErrInvalidThreshold, c.Threshold)
	}
	if c.FiringProb < 0 || c.FiringProb > 1 {
		return fmt.Errorf("%w: firingProb=%g (must be in [0,1])", ErrInvalidFraction, c.FiringProb)
	}
	if c.NodeProbs != nil && len(c.NodeProbs) != n {
		return fmt.Errorf("%w: %d node probabilities for %d nodes", ErrInvalidTopology, len(c.NodeProbs), n)
	}
	if c.Epochs != nil {
		e := c.Epochs
		if e.Count <= 0 || e.CoherentSteps < 0 || e.EffectSteps < 0 || e.CoherentSteps+e.EffectSteps == 0 {
			return fmt.Errorf("%w: epochs={count:%d coherent:%d effect:%d}",
				ErrInvalidTopology, e.Count, e.CoherentSteps, e.EffectSteps)
		}
		if e.EffectProbs != nil && len(e.EffectProbs) != n {
			return fmt.Errorf("%w: %d effect probabilities for %d nodes", ErrInvalidTopology, len(e.EffectProbs), n)
		}
	} else if c.Steps <= 0 {
		return fmt.Errorf("%w: steps=%d (must be positive)", ErrInvalidTopology, c.Steps)
	}
	return nil
}

// ActivityTrace is the output of a stepped run: the per-step active-node
// count, and, for epoch-structured runs, the phase label of each step.
type ActivityTrace struct {
	Counts []int
	Phases []Phase

	// Masks holds the per-step activation masks when RecordMasks was set.
	Masks [][]bool
}

// PhaseCounts splits the activity counts of an epoch-structured run by
// phase label. For unstructured runs it returns all counts as coherent.
func (tr *ActivityTrace) PhaseCounts(p Phase) []float64 {
	out := make([]float64, 0, len(tr.Counts))
	for i, c := range tr.Counts {
		if tr.Phases == nil {
			if p == PhaseCoherent {
				out = append(out, float64(c))
			}
			continue
		}
		if tr.Phases[i] == p {
			out = append(out, float64(c))
		}
	}
	return out
}

// RunStepped advances a boolean activation mask over discrete time steps.
// Each step, node v activates when it fires spontaneously (probability
// probs[v]) or any neighbor active on the previous step connects through
// an edge whose current weight exceeds the threshold. With Refractory
// set, a node active on the previous step cannot activate this step.
//
// With Epochs set, steps alternate coherent windows (baseline rates) and
// effect windows (EffectProbs), and the trace carries per-step phase
// labels.
func RunStepped(net *Network, cfg CascadeConfig, rng *rand.Rand) (*ActivityTrace, error) {
	if err := cfg.Validate(net.N); err != nil {
		return nil, err
	}

	steps := cfg.Steps
	if cfg.Epochs != nil {
		steps = cfg.Epochs.Count * (cfg.Epochs.CoherentSteps + cfg.Epochs.EffectSteps)
	}

	tr := &ActivityTrace{Counts: make([]int, steps)}
	if cfg.Epochs != nil {
		tr.Phases = make([]Phase, steps)
	}
	if cfg.RecordMasks {
		tr.Masks = make([][]bool, steps)
	}

	prev := make([]bool, net.N)
	next := make([]bool, net.N)
	hit := make([]bool, net.N)

	for step := 0; step < steps; step++ {
		probs, phase := cfg.stepProbs(step)
		if tr.Phases != nil {
			tr.Phases[step] = phase
		}

		// Neighbor propagation reads the previous step's mask only.
		for i := range hit {
			hit[i] = false
		}
		for u := 0; u < net.N; u++ {
			if !prev[u] {
				continue
			}
			net.Neighbors(u, func(v int, w float64) {
				if w > cfg.Threshold {
					hit[v] = true
				}
			})
		}

		count := 0
		for v := 0; v < net.N; v++ {
			p := cfg.FiringProb
			if probs != nil {
				p = probs[v]
			}
			active := hit[v] || rng.Float64() < p
			if cfg.Refractory && prev[v] {
				active = false
			}
			next[v] = active
			if active {
				count++
			}
		}
		tr.Counts[step] = count
		if cfg.RecordMasks {
			mask := make([]bool, net.N)
			copy(mask, next)
			tr.Masks[step] = mask
		}
		prev, next = next, prev
	}
	return tr, nil
}

// stepProbs resolves the per-node probability slice and phase for one
// step. nil probs means the scalar FiringProb applies to every node.
func (c CascadeConfig) stepProbs(step int) ([]float64, Phase) {
	if c.Epochs == nil {
		return c.NodeProbs, PhaseCoherent
	}
	window := c.Epochs.CoherentSteps + c.Epochs.EffectSteps
	if step%window < c.Epochs.CoherentSteps {
		return c.NodeProbs, PhaseCoherent
	}
	if c.Epochs.EffectProbs != nil {
		return c.Epochs.EffectProbs, PhaseEffect
	}
	return c.NodeProbs, PhaseEffect
}
