package cascadebench

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
)

// BiasSign selects the direction of a structured perturbation.
type BiasSign int

const (
	// Promote adds strength to the selected targets, encouraging
	// propagation (the quantum_positive condition).
	Promote BiasSign = 1

	// Veto subtracts strength from the selected targets, suppressing
	// propagation (the quantum_negative condition).
	Veto BiasSign = -1
)

func (s BiasSign) String() string {
	if s == Veto {
		return "veto"
	}
	return "promote"
}

// BiasConfig parameterizes a structured minority bias: a random Fraction
// of targets (edges or nodes) receives an additive shift of magnitude
// Strength in the Sign direction.
type BiasConfig struct {
	Fraction float64
	Strength float64
	Sign     BiasSign

	// Hubs targets the top-degree nodes instead of a uniform random
	// subset. Only meaningful for node bias.
	Hubs bool

	// Logger receives the zero-target warning. nil means slog.Default().
	Logger *slog.Logger
}

// DefaultBiasConfig returns the structured-bias parameters the trial
// runner starts from: 10% of targets shifted by 0.1.
func DefaultBiasConfig() BiasConfig {
	return BiasConfig{Fraction: 0.10, Strength: 0.10, Sign: Promote}
}

// Validate checks the bias parameters.
func (c BiasConfig) Validate() error {
	if c.Fraction < 0 || c.Fraction > 1 {
		return fmt.Errorf("%w: fraction=%g (must be in [0,1])", ErrInvalidFraction, c.Fraction)
	}
	if c.Sign != Promote && c.Sign != Veto {
		return fmt.Errorf("%w: sign=%d (must be Promote or Veto)", ErrInvalidFraction, int(c.Sign))
	}
	return nil
}

func (c BiasConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// targetCount rounds fraction*total to the nearest integer and warns when
// a positive fraction rounds to zero targets. The run proceeds as an
// unbiased condition rather than failing.
func (c BiasConfig) targetCount(total int, kind string) int {
	k := int(math.Round(c.Fraction * float64(total)))
	if k == 0 && c.Fraction > 0 {
		c.logger().Warn("bias selects zero targets, condition runs unbiased",
			"kind", kind, "fraction", c.Fraction, "total", total)
	}
	return k
}

// BiasSelection records which targets a bias touched and the signed shift
// each received. Returned so tests and exports can verify cardinality.
type BiasSelection struct {
	Targets []int
	Delta   float64
}

// ApplyEdgeBias shifts the current weight of a random fraction of edges
// by ±strength. Weights may cross the propagation threshold in either
// direction; nothing is clipped. Call net.Reset() to undo.
func ApplyEdgeBias(net *Network, cfg BiasConfig, rng *rand.Rand) (BiasSelection, error) {
	if err := cfg.Validate(); err != nil {
		return BiasSelection{}, err
	}
	k := cfg.targetCount(net.EdgeCount(), "edge")
	delta := float64(cfg.Sign) * cfg.Strength
	sel := BiasSelection{
		Targets: sampleWithoutReplacement(rng, net.EdgeCount(), k),
		Delta:   delta,
	}
	for _, e := range sel.Targets {
		net.Current[e] += delta
	}
	return sel, nil
}

// ApplyUniformEdgeShift adds the same boost to every edge's current
// weight. This is the mimic perturbation: whole-network, structureless,
// calibrated elsewhere to match a structured bias's mean effect.
func ApplyUniformEdgeShift(net *Network, boost float64) {
	for i := range net.Current {
		net.Current[i] = net.Baseline[i] + boost
	}
}

// ApplyNodeBias builds a per-node spontaneous-firing probability slice:
// every node starts at base, and a fraction of nodes gets ±strength.
// With cfg.Hubs the targets are the top-degree nodes; otherwise they are
// a uniform random subset. Probabilities are clipped to [0,1].
func ApplyNodeBias(net *Network, base float64, cfg BiasConfig, rng *rand.Rand) ([]float64, BiasSelection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, BiasSelection{}, err
	}
	probs := make([]float64, net.N)
	for i := range probs {
		probs[i] = base
	}
	k := cfg.targetCount(net.N, "node")
	delta := float64(cfg.Sign) * cfg.Strength

	var targets []int
	if cfg.Hubs {
		targets = net.NodesByDegree()[:k]
	} else {
		targets = sampleWithoutReplacement(rng, net.N, k)
	}
	for _, v := range targets {
		probs[v] = clip(probs[v]+delta, 0, 1)
	}
	return probs, BiasSelection{Targets: targets, Delta: delta}, nil
}

// ApplyFieldBias builds a per-node external field for the spin sampler.
// Structured mode (Hubs or random subset) concentrates ±strength on a
// minority of nodes; the mimic counterpart spreads the same total field
// magnitude uniformly across all nodes, preserving the sum while erasing
// the structure.
func ApplyFieldBias(net *Network, cfg BiasConfig, rng *rand.Rand) ([]float64, BiasSelection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, BiasSelection{}, err
	}
	field := make([]float64, net.N)
	k := cfg.targetCount(net.N, "field")
	delta := float64(cfg.Sign) * cfg.Strength

	var targets []int
	if cfg.Hubs {
		targets = net.NodesByDegree()[:k]
	} else {
		targets = sampleWithoutReplacement(rng, net.N, k)
	}
	for _, v := range targets {
		field[v] = delta
	}
	return field, BiasSelection{Targets: targets, Delta: delta}, nil
}

// UniformField spreads a structured field's total magnitude evenly over
// all nodes: n nodes each receive sign*|total|/n.
func UniformField(n int, total float64) []float64 {
	field := make([]float64, n)
	if n == 0 {
		return field
	}
	per := total / float64(n)
	for i := range field {
		field[i] = per
	}
	return field
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
