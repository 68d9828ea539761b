package cascadebench

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Configuration and parameter errors. Degenerate statistical outcomes
// (empty size lists, NaN fits) are values, not errors.
var (
	ErrInvalidTopology  = errors.New("cascadebench: invalid network topology")
	ErrInvalidThreshold = errors.New("cascadebench: invalid propagation threshold")
	ErrInvalidFraction  = errors.New("cascadebench: invalid bias fraction")
)

// NetworkConfig describes a Watts–Strogatz small-world network with
// Gaussian edge weights.
type NetworkConfig struct {
	// Number of nodes.
	Nodes int

	// Mean degree of the ring lattice before rewiring. Each node connects
	// to MeanDegree/2 neighbors on each side.
	MeanDegree int

	// Probability of rewiring each lattice edge to a random far endpoint.
	// 0 is a pure ring lattice, 1 is near-random.
	RewireProb float64

	// Edge weights are drawn from Normal(WeightMean, WeightStd).
	WeightMean float64
	WeightStd  float64
}

// DefaultNetworkConfig returns the baseline topology used by the trial
// runner: a 1000-node small-world network poised near the propagation
// threshold.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Nodes:      1000,
		MeanDegree: 10,
		RewireProb: 0.1,
		WeightMean: 1.0,
		WeightStd:  0.12,
	}
}

// Validate checks the topology parameters.
func (c NetworkConfig) Validate() error {
	if c.Nodes <= 0 {
		return fmt.Errorf("%w: nodes=%d (must be positive)", ErrInvalidTopology, c.Nodes)
	}
	if c.MeanDegree < 2 || c.MeanDegree >= c.Nodes {
		return fmt.Errorf("%w: meanDegree=%d with nodes=%d\n"+
			"Mean degree must be at least 2 and strictly less than the node count.",
			ErrInvalidTopology, c.MeanDegree, c.Nodes)
	}
	if c.RewireProb < 0 || c.RewireProb > 1 {
		return fmt.Errorf("%w: rewireProb=%g (must be in [0,1])", ErrInvalidTopology, c.RewireProb)
	}
	if c.WeightStd < 0 {
		return fmt.Errorf("%w: weightStd=%g (must be non-negative)", ErrInvalidTopology, c.WeightStd)
	}
	return nil
}

// Edge is an undirected weighted connection between two nodes.
// Weights live in the Network's Baseline/Current arrays, indexed by the
// edge's position, so a whole-network reset is a single copy.
type Edge struct {
	U, V int
}

// halfEdge is one direction of an undirected edge in the adjacency list.
// The edge index points into the weight arrays.
type halfEdge struct {
	to   int
	edge int
}

// Network is a weighted undirected graph with two weight layers: an
// immutable Baseline captured at build time and a mutable Current that
// bias policies perturb. Cascades always read Current.
type Network struct {
	N     int
	Edges []Edge

	// Baseline is never written after Build. Reset copies it into Current.
	Baseline []float64
	Current  []float64

	adj [][]halfEdge
}

// BuildNetwork constructs a Watts–Strogatz network: a ring lattice of the
// configured mean degree, each lattice edge rewired with probability
// RewireProb, edge weights drawn from Normal(WeightMean, WeightStd).
//
// The same config and generator state always produce the identical
// network: same edge list in the same order, same weights.
func BuildNetwork(cfg NetworkConfig, rng *rand.Rand) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Nodes
	half := cfg.MeanDegree / 2

	// Ring lattice. exists tracks undirected pairs to keep the graph simple
	// when rewiring.
	exists := make(map[[2]int]bool, n*half)
	edges := make([]Edge, 0, n*half)
	for i := 0; i < n; i++ {
		for j := 1; j <= half; j++ {
			v := (i + j) % n
			edges = append(edges, Edge{U: i, V: v})
			exists[pairKey(i, v)] = true
		}
	}

	// Rewire: keep the near endpoint, move the far endpoint to a uniform
	// random node, skipping self-loops and duplicate edges.
	for e := range edges {
		if rng.Float64() >= cfg.RewireProb {
			continue
		}
		u, v := edges[e].U, edges[e].V
		w := rng.IntN(n)
		if w == u || w == v || exists[pairKey(u, w)] {
			continue
		}
		delete(exists, pairKey(u, v))
		exists[pairKey(u, w)] = true
		edges[e].V = w
	}

	normal := distuv.Normal{Mu: cfg.WeightMean, Sigma: cfg.WeightStd, Src: rng}
	baseline := make([]float64, len(edges))
	for i := range baseline {
		baseline[i] = normal.Rand()
	}

	net := &Network{
		N:        n,
		Edges:    edges,
		Baseline: baseline,
		Current:  make([]float64, len(edges)),
		adj:      make([][]halfEdge, n),
	}
	copy(net.Current, baseline)
	for i, e := range edges {
		net.adj[e.U] = append(net.adj[e.U], halfEdge{to: e.V, edge: i})
		net.adj[e.V] = append(net.adj[e.V], halfEdge{to: e.U, edge: i})
	}
	return net, nil
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Reset restores all current weights to their baseline values.
// A condition run is always bracketed by Reset, apply bias, cascade.
func (net *Network) Reset() {
	copy(net.Current, net.Baseline)
}

// EdgeCount returns the number of undirected edges.
func (net *Network) EdgeCount() int { return len(net.Edges) }

// Degree returns the number of edges incident to node i.
func (net *Network) Degree(i int) int { return len(net.adj[i]) }

// NodesByDegree returns all node indices sorted by descending degree,
// ties broken by ascending index. The prefix of this list is the "hub"
// set used by hub-targeted bias policies.
func (net *Network) NodesByDegree() []int {
	nodes := make([]int, net.N)
	for i := range nodes {
		nodes[i] = i
	}
	sort.SliceStable(nodes, func(a, b int) bool {
		da, db := len(net.adj[nodes[a]]), len(net.adj[nodes[b]])
		if da != db {
			return da > db
		}
		return nodes[a] < nodes[b]
	})
	return nodes
}

// Neighbors calls fn for each neighbor of node u with the connecting
// edge's current weight.
func (net *Network) Neighbors(u int, fn func(v int, weight float64)) {
	for _, h := range net.adj[u] {
		fn(h.to, net.Current[h.edge])
	}
}
