package cascadebench

import (
	"errors"
	"math"
	"testing"
)

func TestBuildNetworkReproducible(t *testing.T) {
	AssertReproducibleNetwork(t, DefaultNetworkConfig(), 42)
}

func TestBuildNetworkEdgeCount(t *testing.T) {
	// A Watts-Strogatz build keeps the lattice edge count: rewiring moves
	// endpoints, it never adds or removes edges.
	tests := []struct {
		name   string
		nodes  int
		degree int
		rewire float64
	}{
		{"ring lattice", 100, 4, 0},
		{"small world", 100, 4, 0.1},
		{"heavy rewire", 200, 10, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultNetworkConfig()
			cfg.Nodes = tt.nodes
			cfg.MeanDegree = tt.degree
			cfg.RewireProb = tt.rewire

			net, err := BuildNetwork(cfg, NewRand(1))
			if err != nil {
				t.Fatalf("BuildNetwork failed: %v", err)
			}

			want := tt.nodes * (tt.degree / 2)
			if net.EdgeCount() != want {
				t.Errorf("Edge count = %d, want %d", net.EdgeCount(), want)
			}

			degreeSum := 0
			for i := 0; i < net.N; i++ {
				degreeSum += net.Degree(i)
			}
			if degreeSum != 2*want {
				t.Errorf("Degree sum = %d, want %d", degreeSum, 2*want)
			}

			t.Logf("✓ %s: %d edges, degree sum %d", tt.name, net.EdgeCount(), degreeSum)
		})
	}
}

func TestBuildNetworkRingLattice(t *testing.T) {
	// With rewire probability 0 every node keeps exactly meanDegree
	// neighbors.
	cfg := NetworkConfig{Nodes: 50, MeanDegree: 6, RewireProb: 0, WeightMean: 1, WeightStd: 0.1}
	net, err := BuildNetwork(cfg, NewRand(7))
	if err != nil {
		t.Fatalf("BuildNetwork failed: %v", err)
	}
	for i := 0; i < net.N; i++ {
		if net.Degree(i) != 6 {
			t.Errorf("Node %d degree = %d, want 6", i, net.Degree(i))
		}
	}
	t.Logf("✓ Ring lattice: uniform degree %d", cfg.MeanDegree)
}

func TestBuildNetworkWeights(t *testing.T) {
	cfg := DefaultNetworkConfig()
	cfg.Nodes = 2000
	net, err := BuildNetwork(cfg, NewRand(3))
	if err != nil {
		t.Fatalf("BuildNetwork failed: %v", err)
	}

	var sum float64
	for _, w := range net.Baseline {
		sum += w
	}
	mean := sum / float64(len(net.Baseline))
	if math.Abs(mean-cfg.WeightMean) > 0.01 {
		t.Errorf("Weight mean = %.4f, want %.4f ± 0.01", mean, cfg.WeightMean)
	}
	t.Logf("✓ Weights: mean %.4f over %d edges", mean, len(net.Baseline))
}

func TestBuildNetworkValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  NetworkConfig
	}{
		{"degree exceeds nodes", NetworkConfig{Nodes: 5, MeanDegree: 10, WeightMean: 1, WeightStd: 0.1}},
		{"zero nodes", NetworkConfig{Nodes: 0, MeanDegree: 4, WeightMean: 1, WeightStd: 0.1}},
		{"degree below two", NetworkConfig{Nodes: 10, MeanDegree: 1, WeightMean: 1, WeightStd: 0.1}},
		{"negative rewire", NetworkConfig{Nodes: 10, MeanDegree: 4, RewireProb: -0.1, WeightMean: 1, WeightStd: 0.1}},
		{"rewire above one", NetworkConfig{Nodes: 10, MeanDegree: 4, RewireProb: 1.5, WeightMean: 1, WeightStd: 0.1}},
		{"negative std", NetworkConfig{Nodes: 10, MeanDegree: 4, WeightMean: 1, WeightStd: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildNetwork(tt.cfg, NewRand(1))
			if !errors.Is(err, ErrInvalidTopology) {
				t.Errorf("Expected ErrInvalidTopology, got %v", err)
			}
		})
	}
}

func TestNetworkReset(t *testing.T) {
	net, err := BuildNetwork(DefaultNetworkConfig(), NewRand(9))
	if err != nil {
		t.Fatalf("BuildNetwork failed: %v", err)
	}

	for i := range net.Current {
		net.Current[i] += 0.5
	}
	net.Reset()

	for i := range net.Current {
		if net.Current[i] != net.Baseline[i] {
			t.Fatalf("Edge %d not restored: current %.4f, baseline %.4f",
				i, net.Current[i], net.Baseline[i])
		}
	}
	t.Logf("✓ Reset restored all %d weights", net.EdgeCount())
}

func TestNodesByDegree(t *testing.T) {
	net, err := BuildNetwork(DefaultNetworkConfig(), NewRand(11))
	if err != nil {
		t.Fatalf("BuildNetwork failed: %v", err)
	}

	order := net.NodesByDegree()
	if len(order) != net.N {
		t.Fatalf("Ordering covers %d nodes, want %d", len(order), net.N)
	}
	for i := 1; i < len(order); i++ {
		if net.Degree(order[i-1]) < net.Degree(order[i]) {
			t.Fatalf("Ordering not descending at %d: degree %d before %d",
				i, net.Degree(order[i-1]), net.Degree(order[i]))
		}
	}
	t.Logf("✓ Hub ordering: top degree %d, bottom degree %d",
		net.Degree(order[0]), net.Degree(order[len(order)-1]))
}
