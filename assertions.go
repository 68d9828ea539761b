package cascadebench

import (
	"math"
	"testing"
)

// AssertionConfig contains thresholds for distribution properties.
type AssertionConfig struct {
	// Maximum |fitted α − expected α| for tail assertions
	AlphaTolerance float64

	// Maximum KS statistic for a plausible power law
	MaxKS float64

	// Significance level for ordering assertions
	PValue float64
}

// DefaultAssertionConfig returns conservative thresholds.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		AlphaTolerance: 0.1,  // matches MLE stderr at ~10k samples
		MaxKS:          0.1,  // plausible power law
		PValue:         0.05, // conventional significance
	}
}

// AssertReproducibleNetwork verifies that two builds from the same seed
// produce the identical edge list and weights.
//
// Determinism property:
//
//	Build(cfg, seed) == Build(cfg, seed) edge for edge, weight for weight
func AssertReproducibleNetwork(t *testing.T, cfg NetworkConfig, seed uint64) {
	t.Helper()

	a, err := BuildNetwork(cfg, NewRand(seed))
	if err != nil {
		t.Fatalf("Failed to build network: %v", err)
	}
	b, err := BuildNetwork(cfg, NewRand(seed))
	if err != nil {
		t.Fatalf("Failed to build network: %v", err)
	}

	if len(a.Edges) != len(b.Edges) {
		t.Fatalf("Edge counts differ: %d vs %d", len(a.Edges), len(b.Edges))
	}
	for i := range a.Edges {
		if a.Edges[i] != b.Edges[i] {
			t.Errorf("Edge %d differs: %v vs %v", i, a.Edges[i], b.Edges[i])
		}
		if a.Baseline[i] != b.Baseline[i] {
			t.Errorf("Weight %d differs: %g vs %g", i, a.Baseline[i], b.Baseline[i])
		}
	}

	t.Logf("✓ Reproducible: %d nodes, %d edges identical across builds", a.N, len(a.Edges))
}

// AssertPowerLawTail verifies the MLE exponent of a size distribution is
// within tolerance of the expected value and the KS statistic is small.
//
// Mathematical property:
//
//	|α̂ − α| ≤ tolerance, D_KS ≤ MaxKS
func AssertPowerLawTail(t *testing.T, sizes []int, wantAlpha, xMin float64, cfg AssertionConfig) {
	t.Helper()

	fit := FitMLE(sizes, xMin)
	if !fit.Valid() {
		t.Fatalf("Fit invalid: %d qualifying samples (need %d)", fit.Samples, minFitSamples)
	}
	if math.Abs(fit.Alpha-wantAlpha) > cfg.AlphaTolerance {
		t.Errorf("Exponent off: α = %.4f ± %.4f (want %.4f ± %.4f)\n"+
			"Distribution tail does not match the expected power law.",
			fit.Alpha, fit.Stderr, wantAlpha, cfg.AlphaTolerance)
	}
	ks := KSStatistic(sizes, fit)
	if ks > cfg.MaxKS {
		t.Errorf("Poor tail fit: KS = %.4f (max: %.4f)", ks, cfg.MaxKS)
	}

	t.Logf("✓ Power-law tail: α = %.4f ± %.4f (want %.4f), KS = %.4f, n = %d",
		fit.Alpha, fit.Stderr, wantAlpha, ks, fit.Samples)
}

// AssertAvalancheConservation verifies that extraction preserves the
// above-baseline mass of an activity trace: in sum mode, the avalanche
// sizes total exactly the excess activity.
//
// Conservation property:
//
//	Σ sizes == Σ max(count − baseline, 0)
func AssertAvalancheConservation(t *testing.T, counts []int, baseline int) {
	t.Helper()

	sizes := ExtractAvalanches(counts, baseline, ExtractSum)
	got := 0
	for _, s := range sizes {
		got += s
	}
	want := 0
	for _, c := range counts {
		if c > baseline {
			want += c - baseline
		}
	}
	if got != want {
		t.Errorf("Extraction lost mass: Σ sizes = %d, excess activity = %d", got, want)
	}

	t.Logf("✓ Conservation: %d avalanches carry all %d excess counts", len(sizes), want)
}

// AssertConditionOrdering verifies the mean avalanche sizes order as the
// perturbation directions predict:
//
//	quantum_positive > classical > quantum_negative
//
// with each pairwise difference significant at the configured level.
func AssertConditionOrdering(t *testing.T, results Results, cfg AssertionConfig) {
	t.Helper()

	pairs := []struct {
		hi, lo Condition
	}{
		{QuantumPositive, Classical},
		{Classical, QuantumNegative},
	}
	for _, pair := range pairs {
		c := Compare(results, pair.hi, pair.lo, MetricMean)
		if c.T <= 0 {
			t.Errorf("Ordering violated: mean(%s) <= mean(%s) (t = %.3f)", pair.hi, pair.lo, c.T)
			continue
		}
		if c.P > cfg.PValue {
			t.Errorf("Ordering not significant: %s vs %s, t = %.3f, p = %.4f (α = %.2f)",
				pair.hi, pair.lo, c.T, c.P, cfg.PValue)
			continue
		}
		t.Logf("✓ mean(%s) > mean(%s): t = %.3f, p = %.4f, d = %.3f",
			pair.hi, pair.lo, c.T, c.P, c.CohensD)
	}
}

// PrintComparisons outputs the full pairwise comparison table to the
// test log.
func PrintComparisons(t *testing.T, results Results) {
	t.Helper()

	metrics := []Metric{MetricMean, MetricSkewness, MetricLargeFraction, MetricAlpha}
	pairs := [][2]Condition{
		{QuantumPositive, Classical},
		{QuantumNegative, Classical},
		{Mimic, QuantumPositive},
	}

	t.Logf("\n=== Condition Comparisons ===")
	t.Logf("  %-34s %-15s %8s %8s %8s", "pair", "metric", "t", "p", "d")
	for _, pair := range pairs {
		for _, m := range metrics {
			c := Compare(results, pair[0], pair[1], m)
			t.Logf("  %-34s %-15s %8.3f %8.4f %8.3f",
				string(pair[0])+" vs "+string(pair[1]), m.String(), c.T, c.P, c.CohensD)
		}
	}
}
