package cascadebench

import (
	"math"
	"reflect"
	"testing"
)

func smallRunnerConfig() RunnerConfig {
	cfg := DefaultRunnerConfig()
	cfg.Trials = 12
	cfg.BaseSeed = 7
	cfg.Network.Nodes = 400
	cfg.SeedsPerTrial = 60
	return cfg
}

func TestRunnerDeterministic(t *testing.T) {
	cfg := smallRunnerConfig()

	run := func() Results {
		runner, err := NewRunner(cfg)
		if err != nil {
			t.Fatalf("NewRunner failed: %v", err)
		}
		results, err := runner.Run()
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return results
	}

	a, b := run(), run()
	if !reflect.DeepEqual(Records(a), Records(b)) {
		t.Fatal("Identical configs produced different results")
	}
	t.Logf("✓ Deterministic: %d records identical across full reruns", len(Records(a)))
}

func TestRunnerWorkerInvariance(t *testing.T) {
	cfg := smallRunnerConfig()

	run := func(workers int) []TrialRecord {
		c := cfg
		c.Workers = workers
		runner, err := NewRunner(c)
		if err != nil {
			t.Fatalf("NewRunner failed: %v", err)
		}
		results, err := runner.Run()
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return Records(results)
	}

	serial := run(1)
	parallel := run(4)
	if !reflect.DeepEqual(serial, parallel) {
		t.Fatal("Worker count changed the results")
	}
	t.Logf("✓ Worker invariance: 1 and 4 workers produce identical records")
}

func TestRunnerConditionOrdering(t *testing.T) {
	cfg := smallRunnerConfig()
	cfg.Trials = 20
	cfg.Network.Nodes = 600
	cfg.SeedsPerTrial = 80
	// A fifth of the edges shifted by 0.2: promote pushes the network
	// well past percolation, veto well below it.
	cfg.Bias.Fraction = 0.2
	cfg.Bias.Strength = 0.2

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	results, err := runner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	AssertConditionOrdering(t, results, DefaultAssertionConfig())
	PrintComparisons(t, results)
}

func TestRunnerMimicTracksTarget(t *testing.T) {
	cfg := smallRunnerConfig()

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	results, err := runner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, mimic := range results[Mimic] {
		if mimic.MimicBoost < 0 || mimic.MimicBoost > cfg.Calibration.MaxBoost {
			t.Errorf("Trial %d: boost %g outside [0, %g]", i, mimic.MimicBoost, cfg.Calibration.MaxBoost)
		}
		// The pairing is per trial: the recorded calibration target must
		// equal the SAME trial's quantum_positive mean exactly, never a
		// cross-trial average.
		qpos := results[QuantumPositive][i]
		if mimic.MimicTarget != qpos.Mean {
			t.Errorf("Trial %d: calibration target %.4f != quantum_positive mean %.4f",
				i, mimic.MimicTarget, qpos.Mean)
		}
		// The uniform shift is monotone, so any positive calibrated
		// boost puts the mimic above its own trial's unbiased baseline.
		classical := results[Classical][i]
		if mimic.MimicBoost > 0 && mimic.Mean < classical.Mean {
			t.Errorf("Trial %d: mimic mean %.2f below classical %.2f",
				i, mimic.Mean, classical.Mean)
		}
	}
	t.Logf("✓ Mimic: %d trials calibrated against their own quantum_positive mean", len(results[Mimic]))
}

func TestRunnerEntropyNaNInBFSMode(t *testing.T) {
	cfg := smallRunnerConfig()
	cfg.Trials = 3

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	results, err := runner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, tr := range results[Classical] {
		if !math.IsNaN(tr.EntropyCoherent) || !math.IsNaN(tr.EntropyEffect) {
			t.Errorf("Trial %d: BFS mode has no time structure, entropy should be NaN", tr.Trial)
		}
	}
}

func TestRunnerSteppedMode(t *testing.T) {
	cfg := smallRunnerConfig()
	cfg.Trials = 6
	cfg.Mode = ModeStepped
	cfg.Cascade = CascadeConfig{
		Threshold:  1.15,
		FiringProb: 0.02,
		Refractory: true,
		Epochs:     &EpochConfig{Count: 8, CoherentSteps: 25, EffectSteps: 15},
	}
	cfg.Extraction = ExtractSum
	cfg.Bias.Strength = 0.05

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	results, err := runner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, cond := range Conditions {
		if len(results[cond]) != cfg.Trials {
			t.Fatalf("%s: %d trials recorded, want %d", cond, len(results[cond]), cfg.Trials)
		}
	}

	// The biased firing rates must show up as more avalanche mass in the
	// positive condition than in the veto condition, summed over trials.
	var pos, neg float64
	for i := range results[QuantumPositive] {
		pos += results[QuantumPositive][i].Mean * float64(len(results[QuantumPositive][i].Sizes))
		neg += results[QuantumNegative][i].Mean * float64(len(results[QuantumNegative][i].Sizes))
	}
	if pos <= neg {
		t.Errorf("Stepped avalanche mass: positive %.1f not above negative %.1f", pos, neg)
	}
	t.Logf("✓ Stepped mode: avalanche mass %.1f (promote) vs %.1f (veto)", pos, neg)
}

func TestRunnerQuietTrialsRecorded(t *testing.T) {
	// Zero firing probability and zero bias: nothing ever activates,
	// every condition yields zero avalanches. Those trials must appear
	// in the output with zeroed statistics, not vanish.
	cfg := smallRunnerConfig()
	cfg.Trials = 3
	cfg.Mode = ModeStepped
	cfg.Cascade = CascadeConfig{Steps: 50, Threshold: 1.15, FiringProb: 0}
	cfg.Bias.Strength = 0

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	results, err := runner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, cond := range Conditions {
		if len(results[cond]) != cfg.Trials {
			t.Fatalf("%s: quiet trials dropped (%d of %d)", cond, len(results[cond]), cfg.Trials)
		}
		for _, tr := range results[cond] {
			if len(tr.Sizes) != 0 || tr.Mean != 0 || tr.Skewness != 0 {
				t.Errorf("%s trial %d: expected zeroed quiet trial, got %+v", cond, tr.Trial, tr)
			}
			if tr.Fit.Valid() {
				t.Errorf("%s trial %d: quiet trial produced a valid fit", cond, tr.Trial)
			}
		}
	}
	t.Logf("✓ Quiet trials recorded with zeroed statistics")
}

func TestNewRunnerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunnerConfig)
	}{
		{"zero trials", func(c *RunnerConfig) { c.Trials = 0 }},
		{"bad network", func(c *RunnerConfig) { c.Network.MeanDegree = c.Network.Nodes }},
		{"bad fraction", func(c *RunnerConfig) { c.Bias.Fraction = 1.5 }},
		{"bad threshold", func(c *RunnerConfig) { c.Threshold = 0 }},
		{"bad seeds", func(c *RunnerConfig) { c.SeedsPerTrial = c.Network.Nodes + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunnerConfig()
			tt.mutate(&cfg)
			if _, err := NewRunner(cfg); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	cfg := smallRunnerConfig()
	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	results, err := runner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	summaries := Summarize(results, cfg.XMin)
	for _, cond := range Conditions {
		s, ok := summaries[cond]
		if !ok {
			t.Fatalf("No summary for %s", cond)
		}
		if s.Trials != cfg.Trials {
			t.Errorf("%s: %d trials summarized, want %d", cond, s.Trials, cfg.Trials)
		}
		if s.MeanSize <= 0 {
			t.Errorf("%s: non-positive mean size %g", cond, s.MeanSize)
		}
		if s.InvalidFits < s.Trials {
			if math.IsNaN(s.MeanAlpha) {
				t.Errorf("%s: %d valid fits but MeanAlpha is NaN", cond, s.Trials-s.InvalidFits)
			}
			if s.Trials-s.InvalidFits > 1 && math.IsNaN(s.StdAlpha) {
				t.Errorf("%s: %d valid fits but StdAlpha is NaN", cond, s.Trials-s.InvalidFits)
			}
		}
		// BFS mode has no time structure, so the entropy aggregates stay NaN.
		if !math.IsNaN(s.MeanEntropyCoherent) || !math.IsNaN(s.MeanEntropyEffect) {
			t.Errorf("%s: BFS-mode entropy aggregates should be NaN, got %g / %g",
				cond, s.MeanEntropyCoherent, s.MeanEntropyEffect)
		}
		t.Logf("  %-18s mean=%7.2f skew=%6.3f large=%.3f α=%.3f±%.3f",
			cond, s.MeanSize, s.MeanSkewness, s.MeanLargeFraction, s.MeanAlpha, s.StdAlpha)
	}
}
