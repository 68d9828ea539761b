package cascadebench

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Condition names one arm of the four-way comparison.
type Condition string

const (
	Classical       Condition = "classical"
	QuantumPositive Condition = "quantum_positive"
	QuantumNegative Condition = "quantum_negative"
	Mimic           Condition = "mimic"
)

// Conditions lists the four arms in canonical order.
var Conditions = []Condition{Classical, QuantumPositive, QuantumNegative, Mimic}

// CascadeMode selects the propagation engine for a run.
type CascadeMode int

const (
	// ModeBFS runs single-shot BFS cascades from random seeds, biasing
	// edge weights.
	ModeBFS CascadeMode = iota

	// ModeStepped runs the discrete-time stochastic engine, biasing
	// per-node firing rates inside epoch effect windows.
	ModeStepped
)

// RunnerConfig parameterizes a Monte Carlo experiment.
type RunnerConfig struct {
	// Trials is the number of independent repetitions. Each trial builds
	// a fresh network and runs all four conditions on it.
	Trials int

	// BaseSeed anchors determinism: trial i derives all of its
	// generators from BaseSeed plus a per-trial stride.
	BaseSeed uint64

	// Workers bounds parallel trial execution. 0 means GOMAXPROCS.
	// Results are identical for any worker count.
	Workers int

	Mode        CascadeMode
	Network     NetworkConfig
	Bias        BiasConfig // Sign is set per condition
	Calibration CalibrationConfig

	// SeedsPerTrial is the BFS cascade count per condition (ModeBFS).
	SeedsPerTrial int

	// Threshold for BFS propagation (ModeBFS).
	Threshold float64

	// Cascade parameterizes the stepped engine (ModeStepped).
	Cascade    CascadeConfig
	Extraction ExtractionMode

	// XMin is the lower cutoff for power-law fits.
	XMin float64

	// LargeQuantile defines "large" events: the threshold is this
	// quantile of the same trial's classical sizes, shared by all four
	// conditions so tail fractions are directly comparable.
	LargeQuantile float64

	Logger *slog.Logger
}

// DefaultRunnerConfig returns the standard BFS-mode experiment. The
// threshold sits ~1.3σ above the weight mean, leaving roughly one
// super-threshold edge per node: the near-critical regime where bias
// direction controls whether cascades percolate.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Trials:        50,
		BaseSeed:      1,
		Mode:          ModeBFS,
		Network:       DefaultNetworkConfig(),
		Bias:          DefaultBiasConfig(),
		Calibration:   DefaultCalibrationConfig(),
		SeedsPerTrial: 100,
		Threshold:     1.15,
		Cascade:       DefaultCascadeConfig(),
		XMin:          1,
		LargeQuantile: 0.95,
	}
}

// TrialResult is one condition's outcome within one trial. A trial that
// produced no avalanches still yields a result with zeroed statistics
// and an invalid fit; quiet trials are data, not failures.
type TrialResult struct {
	Trial     int
	Condition Condition

	Sizes []int

	Mean          float64
	Std           float64
	Skewness      float64
	LargeFraction float64
	Fit           PowerLawFit

	// Sample entropy of the activity trace split by phase. NaN in BFS
	// mode, which has no time structure.
	EntropyCoherent float64
	EntropyEffect   float64

	// MimicBoost records the calibrated uniform shift and MimicTarget
	// the mean it was calibrated against: always the SAME trial's
	// quantum_positive mean, never a cross-trial average (Mimic only).
	MimicBoost  float64
	MimicTarget float64
}

// Results groups per-trial results by condition, each slice ordered by
// trial index.
type Results map[Condition][]TrialResult

// Runner executes the four-condition Monte Carlo comparison.
type Runner struct {
	cfg    RunnerConfig
	logger *slog.Logger
}

// NewRunner validates the configuration.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Trials <= 0 {
		return nil, fmt.Errorf("%w: trials=%d (must be positive)", ErrInvalidTopology, cfg.Trials)
	}
	if err := cfg.Network.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Bias.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeBFS:
		if cfg.Threshold <= 0 {
			return nil, fmt.Errorf("%w: threshold=%g (must be positive)", ErrInvalidThreshold, cfg.Threshold)
		}
		if cfg.SeedsPerTrial <= 0 || cfg.SeedsPerTrial > cfg.Network.Nodes {
			return nil, fmt.Errorf("%w: seedsPerTrial=%d with %d nodes",
				ErrInvalidTopology, cfg.SeedsPerTrial, cfg.Network.Nodes)
		}
	case ModeStepped:
		if err := cfg.Cascade.Validate(cfg.Network.Nodes); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown cascade mode %d", ErrInvalidTopology, cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger}, nil
}

// Run executes all trials, fanning out across workers. Trial i is fully
// determined by BaseSeed + i, so the output is bit-identical for any
// worker count.
func (r *Runner) Run() (Results, error) {
	type trialOut struct {
		results []TrialResult
		err     error
	}

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > r.cfg.Trials {
		workers = r.cfg.Trials
	}

	outs := make([]trialOut, r.cfg.Trials)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				res, err := r.runTrial(t)
				outs[t] = trialOut{results: res, err: err}
			}
		}()
	}
	for t := 0; t < r.cfg.Trials; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	results := make(Results, len(Conditions))
	for _, cond := range Conditions {
		results[cond] = make([]TrialResult, 0, r.cfg.Trials)
	}
	for t, out := range outs {
		if out.err != nil {
			return nil, fmt.Errorf("trial %d: %w", t, out.err)
		}
		for _, tr := range out.results {
			results[tr.Condition] = append(results[tr.Condition], tr)
		}
	}
	r.logger.Info("experiment complete", "trials", r.cfg.Trials, "workers", workers)
	return results, nil
}

// runTrial runs the four conditions on one fresh network. Conditions
// within a trial share the network and the paired cascade stream, so the
// comparison is within-trial paired: the same seeds under different
// perturbations.
func (r *Runner) runTrial(t int) ([]TrialResult, error) {
	net, err := BuildNetwork(r.cfg.Network, trialRand(r.cfg.BaseSeed, t, streamNetwork))
	if err != nil {
		return nil, err
	}

	var byCond map[Condition][]int
	var cal Calibration
	var traces map[Condition]*ActivityTrace

	switch r.cfg.Mode {
	case ModeBFS:
		byCond, cal, err = r.runBFSTrial(net, t)
	case ModeStepped:
		byCond, traces, cal, err = r.runSteppedTrial(net, t)
	}
	if err != nil {
		return nil, err
	}

	largeCut := Percentile(toFloats(byCond[Classical]), r.cfg.LargeQuantile)
	if math.IsNaN(largeCut) {
		largeCut = float64(net.N) / 2
	}

	out := make([]TrialResult, 0, len(Conditions))
	for _, cond := range Conditions {
		tr := r.analyze(t, cond, byCond[cond], largeCut)
		if cond == Mimic {
			tr.MimicBoost = cal.Boost
			tr.MimicTarget = cal.Target
		}
		if trace, ok := traces[cond]; ok {
			tr.EntropyCoherent = SampleEntropy(trace.PhaseCounts(PhaseCoherent), 2, 0)
			tr.EntropyEffect = SampleEntropy(trace.PhaseCounts(PhaseEffect), 2, 0)
		} else {
			tr.EntropyCoherent = math.NaN()
			tr.EntropyEffect = math.NaN()
		}
		out = append(out, tr)
	}
	return out, nil
}

// runBFSTrial produces the four size lists for one trial under the BFS
// engine. Bias and cascade streams use fixed per-trial seeds, so the
// structured conditions perturb the same edges and seed the same nodes.
func (r *Runner) runBFSTrial(net *Network, t int) (map[Condition][]int, Calibration, error) {
	base := r.cfg.BaseSeed
	sizes := make(map[Condition][]int, len(Conditions))

	run := func() ([]int, error) {
		return RunBFSSeeds(net, r.cfg.SeedsPerTrial, r.cfg.Threshold, trialRand(base, t, streamCascade))
	}

	net.Reset()
	s, err := run()
	if err != nil {
		return nil, Calibration{}, err
	}
	sizes[Classical] = s

	for cond, sign := range map[Condition]BiasSign{QuantumPositive: Promote, QuantumNegative: Veto} {
		net.Reset()
		cfg := r.cfg.Bias
		cfg.Sign = sign
		cfg.Logger = r.logger
		if _, err := ApplyEdgeBias(net, cfg, trialRand(base, t, streamBias)); err != nil {
			return nil, Calibration{}, err
		}
		if sizes[cond], err = run(); err != nil {
			return nil, Calibration{}, err
		}
	}

	// Mimic: uniform shift calibrated against this trial's
	// quantum_positive mean. Each measurement reseeds its cascade stream,
	// so the search is deterministic in the boost alone.
	target := meanSize(sizes[QuantumPositive])
	var mimicSizes []int
	var measureErr error
	measure := func(boost float64) float64 {
		net.Reset()
		ApplyUniformEdgeShift(net, boost)
		s, err := RunBFSSeeds(net, r.cfg.SeedsPerTrial, r.cfg.Threshold, trialRand(base, t, streamMimic))
		if err != nil {
			measureErr = err
			return 0
		}
		mimicSizes = s
		return meanSize(s)
	}
	calCfg := r.cfg.Calibration
	calCfg.Logger = r.logger
	cal := CalibrateMimic(target, measure, calCfg)
	if measureErr != nil {
		return nil, Calibration{}, measureErr
	}
	sizes[Mimic] = mimicSizes
	return sizes, cal, nil
}

// runSteppedTrial produces the four size lists and activity traces for
// one trial under the stepped engine. Structured conditions bias node
// firing rates; with an epoch structure configured the bias applies only
// inside effect windows.
func (r *Runner) runSteppedTrial(net *Network, t int) (map[Condition][]int, map[Condition]*ActivityTrace, Calibration, error) {
	base := r.cfg.BaseSeed
	sizes := make(map[Condition][]int, len(Conditions))
	traces := make(map[Condition]*ActivityTrace, len(Conditions))
	baseline := int(r.cfg.Cascade.FiringProb * float64(net.N))

	run := func(probs []float64, rng uint64) (*ActivityTrace, []int, error) {
		cfg := r.cfg.Cascade
		if cfg.Epochs != nil {
			e := *cfg.Epochs
			e.EffectProbs = probs
			cfg.Epochs = &e
		} else {
			cfg.NodeProbs = probs
		}
		trace, err := RunStepped(net, cfg, trialRand(base, t, rng))
		if err != nil {
			return nil, nil, err
		}
		return trace, ExtractAvalanches(trace.Counts, baseline, r.cfg.Extraction), nil
	}

	trace, s, err := run(nil, streamCascade)
	if err != nil {
		return nil, nil, Calibration{}, err
	}
	traces[Classical], sizes[Classical] = trace, s

	for cond, sign := range map[Condition]BiasSign{QuantumPositive: Promote, QuantumNegative: Veto} {
		cfg := r.cfg.Bias
		cfg.Sign = sign
		cfg.Logger = r.logger
		probs, _, err := ApplyNodeBias(net, r.cfg.Cascade.FiringProb, cfg, trialRand(base, t, streamBias))
		if err != nil {
			return nil, nil, Calibration{}, err
		}
		if traces[cond], sizes[cond], err = run(probs, streamCascade); err != nil {
			return nil, nil, Calibration{}, err
		}
	}

	target := meanSize(sizes[QuantumPositive])
	var mimicSizes []int
	var mimicTrace *ActivityTrace
	var measureErr error
	measure := func(boost float64) float64 {
		probs := make([]float64, net.N)
		for i := range probs {
			probs[i] = clip(r.cfg.Cascade.FiringProb+boost, 0, 1)
		}
		trace, s, err := run(probs, streamMimic)
		if err != nil {
			measureErr = err
			return 0
		}
		mimicTrace, mimicSizes = trace, s
		return meanSize(s)
	}
	calCfg := r.cfg.Calibration
	calCfg.Logger = r.logger
	cal := CalibrateMimic(target, measure, calCfg)
	if measureErr != nil {
		return nil, nil, Calibration{}, measureErr
	}
	traces[Mimic], sizes[Mimic] = mimicTrace, mimicSizes
	return sizes, traces, cal, nil
}

// analyze reduces one condition's size list to its per-trial statistics.
func (r *Runner) analyze(t int, cond Condition, sizes []int, largeCut float64) TrialResult {
	tr := TrialResult{Trial: t, Condition: cond, Sizes: sizes}
	if len(sizes) == 0 {
		tr.Fit = PowerLawFit{Alpha: math.NaN(), Stderr: math.NaN(), XMin: r.cfg.XMin}
		return tr
	}
	f := toFloats(sizes)
	tr.Mean = stat.Mean(f, nil)
	tr.Std = stat.PopStdDev(f, nil)
	tr.Skewness = Skewness(f)
	tr.LargeFraction = LargeFraction(f, largeCut)
	tr.Fit = FitMLE(sizes, r.cfg.XMin)
	return tr
}

func meanSize(sizes []int) float64 {
	if len(sizes) == 0 {
		return 0
	}
	return stat.Mean(toFloats(sizes), nil)
}

// ConditionSummary aggregates one condition across all trials.
type ConditionSummary struct {
	Condition Condition
	Trials    int

	// Across-trial distribution of per-trial means.
	MeanSize float64
	StdSize  float64

	MeanSkewness      float64
	StdSkewness       float64
	MeanLargeFraction float64

	// MeanAlpha and StdAlpha aggregate the per-trial exponents over the
	// trials whose own fit was valid. NaN when no trial fit was.
	MeanAlpha float64
	StdAlpha  float64

	// Across-trial means of the per-phase sample entropies, over the
	// trials where they were defined. NaN in BFS mode.
	MeanEntropyCoherent float64
	MeanEntropyEffect   float64

	// PooledFit is the MLE fit over all sizes from all trials.
	PooledFit PowerLawFit

	// InvalidFits counts trials whose own fit had insufficient data.
	InvalidFits int
}

// Summarize aggregates results per condition. xMin applies to the pooled
// power-law fit.
func Summarize(results Results, xMin float64) map[Condition]ConditionSummary {
	out := make(map[Condition]ConditionSummary, len(results))
	for cond, trials := range results {
		s := ConditionSummary{Condition: cond, Trials: len(trials)}
		var means, skews, larges, alphas, entCoh, entEff []float64
		var pooled []int
		for _, tr := range trials {
			means = append(means, tr.Mean)
			skews = append(skews, tr.Skewness)
			larges = append(larges, tr.LargeFraction)
			pooled = append(pooled, tr.Sizes...)
			if tr.Fit.Valid() {
				alphas = append(alphas, tr.Fit.Alpha)
			} else {
				s.InvalidFits++
			}
			if !math.IsNaN(tr.EntropyCoherent) {
				entCoh = append(entCoh, tr.EntropyCoherent)
			}
			if !math.IsNaN(tr.EntropyEffect) {
				entEff = append(entEff, tr.EntropyEffect)
			}
		}
		if len(means) > 0 {
			s.MeanSize = stat.Mean(means, nil)
			s.MeanSkewness = stat.Mean(skews, nil)
			s.MeanLargeFraction = stat.Mean(larges, nil)
		}
		if len(means) > 1 {
			s.StdSize = stat.StdDev(means, nil)
			s.StdSkewness = stat.StdDev(skews, nil)
		}
		s.MeanAlpha, s.StdAlpha = math.NaN(), math.NaN()
		if len(alphas) > 0 {
			s.MeanAlpha = stat.Mean(alphas, nil)
		}
		if len(alphas) > 1 {
			s.StdAlpha = stat.StdDev(alphas, nil)
		}
		s.MeanEntropyCoherent, s.MeanEntropyEffect = math.NaN(), math.NaN()
		if len(entCoh) > 0 {
			s.MeanEntropyCoherent = stat.Mean(entCoh, nil)
		}
		if len(entEff) > 0 {
			s.MeanEntropyEffect = stat.Mean(entEff, nil)
		}
		s.PooledFit = FitMLE(pooled, xMin)
		out[cond] = s
	}
	return out
}

// Metric selects which per-trial statistic a comparison tests.
type Metric int

const (
	MetricMean Metric = iota
	MetricSkewness
	MetricLargeFraction
	MetricAlpha
)

func (m Metric) String() string {
	switch m {
	case MetricMean:
		return "mean"
	case MetricSkewness:
		return "skewness"
	case MetricLargeFraction:
		return "large_fraction"
	case MetricAlpha:
		return "alpha"
	}
	return "unknown"
}

// Comparison is a two-condition hypothesis test over a per-trial metric.
type Comparison struct {
	A, B   Condition
	Metric Metric

	T       float64
	P       float64
	CohensD float64

	// NA, NB are the trial counts that entered the test. For MetricAlpha
	// trials with invalid fits are excluded, so these can be smaller
	// than the experiment's trial count.
	NA, NB int
}

// Compare runs a Welch t-test and Cohen's d between two conditions on
// the chosen metric. The headline test of the whole experiment is
//
//	Compare(results, Mimic, QuantumPositive, MetricSkewness)
//
// matched means with significantly different skewness is the signature
// of a structured perturbation.
func Compare(results Results, a, b Condition, m Metric) Comparison {
	va := metricValues(results[a], m)
	vb := metricValues(results[b], m)
	tt := WelchTTest(va, vb)
	return Comparison{
		A: a, B: b, Metric: m,
		T: tt.T, P: tt.P,
		CohensD: CohensD(va, vb),
		NA:      len(va), NB: len(vb),
	}
}

func metricValues(trials []TrialResult, m Metric) []float64 {
	out := make([]float64, 0, len(trials))
	for _, tr := range trials {
		switch m {
		case MetricMean:
			out = append(out, tr.Mean)
		case MetricSkewness:
			out = append(out, tr.Skewness)
		case MetricLargeFraction:
			out = append(out, tr.LargeFraction)
		case MetricAlpha:
			if tr.Fit.Valid() {
				out = append(out, tr.Fit.Alpha)
			}
		}
	}
	return out
}
