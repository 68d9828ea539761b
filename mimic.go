package cascadebench

import (
	"log/slog"
	"math"
)

// CalibrationConfig bounds the mimic boost search.
type CalibrationConfig struct {
	// MaxIterations caps the number of measurement runs.
	MaxIterations int

	// Step is the boost increment between iterations.
	Step float64

	// Tolerance is the relative mean-difference below which the search
	// stops early: |measured − target| <= Tolerance·target.
	Tolerance float64

	// MaxBoost caps the uniform shift regardless of convergence.
	MaxBoost float64

	Logger *slog.Logger
}

// DefaultCalibrationConfig returns the bounded search used by the trial
// runner: at most 5 measurement runs, +0.02 per step, capped at 0.15.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		MaxIterations: 5,
		Step:          0.02,
		Tolerance:     0.05,
		MaxBoost:      0.15,
	}
}

// Calibration is the outcome of a mimic boost search.
type Calibration struct {
	Boost      float64
	Achieved   float64 // mean under the final boost
	Target     float64
	Iterations int
	Converged  bool
}

// CalibrateMimic searches for the uniform boost whose measured mean
// matches target. measure must run the mimic condition under the given
// boost and return the resulting mean avalanche size; it is called once
// per iteration starting from boost 0, stepping upward until the mean
// reaches the target, the tolerance is met, the boost cap is hit, or the
// iteration budget runs out.
//
// The search is deliberately best-effort: a structured bias can produce
// a mean no uniform shift reaches, and the comparison downstream only
// needs the closest match, not an exact one. The returned Calibration
// records how close it got.
func CalibrateMimic(target float64, measure func(boost float64) float64, cfg CalibrationConfig) Calibration {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cal := Calibration{Target: target}
	for {
		cal.Achieved = measure(cal.Boost)
		cal.Iterations++

		diff := math.Abs(cal.Achieved - target)
		if target != 0 && diff <= cfg.Tolerance*math.Abs(target) {
			cal.Converged = true
			return cal
		}
		if cal.Achieved >= target {
			// Overshot or matched without meeting the tolerance. The
			// closest boost is this one; stop rather than oscillate.
			cal.Converged = diff == 0
			return cal
		}
		if cal.Iterations >= cfg.MaxIterations || cal.Boost+cfg.Step > cfg.MaxBoost {
			logger.Debug("mimic calibration stopped before target",
				"target", target, "achieved", cal.Achieved,
				"boost", cal.Boost, "iterations", cal.Iterations)
			return cal
		}
		cal.Boost += cfg.Step
	}
}
