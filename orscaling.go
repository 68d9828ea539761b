package cascadebench

// Objective-reduction collapse-time arithmetic. Maps a coherent ensemble
// size to a collapse timescale and from there to bias parameters, so a
// physical ensemble-size axis can drive the perturbation sweep.

// Physical constants (SI).
const (
	// PlanckReduced is ℏ in J·s.
	PlanckReduced = 1.0545718e-34

	// GravitationalG is Newton's constant in m³/(kg·s²).
	GravitationalG = 6.67430e-11
)

// EnsembleModel fixes the per-element mass and displacement entering the
// gravitational self-energy E_G = G·m²/d of one superposed element.
type EnsembleModel struct {
	// Mass of one element in kg.
	Mass float64

	// Separation between superposed configurations in m.
	Separation float64

	// ReferenceN anchors the bias mapping: an ensemble of this size maps
	// to the unscaled bias fraction.
	ReferenceN float64
}

// DefaultEnsembleModel returns tubulin-scale parameters.
func DefaultEnsembleModel() EnsembleModel {
	return EnsembleModel{
		Mass:       1e-22,
		Separation: 1e-11,
		ReferenceN: 1e9,
	}
}

// CollapseTime returns τ = ℏ / (N · G·m²/d): larger coherent ensembles
// collapse faster.
func (m EnsembleModel) CollapseTime(n float64) float64 {
	eg := n * GravitationalG * m.Mass * m.Mass / m.Separation
	return PlanckReduced / eg
}

// BiasFraction scales a base bias fraction by the collapse-rate ratio
// τ_ref/τ(N), clamped to [0.5, 2] so an extreme ensemble size cannot
// push the fraction outside a meaningful range.
func (m EnsembleModel) BiasFraction(n, base float64) float64 {
	ratio := m.CollapseTime(m.ReferenceN) / m.CollapseTime(n)
	return base * clip(ratio, 0.5, 2.0)
}

// BiasStrength scales a base strength by the same ratio with the wider
// [0.1, 10] clamp used for effect magnitude.
func (m EnsembleModel) BiasStrength(n, base float64) float64 {
	ratio := m.CollapseTime(m.ReferenceN) / m.CollapseTime(n)
	return base * clip(ratio, 0.1, 10.0)
}

// SweepPoint is one ensemble size's outcome in a parameter sweep.
type SweepPoint struct {
	Ensemble float64
	Tau      float64
	Fraction float64

	// QuantumPositive summary at this fraction.
	MeanSize      float64
	MeanSkewness  float64
	LargeFraction float64
}

// SweepEnsemble reruns the experiment across ensemble sizes, deriving
// the bias fraction from the collapse-time model at each point and
// reporting the quantum_positive condition's summary statistics.
func (r *Runner) SweepEnsemble(ensembles []float64, model EnsembleModel) ([]SweepPoint, error) {
	points := make([]SweepPoint, 0, len(ensembles))
	for _, n := range ensembles {
		cfg := r.cfg
		cfg.Bias.Fraction = clip(model.BiasFraction(n, r.cfg.Bias.Fraction), 0, 1)

		runner, err := NewRunner(cfg)
		if err != nil {
			return nil, err
		}
		results, err := runner.Run()
		if err != nil {
			return nil, err
		}
		s := Summarize(results, cfg.XMin)[QuantumPositive]
		points = append(points, SweepPoint{
			Ensemble:      n,
			Tau:           model.CollapseTime(n),
			Fraction:      cfg.Bias.Fraction,
			MeanSize:      s.MeanSize,
			MeanSkewness:  s.MeanSkewness,
			LargeFraction: s.MeanLargeFraction,
		})
	}
	return points, nil
}
