package cascadebench

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// minFitSamples is the smallest qualifying-sample count a fit accepts.
// Below it the exponent estimate is noise, so fits return NaN instead.
const minFitSamples = 10

// PowerLawFit is the result of estimating P(s) ~ s^(-α) from avalanche
// sizes.
//
// Interpretation of the exponent for avalanche data:
//
//	α ≈ 1.5    critical branching process (Beggs & Plenz neuronal value)
//	α < 1.5    heavier tail, supercritical tendency
//	α > 2.0    lighter tail, subcritical
type PowerLawFit struct {
	Alpha  float64
	Stderr float64

	// Samples is the number of sizes >= XMin that entered the fit.
	Samples int
	XMin    float64
}

// Valid reports whether the fit had enough data to be meaningful.
func (f PowerLawFit) Valid() bool { return !math.IsNaN(f.Alpha) }

// FitMLE estimates the power-law exponent by maximum likelihood over all
// sizes >= xMin:
//
//	α = 1 + n / Σ ln(sᵢ/x_min)
//	SE = (α − 1) / √n
//
// Fewer than 10 qualifying sizes yields Alpha=Stderr=NaN. Insufficient
// data is an expected outcome for quiet trials, not an error.
func FitMLE(sizes []int, xMin float64) PowerLawFit {
	if xMin <= 0 {
		xMin = 1
	}
	fit := PowerLawFit{Alpha: math.NaN(), Stderr: math.NaN(), XMin: xMin}

	sumLog := 0.0
	for _, s := range sizes {
		if float64(s) >= xMin {
			fit.Samples++
			sumLog += math.Log(float64(s) / xMin)
		}
	}
	if fit.Samples < minFitSamples || sumLog == 0 {
		return fit
	}
	n := float64(fit.Samples)
	fit.Alpha = 1 + n/sumLog
	fit.Stderr = (fit.Alpha - 1) / math.Sqrt(n)
	return fit
}

// LogBinnedFit is the regression estimate plus the binned density curve
// it was fitted to. Centers and densities are plain slices so plotting
// and export layers can consume them directly.
type LogBinnedFit struct {
	PowerLawFit

	// BinCenters are the geometric-mean centers of the occupied bins,
	// ascending.
	BinCenters []float64

	// BinDensities are the count-per-unit-width densities of those bins,
	// aligned with BinCenters.
	BinDensities []float64
}

// FitLogBinned estimates the exponent by ordinary least squares on
// log-binned density: sizes are histogrammed into nBins log-spaced bins,
// each bin contributes (geometric-mean center, count/width) as a point,
// and α is the negated slope of log density vs log size.
//
// Less efficient than MLE but robust to the bin-noise that plagues raw
// log-log histograms. Needs at least 3 occupied bins and 10 qualifying
// sizes; otherwise the exponent is NaN (the bin curve is still returned
// when binning itself was possible).
func FitLogBinned(sizes []int, xMin float64, nBins int) LogBinnedFit {
	if xMin <= 0 {
		xMin = 1
	}
	if nBins < 3 {
		nBins = 3
	}
	fit := LogBinnedFit{
		PowerLawFit: PowerLawFit{Alpha: math.NaN(), Stderr: math.NaN(), XMin: xMin},
	}

	var xs []float64
	maxS := xMin
	for _, s := range sizes {
		v := float64(s)
		if v >= xMin {
			xs = append(xs, v)
			if v > maxS {
				maxS = v
			}
		}
	}
	fit.Samples = len(xs)
	if fit.Samples < minFitSamples || maxS <= xMin {
		return fit
	}

	// Log-spaced bin edges over [xMin, maxS], top edge nudged so the
	// maximum lands inside the last bin.
	edges := make([]float64, nBins+1)
	logLo, logHi := math.Log(xMin), math.Log(maxS*1.0001)
	for i := range edges {
		edges[i] = math.Exp(logLo + (logHi-logLo)*float64(i)/float64(nBins))
	}

	counts := make([]float64, nBins)
	for _, v := range xs {
		b := int(float64(nBins) * (math.Log(v) - logLo) / (logHi - logLo))
		if b < 0 {
			b = 0
		}
		if b >= nBins {
			b = nBins - 1
		}
		counts[b]++
	}

	var logX, logY []float64
	for b := 0; b < nBins; b++ {
		if counts[b] == 0 {
			continue
		}
		center := math.Sqrt(edges[b] * edges[b+1])
		density := counts[b] / (edges[b+1] - edges[b])
		fit.BinCenters = append(fit.BinCenters, center)
		fit.BinDensities = append(fit.BinDensities, density)
		logX = append(logX, math.Log(center))
		logY = append(logY, math.Log(density))
	}
	if len(logX) < 3 {
		return fit
	}

	_, slope := stat.LinearRegression(logX, logY, nil, false)
	fit.Alpha = -slope
	fit.Stderr = slopeStderr(logX, logY, slope)
	return fit
}

// slopeStderr is the OLS standard error of the regression slope.
func slopeStderr(x, y []float64, slope float64) float64 {
	n := len(x)
	if n < 3 {
		return math.NaN()
	}
	mx, my := stat.Mean(x, nil), stat.Mean(y, nil)
	var ssr, sxx float64
	for i := range x {
		dx := x[i] - mx
		resid := (y[i] - my) - slope*dx
		ssr += resid * resid
		sxx += dx * dx
	}
	if sxx == 0 {
		return math.NaN()
	}
	return math.Sqrt(ssr / float64(n-2) / sxx)
}

// KSStatistic measures goodness of fit as the maximum distance between
// the empirical CDF of sizes >= xMin and the fitted power-law CDF
//
//	F(x) = 1 − (x/x_min)^−(α−1)
//
// Values below ~0.1 indicate a plausible power law at typical sample
// sizes. Returns NaN when the fit itself was invalid or no sizes
// qualify.
func KSStatistic(sizes []int, fit PowerLawFit) float64 {
	if !fit.Valid() || fit.Alpha <= 1 {
		return math.NaN()
	}
	var xs []float64
	for _, s := range sizes {
		if float64(s) >= fit.XMin {
			xs = append(xs, float64(s))
		}
	}
	if len(xs) == 0 {
		return math.NaN()
	}
	sort.Float64s(xs)

	n := float64(len(xs))
	maxDist := 0.0
	for i, x := range xs {
		model := 1 - math.Pow(x/fit.XMin, -(fit.Alpha-1))
		lo, hi := float64(i)/n, float64(i+1)/n
		if d := math.Abs(model - lo); d > maxDist {
			maxDist = d
		}
		if d := math.Abs(model - hi); d > maxDist {
			maxDist = d
		}
	}
	return maxDist
}

// SamplePowerLaw draws n sizes from a discrete power law with the given
// exponent by inverse-transform sampling of the continuous law
//
//	x = x_min · (1 − u)^(−1/(α−1))
//
// truncated at xMax and rounded down. Used to build synthetic surrogate
// distributions for comparison against measured avalanches.
func SamplePowerLaw(n int, alpha, xMin, xMax float64, rng *rand.Rand) []int {
	out := make([]int, n)
	for i := range out {
		u := rng.Float64()
		x := xMin * math.Pow(1-u, -1/(alpha-1))
		if x > xMax {
			x = xMax
		}
		out[i] = int(x)
	}
	return out
}
