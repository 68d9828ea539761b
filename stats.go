package cascadebench

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// toFloats converts avalanche sizes for the statistics routines.
func toFloats(sizes []int) []float64 {
	out := make([]float64, len(sizes))
	for i, s := range sizes {
		out[i] = float64(s)
	}
	return out
}

// Skewness returns the Fisher (population) skewness
//
//	g₁ = mean(((x − μ)/σ)³)
//
// using the population standard deviation. A constant series (σ = 0) or
// an empty series returns 0: degenerate inputs are legitimate outcomes
// of quiet trials and must not poison downstream aggregation.
func Skewness(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	mu := stat.Mean(x, nil)
	sigma := stat.PopStdDev(x, nil)
	if sigma == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		z := (v - mu) / sigma
		sum += z * z * z
	}
	return sum / float64(len(x))
}

// LargeFraction returns the fraction of values strictly above threshold.
// Empty input returns 0.
func LargeFraction(x []float64, threshold float64) float64 {
	if len(x) == 0 {
		return 0
	}
	n := 0
	for _, v := range x {
		if v > threshold {
			n++
		}
	}
	return float64(n) / float64(len(x))
}

// Percentile returns the p-quantile (p in [0,1]) of x using the
// empirical distribution. The input is not modified.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ShannonEntropy treats the non-negative values as an unnormalized
// distribution and returns its Shannon entropy in bits. All-zero or
// empty input returns 0.
func ShannonEntropy(x []float64) float64 {
	var total float64
	for _, v := range x {
		if v > 0 {
			total += v
		}
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, v := range x {
		if v <= 0 {
			continue
		}
		p := v / total
		h -= p * math.Log2(p)
	}
	return h
}

// SampleEntropy computes SampEn(m, r) of a time series: the negative log
// of the conditional probability that sequences matching for m points
// (within tolerance r, Chebyshev distance) also match for m+1 points.
// Higher values mean less self-similarity, i.e. more irregular activity.
//
// Pass r <= 0 to use the conventional 0.2·std(series). Series shorter
// than m+2 points return NaN; a zero match count at either length also
// returns NaN (undefined, not infinite).
func SampleEntropy(series []float64, m int, r float64) float64 {
	n := len(series)
	if m < 1 || n < m+2 {
		return math.NaN()
	}
	if r <= 0 {
		r = 0.2 * stat.PopStdDev(series, nil)
		if r == 0 {
			return math.NaN()
		}
	}

	countMatches := func(length int) int {
		count := 0
		for i := 0; i+length <= n; i++ {
			for j := i + 1; j+length <= n; j++ {
				match := true
				for k := 0; k < length; k++ {
					if math.Abs(series[i+k]-series[j+k]) > r {
						match = false
						break
					}
				}
				if match {
					count++
				}
			}
		}
		return count
	}

	b := countMatches(m)
	a := countMatches(m + 1)
	if a == 0 || b == 0 {
		return math.NaN()
	}
	return -math.Log(float64(a) / float64(b))
}

// TTestResult is a two-sample Welch t-test outcome.
type TTestResult struct {
	T  float64
	P  float64 // two-sided
	DF float64
}

// WelchTTest compares the means of two samples without assuming equal
// variance. Degenerate inputs (either sample shorter than 2, or both
// variances zero) produce T=0, P=1 for equal means and T=±Inf, P=0 for
// unequal means rather than NaN.
func WelchTTest(a, b []float64) TTestResult {
	if len(a) < 2 || len(b) < 2 {
		return TTestResult{T: 0, P: 1, DF: 0}
	}
	ma, mb := stat.Mean(a, nil), stat.Mean(b, nil)
	va, vb := stat.Variance(a, nil), stat.Variance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	se2 := va/na + vb/nb
	if se2 == 0 {
		if ma == mb {
			return TTestResult{T: 0, P: 1, DF: na + nb - 2}
		}
		return TTestResult{T: math.Inf(sign(ma - mb)), P: 0, DF: na + nb - 2}
	}

	t := (ma - mb) / math.Sqrt(se2)
	// Welch–Satterthwaite degrees of freedom.
	df := se2 * se2 / (va*va/(na*na*(na-1)) + vb*vb/(nb*nb*(nb-1)))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(math.Abs(t)))
	return TTestResult{T: t, P: p, DF: df}
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}

// CohensD returns the standardized mean difference (a − b) / s_pooled
// with the usual (n−1)-weighted pooled standard deviation.
//
// Interpretation of |d|:
//
//	0.2  small effect
//	0.5  medium effect
//	0.8  large effect
//
// Zero pooled deviation or a sample shorter than 2 returns 0.
func CohensD(a, b []float64) float64 {
	if len(a) < 2 || len(b) < 2 {
		return 0
	}
	na, nb := float64(len(a)), float64(len(b))
	va, vb := stat.Variance(a, nil), stat.Variance(b, nil)
	pooled := math.Sqrt(((na-1)*va + (nb-1)*vb) / (na + nb - 2))
	if pooled == 0 {
		return 0
	}
	return (stat.Mean(a, nil) - stat.Mean(b, nil)) / pooled
}
