package cascadebench

import "gonum.org/v1/gonum/stat"

// ExtractionMode selects how a contiguous above-baseline run of activity
// is turned into an avalanche size.
type ExtractionMode int

const (
	// ExtractDuration counts the steps in the run.
	ExtractDuration ExtractionMode = iota

	// ExtractSum totals the above-baseline activity over the run,
	// weighting long runs by how active they were.
	ExtractSum
)

// ExtractAvalanches scans a per-step activity trace for contiguous runs
// where the count exceeds baseline, and returns one size per run. A run
// still open when the trace ends is emitted at its current extent.
// Returns an empty slice when no step exceeds baseline.
func ExtractAvalanches(counts []int, baseline int, mode ExtractionMode) []int {
	var sizes []int
	duration, sum := 0, 0
	for _, c := range counts {
		if c > baseline {
			duration++
			sum += c - baseline
			continue
		}
		if duration > 0 {
			sizes = append(sizes, avalancheSize(duration, sum, mode))
			duration, sum = 0, 0
		}
	}
	if duration > 0 {
		sizes = append(sizes, avalancheSize(duration, sum, mode))
	}
	if sizes == nil {
		sizes = []int{}
	}
	return sizes
}

func avalancheSize(duration, sum int, mode ExtractionMode) int {
	if mode == ExtractSum {
		return sum
	}
	return duration
}

// FlipCounts returns the Hamming distance between each pair of
// consecutive activation masks: how many nodes changed state at each
// transition. len(out) == len(masks)-1.
func FlipCounts(masks [][]bool) []int {
	if len(masks) < 2 {
		return []int{}
	}
	out := make([]int, len(masks)-1)
	for i := 1; i < len(masks); i++ {
		flips := 0
		for v := range masks[i] {
			if masks[i][v] != masks[i-1][v] {
				flips++
			}
		}
		out[i-1] = flips
	}
	return out
}

// ExtractFlipAvalanches classifies mask transitions as avalanche-active
// when their flip count exceeds mean(flips)·(1+relThreshold), then sums
// the flips over each contiguous active run. This is the extraction used
// for spin-sampler histories, where raw activity counts are meaningless
// but state churn is not.
func ExtractFlipAvalanches(masks [][]bool, relThreshold float64) []int {
	flips := FlipCounts(masks)
	if len(flips) == 0 {
		return []int{}
	}
	f := make([]float64, len(flips))
	for i, v := range flips {
		f[i] = float64(v)
	}
	cut := stat.Mean(f, nil) * (1 + relThreshold)

	var sizes []int
	sum := 0
	active := false
	for _, v := range flips {
		if float64(v) > cut {
			active = true
			sum += v
			continue
		}
		if active {
			sizes = append(sizes, sum)
			sum, active = 0, false
		}
	}
	if active {
		sizes = append(sizes, sum)
	}
	if sizes == nil {
		sizes = []int{}
	}
	return sizes
}
