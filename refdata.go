package cascadebench

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
)

// ReadSizesCSV parses avalanche sizes from a CSV stream with a header
// row. The size column is located by name ("size" or "avalanche_size",
// case-insensitive); non-numeric rows are skipped.
func ReadSizesCSV(r io.Reader) ([]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading size CSV header: %w", err)
	}
	col := -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "size", "avalanche_size":
			col = i
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("size CSV: no size column in header %v", header)
	}

	var sizes []int
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading size CSV row: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if err != nil || v < 1 {
			continue
		}
		sizes = append(sizes, int(v))
	}
	return sizes, nil
}

// LoadReferenceSizes reads a recorded avalanche-size dataset from disk,
// for comparing fitted exponents against published distributions.
func LoadReferenceSizes(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reference data: %w", err)
	}
	defer f.Close()
	return ReadSizesCSV(f)
}

// BeggsAlpha is the canonical neuronal-avalanche exponent from the
// cortical slice literature.
const BeggsAlpha = 1.5

// SyntheticReference draws a surrogate avalanche-size dataset from a
// literature-valued power law, the stand-in when no recorded dataset is
// available.
func SyntheticReference(n int, rng *rand.Rand) []int {
	return SamplePowerLaw(n, BeggsAlpha, 1, 1e4, rng)
}
