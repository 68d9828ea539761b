package cascadebench

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"
)

func sampleResults() Results {
	results := make(Results)
	for i, cond := range Conditions {
		results[cond] = []TrialResult{
			{
				Trial:     0,
				Condition: cond,
				Sizes:     []int{1, 2, 3},
				Mean:      float64(i + 2),
				Std:       1.5,
				Skewness:  0.3,
				Fit:       PowerLawFit{Alpha: 1.5, Stderr: 0.05, Samples: 3, XMin: 1},
			},
			{
				Trial:           1,
				Condition:       cond,
				Sizes:           []int{},
				Fit:             PowerLawFit{Alpha: math.NaN(), Stderr: math.NaN(), XMin: 1},
				EntropyCoherent: math.NaN(),
				EntropyEffect:   math.NaN(),
			},
		}
	}
	return results
}

func TestRecords(t *testing.T) {
	rows := Records(sampleResults())
	if len(rows) != 8 {
		t.Fatalf("%d records, want 8 (4 conditions x 2 trials)", len(rows))
	}

	// Canonical order: all of one condition's trials before the next.
	for i, cond := range Conditions {
		if rows[2*i].Condition != string(cond) || rows[2*i].Trial != 0 {
			t.Errorf("Row %d = %s/%d, want %s/0", 2*i, rows[2*i].Condition, rows[2*i].Trial, cond)
		}
		if rows[2*i+1].Trial != 1 {
			t.Errorf("Row %d trial = %d, want 1", 2*i+1, rows[2*i+1].Trial)
		}
	}
}

func TestWriteTrialCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTrialCSV(&buf, Records(sampleResults())); err != nil {
		t.Fatalf("WriteTrialCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Re-parsing CSV failed: %v", err)
	}
	if len(rows) != 9 {
		t.Fatalf("%d CSV rows, want 9 (header + 8)", len(rows))
	}
	if rows[0][0] != "condition" || rows[0][7] != "alpha" {
		t.Errorf("Unexpected header: %v", rows[0])
	}

	// Quiet trial: NaN alpha serializes as an empty cell.
	quiet := rows[2]
	if quiet[7] != "" {
		t.Errorf("NaN alpha cell = %q, want empty", quiet[7])
	}
	t.Logf("✓ Trial CSV: 8 rows, NaN as empty cells")
}

func TestWriteSizesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSizesCSV(&buf, sampleResults()); err != nil {
		t.Fatalf("WriteSizesCSV failed: %v", err)
	}
	raw := buf.String()
	rows, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("Re-parsing CSV failed: %v", err)
	}
	// Header + 3 sizes per condition; empty trials contribute nothing.
	if len(rows) != 1+4*3 {
		t.Fatalf("%d CSV rows, want %d", len(rows), 1+4*3)
	}

	// The sizes file round-trips through the reference loader.
	sizes, err := ReadSizesCSV(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadSizesCSV failed: %v", err)
	}
	if len(sizes) != 12 {
		t.Errorf("Round-trip recovered %d sizes, want 12", len(sizes))
	}
	t.Logf("✓ Sizes CSV: %d rows, round-trips through the loader", len(rows)-1)
}

func TestWriteSummaryCSV(t *testing.T) {
	summaries := Summarize(sampleResults(), 1)
	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, summaries); err != nil {
		t.Fatalf("WriteSummaryCSV failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Re-parsing CSV failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("%d CSV rows, want 5 (header + 4 conditions)", len(rows))
	}
	if rows[1][0] != string(Classical) {
		t.Errorf("First condition = %q, want %q", rows[1][0], Classical)
	}

	col := -1
	for i, name := range rows[0] {
		if name == "mean_alpha" {
			col = i
		}
	}
	if col < 0 {
		t.Fatalf("Summary header lacks mean_alpha: %v", rows[0])
	}
	// One valid fit (α=1.5) and one invalid per condition: the per-trial
	// aggregate averages the valid one.
	if rows[1][col] != "1.5" {
		t.Errorf("mean_alpha cell = %q, want 1.5", rows[1][col])
	}
}
