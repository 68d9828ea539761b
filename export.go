package cascadebench

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// TrialRecord is the flat row view of one TrialResult, the shape
// external analysis tools consume. One row per trial per condition, no
// nesting.
type TrialRecord struct {
	Condition       string
	Trial           int
	Avalanches      int
	Mean            float64
	Std             float64
	Skewness        float64
	LargeFraction   float64
	Alpha           float64
	AlphaStderr     float64
	EntropyCoherent float64
	EntropyEffect   float64
	MimicBoost      float64
	MimicTarget     float64
}

// Records flattens results into rows ordered by canonical condition
// order, then trial index.
func Records(results Results) []TrialRecord {
	var rows []TrialRecord
	for _, cond := range Conditions {
		for _, tr := range results[cond] {
			rows = append(rows, TrialRecord{
				Condition:       string(tr.Condition),
				Trial:           tr.Trial,
				Avalanches:      len(tr.Sizes),
				Mean:            tr.Mean,
				Std:             tr.Std,
				Skewness:        tr.Skewness,
				LargeFraction:   tr.LargeFraction,
				Alpha:           tr.Fit.Alpha,
				AlphaStderr:     tr.Fit.Stderr,
				EntropyCoherent: tr.EntropyCoherent,
				EntropyEffect:   tr.EntropyEffect,
				MimicBoost:      tr.MimicBoost,
				MimicTarget:     tr.MimicTarget,
			})
		}
	}
	return rows
}

// WriteTrialCSV writes one row per trial per condition. NaN statistics
// serialize as empty cells.
func WriteTrialCSV(w io.Writer, rows []TrialRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		"condition", "trial", "avalanches", "mean", "std", "skewness",
		"large_fraction", "alpha", "alpha_stderr",
		"entropy_coherent", "entropy_effect", "mimic_boost", "mimic_target",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing trial CSV header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Condition,
			strconv.Itoa(r.Trial),
			strconv.Itoa(r.Avalanches),
			floatCell(r.Mean),
			floatCell(r.Std),
			floatCell(r.Skewness),
			floatCell(r.LargeFraction),
			floatCell(r.Alpha),
			floatCell(r.AlphaStderr),
			floatCell(r.EntropyCoherent),
			floatCell(r.EntropyEffect),
			floatCell(r.MimicBoost),
			floatCell(r.MimicTarget),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing trial CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSizesCSV writes every raw avalanche size: condition, trial, size.
// This is the file the power-law refits downstream start from.
func WriteSizesCSV(w io.Writer, results Results) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"condition", "trial", "size"}); err != nil {
		return fmt.Errorf("writing sizes CSV header: %w", err)
	}
	for _, cond := range Conditions {
		for _, tr := range results[cond] {
			for _, s := range tr.Sizes {
				rec := []string{string(cond), strconv.Itoa(tr.Trial), strconv.Itoa(s)}
				if err := cw.Write(rec); err != nil {
					return fmt.Errorf("writing sizes CSV row: %w", err)
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes one row per condition with the across-trial
// aggregates.
func WriteSummaryCSV(w io.Writer, summaries map[Condition]ConditionSummary) error {
	cw := csv.NewWriter(w)
	header := []string{
		"condition", "trials", "mean_size", "std_size",
		"mean_skewness", "std_skewness", "mean_large_fraction",
		"mean_alpha", "std_alpha",
		"mean_entropy_coherent", "mean_entropy_effect",
		"pooled_alpha", "pooled_alpha_stderr", "invalid_fits",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing summary CSV header: %w", err)
	}
	for _, cond := range Conditions {
		s, ok := summaries[cond]
		if !ok {
			continue
		}
		rec := []string{
			string(cond),
			strconv.Itoa(s.Trials),
			floatCell(s.MeanSize),
			floatCell(s.StdSize),
			floatCell(s.MeanSkewness),
			floatCell(s.StdSkewness),
			floatCell(s.MeanLargeFraction),
			floatCell(s.MeanAlpha),
			floatCell(s.StdAlpha),
			floatCell(s.MeanEntropyCoherent),
			floatCell(s.MeanEntropyEffect),
			floatCell(s.PooledFit.Alpha),
			floatCell(s.PooledFit.Stderr),
			strconv.Itoa(s.InvalidFits),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing summary CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func floatCell(v float64) string {
	if v != v { // NaN
		return ""
	}
	return strconv.FormatFloat(v, 'g', 10, 64)
}
