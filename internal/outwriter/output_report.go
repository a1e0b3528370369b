package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
)

// reportJSON is the JSON shape of a final report.
// Numbers keep full precision; only the consensus label is derived.
type reportJSON struct {
	schema.Report
	Computable bool   `json:"computable"`
	Consensus  string `json:"consensus"`
}

// consensusLabel returns the plain consensus label, or NotAvailableLabel when
// the interval is not computable.
func consensusLabel(stats schema.Statistics) string {
	if !stats.Computable() {
		return schema.NotAvailableLabel
	}
	return contract.GetPlainLabel(stats.RelativeSpread())
}

// WriteReportResults outputs the final report, dispatching based on the output format configured.
func WriteReportResults(report schema.Report, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	return dispatch(cfg,
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeJSON(w, reportJSON{
					Report:     report,
					Computable: report.Statistics.Computable(),
					Consensus:  consensusLabel(report.Statistics),
				})
			}, "Wrote JSON")
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeReportCSV(w, report, fmtFloat, intFmt)
			}, "Wrote CSV")
		},
		func() error {
			return writeXLSXResults(cfg, reportSheets(report))
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeReportTable(w, report, cfg, fmtFloat, intFmt)
			}, "Wrote table")
		},
	)
}

// formatInterval renders "[lower, upper]" or the insufficient data label.
func formatInterval(stats schema.Statistics, fmtFloat func(float64) string) string {
	lower, ok := stats.LowerBound()
	if !ok {
		return schema.InsufficientDataLabel
	}
	upper, _ := stats.UpperBound()
	return fmt.Sprintf("[%s, %s]", fmtFloat(lower), fmtFloat(upper))
}

// reportMetrics returns the metric/value pairs shared by the table and CSV views.
func reportMetrics(report schema.Report, fmtFloat func(float64) string, intFmt string) [][]string {
	stats := report.Statistics
	return [][]string{
		{"project", report.Project},
		{"confidence_level", string(stats.ConfidenceLevel)},
		{"stats_mode", string(stats.Mode)},
		{"z_score", strconv.FormatFloat(stats.ZScore, 'f', -1, 64)},
		{"sample_size", fmt.Sprintf(intFmt, stats.SampleSize)},
		{"mean_effort", fmtFloat(stats.MeanEffort)},
		{"standard_deviation", fmtFloat(stats.StandardDeviation)},
		{"standard_error", fmtFloat(stats.StandardError)},
		{"confidence_interval", formatInterval(stats, fmtFloat)},
		{"consensus", consensusLabel(stats)},
	}
}

// writeReportTable writes the round-3 view followed by the final statistics.
func writeReportTable(w io.Writer, report schema.Report, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	if err := writeRoundTable(w, report.Aggregate, cfg, fmtFloat); err != nil {
		return err
	}

	data := reportMetrics(report, fmtFloat, intFmt)
	// The table view colors the consensus label
	if report.Statistics.Computable() {
		data[len(data)-1][1] = contract.GetColorLabel(report.Statistics.RelativeSpread())
	}
	if err := writeTable(w, []string{"Metric", "Value"}, data); err != nil {
		return err
	}
	if !report.Statistics.Computable() {
		if _, err := fmt.Fprintf(w, "Confidence interval needs at least two estimators with data (have %d)\n", report.Statistics.SampleSize); err != nil {
			return err
		}
	}
	return nil
}

// writeReportCSV writes the final statistics as metric,value rows.
func writeReportCSV(w io.Writer, report schema.Report, fmtFloat func(float64) string, intFmt string) error {
	return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
		for _, rec := range reportMetrics(report, fmtFloat, intFmt) {
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}

// reportSheets adds a Statistics worksheet in front of the round-3 sheets.
func reportSheets(report schema.Report) []sheet {
	stats := report.Statistics
	statistics := sheet{
		name:    "Statistics",
		headers: []string{"Metric", "Value"},
		rows: [][]any{
			{"Project", report.Project},
			{"Confidence level", string(stats.ConfidenceLevel)},
			{"Stats mode", string(stats.Mode)},
			{"Z score", stats.ZScore},
			{"Sample size", stats.SampleSize},
			{"Mean effort", stats.MeanEffort},
			{"Standard deviation", stats.StandardDeviation},
			{"Standard error", stats.StandardError},
		},
	}
	if lower, ok := stats.LowerBound(); ok {
		upper, _ := stats.UpperBound()
		statistics.rows = append(statistics.rows, []any{"Lower bound", lower}, []any{"Upper bound", upper})
	} else {
		statistics.rows = append(statistics.rows,
			[]any{"Lower bound", schema.InsufficientDataLabel},
			[]any{"Upper bound", schema.InsufficientDataLabel})
	}
	statistics.rows = append(statistics.rows, []any{"Consensus", consensusLabel(stats)})

	return append([]sheet{statistics}, roundSheets(report.Aggregate)...)
}
