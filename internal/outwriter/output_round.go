package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
)

// WriteRoundResults outputs a round view, dispatching based on the output format configured.
func WriteRoundResults(result schema.AggregateResult, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	return dispatch(cfg,
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeJSON(w, result)
			}, "Wrote JSON")
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeRoundCSV(w, result, fmtFloat)
			}, "Wrote CSV")
		},
		func() error {
			return writeXLSXResults(cfg, roundSheets(result))
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeRoundTable(w, result, cfg, fmtFloat)
			}, "Wrote table")
		},
	)
}

// joinCells renders the visible rounds of one estimator as "3.00 / 4.00 / Pending".
func joinCells(cells []schema.Cell, fmtFloat func(float64) string) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.Display(fmtFloat)
	}
	return strings.Join(parts, " / ")
}

// writeRoundTable generates and writes the module table, the estimator summary and the averages.
func writeRoundTable(w io.Writer, result schema.AggregateResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "%s view (%d modules, %d estimators)\n", result.Round, len(result.Modules), result.EstimatorCount); err != nil {
		return err
	}
	if len(result.Estimators) == 0 {
		_, err := fmt.Fprintln(w, "No estimates submitted yet.")
		return err
	}

	// 1. Module table: one column per estimator
	headers := []string{"#", "Module", "Description"}
	for _, est := range result.Estimators {
		headers = append(headers, est.EstimatorName)
	}
	descWidth := getMaxDescriptionWidth(cfg, len(result.Estimators))
	var data [][]string
	for _, row := range result.Modules {
		line := []string{
			strconv.Itoa(row.Index + 1),
			row.Name,
			contract.TruncateText(row.Description, descWidth),
		}
		for _, est := range row.Estimates {
			line = append(line, joinCells(est.Cells, fmtFloat))
		}
		data = append(data, line)
	}
	if err := writeTable(w, headers, data); err != nil {
		return err
	}

	// 2. Estimator summary
	visible := schema.RoundsUpTo(result.Round)
	headers = []string{"Estimator"}
	for _, r := range visible {
		headers = append(headers, r.String())
	}
	if len(visible) > 1 {
		headers = append(headers, "Combined")
	}
	headers = append(headers, "Highest", "Lowest")
	data = nil
	for _, est := range result.Estimators {
		line := []string{est.EstimatorName}
		for _, r := range visible {
			line = append(line, est.Total(r).Display(fmtFloat))
		}
		if len(visible) > 1 {
			line = append(line, fmtFloat(est.CombinedTotal))
		}
		line = append(line, est.DisplayHighest(fmtFloat), est.DisplayLowest(fmtFloat))
		data = append(data, line)
	}
	if err := writeTable(w, headers, data); err != nil {
		return err
	}

	// 3. Averages
	for _, avg := range result.Averages {
		if _, err := fmt.Fprintf(w, "Average %s: %s\n", strings.ToLower(avg.Round.String()), fmtFloat(avg.Average)); err != nil {
			return err
		}
	}
	if len(visible) > 1 {
		if _, err := fmt.Fprintf(w, "Combined average: %s\n", result.DisplayCombinedAverage(fmtFloat)); err != nil {
			return err
		}
	}
	return nil
}

// writeRoundCSV writes one row per module, estimator and visible round.
func writeRoundCSV(w io.Writer, result schema.AggregateResult, fmtFloat func(float64) string) error {
	header := []string{"module_index", "module", "estimator", "round", "estimate", "submitted"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, row := range result.Modules {
			for _, est := range row.Estimates {
				for _, c := range est.Cells {
					rec := []string{
						strconv.Itoa(row.Index + 1),
						row.Name,
						est.EstimatorName,
						strconv.Itoa(int(c.Round)),
						c.Display(fmtFloat),
						strconv.FormatBool(c.Submitted),
					}
					if err := cw.Write(rec); err != nil {
						return fmt.Errorf("failed to write CSV row: %w", err)
					}
				}
			}
		}
		return nil
	})
}

// roundSheets lays out the round view as Estimates, Summary and Averages worksheets.
func roundSheets(result schema.AggregateResult) []sheet {
	visible := schema.RoundsUpTo(result.Round)

	estimates := sheet{name: "Estimates", headers: []string{"#", "Module", "Description"}}
	for _, est := range result.Estimators {
		for _, r := range visible {
			estimates.headers = append(estimates.headers, fmt.Sprintf("%s R%d", est.EstimatorName, int(r)))
		}
	}
	for _, row := range result.Modules {
		line := []any{row.Index + 1, row.Name, row.Description}
		for _, est := range row.Estimates {
			for _, c := range est.Cells {
				if c.Submitted {
					line = append(line, c.Value)
				} else {
					line = append(line, schema.PendingLabel)
				}
			}
		}
		estimates.rows = append(estimates.rows, line)
	}

	summary := sheet{name: "Summary", headers: []string{"Estimator"}}
	for _, r := range visible {
		summary.headers = append(summary.headers, r.String())
	}
	summary.headers = append(summary.headers, "Combined", "Highest", "Lowest")
	for _, est := range result.Estimators {
		line := []any{est.EstimatorName}
		for _, r := range visible {
			if t := est.Total(r); t.Submitted {
				line = append(line, t.Total)
			} else {
				line = append(line, schema.PendingLabel)
			}
		}
		line = append(line, est.CombinedTotal)
		if est.HasEstimates {
			line = append(line, est.Highest, est.Lowest)
		} else {
			line = append(line, schema.NotAvailableLabel, schema.NotAvailableLabel)
		}
		summary.rows = append(summary.rows, line)
	}

	averages := sheet{name: "Averages", headers: []string{"Round", "Average"}}
	for _, avg := range result.Averages {
		averages.rows = append(averages.rows, []any{avg.Round.String(), avg.Average})
	}
	if result.CombinedAverage != nil {
		averages.rows = append(averages.rows, []any{"Combined", *result.CombinedAverage})
	} else {
		averages.rows = append(averages.rows, []any{"Combined", schema.NotAvailableLabel})
	}

	return []sheet{estimates, summary, averages}
}
