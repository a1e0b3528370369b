package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
)

// WriteModuleList outputs the module list with 1-based positions.
func WriteModuleList(modules []schema.Module, locked bool, cfg *contract.Config) error {
	type moduleJSON struct {
		Position    int    `json:"position"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	rows := make([]moduleJSON, len(modules))
	for i, m := range modules {
		rows[i] = moduleJSON{Position: i + 1, Name: m.Name, Description: m.Description}
	}

	return dispatch(cfg,
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeJSON(w, struct {
					Locked  bool         `json:"locked"`
					Modules []moduleJSON `json:"modules"`
				}{locked, rows})
			}, "Wrote JSON")
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeCSVWithHeader(w, []string{"position", "name", "description"}, func(cw *csv.Writer) error {
					for _, r := range rows {
						if err := cw.Write([]string{strconv.Itoa(r.Position), r.Name, r.Description}); err != nil {
							return fmt.Errorf("failed to write CSV row: %w", err)
						}
					}
					return nil
				})
			}, "Wrote CSV")
		},
		func() error {
			sh := sheet{name: "Modules", headers: []string{"#", "Module", "Description"}}
			for _, r := range rows {
				sh.rows = append(sh.rows, []any{r.Position, r.Name, r.Description})
			}
			return writeXLSXResults(cfg, []sheet{sh})
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				descWidth := getMaxDescriptionWidth(cfg, 0)
				data := make([][]string, len(rows))
				for i, r := range rows {
					data[i] = []string{strconv.Itoa(r.Position), r.Name, contract.TruncateText(r.Description, descWidth)}
				}
				if err := writeTable(w, []string{"#", "Module", "Description"}, data); err != nil {
					return err
				}
				state := "open for edits"
				if locked {
					state = "locked, estimation has started"
				}
				_, err := fmt.Fprintf(w, "%d modules (%s)\n", len(rows), state)
				return err
			}, "Wrote table")
		},
	)
}

// WriteEstimatorList outputs the estimators and where each stands in the workflow.
func WriteEstimatorList(estimators []schema.EstimatorEligibility, round schema.Round, cfg *contract.Config) error {
	headers := []string{"Estimator", "Submitted rounds", "Next round"}
	return dispatch(cfg,
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeJSON(w, estimators)
			}, "Wrote JSON")
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeCSVWithHeader(w, []string{"estimator", "submitted_rounds", "next_round"}, func(cw *csv.Writer) error {
					for _, e := range estimators {
						if err := cw.Write([]string{e.EstimatorName, formatRounds(e.SubmittedRounds), formatNextRound(e.NextRound)}); err != nil {
							return fmt.Errorf("failed to write CSV row: %w", err)
						}
					}
					return nil
				})
			}, "Wrote CSV")
		},
		func() error {
			sh := sheet{name: "Estimators", headers: headers}
			for _, e := range estimators {
				sh.rows = append(sh.rows, []any{e.EstimatorName, formatRounds(e.SubmittedRounds), formatNextRound(e.NextRound)})
			}
			return writeXLSXResults(cfg, []sheet{sh})
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				data := make([][]string, len(estimators))
				for i, e := range estimators {
					data[i] = []string{e.EstimatorName, formatRounds(e.SubmittedRounds), formatNextRound(e.NextRound)}
				}
				if err := writeTable(w, headers, data); err != nil {
					return err
				}
				var err error
				if round.Valid() {
					_, err = fmt.Fprintf(w, "%d estimators eligible for %s\n", len(estimators), round)
				} else {
					_, err = fmt.Fprintf(w, "%d estimators\n", len(estimators))
				}
				return err
			}, "Wrote table")
		},
	)
}

// WriteReportHistory outputs recorded report runs, newest first as returned by the store.
func WriteReportHistory(runs []schema.ReportRunRecord, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	row := func(r schema.ReportRunRecord) []string {
		return []string{
			r.RunID,
			r.CreatedAt.Format(time.RFC3339),
			string(r.ConfidenceLevel),
			string(r.StatsMode),
			fmt.Sprintf(intFmt, r.SampleSize),
			fmtFloat(r.MeanEffort),
			formatOptional(r.LowerBound, fmtFloat),
			formatOptional(r.UpperBound, fmtFloat),
		}
	}

	return dispatch(cfg,
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeJSON(w, runs)
			}, "Wrote JSON")
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				header := []string{"run_id", "created_at", "confidence_level", "stats_mode", "sample_size", "mean_effort", "lower_bound", "upper_bound"}
				return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
					for _, r := range runs {
						if err := cw.Write(row(r)); err != nil {
							return fmt.Errorf("failed to write CSV row: %w", err)
						}
					}
					return nil
				})
			}, "Wrote CSV")
		},
		func() error {
			sh := sheet{name: "History", headers: []string{"Run", "Created", "Confidence", "Mode", "Sample size", "Mean effort", "Lower", "Upper"}}
			for _, r := range runs {
				line := []any{r.RunID, r.CreatedAt.Format(time.RFC3339), string(r.ConfidenceLevel), string(r.StatsMode), r.SampleSize, r.MeanEffort}
				for _, bound := range []*float64{r.LowerBound, r.UpperBound} {
					if bound != nil {
						line = append(line, *bound)
					} else {
						line = append(line, schema.NotAvailableLabel)
					}
				}
				sh.rows = append(sh.rows, line)
			}
			return writeXLSXResults(cfg, []sheet{sh})
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				data := make([][]string, len(runs))
				for i, r := range runs {
					data[i] = row(r)
				}
				return writeTable(w, []string{"Run", "Created", "Confidence", "Mode", "N", "Mean", "Lower", "Upper"}, data)
			}, "Wrote table")
		},
	)
}
