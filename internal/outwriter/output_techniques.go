package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
)

// WritePERTResults outputs a three-point estimate of a task list.
func WritePERTResults(result schema.PERTResult, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	counted := func(t schema.PERTTaskResult) string {
		if t.Counted {
			return fmt.Sprintf(intFmt, len(t.Subtasks))
		}
		return schema.NotAvailableLabel
	}

	return dispatch(cfg,
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeJSON(w, result)
			}, "Wrote JSON")
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeCSVWithHeader(w, []string{"task", "subtasks", "estimate", "counted"}, func(cw *csv.Writer) error {
					for _, t := range result.Tasks {
						rec := []string{t.Name, strconv.Itoa(len(t.Subtasks)), fmtFloat(t.Estimate), strconv.FormatBool(t.Counted)}
						if err := cw.Write(rec); err != nil {
							return fmt.Errorf("failed to write CSV row: %w", err)
						}
					}
					return nil
				})
			}, "Wrote CSV")
		},
		func() error {
			sh := sheet{name: "PERT", headers: []string{"Task", "Subtasks", "Estimate", "Counted"}}
			for _, t := range result.Tasks {
				sh.rows = append(sh.rows, []any{t.Name, len(t.Subtasks), t.Estimate, t.Counted})
			}
			sh.rows = append(sh.rows, []any{"Total", result.TotalTasks, result.TotalEstimate, true})
			return writeXLSXResults(cfg, []sheet{sh})
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				data := make([][]string, len(result.Tasks))
				for i, t := range result.Tasks {
					data[i] = []string{strconv.Itoa(i + 1), t.Name, counted(t), fmtFloat(t.Estimate)}
				}
				if err := writeTable(w, []string{"#", "Task", "Subtasks", "Estimate"}, data); err != nil {
					return err
				}
				_, err := fmt.Fprintf(w, "Total estimate: %s across %d tasks\n", fmtFloat(result.TotalEstimate), result.TotalTasks)
				return err
			}, "Wrote table")
		},
	)
}

// WriteCocomoResults outputs an intermediate COCOMO-I estimate.
func WriteCocomoResults(result schema.CocomoResult, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	drivers := make([]string, 0, len(result.Multipliers))
	for key := range result.Multipliers {
		drivers = append(drivers, key)
	}
	sort.Strings(drivers)

	metrics := [][]string{
		{"kloc", fmtFloat(result.KLOC)},
		{"class", string(result.Class)},
		{"a", strconv.FormatFloat(result.A, 'f', -1, 64)},
		{"b", strconv.FormatFloat(result.B, 'f', -1, 64)},
		{"eaf", fmtFloat(result.EAF)},
		{"effort_person_months", fmtFloat(result.Effort)},
		{"development_time_months", fmtFloat(result.DevelopmentTime)},
		{"cost", fmtFloat(result.Cost)},
	}
	for _, key := range drivers {
		metrics = append(metrics, []string{"driver." + key, fmtFloat(result.Multipliers[key])})
	}

	return dispatch(cfg,
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeJSON(w, result)
			}, "Wrote JSON")
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
					if err := cw.WriteAll(metrics); err != nil {
						return fmt.Errorf("failed to write CSV rows: %w", err)
					}
					return nil
				})
			}, "Wrote CSV")
		},
		func() error {
			sh := sheet{name: "COCOMO", headers: []string{"Metric", "Value"}}
			sh.rows = [][]any{
				{"KLOC", result.KLOC},
				{"Class", string(result.Class)},
				{"a", result.A},
				{"b", result.B},
				{"EAF", result.EAF},
				{"Effort (person-months)", result.Effort},
				{"Development time (months)", result.DevelopmentTime},
				{"Cost", result.Cost},
			}
			for _, key := range drivers {
				sh.rows = append(sh.rows, []any{"Driver " + key, result.Multipliers[key]})
			}
			return writeXLSXResults(cfg, []sheet{sh})
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeTable(w, []string{"Metric", "Value"}, metrics)
			}, "Wrote table")
		},
	)
}

// metricWriters renders a metric/value list in every output format.
// JSON encodes result as is; the other formats use rows.
func metricWriters(cfg *contract.Config, result any, sheetName string, rows [][]string, values []any) error {
	return dispatch(cfg,
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeJSON(w, result)
			}, "Wrote JSON")
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
					if err := cw.WriteAll(rows); err != nil {
						return fmt.Errorf("failed to write CSV rows: %w", err)
					}
					return nil
				})
			}, "Wrote CSV")
		},
		func() error {
			sh := sheet{name: sheetName, headers: []string{"Metric", "Value"}}
			for i, row := range rows {
				sh.rows = append(sh.rows, []any{row[0], values[i]})
			}
			return writeXLSXResults(cfg, []sheet{sh})
		},
		func() error {
			return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
				return writeTable(w, []string{"Metric", "Value"}, rows)
			}, "Wrote table")
		},
	)
}

// WriteFPAResults outputs a function point analysis.
func WriteFPAResults(result schema.FPAResult, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	values := []any{string(result.Complexity), result.UFP, result.DI, result.VAF, result.FP}
	rows := [][]string{
		{"complexity", string(result.Complexity)},
		{"unadjusted_function_points", fmtFloat(result.UFP)},
		{"degree_of_influence", fmt.Sprintf(intFmt, result.DI)},
		{"value_adjustment_factor", fmtFloat(result.VAF)},
		{"function_points", fmtFloat(result.FP)},
	}
	return metricWriters(cfg, result, "FPA", rows, values)
}

// WriteCocomo2Results outputs a COCOMO II early design and application composition estimate.
func WriteCocomo2Results(result schema.Cocomo2Result, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	rows := [][]string{
		{"degree_of_influence", fmt.Sprintf(intFmt, result.DI)},
		{"unadjusted_function_points", fmtFloat(result.UFP)},
		{"function_points", fmtFloat(result.FP)},
		{"exponent", fmtFloat(result.Exponent)},
		{"eaf", fmtFloat(result.EAF)},
		{"ksloc", fmtFloat(result.KSLOC)},
		{"early_design_effort_person_months", fmtFloat(result.EarlyDesignEffort)},
		{"early_design_time_months", fmtFloat(result.EarlyDesignTime)},
		{"object_points", fmtFloat(result.ObjectPoints)},
		{"new_object_points", fmtFloat(result.NewObjectPoints)},
		{"composition_effort_person_months", fmtFloat(result.CompositionEffort)},
		{"composition_time_months", fmtFloat(result.CompositionTime)},
	}
	values := []any{
		result.DI, result.UFP, result.FP, result.Exponent, result.EAF, result.KSLOC,
		result.EarlyDesignEffort, result.EarlyDesignTime,
		result.ObjectPoints, result.NewObjectPoints, result.CompositionEffort, result.CompositionTime,
	}
	for _, group := range []struct {
		prefix  string
		factors map[string]float64
	}{
		{"scale_factor.", result.ScaleFactors},
		{"effort_multiplier.", result.EffortMultipliers},
	} {
		keys := make([]string, 0, len(group.factors))
		for key := range group.factors {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			rows = append(rows, []string{group.prefix + key, fmtFloat(group.factors[key])})
			values = append(values, group.factors[key])
		}
	}
	return metricWriters(cfg, result, "COCOMO II", rows, values)
}
