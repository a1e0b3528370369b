// Package agg has aggregation logic for Delphi estimation rounds.
package agg

import (
	"fmt"
	"math"
	"strings"

	"github.com/huangsam/delphi/schema"
)

// Aggregate builds the view shown at the boundary of round n.
// Round 1 shows round 1 data only, round 2 adds round 2 and round 3 shows all three.
// Records with a blank estimator name are left out of every total and average.
// Missing rounds count as 0 for totals while the returned cells keep them marked as pending.
func Aggregate(records []schema.EstimationRecord, modules []schema.Module, n schema.Round) (schema.AggregateResult, error) {
	if !n.Valid() {
		return schema.AggregateResult{}, fmt.Errorf("invalid round %d: must be 1, 2 or 3", int(n))
	}
	named, err := checkRecords(records, len(modules))
	if err != nil {
		return schema.AggregateResult{}, err
	}

	visible := schema.RoundsUpTo(n)
	result := schema.AggregateResult{
		Round:          n,
		EstimatorCount: len(named),
		Modules:        buildModuleRows(named, modules, visible),
		Estimators:     make([]schema.EstimatorSummary, 0, len(named)),
		Averages:       make([]schema.RoundAverage, 0, len(visible)),
	}

	for _, rec := range named {
		result.Estimators = append(result.Estimators, summarize(rec, visible))
	}

	var averageSum float64
	for _, r := range visible {
		avg := RoundAverage(result.Estimators, r)
		averageSum += avg
		result.Averages = append(result.Averages, schema.RoundAverage{Round: r, Average: avg})
	}
	if averageSum > 0 {
		combined := averageSum / float64(len(visible))
		result.CombinedAverage = &combined
	}
	return result, nil
}

// RoundAverage returns the sum of every estimator's total for round r divided by the
// number of estimators. An estimator who has not submitted r contributes 0 to the sum
// and still counts in the divisor.
func RoundAverage(summaries []schema.EstimatorSummary, r schema.Round) float64 {
	if len(summaries) == 0 {
		return 0
	}
	var sum float64
	for _, s := range summaries {
		sum += s.Total(r).Total
	}
	return sum / float64(len(summaries))
}

// checkRecords drops blank-named records and rejects data that cannot yield a trustworthy result.
func checkRecords(records []schema.EstimationRecord, moduleCount int) ([]schema.EstimationRecord, error) {
	named := make([]schema.EstimationRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		name := strings.TrimSpace(rec.EstimatorName)
		if name == "" {
			continue
		}
		key := rec.Key()
		if _, dup := seen[key]; dup {
			return nil, &schema.DataIntegrityError{Estimator: name, Reason: "duplicate record for the same estimator"}
		}
		seen[key] = struct{}{}

		for _, r := range schema.AllRounds {
			if err := checkRound(name, r, rec.Round(r), moduleCount); err != nil {
				return nil, err
			}
		}
		named = append(named, rec)
	}
	return named, nil
}

func checkRound(name string, r schema.Round, data schema.RoundData, moduleCount int) error {
	if !data.IsSubmitted() {
		return nil
	}
	if data.Len() != moduleCount {
		return &schema.DataIntegrityError{
			Estimator: name,
			Reason:    fmt.Sprintf("%s has %d estimates for %d modules", strings.ToLower(r.String()), data.Len(), moduleCount),
		}
	}
	for i, v := range data.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return &schema.DataIntegrityError{
				Estimator: name,
				Reason:    fmt.Sprintf("%s estimate %d is %v, expected a positive number", strings.ToLower(r.String()), i, v),
			}
		}
	}
	return nil
}

func buildModuleRows(records []schema.EstimationRecord, modules []schema.Module, visible []schema.Round) []schema.ModuleRow {
	rows := make([]schema.ModuleRow, len(modules))
	for i, m := range modules {
		row := schema.ModuleRow{
			Index:       i,
			Name:        m.Name,
			Description: m.Description,
			Estimates:   make([]schema.EstimatorCells, 0, len(records)),
		}
		for _, rec := range records {
			cells := make([]schema.Cell, 0, len(visible))
			for _, r := range visible {
				v, ok := rec.Round(r).At(i)
				cells = append(cells, schema.Cell{Round: r, Value: v, Submitted: ok})
			}
			row.Estimates = append(row.Estimates, schema.EstimatorCells{
				EstimatorName: strings.TrimSpace(rec.EstimatorName),
				Cells:         cells,
			})
		}
		rows[i] = row
	}
	return rows
}

// summarize computes round totals and the highest and lowest estimate over the visible rounds.
func summarize(rec schema.EstimationRecord, visible []schema.Round) schema.EstimatorSummary {
	summary := schema.EstimatorSummary{
		EstimatorName: strings.TrimSpace(rec.EstimatorName),
		Totals:        make([]schema.RoundTotal, 0, len(visible)),
		Highest:       math.Inf(-1),
		Lowest:        math.Inf(1),
	}
	for _, r := range visible {
		data := rec.Round(r)
		total := data.Total()
		summary.Totals = append(summary.Totals, schema.RoundTotal{Round: r, Total: total, Submitted: data.IsSubmitted()})
		summary.CombinedTotal += total
		for _, v := range data.Values() {
			summary.HasEstimates = true
			summary.Highest = math.Max(summary.Highest, v)
			summary.Lowest = math.Min(summary.Lowest, v)
		}
	}
	if !summary.HasEstimates {
		summary.Highest, summary.Lowest = 0, 0
	}
	return summary
}
