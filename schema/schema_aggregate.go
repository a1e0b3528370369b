package schema

// Cell is one estimator's estimate for one module in one round.
type Cell struct {
	Round     Round   `json:"round"`
	Value     float64 `json:"value"`
	Submitted bool    `json:"submitted"`
}

// Display renders the cell with format, or PendingLabel when the round is missing.
func (c Cell) Display(format func(float64) string) string {
	if !c.Submitted {
		return PendingLabel
	}
	return format(c.Value)
}

// EstimatorCells holds the visible cells of one estimator for one module.
type EstimatorCells struct {
	EstimatorName string `json:"estimator_name"`
	Cells         []Cell `json:"cells"`
}

// ModuleRow is the per-module view of every estimator's estimates.
type ModuleRow struct {
	Index       int              `json:"index"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Estimates   []EstimatorCells `json:"estimates"`
}

// RoundTotal is an estimator's total for one round.
// Total is 0 for a missing round while Submitted keeps it distinguishable.
type RoundTotal struct {
	Round     Round   `json:"round"`
	Total     float64 `json:"total"`
	Submitted bool    `json:"submitted"`
}

// Display renders the total with format, or PendingLabel when the round is missing.
func (t RoundTotal) Display(format func(float64) string) string {
	if !t.Submitted {
		return PendingLabel
	}
	return format(t.Total)
}

// EstimatorSummary aggregates one estimator across the visible rounds.
type EstimatorSummary struct {
	EstimatorName string       `json:"estimator_name"`
	Totals        []RoundTotal `json:"totals"`
	CombinedTotal float64      `json:"combined_total"`
	Highest       float64      `json:"highest"`
	Lowest        float64      `json:"lowest"`
	HasEstimates  bool         `json:"has_estimates"`
}

// Total returns the total for round n, with a zero RoundTotal when n is not visible.
func (s EstimatorSummary) Total(n Round) RoundTotal {
	for _, t := range s.Totals {
		if t.Round == n {
			return t
		}
	}
	return RoundTotal{Round: n}
}

// DisplayHighest renders the highest estimate or NotAvailableLabel.
func (s EstimatorSummary) DisplayHighest(format func(float64) string) string {
	if !s.HasEstimates {
		return NotAvailableLabel
	}
	return format(s.Highest)
}

// DisplayLowest renders the lowest estimate or NotAvailableLabel.
func (s EstimatorSummary) DisplayLowest(format func(float64) string) string {
	if !s.HasEstimates {
		return NotAvailableLabel
	}
	return format(s.Lowest)
}

// RoundAverage is the per-round average across named estimators.
type RoundAverage struct {
	Round   Round   `json:"round"`
	Average float64 `json:"average"`
}

// AggregateResult is the projection shown at a round boundary.
type AggregateResult struct {
	Round           Round              `json:"round"`
	EstimatorCount  int                `json:"estimator_count"`
	Modules         []ModuleRow        `json:"modules"`
	Estimators      []EstimatorSummary `json:"estimators"`
	Averages        []RoundAverage     `json:"averages"`
	CombinedAverage *float64           `json:"combined_average"`
}

// Average returns the average for round n and whether it is visible.
func (a AggregateResult) Average(n Round) (float64, bool) {
	for _, avg := range a.Averages {
		if avg.Round == n {
			return avg.Average, true
		}
	}
	return 0, false
}

// DisplayCombinedAverage renders the combined average or NotAvailableLabel.
func (a AggregateResult) DisplayCombinedAverage(format func(float64) string) string {
	if a.CombinedAverage == nil {
		return NotAvailableLabel
	}
	return format(*a.CombinedAverage)
}
