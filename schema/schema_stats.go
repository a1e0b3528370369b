package schema

// ConfidenceInterval is the range around the mean effort at a confidence level.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Statistics is the terminal artifact of the final round.
// Interval is nil when fewer than two estimators have data.
type Statistics struct {
	ConfidenceLevel   ConfidenceLevel     `json:"confidence_level"`
	Mode              StatsMode           `json:"mode"`
	ZScore            float64             `json:"z_score"`
	SampleSize        int                 `json:"sample_size"`
	MeanEffort        float64             `json:"mean_effort"`
	StandardDeviation float64             `json:"standard_deviation"`
	StandardError     float64             `json:"standard_error"`
	Interval          *ConfidenceInterval `json:"confidence_interval"`
	CombinedEfforts   []float64           `json:"combined_efforts"`
}

// Computable reports whether the confidence interval is defined.
func (s Statistics) Computable() bool {
	return s.Interval != nil
}

// LowerBound returns the lower bound and whether it is defined.
func (s Statistics) LowerBound() (float64, bool) {
	if s.Interval == nil {
		return 0, false
	}
	return s.Interval.Lower, true
}

// UpperBound returns the upper bound and whether it is defined.
func (s Statistics) UpperBound() (float64, bool) {
	if s.Interval == nil {
		return 0, false
	}
	return s.Interval.Upper, true
}

// RelativeSpread returns the standard deviation as a percentage of the mean,
// used to label how close the estimators came to consensus.
func (s Statistics) RelativeSpread() float64 {
	if s.MeanEffort <= 0 {
		return 0
	}
	return s.StandardDeviation / s.MeanEffort * 100
}

// Report pairs the round-3 aggregate with the final statistics.
type Report struct {
	Project    string          `json:"project"`
	Aggregate  AggregateResult `json:"aggregate"`
	Statistics Statistics      `json:"statistics"`
}
