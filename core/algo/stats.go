// Package algo has the statistics computed over the final Delphi round.
package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/delphi/schema"
)

// zScores is the fixed two-sided z table used for confidence intervals.
var zScores = map[schema.ConfidenceLevel]float64{
	schema.Confidence90: 1.645,
	schema.Confidence95: 1.96,
	schema.Confidence99: 2.576,
}

// ZScore returns the z value for a supported confidence level.
func ZScore(level schema.ConfidenceLevel) (float64, error) {
	z, ok := zScores[level]
	if !ok {
		return 0, fmt.Errorf("unsupported confidence level %q: choose one of 90%%, 95%% or 99%%", level)
	}
	return z, nil
}

// FinalStatistics computes mean effort, deviation, standard error and the confidence
// interval from a round-3 aggregate.
//
// In historical mode the mean is the sum of the three round averages and the deviation
// is taken around that sum. In corrected mode both use the natural mean of the combined
// efforts. The sample holds every estimator with at least one submitted round.
//
// When fewer than two estimators have data the returned statistics carry the mean and
// sample size but no interval, and the error is schema.ErrNotComputable.
func FinalStatistics(result schema.AggregateResult, level schema.ConfidenceLevel, mode schema.StatsMode) (schema.Statistics, error) {
	if result.Round != schema.Round3 {
		return schema.Statistics{}, fmt.Errorf("final statistics need the %s aggregate, got %s", schema.Round3, result.Round)
	}
	z, err := ZScore(level)
	if err != nil {
		return schema.Statistics{}, err
	}
	if _, ok := schema.ValidStatsModes[mode]; !ok {
		return schema.Statistics{}, fmt.Errorf("unsupported statistics mode %q", mode)
	}

	efforts := CombinedEfforts(result.Estimators)
	for i, e := range efforts {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return schema.Statistics{}, &schema.DataIntegrityError{Reason: fmt.Sprintf("combined effort %d is not a finite number", i)}
		}
	}

	stats := schema.Statistics{
		ConfidenceLevel: level,
		Mode:            mode,
		ZScore:          z,
		SampleSize:      len(efforts),
		CombinedEfforts: efforts,
	}

	switch mode {
	case schema.CorrectedStats:
		stats.MeanEffort = Mean(efforts)
	default:
		for _, avg := range result.Averages {
			stats.MeanEffort += avg.Average
		}
	}

	stats.StandardDeviation = SampleStdDev(efforts, stats.MeanEffort)
	stats.StandardError = StandardError(stats.StandardDeviation, stats.SampleSize)

	if stats.SampleSize < 2 {
		return stats, schema.ErrNotComputable
	}
	stats.Interval = &schema.ConfidenceInterval{
		Lower: stats.MeanEffort - z*stats.StandardError,
		Upper: stats.MeanEffort + z*stats.StandardError,
	}
	return stats, nil
}

// CombinedEfforts returns the combined total of every estimator who submitted anything,
// in estimator order.
func CombinedEfforts(summaries []schema.EstimatorSummary) []float64 {
	efforts := make([]float64, 0, len(summaries))
	for _, s := range summaries {
		if s.HasEstimates {
			efforts = append(efforts, s.CombinedTotal)
		}
	}
	return efforts
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdDev returns the Bessel-corrected deviation of values around center.
// It is 0 for fewer than two values.
func SampleStdDev(values []float64, center float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSquares float64
	for _, v := range values {
		d := v - center
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// StandardError returns sd / sqrt(n), or 0 when n <= 1 or sd is not a usable number.
func StandardError(sd float64, n int) float64 {
	if n <= 1 || math.IsNaN(sd) || math.IsInf(sd, 0) || sd < 0 {
		return 0
	}
	return sd / math.Sqrt(float64(n))
}
