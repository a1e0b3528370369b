package algo

import (
	"math"
	"testing"

	"github.com/huangsam/delphi/core/agg"
	"github.com/huangsam/delphi/schema"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testModules = []schema.Module{{Name: "Login"}, {Name: "Signup"}}

func roundThree(t *testing.T, records []schema.EstimationRecord) schema.AggregateResult {
	t.Helper()
	result, err := agg.Aggregate(records, testModules, schema.Round3)
	require.NoError(t, err)
	return result
}

func aliceAndBob() []schema.EstimationRecord {
	return []schema.EstimationRecord{
		{EstimatorName: "Alice", Round1: schema.Submitted([]float64{3, 5})},
		{
			EstimatorName: "Bob",
			Round1:        schema.Submitted([]float64{4, 6}),
			Round2:        schema.Submitted([]float64{4, 5}),
			Round3:        schema.Submitted([]float64{5, 5}),
		},
	}
}

func TestZScore(t *testing.T) {
	tests := []struct {
		level schema.ConfidenceLevel
		want  float64
	}{
		{schema.Confidence90, 1.645},
		{schema.Confidence95, 1.96},
		{schema.Confidence99, 2.576},
	}
	for _, tt := range tests {
		z, err := ZScore(tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.want, z)
	}

	_, err := ZScore("80%")
	assert.Error(t, err)
}

func TestFinalStatisticsHistorical(t *testing.T) {
	stats, err := FinalStatistics(roundThree(t, aliceAndBob()), schema.Confidence95, schema.HistoricalStats)
	require.NoError(t, err)

	assert.Equal(t, []float64{8, 29}, stats.CombinedEfforts)
	assert.Equal(t, 2, stats.SampleSize)
	assert.InDelta(t, 18.5, stats.MeanEffort, 1e-9)
	assert.InDelta(t, math.Sqrt(220.5), stats.StandardDeviation, 1e-9)
	assert.InDelta(t, 10.5, stats.StandardError, 1e-9)

	lower, ok := stats.LowerBound()
	require.True(t, ok)
	upper, _ := stats.UpperBound()
	assert.InDelta(t, 18.5-1.96*10.5, lower, 1e-9)
	assert.InDelta(t, 18.5+1.96*10.5, upper, 1e-9)
}

func TestFinalStatisticsModesDiverge(t *testing.T) {
	// Dave is registered but never submitted, so Dave counts toward the round averages
	// without contributing a combined effort.
	records := append(aliceAndBob(), schema.EstimationRecord{EstimatorName: "Dave"})
	result := roundThree(t, records)

	historical, err := FinalStatistics(result, schema.Confidence95, schema.HistoricalStats)
	require.NoError(t, err)
	assert.InDelta(t, 37.0/3, historical.MeanEffort, 1e-9)
	assert.Equal(t, 2, historical.SampleSize)

	corrected, err := FinalStatistics(result, schema.Confidence95, schema.CorrectedStats)
	require.NoError(t, err)
	assert.InDelta(t, 18.5, corrected.MeanEffort, 1e-9)
	assert.Less(t, corrected.StandardDeviation, historical.StandardDeviation)
}

func TestFinalStatisticsNotComputable(t *testing.T) {
	records := []schema.EstimationRecord{
		{EstimatorName: "Alice", Round1: schema.Submitted([]float64{3, 5})},
	}
	stats, err := FinalStatistics(roundThree(t, records), schema.Confidence95, schema.HistoricalStats)
	assert.ErrorIs(t, err, schema.ErrNotComputable)
	assert.False(t, stats.Computable())
	assert.Equal(t, 1, stats.SampleSize)
	assert.Equal(t, 8.0, stats.MeanEffort)
	assert.Equal(t, 0.0, stats.StandardError)

	empty, err := FinalStatistics(roundThree(t, nil), schema.Confidence90, schema.CorrectedStats)
	assert.ErrorIs(t, err, schema.ErrNotComputable)
	assert.Equal(t, 0, empty.SampleSize)
	assert.Empty(t, empty.CombinedEfforts)
}

func TestFinalStatisticsRejectsBadInput(t *testing.T) {
	result := roundThree(t, aliceAndBob())

	_, err := FinalStatistics(result, "75%", schema.HistoricalStats)
	assert.Error(t, err)

	_, err = FinalStatistics(result, schema.Confidence95, "median")
	assert.Error(t, err)

	earlier, err := agg.Aggregate(aliceAndBob(), testModules, schema.Round2)
	require.NoError(t, err)
	_, err = FinalStatistics(earlier, schema.Confidence95, schema.HistoricalStats)
	assert.Error(t, err)

	result.Estimators[0].CombinedTotal = math.Inf(1)
	_, err = FinalStatistics(result, schema.Confidence95, schema.HistoricalStats)
	assert.ErrorIs(t, err, schema.ErrDataIntegrity)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, SampleStdDev([]float64{5}, 5))
	assert.InDelta(t, 1.0, SampleStdDev([]float64{1, 2, 3}, 2), 1e-9)
	assert.Equal(t, 0.0, StandardError(4, 1))
	assert.Equal(t, 0.0, StandardError(math.NaN(), 4))
	assert.Equal(t, 2.0, StandardError(4, 4))
}

func TestFinalStatisticsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genSummaries := gen.SliceOf(gen.Float64Range(1, 500)).Map(func(efforts []float64) schema.AggregateResult {
		result := schema.AggregateResult{Round: schema.Round3, EstimatorCount: len(efforts)}
		var sum float64
		for _, e := range efforts {
			sum += e
			result.Estimators = append(result.Estimators, schema.EstimatorSummary{CombinedTotal: e, HasEstimates: true})
		}
		avg := 0.0
		if len(efforts) > 0 {
			avg = sum / float64(len(efforts))
		}
		result.Averages = []schema.RoundAverage{
			{Round: schema.Round1, Average: avg},
			{Round: schema.Round2, Average: 0},
			{Round: schema.Round3, Average: 0},
		}
		return result
	})

	properties.Property("standard error is never negative and is 0 for one estimator", prop.ForAll(
		func(result schema.AggregateResult, mode schema.StatsMode) bool {
			stats, _ := FinalStatistics(result, schema.Confidence95, mode)
			if stats.StandardError < 0 {
				return false
			}
			return stats.SampleSize > 1 || stats.StandardError == 0
		},
		genSummaries,
		gen.OneConstOf(schema.HistoricalStats, schema.CorrectedStats),
	))

	properties.Property("bounds enclose the mean whenever computable", prop.ForAll(
		func(result schema.AggregateResult, level schema.ConfidenceLevel) bool {
			stats, err := FinalStatistics(result, level, schema.HistoricalStats)
			if err != nil {
				return stats.SampleSize < 2 && !stats.Computable()
			}
			lower, _ := stats.LowerBound()
			upper, _ := stats.UpperBound()
			return lower <= stats.MeanEffort && stats.MeanEffort <= upper
		},
		genSummaries,
		gen.OneConstOf(schema.Confidence90, schema.Confidence95, schema.Confidence99),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
