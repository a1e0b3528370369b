package agg

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/huangsam/delphi/schema"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testModules = []schema.Module{
	{Name: "Login", Description: "Sign-in flow"},
	{Name: "Signup", Description: "Account creation"},
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

func TestAggregateRoundOneView(t *testing.T) {
	result, err := Aggregate(aliceAndBob(), testModules, schema.Round1)
	require.NoError(t, err)

	assert.Equal(t, schema.Round1, result.Round)
	assert.Equal(t, 2, result.EstimatorCount)
	require.Len(t, result.Estimators, 2)

	alice := result.Estimators[0]
	assert.Equal(t, "Alice", alice.EstimatorName)
	assert.Len(t, alice.Totals, 1)
	assert.Equal(t, 8.0, alice.Total(schema.Round1).Total)
	assert.Equal(t, 5.0, alice.Highest)
	assert.Equal(t, 3.0, alice.Lowest)

	bob := result.Estimators[1]
	assert.Equal(t, 6.0, bob.Highest, "round 1 view ignores later rounds")
	assert.Equal(t, 4.0, bob.Lowest)

	avg, ok := result.Average(schema.Round1)
	assert.True(t, ok)
	assert.Equal(t, 9.0, avg)
	_, ok = result.Average(schema.Round2)
	assert.False(t, ok)

	require.NotNil(t, result.CombinedAverage)
	assert.Equal(t, 9.0, *result.CombinedAverage)

	require.Len(t, result.Modules, 2)
	assert.Equal(t, "Signup", result.Modules[1].Name)
	assert.Equal(t, 5.0, result.Modules[1].Estimates[0].Cells[0].Value)
}

func TestAggregateRoundThreeView(t *testing.T) {
	result, err := Aggregate(aliceAndBob(), testModules, schema.Round3)
	require.NoError(t, err)

	alice := result.Estimators[0]
	r2 := alice.Total(schema.Round2)
	assert.False(t, r2.Submitted)
	assert.Equal(t, 0.0, r2.Total)
	assert.Equal(t, schema.PendingLabel, r2.Display(func(v float64) string { return fmt.Sprint(v) }))
	assert.Equal(t, 8.0, alice.CombinedTotal)

	bob := result.Estimators[1]
	assert.Equal(t, 29.0, bob.CombinedTotal)
	assert.Equal(t, 6.0, bob.Highest)
	assert.Equal(t, 4.0, bob.Lowest)

	for round, want := range map[schema.Round]float64{schema.Round1: 9, schema.Round2: 4.5, schema.Round3: 5} {
		got, ok := result.Average(round)
		assert.True(t, ok)
		assert.InDelta(t, want, got, 1e-9, "average for %s", round)
	}
	require.NotNil(t, result.CombinedAverage)
	assert.InDelta(t, 18.5/3, *result.CombinedAverage, 1e-9)

	cell := result.Modules[0].Estimates[0].Cells[2]
	assert.False(t, cell.Submitted)
	assert.Equal(t, schema.Round3, cell.Round)
}

func TestAggregateIgnoresBlankNames(t *testing.T) {
	records := append(aliceAndBob(), schema.EstimationRecord{
		EstimatorName: "   ",
		Round1:        schema.Submitted([]float64{100, 100}),
	})

	result, err := Aggregate(records, testModules, schema.Round1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EstimatorCount)
	avg, _ := result.Average(schema.Round1)
	assert.Equal(t, 9.0, avg)
}

func TestAggregateEmpty(t *testing.T) {
	result, err := Aggregate(nil, testModules, schema.Round2)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EstimatorCount)
	assert.Nil(t, result.CombinedAverage)
	avg, ok := result.Average(schema.Round2)
	assert.True(t, ok)
	assert.Equal(t, 0.0, avg)
}

func TestAggregateDataIntegrity(t *testing.T) {
	tests := []struct {
		name    string
		records []schema.EstimationRecord
	}{
		{
			name: "length mismatch",
			records: []schema.EstimationRecord{
				{EstimatorName: "Alice", Round1: schema.Submitted([]float64{3})},
			},
		},
		{
			name: "non-positive estimate",
			records: []schema.EstimationRecord{
				{EstimatorName: "Alice", Round1: schema.Submitted([]float64{3, -1})},
			},
		},
		{
			name: "non-finite estimate",
			records: []schema.EstimationRecord{
				{EstimatorName: "Alice", Round1: schema.Submitted([]float64{3, math.NaN()})},
			},
		},
		{
			name: "duplicate estimator",
			records: []schema.EstimationRecord{
				{EstimatorName: "Alice", Round1: schema.Submitted([]float64{3, 5})},
				{EstimatorName: "ALICE", Round1: schema.Submitted([]float64{3, 5})},
			},
		},
		{
			name: "later round corrupted",
			records: []schema.EstimationRecord{
				{
					EstimatorName: "Alice",
					Round1:        schema.Submitted([]float64{3, 5}),
					Round3:        schema.Submitted([]float64{1, 2, 3}),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(tt.records, testModules, schema.Round1)
			assert.ErrorIs(t, err, schema.ErrDataIntegrity)
		})
	}
}

func TestAggregateInvalidRound(t *testing.T) {
	_, err := Aggregate(aliceAndBob(), testModules, schema.Round(4))
	assert.Error(t, err)
}

func genEstimates(n int) gopter.Gen {
	return gen.SliceOfN(n, gen.Float64Range(0.5, 200))
}

func genRecords(moduleCount int) gopter.Gen {
	return gen.IntRange(0, 6).FlatMap(func(v any) gopter.Gen {
		count := v.(int)
		return gen.SliceOfN(count, gopter.CombineGens(
			genEstimates(moduleCount),
			genEstimates(moduleCount),
			gen.IntRange(1, 3),
		).Map(func(values []any) schema.EstimationRecord {
			rec := schema.EstimationRecord{Round1: schema.Submitted(values[0].([]float64))}
			if values[2].(int) >= 2 {
				rec.Round2 = schema.Submitted(values[1].([]float64))
			}
			return rec
		})).Map(func(recs []schema.EstimationRecord) []schema.EstimationRecord {
			for i := range recs {
				recs[i].EstimatorName = fmt.Sprintf("estimator-%d", i)
			}
			return recs
		})
	}, reflect.TypeOf([]schema.EstimationRecord{}))
}

func TestAggregateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("round totals equal the sum of the round's estimates", prop.ForAll(
		func(records []schema.EstimationRecord) bool {
			result, err := Aggregate(records, testModules, schema.Round3)
			if err != nil {
				return false
			}
			for i, summary := range result.Estimators {
				for _, r := range schema.AllRounds {
					var want float64
					for _, v := range records[i].Round(r).Values() {
						want += v
					}
					total := summary.Total(r)
					if math.Abs(total.Total-want) > 1e-9 || total.Submitted != records[i].Round(r).IsSubmitted() {
						return false
					}
				}
			}
			return true
		},
		genRecords(len(testModules)),
	))

	properties.Property("aggregating twice yields identical output", prop.ForAll(
		func(records []schema.EstimationRecord) bool {
			first, err1 := Aggregate(records, testModules, schema.Round1)
			second, err2 := Aggregate(records, testModules, schema.Round1)
			return err1 == nil && err2 == nil && assert.ObjectsAreEqual(first, second)
		},
		genRecords(len(testModules)),
	))

	properties.Property("lowest never exceeds highest", prop.ForAll(
		func(records []schema.EstimationRecord) bool {
			result, err := Aggregate(records, testModules, schema.Round2)
			if err != nil {
				return false
			}
			for _, s := range result.Estimators {
				if s.HasEstimates && s.Lowest > s.Highest {
					return false
				}
			}
			return true
		},
		genRecords(len(testModules)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
