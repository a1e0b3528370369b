package techniques

import (
	"math"
	"testing"

	"github.com/huangsam/delphi/schema"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreePoint(t *testing.T) {
	assert.InDelta(t, 4.0, ThreePoint(2, 4, 6), 1e-9)
	assert.InDelta(t, (1+4*2+9)/6.0, ThreePoint(1, 2, 9), 1e-9)
}

func TestEstimatePERT(t *testing.T) {
	tasks := []schema.PERTTask{
		{Name: "Backend", Subtasks: []schema.PERTSubtask{
			{Name: "API", Optimistic: 2, MostLikely: 4, Pessimistic: 6},
			{Name: "DB", Optimistic: 1, MostLikely: 2, Pessimistic: 9},
		}},
		{Name: " Frontend ", Subtasks: []schema.PERTSubtask{
			{Optimistic: 3, MostLikely: 3, Pessimistic: 3},
		}},
		{Name: "Placeholder"},
	}
	result, err := EstimatePERT(tasks)
	require.NoError(t, err)
	require.Len(t, result.Tasks, 3)

	assert.InDelta(t, 4+3, result.Tasks[0].Estimate, 1e-9)
	assert.Equal(t, "Frontend", result.Tasks[1].Name)
	assert.False(t, result.Tasks[2].Counted, "tasks without subtasks are not counted")
	assert.Equal(t, 2, result.TotalTasks)
	assert.InDelta(t, 10.0, result.TotalEstimate, 1e-9)
}

func TestEstimatePERT_Validation(t *testing.T) {
	tests := []struct {
		name  string
		tasks []schema.PERTTask
		field string
	}{
		{"no tasks", nil, "tasks"},
		{"blank name", []schema.PERTTask{{Name: " "}}, "tasks[0].name"},
		{"zero optimistic", []schema.PERTTask{{Name: "A", Subtasks: []schema.PERTSubtask{{Optimistic: 0, MostLikely: 1, Pessimistic: 2}}}}, "tasks[0].subtasks[0].optimistic"},
		{"negative most likely", []schema.PERTTask{{Name: "A", Subtasks: []schema.PERTSubtask{{Optimistic: 1, MostLikely: -1, Pessimistic: 2}}}}, "tasks[0].subtasks[0].most_likely"},
		{"optimistic above pessimistic", []schema.PERTTask{{Name: "A", Subtasks: []schema.PERTSubtask{{Optimistic: 5, MostLikely: 5, Pessimistic: 2}}}}, "tasks[0].subtasks[0].pessimistic"},
		{"most likely out of range", []schema.PERTTask{{Name: "A", Subtasks: []schema.PERTSubtask{{Optimistic: 1, MostLikely: 9, Pessimistic: 2}}}}, "tasks[0].subtasks[0].most_likely"},
		{"not a number", []schema.PERTTask{{Name: "A", Subtasks: []schema.PERTSubtask{{Optimistic: 1, MostLikely: 1, Pessimistic: math.NaN()}}}}, "tasks[0].subtasks[0].pessimistic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EstimatePERT(tt.tasks)
			require.ErrorIs(t, err, schema.ErrValidation)
			var verr *schema.ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, len(verr.Issues))
			for i, issue := range verr.Issues {
				fields[i] = issue.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestEstimateCocomo(t *testing.T) {
	result, err := EstimateCocomo(schema.CocomoInput{KLOC: 10})
	require.NoError(t, err)
	assert.Equal(t, schema.OrganicClass, result.Class)
	assert.Equal(t, 1.0, result.EAF)
	wantEffort := 2.4 * math.Pow(10, 1.05)
	assert.InDelta(t, wantEffort, result.Effort, 1e-9)
	assert.InDelta(t, 2.5*math.Pow(wantEffort, 0.32+0.2*(1.05-1.01)), result.DevelopmentTime, 1e-9)
	assert.InDelta(t, wantEffort, result.Cost, 1e-9, "labor rate defaults to 1")
}

func TestEstimateCocomo_DriversAndSLOC(t *testing.T) {
	result, err := EstimateCocomo(schema.CocomoInput{
		SLOC:      32000,
		Class:     schema.EmbeddedClass,
		LaborRate: 5000,
		Drivers: map[string]string{
			"complexity": "very_high",
			"analyst":    "h",
			"tools":      "nominal",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 32.0, result.KLOC)
	assert.InDelta(t, 1.30*0.86*1.0, result.EAF, 1e-9)
	assert.Equal(t, 1.30, result.Multipliers["complexity"])
	wantEffort := 3.6 * math.Pow(32, 1.20) * result.EAF
	assert.InDelta(t, wantEffort, result.Effort, 1e-9)
	assert.InDelta(t, wantEffort*5000, result.Cost, 1e-6)
}

func TestEstimateCocomo_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   schema.CocomoInput
	}{
		{"no size", schema.CocomoInput{}},
		{"negative size", schema.CocomoInput{KLOC: -3}},
		{"bad class", schema.CocomoInput{KLOC: 1, Class: "huge"}},
		{"bad labor rate", schema.CocomoInput{KLOC: 1, LaborRate: -1}},
		{"unknown driver", schema.CocomoInput{KLOC: 1, Drivers: map[string]string{"vibes": "high"}}},
		{"unknown rating", schema.CocomoInput{KLOC: 1, Drivers: map[string]string{"memory": "enormous"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EstimateCocomo(tt.in)
			assert.ErrorIs(t, err, schema.ErrValidation)
		})
	}
}

func TestParseRating(t *testing.T) {
	for input, want := range map[string]Rating{"VL": VeryLow, "low": Low, "": Nominal, "High": High, "very-high": VeryHigh, "xh": ExtraHigh} {
		got, err := ParseRating(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseRating("medium")
	assert.Error(t, err)
}

func TestCostDriversNominalIsOne(t *testing.T) {
	assert.Len(t, CostDrivers, 15)
	for _, d := range CostDrivers {
		assert.Equal(t, 1.0, d.Multipliers[Nominal], d.Key)
	}
}

func TestThreePointProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("estimate lies between optimistic and pessimistic", prop.ForAll(
		func(a, b, c float64) bool {
			o := math.Min(a, math.Min(b, c))
			p := math.Max(a, math.Max(b, c))
			m := a + b + c - o - p
			est := ThreePoint(o, m, p)
			return est >= o-1e-9 && est <= p+1e-9
		},
		gen.Float64Range(0.1, 1000),
		gen.Float64Range(0.1, 1000),
		gen.Float64Range(0.1, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
