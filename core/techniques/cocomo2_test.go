package techniques

import (
	"math"
	"testing"

	"github.com/huangsam/delphi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cocomo2Sample() schema.Cocomo2Input {
	return schema.Cocomo2Input{
		Functions: map[string][][]int{
			"ei":  {{1, 0, 0}, {0, 2, 0}},
			"ilf": {{0, 0, 1}},
		},
		Characteristics:   []int{5, 5},
		ScaleFactors:      map[string]string{"prec": "n", "flex": "high"},
		EffortMultipliers: map[string]string{"pers": "h", "rcpx": "very_high"},
		Composition: schema.Cocomo2Composition{
			ReusePercent:  20,
			SimpleScreens: 2,
			MediumReports: 1,
			Modules:       1,
		},
	}
}

func TestEstimateCocomo2(t *testing.T) {
	result, err := EstimateCocomo2(cocomo2Sample())
	require.NoError(t, err)

	assert.Equal(t, 21.0, result.UFP, "1×3 + 2×4 for EI plus 1×10 for ILF")
	assert.Equal(t, 10, result.DI)
	assert.InDelta(t, 21*0.75, result.FP, 1e-9)

	assert.InDelta(t, 1.01+0.01*(3.7+1.2), result.Exponent, 1e-9)
	assert.InDelta(t, 0.86*1.40, result.EAF, 1e-9)
	assert.Equal(t, map[string]float64{"prec": 3.7, "flex": 1.2}, result.ScaleFactors)
	assert.Equal(t, map[string]float64{"pers": 0.86, "rcpx": 1.40}, result.EffortMultipliers)
	assert.InDelta(t, 21*53.1/1000, result.KSLOC, 1e-9)

	wantEffort := 2.45 * result.EAF * math.Pow(result.KSLOC, result.Exponent)
	assert.InDelta(t, wantEffort, result.EarlyDesignEffort, 1e-9)
	assert.InDelta(t, 3*math.Pow(wantEffort, 0.33+0.2*(result.Exponent-1.01)), result.EarlyDesignTime, 1e-9)

	assert.Equal(t, 17.0, result.ObjectPoints, "2 simple screens, 1 medium report, 1 module")
	assert.InDelta(t, 13.6, result.NewObjectPoints, 1e-9)
	assert.InDelta(t, 0.136, result.CompositionEffort, 1e-9, "productivity defaults to 100")
	assert.InDelta(t, 3*math.Pow(0.136, 0.33+0.2*(result.Exponent-1.01)), result.CompositionTime, 1e-9)
}

func TestEstimateCocomo2_UnratedFactors(t *testing.T) {
	in := cocomo2Sample()
	in.ScaleFactors = nil
	in.EffortMultipliers = map[string]string{"risk": "n"}

	_, err := EstimateCocomo2(in)
	require.ErrorIs(t, err, schema.ErrValidation, "risk is a scale factor, not an effort multiplier")

	in.EffortMultipliers = nil
	in.ScaleFactors = map[string]string{"Risk": "vl"}
	result, err := EstimateCocomo2(in)
	require.NoError(t, err)
	assert.InDelta(t, 1.07, result.Exponent, 1e-9)
	assert.Equal(t, 1.0, result.EAF)
	assert.Equal(t, map[string]float64{"resl": 6.0}, result.ScaleFactors)
}

func TestEstimateCocomo2_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*schema.Cocomo2Input)
		field  string
	}{
		{"no functions", func(in *schema.Cocomo2Input) { in.Functions = nil }, "functions"},
		{"unknown function type", func(in *schema.Cocomo2Input) { in.Functions["xx"] = [][]int{{1}} }, "functions"},
		{"negative count", func(in *schema.Cocomo2Input) { in.Functions["eo"] = [][]int{{0, -1}} }, "functions.eo[0][1]"},
		{"too many rows", func(in *schema.Cocomo2Input) { in.Functions["eq"] = [][]int{{1}, {1}, {1}, {1}} }, "functions.eq"},
		{"too many columns", func(in *schema.Cocomo2Input) { in.Functions["eif"] = [][]int{{1, 1, 1, 1}} }, "functions.eif[0]"},
		{"bad characteristic", func(in *schema.Cocomo2Input) { in.Characteristics = []int{9} }, "characteristics"},
		{"unknown scale factor", func(in *schema.Cocomo2Input) { in.ScaleFactors["vibes"] = "h" }, "scale_factors"},
		{"bad rating", func(in *schema.Cocomo2Input) { in.ScaleFactors["team"] = "medium" }, "scale_factors"},
		{"rating not defined for factor", func(in *schema.Cocomo2Input) { in.EffortMultipliers["pdif"] = "low" }, "effort_multipliers"},
		{"reuse above 100", func(in *schema.Cocomo2Input) { in.Composition.ReusePercent = 120 }, "composition.reuse_percent"},
		{"negative productivity", func(in *schema.Cocomo2Input) { in.Composition.Productivity = -1 }, "composition.productivity"},
		{"negative modules", func(in *schema.Cocomo2Input) { in.Composition.Modules = -1 }, "composition.modules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cocomo2Sample()
			tt.modify(&in)
			_, err := EstimateCocomo2(in)
			require.ErrorIs(t, err, schema.ErrValidation)
			var verr *schema.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Issues[0].Field)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]Level{"EL": "el", "very_low": "vl", "L": "l", "nominal": "n", "High": "h", "vh": "vh", "xh": "eh"} {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseLevel("")
	assert.Error(t, err)
}

func TestCocomo2NominalMultipliersAreOne(t *testing.T) {
	for _, f := range EffortMultipliers {
		assert.Equal(t, 1.0, f.Values["n"], f.Key)
	}
}
