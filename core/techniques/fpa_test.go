package techniques

import (
	"testing"

	"github.com/huangsam/delphi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threes(n int) []int {
	ratings := make([]int, n)
	for i := range ratings {
		ratings[i] = 3
	}
	return ratings
}

func TestEstimateFPA(t *testing.T) {
	counts := schema.FPAInput{Inputs: 10, Outputs: 7, Inquiries: 5, Files: 4, Interfaces: 2}

	tests := []struct {
		name            string
		complexity      schema.FPComplexity
		characteristics []int
		ufp             float64
		di              int
		fp              float64
	}{
		{"average by default", "", nil, 149, 0, 96.85},
		{"simple", schema.SimpleComplexity, nil, 111, 0, 72.15},
		{"complex", schema.ComplexComplexity, nil, 219, 0, 142.35},
		{"all characteristics average", schema.AverageComplexity, threes(14), 149, 42, 159.43},
		{"partial ratings", schema.AverageComplexity, []int{5, 5, 0, 1}, 149, 11, 113.24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := counts
			in.Complexity = tt.complexity
			in.Characteristics = tt.characteristics

			result, err := EstimateFPA(in)
			require.NoError(t, err)
			assert.Equal(t, tt.ufp, result.UFP)
			assert.Equal(t, tt.di, result.DI)
			assert.InDelta(t, 0.65+0.01*float64(tt.di), result.VAF, 1e-9)
			assert.InDelta(t, tt.fp, result.FP, 1e-9)
		})
	}
}

func TestEstimateFPA_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    schema.FPAInput
		field string
	}{
		{"negative inputs", schema.FPAInput{Inputs: -1}, "inputs"},
		{"negative interfaces", schema.FPAInput{Interfaces: -2}, "interfaces"},
		{"unknown complexity", schema.FPAInput{Complexity: "huge"}, "complexity"},
		{"rating above 5", schema.FPAInput{Characteristics: []int{6}}, "characteristics"},
		{"negative rating", schema.FPAInput{Characteristics: []int{-1}}, "characteristics"},
		{"too many ratings", schema.FPAInput{Characteristics: threes(15)}, "characteristics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EstimateFPA(tt.in)
			require.ErrorIs(t, err, schema.ErrValidation)
			var verr *schema.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Issues[0].Field)
		})
	}
}

func TestEstimateFPA_ZeroCounts(t *testing.T) {
	result, err := EstimateFPA(schema.FPAInput{})
	require.NoError(t, err)
	assert.Zero(t, result.UFP)
	assert.Zero(t, result.FP)
	assert.Equal(t, [5]int{4, 5, 4, 10, 7}, result.Weights)
}
