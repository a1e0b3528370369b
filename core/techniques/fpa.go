package techniques

import (
	"fmt"
	"math"

	"github.com/huangsam/delphi/schema"
)

// fpaWeights are the weights of inputs, outputs, inquiries, files and interfaces per complexity.
var fpaWeights = map[schema.FPComplexity][5]int{
	schema.SimpleComplexity:  {3, 4, 3, 7, 5},
	schema.AverageComplexity: {4, 5, 4, 10, 7},
	schema.ComplexComplexity: {6, 7, 6, 15, 10},
}

// ValueAdjustment returns the value adjustment factor 0.65 + 0.01 × DI.
func ValueAdjustment(di int) float64 {
	return 0.65 + 0.01*float64(di)
}

// EstimateFPA computes unadjusted and adjusted function points.
// The adjusted count is rounded to two decimals.
func EstimateFPA(in schema.FPAInput) (schema.FPAResult, error) {
	verr := &schema.ValidationError{}

	complexity := in.Complexity
	if complexity == "" {
		complexity = schema.AverageComplexity
	}
	weights, ok := fpaWeights[complexity]
	if !ok {
		verr.Add("complexity", -1, "", fmt.Sprintf("unknown complexity %q", in.Complexity))
	}

	counts := []struct {
		field string
		n     int
	}{
		{"inputs", in.Inputs},
		{"outputs", in.Outputs},
		{"inquiries", in.Inquiries},
		{"files", in.Files},
		{"interfaces", in.Interfaces},
	}
	for _, c := range counts {
		if c.n < 0 {
			verr.Add(c.field, -1, "", "must be 0 or more")
		}
	}
	di := degreeOfInfluence(in.Characteristics, verr)

	if verr.HasIssues() {
		return schema.FPAResult{}, verr
	}

	var ufp float64
	for i, c := range counts {
		ufp += float64(weights[i] * c.n)
	}
	vaf := ValueAdjustment(di)
	return schema.FPAResult{
		Complexity: complexity,
		Weights:    weights,
		UFP:        ufp,
		DI:         di,
		VAF:        vaf,
		FP:         math.Round(ufp*vaf*100) / 100,
	}, nil
}

// degreeOfInfluence sums the general system characteristic ratings.
func degreeOfInfluence(ratings []int, verr *schema.ValidationError) int {
	if len(ratings) > schema.GeneralCharacteristics {
		verr.Add("characteristics", -1, "", fmt.Sprintf("at most %d ratings, got %d", schema.GeneralCharacteristics, len(ratings)))
		return 0
	}
	var di int
	for i, r := range ratings {
		if r < 0 || r > 5 {
			verr.Add("characteristics", i, "", "rating must be between 0 and 5")
			continue
		}
		di += r
	}
	return di
}
