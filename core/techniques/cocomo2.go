package techniques

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/huangsam/delphi/schema"
)

// Level is a COCOMO II rating label: el, vl, l, n, h, vh or eh.
type Level string

var levelNames = map[string]Level{
	"el": "el", "xl": "el", "extra_low": "el", "extra-low": "el", "extremely_low": "el",
	"vl": "vl", "very_low": "vl", "very-low": "vl",
	"l": "l", "low": "l",
	"n": "n", "nominal": "n",
	"h": "h", "high": "h",
	"vh": "vh", "very_high": "vh", "very-high": "vh",
	"eh": "eh", "xh": "eh", "extra_high": "eh", "extra-high": "eh", "extremely_high": "eh",
}

// ParseLevel converts a rating name such as "high" or "vh" into a Level.
func ParseLevel(s string) (Level, error) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid rating '%s'. must be el, vl, l, n, h, vh or eh", s)
	}
	return l, nil
}

// Factor is a COCOMO II scale factor or effort multiplier with its value per level.
type Factor struct {
	Key         string
	Description string
	Values      map[Level]float64
}

// ScaleFactors feed the exponent 1.01 + 0.01 × ΣSF.
var ScaleFactors = []Factor{
	{"prec", "Precedentedness", map[Level]float64{"vl": 6.2, "l": 4.9, "n": 3.7, "h": 2.6, "vh": 1.2, "eh": 0}},
	{"flex", "Development flexibility", map[Level]float64{"vl": 5.0, "l": 3.7, "n": 2.6, "h": 1.2, "vh": 0.4, "eh": 0}},
	{"resl", "Risk resolution", map[Level]float64{"vl": 6.0, "l": 4.0, "n": 3.0, "h": 1.5, "vh": 0.7, "eh": 0}},
	{"team", "Team cohesion", map[Level]float64{"vl": 5.4, "l": 4.7, "n": 3.4, "h": 2.4, "vh": 1.0, "eh": 0}},
	{"pmat", "Process maturity", map[Level]float64{"vl": 5.6, "l": 4.2, "n": 2.8, "h": 1.3, "vh": 0.4, "eh": 0}},
}

// EffortMultipliers are the early design cost drivers whose product is the EAF.
var EffortMultipliers = []Factor{
	{"pers", "Personnel capability", map[Level]float64{"el": 1.42, "l": 1.17, "n": 1, "h": 0.86, "vh": 0.70}},
	{"rcpx", "Product reliability and complexity", map[Level]float64{"vl": 0.75, "l": 0.88, "n": 1, "h": 1.15, "vh": 1.40, "eh": 2.14}},
	{"ruse", "Required reusability", map[Level]float64{"l": 0.95, "n": 1, "h": 1.07, "vh": 1.15, "eh": 1.24}},
	{"pdif", "Platform difficulty", map[Level]float64{"n": 1, "h": 1.08, "vh": 1.16, "eh": 1.24}},
	{"fcil", "Facilities", map[Level]float64{"el": 1.43, "l": 1.14, "n": 1, "h": 0.87, "vh": 0.74}},
	{"sced", "Required development schedule", map[Level]float64{"vl": 1.29, "l": 1.10, "n": 1, "h": 1, "vh": 1, "eh": 1.23}},
	{"prex", "Personnel experience", map[Level]float64{"vl": 1.22, "l": 1.09, "n": 1, "h": 0.90, "vh": 0.81}},
}

var factorAliases = map[string]string{"risk": "resl"}

// functionWeights are the FPA complexity tables per function type.
var functionWeights = map[string][3][3]int{
	"ei":  {{3, 3, 4}, {3, 4, 6}, {4, 6, 6}},
	"eo":  {{4, 4, 5}, {4, 5, 7}, {5, 7, 7}},
	"ilf": {{7, 7, 10}, {7, 10, 15}, {10, 15, 15}},
	"eif": {{5, 5, 7}, {5, 7, 10}, {7, 10, 10}},
	"eq":  {{3, 3, 4}, {3, 4, 6}, {4, 6, 6}},
}

// SLOCPerFunctionPoint converts function points to source lines for a language mix of
// 30% at 64, 10% at 21 and 60% at 53 lines per function point.
const SLOCPerFunctionPoint = (30*64 + 10*21 + 60*53) / 100.0

// Default productivity of the application composition model, in object points per person-month.
const defaultProductivity = 100

// EstimateCocomo2 computes a COCOMO II early design estimate from function points and
// an application composition estimate from object points.
func EstimateCocomo2(in schema.Cocomo2Input) (schema.Cocomo2Result, error) {
	verr := &schema.ValidationError{}

	ufp := unadjustedFunctionPoints(in.Functions, verr)
	di := degreeOfInfluence(in.Characteristics, verr)
	scale, sumSF := rateFactors("scale_factors", ScaleFactors, in.ScaleFactors, verr)
	multipliers, _ := rateFactors("effort_multipliers", EffortMultipliers, in.EffortMultipliers, verr)
	comp := in.Composition
	if comp.Productivity == 0 {
		comp.Productivity = defaultProductivity
	}
	validateComposition(comp, verr)

	if !verr.HasIssues() && ufp == 0 {
		verr.Add("functions", -1, "", "count at least one function to size the early design estimate")
	}
	if verr.HasIssues() {
		return schema.Cocomo2Result{}, verr
	}

	eaf := 1.0
	for _, m := range multipliers {
		eaf *= m
	}
	p := 1.01 + 0.01*sumSF
	ksloc := ufp * SLOCPerFunctionPoint / 1000
	effort := 2.45 * eaf * math.Pow(ksloc, p)

	objectPoints := float64(comp.SimpleScreens+2*comp.MediumScreens+3*comp.HardScreens) +
		float64(2*comp.SimpleReports+5*comp.MediumReports+8*comp.HardReports) +
		float64(10*comp.Modules)
	newObjectPoints := objectPoints * (100 - comp.ReusePercent) / 100
	compEffort := newObjectPoints / comp.Productivity

	return schema.Cocomo2Result{
		DI:                di,
		UFP:               ufp,
		FP:                ufp * ValueAdjustment(di),
		ScaleFactors:      scale,
		EffortMultipliers: multipliers,
		Exponent:          p,
		EAF:               eaf,
		KSLOC:             ksloc,
		EarlyDesignEffort: effort,
		EarlyDesignTime:   schedule(effort, p),
		ObjectPoints:      objectPoints,
		NewObjectPoints:   newObjectPoints,
		CompositionEffort: compEffort,
		CompositionTime:   schedule(compEffort, p),
	}, nil
}

// schedule returns the development time 3 × effort^(0.33 + 0.2 × (p − 1.01)).
func schedule(effort, p float64) float64 {
	return 3 * math.Pow(effort, 0.33+0.2*(p-1.01))
}

func unadjustedFunctionPoints(functions map[string][][]int, verr *schema.ValidationError) float64 {
	types := make([]string, 0, len(functions))
	for key := range functions {
		types = append(types, key)
	}
	sort.Strings(types)

	var ufp float64
	for _, key := range types {
		weights, ok := functionWeights[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			verr.Add("functions", -1, key, "unknown function type. must be ei, eo, ilf, eif or eq")
			continue
		}
		matrix := functions[key]
		if len(matrix) > 3 {
			verr.Add("functions."+key, -1, "", "at most 3 rows")
			continue
		}
		for i, row := range matrix {
			if len(row) > 3 {
				verr.Add(fmt.Sprintf("functions.%s[%d]", key, i), -1, "", "at most 3 columns")
				continue
			}
			for j, n := range row {
				if n < 0 {
					verr.Add(fmt.Sprintf("functions.%s[%d][%d]", key, i, j), -1, "", "must be 0 or more")
					continue
				}
				ufp += float64(n * weights[i][j])
			}
		}
	}
	return ufp
}

// rateFactors looks up the value of every rated factor and returns them with their sum.
func rateFactors(field string, factors []Factor, ratings map[string]string, verr *schema.ValidationError) (map[string]float64, float64) {
	keys := make([]string, 0, len(ratings))
	for key := range ratings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make(map[string]float64, len(ratings))
	var sum float64
	for _, key := range keys {
		rating := ratings[key]
		name := strings.ToLower(strings.TrimSpace(key))
		if alias, ok := factorAliases[name]; ok {
			name = alias
		}
		factor, found := findFactor(factors, name)
		if !found {
			verr.Add(field, -1, key, "unknown factor")
			continue
		}
		level, err := ParseLevel(rating)
		if err != nil {
			verr.Add(field, -1, key, err.Error())
			continue
		}
		v, ok := factor.Values[level]
		if !ok {
			verr.Add(field, -1, key, fmt.Sprintf("rating %s is not defined for %s", level, factor.Description))
			continue
		}
		values[factor.Key] = v
		sum += v
	}
	return values, sum
}

func findFactor(factors []Factor, key string) (Factor, bool) {
	for _, f := range factors {
		if f.Key == key {
			return f, true
		}
	}
	return Factor{}, false
}

func validateComposition(c schema.Cocomo2Composition, verr *schema.ValidationError) {
	if math.IsNaN(c.ReusePercent) || c.ReusePercent < 0 || c.ReusePercent > 100 {
		verr.Add("composition.reuse_percent", -1, "", "must be between 0 and 100")
	}
	if !positive(c.Productivity) {
		verr.Add("composition.productivity", -1, "", "must be a positive number")
	}
	for _, count := range []struct {
		name string
		n    int
	}{
		{"simple_screens", c.SimpleScreens},
		{"medium_screens", c.MediumScreens},
		{"hard_screens", c.HardScreens},
		{"simple_reports", c.SimpleReports},
		{"medium_reports", c.MediumReports},
		{"hard_reports", c.HardReports},
		{"modules", c.Modules},
	} {
		if count.n < 0 {
			verr.Add("composition."+count.name, -1, "", "must be 0 or more")
		}
	}
}
