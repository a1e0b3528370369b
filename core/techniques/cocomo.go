package techniques

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/huangsam/delphi/schema"
)

// CocomoCoefficients are the a and b constants of basic COCOMO-I for one project class.
type CocomoCoefficients struct {
	A float64
	B float64
}

// cocomoClasses holds the coefficients per project class.
var cocomoClasses = map[schema.CocomoClass]CocomoCoefficients{
	schema.OrganicClass:      {A: 2.4, B: 1.05},
	schema.SemiDetachedClass: {A: 3.0, B: 1.12},
	schema.EmbeddedClass:     {A: 3.6, B: 1.20},
}

// Rating is a cost driver level, from very low to extra high.
type Rating int

// All ratings supported.
const (
	VeryLow Rating = iota
	Low
	Nominal
	High
	VeryHigh
	ExtraHigh
)

var ratingNames = map[string]Rating{
	"vl": VeryLow, "very_low": VeryLow, "very-low": VeryLow, "verylow": VeryLow,
	"l": Low, "low": Low,
	"n": Nominal, "nominal": Nominal, "": Nominal,
	"h": High, "high": High,
	"vh": VeryHigh, "very_high": VeryHigh, "very-high": VeryHigh, "veryhigh": VeryHigh,
	"xh": ExtraHigh, "extra_high": ExtraHigh, "extra-high": ExtraHigh, "extremely_high": ExtraHigh, "extrahigh": ExtraHigh,
}

// ParseRating converts a rating name such as "high" or "vh" into a Rating.
func ParseRating(s string) (Rating, error) {
	r, ok := ratingNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid rating '%s'. must be very_low, low, nominal, high, very_high or extra_high", s)
	}
	return r, nil
}

// CostDriver is one of the fifteen effort multipliers of intermediate COCOMO-I.
type CostDriver struct {
	Key         string
	Description string
	Multipliers [6]float64 // indexed by Rating
}

var (
	productScale   = [6]float64{0.75, 0.88, 1, 1.15, 1.40, 1.50}
	capabilityLoss = [6]float64{1.24, 1.10, 1, 0.91, 0.82, 0.50}
)

// CostDrivers lists every supported cost driver in display order.
var CostDrivers = []CostDriver{
	{"reliability", "Required software reliability", productScale},
	{"size-db", "Size of application database", [6]float64{0.75, 0.94, 1, 1.08, 1.16, 1.30}},
	{"complexity", "Complexity of the product", [6]float64{0.75, 0.85, 1, 1.15, 1.30, 1.65}},
	{"runtime", "Run-time performance constraints", productScale},
	{"memory", "Memory constraints", productScale},
	{"volatility", "Volatility of the virtual machine environment", productScale},
	{"turnabout", "Required turnabout time", productScale},
	{"analyst", "Analyst capability", [6]float64{1.46, 1.19, 1, 0.86, 0.71, 0.50}},
	{"experience", "Application experience", [6]float64{1.29, 1.13, 1, 0.91, 0.82, 0.50}},
	{"engineering", "Software engineering capability", [6]float64{1.42, 1.17, 1, 0.86, 0.71, 0.50}},
	{"vm-experience", "Virtual machine experience", [6]float64{1.21, 1.10, 1, 0.90, 0.71, 0.50}},
	{"language", "Programming language experience", [6]float64{1.14, 1.07, 1, 0.95, 0.71, 0.50}},
	{"methods", "Application of software engineering methods", capabilityLoss},
	{"tools", "Use of software tools", capabilityLoss},
	{"schedule", "Required development schedule", capabilityLoss},
}

func findDriver(key string) (CostDriver, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, d := range CostDrivers {
		if d.Key == key {
			return d, true
		}
	}
	return CostDriver{}, false
}

// EstimateCocomo computes effort, development time and cost with intermediate COCOMO-I.
// Drivers left out of the input are rated nominal.
func EstimateCocomo(in schema.CocomoInput) (schema.CocomoResult, error) {
	verr := &schema.ValidationError{}

	kloc := in.KLOC
	if kloc == 0 && in.SLOC != 0 {
		kloc = in.SLOC / 1000
	}
	if !positive(kloc) {
		verr.Add("kloc", -1, "", "size must be a positive number of KLOC or SLOC")
	}

	class := in.Class
	if class == "" {
		class = schema.OrganicClass
	}
	coef, ok := cocomoClasses[class]
	if !ok {
		verr.Add("class", -1, "", fmt.Sprintf("unknown project class %q", in.Class))
	}

	laborRate := in.LaborRate
	if laborRate == 0 {
		laborRate = 1
	}
	if !positive(laborRate) {
		verr.Add("labor_rate", -1, "", "must be a positive number")
	}

	multipliers := make(map[string]float64, len(in.Drivers))
	keys := make([]string, 0, len(in.Drivers))
	for key := range in.Drivers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	eaf := 1.0
	for _, key := range keys {
		driver, found := findDriver(key)
		if !found {
			verr.Add("drivers", -1, key, "unknown cost driver")
			continue
		}
		rating, err := ParseRating(in.Drivers[key])
		if err != nil {
			verr.Add("drivers", -1, key, err.Error())
			continue
		}
		m := driver.Multipliers[rating]
		multipliers[driver.Key] = m
		eaf *= m
	}

	if verr.HasIssues() {
		return schema.CocomoResult{}, verr
	}

	effort := coef.A * math.Pow(kloc, coef.B) * eaf
	devTime := 2.5 * math.Pow(effort, 0.32+0.2*(coef.B-1.01))
	return schema.CocomoResult{
		KLOC:            kloc,
		Class:           class,
		A:               coef.A,
		B:               coef.B,
		Multipliers:     multipliers,
		EAF:             eaf,
		Effort:          effort,
		DevelopmentTime: devTime,
		Cost:            effort * laborRate,
	}, nil
}
