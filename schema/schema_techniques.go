package schema

import (
	"fmt"
	"strings"
)

// PERTSubtask is a three-point estimate for one piece of a task.
type PERTSubtask struct {
	Name        string  `json:"name" yaml:"name"`
	Optimistic  float64 `json:"optimistic" yaml:"optimistic"`
	MostLikely  float64 `json:"most_likely" yaml:"most_likely"`
	Pessimistic float64 `json:"pessimistic" yaml:"pessimistic"`
}

// PERTTask groups subtasks under a named task.
type PERTTask struct {
	Name     string        `json:"name" yaml:"name"`
	Subtasks []PERTSubtask `json:"subtasks" yaml:"subtasks"`
}

// PERTTaskResult is the weighted estimate of one task.
type PERTTaskResult struct {
	Name     string    `json:"name"`
	Subtasks []float64 `json:"subtasks"`
	Estimate float64   `json:"estimate"`
	Counted  bool      `json:"counted"`
}

// PERTResult is the three-point estimate of a whole task list.
type PERTResult struct {
	Tasks         []PERTTaskResult `json:"tasks"`
	TotalTasks    int              `json:"total_tasks"`
	TotalEstimate float64          `json:"total_estimate"`
}

// CocomoInput holds the inputs of an intermediate COCOMO-I estimate.
// KLOC takes precedence; SLOC is converted when KLOC is zero.
type CocomoInput struct {
	KLOC      float64           `json:"kloc"`
	SLOC      float64           `json:"sloc"`
	Class     CocomoClass       `json:"class"`
	Drivers   map[string]string `json:"drivers"`
	LaborRate float64           `json:"labor_rate"`
}

// CocomoResult is the effort, schedule and cost of a COCOMO-I estimate.
type CocomoResult struct {
	KLOC            float64            `json:"kloc"`
	Class           CocomoClass        `json:"class"`
	A               float64            `json:"a"`
	B               float64            `json:"b"`
	Multipliers     map[string]float64 `json:"multipliers"`
	EAF             float64            `json:"eaf"`
	Effort          float64            `json:"effort_person_months"`
	DevelopmentTime float64            `json:"development_time_months"`
	Cost            float64            `json:"cost"`
}

// FPComplexity selects one weight set for every function type in a function point count.
type FPComplexity string

// All function point complexities supported.
const (
	SimpleComplexity  FPComplexity = "simple"
	AverageComplexity FPComplexity = "average" // default
	ComplexComplexity FPComplexity = "complex"
)

// ParseFPComplexity accepts a complexity name or its numeric code (1, 2, 3).
func ParseFPComplexity(s string) (FPComplexity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "simple", "low":
		return SimpleComplexity, nil
	case "", "2", "average":
		return AverageComplexity, nil
	case "3", "complex", "high":
		return ComplexComplexity, nil
	default:
		return "", fmt.Errorf("invalid complexity '%s'. must be simple, average, complex", s)
	}
}

// GeneralCharacteristics is the number of general system characteristics rated 0..5
// when adjusting a function point count.
const GeneralCharacteristics = 14

// FPAInput holds the function counts and ratings of a function point analysis.
// Characteristics not given are rated 0.
type FPAInput struct {
	Inputs          int          `json:"inputs"`
	Outputs         int          `json:"outputs"`
	Inquiries       int          `json:"inquiries"`
	Files           int          `json:"files"`
	Interfaces      int          `json:"interfaces"`
	Complexity      FPComplexity `json:"complexity"`
	Characteristics []int        `json:"characteristics"`
}

// FPAResult is the unadjusted and adjusted size of a function point analysis.
type FPAResult struct {
	Complexity FPComplexity `json:"complexity"`
	Weights    [5]int       `json:"weights"`
	UFP        float64      `json:"unadjusted_function_points"`
	DI         int          `json:"degree_of_influence"`
	VAF        float64      `json:"value_adjustment_factor"`
	FP         float64      `json:"function_points"`
}

// Cocomo2Composition holds the application composition (object point) inputs.
type Cocomo2Composition struct {
	ReusePercent  float64 `json:"reuse_percent" yaml:"reuse_percent"`
	Productivity  float64 `json:"productivity" yaml:"productivity"`
	SimpleScreens int     `json:"simple_screens" yaml:"simple_screens"`
	MediumScreens int     `json:"medium_screens" yaml:"medium_screens"`
	HardScreens   int     `json:"hard_screens" yaml:"hard_screens"`
	SimpleReports int     `json:"simple_reports" yaml:"simple_reports"`
	MediumReports int     `json:"medium_reports" yaml:"medium_reports"`
	HardReports   int     `json:"hard_reports" yaml:"hard_reports"`
	Modules       int     `json:"modules" yaml:"modules"`
}

// Cocomo2Input holds the inputs of a COCOMO II early design and application composition estimate.
//
// Functions maps a function type (ei, eo, ilf, eif, eq) to a 3×3 matrix of counts.
// Rows and columns follow the usual FPA complexity tables, from simple to complex.
// Scale factors that are not rated contribute 0 and effort multipliers that are not rated are 1.
type Cocomo2Input struct {
	Functions         map[string][][]int `json:"functions" yaml:"functions"`
	Characteristics   []int              `json:"characteristics" yaml:"characteristics"`
	ScaleFactors      map[string]string  `json:"scale_factors" yaml:"scale_factors"`
	EffortMultipliers map[string]string  `json:"effort_multipliers" yaml:"effort_multipliers"`
	Composition       Cocomo2Composition `json:"composition" yaml:"composition"`
}

// Cocomo2Result is the size, effort and schedule of a COCOMO II estimate.
type Cocomo2Result struct {
	DI                int                `json:"degree_of_influence"`
	UFP               float64            `json:"unadjusted_function_points"`
	FP                float64            `json:"function_points"`
	ScaleFactors      map[string]float64 `json:"scale_factors"`
	EffortMultipliers map[string]float64 `json:"effort_multipliers"`
	Exponent          float64            `json:"exponent"`
	EAF               float64            `json:"eaf"`
	KSLOC             float64            `json:"ksloc"`
	EarlyDesignEffort float64            `json:"early_design_effort_person_months"`
	EarlyDesignTime   float64            `json:"early_design_time_months"`
	ObjectPoints      float64            `json:"object_points"`
	NewObjectPoints   float64            `json:"new_object_points"`
	CompositionEffort float64            `json:"composition_effort_person_months"`
	CompositionTime   float64            `json:"composition_time_months"`
}
