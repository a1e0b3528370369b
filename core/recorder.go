package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/huangsam/delphi/schema"
)

// RecordRound merges one submission into the estimator's record and returns the new record.
// existing is nil when no record with the same case-insensitive name exists.
// The function is pure; persisting the result is the caller's job.
func RecordRound(existing *schema.EstimationRecord, modules []schema.Module, sub schema.Submission) (schema.EstimationRecord, error) {
	name := strings.TrimSpace(sub.EstimatorName)
	if err := validateSubmission(name, modules, sub); err != nil {
		return schema.EstimationRecord{}, err
	}
	if existing != nil && existing.Key() != schema.EstimatorKey(name) {
		return schema.EstimationRecord{}, &schema.DataIntegrityError{
			Estimator: name,
			Reason:    fmt.Sprintf("existing record belongs to %q", existing.EstimatorName),
		}
	}

	data := schema.Submitted(sub.Estimates)

	if sub.Round == schema.Round1 {
		if existing != nil && existing.Round1.IsSubmitted() && !sub.Overwrite {
			return schema.EstimationRecord{}, schema.ErrOverwriteRequired
		}
		// A new round 1 starts the estimator over; later rounds were based on the old figures.
		return schema.EstimationRecord{EstimatorName: name, Round1: data}, nil
	}

	missing := sub.Round.Previous()
	if existing == nil || !existing.Round(missing).IsSubmitted() {
		return schema.EstimationRecord{}, &schema.OutOfOrderError{
			Estimator: name,
			Round:     sub.Round,
			Missing:   missing,
		}
	}
	return existing.WithRound(sub.Round, data), nil
}

// validateSubmission collects every problem with the submission into one ValidationError.
func validateSubmission(name string, modules []schema.Module, sub schema.Submission) error {
	verr := &schema.ValidationError{Estimator: name, Round: sub.Round}

	if name == "" {
		verr.Add("estimator_name", -1, "", "must not be empty")
	}
	if !sub.Round.Valid() {
		verr.Add("round", -1, "", "must be 1, 2 or 3")
	}
	if len(modules) == 0 {
		verr.Add("modules", -1, "", "no modules are defined for this project")
	}
	if len(modules) > 0 && len(sub.Estimates) != len(modules) {
		verr.Add("estimates", -1, "", countMismatch(len(sub.Estimates), len(modules)))
	}

	for i, v := range sub.Estimates {
		moduleName := ""
		if i < len(modules) {
			moduleName = modules[i].Name
		}
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			verr.Add("estimates", i, moduleName, "missing or non-numeric estimate")
		case v == 0:
			verr.Add("estimates", i, moduleName, "must be greater than 0 (got 0)")
		case v < 0:
			verr.Add("estimates", i, moduleName, "must not be negative")
		}
	}

	if !verr.HasIssues() && math.IsInf(sum(sub.Estimates), 0) {
		verr.Add("estimates", -1, "", "total of the estimates is too large")
	}

	if verr.HasIssues() {
		return verr
	}
	return nil
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func countMismatch(got, want int) string {
	return fmt.Sprintf("expected %d estimates (one per module), got %d", want, got)
}
