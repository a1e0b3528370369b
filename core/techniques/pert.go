// Package techniques has the single-estimator techniques that complement a
// Delphi session: three-point (PERT) estimation, intermediate COCOMO-I,
// function point analysis and COCOMO II.
package techniques

import (
	"fmt"
	"math"
	"strings"

	"github.com/huangsam/delphi/schema"
)

// PERTWeight is the weight given to the most likely value in (o + 4m + p) / 6.
const PERTWeight = 4

// ThreePoint returns the PERT weighted estimate of one subtask.
func ThreePoint(o, m, p float64) float64 {
	return (o + PERTWeight*m + p) / (PERTWeight + 2)
}

// EstimatePERT validates the task list and computes the weighted estimate of every task.
// Any validation issue rejects the whole list so partial totals are never reported.
func EstimatePERT(tasks []schema.PERTTask) (schema.PERTResult, error) {
	if err := validateTasks(tasks); err != nil {
		return schema.PERTResult{}, err
	}

	result := schema.PERTResult{Tasks: make([]schema.PERTTaskResult, len(tasks))}
	for i, task := range tasks {
		tr := schema.PERTTaskResult{Name: strings.TrimSpace(task.Name)}
		for _, st := range task.Subtasks {
			est := ThreePoint(st.Optimistic, st.MostLikely, st.Pessimistic)
			tr.Subtasks = append(tr.Subtasks, est)
			tr.Estimate += est
		}
		// A task without subtasks has nothing to estimate
		tr.Counted = len(tr.Subtasks) > 0
		if tr.Counted {
			result.TotalTasks++
			result.TotalEstimate += tr.Estimate
		}
		result.Tasks[i] = tr
	}
	return result, nil
}

func validateTasks(tasks []schema.PERTTask) error {
	verr := &schema.ValidationError{}
	if len(tasks) == 0 {
		verr.Add("tasks", -1, "", "add at least one task")
		return verr
	}

	for i, task := range tasks {
		name := strings.TrimSpace(task.Name)
		if name == "" {
			verr.Add(fmt.Sprintf("tasks[%d].name", i), -1, "", "task name is required")
		}
		for j, st := range task.Subtasks {
			field := func(part string) string {
				return fmt.Sprintf("tasks[%d].subtasks[%d].%s", i, j, part)
			}
			o, m, p := st.Optimistic, st.MostLikely, st.Pessimistic
			if !positive(o) {
				verr.Add(field("optimistic"), -1, name, "must be a positive number")
			}
			if !positive(m) {
				verr.Add(field("most_likely"), -1, name, "must be a positive number")
			}
			if !positive(p) {
				verr.Add(field("pessimistic"), -1, name, "must be a positive number")
			}
			if positive(o) && positive(p) && o > p {
				verr.Add(field("pessimistic"), -1, name, "must be greater than or equal to optimistic")
			}
			if positive(o) && positive(m) && positive(p) && o <= p && (m < o || m > p) {
				verr.Add(field("most_likely"), -1, name, "must lie between optimistic and pessimistic")
			}
		}
	}
	if verr.HasIssues() {
		return verr
	}
	return nil
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
