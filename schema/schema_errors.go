package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks across the engine.
var (
	ErrValidation        = errors.New("validation failed")
	ErrOutOfOrder        = errors.New("round submitted out of order")
	ErrDataIntegrity     = errors.New("estimation data is inconsistent")
	ErrNotComputable     = errors.New("statistics not computable: fewer than 2 estimators have data")
	ErrOverwriteRequired = errors.New("round 1 already submitted: overwrite must be confirmed")
	ErrModulesLocked     = errors.New("modules cannot change once estimation has started")
	ErrEstimatorNotFound = errors.New("estimator not found")
)

// Issue is a single failing field in a rejected submission.
type Issue struct {
	Field       string `json:"field"`
	ModuleIndex int    `json:"module_index"` // -1 when the issue is not tied to a module
	Module      string `json:"module,omitempty"`
	Message     string `json:"message"`
}

func (i Issue) String() string {
	if i.ModuleIndex >= 0 {
		if i.Module != "" {
			return fmt.Sprintf("%s[%d] (%s): %s", i.Field, i.ModuleIndex, i.Module, i.Message)
		}
		return fmt.Sprintf("%s[%d]: %s", i.Field, i.ModuleIndex, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidationError rejects malformed input and lists every failing field.
type ValidationError struct {
	Estimator string  `json:"estimator"`
	Round     Round   `json:"round"`
	Issues    []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	subject := "submission"
	if e.Estimator != "" {
		subject = fmt.Sprintf("submission from %q", e.Estimator)
	}
	return fmt.Sprintf("%s rejected: %s", subject, strings.Join(parts, "; "))
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add appends an issue to the error.
func (e *ValidationError) Add(field string, moduleIndex int, module, message string) {
	e.Issues = append(e.Issues, Issue{Field: field, ModuleIndex: moduleIndex, Module: module, Message: message})
}

// HasIssues reports whether any issue was recorded.
func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// OutOfOrderError rejects a round whose predecessor is missing.
type OutOfOrderError struct {
	Estimator string `json:"estimator"`
	Round     Round  `json:"round"`
	Missing   Round  `json:"missing"`
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("cannot submit %s for %q: %s has not been submitted", e.Round, e.Estimator, e.Missing)
}

// Is lets errors.Is match ErrOutOfOrder.
func (e *OutOfOrderError) Is(target error) bool {
	return target == ErrOutOfOrder
}

// DataIntegrityError reports stored records that cannot yield a trustworthy result.
type DataIntegrityError struct {
	Estimator string `json:"estimator"`
	Reason    string `json:"reason"`
}

func (e *DataIntegrityError) Error() string {
	if e.Estimator == "" {
		return fmt.Sprintf("data integrity: %s", e.Reason)
	}
	return fmt.Sprintf("data integrity: estimator %q: %s", e.Estimator, e.Reason)
}

// Is lets errors.Is match ErrDataIntegrity.
func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}
