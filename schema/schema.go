// Package schema has models, errors and constants for all parts of delphi.
package schema

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Round is one of the three sequential Delphi estimation passes.
type Round int

// All rounds supported.
const (
	Round1 Round = 1
	Round2 Round = 2
	Round3 Round = 3
)

// AllRounds lists every round in submission order.
var AllRounds = []Round{Round1, Round2, Round3}

// Valid reports whether r is 1, 2 or 3.
func (r Round) Valid() bool {
	return r >= Round1 && r <= Round3
}

// Previous returns the round that must exist before r can be submitted.
// Round 1 has no predecessor and returns 0.
func (r Round) Previous() Round {
	if r <= Round1 {
		return 0
	}
	return r - 1
}

// String renders the round for messages and table headers.
func (r Round) String() string {
	return fmt.Sprintf("Round %d", int(r))
}

// ParseRound converts user input such as "2" into a Round.
func ParseRound(s string) (Round, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Round(n).Valid() {
		return 0, fmt.Errorf("invalid round '%s'. must be 1, 2 or 3", s)
	}
	return Round(n), nil
}

// RoundsUpTo returns the rounds visible at view r (1..r).
func RoundsUpTo(r Round) []Round {
	if !r.Valid() {
		return nil
	}
	return AllRounds[:int(r)]
}

// Module is a unit of project scope to be estimated.
type Module struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoundData holds one estimator's per-module estimates for a single round.
// The zero value is NotSubmitted.
type RoundData struct {
	values    []float64
	submitted bool
}

// NotSubmitted returns RoundData for a round the estimator has not submitted yet.
func NotSubmitted() RoundData {
	return RoundData{}
}

// Submitted returns RoundData holding a copy of values.
// An empty slice carries no estimates and is treated as NotSubmitted.
func Submitted(values []float64) RoundData {
	if len(values) == 0 {
		return RoundData{}
	}
	return RoundData{values: slices.Clone(values), submitted: true}
}

// IsSubmitted reports whether the estimator has submitted this round.
func (d RoundData) IsSubmitted() bool {
	return d.submitted
}

// Values returns a copy of the estimates, or nil when not submitted.
func (d RoundData) Values() []float64 {
	if !d.submitted {
		return nil
	}
	return slices.Clone(d.values)
}

// Len returns the number of estimates in the round.
func (d RoundData) Len() int {
	return len(d.values)
}

// At returns the estimate for module index i and whether it exists.
func (d RoundData) At(i int) (float64, bool) {
	if !d.submitted || i < 0 || i >= len(d.values) {
		return 0, false
	}
	return d.values[i], true
}

// Total sums the estimates of the round; a round that was not submitted totals 0.
func (d RoundData) Total() float64 {
	total := 0.0
	for _, v := range d.values {
		total += v
	}
	return total
}

// Equal reports whether two rounds hold the same state and estimates.
func (d RoundData) Equal(other RoundData) bool {
	return d.submitted == other.submitted && slices.Equal(d.values, other.values)
}

// MarshalJSON encodes a submitted round as an array and a missing one as null.
func (d RoundData) MarshalJSON() ([]byte, error) {
	if !d.submitted {
		return []byte("null"), nil
	}
	return json.Marshal(d.values)
}

// UnmarshalJSON accepts null, an empty array or an array of numbers.
func (d *RoundData) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = NotSubmitted()
		return nil
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("round data must be null or an array of numbers: %w", err)
	}
	*d = Submitted(values)
	return nil
}

// EstimationRecord holds every round submitted by one estimator.
type EstimationRecord struct {
	EstimatorName string    `json:"estimator_name"`
	Round1        RoundData `json:"round1"`
	Round2        RoundData `json:"round2"`
	Round3        RoundData `json:"round3"`
}

// EstimatorKey returns the case-insensitive identity of an estimator name.
func EstimatorKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Key returns the case-insensitive identity of the record.
func (r EstimationRecord) Key() string {
	return EstimatorKey(r.EstimatorName)
}

// Round returns the data for round n; invalid rounds are reported as NotSubmitted.
func (r EstimationRecord) Round(n Round) RoundData {
	switch n {
	case Round1:
		return r.Round1
	case Round2:
		return r.Round2
	case Round3:
		return r.Round3
	default:
		return NotSubmitted()
	}
}

// WithRound returns a copy of the record with round n replaced by d.
func (r EstimationRecord) WithRound(n Round, d RoundData) EstimationRecord {
	switch n {
	case Round1:
		r.Round1 = d
	case Round2:
		r.Round2 = d
	case Round3:
		r.Round3 = d
	}
	return r
}

// SubmittedRounds returns the rounds present in the record.
func (r EstimationRecord) SubmittedRounds() []Round {
	var rounds []Round
	for _, n := range AllRounds {
		if r.Round(n).IsSubmitted() {
			rounds = append(rounds, n)
		}
	}
	return rounds
}

// NextRound returns the round the estimator may submit next, or 0 once all three exist.
func (r EstimationRecord) NextRound() Round {
	for _, n := range AllRounds {
		if !r.Round(n).IsSubmitted() {
			return n
		}
	}
	return 0
}

// Submission is one estimator's estimates for a single round.
type Submission struct {
	EstimatorName string    `json:"estimator_name"`
	Round         Round     `json:"round"`
	Estimates     []float64 `json:"estimates"`
	// Overwrite confirms that an existing round-1 submission may be replaced.
	Overwrite bool `json:"overwrite"`
}

// EstimatorEligibility describes where an estimator stands in the workflow.
type EstimatorEligibility struct {
	EstimatorName   string  `json:"estimator_name"`
	SubmittedRounds []Round `json:"submitted_rounds"`
	NextRound       Round   `json:"next_round"`
}

// ProjectSnapshot is the full state of one project, used for import and export.
type ProjectSnapshot struct {
	Project     string             `json:"project"`
	Modules     []Module           `json:"modules"`
	Estimations []EstimationRecord `json:"estimations"`
}
