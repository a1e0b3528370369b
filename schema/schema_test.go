package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRound(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Round
		wantErr bool
	}{
		{"round one", "1", Round1, false},
		{"round three with spaces", " 3 ", Round3, false},
		{"zero", "0", 0, true},
		{"four", "4", 0, true},
		{"not a number", "two", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRound(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundHelpers(t *testing.T) {
	assert.Equal(t, Round(0), Round1.Previous())
	assert.Equal(t, Round1, Round2.Previous())
	assert.Equal(t, []Round{Round1, Round2}, RoundsUpTo(Round2))
	assert.Nil(t, RoundsUpTo(Round(5)))
	assert.Equal(t, "Round 2", Round2.String())
}

func TestRoundDataTaggedState(t *testing.T) {
	missing := NotSubmitted()
	assert.False(t, missing.IsSubmitted())
	assert.Nil(t, missing.Values())
	assert.Equal(t, 0.0, missing.Total())

	empty := Submitted([]float64{})
	assert.False(t, empty.IsSubmitted(), "an empty array carries no estimates")

	values := []float64{3, 5}
	d := Submitted(values)
	values[0] = 100
	assert.True(t, d.IsSubmitted())
	assert.Equal(t, []float64{3, 5}, d.Values(), "Submitted must copy its input")
	assert.Equal(t, 8.0, d.Total())

	v, ok := d.At(1)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
	_, ok = d.At(2)
	assert.False(t, ok)
}

func TestRoundDataJSON(t *testing.T) {
	rec := EstimationRecord{
		EstimatorName: "Alice",
		Round1:        Submitted([]float64{3, 5}),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"estimator_name":"Alice","round1":[3,5],"round2":null,"round3":null}`, string(data))

	var decoded EstimationRecord
	require.NoError(t, json.Unmarshal([]byte(`{"estimator_name":"Bob","round1":[1.5],"round2":[],"round3":null}`), &decoded))
	assert.True(t, decoded.Round1.IsSubmitted())
	assert.False(t, decoded.Round2.IsSubmitted())
	assert.False(t, decoded.Round3.IsSubmitted())

	assert.Error(t, json.Unmarshal([]byte(`{"round1":"3,5"}`), &decoded))
}

func TestEstimationRecordRounds(t *testing.T) {
	rec := EstimationRecord{EstimatorName: "  Carol "}
	assert.Equal(t, "carol", rec.Key())
	assert.Equal(t, Round1, rec.NextRound())

	rec = rec.WithRound(Round1, Submitted([]float64{1}))
	rec = rec.WithRound(Round2, Submitted([]float64{2}))
	assert.Equal(t, []Round{Round1, Round2}, rec.SubmittedRounds())
	assert.Equal(t, Round3, rec.NextRound())

	rec = rec.WithRound(Round3, Submitted([]float64{3}))
	assert.Equal(t, Round(0), rec.NextRound())
	assert.False(t, rec.Round(Round(7)).IsSubmitted())
}

func TestParseConfidenceLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    ConfidenceLevel
		wantErr bool
	}{
		{"", Confidence95, false},
		{"95%", Confidence95, false},
		{"90", Confidence90, false},
		{"0.99", Confidence99, false},
		{"80%", "", true},
		{"high", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConfidenceLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCocomoClass(t *testing.T) {
	for input, want := range map[string]CocomoClass{
		"":              OrganicClass,
		"1":             OrganicClass,
		"Semi-Detached": SemiDetachedClass,
		"3":             EmbeddedClass,
	} {
		got, err := ParseCocomoClass(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCocomoClass("huge")
	assert.Error(t, err)
}

func TestErrorTaxonomy(t *testing.T) {
	verr := &ValidationError{Estimator: "Alice", Round: Round1}
	verr.Add("estimates", 0, "Login", "must be greater than 0")
	assert.True(t, verr.HasIssues())
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", verr), ErrValidation)
	assert.Contains(t, verr.Error(), "estimates[0] (Login): must be greater than 0")

	oerr := &OutOfOrderError{Estimator: "Carol", Round: Round2, Missing: Round1}
	assert.ErrorIs(t, oerr, ErrOutOfOrder)
	assert.Contains(t, oerr.Error(), "Round 1 has not been submitted")

	derr := &DataIntegrityError{Estimator: "Bob", Reason: "round 2 has 1 estimates for 2 modules"}
	assert.ErrorIs(t, derr, ErrDataIntegrity)
	assert.False(t, errors.Is(derr, ErrValidation))
}

func TestDisplayLabels(t *testing.T) {
	format := func(v float64) string { return fmt.Sprintf("%.2f", v) }

	assert.Equal(t, PendingLabel, Cell{}.Display(format))
	assert.Equal(t, "3.00", Cell{Value: 3, Submitted: true}.Display(format))
	assert.Equal(t, PendingLabel, RoundTotal{Round: Round2}.Display(format))

	summary := EstimatorSummary{}
	assert.Equal(t, NotAvailableLabel, summary.DisplayHighest(format))
	assert.Equal(t, NotAvailableLabel, AggregateResult{}.DisplayCombinedAverage(format))

	stats := Statistics{MeanEffort: 20, StandardDeviation: 5}
	assert.False(t, stats.Computable())
	_, ok := stats.LowerBound()
	assert.False(t, ok)
	assert.InDelta(t, 25.0, stats.RelativeSpread(), 1e-9)
}
