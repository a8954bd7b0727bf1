package motivation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/policy"
)

func f64(v float64) *float64 { return &v }
func bptr(v bool) *bool      { return &v }

func TestCalculateScoring(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	tests := []struct {
		name      string
		in        Input
		wantScore int
		wantLevel string
	}{
		{
			name:      "inherited flexible sole owner",
			in:        Input{Reason: "inherited", Timeline: "flexible", DecisionMaker: "sole_owner"},
			wantScore: 55, // 55 * 1.0 * 1.0
			wantLevel: "medium",
		},
		{
			name: "foreclosure immediate with distress clamps to 100",
			in: Input{
				Reason: "foreclosure", Timeline: "immediate", DecisionMaker: "sole_owner",
				MortgageDelinquent: bptr(true), ForeclosureBoost: f64(25),
			},
			// 90 * 1.25 + 15 + 25 = 152.5 -> 100
			wantScore: 100,
			wantLevel: "critical",
		},
		{
			name:      "unknown reason falls back to neutral base",
			in:        Input{Reason: "alien_invasion"},
			wantScore: 50, // neutral 50 * 1.0 * 1.0
			wantLevel: "medium",
		},
		{
			name:      "empty input is all-neutral",
			in:        Input{},
			wantScore: 50,
			wantLevel: "medium",
		},
		{
			name:      "testing market discounts the base",
			in:        Input{Reason: "divorce", Timeline: "testing_market", DecisionMaker: "multiple_heirs"},
			wantScore: 41, // 80 * 0.6 * 0.85 = 40.8 -> round 41
			wantLevel: "medium",
		},
		{
			name:      "boost above cap is clamped",
			in:        Input{Reason: "downsizing", ForeclosureBoost: f64(500)},
			wantScore: 85, // 60 + clamp(500, 0, 25) = 85
			wantLevel: "critical",
		},
		{
			name:      "negative boost clamps to zero",
			in:        Input{Reason: "downsizing", ForeclosureBoost: f64(-10)},
			wantScore: 60,
			wantLevel: "medium",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, tr := Calculate(tt.in, pol)
			assert.Equal(t, tt.wantScore, out.MotivationScore)
			assert.Equal(t, tt.wantLevel, out.MotivationLevel)
			assert.Equal(t, model.RuleMotivationScore, tr.Rule)
		})
	}
}

func TestMotivationLevels(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	tests := []struct {
		in   Input
		want string
	}{
		// 90*1.25+15 = 127.5 -> 100, critical
		{Input{Reason: "foreclosure", Timeline: "immediate", MortgageDelinquent: bptr(true)}, "critical"},
		// 70*1.0 = 70, high
		{Input{Reason: "tired_landlord", Timeline: "flexible"}, "high"},
		// 55, medium
		{Input{Reason: "inherited"}, "medium"},
		// 55*0.6 = 33, low
		{Input{Reason: "inherited", Timeline: "testing_market"}, "low"},
	}

	for _, tt := range tests {
		out, _ := Calculate(tt.in, pol)
		assert.Equal(t, tt.want, out.MotivationLevel, "input %+v", tt.in)
	}
}

func TestConfidence(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	out, _ := Calculate(Input{}, pol)
	assert.Equal(t, "low", out.Confidence)

	out, _ = Calculate(Input{Reason: "divorce", Timeline: "urgent"}, pol)
	assert.Equal(t, "medium", out.Confidence) // 2 of 4

	out, _ = Calculate(Input{Reason: "divorce", Timeline: "urgent", DecisionMaker: "couple"}, pol)
	assert.Equal(t, "high", out.Confidence) // 3 of 4

	out, _ = Calculate(Input{
		Reason: "divorce", Timeline: "urgent", DecisionMaker: "couple",
		MortgageDelinquent: bptr(false),
	}, pol)
	assert.Equal(t, "high", out.Confidence) // all 4
}

func TestRedFlags(t *testing.T) {
	t.Parallel()
	pol := policy.Default()

	out, _ := Calculate(Input{Timeline: "testing_market", DecisionMaker: "multiple_heirs"}, pol)
	assert.Len(t, out.RedFlags, 2)

	out, _ = Calculate(Input{Timeline: "no_rush", DecisionMaker: "unknown"}, pol)
	assert.Len(t, out.RedFlags, 2)

	out, _ = Calculate(Input{Reason: "divorce", Timeline: "urgent", DecisionMaker: "sole_owner"}, pol)
	assert.Empty(t, out.RedFlags)
}

func TestCalculateDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := Input{
		Reason:             "foreclosure",
		Timeline:           "immediate",
		DecisionMaker:      "sole_owner",
		MortgageDelinquent: bptr(true),
		ForeclosureBoost:   f64(40),
	}
	before := in

	_, _ = Calculate(in, policy.Default())

	assert.Equal(t, before, in)
	assert.True(t, *in.MortgageDelinquent)
	// The boost is clamped in the breakdown, never in the caller's input.
	assert.Equal(t, 40.0, *in.ForeclosureBoost)
}
