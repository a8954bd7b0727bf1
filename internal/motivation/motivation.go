// Package motivation scores seller motivation from the stated reason for
// selling, timeline urgency, decision-maker structure, and distress
// signals. Unknown enum values fall back to neutral defaults rather than
// rejecting the request.
package motivation

import (
	"math"

	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/policy"
	"github.com/sells-group/deal-engine/internal/sanitize"
)

// Input is the seller motivation assessment. All fields are optional.
type Input struct {
	Reason             string   `json:"reason,omitempty"`
	Timeline           string   `json:"timeline,omitempty"`
	DecisionMaker      string   `json:"decision_maker,omitempty"`
	MortgageDelinquent *bool    `json:"mortgage_delinquent,omitempty"`
	ForeclosureBoost   *float64 `json:"foreclosure_boost,omitempty"`
}

// Breakdown records each factor of the score formula so the clamped sum
// reproduces the reported score.
type Breakdown struct {
	BaseScore          float64 `json:"base_score"`
	TimelineMultiplier float64 `json:"timeline_multiplier"`
	DecisionFactor     float64 `json:"decision_factor"`
	DistressBonus      float64 `json:"distress_bonus"`
	ForeclosureBoost   float64 `json:"foreclosure_boost"`
	RawScore           float64 `json:"raw_score"`
}

// Output is the motivation assessment result. MotivationScore is always an
// integer clamped to [0,100].
type Output struct {
	MotivationScore int       `json:"motivation_score"`
	MotivationLevel string    `json:"motivation_level"`
	Confidence      string    `json:"confidence"`
	RedFlags        []string  `json:"red_flags"`
	Breakdown       Breakdown `json:"breakdown"`
}

type traceDetails struct {
	Input          Input     `json:"input"`
	Breakdown      Breakdown `json:"breakdown"`
	Score          int       `json:"score"`
	Level          string    `json:"level"`
	Confidence     string    `json:"confidence"`
	FieldsPresent  int       `json:"fields_present"`
	PrimaryFields  int       `json:"primary_fields"`
	RedFlags       []string  `json:"red_flags"`
	NeutralDefault bool      `json:"neutral_default"`
}

// Calculate applies the motivation formula:
//
//	raw = base(reason) * timelineMult * decisionFactor + distressBonus + clamp(boost, 0, cap)
//
// rounded and clamped to [0,100].
func Calculate(in Input, pol policy.Policy) (Output, model.TraceEntry) {
	mp := pol.Motivation

	base, knownReason := mp.BaseScores[in.Reason]
	if !knownReason {
		base = mp.NeutralBase
	}
	tmult, knownTimeline := mp.TimelineMultipliers[in.Timeline]
	if !knownTimeline {
		tmult = 1.0
	}
	dfactor, knownDM := mp.DecisionFactors[in.DecisionMaker]
	if !knownDM {
		dfactor = 1.0
	}

	var distress float64
	if in.MortgageDelinquent != nil && *in.MortgageDelinquent {
		distress = mp.DistressBonus
	}

	boost, _ := sanitize.Number(in.ForeclosureBoost)
	boost = sanitize.Clamp(boost, 0, mp.BoostCap)

	raw := base*tmult*dfactor + distress + boost
	score := int(sanitize.Clamp(math.Round(raw), 0, 100))

	b := Breakdown{
		BaseScore:          base,
		TimelineMultiplier: tmult,
		DecisionFactor:     dfactor,
		DistressBonus:      distress,
		ForeclosureBoost:   boost,
		RawScore:           raw,
	}

	fieldsPresent := countPresent(in)
	out := Output{
		MotivationScore: score,
		MotivationLevel: level(float64(score), mp),
		Confidence:      confidence(fieldsPresent),
		RedFlags:        redFlags(in),
		Breakdown:       b,
	}

	trace := model.TraceEntry{
		Rule: model.RuleMotivationScore,
		Used: []string{
			"input.motivation.reason",
			"input.motivation.timeline",
			"input.motivation.decision_maker",
			"input.motivation.mortgage_delinquent",
			"input.motivation.foreclosure_boost",
			"policy.motivation.base_scores",
			"policy.motivation.timeline_multipliers",
			"policy.motivation.decision_factors",
			"policy.motivation.distress_bonus",
			"policy.motivation.boost_cap",
		},
		Details: traceDetails{
			Input:          in,
			Breakdown:      b,
			Score:          score,
			Level:          out.MotivationLevel,
			Confidence:     out.Confidence,
			FieldsPresent:  fieldsPresent,
			PrimaryFields:  4,
			RedFlags:       out.RedFlags,
			NeutralDefault: !knownReason && in.Reason == "",
		},
	}

	return out, trace
}

func level(score float64, mp policy.MotivationPolicy) string {
	switch {
	case score >= mp.CriticalMin:
		return "critical"
	case score >= mp.HighMin:
		return "high"
	case score >= mp.MediumMin:
		return "medium"
	default:
		return "low"
	}
}

// countPresent counts how many of the four primary fields the caller
// actually supplied.
func countPresent(in Input) int {
	n := 0
	if in.Reason != "" {
		n++
	}
	if in.Timeline != "" {
		n++
	}
	if in.DecisionMaker != "" {
		n++
	}
	if in.MortgageDelinquent != nil {
		n++
	}
	return n
}

func confidence(fieldsPresent int) string {
	frac := float64(fieldsPresent) / 4
	switch {
	case frac >= 0.75:
		return "high"
	case frac >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

func redFlags(in Input) []string {
	flags := []string{}

	switch in.Timeline {
	case "testing_market":
		flags = append(flags, "Seller is testing the market; motivation may be overstated")
	case "no_rush":
		flags = append(flags, "No urgency on timeline; expect price resistance")
	}
	if in.DecisionMaker == "multiple_heirs" {
		flags = append(flags, "Multiple decision-makers; closing requires consensus among heirs")
	}
	if in.DecisionMaker == "unknown" {
		flags = append(flags, "Decision-maker structure unverified; confirm authority to sell")
	}

	return flags
}
