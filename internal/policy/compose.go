package policy

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Overrides is the flat, UI-sourced override tree. Every field is optional;
// absent fields leave the corresponding base value untouched. Names mirror
// what the dashboard sandbox sends, so the composer fans them out into the
// nested policy sections.
type Overrides struct {
	// Valuation and floors.
	ARVCapPct        *float64 `json:"arv_cap_pct,omitempty" yaml:"arv_cap_pct"`
	AIVCapPct        *float64 `json:"aiv_cap_pct,omitempty" yaml:"aiv_cap_pct"`
	RespectFloorMult *float64 `json:"respect_floor_mult,omitempty" yaml:"respect_floor_mult"`

	// Profit and disposition.
	MinSpreadCash       *float64 `json:"min_spread_cash,omitempty" yaml:"min_spread_cash"`
	BorderlineFraction  *float64 `json:"borderline_fraction,omitempty" yaml:"borderline_fraction"`
	AssignmentFeeTarget *float64 `json:"assignment_fee_target,omitempty" yaml:"assignment_fee_target"`
	MaxDaysToMoney      *int     `json:"max_days_to_money,omitempty" yaml:"max_days_to_money"`

	// Hold costs.
	MonthlyCarry *float64 `json:"monthly_carry,omitempty" yaml:"monthly_carry"`
	HoldMonths   *float64 `json:"hold_months,omitempty" yaml:"hold_months"`

	// Compliance.
	RequireTitleSearch *bool `json:"require_title_search,omitempty" yaml:"require_title_search"`

	// Risk gates.
	GateBaseScore             *float64         `json:"gate_base_score,omitempty" yaml:"gate_base_score"`
	BlockingSeverityThreshold *string          `json:"blocking_severity_threshold,omitempty" yaml:"blocking_severity_threshold"`
	UnknownBlocks             map[string]bool  `json:"unknown_blocks,omitempty" yaml:"unknown_blocks"`
	GatePenalties             *PenaltyOverride `json:"gate_penalties,omitempty" yaml:"gate_penalties"`

	// Liens.
	LienBlockingTotal *float64 `json:"lien_blocking_total,omitempty" yaml:"lien_blocking_total"`

	// Motivation.
	DistressBonus *float64 `json:"distress_bonus,omitempty" yaml:"distress_bonus"`
	BoostCap      *float64 `json:"boost_cap,omitempty" yaml:"boost_cap"`
}

// PenaltyOverride overrides individual gate penalties.
type PenaltyOverride struct {
	Critical *float64 `json:"critical,omitempty" yaml:"critical"`
	Major    *float64 `json:"major,omitempty" yaml:"major"`
	Minor    *float64 `json:"minor,omitempty" yaml:"minor"`
	Unknown  *float64 `json:"unknown,omitempty" yaml:"unknown"`
}

// Compose merges an override tree over a base policy and returns the
// canonical result. The base is copied, never mutated, so callers may share
// one base across concurrent requests. Percentage fields supplied as whole
// numbers (>1) are normalized to fractions; the composer never fabricates
// values it was not given.
func Compose(base Policy, ov *Overrides) Policy {
	p := base

	// Maps are reference types; copy before any write so the base policy
	// stays immutable.
	p.RiskGates.UnknownBlocks = copyBoolMap(base.RiskGates.UnknownBlocks)
	p.Motivation.BaseScores = copyFloatMap(base.Motivation.BaseScores)
	p.Motivation.TimelineMultipliers = copyFloatMap(base.Motivation.TimelineMultipliers)
	p.Motivation.DecisionFactors = copyFloatMap(base.Motivation.DecisionFactors)

	if ov == nil {
		return p
	}

	if ov.ARVCapPct != nil {
		p.Valuation.ARVCapPct = normalizePct(*ov.ARVCapPct)
	}
	if ov.AIVCapPct != nil {
		p.Valuation.AIVCapPct = normalizePct(*ov.AIVCapPct)
	}
	if ov.RespectFloorMult != nil {
		p.Floors.RespectFloorMult = *ov.RespectFloorMult
	}
	if ov.MinSpreadCash != nil {
		p.Profit.MinSpreadCash = *ov.MinSpreadCash
	}
	if ov.BorderlineFraction != nil {
		p.Profit.BorderlineFraction = normalizePct(*ov.BorderlineFraction)
	}
	if ov.AssignmentFeeTarget != nil {
		p.Disposition.AssignmentFeeTarget = *ov.AssignmentFeeTarget
	}
	if ov.MaxDaysToMoney != nil {
		p.Disposition.MaxDaysToMoney = *ov.MaxDaysToMoney
	}
	if ov.MonthlyCarry != nil {
		p.HoldCosts.MonthlyCarry = *ov.MonthlyCarry
	}
	if ov.HoldMonths != nil {
		p.HoldCosts.HoldMonths = *ov.HoldMonths
	}
	if ov.RequireTitleSearch != nil {
		p.Compliance.RequireTitleSearch = *ov.RequireTitleSearch
	}
	if ov.GateBaseScore != nil {
		p.RiskGates.BaseScore = *ov.GateBaseScore
	}
	if ov.BlockingSeverityThreshold != nil {
		p.RiskGates.BlockingSeverityThreshold = *ov.BlockingSeverityThreshold
	}
	for gate, blocks := range ov.UnknownBlocks {
		p.RiskGates.UnknownBlocks[gate] = blocks
	}
	if pen := ov.GatePenalties; pen != nil {
		if pen.Critical != nil {
			p.RiskGates.Penalties.Critical = *pen.Critical
		}
		if pen.Major != nil {
			p.RiskGates.Penalties.Major = *pen.Major
		}
		if pen.Minor != nil {
			p.RiskGates.Penalties.Minor = *pen.Minor
		}
		if pen.Unknown != nil {
			p.RiskGates.Penalties.Unknown = *pen.Unknown
		}
	}
	if ov.LienBlockingTotal != nil {
		p.Liens.BlockingTotal = *ov.LienBlockingTotal
	}
	if ov.DistressBonus != nil {
		p.Motivation.DistressBonus = *ov.DistressBonus
	}
	if ov.BoostCap != nil {
		p.Motivation.BoostCap = *ov.BoostCap
	}

	return p
}

// normalizePct accepts either a fraction (0.70) or a whole-number
// percentage (70) and returns the fraction.
func normalizePct(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

// LoadOverrides reads an override tree from a YAML file. The file has a
// top-level "policy" key so it can live alongside other engine config.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "policy: read overrides %s", path)
	}

	var wrapper struct {
		Policy Overrides `yaml:"policy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "policy: parse overrides")
	}

	return &wrapper.Policy, nil
}

func copyBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
