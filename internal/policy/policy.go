// Package policy defines the canonical underwriting policy tree and the
// composer that merges layered overrides into it. The composed policy is
// built once per analysis request and never mutated afterwards; every
// calculator receives it read-only, so the same binary can serve multiple
// tenants with different policies concurrently.
package policy

// Policy is the canonical, merged configuration tree consumed by every
// calculator. All thresholds, weights, and cost tables live here rather
// than in package-level globals.
type Policy struct {
	Valuation   ValuationPolicy   `json:"valuation"`
	Floors      FloorPolicy       `json:"floors"`
	Profit      ProfitPolicy      `json:"profit_policy"`
	Disposition DispositionPolicy `json:"disposition_policy"`
	Compliance  CompliancePolicy  `json:"compliance_policy"`
	HoldCosts   HoldCostPolicy    `json:"hold_costs"`
	RiskGates   RiskGatePolicy    `json:"risk_gates"`
	Liens       LienPolicy        `json:"liens"`
	Motivation  MotivationPolicy  `json:"motivation"`
	Systems     SystemsPolicy     `json:"systems"`
}

// ValuationPolicy caps the buyer ceiling relative to the valuation anchors.
// Percentages are stored as fractions (0.70, not 70).
type ValuationPolicy struct {
	ARVCapPct float64 `json:"arv_cap_pct"`
	AIVCapPct float64 `json:"aiv_cap_pct"`
}

// FloorPolicy shapes the seller respect floor.
type FloorPolicy struct {
	RespectFloorMult float64 `json:"respect_floor_mult"`
}

// ProfitPolicy sets the cash spread gate.
type ProfitPolicy struct {
	MinSpreadCash      float64 `json:"min_spread_cash"`
	BorderlineFraction float64 `json:"borderline_fraction"`
}

// DispositionPolicy holds exit-side targets.
type DispositionPolicy struct {
	AssignmentFeeTarget float64 `json:"assignment_fee_target"`
	MaxDaysToMoney      int     `json:"max_days_to_money"`
}

// CompliancePolicy holds legally-sourced settings. The statute string is
// cited verbatim in lien warnings, so it must survive policy composition
// unchanged.
type CompliancePolicy struct {
	JointLiabilityStatute string `json:"joint_liability_statute"`
	RequireTitleSearch    bool   `json:"require_title_search"`
}

// HoldCostPolicy models monthly carry during the hold period.
type HoldCostPolicy struct {
	MonthlyCarry float64 `json:"monthly_carry"`
	HoldMonths   float64 `json:"hold_months"`
}

// RiskGatePolicy drives the 8-gate evaluator.
type RiskGatePolicy struct {
	BaseScore float64 `json:"base_score"`

	// BlockingSeverityThreshold is the least severe severity that still
	// blocks on a failed gate ("critical", "major", or "minor").
	BlockingSeverityThreshold string `json:"blocking_severity_threshold"`

	// UnknownBlocks maps gate key to whether an unknown status blocks.
	UnknownBlocks map[string]bool `json:"unknown_blocks"`

	Penalties GatePenalties `json:"penalties"`
	Bands     RiskBands     `json:"bands"`
}

// GatePenalties are the per-gate score deductions.
type GatePenalties struct {
	Critical float64 `json:"critical"`
	Major    float64 `json:"major"`
	Minor    float64 `json:"minor"`
	Unknown  float64 `json:"unknown"`
}

// RiskBands holds the strictly descending band floors for the 0-100 risk
// score. A score at or above a floor falls into that band.
type RiskBands struct {
	Low      float64 `json:"low"`
	Moderate float64 `json:"moderate"`
	Elevated float64 `json:"elevated"`
	High     float64 `json:"high"`
}

// LienPolicy holds the lien exposure band ceilings. Comparisons are
// strictly-greater, so a total exactly at a ceiling stays in the lower band.
type LienPolicy struct {
	LowMax        float64 `json:"low_max"`
	MediumMax     float64 `json:"medium_max"`
	HighMax       float64 `json:"high_max"`
	BlockingTotal float64 `json:"blocking_total"`
}

// MotivationPolicy holds the seller-motivation scoring tables.
type MotivationPolicy struct {
	NeutralBase         float64            `json:"neutral_base"`
	BaseScores          map[string]float64 `json:"base_scores"`
	TimelineMultipliers map[string]float64 `json:"timeline_multipliers"`
	DecisionFactors     map[string]float64 `json:"decision_factors"`
	DistressBonus       float64            `json:"distress_bonus"`
	BoostCap            float64            `json:"boost_cap"`
	CriticalMin         float64            `json:"critical_min"`
	HighMin             float64            `json:"high_min"`
	MediumMin           float64            `json:"medium_min"`
}

// SystemSpec is the expected life and replacement cost for one building system.
type SystemSpec struct {
	ExpectedLifeYears int     `json:"expected_life_years"`
	ReplacementCost   float64 `json:"replacement_cost"`
}

// SystemsPolicy holds the remaining-useful-life tables. Condition band
// boundaries are exclusive fractions of remaining-over-expected life.
type SystemsPolicy struct {
	Roof        SystemSpec `json:"roof"`
	HVAC        SystemSpec `json:"hvac"`
	WaterHeater SystemSpec `json:"water_heater"`
	GoodMin     float64    `json:"good_min"`
	FairMin     float64    `json:"fair_min"`
}

// Default returns the base policy. Compose layers overrides on top of a
// copy; the returned value is never shared mutable state.
func Default() Policy {
	return Policy{
		Valuation: ValuationPolicy{
			ARVCapPct: 0.70,
			AIVCapPct: 0.85,
		},
		Floors: FloorPolicy{
			RespectFloorMult: 1.0,
		},
		Profit: ProfitPolicy{
			MinSpreadCash:      10_000,
			BorderlineFraction: 0.25,
		},
		Disposition: DispositionPolicy{
			AssignmentFeeTarget: 5_000,
			MaxDaysToMoney:      45,
		},
		Compliance: CompliancePolicy{
			JointLiabilityStatute: "FL 720.3085",
			RequireTitleSearch:    true,
		},
		HoldCosts: HoldCostPolicy{
			MonthlyCarry: 650,
			HoldMonths:   3,
		},
		RiskGates: RiskGatePolicy{
			BaseScore:                 100,
			BlockingSeverityThreshold: "major",
			UnknownBlocks: map[string]bool{
				"insurability": true,
				"title":        true,
				"flood":        false,
				"bankruptcy":   true,
				"liens":        true,
				"condition":    false,
				"market":       false,
				"compliance":   false,
			},
			Penalties: GatePenalties{
				Critical: 25,
				Major:    15,
				Minor:    5,
				Unknown:  10,
			},
			Bands: RiskBands{
				Low:      85,
				Moderate: 70,
				Elevated: 55,
				High:     40,
			},
		},
		Liens: LienPolicy{
			LowMax:        2_500,
			MediumMax:     5_000,
			HighMax:       10_000,
			BlockingTotal: 10_000,
		},
		Motivation: MotivationPolicy{
			NeutralBase: 50,
			BaseScores: map[string]float64{
				"foreclosure":        90,
				"financial_hardship": 85,
				"divorce":            80,
				"job_relocation":     75,
				"tired_landlord":     70,
				"downsizing":         60,
				"inherited":          55,
			},
			TimelineMultipliers: map[string]float64{
				"immediate":      1.25,
				"urgent":         1.15,
				"flexible":       1.0,
				"no_rush":        0.8,
				"testing_market": 0.6,
			},
			DecisionFactors: map[string]float64{
				"sole_owner":       1.0,
				"couple":           0.95,
				"attorney_in_fact": 0.9,
				"multiple_heirs":   0.85,
			},
			DistressBonus: 15,
			BoostCap:      25,
			CriticalMin:   85,
			HighMin:       65,
			MediumMin:     40,
		},
		Systems: SystemsPolicy{
			Roof:        SystemSpec{ExpectedLifeYears: 25, ReplacementCost: 12_000},
			HVAC:        SystemSpec{ExpectedLifeYears: 15, ReplacementCost: 7_500},
			WaterHeater: SystemSpec{ExpectedLifeYears: 10, ReplacementCost: 1_800},
			GoodMin:     0.40,
			FairMin:     0.20,
		},
	}
}
