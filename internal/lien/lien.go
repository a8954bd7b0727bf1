// Package lien aggregates surviving-lien exposure for a deal: HOA and CDD
// arrears, delinquent property tax, and municipal liens. Florida's
// joint-and-several liability statute makes HOA/CDD arrears a buyer
// liability at closing, so any positive arrears in those categories raises
// an explicit warning citing the statute.
package lien

import (
	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/policy"
	"github.com/sells-group/deal-engine/internal/sanitize"
)

// Lien verification statuses supplied by the caller. Anything other than
// verified or estimated is treated as unknown and generates an evidence
// request.
const (
	StatusVerified  = "verified"
	StatusEstimated = "estimated"
	StatusUnknown   = "unknown"
)

// Input is the raw lien assessment for one deal. All fields are optional;
// malformed amounts sanitize to zero.
type Input struct {
	HOAArrears          *float64 `json:"hoa_arrears,omitempty"`
	CDDArrears          *float64 `json:"cdd_arrears,omitempty"`
	PropertyTaxArrears  *float64 `json:"property_tax_arrears,omitempty"`
	MunicipalLienAmount *float64 `json:"municipal_lien_amount,omitempty"`

	HOAStatus         string `json:"hoa_status,omitempty"`
	CDDStatus         string `json:"cdd_status,omitempty"`
	PropertyTaxStatus string `json:"property_tax_status,omitempty"`
	MunicipalStatus   string `json:"municipal_status,omitempty"`

	TitleSearchCompleted bool `json:"title_search_completed"`
}

// Breakdown is the sanitized per-category exposure. All fields are
// non-negative.
type Breakdown struct {
	HOA         float64 `json:"hoa"`
	CDD         float64 `json:"cdd"`
	PropertyTax float64 `json:"property_tax"`
	Municipal   float64 `json:"municipal"`
}

// Output is the aggregate lien exposure result.
type Output struct {
	TotalSurvivingLiens    float64   `json:"total_surviving_liens"`
	RiskLevel              string    `json:"risk_level"`
	Breakdown              Breakdown `json:"breakdown"`
	JointLiabilityWarning  string    `json:"joint_liability_warning,omitempty"`
	BlockingGateTriggered  bool      `json:"blocking_gate_triggered"`
	NetClearanceAdjustment float64   `json:"net_clearance_adjustment"`
	EvidenceNeeded         []string  `json:"evidence_needed"`
}

// traceDetails reproduces every branch taken so audits can replay the
// calculation byte-for-byte.
type traceDetails struct {
	Breakdown             Breakdown `json:"breakdown"`
	Total                 float64   `json:"total"`
	RiskLevel             string    `json:"risk_level"`
	JointLiability        bool      `json:"joint_liability"`
	BlockingGateTriggered bool      `json:"blocking_gate_triggered"`
	EvidenceNeeded        []string  `json:"evidence_needed"`
	TitleSearchCompleted  bool      `json:"title_search_completed"`
}

// Calculate sums the four lien categories, bands the total, and collects
// missing evidence. It never fails: bad numerics degrade to zero.
func Calculate(in Input, pol policy.Policy) (Output, model.TraceEntry) {
	b := Breakdown{
		HOA:         sanitize.Amount(in.HOAArrears),
		CDD:         sanitize.Amount(in.CDDArrears),
		PropertyTax: sanitize.Amount(in.PropertyTaxArrears),
		Municipal:   sanitize.Amount(in.MunicipalLienAmount),
	}
	total := b.HOA + b.CDD + b.PropertyTax + b.Municipal

	out := Output{
		TotalSurvivingLiens:    total,
		RiskLevel:              riskLevel(total, pol.Liens),
		Breakdown:              b,
		BlockingGateTriggered:  total > pol.Liens.BlockingTotal,
		NetClearanceAdjustment: sanitize.NoNegZero(-total),
		EvidenceNeeded:         evidenceNeeded(in, pol),
	}

	if b.HOA > 0 || b.CDD > 0 {
		out.JointLiabilityWarning = "Unpaid HOA/CDD assessments survive closing; buyer is jointly and severally liable under " +
			pol.Compliance.JointLiabilityStatute
	}

	trace := model.TraceEntry{
		Rule: model.RuleLienRisk,
		Used: []string{
			"input.liens.hoa_arrears",
			"input.liens.cdd_arrears",
			"input.liens.property_tax_arrears",
			"input.liens.municipal_lien_amount",
			"input.liens.title_search_completed",
			"policy.liens.low_max",
			"policy.liens.medium_max",
			"policy.liens.high_max",
			"policy.liens.blocking_total",
			"policy.compliance_policy.joint_liability_statute",
		},
		Details: traceDetails{
			Breakdown:             b,
			Total:                 total,
			RiskLevel:             out.RiskLevel,
			JointLiability:        out.JointLiabilityWarning != "",
			BlockingGateTriggered: out.BlockingGateTriggered,
			EvidenceNeeded:        out.EvidenceNeeded,
			TitleSearchCompleted:  in.TitleSearchCompleted,
		},
	}

	return out, trace
}

// riskLevel bands the total with strictly-greater comparisons: a total
// exactly at a ceiling belongs to the lower band. Audit-sensitive; do not
// flip to >=.
func riskLevel(total float64, pol policy.LienPolicy) string {
	switch {
	case total > pol.HighMax:
		return "critical"
	case total > pol.MediumMax:
		return "high"
	case total > pol.LowMax:
		return "medium"
	default:
		return "low"
	}
}

func evidenceNeeded(in Input, pol policy.Policy) []string {
	evidence := []string{}

	if unknownStatus(in.HOAStatus) {
		evidence = append(evidence, "HOA estoppel letter needed to verify arrears")
	}
	if unknownStatus(in.CDDStatus) {
		evidence = append(evidence, "CDD assessment payoff statement needed")
	}
	if unknownStatus(in.PropertyTaxStatus) {
		evidence = append(evidence, "County tax collector certificate needed for delinquent taxes")
	}
	if unknownStatus(in.MunicipalStatus) {
		evidence = append(evidence, "Municipal lien search needed for code enforcement and utility liens")
	}
	if pol.Compliance.RequireTitleSearch && !in.TitleSearchCompleted {
		evidence = append(evidence, "Full title search required before closing")
	}

	return evidence
}

// unknownStatus treats anything that is not an affirmative verification as
// unknown.
func unknownStatus(s string) bool {
	switch s {
	case StatusVerified, StatusEstimated:
		return false
	default:
		return true
	}
}
