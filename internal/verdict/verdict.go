package verdict

import (
	"fmt"
	"strings"

	"github.com/sells-group/deal-engine/internal/gates"
	"github.com/sells-group/deal-engine/internal/model"
)

// Workflow states.
const (
	WorkflowNeedsInfo     = "NeedsInfo"
	WorkflowNeedsReview   = "NeedsReview"
	WorkflowReadyForOffer = "ReadyForOffer"
)

// Recommendations.
const (
	RecommendPursue        = "pursue"
	RecommendNeedsEvidence = "needs_evidence"
	RecommendPass          = "pass"
)

// Verdict is the final synthesized decision. It holds no independent
// state; every field is derived from the other calculators' outputs.
type Verdict struct {
	WorkflowState     string   `json:"workflow_state"`
	ConfidenceGrade   string   `json:"confidence_grade"`
	Recommendation    string   `json:"recommendation"`
	BlockingFactors   []string `json:"blocking_factors"`
	Rationale         string   `json:"rationale"`
	ConfidenceReasons []string `json:"confidence_reasons"`
}

type verdictTrace struct {
	AnyBlockingGate bool     `json:"any_blocking_gate"`
	BlockingGates   []string `json:"blocking_gates"`
	UnknownGates    int      `json:"unknown_gates"`
	CashGateStatus  string   `json:"cash_gate_status"`
	ZOPAExists      bool     `json:"zopa_exists"`
	GeomComputable  bool     `json:"geometry_computable"`
	EvidenceNeeded  []string `json:"evidence_needed"`
	SignalsPresent  int      `json:"signals_present"`
	SignalsTotal    int      `json:"signals_total"`
	Sourced         bool     `json:"sourced"`
	WorkflowState   string   `json:"workflow_state"`
	ConfidenceGrade string   `json:"confidence_grade"`
	Recommendation  string   `json:"recommendation"`
}

// Synthesize folds the gate evaluation, price geometry, outstanding
// evidence, and market confidence into one graded decision. gatesEval may
// be nil when the caller supplied no gate inputs; the gates then count as
// wholly unresolved for grading but cannot block.
func Synthesize(geom Geometry, market MarketAssessment, gatesEval *gates.Evaluation, evidence []string) (Verdict, model.TraceEntry) {
	v := Verdict{
		BlockingFactors:   []string{},
		ConfidenceReasons: append([]string{}, market.Reasons...),
	}

	// With no evaluation at all, every gate in the taxonomy is unresolved.
	unknownGates := len(gates.Order)
	var blockingGates []string
	if gatesEval != nil {
		unknownGates = gatesEval.StatusCounts.Unknown
		blockingGates = gatesEval.BlockingGates
		for _, g := range gatesEval.Gates {
			if g.IsBlocking {
				v.BlockingFactors = append(v.BlockingFactors, blockingFactor(g))
			}
		}
	}

	noZOPA := geom.Computable && !geom.ZOPAExists
	spreadTooThin := geom.Computable && geom.CashGateStatus == CashGateFail
	evidenceGaps := len(evidence) > 0 || !geom.Computable

	switch {
	case len(blockingGates) > 0:
		v.Recommendation = RecommendPass
		v.WorkflowState = WorkflowNeedsReview
		v.Rationale = fmt.Sprintf("Blocked by %s; do not pursue without a policy exception.",
			strings.Join(blockingGates, ", "))

	case noZOPA || spreadTooThin:
		v.Recommendation = RecommendPass
		v.WorkflowState = WorkflowNeedsReview
		if noZOPA {
			v.BlockingFactors = append(v.BlockingFactors, "No zone of possible agreement: buyer ceiling does not clear the respect floor")
			v.Rationale = "Buyer ceiling does not clear the seller respect floor; no deal space exists at policy caps."
		} else {
			v.BlockingFactors = append(v.BlockingFactors, fmt.Sprintf("Cash spread %.0f below required minimum %.0f", geom.SpreadCash, geom.MinSpreadRequired))
			v.Rationale = "Cash spread is below the policy minimum by more than the borderline allowance."
		}

	case evidenceGaps || geom.BorderlineFlag:
		v.Recommendation = RecommendNeedsEvidence
		v.WorkflowState = WorkflowNeedsInfo
		if geom.BorderlineFlag {
			v.Rationale = "Spread is within the borderline band; tighten valuations and resolve open evidence before offering."
		} else {
			v.Rationale = "Deal economics look viable but required evidence is outstanding."
		}

	default:
		v.Recommendation = RecommendPursue
		v.WorkflowState = WorkflowReadyForOffer
		v.Rationale = fmt.Sprintf("Spread of %.0f clears the %.0f minimum with all gates clear; ready for offer.",
			geom.SpreadCash, geom.MinSpreadRequired)
	}

	v.ConfidenceGrade = grade(market, unknownGates, evidence)
	if unknownGates > 0 {
		v.ConfidenceReasons = append(v.ConfidenceReasons, fmt.Sprintf("%d risk gates unresolved", unknownGates))
	}
	v.ConfidenceReasons = append(v.ConfidenceReasons, evidence...)

	trace := model.TraceEntry{
		Rule: model.RuleVerdict,
		Used: []string{
			"outputs.risk_gates.blocking_gates",
			"outputs.risk_gates.status_counts.unknown",
			"outputs.price_geometry.cash_gate_status",
			"outputs.price_geometry.zopa_exists",
			"outputs.market_assessment",
			"outputs.evidence_needed",
		},
		Details: verdictTrace{
			AnyBlockingGate: len(blockingGates) > 0,
			BlockingGates:   blockingGates,
			UnknownGates:    unknownGates,
			CashGateStatus:  geom.CashGateStatus,
			ZOPAExists:      geom.ZOPAExists,
			GeomComputable:  geom.Computable,
			EvidenceNeeded:  evidence,
			SignalsPresent:  market.SignalsPresent,
			SignalsTotal:    market.SignalsTotal,
			Sourced:         market.Sourced,
			WorkflowState:   v.WorkflowState,
			ConfidenceGrade: v.ConfidenceGrade,
			Recommendation:  v.Recommendation,
		},
	}

	return v, trace
}

// grade assigns A/B/C from the confidence signals: A requires a fully
// sourced market picture, no unresolved gates, and no outstanding
// evidence; C means the picture is mostly missing.
func grade(market MarketAssessment, unknownGates int, evidence []string) string {
	complete := market.SignalsPresent == market.SignalsTotal && market.Sourced
	switch {
	case complete && unknownGates == 0 && len(evidence) == 0:
		return "A"
	case market.SignalsPresent*2 >= market.SignalsTotal && unknownGates <= 2:
		return "B"
	default:
		return "C"
	}
}

func blockingFactor(g gates.Result) string {
	reason := g.Reason
	if reason == "" {
		if g.Status == gates.StatusUnknown {
			reason = "status unknown and policy blocks on unknown"
		} else {
			reason = fmt.Sprintf("failed with %s severity", g.Severity)
		}
	}
	return fmt.Sprintf("%s gate: %s", g.Label, reason)
}
