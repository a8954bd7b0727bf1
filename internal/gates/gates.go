// Package gates evaluates the eight-gate risk taxonomy (insurability,
// title, flood, bankruptcy, liens, condition, market, compliance) against
// the composed policy. Each gate is a three-branch state machine evaluated
// in a fixed order and individually traced; blocking is always a pure
// function of status, severity, and policy threshold.
package gates

import (
	"fmt"

	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/policy"
	"github.com/sells-group/deal-engine/internal/sanitize"
)

// Status of a single gate assessment.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusUnknown Status = "unknown"
)

// Gate keys, evaluated and reported in this order.
const (
	KeyInsurability = "insurability"
	KeyTitle        = "title"
	KeyFlood        = "flood"
	KeyBankruptcy   = "bankruptcy"
	KeyLiens        = "liens"
	KeyCondition    = "condition"
	KeyMarket       = "market"
	KeyCompliance   = "compliance"
)

// Order is the canonical gate evaluation order.
var Order = []string{
	KeyInsurability, KeyTitle, KeyFlood, KeyBankruptcy,
	KeyLiens, KeyCondition, KeyMarket, KeyCompliance,
}

var labels = map[string]string{
	KeyInsurability: "Insurability",
	KeyTitle:        "Title",
	KeyFlood:        "Flood Zone",
	KeyBankruptcy:   "Bankruptcy",
	KeyLiens:        "Liens",
	KeyCondition:    "Property Condition",
	KeyMarket:       "Market",
	KeyCompliance:   "Compliance",
}

// Input is one gate's raw assessment. A gate the caller did not assess is
// treated as unknown.
type Input struct {
	Status   Status   `json:"status"`
	Severity Severity `json:"severity,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// Validate enforces the structural invariants on caller-supplied gate
// input: fail requires a recognized severity, pass/unknown must not carry
// one.
func Validate(gate string, in Input) error {
	switch in.Status {
	case StatusFail:
		if !in.Severity.Valid() {
			return fmt.Errorf("gate %s: fail status requires severity (critical, major, or minor)", gate)
		}
	case StatusPass, StatusUnknown, "":
		if in.Severity != "" {
			return fmt.Errorf("gate %s: severity must be null unless status is fail", gate)
		}
	default:
		return fmt.Errorf("gate %s: unrecognized status %q", gate, in.Status)
	}
	return nil
}

// Result is one gate after the policy is applied.
type Result struct {
	Key               string   `json:"gate"`
	Label             string   `json:"label"`
	Status            Status   `json:"status"`
	Severity          Severity `json:"severity,omitempty"`
	IsBlocking        bool     `json:"is_blocking"`
	ScoreContribution float64  `json:"score_contribution"`
	Reason            string   `json:"reason,omitempty"`
}

// StatusCounts aggregates gate statuses.
type StatusCounts struct {
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Unknown int `json:"unknown"`
}

// SeverityCounts aggregates failed-gate severities.
type SeverityCounts struct {
	Critical int `json:"critical"`
	Major    int `json:"major"`
	Minor    int `json:"minor"`
}

// Evaluation is the aggregate result over all eight gates.
type Evaluation struct {
	Gates             []Result       `json:"gates"`
	StatusCounts      StatusCounts   `json:"status_counts"`
	SeverityCounts    SeverityCounts `json:"severity_counts"`
	BlockingGates     []string       `json:"blocking_gates"`
	AnyBlocking       bool           `json:"any_blocking"`
	RiskScore         float64        `json:"risk_score"`
	RiskBand          string         `json:"risk_band"`
	RecommendedAction string         `json:"recommended_action"`
}

// gateBranch traces the exact branch taken for one gate.
type gateBranch struct {
	Gate            string   `json:"gate"`
	Status          Status   `json:"status"`
	Severity        Severity `json:"severity,omitempty"`
	Branch          string   `json:"branch"`
	UnknownBlocks   bool     `json:"unknown_blocks"`
	SeverityRank    int      `json:"severity_rank"`
	ThresholdRank   int      `json:"threshold_rank"`
	Blocking        bool     `json:"blocking"`
	Penalty         float64  `json:"penalty"`
	DefaultedStatus bool     `json:"defaulted_status"`
}

type traceDetails struct {
	Branches          []gateBranch `json:"branches"`
	BaseScore         float64      `json:"base_score"`
	RiskScore         float64      `json:"risk_score"`
	RiskBand          string       `json:"risk_band"`
	BlockingGates     []string     `json:"blocking_gates"`
	RecommendedAction string       `json:"recommended_action"`
}

// Evaluate runs the eight-gate state machine against the policy. Gates
// missing from the input map default to unknown status. Evaluate never
// fails; structural validation of caller input happens at the orchestration
// boundary via Validate.
func Evaluate(inputs map[string]Input, pol policy.Policy) (Evaluation, model.TraceEntry) {
	gp := pol.RiskGates
	threshold := Severity(gp.BlockingSeverityThreshold)

	ev := Evaluation{
		Gates:         make([]Result, 0, len(Order)),
		BlockingGates: []string{},
	}
	branches := make([]gateBranch, 0, len(Order))
	score := gp.BaseScore

	for _, key := range Order {
		in, assessed := inputs[key]
		if !assessed || in.Status == "" {
			in.Status = StatusUnknown
			if in.Reason == "" {
				in.Reason = "not assessed"
			}
		}

		res := Result{
			Key:      key,
			Label:    labels[key],
			Status:   in.Status,
			Severity: in.Severity,
			Reason:   in.Reason,
		}
		branch := gateBranch{
			Gate:            key,
			Status:          in.Status,
			Severity:        in.Severity,
			UnknownBlocks:   gp.UnknownBlocks[key],
			ThresholdRank:   Rank(threshold),
			DefaultedStatus: !assessed || inputs[key].Status == "",
		}

		var penalty float64
		switch in.Status {
		case StatusPass:
			branch.Branch = "pass"
			ev.StatusCounts.Pass++

		case StatusUnknown:
			branch.Branch = "unknown"
			res.IsBlocking = gp.UnknownBlocks[key]
			penalty = gp.Penalties.Unknown
			ev.StatusCounts.Unknown++

		case StatusFail:
			branch.Branch = "fail"
			branch.SeverityRank = Rank(in.Severity)
			// Missing severity ranks 0, which is at least as severe as any
			// threshold, so an unseverity'd fail blocks.
			res.IsBlocking = AtLeastAsSevere(in.Severity, threshold)
			penalty = failPenalty(in.Severity, gp.Penalties)
			ev.StatusCounts.Fail++
			switch in.Severity {
			case SeverityCritical:
				ev.SeverityCounts.Critical++
			case SeverityMajor:
				ev.SeverityCounts.Major++
			case SeverityMinor:
				ev.SeverityCounts.Minor++
			}
		}

		res.ScoreContribution = sanitize.NoNegZero(-penalty)
		score -= penalty

		if res.IsBlocking {
			ev.BlockingGates = append(ev.BlockingGates, key)
		}
		branch.Blocking = res.IsBlocking
		branch.Penalty = penalty

		ev.Gates = append(ev.Gates, res)
		branches = append(branches, branch)
	}

	ev.AnyBlocking = len(ev.BlockingGates) > 0
	ev.RiskScore = sanitize.Clamp(score, 0, 100)
	ev.RiskBand = riskBand(ev.RiskScore, gp.Bands)
	ev.RecommendedAction = recommendedAction(ev)

	trace := model.TraceEntry{
		Rule: model.RuleRiskGates,
		Used: []string{
			"input.gates",
			"policy.risk_gates.base_score",
			"policy.risk_gates.blocking_severity_threshold",
			"policy.risk_gates.unknown_blocks",
			"policy.risk_gates.penalties",
			"policy.risk_gates.bands",
		},
		Details: traceDetails{
			Branches:          branches,
			BaseScore:         gp.BaseScore,
			RiskScore:         ev.RiskScore,
			RiskBand:          ev.RiskBand,
			BlockingGates:     ev.BlockingGates,
			RecommendedAction: ev.RecommendedAction,
		},
	}

	return ev, trace
}

func failPenalty(s Severity, p policy.GatePenalties) float64 {
	switch s {
	case SeverityCritical:
		return p.Critical
	case SeverityMajor:
		return p.Major
	case SeverityMinor:
		return p.Minor
	default:
		// Fail without severity is scored like a critical failure.
		return p.Critical
	}
}

// riskBand maps the clamped score to the five-band scale via strictly
// descending floors.
func riskBand(score float64, b policy.RiskBands) string {
	switch {
	case score >= b.Low:
		return "low"
	case score >= b.Moderate:
		return "moderate"
	case score >= b.Elevated:
		return "elevated"
	case score >= b.High:
		return "high"
	default:
		return "critical"
	}
}

// recommendedAction picks the action by priority: critical blocking gates,
// then any blocking gates, then unresolved unknowns, then non-blocking
// attention items, then all clear.
func recommendedAction(ev Evaluation) string {
	var criticalBlocking, attention bool
	for _, g := range ev.Gates {
		if g.IsBlocking && g.Severity == SeverityCritical {
			criticalBlocking = true
		}
		if g.Status == StatusFail && !g.IsBlocking {
			attention = true
		}
	}

	switch {
	case criticalBlocking:
		return "Do not proceed: critical blocking gates must be resolved before underwriting"
	case ev.AnyBlocking:
		return "Blocked: clear blocking gates or obtain a policy exception"
	case ev.StatusCounts.Unknown > 0:
		return "Order the missing assessments to resolve unknown gates"
	case attention:
		return "Proceed with caution: review non-blocking gate failures"
	default:
		return "All gates clear"
	}
}
