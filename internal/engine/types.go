// Package engine orchestrates one underwriting pass: it composes the
// effective policy, validates the request, runs the calculators, evaluates
// the risk gates, and synthesizes the final verdict with a full audit
// trace. One request, one synchronous compute pass, one response.
package engine

import (
	"github.com/sells-group/deal-engine/internal/gates"
	"github.com/sells-group/deal-engine/internal/lien"
	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/motivation"
	"github.com/sells-group/deal-engine/internal/policy"
	"github.com/sells-group/deal-engine/internal/systems"
	"github.com/sells-group/deal-engine/internal/verdict"
)

// Deal carries the raw deal numerics and market signals. Everything is
// optional, but at least one numeric field must be present for the request
// to be accepted.
type Deal struct {
	ARV    *float64 `json:"arv,omitempty"`
	AIV    *float64 `json:"aiv,omitempty"`
	Payoff *float64 `json:"payoff,omitempty"`

	DOMZipDays           *float64 `json:"dom_zip_days,omitempty"`
	MonthsOfInventoryZip *float64 `json:"months_of_inventory_zip,omitempty"`
	PriceToListPct       *float64 `json:"price_to_list_pct,omitempty"`
	LocalDiscountPct     *float64 `json:"local_discount_pct,omitempty"`

	Market *verdict.MarketProvenance `json:"market,omitempty"`
}

// Options tunes a single analysis request.
type Options struct {
	// Trace controls whether the audit trace is included in the result.
	// Omitted options default to including it.
	Trace *bool `json:"trace,omitempty"`

	// ReferenceYear overrides the engine's injected reference year for the
	// systems calculator, for deterministic replay of historical analyses.
	ReferenceYear int `json:"reference_year,omitempty"`
}

// AnalyzeInput is the request envelope.
type AnalyzeInput struct {
	Posture        string                 `json:"posture,omitempty"`
	Deal           Deal                   `json:"deal"`
	SandboxOptions *policy.Overrides      `json:"sandboxOptions,omitempty"`
	Options        *Options               `json:"options,omitempty"`
	Gates          map[string]gates.Input `json:"gates,omitempty"`
	Liens          *lien.Input            `json:"liens,omitempty"`
	Motivation     *motivation.Input      `json:"motivation,omitempty"`
	Systems        *systems.Input         `json:"systems,omitempty"`
}

// Outputs holds the derived financial figures plus whichever calculator
// outputs the caller requested.
type Outputs struct {
	ARV               float64  `json:"arv"`
	AIV               float64  `json:"aiv"`
	BuyerCeiling      float64  `json:"buyer_ceiling"`
	RespectFloor      float64  `json:"respect_floor"`
	SpreadCash        float64  `json:"spread_cash"`
	MinSpreadRequired float64  `json:"min_spread_required"`
	CashGateStatus    string   `json:"cash_gate_status"`
	BorderlineFlag    bool     `json:"borderline_flag"`
	WorkflowState     string   `json:"workflow_state"`
	ConfidenceGrade   string   `json:"confidence_grade"`
	ConfidenceReasons []string `json:"confidence_reasons"`
	Recommendation    string   `json:"recommendation"`
	BlockingFactors   []string `json:"blocking_factors"`
	Rationale         string   `json:"rationale"`

	RiskGates  *gates.Evaluation  `json:"risk_gates,omitempty"`
	LienRisk   *lien.Output       `json:"lien_risk,omitempty"`
	Motivation *motivation.Output `json:"motivation,omitempty"`
	Systems    *systems.Output    `json:"systems,omitempty"`
}

// Result is the successful analysis payload.
type Result struct {
	Outputs    Outputs            `json:"outputs"`
	InfoNeeded []string           `json:"infoNeeded"`
	Trace      []model.TraceEntry `json:"trace"`
}

// Response is the wire envelope returned to callers.
type Response struct {
	OK     bool       `json:"ok"`
	Result *Result    `json:"result,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the failure payload.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Success wraps a result in the response envelope.
func Success(res *Result) Response {
	return Response{OK: true, Result: res}
}

// Failure wraps an error in the response envelope. Non-engine errors are
// reported as engine_error.
func Failure(err error) Response {
	if e, ok := err.(*Error); ok {
		return Response{OK: false, Error: &ErrorBody{Message: e.Message, Code: e.Code, Details: e.Details}}
	}
	return Response{OK: false, Error: &ErrorBody{Message: err.Error(), Code: CodeEngineError}}
}
