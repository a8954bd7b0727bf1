package engine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/deal-engine/internal/gates"
	"github.com/sells-group/deal-engine/internal/lien"
	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/motivation"
	"github.com/sells-group/deal-engine/internal/policy"
	"github.com/sells-group/deal-engine/internal/systems"
	"github.com/sells-group/deal-engine/internal/verdict"
)

// Engine runs underwriting analyses against a base policy. It holds no
// mutable state: every request composes its own effective policy and all
// calculators are pure, so one Engine may serve concurrent requests.
type Engine struct {
	base          policy.Policy
	referenceYear int
}

// New creates an Engine. referenceYear is injected (never read from a
// clock inside the engine) so runs are deterministic and replayable;
// requests may override it per call.
func New(base policy.Policy, referenceYear int) *Engine {
	return &Engine{base: base, referenceYear: referenceYear}
}

// Analyze performs one synchronous underwriting pass. It returns a typed
// *Error for rejected requests and recovers any panic during computation
// as an engine_error; it never retries.
func (e *Engine) Analyze(ctx context.Context, in AnalyzeInput) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("engine: panic during analysis", zap.Any("panic", r))
			res = nil
			err = newError(CodeEngineError, "unexpected failure during analysis", fmt.Sprint(r))
		}
	}()

	if err := validate(in); err != nil {
		return nil, err
	}

	pol, composeTrace := composePolicy(e.base, in.SandboxOptions)

	refYear := e.referenceYear
	if in.Options != nil && in.Options.ReferenceYear > 0 {
		refYear = in.Options.ReferenceYear
	}

	// The calculators are pure and independent; run them concurrently.
	// Each goroutine writes only its own slot.
	var (
		lienOut   *lien.Output
		lienTrace model.TraceEntry
		motOut    *motivation.Output
		motTrace  model.TraceEntry
		sysOut    *systems.Output
		sysTrace  model.TraceEntry
		gatesOut  *gates.Evaluation
		gateTrace model.TraceEntry
	)

	g, _ := errgroup.WithContext(ctx)
	if in.Liens != nil {
		liens := *in.Liens
		g.Go(func() error {
			out, tr := lien.Calculate(liens, pol)
			lienOut, lienTrace = &out, tr
			return nil
		})
	}
	if in.Motivation != nil {
		mot := *in.Motivation
		g.Go(func() error {
			out, tr := motivation.Calculate(mot, pol)
			motOut, motTrace = &out, tr
			return nil
		})
	}
	if in.Systems != nil {
		sys := *in.Systems
		g.Go(func() error {
			out, tr := systems.Calculate(sys, refYear, pol)
			sysOut, sysTrace = &out, tr
			return nil
		})
	}
	if len(in.Gates) > 0 {
		gateInputs := in.Gates
		g.Go(func() error {
			out, tr := gates.Evaluate(gateInputs, pol)
			gatesOut, gateTrace = &out, tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, newError(CodeEngineError, "calculator failure", err.Error())
	}

	var netClearance float64
	var evidence []string
	if lienOut != nil {
		netClearance = lienOut.NetClearanceAdjustment
		evidence = lienOut.EvidenceNeeded
	}

	geom, geomTrace := verdict.ComputeGeometry(
		verdict.PriceInput{ARV: in.Deal.ARV, AIV: in.Deal.AIV, Payoff: in.Deal.Payoff},
		netClearance, pol,
	)
	market, marketTrace := verdict.AssessMarket(verdict.MarketInput{
		DOMZipDays:           in.Deal.DOMZipDays,
		MonthsOfInventoryZip: in.Deal.MonthsOfInventoryZip,
		PriceToListPct:       in.Deal.PriceToListPct,
		LocalDiscountPct:     in.Deal.LocalDiscountPct,
		Provenance:           in.Deal.Market,
	})
	final, verdictTrace := verdict.Synthesize(geom, market, gatesOut, evidence)

	res = &Result{
		Outputs: Outputs{
			ARV:               geom.ARV,
			AIV:               geom.AIV,
			BuyerCeiling:      geom.BuyerCeiling,
			RespectFloor:      geom.RespectFloor,
			SpreadCash:        geom.SpreadCash,
			MinSpreadRequired: geom.MinSpreadRequired,
			CashGateStatus:    geom.CashGateStatus,
			BorderlineFlag:    geom.BorderlineFlag,
			WorkflowState:     final.WorkflowState,
			ConfidenceGrade:   final.ConfidenceGrade,
			ConfidenceReasons: final.ConfidenceReasons,
			Recommendation:    final.Recommendation,
			BlockingFactors:   final.BlockingFactors,
			Rationale:         final.Rationale,
			RiskGates:         gatesOut,
			LienRisk:          lienOut,
			Motivation:        motOut,
			Systems:           sysOut,
		},
		InfoNeeded: infoNeeded(geom, evidence, gatesOut),
		Trace:      []model.TraceEntry{},
	}

	// Trace entries are appended in a fixed order so repeated runs are
	// byte-identical.
	if wantTrace(in.Options) {
		res.Trace = append(res.Trace, composeTrace)
		if lienOut != nil {
			res.Trace = append(res.Trace, lienTrace)
		}
		if motOut != nil {
			res.Trace = append(res.Trace, motTrace)
		}
		if sysOut != nil {
			res.Trace = append(res.Trace, sysTrace)
		}
		if gatesOut != nil {
			res.Trace = append(res.Trace, gateTrace)
		}
		res.Trace = append(res.Trace, geomTrace, marketTrace, verdictTrace)
	}

	zap.L().Info("engine: analysis complete",
		zap.String("posture", in.Posture),
		zap.String("recommendation", final.Recommendation),
		zap.String("workflow_state", final.WorkflowState),
		zap.String("confidence_grade", final.ConfidenceGrade),
		zap.Float64("spread_cash", geom.SpreadCash),
		zap.Int("info_needed", len(res.InfoNeeded)),
	)

	return res, nil
}

// validate enforces the up-front structural checks: at least one numeric
// deal field, and well-formed gate inputs.
func validate(in AnalyzeInput) *Error {
	if !hasNumericDealField(in.Deal) {
		return newError(CodeMissingNumericFields,
			"request must include at least one numeric deal field",
			[]string{"arv", "aiv", "payoff", "dom_zip_days", "months_of_inventory_zip", "price_to_list_pct", "local_discount_pct"})
	}

	var gateErrs []string
	for _, key := range gates.Order {
		gi, ok := in.Gates[key]
		if !ok {
			continue
		}
		if err := gates.Validate(key, gi); err != nil {
			gateErrs = append(gateErrs, err.Error())
		}
	}
	var unknownKeys []string
	for key := range in.Gates {
		if !knownGate(key) {
			unknownKeys = append(unknownKeys, key)
		}
	}
	sort.Strings(unknownKeys)
	for _, key := range unknownKeys {
		gateErrs = append(gateErrs, fmt.Sprintf("gate %s: not part of the risk taxonomy", key))
	}
	if len(gateErrs) > 0 {
		return newError(CodeInvalidGateInput, "gate input failed structural validation", gateErrs)
	}

	return nil
}

func hasNumericDealField(d Deal) bool {
	for _, f := range []*float64{
		d.ARV, d.AIV, d.Payoff,
		d.DOMZipDays, d.MonthsOfInventoryZip, d.PriceToListPct, d.LocalDiscountPct,
	} {
		if f != nil {
			return true
		}
	}
	return false
}

func knownGate(key string) bool {
	for _, k := range gates.Order {
		if k == key {
			return true
		}
	}
	return false
}

func wantTrace(opts *Options) bool {
	return opts == nil || opts.Trace == nil || *opts.Trace
}

// infoNeeded merges everything the caller must still supply: geometry
// inputs, lien evidence, and unresolved gates.
func infoNeeded(geom verdict.Geometry, evidence []string, gatesOut *gates.Evaluation) []string {
	info := []string{}
	info = append(info, geom.MissingInputs...)
	info = append(info, evidence...)
	if gatesOut != nil {
		for _, g := range gatesOut.Gates {
			if g.Status == gates.StatusUnknown {
				info = append(info, fmt.Sprintf("%s assessment needed", g.Label))
			}
		}
	}
	return info
}

// composePolicy builds the effective policy and its trace entry.
func composePolicy(base policy.Policy, ov *policy.Overrides) (policy.Policy, model.TraceEntry) {
	pol := policy.Compose(base, ov)

	var overridden any
	if ov != nil {
		overridden = *ov
	}
	trace := model.TraceEntry{
		Rule: model.RulePolicyCompose,
		Used: []string{"policy.base", "input.sandboxOptions"},
		Details: struct {
			Overrides any           `json:"overrides"`
			Effective policy.Policy `json:"effective"`
		}{Overrides: overridden, Effective: pol},
	}
	return pol, trace
}
