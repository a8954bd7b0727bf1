// Package verdict derives the price geometry for a deal and folds every
// partial result (geometry, risk gates, evidence, market confidence) into
// the final graded decision.
package verdict

import (
	"math"

	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/policy"
	"github.com/sells-group/deal-engine/internal/sanitize"
)

// PriceInput holds the deal's valuation anchors. All optional.
type PriceInput struct {
	ARV    *float64 `json:"arv,omitempty"`
	AIV    *float64 `json:"aiv,omitempty"`
	Payoff *float64 `json:"payoff,omitempty"`
}

// Cash gate statuses.
const (
	CashGatePass       = "pass"
	CashGateBorderline = "borderline"
	CashGateFail       = "fail"
	CashGateUnknown    = "unknown"
)

// Geometry is the computed price geometry. Computable is false when the
// inputs were too sparse to derive a spread; MissingInputs then lists what
// the caller must supply.
type Geometry struct {
	ARV               float64 `json:"arv"`
	AIV               float64 `json:"aiv"`
	BuyerCeiling      float64 `json:"buyer_ceiling"`
	RespectFloor      float64 `json:"respect_floor"`
	SpreadCash        float64 `json:"spread_cash"`
	MinSpreadRequired float64 `json:"min_spread_required"`
	CashGateStatus    string  `json:"cash_gate_status"`
	BorderlineFlag    bool    `json:"borderline_flag"`
	ZOPAExists        bool    `json:"zopa_exists"`

	Computable    bool     `json:"computable"`
	MissingInputs []string `json:"missing_inputs,omitempty"`
}

type geometryTrace struct {
	ARV                    float64  `json:"arv"`
	AIV                    float64  `json:"aiv"`
	Payoff                 float64  `json:"payoff"`
	ARVCapPct              float64  `json:"arv_cap_pct"`
	AIVCapPct              float64  `json:"aiv_cap_pct"`
	HoldCosts              float64  `json:"hold_costs"`
	NetClearanceAdjustment float64  `json:"net_clearance_adjustment"`
	BuyerCeiling           float64  `json:"buyer_ceiling"`
	RespectFloor           float64  `json:"respect_floor"`
	SpreadCash             float64  `json:"spread_cash"`
	MinSpreadRequired      float64  `json:"min_spread_required"`
	BorderlineFloor        float64  `json:"borderline_floor"`
	CashGateStatus         string   `json:"cash_gate_status"`
	ZOPAExists             bool     `json:"zopa_exists"`
	MissingInputs          []string `json:"missing_inputs"`
}

// ComputeGeometry derives the buyer ceiling, seller respect floor, and cash
// spread. netClearanceAdjustment is the (non-positive) lien adjustment from
// the lien calculator; it reduces the spread directly.
func ComputeGeometry(in PriceInput, netClearanceAdjustment float64, pol policy.Policy) (Geometry, model.TraceEntry) {
	arv := sanitize.Amount(in.ARV)
	aiv := sanitize.Amount(in.AIV)
	payoff := sanitize.Amount(in.Payoff)

	g := Geometry{
		ARV:               arv,
		AIV:               aiv,
		MinSpreadRequired: pol.Profit.MinSpreadCash,
		CashGateStatus:    CashGateUnknown,
		MissingInputs:     []string{},
	}

	// Buyer ceiling is the tighter of the ARV and AIV caps, using whichever
	// anchors are present.
	switch {
	case arv > 0 && aiv > 0:
		g.BuyerCeiling = math.Min(arv*pol.Valuation.ARVCapPct, aiv*pol.Valuation.AIVCapPct)
	case arv > 0:
		g.BuyerCeiling = arv * pol.Valuation.ARVCapPct
	case aiv > 0:
		g.BuyerCeiling = aiv * pol.Valuation.AIVCapPct
	default:
		g.MissingInputs = append(g.MissingInputs, "ARV or AIV required to compute buyer ceiling")
	}

	holdCosts := pol.HoldCosts.MonthlyCarry * pol.HoldCosts.HoldMonths
	if payoff > 0 {
		g.RespectFloor = payoff*pol.Floors.RespectFloorMult + holdCosts
	} else {
		g.MissingInputs = append(g.MissingInputs, "Seller payoff amount required to compute respect floor")
	}

	borderlineFloor := pol.Profit.MinSpreadCash * (1 - pol.Profit.BorderlineFraction)

	if len(g.MissingInputs) == 0 {
		g.Computable = true
		g.SpreadCash = g.BuyerCeiling - g.RespectFloor + netClearanceAdjustment
		g.ZOPAExists = g.SpreadCash > 0

		switch {
		case g.SpreadCash >= pol.Profit.MinSpreadCash:
			g.CashGateStatus = CashGatePass
		case g.SpreadCash >= borderlineFloor:
			g.CashGateStatus = CashGateBorderline
			g.BorderlineFlag = true
		default:
			g.CashGateStatus = CashGateFail
		}
	}

	trace := model.TraceEntry{
		Rule: model.RulePriceGeometry,
		Used: []string{
			"input.deal.arv",
			"input.deal.aiv",
			"input.deal.payoff",
			"outputs.lien_risk.net_clearance_adjustment",
			"policy.valuation.arv_cap_pct",
			"policy.valuation.aiv_cap_pct",
			"policy.floors.respect_floor_mult",
			"policy.hold_costs.monthly_carry",
			"policy.hold_costs.hold_months",
			"policy.profit_policy.min_spread_cash",
			"policy.profit_policy.borderline_fraction",
		},
		Details: geometryTrace{
			ARV:                    arv,
			AIV:                    aiv,
			Payoff:                 payoff,
			ARVCapPct:              pol.Valuation.ARVCapPct,
			AIVCapPct:              pol.Valuation.AIVCapPct,
			HoldCosts:              holdCosts,
			NetClearanceAdjustment: netClearanceAdjustment,
			BuyerCeiling:           g.BuyerCeiling,
			RespectFloor:           g.RespectFloor,
			SpreadCash:             g.SpreadCash,
			MinSpreadRequired:      g.MinSpreadRequired,
			BorderlineFloor:        borderlineFloor,
			CashGateStatus:         g.CashGateStatus,
			ZOPAExists:             g.ZOPAExists,
			MissingInputs:          g.MissingInputs,
		},
	}

	return g, trace
}
