package verdict

import (
	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/sanitize"
)

// MarketProvenance records where the market comp figures came from.
type MarketProvenance struct {
	Source    string `json:"source,omitempty"`
	AsOf      string `json:"as_of,omitempty"`
	ZIP       string `json:"zip,omitempty"`
	SampleDOM int    `json:"sample_dom,omitempty"`
}

// MarketInput holds the ZIP-level market signals used for confidence
// grading. All optional.
type MarketInput struct {
	DOMZipDays           *float64          `json:"dom_zip_days,omitempty"`
	MonthsOfInventoryZip *float64          `json:"months_of_inventory_zip,omitempty"`
	PriceToListPct       *float64          `json:"price_to_list_pct,omitempty"`
	LocalDiscountPct     *float64          `json:"local_discount_pct,omitempty"`
	Provenance           *MarketProvenance `json:"market,omitempty"`
}

// MarketAssessment summarizes how much of the market picture is present.
type MarketAssessment struct {
	SignalsPresent int      `json:"signals_present"`
	SignalsTotal   int      `json:"signals_total"`
	Sourced        bool     `json:"sourced"`
	Reasons        []string `json:"reasons"`
}

type marketTrace struct {
	Signals    []signalTrace    `json:"signals"`
	Provenance any              `json:"provenance"`
	Assessment MarketAssessment `json:"assessment"`
}

type signalTrace struct {
	Name    string  `json:"name"`
	Present bool    `json:"present"`
	Value   float64 `json:"value,omitempty"`
}

// AssessMarket counts usable market signals and explains each gap. The
// reasons feed confidence_reasons in the final output.
func AssessMarket(in MarketInput) (MarketAssessment, model.TraceEntry) {
	signals := []struct {
		name   string
		value  *float64
		reason string
	}{
		{"dom_zip_days", in.DOMZipDays, "ZIP days-on-market not provided"},
		{"months_of_inventory_zip", in.MonthsOfInventoryZip, "ZIP months of inventory not provided"},
		{"price_to_list_pct", in.PriceToListPct, "Price-to-list ratio not provided"},
		{"local_discount_pct", in.LocalDiscountPct, "Local discount percentage not provided"},
	}

	a := MarketAssessment{
		SignalsTotal: len(signals),
		Reasons:      []string{},
	}
	traces := make([]signalTrace, 0, len(signals))

	for _, s := range signals {
		v, ok := sanitize.Number(s.value)
		if ok {
			a.SignalsPresent++
		} else {
			a.Reasons = append(a.Reasons, s.reason)
		}
		traces = append(traces, signalTrace{Name: s.name, Present: ok, Value: v})
	}

	if in.Provenance != nil && in.Provenance.Source != "" {
		a.Sourced = true
	} else {
		a.Reasons = append(a.Reasons, "Market data provenance missing; comps cannot be audited")
	}

	var prov any
	if in.Provenance != nil {
		prov = *in.Provenance
	}

	trace := model.TraceEntry{
		Rule: model.RuleMarketProvenance,
		Used: []string{
			"input.deal.dom_zip_days",
			"input.deal.months_of_inventory_zip",
			"input.deal.price_to_list_pct",
			"input.deal.local_discount_pct",
			"input.deal.market",
		},
		Details: marketTrace{
			Signals:    traces,
			Provenance: prov,
			Assessment: a,
		},
	}

	return a, trace
}
