// Package systems computes remaining useful life for the major building
// systems (roof, HVAC, water heater) from install years. The reference year
// is injected by the caller rather than read from a clock, so results are
// deterministic and replayable.
package systems

import (
	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/policy"
	"github.com/sells-group/deal-engine/internal/sanitize"
)

// Display names in fixed report order.
const (
	NameRoof        = "Roof"
	NameHVAC        = "HVAC"
	NameWaterHeater = "Water Heater"
)

// Input holds optional install years per system.
type Input struct {
	RoofYearInstalled        *int `json:"roof_year_installed,omitempty"`
	HVACYearInstalled        *int `json:"hvac_year_installed,omitempty"`
	WaterHeaterYearInstalled *int `json:"water_heater_year_installed,omitempty"`
}

// SystemStatus is the remaining-useful-life assessment for one system.
// Age, RemainingYears, and Condition are nil when the install year was
// absent or unusable; such systems are excluded from urgency and cost.
type SystemStatus struct {
	Age              *int    `json:"age"`
	RemainingYears   *int    `json:"remaining_years"`
	ExpectedLife     int     `json:"expected_life"`
	Condition        *string `json:"condition"`
	ReplacementCost  float64 `json:"replacement_cost"`
	NeedsReplacement bool    `json:"needs_replacement"`
}

// Output is the aggregate systems assessment.
type Output struct {
	Roof                 SystemStatus `json:"roof"`
	HVAC                 SystemStatus `json:"hvac"`
	WaterHeater          SystemStatus `json:"water_heater"`
	UrgentReplacements   []string     `json:"urgent_replacements"`
	TotalReplacementCost float64      `json:"total_replacement_cost"`
}

type systemTrace struct {
	Name          string  `json:"name"`
	YearInstalled *int    `json:"year_installed"`
	Age           *int    `json:"age"`
	Remaining     *int    `json:"remaining_years"`
	ExpectedLife  int     `json:"expected_life"`
	Condition     *string `json:"condition"`
	Urgent        bool    `json:"urgent"`
}

type traceDetails struct {
	ReferenceYear        int           `json:"reference_year"`
	Systems              []systemTrace `json:"systems"`
	UrgentReplacements   []string      `json:"urgent_replacements"`
	TotalReplacementCost float64       `json:"total_replacement_cost"`
}

// Calculate assesses each system against the policy life tables. Future
// install years clamp age to zero; missing years yield nil status fields.
func Calculate(in Input, referenceYear int, pol policy.Policy) (Output, model.TraceEntry) {
	sp := pol.Systems

	roof := assess(in.RoofYearInstalled, referenceYear, sp.Roof, sp)
	hvac := assess(in.HVACYearInstalled, referenceYear, sp.HVAC, sp)
	wh := assess(in.WaterHeaterYearInstalled, referenceYear, sp.WaterHeater, sp)

	out := Output{Roof: roof, HVAC: hvac, WaterHeater: wh, UrgentReplacements: []string{}}

	// Urgency list keeps the fixed Roof, HVAC, Water Heater order.
	for _, s := range []struct {
		name   string
		status SystemStatus
	}{
		{NameRoof, roof},
		{NameHVAC, hvac},
		{NameWaterHeater, wh},
	} {
		if s.status.NeedsReplacement {
			out.UrgentReplacements = append(out.UrgentReplacements, s.name)
			out.TotalReplacementCost += s.status.ReplacementCost
		}
	}

	trace := model.TraceEntry{
		Rule: model.RuleSystemsStatus,
		Used: []string{
			"input.systems.roof_year_installed",
			"input.systems.hvac_year_installed",
			"input.systems.water_heater_year_installed",
			"input.reference_year",
			"policy.systems.roof",
			"policy.systems.hvac",
			"policy.systems.water_heater",
			"policy.systems.good_min",
			"policy.systems.fair_min",
		},
		Details: traceDetails{
			ReferenceYear: referenceYear,
			Systems: []systemTrace{
				{NameRoof, in.RoofYearInstalled, roof.Age, roof.RemainingYears, roof.ExpectedLife, roof.Condition, roof.NeedsReplacement},
				{NameHVAC, in.HVACYearInstalled, hvac.Age, hvac.RemainingYears, hvac.ExpectedLife, hvac.Condition, hvac.NeedsReplacement},
				{NameWaterHeater, in.WaterHeaterYearInstalled, wh.Age, wh.RemainingYears, wh.ExpectedLife, wh.Condition, wh.NeedsReplacement},
			},
			UrgentReplacements:   out.UrgentReplacements,
			TotalReplacementCost: out.TotalReplacementCost,
		},
	}

	return out, trace
}

func assess(yearInstalled *int, referenceYear int, spec policy.SystemSpec, sp policy.SystemsPolicy) SystemStatus {
	status := SystemStatus{
		ExpectedLife:    spec.ExpectedLifeYears,
		ReplacementCost: spec.ReplacementCost,
	}

	year, ok := sanitize.Year(yearInstalled)
	if !ok {
		return status
	}

	age := referenceYear - year
	if age < 0 {
		age = 0
	}
	remaining := spec.ExpectedLifeYears - age
	if remaining < 0 {
		remaining = 0
	}

	cond := condition(remaining, spec.ExpectedLifeYears, sp)

	status.Age = &age
	status.RemainingYears = &remaining
	status.Condition = &cond
	status.NeedsReplacement = remaining == 0

	return status
}

// condition bands the remaining-over-expected fraction with exclusive
// boundaries: exactly 40% is fair, exactly 20% is poor.
func condition(remaining, expected int, sp policy.SystemsPolicy) string {
	if remaining == 0 {
		return "critical"
	}
	frac := float64(remaining) / float64(expected)
	switch {
	case frac > sp.GoodMin:
		return "good"
	case frac > sp.FairMin:
		return "fair"
	default:
		return "poor"
	}
}
