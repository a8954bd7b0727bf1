// Package model defines the shared data types exchanged between the
// underwriting engine, the persistence layer, and the CLI/HTTP surfaces.
package model

// TraceEntry is the audit record of one rule's evaluation. Every top-level
// computation emits exactly one entry; the trace array is append-only and
// never mutated after the analysis completes. Details carries the full
// per-branch evaluation so a replay can be compared byte-for-byte.
type TraceEntry struct {
	Rule    string   `json:"rule"`
	Used    []string `json:"used"`
	Details any      `json:"details"`
}

// Trace rule identifiers consumed by the audit UI. These are stable keys;
// renaming one breaks stored traces.
const (
	RulePolicyCompose    = "POLICY_COMPOSE"
	RuleLienRisk         = "LIEN_RISK"
	RuleMotivationScore  = "MOTIVATION_SCORE"
	RuleSystemsStatus    = "SYSTEMS_STATUS"
	RuleRiskGates        = "RISK_GATES"
	RulePriceGeometry    = "PRICE_GEOMETRY"
	RuleMarketProvenance = "MARKET_PROVENANCE"
	RuleVerdict          = "VERDICT"
)
