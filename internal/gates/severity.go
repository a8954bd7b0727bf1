package gates

// Severity of a failed gate. Ranks are numeric with lower = more severe,
// so "at least as severe" is a rank comparison, never a lexical one
// (alphabetic comparison would invert critical/major ordering).
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// severityRanks maps severity to rank. Missing or unrecognized severities
// rank 0, i.e. more severe than anything, so a fail with no severity is
// defensively treated as blocking.
var severityRanks = map[Severity]int{
	SeverityCritical: 1,
	SeverityMajor:    2,
	SeverityMinor:    3,
}

// Rank returns the numeric rank of a severity (critical=1, major=2,
// minor=3). Unrecognized severities return 0.
func Rank(s Severity) int {
	return severityRanks[s]
}

// AtLeastAsSevere reports whether s is at least as severe as threshold.
func AtLeastAsSevere(s, threshold Severity) bool {
	return Rank(s) <= Rank(threshold)
}

// Valid reports whether s is a recognized severity.
func (s Severity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}
