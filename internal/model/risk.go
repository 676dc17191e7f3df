package model

// RiskLevel is the discrete risk bucket derived from the aggregate score.
type RiskLevel string

const (
	// RiskLow means the aggregate score is 80 or above.
	RiskLow RiskLevel = "low"

	// RiskMedium means the aggregate score is in [60, 80).
	RiskMedium RiskLevel = "medium"

	// RiskHigh means the aggregate score is in [40, 60).
	RiskHigh RiskLevel = "high"

	// RiskCritical means the aggregate score is below 40.
	RiskCritical RiskLevel = "critical"

	// RiskUnknown means no dimension has produced a score yet.
	RiskUnknown RiskLevel = "unknown"
)

// RiskLevelForScore maps an aggregate score to its risk bucket.
// The thresholds are fixed: higher scores mean a more secure target,
// so they map to lower risk.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskLow
	case score >= 60:
		return RiskMedium
	case score >= 40:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Summary is a compact roll-up of dimension outcomes for list and
// history views. It is computed at read time from stored results without
// re-running analysis.
type Summary struct {
	// TotalChecks is the number of dimensions that produced a result.
	TotalChecks int `json:"total_checks"`

	// PassedChecks counts dimensions scoring 80 or above.
	PassedChecks int `json:"passed_checks"`

	// Warnings counts dimensions scoring in [40, 80).
	Warnings int `json:"warnings"`

	// FailedChecks counts dimensions scoring below 40 or that errored.
	FailedChecks int `json:"failed_checks"`
}
