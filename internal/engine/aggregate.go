package engine

import (
	"github.com/websentry/websentry/internal/analyzer"
	"github.com/websentry/websentry/internal/model"
)

// ComputeRiskScore returns the weight-normalized mean of the dimension
// scores present in results. Dimensions with no result are excluded from
// both numerator and denominator rather than treated as zero; degraded
// results are present and contribute their zero score. The second return
// is false when no dimension has produced a result.
func ComputeRiskScore(results map[string]*model.AnalysisResult) (float64, bool) {
	var weighted, total float64
	for _, sw := range analyzer.Weights() {
		result := results[sw.Dimension.String()]
		if result == nil {
			continue
		}
		weighted += float64(result.Score) * float64(sw.Weight)
		total += float64(sw.Weight)
	}
	if total == 0 {
		return 0, false
	}
	return weighted / total, true
}

// ComputeRiskLevel maps the aggregate score of results to a discrete risk
// level. It is a pure function of the results map, so stored scans can be
// re-bucketed at read time without re-running analyzers.
func ComputeRiskLevel(results map[string]*model.AnalysisResult) model.RiskLevel {
	score, scored := ComputeRiskScore(results)
	if !scored {
		return model.RiskUnknown
	}
	return model.RiskLevelForScore(score)
}

// ComputeSummary tallies dimension outcomes into pass/warn/fail buckets
// for list views. A degraded result always counts as failed regardless of
// its score.
func ComputeSummary(results map[string]*model.AnalysisResult) model.Summary {
	var summary model.Summary
	for _, sw := range analyzer.Weights() {
		result := results[sw.Dimension.String()]
		if result == nil {
			continue
		}
		summary.TotalChecks++
		switch {
		case result.Degraded() || result.Score < 40:
			summary.FailedChecks++
		case result.Score >= 80:
			summary.PassedChecks++
		default:
			summary.Warnings++
		}
	}
	return summary
}
