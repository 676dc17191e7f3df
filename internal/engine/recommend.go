package engine

import (
	"sort"

	"github.com/websentry/websentry/internal/analyzer"
	"github.com/websentry/websentry/internal/model"
)

// CompileRecommendations gathers every recommendation from results into a
// single list: concatenated in dimension order, deduplicated by exact
// content, then stable-sorted by priority so critical items surface first.
//
// The stable sort preserves dimension order among recommendations of equal
// priority, which keeps the compiled list deterministic for a given
// results map.
func CompileRecommendations(results map[string]*model.AnalysisResult) []model.Recommendation {
	var compiled []model.Recommendation
	seen := make(map[model.Recommendation]struct{})

	for _, sw := range analyzer.Weights() {
		result := results[sw.Dimension.String()]
		if result == nil {
			continue
		}
		for _, rec := range result.Recommendations {
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			compiled = append(compiled, rec)
		}
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority < compiled[j].Priority
	})
	return compiled
}
