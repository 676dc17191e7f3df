package analyzer

import (
	"context"
	"strings"

	"github.com/websentry/websentry/internal/model"
)

// Dimension identifies one analyzable facet of a target.
//
// Design decision: We use iota-based constants rather than strings because
// the dimension set is fixed and known at compile time. The String() method
// provides the stable name used as the ScanRecord results key.
type Dimension int

const (
	// DimensionSSL covers TLS protocol support, certificates, and ciphers.
	DimensionSSL Dimension = iota

	// DimensionHeaders covers HTTP security response headers.
	DimensionHeaders

	// DimensionTech covers technology fingerprinting and outdated stacks.
	DimensionTech

	// DimensionMalware covers domain reputation and blocklist status.
	DimensionMalware

	// DimensionPorts covers open network ports and exposed services.
	DimensionPorts

	// DimensionWhois covers domain registration facts.
	DimensionWhois
)

// String returns the stable dimension name used as the results map key.
func (d Dimension) String() string {
	switch d {
	case DimensionSSL:
		return "ssl"
	case DimensionHeaders:
		return "headers"
	case DimensionTech:
		return "tech"
	case DimensionMalware:
		return "malware"
	case DimensionPorts:
		return "ports"
	case DimensionWhois:
		return "whois"
	default:
		return "unknown"
	}
}

// Analyzer is the common contract for all dimension analyzers.
//
// Design decision: We use an interface rather than loose functions because:
//  1. Analyzers carry configuration state (classifiers, probe clients)
//  2. The engine can treat all dimensions uniformly
//  3. Tests can substitute mock analyzers for pipeline behavior checks
type Analyzer interface {
	// Analyze produces the analysis result for the target. The target is
	// a bare domain for every dimension except malware, which receives
	// the full URL.
	//
	// Implementations must respect context cancellation and must not
	// panic; any internal failure should be returned as an error so the
	// engine can substitute a degraded result and continue the pipeline.
	Analyze(ctx context.Context, target string) (*model.AnalysisResult, error)

	// Dimension returns the dimension this analyzer covers.
	Dimension() Dimension
}

// StepWeight pairs a dimension with its share of total scan progress.
type StepWeight struct {
	Dimension Dimension
	Weight    int
}

// stepWeights is the fixed weight table. The order defines pipeline
// execution order and the weights define progress advancement per step.
// The weights must sum to exactly 100 so that cumulative progress after
// the final step is exactly 100; WeightsTotal is verified in tests.
var stepWeights = []StepWeight{
	{DimensionSSL, 20},
	{DimensionHeaders, 20},
	{DimensionTech, 15},
	{DimensionMalware, 20},
	{DimensionPorts, 15},
	{DimensionWhois, 10},
}

// Weights returns a copy of the fixed weight table in pipeline order.
func Weights() []StepWeight {
	return append([]StepWeight(nil), stepWeights...)
}

// WeightOf returns the progress weight for a dimension, or 0 if the
// dimension is not in the table.
func WeightOf(d Dimension) int {
	for _, sw := range stepWeights {
		if sw.Dimension == d {
			return sw.Weight
		}
	}
	return 0
}

// WeightsTotal returns the sum of all step weights.
func WeightsTotal() int {
	total := 0
	for _, sw := range stepWeights {
		total += sw.Weight
	}
	return total
}

// DimensionNames returns the dimension names in pipeline order.
// This is the key set of every ScanRecord results map.
func DimensionNames() []string {
	names := make([]string, len(stepWeights))
	for i, sw := range stepWeights {
		names[i] = sw.Dimension.String()
	}
	return names
}

// DefaultAnalyzers returns the six analyzers in pipeline order with
// default configuration. This is the standard set for a full scan.
func DefaultAnalyzers() []Analyzer {
	return []Analyzer{
		NewSSLAnalyzer(),
		NewHeadersAnalyzer(),
		NewTechAnalyzer(),
		NewMalwareAnalyzer(),
		NewPortsAnalyzer(),
		NewWhoisAnalyzer(),
	}
}

// clampScore bounds a raw score to the [0, 100] range.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// containsAny reports whether s contains any of the given substrings.
// Analyzers use this for domain archetype heuristics.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
