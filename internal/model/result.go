package model

import (
	"encoding/json"
	"fmt"
)

// Priority represents the urgency of a recommendation.
//
// Design decision: We use iota-based constants rather than string constants
// for efficient comparison and sorting. Lower values sort first, so the
// declaration order is the compiled report order: critical before high
// before medium before low, with unranked last. JSON marshaling converts
// to the lowercase string form used by API clients.
type Priority int

const (
	// PriorityCritical demands immediate action, such as replacing an
	// expired certificate or closing an exposed database port.
	PriorityCritical Priority = iota

	// PriorityHigh indicates a serious weakness that should be fixed soon.
	PriorityHigh

	// PriorityMedium indicates a hardening gap worth scheduling.
	PriorityMedium

	// PriorityLow indicates a minor improvement.
	PriorityLow

	// PriorityUnranked is used when an analyzer emits guidance without
	// assigning urgency. Unranked items sort after everything else.
	PriorityUnranked
)

// String returns the lowercase token for the priority.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unranked"
	}
}

// ParsePriority converts a lowercase token back into a Priority.
// Unrecognized tokens map to PriorityUnranked rather than failing, so
// records written by older versions still load.
func ParsePriority(s string) Priority {
	switch s {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	case "low":
		return PriorityLow
	default:
		return PriorityUnranked
	}
}

// MarshalJSON emits the priority as its string token.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses the string token form of a priority.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("priority must be a string: %w", err)
	}
	*p = ParsePriority(s)
	return nil
}

// Recommendation is a single piece of corrective guidance emitted by an
// analyzer. Recommendations are immutable once emitted; the engine's
// compiler only reorders and deduplicates them, never rewrites fields.
type Recommendation struct {
	// Category groups related guidance (e.g. "ssl", "headers").
	Category string `json:"category"`

	// Priority is the urgency bucket used for report ordering.
	Priority Priority `json:"priority"`

	// Title is a short summary of the issue.
	Title string `json:"title"`

	// Description explains why the issue matters.
	Description string `json:"description"`

	// Action is the concrete remediation step.
	Action string `json:"action"`
}

// AnalysisResult is the normalized output of one dimension analyzer.
// It is created fresh by each analyzer invocation and never mutated after
// being attached to a ScanRecord.
type AnalysisResult struct {
	// Dimension is the dimension name this result belongs to.
	Dimension string `json:"dimension"`

	// Score is the dimension security score, 0-100, higher is safer.
	Score int `json:"score"`

	// Grade is the dimension-specific discrete label: a letter grade for
	// SSL (A+ through F) or a generic status token for other dimensions.
	Grade string `json:"grade"`

	// Recommendations contains guidance keyed to the specific deficiencies
	// this analyzer detected. Generation is a pure function of the
	// analyzer's own findings.
	Recommendations []Recommendation `json:"recommendations,omitempty"`

	// Details holds free-form structured data for presentation layers:
	// protocol lists, certificate facts, open ports, and so on.
	Details map[string]any `json:"details,omitempty"`

	// Error is set when the analyzer failed internally and substituted a
	// degraded zero-score result.
	Error string `json:"error,omitempty"`
}

// NewAnalysisResult creates an empty result for the given dimension with
// the Details map initialized.
func NewAnalysisResult(dimension string) *AnalysisResult {
	return &AnalysisResult{
		Dimension: dimension,
		Details:   make(map[string]any),
	}
}

// AddRecommendation appends a recommendation to the result.
func (r *AnalysisResult) AddRecommendation(rec Recommendation) {
	r.Recommendations = append(r.Recommendations, rec)
}

// Degraded reports whether this result was substituted after an analyzer
// failure rather than produced by a successful analysis.
func (r *AnalysisResult) Degraded() bool {
	return r.Error != ""
}
