package model

import "time"

// Status represents the lifecycle state of a scan.
//
// Design decision: We use string-backed constants rather than iota integers
// because status values appear verbatim in API responses and stored records,
// and the set is small enough that comparison cost is irrelevant.
type Status string

const (
	// StatusPending means the scan record exists but no analyzer has run yet.
	StatusPending Status = "pending"

	// StatusScanning means the analyzer pipeline is currently executing.
	StatusScanning Status = "scanning"

	// StatusCompleted means all pipeline steps finished. Individual steps
	// may still have failed; their results carry their own error field.
	StatusCompleted Status = "completed"

	// StatusFailed means the scan could not be progressed at all, for
	// example because the record disappeared from the store mid-scan.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is an absorbing state.
// Completed and failed scans never transition again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepError records a failure attributed to one pipeline step.
// A step name of "scan" indicates an orchestration-level failure rather
// than a failure inside a single analyzer.
type StepError struct {
	// Step is the dimension name the error belongs to, or "scan" for
	// orchestration-level failures.
	Step string `json:"step"`

	// Message is the human-readable error text.
	Message string `json:"message"`

	// Timestamp is when the error was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// ScanRecord is the main scan state structure.
// It is created in the pending state and mutated in place by the engine
// as the analyzer pipeline progresses.
//
// Design decision: We use a single flat struct rather than splitting
// lifecycle state and results into separate types because the record is
// read as one unit by polling clients, and a single struct keeps store
// snapshot semantics simple.
type ScanRecord struct {
	// ID is the opaque scan identifier assigned by the caller.
	ID string `json:"id"`

	// TargetURL is the full URL submitted for scanning.
	TargetURL string `json:"target_url"`

	// Domain is the host portion of TargetURL, lower-cased.
	// All domain-based analyzers and the seeded synthesizer key off this.
	Domain string `json:"domain"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Progress is the scan completion percentage, 0-100.
	// It is monotonically non-decreasing within one scan and reaches
	// exactly 100 when the scan completes.
	Progress int `json:"progress"`

	// StartTime is when the record was created.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the scan reached a terminal state.
	// Nil while the scan is pending or running.
	EndTime *time.Time `json:"end_time,omitempty"`

	// Results maps dimension names to their analysis results.
	// Every dimension key is present from creation; the value stays nil
	// until the corresponding step has run.
	Results map[string]*AnalysisResult `json:"results"`

	// Errors lists per-step and orchestration-level failures in the
	// order they occurred.
	Errors []StepError `json:"errors,omitempty"`

	// RiskScore is the weight-normalized aggregate of dimension scores,
	// 0-100. Only meaningful once at least one dimension has scored.
	RiskScore float64 `json:"risk_score"`

	// RiskLevel is the discrete bucket derived from RiskScore.
	RiskLevel RiskLevel `json:"risk_level"`

	// Recommendations is the compiled, priority-sorted guidance from all
	// dimensions. Populated when the scan completes.
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// NewScanRecord creates a pending scan record for the given target.
// The dimensions slice pre-seeds the Results map so polling clients see
// the full dimension set from the start.
func NewScanRecord(id, targetURL, domain string, dimensions []string) *ScanRecord {
	results := make(map[string]*AnalysisResult, len(dimensions))
	for _, d := range dimensions {
		results[d] = nil
	}
	return &ScanRecord{
		ID:        id,
		TargetURL: targetURL,
		Domain:    domain,
		Status:    StatusPending,
		StartTime: time.Now().UTC(),
		Results:   results,
		RiskLevel: RiskUnknown,
	}
}

// AddStepError appends a step error with the current timestamp.
func (r *ScanRecord) AddStepError(step, message string) {
	r.Errors = append(r.Errors, StepError{
		Step:      step,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// Clone returns a deep enough copy of the record for safe concurrent reads.
// AnalysisResult values are shared because they are immutable once attached;
// the maps and slices that the engine mutates are copied.
func (r *ScanRecord) Clone() *ScanRecord {
	cp := *r
	cp.Results = make(map[string]*AnalysisResult, len(r.Results))
	for k, v := range r.Results {
		cp.Results[k] = v
	}
	if r.Errors != nil {
		cp.Errors = append([]StepError(nil), r.Errors...)
	}
	if r.Recommendations != nil {
		cp.Recommendations = append([]Recommendation(nil), r.Recommendations...)
	}
	if r.EndTime != nil {
		end := *r.EndTime
		cp.EndTime = &end
	}
	return &cp
}
