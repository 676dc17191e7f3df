package model

import (
	"testing"
	"time"
)

// TestStatusTerminal tests terminal state classification.
func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusScanning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Terminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

// TestNewScanRecord tests record initialization.
func TestNewScanRecord(t *testing.T) {
	t.Parallel()

	dims := []string{"ssl", "headers", "ports"}
	record := NewScanRecord("scan-1", "https://example.com", "example.com", dims)

	if record.ID != "scan-1" {
		t.Errorf("expected ID scan-1, got %q", record.ID)
	}
	if record.TargetURL != "https://example.com" {
		t.Errorf("unexpected target URL %q", record.TargetURL)
	}
	if record.Domain != "example.com" {
		t.Errorf("unexpected domain %q", record.Domain)
	}
	if record.Status != StatusPending {
		t.Errorf("expected pending status, got %q", record.Status)
	}
	if record.Progress != 0 {
		t.Errorf("expected zero progress, got %d", record.Progress)
	}
	if record.RiskLevel != RiskUnknown {
		t.Errorf("expected unknown risk level, got %q", record.RiskLevel)
	}
	if record.EndTime != nil {
		t.Error("expected nil end time on a fresh record")
	}
	if record.StartTime.IsZero() {
		t.Error("expected start time to be set")
	}

	if len(record.Results) != len(dims) {
		t.Fatalf("expected %d result keys, got %d", len(dims), len(record.Results))
	}
	for _, d := range dims {
		result, ok := record.Results[d]
		if !ok {
			t.Errorf("missing result key %q", d)
		}
		if result != nil {
			t.Errorf("expected nil result for %q before analysis", d)
		}
	}
}

// TestAddStepError tests error accumulation.
func TestAddStepError(t *testing.T) {
	t.Parallel()

	record := NewScanRecord("scan-1", "https://example.com", "example.com", nil)
	record.AddStepError("ssl", "timeout")
	record.AddStepError("scan", "record vanished")

	if len(record.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(record.Errors))
	}
	if record.Errors[0].Step != "ssl" || record.Errors[0].Message != "timeout" {
		t.Errorf("unexpected first error: %+v", record.Errors[0])
	}
	if record.Errors[1].Step != "scan" {
		t.Errorf("unexpected second error step: %q", record.Errors[1].Step)
	}
	if record.Errors[0].Timestamp.IsZero() {
		t.Error("expected error timestamp to be set")
	}
}

// TestScanRecordClone tests snapshot isolation of clones.
func TestScanRecordClone(t *testing.T) {
	t.Parallel()

	record := NewScanRecord("scan-1", "https://example.com", "example.com", []string{"ssl"})
	record.AddStepError("ssl", "timeout")
	end := time.Now().UTC()
	record.EndTime = &end
	record.Recommendations = []Recommendation{{Category: "ssl", Priority: PriorityHigh, Title: "t"}}

	clone := record.Clone()

	// Mutating the clone must not leak into the original.
	clone.Results["headers"] = NewAnalysisResult("headers")
	clone.AddStepError("ports", "late failure")
	clone.Recommendations = append(clone.Recommendations, Recommendation{Category: "ports"})
	*clone.EndTime = end.Add(time.Hour)

	if _, ok := record.Results["headers"]; ok {
		t.Error("clone results map leaked into original")
	}
	if len(record.Errors) != 1 {
		t.Errorf("clone errors leaked into original: %d entries", len(record.Errors))
	}
	if len(record.Recommendations) != 1 {
		t.Errorf("clone recommendations leaked into original: %d entries", len(record.Recommendations))
	}
	if !record.EndTime.Equal(end) {
		t.Error("clone end time leaked into original")
	}
}
