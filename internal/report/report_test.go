package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/websentry/websentry/internal/model"
)

// reportRecord builds a completed scan record exercising every report
// section: a scored dimension, a degraded dimension, a dimension that
// never ran, compiled recommendations, and a step error.
func reportRecord(t *testing.T) *model.ScanRecord {
	t.Helper()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Second)

	sslResult := model.NewAnalysisResult("ssl")
	sslResult.Score = 90
	sslResult.Grade = "A+"

	headersResult := model.NewAnalysisResult("headers")
	headersResult.Score = 55
	headersResult.Grade = "weak"

	portsResult := model.NewAnalysisResult("ports")
	portsResult.Grade = "unknown"
	portsResult.Error = "probe timeout"

	record := &model.ScanRecord{
		ID:        "scan-report",
		TargetURL: "https://example.com",
		Domain:    "example.com",
		Status:    model.StatusCompleted,
		Progress:  100,
		StartTime: start,
		EndTime:   &end,
		Results: map[string]*model.AnalysisResult{
			"ssl":     sslResult,
			"headers": headersResult,
			"ports":   portsResult,
			"whois":   nil,
		},
		RiskScore: 67.3,
		RiskLevel: model.RiskMedium,
		Recommendations: []model.Recommendation{
			{
				Category:    "ports",
				Priority:    model.PriorityCritical,
				Title:       "Close exposed database port",
				Description: "Database ports reachable from the internet invite credential attacks.",
				Action:      "Restrict port 3306 to internal networks",
			},
			{
				Category:    "headers",
				Priority:    model.PriorityMedium,
				Title:       "Add Content-Security-Policy",
				Description: "Without CSP the browser executes any injected script.",
				Action:      "Define a restrictive Content-Security-Policy header",
			},
		},
	}
	record.Errors = []model.StepError{
		{Step: "ports", Message: "probe timeout", Timestamp: end},
	}
	return record
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{key: "ssl", want: "SSL/TLS"},
		{key: "headers", want: "Security Headers"},
		{key: "tech", want: "Technology Stack"},
		{key: "malware", want: "Malware Reputation"},
		{key: "ports", want: "Open Ports"},
		{key: "whois", want: "Domain Registration"},
		{key: "botnet", want: "Botnet"},
		{key: "dns security", want: "Dns Security"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()

			if got := displayName(tt.key); got != tt.want {
				t.Errorf("displayName(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestOrderedDimensions(t *testing.T) {
	t.Parallel()

	t.Run("pipeline order for known dimensions", func(t *testing.T) {
		t.Parallel()

		record := &model.ScanRecord{
			Results: map[string]*model.AnalysisResult{
				"whois":   nil,
				"ssl":     nil,
				"ports":   nil,
				"headers": nil,
				"malware": nil,
				"tech":    nil,
			},
		}
		want := []string{"ssl", "headers", "tech", "malware", "ports", "whois"}
		got := orderedDimensions(record)
		if len(got) != len(want) {
			t.Fatalf("orderedDimensions() returned %d names, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("orderedDimensions()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("unknown dimensions append alphabetically", func(t *testing.T) {
		t.Parallel()

		record := &model.ScanRecord{
			Results: map[string]*model.AnalysisResult{
				"ssl":    nil,
				"zebra":  nil,
				"botnet": nil,
			},
		}
		want := []string{"ssl", "botnet", "zebra"}
		got := orderedDimensions(record)
		if len(got) != len(want) {
			t.Fatalf("orderedDimensions() returned %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("orderedDimensions()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output round-trips", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		var buf bytes.Buffer
		n, err := NewJSONWriter(&buf).Write(record)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() reported %d bytes, buffer holds %d", n, buf.Len())
		}
		if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			t.Error("Write() output should end with a newline")
		}

		var decoded model.ScanRecord
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.ID != record.ID {
			t.Errorf("decoded ID = %q, want %q", decoded.ID, record.ID)
		}
		if decoded.RiskLevel != model.RiskMedium {
			t.Errorf("decoded RiskLevel = %q, want %q", decoded.RiskLevel, model.RiskMedium)
		}
		if decoded.Results["ssl"].Score != 90 {
			t.Errorf("decoded ssl score = %d, want 90", decoded.Results["ssl"].Score)
		}
		if decoded.Recommendations[0].Priority != model.PriorityCritical {
			t.Errorf("decoded priority = %v, want %v", decoded.Recommendations[0].Priority, model.PriorityCritical)
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		var compact, pretty bytes.Buffer
		if _, err := NewJSONWriter(&compact).Write(record); err != nil {
			t.Fatalf("compact Write() error = %v", err)
		}
		if _, err := NewJSONWriter(&pretty, WithPrettyPrint()).Write(record); err != nil {
			t.Fatalf("pretty Write() error = %v", err)
		}
		if pretty.Len() <= compact.Len() {
			t.Errorf("pretty output (%d bytes) should be longer than compact (%d bytes)", pretty.Len(), compact.Len())
		}
		if !strings.Contains(pretty.String(), "\n  \"") {
			t.Error("pretty output should contain indented fields")
		}
	})

	t.Run("custom indent prefix", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(record); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(buf.String(), "\n>\t") {
			t.Error("output should carry the configured prefix and indent")
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders all sections", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(record)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() reported %d bytes, buffer holds %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"Security Scan Report: example.com",
			"Target:     https://example.com",
			"Status:     completed (100%)",
			"Risk Score: 67.3 / 100",
			"Risk Level: MEDIUM",
			"Dimension Results",
			"SSL/TLS",
			"90/100  [A+]",
			"Open Ports",
			"FAILED: probe timeout",
			"Domain Registration",
			"(not run)",
			"Recommendations (2)",
			"[CRITICAL] Open Ports: Close exposed database port",
			"[MEDIUM] Security Headers: Add Content-Security-Policy",
			"Step Errors (1)",
			"ports: probe timeout",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q\n%s", want, out)
			}
		}
	})

	t.Run("verbose includes descriptions and actions", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(record); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Database ports reachable from the internet") {
			t.Error("verbose output missing recommendation description")
		}
		if !strings.Contains(out, "-> Restrict port 3306 to internal networks") {
			t.Error("verbose output missing recommendation action")
		}
	})

	t.Run("falls back to compiled recommendations", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		record.Recommendations = nil
		record.Results["ssl"].AddRecommendation(model.Recommendation{
			Category: "ssl",
			Priority: model.PriorityHigh,
			Title:    "Disable TLSv1.0",
		})

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(record); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(buf.String(), "[HIGH] SSL/TLS: Disable TLSv1.0") {
			t.Errorf("output should compile recommendations from results:\n%s", buf.String())
		}
	})

	t.Run("clean record omits optional sections", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		record.Recommendations = nil
		record.Errors = nil
		record.Results = map[string]*model.AnalysisResult{
			"ssl": record.Results["ssl"],
		}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(record); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		out := buf.String()
		if strings.Contains(out, "Recommendations") {
			t.Error("output should omit the recommendations section when there are none")
		}
		if strings.Contains(out, "Step Errors") {
			t.Error("output should omit the step errors section when there are none")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders all sections", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).Write(record)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n == 0 {
			t.Error("Write() reported zero bytes")
		}

		out := buf.String()
		for _, want := range []string{
			"# Security Scan Report",
			"`https://example.com`",
			"`example.com`",
			"⚠️ Completed (partial results)",
			"## Risk Summary",
			"67.3 / 100",
			"🟡 Medium",
			"Check Outcome Distribution",
			"```mermaid",
			"## Dimension Results",
			"SSL/TLS",
			"error: probe timeout",
			"not run",
			"## Recommendations",
			"### 🔴 Critical",
			"Close exposed database port",
			"### 🟡 Medium",
			"## Step Errors",
			"probe timeout",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("low risk record gets tip alert", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		record.RiskScore = 92.0
		record.RiskLevel = model.RiskLow
		record.Errors = nil
		record.Results["ports"] = record.Results["ssl"]

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(record); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Low risk (score 92.0)") {
			t.Error("output missing low risk alert")
		}
		if strings.Contains(out, "## Step Errors") {
			t.Error("output should omit the step errors section when there are none")
		}
		if !strings.Contains(out, "✅ Completed") {
			t.Error("output should show a clean completed status")
		}
	})

	t.Run("pending record shows progress and unknown risk", func(t *testing.T) {
		t.Parallel()

		record := model.NewScanRecord("scan-pending", "https://example.org", "example.org",
			[]string{"ssl", "headers"})
		record.Status = model.StatusScanning
		record.Progress = 40

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(record); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "⏳ scanning (40%)") {
			t.Error("output missing in-progress status cell")
		}
		if !strings.Contains(out, "No dimension produced a score") {
			t.Error("output missing unknown risk note")
		}
		if strings.Contains(out, "```mermaid") {
			t.Error("output should omit the pie chart when no checks ran")
		}
	})
}

// failingWriter always returns an error after writing a fixed byte count.
type failingWriter struct{}

func (failingWriter) Write(_ *model.ScanRecord) (int, error) {
	return 5, errors.New("disk full")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("sums bytes across writers", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		var a, b bytes.Buffer
		multi := NewMultiWriter(NewJSONWriter(&a), NewSimpleWriter(&b))
		n, err := multi.Write(record)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("Write() = %d bytes, want %d", n, a.Len()+b.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		record := reportRecord(t)
		var after bytes.Buffer
		multi := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))
		n, err := multi.Write(record)
		if err == nil {
			t.Fatal("Write() should propagate the writer error")
		}
		if n != 5 {
			t.Errorf("Write() = %d bytes, want 5", n)
		}
		if after.Len() != 0 {
			t.Error("writers after the failing one should not run")
		}
	})

	t.Run("empty writer list", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(reportRecord(t))
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n != 0 {
			t.Errorf("Write() = %d bytes, want 0", n)
		}
	})
}
