package analyzer

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
)

// fullHeaderSet is a maximally hardened response header set.
var fullHeaderSet = map[string]string{
	"Content-Security-Policy":   "default-src 'self'",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"X-Frame-Options":           "DENY",
	"X-Content-Type-Options":    "nosniff",
	"X-XSS-Protection":          "1; mode=block",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Permissions-Policy":        "geolocation=(), camera=()",
}

// headerTestClient returns an analyzer wired to a test server that
// responds with the given headers, plus the server host to scan.
func headerTestClient(t *testing.T, headers map[string]string) (*HeadersAnalyzer, string) {
	t.Helper()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for name, value := range headers {
			w.Header().Set(name, value)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	// The probe dials https://<domain>/, so hand it the server's own
	// host:port as the domain and its client, which trusts the test cert.
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	return NewHeadersAnalyzer(WithHeadersHTTPClient(srv.Client())), u.Host
}

// TestHeaderChecksTable tests the invariants of the header catalog.
func TestHeaderChecksTable(t *testing.T) {
	t.Parallel()

	total := 0
	seen := make(map[string]bool)
	for _, check := range headerChecks {
		total += check.Points
		if seen[check.Name] {
			t.Errorf("duplicate header check %q", check.Name)
		}
		seen[check.Name] = true
		if check.Points <= 0 {
			t.Errorf("header %q has non-positive point value %d", check.Name, check.Points)
		}
	}
	if total != 100 {
		t.Errorf("header point values sum to %d, want 100", total)
	}
}

// TestHeadersAnalyzerLive tests the live probe path against a test server.
func TestHeadersAnalyzerLive(t *testing.T) {
	t.Parallel()

	t.Run("fully hardened response scores 100", func(t *testing.T) {
		t.Parallel()

		a, host := headerTestClient(t, fullHeaderSet)
		result, err := a.Analyze(context.Background(), host)
		if err != nil {
			t.Fatalf("analysis failed: %v", err)
		}

		if result.Score != 100 {
			t.Errorf("expected score 100, got %d", result.Score)
		}
		if result.Grade != "good" {
			t.Errorf("expected grade good, got %q", result.Grade)
		}
		if len(result.Recommendations) != 0 {
			t.Errorf("expected no recommendations, got %d", len(result.Recommendations))
		}
		missing, ok := result.Details["missing"].([]string)
		if !ok || len(missing) != 0 {
			t.Errorf("expected empty missing list, got %v", result.Details["missing"])
		}
	})

	t.Run("bare response scores 0 with guidance per header", func(t *testing.T) {
		t.Parallel()

		a, host := headerTestClient(t, nil)
		result, err := a.Analyze(context.Background(), host)
		if err != nil {
			t.Fatalf("analysis failed: %v", err)
		}

		if result.Score != 0 {
			t.Errorf("expected score 0, got %d", result.Score)
		}
		if result.Grade != "poor" {
			t.Errorf("expected grade poor, got %q", result.Grade)
		}
		if len(result.Recommendations) != len(headerChecks) {
			t.Errorf("expected %d recommendations, got %d", len(headerChecks), len(result.Recommendations))
		}
	})

	t.Run("weak values earn partial credit", func(t *testing.T) {
		t.Parallel()

		a, host := headerTestClient(t, map[string]string{
			"Content-Security-Policy":   "default-src 'self' 'unsafe-inline' 'unsafe-eval'",
			"Strict-Transport-Security": "max-age=300",
		})
		result, err := a.Analyze(context.Background(), host)
		if err != nil {
			t.Fatalf("analysis failed: %v", err)
		}

		// CSP at floor factor 0.4 of 25 plus HSTS at 0.5 of 20.
		if result.Score != 20 {
			t.Errorf("expected score 20, got %d", result.Score)
		}
	})
}

// TestHeadersAnalyzerSynthesis tests the synthesis fallback path.
func TestHeadersAnalyzerSynthesis(t *testing.T) {
	t.Parallel()

	a := NewHeadersAnalyzer()

	first, err := a.Analyze(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("first analysis failed: %v", err)
	}
	second, err := a.Analyze(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("second analysis failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical synthesized results for one domain")
	}
	if first.Score < 0 || first.Score > 100 {
		t.Errorf("score out of range: %d", first.Score)
	}

	present, ok := first.Details["present"].(map[string]string)
	if !ok {
		t.Fatalf("expected present map in details, got %T", first.Details["present"])
	}
	missing, ok := first.Details["missing"].([]string)
	if !ok {
		t.Fatalf("expected missing list in details, got %T", first.Details["missing"])
	}
	if len(present)+len(missing) != len(headerChecks) {
		t.Errorf("present (%d) + missing (%d) does not cover the catalog (%d)",
			len(present), len(missing), len(headerChecks))
	}
}

// TestHSTSStrength tests the HSTS value grading.
func TestHSTSStrength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  float64
	}{
		{"max-age=31536000; includeSubDomains", 1.0},
		{"max-age=63072000; includeSubDomains; preload", 1.0},
		{"max-age=31536000", 0.8},
		{"max-age=300", 0.5},
		{"", 0.5},
	}

	for _, tt := range tests {
		if got := hstsStrength(tt.value); got != tt.want {
			t.Errorf("hstsStrength(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestCSPStrength tests the CSP value grading.
func TestCSPStrength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  float64
	}{
		{"default-src 'self'", 1.0},
		{"default-src 'self' 'unsafe-inline'", 0.7},
		{"default-src 'self' 'unsafe-eval'", 0.7},
		{"default-src * 'unsafe-inline' 'unsafe-eval'", 0.4},
	}

	for _, tt := range tests {
		if got := cspStrength(tt.value); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("cspStrength(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestStatusTokenForScore tests the generic grade token thresholds.
func TestStatusTokenForScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  string
	}{
		{100, "good"},
		{80, "good"},
		{79, "fair"},
		{60, "fair"},
		{59, "weak"},
		{40, "weak"},
		{39, "poor"},
		{0, "poor"},
	}

	for _, tt := range tests {
		if got := statusTokenForScore(tt.score); got != tt.want {
			t.Errorf("statusTokenForScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
