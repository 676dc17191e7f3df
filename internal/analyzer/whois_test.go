package analyzer

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/websentry/websentry/internal/model"
)

// TestScoreWhois tests the registration hygiene arithmetic.
func TestScoreWhois(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		ageDays     int
		expiryDays  int
		statusCount int
		nsCount     int
		want        int
	}{
		{
			name:        "mature locked registration",
			ageDays:     365 * 11,
			expiryDays:  400,
			statusCount: 3,
			nsCount:     3,
			want:        89, // 50 +15 +5 +9 +10
		},
		{
			name:       "fresh registration about to expire",
			ageDays:    20,
			expiryDays: 25,
			nsCount:    1,
			want:       0, // 50 -20 -25 -10, clamped
		},
		{
			name:        "middling registration",
			ageDays:     400,
			expiryDays:  100,
			statusCount: 1,
			nsCount:     2,
			want:        58, // 50 +5 -5 +3 +5
		},
		{
			name:       "six year old domain with long runway",
			ageDays:    365 * 6,
			expiryDays: 700,
			nsCount:    2,
			want:       70, // 50 +10 +5 +5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := scoreWhois(tt.ageDays, tt.expiryDays, tt.statusCount, tt.nsCount)
			if got != tt.want {
				t.Errorf("scoreWhois(%d, %d, %d, %d) = %d, want %d",
					tt.ageDays, tt.expiryDays, tt.statusCount, tt.nsCount, got, tt.want)
			}
		})
	}
}

// TestWhoisAnalyzerDeterminism tests repeatability under a fixed clock.
func TestWhoisAnalyzerDeterminism(t *testing.T) {
	t.Parallel()

	a := NewWhoisAnalyzer(withWhoisClock(fixedClock()))

	first, err := a.Analyze(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("first analysis failed: %v", err)
	}
	second, err := a.Analyze(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("second analysis failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical results for one domain under a fixed clock")
	}
}

// TestWhoisAnalyzerDetails tests the synthesized record facts.
func TestWhoisAnalyzerDetails(t *testing.T) {
	t.Parallel()

	a := NewWhoisAnalyzer(withWhoisClock(fixedClock()))
	result, err := a.Analyze(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}

	age, ok := result.Details["domain_age_days"].(int)
	if !ok {
		t.Fatalf("expected domain_age_days int, got %T", result.Details["domain_age_days"])
	}
	if age < 365 || age > 365*15 {
		t.Errorf("unhinted domain age %d outside the one-to-fifteen-year band", age)
	}

	servers, ok := result.Details["name_servers"].([]string)
	if !ok || len(servers) == 0 {
		t.Fatalf("expected name servers, got %v", result.Details["name_servers"])
	}
	if servers[0] != "ns1.example.com" {
		t.Errorf("expected first name server ns1.example.com, got %q", servers[0])
	}

	registrar, ok := result.Details["registrar"].(string)
	if !ok || registrar == "" {
		t.Errorf("expected a registrar, got %v", result.Details["registrar"])
	}

	created, err := time.Parse(time.RFC3339, result.Details["created"].(string))
	if err != nil {
		t.Fatalf("failed to parse created: %v", err)
	}
	updated, err := time.Parse(time.RFC3339, result.Details["updated"].(string))
	if err != nil {
		t.Fatalf("failed to parse updated: %v", err)
	}
	if updated.Before(created) {
		t.Errorf("updated %v precedes created %v", updated, created)
	}
}

// TestSynthesizeAgeDays tests the age band heuristics.
func TestSynthesizeAgeDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		domain  string
		minDays int
		maxDays int
	}{
		{"accounts.google.com", 365 * 15, 365 * 25},
		{"demo.example.com", 7, 365},
		{"example.com", 365, 365 * 15},
	}

	for _, tt := range tests {
		age := synthesizeAgeDays(tt.domain, 42)
		if age < tt.minDays || age > tt.maxDays {
			t.Errorf("synthesizeAgeDays(%q) = %d, want within [%d, %d]",
				tt.domain, age, tt.minDays, tt.maxDays)
		}
	}
}

// TestLastUpdatedDaysAgo tests that the update offset never exceeds the
// domain's age, keeping the synthesized updated timestamp at or after the
// created timestamp even for domains registered only days ago.
func TestLastUpdatedDaysAgo(t *testing.T) {
	t.Parallel()

	for _, ageDays := range []int{0, 1, 5, 9, 30, 364, 365, 4000} {
		for seed := uint64(0); seed < 200; seed++ {
			got := lastUpdatedDaysAgo(seed, ageDays)
			if got < 0 {
				t.Fatalf("lastUpdatedDaysAgo(%d, %d) = %d, negative offset", seed, ageDays, got)
			}
			if got > ageDays {
				t.Fatalf("lastUpdatedDaysAgo(%d, %d) = %d, exceeds domain age", seed, ageDays, got)
			}
			if got > 365 {
				t.Fatalf("lastUpdatedDaysAgo(%d, %d) = %d, exceeds one-year cap", seed, ageDays, got)
			}
		}
	}
}

// TestWhoisRecommend tests guidance emission on constructed hygiene facts.
func TestWhoisRecommend(t *testing.T) {
	t.Parallel()

	a := NewWhoisAnalyzer()

	t.Run("everything weak", func(t *testing.T) {
		t.Parallel()

		result := model.NewAnalysisResult("whois")
		a.recommend(result, 10, 10, 0, 1)

		// Imminent expiry, no lock, single name server, newly registered.
		if len(result.Recommendations) != 4 {
			t.Fatalf("expected 4 recommendations, got %d", len(result.Recommendations))
		}
		if result.Recommendations[0].Priority != model.PriorityCritical {
			t.Errorf("expected critical renewal guidance first, got %v", result.Recommendations[0].Priority)
		}
	})

	t.Run("expiry within ninety days is high priority", func(t *testing.T) {
		t.Parallel()

		result := model.NewAnalysisResult("whois")
		a.recommend(result, 3650, 60, 2, 3)

		if len(result.Recommendations) != 1 {
			t.Fatalf("expected 1 recommendation, got %d", len(result.Recommendations))
		}
		if result.Recommendations[0].Priority != model.PriorityHigh {
			t.Errorf("expected high priority, got %v", result.Recommendations[0].Priority)
		}
	})

	t.Run("healthy registration is quiet", func(t *testing.T) {
		t.Parallel()

		result := model.NewAnalysisResult("whois")
		a.recommend(result, 3650, 400, 3, 3)

		if len(result.Recommendations) != 0 {
			t.Errorf("expected no recommendations, got %d", len(result.Recommendations))
		}
	})
}
