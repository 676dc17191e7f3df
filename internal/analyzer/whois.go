package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/synth"
)

// registrars is the registrar pool for synthesized registration records.
var registrars = []string{
	"MarkMonitor Inc.",
	"CSC Corporate Domains, Inc.",
	"GoDaddy.com, LLC",
	"Namecheap, Inc.",
	"Gandi SAS",
	"OVH sas",
	"NameSilo, LLC",
}

// protectiveStatuses are EPP status codes that indicate the registration
// is locked against transfer and tampering.
var protectiveStatuses = []string{
	"clientTransferProhibited",
	"clientDeleteProhibited",
	"clientUpdateProhibited",
}

// Salt base for the whois dimension.
const saltWhoisBase = 600

// WhoisAnalyzer synthesizes a registration record for the domain and
// scores registration hygiene: domain age, time to expiry, protective
// status codes, and name server redundancy.
type WhoisAnalyzer struct {
	now func() time.Time
}

// WhoisOption configures a WhoisAnalyzer.
type WhoisOption func(*WhoisAnalyzer)

// withWhoisClock overrides the clock for tests.
func withWhoisClock(now func() time.Time) WhoisOption {
	return func(a *WhoisAnalyzer) {
		a.now = now
	}
}

// NewWhoisAnalyzer creates a whois analyzer.
func NewWhoisAnalyzer(opts ...WhoisOption) *WhoisAnalyzer {
	a := &WhoisAnalyzer{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dimension returns DimensionWhois.
func (a *WhoisAnalyzer) Dimension() Dimension {
	return DimensionWhois
}

// Analyze synthesizes and scores the registration record for the domain.
func (a *WhoisAnalyzer) Analyze(ctx context.Context, target string) (*model.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := synth.Seed(target)
	now := a.now().UTC()

	ageDays := synthesizeAgeDays(target, seed)
	created := now.AddDate(0, 0, -ageDays)

	expiryDays := synth.IntBetween(seed, saltWhoisBase+1, 20, 730)
	expires := now.AddDate(0, 0, expiryDays)

	updated := now.AddDate(0, 0, -lastUpdatedDaysAgo(seed, ageDays))

	statusCount := synth.IntBetween(seed, saltWhoisBase+3, 0, len(protectiveStatuses))
	statuses := protectiveStatuses[:statusCount]

	nsCount := synth.IntBetween(seed, saltWhoisBase+4, 1, 4)
	nameServers := make([]string, nsCount)
	for i := range nameServers {
		nameServers[i] = fmt.Sprintf("ns%d.%s", i+1, target)
	}

	registrar := registrars[synth.PickIndex(seed, saltWhoisBase+5, len(registrars))]

	score := scoreWhois(ageDays, expiryDays, statusCount, nsCount)

	result := model.NewAnalysisResult(DimensionWhois.String())
	result.Score = score
	result.Grade = statusTokenForScore(score)
	result.Details["registrar"] = registrar
	result.Details["created"] = created.Format(time.RFC3339)
	result.Details["updated"] = updated.Format(time.RFC3339)
	result.Details["expires"] = expires.Format(time.RFC3339)
	result.Details["domain_age_days"] = ageDays
	result.Details["days_until_expiry"] = expiryDays
	result.Details["statuses"] = statuses
	result.Details["name_servers"] = nameServers

	a.recommend(result, ageDays, expiryDays, statusCount, nsCount)
	return result, nil
}

// lastUpdatedDaysAgo picks how many days ago the registration record was
// last modified. The value never exceeds the domain's age, so the
// synthesized updated timestamp cannot precede the created timestamp even
// for domains registered only days ago.
func lastUpdatedDaysAgo(seed uint64, ageDays int) int {
	high := min(ageDays, 365)
	if high < 0 {
		high = 0
	}
	return synth.IntBetween(seed, saltWhoisBase+2, 0, high)
}

// synthesizeAgeDays biases domain age by name heuristics: brand-like
// domains skew old, test and demo domains skew new, everything else
// spreads across one to fifteen years.
func synthesizeAgeDays(domain string, seed uint64) int {
	switch {
	case containsAny(domain, reputableHints):
		return synth.IntBetween(seed, saltWhoisBase, 365*15, 365*25)
	case containsAny(domain, weakHints):
		return synth.IntBetween(seed, saltWhoisBase, 7, 365)
	default:
		return synth.IntBetween(seed, saltWhoisBase, 365, 365*15)
	}
}

// scoreWhois starts at a neutral 50 and adjusts for age, expiry
// pressure, protective statuses, and name server redundancy.
func scoreWhois(ageDays, expiryDays, statusCount, nsCount int) int {
	score := 50

	// Age: long-lived registrations correlate with legitimacy; domains
	// registered within the last month are a strong phishing signal.
	switch {
	case ageDays < 30:
		score -= 20
	case ageDays > 365*10:
		score += 15
	case ageDays > 365*5:
		score += 10
	case ageDays > 365:
		score += 5
	}

	// Expiry: penalties scale as expiry approaches.
	switch {
	case expiryDays < 30:
		score -= 25
	case expiryDays < 90:
		score -= 15
	case expiryDays < 180:
		score -= 5
	case expiryDays > 365:
		score += 5
	}

	score += 3 * statusCount

	// Name servers: redundancy earns bonuses, a single point of failure
	// is penalized.
	switch {
	case nsCount >= 3:
		score += 10
	case nsCount >= 2:
		score += 5
	default:
		score -= 10
	}

	return clampScore(score)
}

// recommend emits guidance for weak registration hygiene.
func (a *WhoisAnalyzer) recommend(result *model.AnalysisResult, ageDays, expiryDays, statusCount, nsCount int) {
	if expiryDays < 30 {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionWhois.String(),
			Priority:    model.PriorityCritical,
			Title:       "Renew the domain registration",
			Description: fmt.Sprintf("The registration expires in %d days.", expiryDays),
			Action:      "Renew the domain now and enable auto-renewal.",
		})
	} else if expiryDays < 90 {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionWhois.String(),
			Priority:    model.PriorityHigh,
			Title:       "Registration expires soon",
			Description: fmt.Sprintf("The registration expires in %d days.", expiryDays),
			Action:      "Renew the domain before expiry to avoid hijacking via re-registration.",
		})
	}

	if statusCount == 0 {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionWhois.String(),
			Priority:    model.PriorityMedium,
			Title:       "Enable registrar lock",
			Description: "No protective EPP status codes are set on the registration.",
			Action:      "Enable clientTransferProhibited and related locks at the registrar.",
		})
	}

	if nsCount < 2 {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionWhois.String(),
			Priority:    model.PriorityMedium,
			Title:       "Add redundant name servers",
			Description: "A single name server is a single point of failure for the whole domain.",
			Action:      "Configure at least two name servers in separate networks.",
		})
	}

	if ageDays < 30 {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionWhois.String(),
			Priority:    model.PriorityLow,
			Title:       "Newly registered domain",
			Description: "Domains registered within the last month are frequently flagged by reputation systems.",
			Action:      "Expect elevated scrutiny from mail and reputation providers until the domain ages.",
		})
	}
}
