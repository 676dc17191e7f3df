package analyzer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/synth"
)

// phishingKeywords are tokens whose presence in a domain suggests a
// credential-harvesting page. Density matters: one match is common in
// legitimate domains, several together are not.
var phishingKeywords = []string{
	"login", "signin", "verify", "secure", "account",
	"update", "confirm", "banking", "wallet", "password",
}

// shortenerHosts are known URL shortener domains. Shortened links are a
// common malware distribution vector, so reputation vendors flag them.
var shortenerHosts = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "is.gd",
}

// vendorCount is the synthetic reputation vendor pool size, modeled on
// the multi-vendor aggregators this dimension imitates.
const vendorCount = 70

// Salt base for the malware dimension.
const saltMalwareBase = 400

// MalwareAnalyzer checks the target's reputation. The synthetic path
// reports near-clean unless domain heuristics suggest a suspicious
// pattern, in which case the flagged-vendor count and score degrade
// proportionally to how suspicious the target looks.
//
// Note: unlike the other analyzers this one receives the full URL, not
// just the domain, because path and query tokens carry phishing signal.
type MalwareAnalyzer struct{}

// NewMalwareAnalyzer creates a malware reputation analyzer.
func NewMalwareAnalyzer() *MalwareAnalyzer {
	return &MalwareAnalyzer{}
}

// Dimension returns DimensionMalware.
func (a *MalwareAnalyzer) Dimension() Dimension {
	return DimensionMalware
}

// Analyze scores the target URL's reputation.
func (a *MalwareAnalyzer) Analyze(ctx context.Context, target string) (*model.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	host, lowered, err := splitTarget(target)
	if err != nil {
		return nil, err
	}

	seed := synth.Seed(host)
	suspicion := suspicionLevel(host, lowered)

	// A clean domain still gets a small seeded chance of one stale vendor
	// flag, mirroring the false-positive noise real aggregators show.
	flagged := 0
	if suspicion == 0 {
		if synth.Chance(seed, saltMalwareBase, 0.05) {
			flagged = 1
		}
	} else {
		flagged = suspicion * synth.IntBetween(seed, saltMalwareBase+1, 2, 5)
	}
	if flagged > vendorCount {
		flagged = vendorCount
	}

	score := clampScore(100 - flagged*12)

	result := model.NewAnalysisResult(DimensionMalware.String())
	result.Score = score
	result.Grade = statusTokenForScore(score)
	result.Details["vendors_total"] = vendorCount
	result.Details["vendors_flagged"] = flagged
	result.Details["clean"] = flagged == 0

	if flagged > 0 {
		priority := model.PriorityMedium
		if flagged >= 5 {
			priority = model.PriorityCritical
		} else if flagged >= 2 {
			priority = model.PriorityHigh
		}
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionMalware.String(),
			Priority:    priority,
			Title:       "Investigate reputation flags",
			Description: fmt.Sprintf("%d of %d reputation vendors flag this target.", flagged, vendorCount),
			Action:      "Audit the site for injected content and request delisting after cleanup.",
		})
	}

	return result, nil
}

// splitTarget extracts the host from a target that may be a full URL or
// a bare domain, and returns the lowercase full target for keyword scans.
func splitTarget(target string) (host, lowered string, err error) {
	lowered = strings.ToLower(target)

	if strings.Contains(lowered, "://") {
		u, parseErr := url.Parse(lowered)
		if parseErr != nil {
			return "", "", fmt.Errorf("parse target %q: %w", target, parseErr)
		}
		return u.Hostname(), lowered, nil
	}
	return strings.Split(lowered, "/")[0], lowered, nil
}

// suspicionLevel counts independent heuristics that fire for the target.
// Zero means no suspicion; each additional level degrades the score
// proportionally.
func suspicionLevel(host, lowered string) int {
	level := 0

	// Keyword density: one phishing token is common, two or more is not.
	matches := 0
	for _, kw := range phishingKeywords {
		if strings.Contains(lowered, kw) {
			matches++
		}
	}
	if matches >= 2 {
		level += 2
	} else if matches == 1 {
		level++
	}

	if containsAny(host, shortenerHosts) {
		level += 2
	}

	// Shortener-shaped: very short second-level label with digits.
	labels := strings.Split(host, ".")
	if len(labels) >= 2 {
		sld := labels[len(labels)-2]
		if len(sld) <= 3 && strings.ContainsAny(sld, "0123456789") {
			level++
		}
	}

	// Excessive hyphenation is a common phishing-kit pattern.
	if strings.Count(host, "-") >= 3 {
		level++
	}

	return level
}
