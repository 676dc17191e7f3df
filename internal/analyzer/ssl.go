package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/synth"
)

// SSLTier is the synthetic quality tier a domain is classified into.
// The tier biases every synthesized TLS fact: protocol support,
// certificate health, and cipher strength.
type SSLTier int

const (
	SSLTierExcellent SSLTier = iota
	SSLTierGood
	SSLTierAverage
	SSLTierPoor
)

// String returns the tier label stored in result details.
func (t SSLTier) String() string {
	switch t {
	case SSLTierExcellent:
		return "excellent"
	case SSLTierGood:
		return "good"
	case SSLTierAverage:
		return "average"
	default:
		return "poor"
	}
}

// ParseSSLTier converts a tier label to its SSLTier value.
// The second return is false for labels outside the known set.
func ParseSSLTier(label string) (SSLTier, bool) {
	switch label {
	case "excellent":
		return SSLTierExcellent, true
	case "good":
		return SSLTierGood, true
	case "average":
		return SSLTierAverage, true
	case "poor":
		return SSLTierPoor, true
	default:
		return SSLTierAverage, false
	}
}

// SSLTierClassifier maps a domain to a synthetic quality tier.
// This is a heuristic policy choice, not load-bearing logic, so it is
// pluggable via WithSSLTierClassifier.
type SSLTierClassifier func(domain string, seed uint64) SSLTier

// reputableHints suggest an organization likely to run a modern TLS stack.
var reputableHints = []string{"bank", "gov", "google", "amazon", "microsoft", "apple", "cloudflare"}

// weakHints suggest a test, demo, or legacy deployment.
var weakHints = []string{"test", "demo", "staging", "old", "legacy", "temp"}

// DefaultSSLTier classifies by domain substring hints, falling back to a
// seeded draw so unknown domains spread across the middle tiers.
func DefaultSSLTier(domain string, seed uint64) SSLTier {
	switch {
	case containsAny(domain, reputableHints):
		return SSLTierExcellent
	case containsAny(domain, weakHints):
		return SSLTierPoor
	}
	switch draw := synth.NextFloat(seed, saltSSLTier); {
	case draw < 0.35:
		return SSLTierExcellent
	case draw < 0.75:
		return SSLTierGood
	case draw < 0.92:
		return SSLTierAverage
	default:
		return SSLTierPoor
	}
}

// Salt layout for the ssl dimension. Salts are fixed per derived fact so
// every synthesized value is reproducible independently of call order.
const (
	saltSSLTier = iota + 100
	saltSSLIssuer
	saltSSLValidityDays
	saltSSLIssuedDaysAgo
	saltSSLSelfSigned
	saltSSLExtraCipher
	saltSSLLegacyProto
)

// sslVulnerability is a weakness derived from synthesized TLS facts.
type sslVulnerability struct {
	ID       string
	Severity model.Priority
}

// sslVulnPenalty maps vulnerability severity to its score deduction.
var sslVulnPenalty = map[model.Priority]int{
	model.PriorityCritical: 30,
	model.PriorityHigh:     15,
	model.PriorityMedium:   7,
	model.PriorityLow:      3,
}

// certIssuers is the issuer pool for synthesized certificates, ordered
// roughly from most to least reputable.
var certIssuers = []string{
	"DigiCert Inc",
	"Let's Encrypt",
	"Sectigo Limited",
	"GlobalSign",
	"GoDaddy.com, Inc.",
	"Self-Signed",
}

// SSLAnalyzer evaluates TLS protocol support, certificate health, and
// cipher strength for a domain. Without a live probe path it synthesizes
// tier-biased facts from the seeded stream, so repeated scans of one
// domain are identical.
type SSLAnalyzer struct {
	classify SSLTierClassifier
	now      func() time.Time
}

// SSLOption configures an SSLAnalyzer.
type SSLOption func(*SSLAnalyzer)

// WithSSLTierClassifier replaces the default domain tier heuristic.
func WithSSLTierClassifier(fn SSLTierClassifier) SSLOption {
	return func(a *SSLAnalyzer) {
		a.classify = fn
	}
}

// withSSLClock overrides the clock for tests.
func withSSLClock(now func() time.Time) SSLOption {
	return func(a *SSLAnalyzer) {
		a.now = now
	}
}

// NewSSLAnalyzer creates an SSL analyzer with the default tier classifier.
func NewSSLAnalyzer(opts ...SSLOption) *SSLAnalyzer {
	a := &SSLAnalyzer{
		classify: DefaultSSLTier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dimension returns DimensionSSL.
func (a *SSLAnalyzer) Dimension() Dimension {
	return DimensionSSL
}

// sslCertificate holds synthesized certificate facts.
type sslCertificate struct {
	Issuer        string
	NotBefore     time.Time
	NotAfter      time.Time
	SelfSigned    bool
	Expired       bool
	DaysRemaining int
}

// Analyze synthesizes the TLS posture for the domain and scores it.
func (a *SSLAnalyzer) Analyze(ctx context.Context, target string) (*model.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := synth.Seed(target)
	tier := a.classify(target, seed)

	protocols := a.protocolsForTier(seed, tier)
	cert := a.certificateForTier(seed, tier)
	strong, medium, weak := ciphersForTier(seed, tier)
	vulns := deriveVulnerabilities(protocols, cert)

	score := scoreSSL(protocols, cert, len(strong), len(weak), vulns)
	grade := GradeForScore(score)

	result := model.NewAnalysisResult(DimensionSSL.String())
	result.Score = score
	result.Grade = grade
	result.Details["tier"] = tier.String()
	result.Details["protocols"] = protocols
	result.Details["certificate"] = map[string]any{
		"issuer":         cert.Issuer,
		"not_before":     cert.NotBefore.Format(time.RFC3339),
		"not_after":      cert.NotAfter.Format(time.RFC3339),
		"self_signed":    cert.SelfSigned,
		"expired":        cert.Expired,
		"days_remaining": cert.DaysRemaining,
	}
	result.Details["ciphers"] = map[string][]string{
		"strong": strong,
		"medium": medium,
		"weak":   weak,
	}
	if len(vulns) > 0 {
		ids := make([]string, len(vulns))
		for i, v := range vulns {
			ids[i] = v.ID
		}
		result.Details["vulnerabilities"] = ids
	}

	a.recommend(result, protocols, cert, weak)
	return result, nil
}

// protocolsForTier derives the supported protocol set. Higher tiers
// include only modern protocols; lower tiers accumulate legacy ones.
func (a *SSLAnalyzer) protocolsForTier(seed uint64, tier SSLTier) []string {
	switch tier {
	case SSLTierExcellent:
		return []string{"TLSv1.3", "TLSv1.2"}
	case SSLTierGood:
		return []string{"TLSv1.3", "TLSv1.2", "TLSv1.1"}
	case SSLTierAverage:
		return []string{"TLSv1.2", "TLSv1.1", "TLSv1.0"}
	default:
		protos := []string{"TLSv1.2", "TLSv1.1", "TLSv1.0"}
		if synth.Chance(seed, saltSSLLegacyProto, 0.5) {
			protos = append(protos, "SSLv3")
		}
		return protos
	}
}

// certificateForTier synthesizes a certificate biased by tier: better
// tiers get reputable issuers, longer remaining validity, and no
// self-signing.
func (a *SSLAnalyzer) certificateForTier(seed uint64, tier SSLTier) sslCertificate {
	now := a.now().UTC()

	var cert sslCertificate
	switch tier {
	case SSLTierExcellent:
		cert.Issuer = certIssuers[synth.PickIndex(seed, saltSSLIssuer, 2)]
		cert.DaysRemaining = synth.IntBetween(seed, saltSSLValidityDays, 200, 365)
	case SSLTierGood:
		cert.Issuer = certIssuers[synth.PickIndex(seed, saltSSLIssuer, 4)]
		cert.DaysRemaining = synth.IntBetween(seed, saltSSLValidityDays, 60, 300)
	case SSLTierAverage:
		cert.Issuer = certIssuers[1+synth.PickIndex(seed, saltSSLIssuer, 4)]
		cert.DaysRemaining = synth.IntBetween(seed, saltSSLValidityDays, 10, 120)
	default:
		cert.SelfSigned = synth.Chance(seed, saltSSLSelfSigned, 0.6)
		if cert.SelfSigned {
			cert.Issuer = certIssuers[len(certIssuers)-1]
		} else {
			cert.Issuer = certIssuers[2+synth.PickIndex(seed, saltSSLIssuer, 3)]
		}
		cert.DaysRemaining = synth.IntBetween(seed, saltSSLValidityDays, -30, 90)
	}

	issuedDaysAgo := synth.IntBetween(seed, saltSSLIssuedDaysAgo, 30, 400)
	cert.NotBefore = now.AddDate(0, 0, -issuedDaysAgo)
	cert.NotAfter = now.AddDate(0, 0, cert.DaysRemaining)
	cert.Expired = cert.DaysRemaining < 0
	return cert
}

// ciphersForTier synthesizes the advertised cipher suites grouped by
// strength label.
func ciphersForTier(seed uint64, tier SSLTier) (strong, medium, weak []string) {
	switch tier {
	case SSLTierExcellent:
		strong = []string{"TLS_AES_256_GCM_SHA384", "TLS_CHACHA20_POLY1305_SHA256", "ECDHE-RSA-AES256-GCM-SHA384"}
	case SSLTierGood:
		strong = []string{"TLS_AES_256_GCM_SHA384", "ECDHE-RSA-AES256-GCM-SHA384"}
		medium = []string{"AES256-SHA256"}
	case SSLTierAverage:
		strong = []string{"ECDHE-RSA-AES128-GCM-SHA256"}
		medium = []string{"AES128-SHA256", "AES256-SHA"}
	default:
		medium = []string{"AES128-SHA"}
		weak = []string{"DES-CBC3-SHA"}
		if synth.Chance(seed, saltSSLExtraCipher, 0.5) {
			weak = append(weak, "RC4-SHA")
		}
	}
	return strong, medium, weak
}

// deriveVulnerabilities infers weaknesses deterministically from the
// same protocol and certificate facts used for scoring, so the finding
// list always matches the evidence shown in details.
func deriveVulnerabilities(protocols []string, cert sslCertificate) []sslVulnerability {
	var vulns []sslVulnerability
	for _, p := range protocols {
		switch p {
		case "SSLv3":
			vulns = append(vulns, sslVulnerability{ID: "POODLE", Severity: model.PriorityHigh})
		case "TLSv1.0":
			vulns = append(vulns, sslVulnerability{ID: "BEAST", Severity: model.PriorityMedium})
		}
	}
	if cert.Expired {
		vulns = append(vulns, sslVulnerability{ID: "EXPIRED_CERTIFICATE", Severity: model.PriorityCritical})
	}
	if cert.SelfSigned {
		vulns = append(vulns, sslVulnerability{ID: "UNTRUSTED_CERTIFICATE", Severity: model.PriorityHigh})
	}
	return vulns
}

// scoreSSL computes the dimension score from the synthesized facts:
// protocol bonuses and penalties, per-cipher adjustments, certificate
// health, and per-vulnerability deductions, clamped to [0, 100].
func scoreSSL(protocols []string, cert sslCertificate, strongCiphers, weakCiphers int, vulns []sslVulnerability) int {
	score := 0
	for _, p := range protocols {
		switch p {
		case "TLSv1.3":
			score += 20
		case "TLSv1.2":
			score += 10
		case "TLSv1.1":
			score -= 5
		case "TLSv1.0":
			score -= 10
		case "SSLv3":
			score -= 25
		}
	}

	score += 8 * strongCiphers
	score -= 12 * weakCiphers

	if cert.Expired {
		score -= 30
	}
	if cert.SelfSigned {
		score -= 20
	}
	if cert.DaysRemaining > 180 {
		score += 10
	}

	for _, v := range vulns {
		score -= sslVulnPenalty[v.Severity]
	}

	return clampScore(score)
}

// GradeForScore maps an SSL score to its letter grade using fixed
// thresholds.
func GradeForScore(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}

// recommend emits guidance keyed to the specific deficiencies found.
func (a *SSLAnalyzer) recommend(result *model.AnalysisResult, protocols []string, cert sslCertificate, weakCiphers []string) {
	for _, p := range protocols {
		switch p {
		case "SSLv3", "TLSv1.0", "TLSv1.1":
			result.AddRecommendation(model.Recommendation{
				Category:    DimensionSSL.String(),
				Priority:    model.PriorityHigh,
				Title:       fmt.Sprintf("Disable legacy protocol %s", p),
				Description: fmt.Sprintf("%s is vulnerable to downgrade and padding-oracle attacks.", p),
				Action:      fmt.Sprintf("Remove %s from the server's enabled protocol list.", p),
			})
		}
	}

	if cert.Expired {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionSSL.String(),
			Priority:    model.PriorityCritical,
			Title:       "Replace expired certificate",
			Description: "Browsers refuse connections to sites presenting expired certificates.",
			Action:      "Renew the TLS certificate immediately.",
		})
	} else if cert.DaysRemaining < 30 {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionSSL.String(),
			Priority:    model.PriorityHigh,
			Title:       "Certificate expires soon",
			Description: fmt.Sprintf("The certificate expires in %d days.", cert.DaysRemaining),
			Action:      "Renew the certificate before it expires, or enable automatic renewal.",
		})
	}

	if cert.SelfSigned {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionSSL.String(),
			Priority:    model.PriorityHigh,
			Title:       "Replace self-signed certificate",
			Description: "Self-signed certificates are not trusted by clients and invite interception.",
			Action:      "Obtain a certificate from a trusted certificate authority.",
		})
	}

	if len(weakCiphers) > 0 {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionSSL.String(),
			Priority:    model.PriorityMedium,
			Title:       "Remove weak cipher suites",
			Description: fmt.Sprintf("%d weak cipher suites are advertised.", len(weakCiphers)),
			Action:      "Restrict the cipher list to modern AEAD suites.",
		})
	}
}
