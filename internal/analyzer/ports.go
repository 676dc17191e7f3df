package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/synth"
)

// portRisk is the exposure tier of one open port.
type portRisk int

const (
	portRiskLow portRisk = iota
	portRiskMedium
	portRiskHigh
	portRiskCritical
)

// String returns the tier label stored in result details.
func (r portRisk) String() string {
	switch r {
	case portRiskLow:
		return "low"
	case portRiskMedium:
		return "medium"
	case portRiskHigh:
		return "high"
	default:
		return "critical"
	}
}

// portRiskDeduction maps a tier to the per-port score deduction.
var portRiskDeduction = map[portRisk]int{
	portRiskCritical: 30,
	portRiskHigh:     15,
	portRiskMedium:   8,
	portRiskLow:      2,
}

// portInfo describes one well-known port.
type portInfo struct {
	Service string
	Risk    portRisk
}

// portTable is the fixed port-to-risk classification.
// Critical: datastores that should never face the internet.
// High: remote administration and plaintext mail/name services.
// Medium: unencrypted web and typical development ports.
// Low: encrypted services that are expected to be open.
var portTable = map[int]portInfo{
	3306:  {"mysql", portRiskCritical},
	5432:  {"postgresql", portRiskCritical},
	6379:  {"redis", portRiskCritical},
	27017: {"mongodb", portRiskCritical},
	1433:  {"mssql", portRiskCritical},
	9200:  {"elasticsearch", portRiskCritical},

	22:  {"ssh", portRiskHigh},
	23:  {"telnet", portRiskHigh},
	25:  {"smtp", portRiskHigh},
	53:  {"dns", portRiskHigh},
	110: {"pop3", portRiskHigh},
	143: {"imap", portRiskHigh},
	21:  {"ftp", portRiskHigh},

	80:   {"http", portRiskMedium},
	8080: {"http-alt", portRiskMedium},
	8000: {"http-dev", portRiskMedium},
	3000: {"node-dev", portRiskMedium},
	5000: {"flask-dev", portRiskMedium},

	443: {"https", portRiskLow},
	465: {"smtps", portRiskLow},
	993: {"imaps", portRiskLow},
	995: {"pop3s", portRiskLow},
}

// PortArchetype is the deployment shape a domain is classified into.
// Each archetype implies a characteristic base port set.
type PortArchetype int

const (
	ArchetypeWebServer PortArchetype = iota
	ArchetypeMailServer
	ArchetypeDatabaseExposed
	ArchetypeDevelopment
	ArchetypeSecureEnterprise
	ArchetypeLegacy
)

// String returns the archetype label stored in result details.
func (p PortArchetype) String() string {
	switch p {
	case ArchetypeWebServer:
		return "web-server"
	case ArchetypeMailServer:
		return "mail-server"
	case ArchetypeDatabaseExposed:
		return "database-exposed"
	case ArchetypeDevelopment:
		return "development"
	case ArchetypeSecureEnterprise:
		return "secure-enterprise"
	default:
		return "legacy"
	}
}

// archetypeBasePorts maps each archetype to its characteristic open set.
var archetypeBasePorts = map[PortArchetype][]int{
	ArchetypeWebServer:        {80, 443},
	ArchetypeMailServer:       {25, 110, 143, 443, 465, 993, 995},
	ArchetypeDatabaseExposed:  {22, 80, 443, 3306, 5432},
	ArchetypeDevelopment:      {22, 80, 3000, 5000, 8000, 8080},
	ArchetypeSecureEnterprise: {443},
	ArchetypeLegacy:           {21, 23, 25, 80, 110},
}

// noisePool is the extra-port pool synthesis draws from to avoid every
// domain of one archetype looking identical.
var noisePool = []int{21, 22, 53, 8080, 6379, 9200, 27017, 1433}

// ParsePortArchetype converts an archetype label to its PortArchetype
// value. The second return is false for labels outside the known set.
func ParsePortArchetype(label string) (PortArchetype, bool) {
	switch label {
	case "web-server":
		return ArchetypeWebServer, true
	case "mail-server":
		return ArchetypeMailServer, true
	case "database-exposed":
		return ArchetypeDatabaseExposed, true
	case "development":
		return ArchetypeDevelopment, true
	case "secure-enterprise":
		return ArchetypeSecureEnterprise, true
	case "legacy":
		return ArchetypeLegacy, true
	default:
		return ArchetypeWebServer, false
	}
}

// PortArchetypeClassifier maps a domain to its deployment archetype.
// Like the SSL tier heuristic this is a policy choice, so it is
// pluggable via WithPortClassifier.
type PortArchetypeClassifier func(domain string, seed uint64) PortArchetype

// DefaultPortArchetype classifies by substring hints with a seeded
// fallback weighted toward plain web servers.
func DefaultPortArchetype(domain string, seed uint64) PortArchetype {
	switch {
	case containsAny(domain, []string{"mail", "smtp", "mx."}):
		return ArchetypeMailServer
	case containsAny(domain, []string{"db", "data", "sql"}):
		return ArchetypeDatabaseExposed
	case containsAny(domain, []string{"dev", "staging", "test", "demo"}):
		return ArchetypeDevelopment
	case containsAny(domain, reputableHints):
		return ArchetypeSecureEnterprise
	case containsAny(domain, []string{"old", "legacy"}):
		return ArchetypeLegacy
	}

	switch draw := synth.NextFloat(seed, saltPortsBase); {
	case draw < 0.6:
		return ArchetypeWebServer
	case draw < 0.75:
		return ArchetypeSecureEnterprise
	case draw < 0.85:
		return ArchetypeMailServer
	case draw < 0.95:
		return ArchetypeDevelopment
	default:
		return ArchetypeLegacy
	}
}

// Salt base for the ports dimension.
const saltPortsBase = 500

// PortsAnalyzer synthesizes the open-port set for a domain from its
// deployment archetype plus seeded noise, then scores the exposure from
// the fixed port risk table.
type PortsAnalyzer struct {
	classify PortArchetypeClassifier
}

// PortsOption configures a PortsAnalyzer.
type PortsOption func(*PortsAnalyzer)

// WithPortClassifier replaces the default archetype heuristic.
func WithPortClassifier(fn PortArchetypeClassifier) PortsOption {
	return func(a *PortsAnalyzer) {
		a.classify = fn
	}
}

// NewPortsAnalyzer creates a ports analyzer with the default classifier.
func NewPortsAnalyzer(opts ...PortsOption) *PortsAnalyzer {
	a := &PortsAnalyzer{classify: DefaultPortArchetype}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dimension returns DimensionPorts.
func (a *PortsAnalyzer) Dimension() Dimension {
	return DimensionPorts
}

// Analyze synthesizes and scores the open-port exposure of the domain.
func (a *PortsAnalyzer) Analyze(ctx context.Context, target string) (*model.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := synth.Seed(target)
	archetype := a.classify(target, seed)
	open := synthesizeOpenPorts(seed, archetype)

	score, datastores := scorePorts(open)

	result := model.NewAnalysisResult(DimensionPorts.String())
	result.Score = score
	result.Grade = statusTokenForScore(score)
	result.Details["archetype"] = archetype.String()
	result.Details["open_ports"] = describePorts(open)

	a.recommend(result, open, datastores)
	return result, nil
}

// synthesizeOpenPorts combines the archetype base set with seeded draws
// from the noise pool, deduplicated and sorted.
func synthesizeOpenPorts(seed uint64, archetype PortArchetype) []int {
	open := make(map[int]bool)
	for _, p := range archetypeBasePorts[archetype] {
		open[p] = true
	}

	// Secure-enterprise stays minimal: noise would contradict the archetype.
	if archetype != ArchetypeSecureEnterprise {
		for i, p := range noisePool {
			if synth.Chance(seed, saltPortsBase+1+i, 0.12) {
				open[p] = true
			}
		}
	}

	ports := make([]int, 0, len(open))
	for p := range open {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// scorePorts applies the tier-weighted deductions plus the shape
// bonuses and penalties, and reports any exposed datastore ports.
func scorePorts(open []int) (score int, datastores []int) {
	score = 100
	hasHTTP, hasHTTPS := false, false
	lowOnly := true

	for _, p := range open {
		info, known := portTable[p]
		if !known {
			continue
		}
		score -= portRiskDeduction[info.Risk]

		switch p {
		case 80:
			hasHTTP = true
		case 443:
			hasHTTPS = true
		}
		if info.Risk == portRiskCritical {
			datastores = append(datastores, p)
		}
		if info.Risk != portRiskLow {
			lowOnly = false
		}
	}

	// Minimal encrypted-only exposure earns a bonus.
	if hasHTTPS && lowOnly {
		score += 10
	}
	// Serving plaintext HTTP without an HTTPS counterpart is penalized
	// beyond the per-port deduction.
	if hasHTTP && !hasHTTPS {
		score -= 10
	}
	// Exposed datastores get an extra deduction on top of the critical
	// tier cost: they are the single worst signal this dimension sees.
	score -= 10 * len(datastores)

	return clampScore(score), datastores
}

// describePorts renders the open set with service names and risk tiers
// for the details map.
func describePorts(open []int) []map[string]any {
	out := make([]map[string]any, 0, len(open))
	for _, p := range open {
		entry := map[string]any{"port": p}
		if info, known := portTable[p]; known {
			entry["service"] = info.Service
			entry["risk"] = info.Risk.String()
		}
		out = append(out, entry)
	}
	return out
}

// recommend emits guidance for the risky ports found.
func (a *PortsAnalyzer) recommend(result *model.AnalysisResult, open []int, datastores []int) {
	for _, p := range datastores {
		info := portTable[p]
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionPorts.String(),
			Priority:    model.PriorityCritical,
			Title:       fmt.Sprintf("Close exposed %s port %d", info.Service, p),
			Description: fmt.Sprintf("Datastore port %d (%s) is reachable from the internet.", p, info.Service),
			Action:      "Bind the service to localhost or a private network and firewall the port.",
		})
	}

	hasHTTP, hasHTTPS := false, false
	for _, p := range open {
		switch p {
		case 80:
			hasHTTP = true
		case 443:
			hasHTTPS = true
		case 23:
			result.AddRecommendation(model.Recommendation{
				Category:    DimensionPorts.String(),
				Priority:    model.PriorityHigh,
				Title:       "Disable telnet",
				Description: "Telnet transmits credentials in cleartext.",
				Action:      "Replace telnet access with SSH and close port 23.",
			})
		case 22:
			result.AddRecommendation(model.Recommendation{
				Category:    DimensionPorts.String(),
				Priority:    model.PriorityMedium,
				Title:       "Restrict SSH exposure",
				Description: "SSH on port 22 is a standing brute-force target.",
				Action:      "Limit SSH access by source address and require key authentication.",
			})
		}
	}

	if hasHTTP && !hasHTTPS {
		result.AddRecommendation(model.Recommendation{
			Category:    DimensionPorts.String(),
			Priority:    model.PriorityHigh,
			Title:       "Serve traffic over HTTPS",
			Description: "The site serves plaintext HTTP without an HTTPS counterpart.",
			Action:      "Deploy a TLS certificate and redirect port 80 to 443.",
		})
	}
}
