package config

// SiteConfig holds per-domain overrides for a single scan target.
// Overrides pin the profile the dimension analyzers would otherwise
// derive from the domain itself, which is useful for demo fixtures and
// for regression-testing a known target.
type SiteConfig struct {
	// SSLTier forces the SSL/TLS configuration tier for this domain.
	// Valid values: "excellent", "good", "average", "poor".
	SSLTier string `yaml:"sslTier,omitempty"`

	// PortProfile forces the open-port profile for this domain.
	// Valid values: "web-server", "mail-server", "database-exposed",
	// "development", "secure-enterprise", "legacy".
	PortProfile string `yaml:"portProfile,omitempty"`
}

// File represents the structure of the .websentry configuration file.
type File struct {
	// Sites maps domains to their per-domain overrides.
	// Keys are bare domains (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all domains unless a
	// site-specific entry replaces them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the overrides for a specific domain, merging the
// site-specific entry over the defaults.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[domain]; ok {
		if siteConfig.SSLTier != "" {
			result.SSLTier = siteConfig.SSLTier
		}
		if siteConfig.PortProfile != "" {
			result.PortProfile = siteConfig.PortProfile
		}
	}
	return result
}
