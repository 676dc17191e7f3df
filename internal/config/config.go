package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultStepTimeout bounds each analyzer step. 30 seconds covers the
	// live probing paths (HTTPS fetch plus parsing) with headroom; the
	// synthesis paths finish in microseconds.
	DefaultStepTimeout = 30 * time.Second

	// DefaultStepDelay is the pause between pipeline steps.
	// Zero keeps single scans instant; demo deployments that want visible
	// progress can raise it via --step-delay.
	DefaultStepDelay = 0 * time.Second

	// DefaultBatchSize of 5 concurrent scans balances throughput with the
	// load placed on probed targets when live analysis is enabled.
	DefaultBatchSize = 5

	// DefaultListenAddr is the HTTP service listen address.
	DefaultListenAddr = ":8080"

	// AppName is the application name used for XDG directory paths.
	AppName = "websentry"
)

// Config holds all configuration options for websentry.
// This struct is designed to be populated from CLI flags and passed
// through the application via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ScanConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// Targets is the list of URLs or domains to scan.
	// Required for the scan command; unused by serve.
	Targets []string

	// StepTimeout bounds each analyzer invocation. A step exceeding it is
	// recorded as a recoverable per-step failure.
	StepTimeout time.Duration

	// StepDelay is the pause inserted after each completed pipeline step.
	StepDelay time.Duration

	// BatchSize is the number of concurrent scans when processing
	// multiple targets.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only info and above are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBPath is the SQLite database path for scan history.
	// When empty, scans live only in memory for the process lifetime.
	DBPath string

	// ListenAddr is the HTTP service listen address for the serve command.
	ListenAddr string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .websentry in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteOverrides holds per-domain overrides loaded from the config
	// file. Populated by LoadConfigFile and applied during scanning.
	SiteOverrides *File
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero (timeout, batch size,
// listen address). This also serves as documentation of the defaults.
func NewConfig() *Config {
	return &Config{
		StepTimeout: DefaultStepTimeout,
		StepDelay:   DefaultStepDelay,
		BatchSize:   DefaultBatchSize,
		ListenAddr:  DefaultListenAddr,
	}
}

// XDGDataDir returns the XDG data directory for websentry.
// On Linux: ~/.local/share/websentry
// On macOS: ~/Library/Application Support/websentry
// On Windows: %LOCALAPPDATA%\websentry
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for websentry.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultDBPath returns the default SQLite database path inside the XDG
// data directory.
func DefaultDBPath() string {
	return filepath.Join(XDGDataDir(), "websentry.db")
}

// Validate checks if the configuration is valid for running scans.
// It returns a specific sentinel error describing what is invalid.
//
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.StepTimeout <= 0 {
		return ErrInvalidStepTimeout
	}
	if c.StepDelay < 0 {
		return ErrInvalidStepDelay
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// ValidateServe checks the configuration for the serve command, which
// needs a listen address but no targets.
func (c *Config) ValidateServe() error {
	if c.ListenAddr == "" {
		return ErrInvalidListenAddr
	}
	if c.StepTimeout <= 0 {
		return ErrInvalidStepTimeout
	}
	if c.StepDelay < 0 {
		return ErrInvalidStepDelay
	}
	return nil
}
