package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no scan target is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL or domain to scan")

	// ErrInvalidStepTimeout is returned when the per-step timeout is not positive.
	ErrInvalidStepTimeout = errors.New("invalid step timeout: must be positive")

	// ErrInvalidStepDelay is returned when the inter-step delay is negative.
	// Use 0 for no delay between pipeline steps.
	ErrInvalidStepDelay = errors.New("invalid step delay: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no scans run at all.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidListenAddr is returned when the serve listen address is empty.
	ErrInvalidListenAddr = errors.New("invalid listen address: must not be empty")
)
