package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/websentry/websentry/internal/analyzer"
	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/store"
)

// ErrInvalidTarget is returned when a scan target cannot be parsed into
// a usable URL and domain.
var ErrInvalidTarget = errors.New("invalid scan target")

// stepName for orchestration-level failures that are not attributable to
// a single analyzer.
const orchestrationStep = "scan"

// Engine runs the analyzer pipeline against scan records held in a store.
//
// Design decision: the engine mutates records exclusively through
// store.Update closures rather than holding record pointers across steps.
// The store is the single synchronization point, so HTTP handlers can poll
// a scan while its pipeline is mid-flight without torn reads.
type Engine struct {
	// store holds the scan records this engine progresses.
	store store.Store

	// analyzers is the ordered pipeline, one per dimension.
	analyzers []analyzer.Analyzer

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// stepTimeout bounds each analyzer invocation. A step that exceeds
	// it is recorded as a recoverable per-step failure.
	stepTimeout time.Duration

	// stepDelay is an optional pause between steps. Useful for demo
	// deployments where instant completion makes progress invisible.
	stepDelay time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithAnalyzers replaces the default analyzer pipeline.
// Intended for tests that substitute deterministic or failing analyzers.
func WithAnalyzers(analyzers []analyzer.Analyzer) Option {
	return func(e *Engine) {
		e.analyzers = analyzers
	}
}

// WithStepTimeout bounds each analyzer invocation.
// Default is 30 seconds. Values <= 0 are ignored.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.stepTimeout = d
		}
	}
}

// WithStepDelay inserts a pause after each completed step.
// Default is no delay. Values < 0 are ignored.
func WithStepDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.stepDelay = d
		}
	}
}

// New creates an Engine backed by the given store.
func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		analyzers:   analyzer.DefaultAnalyzers(),
		stepTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Dimensions returns the dimension names in pipeline order.
func (e *Engine) Dimensions() []string {
	names := make([]string, len(e.analyzers))
	for i, a := range e.analyzers {
		names[i] = a.Dimension().String()
	}
	return names
}

// NewScan validates and normalizes the raw target, creates a pending scan
// record with a fresh ID, and stores it. The scan does not run until
// StartScan or RunScan is called with the returned record's ID.
func (e *Engine) NewScan(ctx context.Context, rawTarget string) (*model.ScanRecord, error) {
	targetURL, domain, err := NormalizeTarget(rawTarget)
	if err != nil {
		return nil, err
	}

	record := model.NewScanRecord(uuid.NewString(), targetURL, domain, e.Dimensions())
	if err := e.store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create scan record: %w", err)
	}
	return record, nil
}

// Scan returns the current snapshot of the scan with the given ID.
func (e *Engine) Scan(ctx context.Context, id string) (*model.ScanRecord, error) {
	return e.store.Get(ctx, id)
}

// StartScan runs the scan pipeline for the given record ID in a background
// goroutine. Errors are reflected on the record itself; callers observe
// them by polling the store.
func (e *Engine) StartScan(id string) {
	go func() {
		if err := e.RunScan(context.Background(), id); err != nil {
			e.logger.Error("scan failed",
				"scan_id", id,
				"error", err,
			)
		}
	}()
}

// RunScan executes the full analyzer pipeline for the given record ID,
// returning after the record has reached a terminal state.
//
// Analyzer failures are recoverable: the failing dimension receives a
// degraded zero-score result and a StepError, and the pipeline continues.
// Only orchestration failures, such as the record vanishing from the
// store, mark the scan failed and stop execution.
func (e *Engine) RunScan(ctx context.Context, id string) error {
	record, err := e.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load scan %s: %w", id, err)
	}

	e.logger.Info("starting scan",
		"scan_id", id,
		"domain", record.Domain,
		"steps", len(e.analyzers),
	)

	if err := e.store.Update(ctx, id, func(r *model.ScanRecord) error {
		r.Status = model.StatusScanning
		return nil
	}); err != nil {
		return e.failScan(ctx, id, fmt.Errorf("failed to mark scan running: %w", err))
	}

	total := 0
	for _, a := range e.analyzers {
		total += analyzer.WeightOf(a.Dimension())
	}

	cumulative := 0
	degradedSteps := 0
	for i, a := range e.analyzers {
		select {
		case <-ctx.Done():
			return e.failScan(ctx, id, fmt.Errorf("scan cancelled: %w", ctx.Err()))
		default:
		}

		dimension := a.Dimension().String()
		result := e.runStep(ctx, a, record)
		if result.Degraded() {
			degradedSteps++
		}

		cumulative += analyzer.WeightOf(a.Dimension())
		// A pipeline of dimensions outside the weight table carries no
		// weight at all; fall back to counting steps so progress still
		// advances.
		progress := (i + 1) * 100 / len(e.analyzers)
		if total > 0 {
			progress = cumulative * 100 / total
		}

		if err := e.store.Update(ctx, id, func(r *model.ScanRecord) error {
			r.Results[dimension] = result
			r.Progress = progress
			if result.Degraded() {
				r.AddStepError(dimension, result.Error)
			}
			return nil
		}); err != nil {
			return e.failScan(ctx, id, fmt.Errorf("failed to record %s result: %w", dimension, err))
		}

		e.logger.Debug("step completed",
			"scan_id", id,
			"step", dimension,
			"score", result.Score,
			"progress", progress,
			"degraded", result.Degraded(),
		)

		if e.stepDelay > 0 {
			select {
			case <-ctx.Done():
				return e.failScan(ctx, id, fmt.Errorf("scan cancelled: %w", ctx.Err()))
			case <-time.After(e.stepDelay):
			}
		}
	}

	if err := e.store.Update(ctx, id, func(r *model.ScanRecord) error {
		score, scored := ComputeRiskScore(r.Results)
		r.RiskScore = score
		if scored {
			r.RiskLevel = model.RiskLevelForScore(score)
		} else {
			r.RiskLevel = model.RiskUnknown
		}
		r.Recommendations = CompileRecommendations(r.Results)
		r.Status = model.StatusCompleted
		r.Progress = 100
		now := time.Now().UTC()
		r.EndTime = &now
		return nil
	}); err != nil {
		return e.failScan(ctx, id, fmt.Errorf("failed to finalize scan: %w", err))
	}

	e.logger.Info("scan completed",
		"scan_id", id,
		"domain", record.Domain,
		"degraded_steps", degradedSteps,
	)
	return nil
}

// runStep invokes one analyzer with the step timeout applied. Any failure,
// including timeout, is converted into a degraded result so the pipeline
// can continue.
func (e *Engine) runStep(ctx context.Context, a analyzer.Analyzer, record *model.ScanRecord) *model.AnalysisResult {
	dimension := a.Dimension().String()

	// The malware dimension inspects the full URL for phishing patterns;
	// every other dimension works from the bare domain.
	target := record.Domain
	if a.Dimension() == analyzer.DimensionMalware {
		target = record.TargetURL
	}

	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	result, err := a.Analyze(stepCtx, target)
	if err != nil {
		e.logger.Warn("step failed",
			"scan_id", record.ID,
			"step", dimension,
			"error", err,
		)
		return degradedResult(dimension, err)
	}
	if result == nil {
		// An analyzer returning (nil, nil) is a contract violation;
		// treat it the same as an explicit failure.
		return degradedResult(dimension, fmt.Errorf("analyzer %s returned no result", dimension))
	}
	return result
}

// failScan marks the scan failed with a general StepError. The original
// orchestration error is returned so callers can log or surface it.
func (e *Engine) failScan(ctx context.Context, id string, cause error) error {
	updateErr := e.store.Update(ctx, id, func(r *model.ScanRecord) error {
		r.Status = model.StatusFailed
		r.AddStepError(orchestrationStep, cause.Error())
		now := time.Now().UTC()
		r.EndTime = &now
		return nil
	})
	if updateErr != nil {
		// The record is likely gone entirely; nothing left to mark.
		e.logger.Error("failed to mark scan as failed",
			"scan_id", id,
			"cause", cause,
			"error", updateErr,
		)
	}
	return cause
}

// degradedResult builds the zero-score substitute attached when an
// analyzer fails.
func degradedResult(dimension string, err error) *model.AnalysisResult {
	result := model.NewAnalysisResult(dimension)
	result.Score = 0
	result.Grade = "unknown"
	result.Error = err.Error()
	result.AddRecommendation(model.Recommendation{
		Category:    dimension,
		Priority:    model.PriorityMedium,
		Title:       fmt.Sprintf("Re-run the %s analysis", dimension),
		Description: fmt.Sprintf("The %s analysis could not complete: %s.", dimension, err.Error()),
		Action:      "Check connectivity to the target and retry the scan.",
	})
	return result
}

// NormalizeTarget parses a raw scan target into a canonical URL and a
// lower-cased domain. Targets without a scheme are assumed to be HTTPS.
func NormalizeTarget(raw string) (targetURL, domain string, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", fmt.Errorf("%w: empty target", ErrInvalidTarget)
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidTarget, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" || !strings.Contains(host, ".") {
		return "", "", fmt.Errorf("%w: missing or incomplete host in %q", ErrInvalidTarget, raw)
	}

	parsed.Host = strings.ToLower(parsed.Host)
	return parsed.String(), host, nil
}
