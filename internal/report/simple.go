package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/websentry/websentry/internal/engine"
	"github.com/websentry/websentry/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables per-recommendation descriptions in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the scan record as plain text.
func (w *SimpleWriter) Write(record *model.ScanRecord) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, record)
	w.writeDimensions(&sb, record)
	w.writeRecommendations(&sb, record)
	w.writeErrors(&sb, record)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, record *model.ScanRecord) {
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(sb, "Security Scan Report: %s\n", record.Domain)
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(sb, "Target:     %s\n", record.TargetURL)
	fmt.Fprintf(sb, "Status:     %s (%d%%)\n", record.Status, record.Progress)
	fmt.Fprintf(sb, "Started:    %s\n", record.StartTime.Format("2006-01-02 15:04:05 MST"))
	if record.EndTime != nil {
		fmt.Fprintf(sb, "Finished:   %s\n", record.EndTime.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(sb, "Risk Score: %.1f / 100\n", record.RiskScore)
	fmt.Fprintf(sb, "Risk Level: %s\n", strings.ToUpper(string(record.RiskLevel)))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDimensions(sb *strings.Builder, record *model.ScanRecord) {
	sb.WriteString("Dimension Results\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")

	for _, name := range orderedDimensions(record) {
		result := record.Results[name]
		switch {
		case result == nil:
			fmt.Fprintf(sb, "  %-22s (not run)\n", displayName(name))
		case result.Degraded():
			fmt.Fprintf(sb, "  %-22s FAILED: %s\n", displayName(name), result.Error)
		default:
			fmt.Fprintf(sb, "  %-22s %3d/100  [%s]\n", displayName(name), result.Score, result.Grade)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, record *model.ScanRecord) {
	recommendations := record.Recommendations
	if len(recommendations) == 0 {
		recommendations = engine.CompileRecommendations(record.Results)
	}
	if len(recommendations) == 0 {
		return
	}

	fmt.Fprintf(sb, "Recommendations (%d)\n", len(recommendations))
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	for _, rec := range recommendations {
		fmt.Fprintf(sb, "  [%s] %s: %s\n", strings.ToUpper(rec.Priority.String()), displayName(rec.Category), rec.Title)
		if w.verbose {
			fmt.Fprintf(sb, "        %s\n", rec.Description)
			fmt.Fprintf(sb, "        -> %s\n", rec.Action)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeErrors(sb *strings.Builder, record *model.ScanRecord) {
	if len(record.Errors) == 0 {
		return
	}

	fmt.Fprintf(sb, "Step Errors (%d)\n", len(record.Errors))
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	for _, stepErr := range record.Errors {
		fmt.Fprintf(sb, "  %s: %s\n", stepErr.Step, stepErr.Message)
	}
	sb.WriteString("\n")
}
