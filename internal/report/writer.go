package report

import (
	"io"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/websentry/websentry/internal/analyzer"
	"github.com/websentry/websentry/internal/model"
)

// Writer defines the interface for report output.
// Implementations render scan records in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write renders the scan record to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(record *model.ScanRecord) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write scan records, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the record to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(record *model.ScanRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(record)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// dimensionDisplayNames maps dimension keys to the labels reports use.
var dimensionDisplayNames = map[string]string{
	"ssl":     "SSL/TLS",
	"headers": "Security Headers",
	"tech":    "Technology Stack",
	"malware": "Malware Reputation",
	"ports":   "Open Ports",
	"whois":   "Domain Registration",
}

// titleCaser renders fallback labels for keys outside the fixed dimension
// set, such as recommendation categories added by future analyzers.
var titleCaser = cases.Title(language.English)

// displayName returns the human-readable label for a dimension or
// recommendation category key.
func displayName(key string) string {
	if name, ok := dimensionDisplayNames[key]; ok {
		return name
	}
	return titleCaser.String(key)
}

// orderedDimensions returns the record's dimension keys in pipeline order,
// with any unknown keys appended alphabetically after the known set.
func orderedDimensions(record *model.ScanRecord) []string {
	known := analyzer.DimensionNames()
	ordered := make([]string, 0, len(record.Results))
	seen := make(map[string]struct{}, len(known))
	for _, name := range known {
		if _, ok := record.Results[name]; ok {
			ordered = append(ordered, name)
			seen[name] = struct{}{}
		}
	}

	var extra []string
	for name := range record.Results {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}
