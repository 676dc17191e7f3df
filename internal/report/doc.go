// Package report renders finished scan records for output.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for documentation and sharing
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. Rendering reads
// only the scan record; no analyzer is re-run to produce a report.
package report
