package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/websentry/websentry/internal/engine"
	"github.com/websentry/websentry/internal/model"
)

// MarkdownWriter outputs scan reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the scan record in Markdown format.
func (w *MarkdownWriter) Write(record *model.ScanRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, record)
	w.writeRiskSummary(md, record)
	w.writeDimensions(md, record)
	w.writeRecommendations(md, record)
	w.writeErrors(md, record)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, record *model.ScanRecord) {
	md.H1("Security Scan Report")
	md.PlainText("")

	endTime := "-"
	if record.EndTime != nil {
		endTime = record.EndTime.Format("2006-01-02 15:04:05 MST")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + record.TargetURL + "`"},
			{"Domain", "`" + record.Domain + "`"},
			{"Started", record.StartTime.Format("2006-01-02 15:04:05 MST")},
			{"Finished", endTime},
			{"Status", statusText(record)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell text for the header table.
func statusText(record *model.ScanRecord) string {
	switch record.Status {
	case model.StatusFailed:
		return "❌ Failed"
	case model.StatusCompleted:
		if len(record.Errors) > 0 {
			return "⚠️ Completed (partial results)"
		}
		return "✅ Completed"
	default:
		return fmt.Sprintf("⏳ %s (%d%%)", record.Status, record.Progress)
	}
}

// writeRiskSummary writes the aggregate risk section with a pass/warn/fail
// distribution chart and an alert matching the overall risk level.
func (w *MarkdownWriter) writeRiskSummary(md *markdown.Markdown, record *model.ScanRecord) {
	md.H2("Risk Summary")
	md.PlainText("")

	summary := engine.ComputeSummary(record.Results)

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Risk Score", fmt.Sprintf("%.1f / 100", record.RiskScore)},
			{"Risk Level", riskLevelText(record.RiskLevel)},
			{"Checks Passed", strconv.Itoa(summary.PassedChecks)},
			{"Warnings", strconv.Itoa(summary.Warnings)},
			{"Checks Failed", strconv.Itoa(summary.FailedChecks)},
		},
	})
	md.PlainText("")

	if summary.TotalChecks > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, record)
}

// riskLevelText returns the decorated risk level label.
func riskLevelText(level model.RiskLevel) string {
	switch level {
	case model.RiskLow:
		return "🟢 Low"
	case model.RiskMedium:
		return "🟡 Medium"
	case model.RiskHigh:
		return "🟠 High"
	case model.RiskCritical:
		return "🔴 Critical"
	default:
		return "⚪ Unknown"
	}
}

// writePieChart writes a mermaid pie chart of check outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Check Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if summary.PassedChecks > 0 {
		chart.LabelAndIntValue("Passed", uint64(summary.PassedChecks))
	}
	if summary.Warnings > 0 {
		chart.LabelAndIntValue("Warnings", uint64(summary.Warnings))
	}
	if summary.FailedChecks > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.FailedChecks))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the overall risk level.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, record *model.ScanRecord) {
	switch record.RiskLevel {
	case model.RiskCritical:
		md.Cautionf(
			"Critical risk (score %.1f). Immediate remediation is required.",
			record.RiskScore,
		)
	case model.RiskHigh:
		md.Warningf(
			"High risk (score %.1f). Significant weaknesses should be addressed soon.",
			record.RiskScore,
		)
	case model.RiskMedium:
		md.Importantf(
			"Medium risk (score %.1f). Several hardening opportunities remain.",
			record.RiskScore,
		)
	case model.RiskLow:
		md.Tipf(
			"Low risk (score %.1f). The target's security posture looks solid.",
			record.RiskScore,
		)
	default:
		md.Note("No dimension produced a score; risk level is unknown.")
	}
	md.PlainText("")
}

// writeDimensions writes the per-dimension result table.
func (w *MarkdownWriter) writeDimensions(md *markdown.Markdown, record *model.ScanRecord) {
	md.H2("Dimension Results")
	md.PlainText("")

	var rows [][]string
	for _, name := range orderedDimensions(record) {
		result := record.Results[name]
		if result == nil {
			rows = append(rows, []string{displayName(name), "-", "-", "not run"})
			continue
		}
		state := "ok"
		if result.Degraded() {
			state = "error: " + result.Error
		}
		rows = append(rows, []string{
			displayName(name),
			strconv.Itoa(result.Score),
			result.Grade,
			state,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Dimension", "Score", "Grade", "State"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeRecommendations writes the compiled recommendation tables grouped
// by priority.
func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, record *model.ScanRecord) {
	md.H2("Recommendations")
	md.PlainText("")

	recommendations := record.Recommendations
	if len(recommendations) == 0 {
		recommendations = engine.CompileRecommendations(record.Results)
	}
	if len(recommendations) == 0 {
		md.PlainText("No recommendations. All checks passed cleanly.")
		md.PlainText("")
		return
	}

	priorities := []struct {
		level  model.Priority
		header string
	}{
		{model.PriorityCritical, "### 🔴 Critical"},
		{model.PriorityHigh, "### 🟠 High"},
		{model.PriorityMedium, "### 🟡 Medium"},
		{model.PriorityLow, "### 🔵 Low"},
		{model.PriorityUnranked, "### ⚪ Unranked"},
	}

	for _, p := range priorities {
		var rows [][]string
		for _, rec := range recommendations {
			if rec.Priority != p.level {
				continue
			}
			rows = append(rows, []string{
				displayName(rec.Category),
				rec.Title,
				rec.Action,
			})
		}
		if len(rows) == 0 {
			continue
		}

		md.PlainText(p.header)
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Category", "Recommendation", "Action"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeErrors writes the step error section when any step failed.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, record *model.ScanRecord) {
	if len(record.Errors) == 0 {
		return
	}

	md.H2("Step Errors")
	md.PlainText("")

	rows := make([][]string, 0, len(record.Errors))
	for _, stepErr := range record.Errors {
		rows = append(rows, []string{
			stepErr.Step,
			stepErr.Message,
			stepErr.Timestamp.Format("15:04:05 MST"),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Step", "Error", "Time"},
		Rows:   rows,
	})
	md.PlainText("")
}
