package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/entitygen/internal/drift"
)

// MarkdownFormatter formats reports as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the reports in markdown format
func (f *MarkdownFormatter) Format(reports []drift.Report) error {
	_, _ = fmt.Fprintln(f.writer, "# Schema Drift")
	_, _ = fmt.Fprintln(f.writer)

	for _, r := range reports {
		f.FormatReport(r)
	}
	return nil
}

// FormatReport formats a single report (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatReport(r drift.Report) {
	_, _ = fmt.Fprintf(f.writer, "## %s → %s\n\n", r.Entity, r.Table)
	_, _ = fmt.Fprintf(f.writer, "Key column `%s`, delete flag `%s`.\n\n", r.KeyColumn, r.DeleteFlag)

	if !r.HasDrift() {
		_, _ = fmt.Fprintln(f.writer, "No drift.")
		_, _ = fmt.Fprintln(f.writer)
		return
	}

	blocking := r.Blocking()
	if len(blocking) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Blocking")
		_, _ = fmt.Fprintln(f.writer)
		for _, finding := range blocking {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", f.formatFinding(finding))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(blocking) < len(r.Findings) {
		_, _ = fmt.Fprintln(f.writer, "### Warnings")
		_, _ = fmt.Fprintln(f.writer)
		for _, finding := range r.Findings {
			if !finding.Blocking() {
				_, _ = fmt.Fprintf(f.writer, "- %s\n", f.formatFinding(finding))
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatFinding(finding drift.Finding) string {
	switch finding.Kind {
	case drift.MissingColumn:
		return fmt.Sprintf("**%s:** missing column (field type %s)", finding.Column, finding.Type)
	case drift.ExtraColumn:
		return fmt.Sprintf("**%s:** column not declared by the entity (%s)", finding.Column, finding.Type)
	case drift.MissingKey:
		return fmt.Sprintf("**%s:** key column missing", finding.Column)
	case drift.MissingFlag:
		return fmt.Sprintf("**%s:** delete flag column missing", finding.Column)
	case drift.KeyNotPrimaryKey:
		return fmt.Sprintf("**%s:** key column is not part of the primary key", finding.Column)
	default:
		return fmt.Sprintf("**%s:** %s", finding.Column, finding.Kind)
	}
}
