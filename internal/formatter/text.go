// Package formatter renders drift reports.
package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/entitygen/internal/drift"
)

// TextFormatter formats reports as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the reports in compact text format
func (f *TextFormatter) Format(reports []drift.Report) error {
	for i, r := range reports {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		f.formatReport(r)
	}
	return nil
}

func (f *TextFormatter) formatReport(r drift.Report) {
	_, _ = fmt.Fprintf(f.writer, "TABLE %s (entity %s, key %s, flag %s)\n", r.Table, r.Entity, r.KeyColumn, r.DeleteFlag)

	if !r.HasDrift() {
		_, _ = fmt.Fprintln(f.writer, "  OK")
		return
	}
	for _, finding := range r.Findings {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", formatFinding(finding))
	}
}

func formatFinding(finding drift.Finding) string {
	switch finding.Kind {
	case drift.MissingColumn:
		return fmt.Sprintf("MISSING %s: %s", finding.Column, finding.Type)
	case drift.ExtraColumn:
		return fmt.Sprintf("EXTRA %s: %s", finding.Column, finding.Type)
	case drift.MissingKey:
		return fmt.Sprintf("MISSING KEY %s", finding.Column)
	case drift.MissingFlag:
		return fmt.Sprintf("MISSING DELETE FLAG %s", finding.Column)
	case drift.KeyNotPrimaryKey:
		return fmt.Sprintf("KEY %s NOT IN PRIMARY KEY", finding.Column)
	default:
		return fmt.Sprintf("%s %s", finding.Kind, finding.Column)
	}
}
