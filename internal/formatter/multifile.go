package formatter

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/tordrt/entitygen/internal/drift"
	"github.com/tordrt/entitygen/internal/writer"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
)

// Formats returns the supported report formats
func Formats() []string {
	return []string{formatMarkdown, formatText}
}

// MultiFileFormatter writes one report file per entity plus an overview
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"

	writer *writer.Writer
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
		writer:       writer.New(),
	}
}

// Format writes the reports to the output directory
func (f *MultiFileFormatter) Format(reports []drift.Report) error {
	if err := f.writeOverview(reports); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, r := range reports {
		if err := f.writeReportFile(r); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", r.Entity, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeOverview(reports []drift.Report) error {
	sorted := make([]drift.Report, len(reports))
	copy(sorted, reports)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Entity < sorted[j].Entity
	})

	var buf bytes.Buffer
	if f.OutputFormat == formatMarkdown {
		_, _ = fmt.Fprintf(&buf, "# Drift Overview\n\n")
		_, _ = fmt.Fprintf(&buf, "Each entity has a corresponding file: `<entity>%s`\n\n", f.getFileExtension())
		for _, r := range sorted {
			_, _ = fmt.Fprintf(&buf, "- **%s** → %s: %s\n", r.Entity, r.Table, summary(r))
		}
	} else {
		_, _ = fmt.Fprintf(&buf, "DRIFT OVERVIEW\n")
		_, _ = fmt.Fprintf(&buf, "Each entity has a file: <entity>%s\n\n", f.getFileExtension())
		for _, r := range sorted {
			_, _ = fmt.Fprintf(&buf, "%s -> %s: %s\n", r.Entity, r.Table, summary(r))
		}
	}

	return f.writer.WriteFile(filepath.Join(f.OutputDir, "_overview"+f.getFileExtension()), buf.Bytes())
}

func (f *MultiFileFormatter) writeReportFile(r drift.Report) error {
	var buf bytes.Buffer
	if f.OutputFormat == formatMarkdown {
		NewMarkdownFormatter(&buf).FormatReport(r)
	} else {
		NewTextFormatter(&buf).formatReport(r)
	}
	return f.writer.WriteFile(filepath.Join(f.OutputDir, r.Entity+f.getFileExtension()), buf.Bytes())
}

func summary(r drift.Report) string {
	if !r.HasDrift() {
		return "ok"
	}
	return fmt.Sprintf("%d findings, %d blocking", len(r.Findings), len(r.Blocking()))
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".txt"
}

// Format writes reports to w in the named format
func Format(w io.Writer, format string, reports []drift.Report) error {
	switch format {
	case formatMarkdown:
		return NewMarkdownFormatter(w).Format(reports)
	case formatText, "":
		return NewTextFormatter(w).Format(reports)
	default:
		return fmt.Errorf("unsupported format %q (must be text or markdown)", format)
	}
}
