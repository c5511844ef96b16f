package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/projectrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// OutcomeLine renders one file result as a single line.
func OutcomeLine(s *styles.Styles, o domain.IngestOutcome) string {
	if s == nil {
		s = styles.DefaultStyles()
	}

	switch {
	case o.Status == domain.IngestFailed:
		return s.Error.Render("✗ "+o.Filename) + s.Muted.Render(": "+o.Reason)
	case o.Status == domain.IngestUnchanged:
		return s.Muted.Render("= " + o.Filename + " (unchanged)")
	case o.TextOnly:
		return s.Warning.Render(fmt.Sprintf("! %s (%d chunks, text only)", o.Filename, o.ChunksCreated))
	default:
		return s.Success.Render("✓ "+o.Filename) +
			s.Muted.Render(fmt.Sprintf(" (%d chunks, %d vectors)", o.ChunksCreated, o.VectorsCreated))
	}
}

// RenderFolderOutcome renders the totals of a folder ingestion followed by
// its failed files.
func RenderFolderOutcome(s *styles.Styles, o domain.FolderOutcome) string {
	if s == nil {
		s = styles.DefaultStyles()
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("Ingested " + o.Path))
	b.WriteString("\n")

	if o.Err != "" {
		b.WriteString(s.Error.Render("Error: " + o.Err))
		b.WriteString("\n")
	}

	b.WriteString(row(s, "Files", fmt.Sprintf("%d", o.Total)))
	b.WriteString(row(s, "Succeeded", s.Success.Render(fmt.Sprintf("%d", o.Succeeded))))
	b.WriteString(row(s, "Unchanged", fmt.Sprintf("%d", o.Unchanged)))
	failed := fmt.Sprintf("%d", o.Failed)
	if o.Failed > 0 {
		failed = s.Error.Render(failed)
	}
	b.WriteString(row(s, "Failed", failed))

	for _, r := range o.Results {
		if r.Status == domain.IngestFailed {
			b.WriteString("  ")
			b.WriteString(OutcomeLine(s, r))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderSummary renders a project's knowledge base counts in a box.
func RenderSummary(s *styles.Styles, summary *domain.ProjectSummary) string {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if summary == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("Project " + summary.ProjectID))
	b.WriteString("\n")
	b.WriteString(row(s, "Files", fmt.Sprintf("%d", summary.TotalFiles)))
	b.WriteString(row(s, "Data files", fmt.Sprintf("%d", summary.DataFiles)))
	b.WriteString(row(s, "Templates", fmt.Sprintf("%d", summary.TemplateFiles)))
	b.WriteString(row(s, "Chunks", fmt.Sprintf("%d", summary.TotalChunks)))
	b.WriteString(row(s, "Vectors", fmt.Sprintf("%d", summary.TotalVectors)))

	if len(summary.Kinds) > 0 {
		kinds := make([]string, 0, len(summary.Kinds))
		for k := range summary.Kinds {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)

		parts := make([]string, 0, len(kinds))
		for _, k := range kinds {
			parts = append(parts, fmt.Sprintf("%s: %d", k, summary.Kinds[k]))
		}
		b.WriteString(row(s, "Kinds", strings.Join(parts, ", ")))
	}

	return s.Box.Render(strings.TrimRight(b.String(), "\n"))
}

func row(s *styles.Styles, label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(label), value) + "\n"
}
