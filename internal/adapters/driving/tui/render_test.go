package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

func TestOutcomeLine(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.IngestOutcome
		want    []string
	}{
		{"created", created("a.txt"), []string{"✓ a.txt", "2 chunks, 2 vectors"}},
		{"unchanged", domain.IngestOutcome{Status: domain.IngestUnchanged, Filename: "b.txt"}, []string{"b.txt (unchanged)"}},
		{"text only", domain.IngestOutcome{Status: domain.IngestCreated, Filename: "c.txt", ChunksCreated: 3, TextOnly: true}, []string{"c.txt (3 chunks, text only)"}},
		{"failed", domain.Failed("d.txt", "read file: denied"), []string{"✗ d.txt", "read file: denied"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutcomeLine(nil, tt.outcome)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestRenderFolderOutcome(t *testing.T) {
	out := RenderFolderOutcome(nil, domain.FolderOutcome{
		Path: "/docs", Total: 3, Succeeded: 2, Unchanged: 1, Failed: 1,
		Results: []domain.IngestOutcome{created("a.txt"), domain.Failed("bad.pdf", "corrupt")},
	})

	assert.Contains(t, out, "Ingested /docs")
	assert.Contains(t, out, "Succeeded")
	assert.Contains(t, out, "bad.pdf")
	assert.NotContains(t, out, "a.txt")

	missing := RenderFolderOutcome(nil, domain.FolderOutcome{Path: "/nope", Err: "folder path does not exist"})
	assert.Contains(t, missing, "folder path does not exist")
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(nil, &domain.ProjectSummary{
		ProjectID:     "p1",
		TotalFiles:    3,
		TotalChunks:   7,
		TotalVectors:  7,
		TemplateFiles: 1,
		DataFiles:     2,
		Kinds:         map[string]int{"txt": 1, "md": 2},
	})

	assert.Contains(t, out, "Project p1")
	assert.Contains(t, out, "md: 2, txt: 1")
	assert.Contains(t, out, "Vectors")

	assert.Empty(t, RenderSummary(nil, nil))
}
