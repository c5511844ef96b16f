package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

func TestFilesListCmd(t *testing.T) {
	t.Run("lists files", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		out, err := execute(t, "", "files", "list", "-P", "p1")

		require.NoError(t, err)
		assert.Contains(t, out, "Files in p1")
		assert.Contains(t, out, "docs/plan.md")
		assert.Contains(t, out, "report.docx [template]")
		assert.Contains(t, out, "2026-03-01 09:30")
		assert.True(t, ts.knowledge.gotTemplates)
	})

	t.Run("excluding templates", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		_, err := execute(t, "", "files", "list", "-P", "p1", "--templates=false")

		require.NoError(t, err)
		assert.False(t, ts.knowledge.gotTemplates)
	})

	t.Run("no files", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()
		ts.knowledge.files = nil

		out, err := execute(t, "", "files", "-P", "p1")

		require.NoError(t, err)
		assert.Contains(t, out, "No files ingested.")
	})
}

func TestFilesShowCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "files", "show", "--text", "2")

	require.NoError(t, err)
	assert.Contains(t, out, "Filename:  docs/plan.md")
	assert.Contains(t, out, "# Plan")

	_, err = execute(t, "", "files", "show", "99")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFilesDeleteCmd(t *testing.T) {
	ts, cleanup := setupMockServices()
	defer cleanup()

	out, err := execute(t, "", "files", "delete", "7")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted file 7")
	assert.Equal(t, int64(7), ts.ingestion.gotDelete)
}

func TestParseFileID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseFileID(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjectDeleteCmd(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		out, err := execute(t, "y\n", "project", "delete", "-P", "p1")

		require.NoError(t, err)
		assert.Contains(t, out, "Deleted project p1")
		assert.Equal(t, "p1", ts.ingestion.gotProject)
	})

	t.Run("declined", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		out, err := execute(t, "n\n", "project", "delete", "-P", "p1")

		require.NoError(t, err)
		assert.Contains(t, out, "Cancelled.")
		assert.Empty(t, ts.ingestion.gotProject)
	})

	t.Run("forced", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		_, err := execute(t, "", "project", "delete", "-P", "p1", "--force")

		require.NoError(t, err)
		assert.Equal(t, "p1", ts.ingestion.gotProject)
	})
}

func TestSummaryCmd(t *testing.T) {
	t.Run("rendered", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()
		ts.knowledge.summary = &domain.ProjectSummary{
			ProjectID: "p1", TotalFiles: 2, TotalChunks: 5, Kinds: map[string]int{"md": 2},
		}

		out, err := execute(t, "", "summary", "-P", "p1")

		require.NoError(t, err)
		assert.Contains(t, out, "Project p1")
		assert.Contains(t, out, "md: 2")
	})

	t.Run("json", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "", "summary", "-P", "p1", "--json")

		require.NoError(t, err)
		assert.Contains(t, out, `"project_id": "p1"`)
	})

	t.Run("service error", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()
		ts.knowledge.err = errors.New("database locked")

		_, err := execute(t, "", "summary", "-P", "p1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "database locked")
	})
}

func TestReindexCmd(t *testing.T) {
	t.Run("reports vectors written", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()
		ts.ingestion.reindex = 14

		out, err := execute(t, "", "reindex", "-P", "p1")

		require.NoError(t, err)
		assert.Contains(t, out, "Reindexed p1: 14 vectors written")
	})

	t.Run("embedding unavailable", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()
		ts.ingestion.err = domain.ErrEmbeddingUnavailable

		_, err := execute(t, "", "reindex", "-P", "p1")

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}
