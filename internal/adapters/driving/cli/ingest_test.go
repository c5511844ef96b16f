package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [path]", ingestCmd.Use)
}

func TestIngestCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"template", "kind", "watch"} {
		assert.NotNil(t, ingestCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestIngestCmd_SingleFile(t *testing.T) {
	ts, cleanup := setupMockServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "notes.MD")
	require.NoError(t, os.WriteFile(path, []byte("# Notes"), 0o600))

	out, err := execute(t, "", "ingest", "--project", "p1", "--template", path)

	require.NoError(t, err)
	assert.Contains(t, out, "a.txt")
	assert.Equal(t, domain.FileUpload{
		ProjectID:  "p1",
		Filename:   "notes.MD",
		Content:    []byte("# Notes"),
		Kind:       "md",
		IsTemplate: true,
	}, ts.ingestion.gotUpload)
}

func TestIngestCmd_KindOverride(t *testing.T) {
	ts, cleanup := setupMockServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "README")
	require.NoError(t, os.WriteFile(path, []byte("readme"), 0o600))

	_, err := execute(t, "", "ingest", "-P", "p1", "--kind", "txt", path)

	require.NoError(t, err)
	assert.Equal(t, "txt", ts.ingestion.gotUpload.Kind)
}

func TestIngestCmd_FailedOutcomeIsError(t *testing.T) {
	ts, cleanup := setupMockServices()
	defer cleanup()
	ts.ingestion.outcome = domain.Failed("empty.txt", "no content extracted from file")

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	out, err := execute(t, "", "ingest", "-P", "p1", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content extracted from file")
	assert.Contains(t, out, "empty.txt")
}

func TestIngestCmd_Folder(t *testing.T) {
	ts, cleanup := setupMockServices()
	defer cleanup()

	dir := t.TempDir()
	first := domain.IngestOutcome{Status: domain.IngestCreated, Filename: "a.md", ChunksCreated: 1, VectorsCreated: 1}
	second := domain.IngestOutcome{Status: domain.IngestUnchanged, Filename: "b.md"}
	ts.ingestion.progress = []domain.IngestOutcome{first, second}
	ts.ingestion.folder = domain.FolderOutcome{Path: dir, Total: 2, Succeeded: 2, Unchanged: 1, Results: ts.ingestion.progress}

	out, err := execute(t, "", "ingest", "-P", "p1", dir)

	require.NoError(t, err)
	assert.Equal(t, domain.FolderRequest{ProjectID: "p1", Path: dir}, ts.ingestion.gotFolder)
	assert.Contains(t, out, "[1/2]")
	assert.Contains(t, out, "[2/2]")
	assert.Contains(t, out, "b.md (unchanged)")
	assert.Contains(t, out, "Ingested "+dir)
}

func TestIngestCmd_FolderWithFailures(t *testing.T) {
	ts, cleanup := setupMockServices()
	defer cleanup()
	ts.ingestion.folder = domain.FolderOutcome{Total: 3, Succeeded: 2, Failed: 1}

	_, err := execute(t, "", "ingest", "-P", "p1", t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")
}

func TestIngestCmd_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o600))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing path", []string{"ingest", "-P", "p1", filepath.Join(t.TempDir(), "nope")}, "failed to read"},
		{"watch on a file", []string{"ingest", "-P", "p1", "--watch", file}, "--watch requires a folder"},
		{"no project", []string{"ingest", file}, "project not set"},
		{"no args", []string{"ingest"}, "accepts 1 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()
			t.Setenv(EnvProject, "")

			_, err := execute(t, "", tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	ingestionService = nil

	_, err := execute(t, "", "ingest", "-P", "p1", t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion service not configured")
}

func TestAddTextCmd(t *testing.T) {
	t.Run("text argument", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		_, err := execute(t, "", "add-text", "-P", "p1", "--kind", "md", "notes", "Meeting moved to Friday.")

		require.NoError(t, err)
		assert.Equal(t, domain.TextUpload{
			ProjectID: "p1",
			Filename:  "notes",
			Text:      "Meeting moved to Friday.",
			Kind:      "md",
		}, ts.ingestion.gotText)
	})

	t.Run("standard input", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		_, err := execute(t, "line one\nline two\n", "add-text", "-P", "p1", "notes")

		require.NoError(t, err)
		assert.Equal(t, "line one\nline two", ts.ingestion.gotText.Text)
	})
}
