package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projectrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/extractors"
	"github.com/custodia-labs/projectrag/internal/postprocessors/chunker"
	"github.com/custodia-labs/projectrag/internal/walker"
)

const testProject = "proj-1"

var longText = strings.Repeat("The quarterly revenue grew in the northern region. ", 12)

func upload(name, content string) domain.FileUpload {
	return domain.FileUpload{ProjectID: testProject, Filename: name, Content: []byte(content)}
}

func TestIngestionService_IngestFile_Created(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	outcome := env.ingestion.IngestFile(ctx, upload("report.txt", longText))

	require.Equal(t, domain.IngestCreated, outcome.Status, outcome.Reason)
	assert.NotZero(t, outcome.FileID)
	assert.Equal(t, "report.txt", outcome.Filename)
	assert.Equal(t, "txt", outcome.Kind)
	assert.Greater(t, outcome.ChunksCreated, 1)
	assert.Equal(t, outcome.ChunksCreated, outcome.VectorsCreated)
	assert.False(t, outcome.TextOnly)
	assert.Contains(t, outcome.Preview, "quarterly revenue")
	assert.LessOrEqual(t, len([]rune(outcome.Preview)), 200)

	chunks, err := env.content.Chunks(ctx, outcome.FileID)
	require.NoError(t, err)
	require.Len(t, chunks, outcome.ChunksCreated)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}

	count, err := env.vectors.Count(ctx, testProject)
	require.NoError(t, err)
	assert.Equal(t, outcome.VectorsCreated, count)
}

func TestIngestionService_IngestFile_KindFromFilenameAndExtractor(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	outcome := env.ingestion.IngestFile(ctx, upload("README.MD", "# Heading\n\nBody text"))
	require.Equal(t, domain.IngestCreated, outcome.Status, outcome.Reason)
	assert.Equal(t, "md", outcome.Kind)

	file, err := env.content.GetFile(ctx, outcome.FileID)
	require.NoError(t, err)
	assert.Equal(t, "Heading\n\nBody text", file.RawText)
}

func TestIngestionService_IngestFile_Unchanged(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	first := env.ingestion.IngestFile(ctx, upload("notes.txt", longText))
	require.Equal(t, domain.IngestCreated, first.Status)
	before, err := env.vectors.Count(ctx, testProject)
	require.NoError(t, err)

	second := env.ingestion.IngestFile(ctx, upload("notes.txt", longText))

	assert.Equal(t, domain.IngestUnchanged, second.Status)
	assert.True(t, second.Status.Succeeded())
	assert.Equal(t, first.FileID, second.FileID)
	assert.Zero(t, second.ChunksCreated)
	assert.Equal(t, reasonUnchanged, second.Reason)

	after, err := env.vectors.Count(ctx, testProject)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIngestionService_IngestFile_NewVersionSupersedes(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	first := env.ingestion.IngestFile(ctx, upload("plan.txt", "budget approved for marketing"))
	second := env.ingestion.IngestFile(ctx, upload("plan.txt", "budget rejected for marketing"))
	require.Equal(t, domain.IngestCreated, second.Status)
	assert.Greater(t, second.FileID, first.FileID)

	files, err := env.content.ListFiles(ctx, testProject, false)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	results, err := env.retrieval.Search(ctx, testProject, "budget marketing", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, second.FileID, results[0].SourceFileID)
}

func TestIngestionService_IngestFile_RevertedContentBecomesCurrent(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	approved := env.ingestion.IngestFile(ctx, upload("plan.txt", "budget approved for marketing"))
	rejected := env.ingestion.IngestFile(ctx, upload("plan.txt", "budget rejected for marketing"))
	reverted := env.ingestion.IngestFile(ctx, upload("plan.txt", "budget approved for marketing"))

	require.Equal(t, domain.IngestCreated, approved.Status)
	require.Equal(t, domain.IngestCreated, rejected.Status)
	require.Equal(t, domain.IngestUnchanged, reverted.Status)
	assert.Equal(t, approved.FileID, reverted.FileID)

	results, err := env.retrieval.Search(ctx, testProject, "budget marketing", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, approved.FileID, results[0].SourceFileID)
	assert.Equal(t, "budget approved for marketing", results[0].Text)

	files, err := env.content.ListFiles(ctx, testProject, false)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, approved.FileID, files[0].ID, "most recent upload first")
}

func TestIngestionService_IngestFile_DefaultChunking(t *testing.T) {
	store := memory.NewStore()
	content, vectors := store.ContentStore(), store.VectorIndex()
	ingestion := NewIngestionService(extractors.NewDefaultRegistry(), chunker.MustNew(),
		content, vectors, newMockEmbeddingService(nil))
	ctx := context.Background()

	lorem := "Lorem ipsum dolor sit amet, consectetur adipiscing elit. " +
		"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. "
	text := strings.Repeat(lorem, 21)[:2500]

	outcome := ingestion.IngestFile(ctx, upload("spec.txt", text))
	require.Equal(t, domain.IngestCreated, outcome.Status, outcome.Reason)
	assert.Equal(t, 3, outcome.ChunksCreated)
	assert.Equal(t, 3, outcome.VectorsCreated)

	chunks, err := content.Chunks(ctx, outcome.FileID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, len([]rune(c.Text)), chunker.DefaultChunkSize)
		assert.Contains(t, text, c.Text)
	}

	again := ingestion.IngestFile(ctx, upload("spec.txt", text))
	assert.Equal(t, domain.IngestUnchanged, again.Status)
	assert.Equal(t, outcome.FileID, again.FileID)

	stats, err := content.Stats(ctx, testProject)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 3, stats.TotalVectors)
}

func TestIngestionService_IngestFile_TextOnlyVersionSupersedes(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()
	textOnly := NewIngestionService(extractors.NewDefaultRegistry(),
		chunker.MustNew(chunker.WithChunkSize(120), chunker.WithOverlap(20)),
		env.content, env.vectors, nil)

	first := env.ingestion.IngestFile(ctx, upload("plan.txt", "budget approved for marketing"))
	require.Equal(t, 1, first.VectorsCreated)
	second := textOnly.IngestFile(ctx, upload("plan.txt", "budget rejected for marketing"))
	require.True(t, second.TextOnly)

	results, err := env.retrieval.Search(ctx, testProject, "budget marketing", 10)
	require.NoError(t, err)
	assert.Empty(t, results, "older embedded version stays superseded")

	written, err := env.ingestion.Reindex(ctx, testProject)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	results, err = env.retrieval.Search(ctx, testProject, "budget marketing", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, second.FileID, results[0].SourceFileID)
}

func TestIngestionService_IngestFile_Failures(t *testing.T) {
	tests := []struct {
		name       string
		upload     domain.FileUpload
		wantReason string
	}{
		{"empty content", upload("empty.txt", ""), reasonNoContent},
		{"whitespace content", upload("blank.txt", " \n\t "), reasonNoContent},
		{"missing project", domain.FileUpload{Filename: "a.txt", Content: []byte("x")}, "project id is required"},
		{"missing filename", domain.FileUpload{ProjectID: testProject, Content: []byte("x")}, "filename is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(newMockEmbeddingService(nil))

			outcome := env.ingestion.IngestFile(context.Background(), tt.upload)

			assert.Equal(t, domain.IngestFailed, outcome.Status)
			assert.Equal(t, tt.wantReason, outcome.Reason)
			assert.Zero(t, outcome.FileID)
		})
	}
}

func TestIngestionService_IngestFile_UnsupportedBinaryStoresPlaceholder(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))

	outcome := env.ingestion.IngestFile(context.Background(), upload("logo.bin", "\x00\x01\x02\x03binary"))

	require.Equal(t, domain.IngestCreated, outcome.Status, outcome.Reason)
	assert.Contains(t, outcome.Preview, "binary file")
}

func TestIngestionService_IngestFile_TextOnly(t *testing.T) {
	tests := []struct {
		name       string
		embedder   *mockEmbeddingService
		wantReason string
	}{
		{"no provider", nil, reasonNoEmbedding},
		{"provider unavailable", newMockEmbeddingService(domain.ErrEmbeddingUnavailable), "embedding service unavailable"},
		{"provider error", newMockEmbeddingService(domain.ErrDimensionMismatch), "dimension mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(nil)
			if tt.embedder != nil {
				env = newTestEnv(tt.embedder)
			}
			ctx := context.Background()

			outcome := env.ingestion.IngestFile(ctx, upload("doc.txt", longText))

			require.Equal(t, domain.IngestCreated, outcome.Status)
			assert.True(t, outcome.TextOnly)
			assert.Contains(t, outcome.Reason, tt.wantReason)
			assert.Positive(t, outcome.ChunksCreated)
			assert.Zero(t, outcome.VectorsCreated)

			chunks, err := env.content.Chunks(ctx, outcome.FileID)
			require.NoError(t, err)
			assert.Len(t, chunks, outcome.ChunksCreated)
		})
	}
}

func TestIngestionService_IngestFile_VectorFailureRollsBack(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	ingestion := NewIngestionService(
		extractors.NewDefaultRegistry(),
		chunker.MustNew(),
		env.content,
		&failingVectorIndex{VectorIndex: env.vectors, err: errors.New("disk full")},
		newMockEmbeddingService(nil),
	)

	outcome := ingestion.IngestFile(ctx, upload("a.txt", "some text"))

	assert.Equal(t, domain.IngestFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, "disk full")

	files, err := env.content.ListFiles(ctx, testProject, true)
	require.NoError(t, err)
	assert.Empty(t, files)

	// A retry is not treated as unchanged.
	retry := env.ingestion.IngestFile(ctx, upload("a.txt", "some text"))
	assert.Equal(t, domain.IngestCreated, retry.Status)
}

func TestIngestionService_IngestFile_ConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	const workers = 8
	outcomes := make([]domain.IngestOutcome, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = env.ingestion.IngestFile(ctx, upload("same.txt", longText))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, o := range outcomes {
		require.True(t, o.Status.Succeeded(), o.Reason)
		if o.Status == domain.IngestCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)

	files, err := env.content.ListFiles(ctx, testProject, true)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestIngestionService_IngestText(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	outcome := env.ingestion.IngestText(ctx, domain.TextUpload{
		ProjectID:  testProject,
		Filename:   "meeting notes",
		Text:       "Decided to ship the beta in March.",
		IsTemplate: true,
	})

	require.Equal(t, domain.IngestCreated, outcome.Status, outcome.Reason)
	assert.Equal(t, "txt", outcome.Kind)
	assert.Equal(t, 1, outcome.VectorsCreated)

	file, err := env.content.GetFile(ctx, outcome.FileID)
	require.NoError(t, err)
	assert.True(t, file.IsTemplate)
	assert.Equal(t, "Decided to ship the beta in March.", file.RawText)

	empty := env.ingestion.IngestText(ctx, domain.TextUpload{ProjectID: testProject, Filename: "x", Text: ""})
	assert.Equal(t, domain.IngestFailed, empty.Status)
	assert.Equal(t, reasonNoContent, empty.Reason)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestIngestionService_IngestFolder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":            "alpha content",
		"docs/b.md":        "# Beta\n\nbeta content",
		"docs/empty.txt":   "",
		".hidden.txt":      "hidden",
		".cache/c.txt":     "cached",
		"skip/ignored.txt": "ignored",
		".ragignore":       "skip/\n",
	})

	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	var calls []int
	outcome := env.ingestion.IngestFolder(ctx, domain.FolderRequest{ProjectID: testProject, Path: root},
		func(done, total int, _ domain.IngestOutcome) {
			assert.Equal(t, 3, total)
			calls = append(calls, done)
		})

	assert.Empty(t, outcome.Err)
	assert.Equal(t, 3, outcome.Total)
	assert.Equal(t, 2, outcome.Succeeded)
	assert.Equal(t, 1, outcome.Failed)
	assert.Equal(t, 0, outcome.Unchanged)
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.False(t, outcome.OK())

	names := make([]string, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		names = append(names, r.Filename)
	}
	assert.Equal(t, []string{"a.txt", "docs/b.md", "docs/empty.txt"}, names)
	assert.Equal(t, reasonNoContent, outcome.Results[2].Reason)

	// Ingesting again reports the unchanged files as successes.
	again := env.ingestion.IngestFolder(ctx, domain.FolderRequest{ProjectID: testProject, Path: root}, nil)
	assert.Equal(t, 2, again.Succeeded)
	assert.Equal(t, 2, again.Unchanged)
	assert.Equal(t, again.Total, again.Succeeded+again.Failed)
}

func TestIngestionService_IngestFolder_Templates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"tpl.txt": "template body"})

	env := newTestEnv(nil)
	ctx := context.Background()

	outcome := env.ingestion.IngestFolder(ctx, domain.FolderRequest{ProjectID: testProject, Path: root, IsTemplate: true}, nil)
	require.True(t, outcome.OK())

	files, err := env.content.ListFiles(ctx, testProject, false)
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = env.content.ListFiles(ctx, testProject, true)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].IsTemplate)
}

func TestIngestionService_IngestFolder_Errors(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()

	missing := env.ingestion.IngestFolder(ctx, domain.FolderRequest{ProjectID: testProject, Path: filepath.Join(t.TempDir(), "nope")}, nil)
	assert.Equal(t, "folder path does not exist", missing.Err)
	assert.Zero(t, missing.Total)

	noProject := env.ingestion.IngestFolder(ctx, domain.FolderRequest{Path: t.TempDir()}, nil)
	assert.NotEmpty(t, noProject.Err)
}

func TestIngestionService_IngestFolder_CustomWalker(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".ragignore": "*.txt\n",
		"a.txt":      "alpha",
	})

	env := newTestEnv(nil)
	ingestion := NewIngestionService(extractors.NewDefaultRegistry(), chunker.MustNew(), env.content, env.vectors, nil,
		WithWalker(walker.New(walker.WithIgnoreFile(""))))

	outcome := ingestion.IngestFolder(context.Background(), domain.FolderRequest{ProjectID: testProject, Path: root}, nil)
	assert.Equal(t, 1, outcome.Succeeded)
}

func TestIngestionService_Reindex(t *testing.T) {
	textOnly := newTestEnv(nil)
	ctx := context.Background()

	old := textOnly.ingestion.IngestFile(ctx, upload("a.txt", "first draft of the proposal"))
	latest := textOnly.ingestion.IngestFile(ctx, upload("a.txt", longText))
	other := textOnly.ingestion.IngestFile(ctx, upload("b.txt", "shipping schedule"))
	require.True(t, latest.TextOnly)

	_, err := textOnly.ingestion.Reindex(ctx, testProject)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	embedder := newMockEmbeddingService(nil)
	ingestion := NewIngestionService(extractors.NewDefaultRegistry(), chunker.MustNew(),
		textOnly.content, textOnly.vectors, embedder)

	written, err := ingestion.Reindex(ctx, testProject)
	require.NoError(t, err)
	assert.Equal(t, latest.ChunksCreated+other.ChunksCreated, written)

	count, err := textOnly.vectors.Count(ctx, testProject)
	require.NoError(t, err)
	assert.Equal(t, written, count)

	// Fully indexed files are skipped on a second run.
	calls := embedder.calls
	again, err := ingestion.Reindex(ctx, testProject)
	require.NoError(t, err)
	assert.Zero(t, again)
	assert.Equal(t, calls, embedder.calls)
	count, err = textOnly.vectors.Count(ctx, testProject)
	require.NoError(t, err)
	assert.Equal(t, written, count)
	assert.NotZero(t, old.FileID)
}

func TestIngestionService_Reindex_CompletesPartialVectors(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()

	outcome := env.ingestion.IngestFile(ctx, upload("a.txt", longText))
	require.True(t, outcome.TextOnly)
	require.Greater(t, outcome.ChunksCreated, 1)

	embedder := newMockEmbeddingService(nil)
	model := domain.ModelTag(embedder.ModelName(), embedder.Dimensions())
	partial, err := embedder.Embed(ctx, "stale")
	require.NoError(t, err)
	require.NoError(t, env.vectors.Put(ctx, domain.Vector{
		SourceFileID: outcome.FileID,
		ChunkIndex:   0,
		Text:         "stale",
		Embedding:    partial,
		Model:        model,
	}))

	ingestion := NewIngestionService(extractors.NewDefaultRegistry(),
		chunker.MustNew(chunker.WithChunkSize(120), chunker.WithOverlap(20)),
		env.content, env.vectors, embedder)

	written, err := ingestion.Reindex(ctx, testProject)
	require.NoError(t, err)
	assert.Equal(t, outcome.ChunksCreated, written)

	count, err := env.vectors.CountByFile(ctx, outcome.FileID, model)
	require.NoError(t, err)
	assert.Equal(t, outcome.ChunksCreated, count)
}

func TestIngestionService_DeleteFile(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	outcome := env.ingestion.IngestFile(ctx, upload("a.txt", longText))
	require.NoError(t, env.ingestion.DeleteFile(ctx, outcome.FileID))

	_, err := env.content.GetFile(ctx, outcome.FileID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := env.vectors.Count(ctx, testProject)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, env.ingestion.DeleteFile(ctx, outcome.FileID), domain.ErrNotFound)
}

func TestIngestionService_DeleteProject(t *testing.T) {
	env := newTestEnv(newMockEmbeddingService(nil))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		env.ingestion.IngestFile(ctx, upload(fmt.Sprintf("f%d.txt", i), longText+fmt.Sprint(i)))
	}
	env.ingestion.IngestFile(ctx, domain.FileUpload{ProjectID: "other", Filename: "keep.txt", Content: []byte("keep me")})

	require.NoError(t, env.ingestion.DeleteProject(ctx, testProject))

	files, err := env.content.ListFiles(ctx, testProject, true)
	require.NoError(t, err)
	assert.Empty(t, files)

	kept, err := env.content.ListFiles(ctx, "other", true)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.ErrorIs(t, env.ingestion.DeleteProject(ctx, ""), domain.ErrInvalidInput)
}
