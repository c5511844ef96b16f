package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
	"github.com/custodia-labs/projectrag/internal/logger"
	"github.com/custodia-labs/projectrag/internal/walker"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// Failure reasons reported in outcomes.
const (
	reasonNoContent     = "no content extracted from file"
	reasonUnchanged     = "identical content already ingested"
	reasonNoEmbedding   = "embedding provider not configured, stored text only"
	defaultTextFileKind = "txt"
)

// IngestionService extracts, chunks, embeds and stores project files.
type IngestionService struct {
	extractors       driven.ExtractorRegistry
	chunker          driven.Chunker
	contentStore     driven.ContentStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	walker           *walker.Walker

	locks *keyedMutex
}

// IngestionOption configures the ingestion service.
type IngestionOption func(*IngestionService)

// WithWalker sets the walker used by IngestFolder.
func WithWalker(w *walker.Walker) IngestionOption {
	return func(s *IngestionService) {
		if w != nil {
			s.walker = w
		}
	}
}

// NewIngestionService creates a new ingestion service.
// embeddingService is optional - if nil, files are stored as text only.
func NewIngestionService(
	extractors driven.ExtractorRegistry,
	chunker driven.Chunker,
	contentStore driven.ContentStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	opts ...IngestionOption,
) *IngestionService {
	s := &IngestionService{
		extractors:       extractors,
		chunker:          chunker,
		contentStore:     contentStore,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		walker:           walker.New(),
		locks:            newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestFile extracts, deduplicates, chunks, embeds and stores one file.
func (s *IngestionService) IngestFile(ctx context.Context, upload domain.FileUpload) domain.IngestOutcome {
	if reason := validateTarget(upload.ProjectID, upload.Filename); reason != "" {
		return domain.Failed(upload.Filename, reason)
	}
	if upload.Content == nil {
		upload.Content = []byte{}
	}

	kind := upload.Kind
	if kind == "" {
		kind = domain.KindFromFilename(upload.Filename)
	}
	kind = domain.NormaliseKind(kind)

	text := s.extractors.Extract(ctx, &domain.RawFile{
		Filename: upload.Filename,
		Kind:     kind,
		Content:  upload.Content,
	})

	return s.store(ctx, domain.NewSourceFile{
		ProjectID:  upload.ProjectID,
		Filename:   upload.Filename,
		Kind:       kind,
		RawText:    text,
		IsTemplate: upload.IsTemplate,
	})
}

// IngestText stores already-extracted text as a file version.
func (s *IngestionService) IngestText(ctx context.Context, upload domain.TextUpload) domain.IngestOutcome {
	if reason := validateTarget(upload.ProjectID, upload.Filename); reason != "" {
		return domain.Failed(upload.Filename, reason)
	}

	kind := upload.Kind
	if kind == "" {
		kind = domain.KindFromFilename(upload.Filename)
		if kind == domain.KindUnknown {
			kind = defaultTextFileKind
		}
	}

	return s.store(ctx, domain.NewSourceFile{
		ProjectID:  upload.ProjectID,
		Filename:   upload.Filename,
		Kind:       domain.NormaliseKind(kind),
		RawText:    upload.Text,
		IsTemplate: upload.IsTemplate,
	})
}

// IngestFolder ingests every eligible file under a folder recursively.
// Files are named by their slash-separated path relative to the folder.
func (s *IngestionService) IngestFolder(
	ctx context.Context,
	req domain.FolderRequest,
	progress driving.ProgressFunc,
) domain.FolderOutcome {
	outcome := domain.FolderOutcome{Path: req.Path}

	if req.ProjectID == "" {
		outcome.Err = "project id is required"
		return outcome
	}

	files, err := s.walker.Files(ctx, req.Path)
	if err != nil {
		if errors.Is(err, domain.ErrFolderNotFound) {
			outcome.Err = domain.ErrFolderNotFound.Error()
		} else {
			outcome.Err = err.Error()
		}
		return outcome
	}

	logger.Section("Ingest folder")
	logger.Info("Ingesting %d files from %s into %s", len(files), req.Path, req.ProjectID)
	defer logger.Elapsed("ingest folder", time.Now())

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			outcome.Err = err.Error()
			break
		}

		o := s.ingestPath(ctx, req, path)
		outcome.Add(o)

		if o.Status == domain.IngestFailed {
			logger.Warn("%s: %s", o.Filename, o.Reason)
		}
		if progress != nil {
			progress(outcome.Total, len(files), o)
		}
	}

	logger.Info("Folder done: %d succeeded (%d unchanged), %d failed",
		outcome.Succeeded, outcome.Unchanged, outcome.Failed)
	return outcome
}

// IngestPath ingests one file from disk, named relative to root.
// It is used by watch mode for files below an ingested folder.
func (s *IngestionService) IngestPath(ctx context.Context, req domain.FolderRequest, path string) domain.IngestOutcome {
	return s.ingestPath(ctx, req, path)
}

func (s *IngestionService) ingestPath(ctx context.Context, req domain.FolderRequest, path string) domain.IngestOutcome {
	name := filepath.Base(path)
	if rel, err := filepath.Rel(req.Path, path); err == nil && !strings.HasPrefix(rel, "..") {
		name = filepath.ToSlash(rel)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.Failed(name, fmt.Sprintf("read file: %v", err))
	}

	return s.IngestFile(ctx, domain.FileUpload{
		ProjectID:  req.ProjectID,
		Filename:   name,
		Content:    content,
		Kind:       domain.KindFromFilename(path),
		IsTemplate: req.IsTemplate,
	})
}

// Reindex embeds the stored chunks of a project's current file versions
// with the configured provider. Files already fully indexed for the
// provider's model are skipped.
func (s *IngestionService) Reindex(ctx context.Context, projectID string) (int, error) {
	if s.embeddingService == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}
	if projectID == "" {
		return 0, fmt.Errorf("%w: project id is required", domain.ErrInvalidInput)
	}

	files, err := s.contentStore.ListFiles(ctx, projectID, true)
	if err != nil {
		return 0, fmt.Errorf("list files: %w", err)
	}

	logger.Section("Reindex")
	defer logger.Elapsed("reindex", time.Now())

	written := 0
	seen := make(map[string]bool)
	for _, file := range files {
		// Most recent upload first: only that version of a filename is searched.
		if seen[file.Filename] {
			continue
		}
		seen[file.Filename] = true

		n, err := s.reindexFile(ctx, file)
		written += n
		if err != nil {
			return written, fmt.Errorf("reindex %s: %w", file.Filename, err)
		}
	}

	logger.Info("Reindexed %d files, %d vectors", len(seen), written)
	return written, nil
}

func (s *IngestionService) reindexFile(ctx context.Context, file domain.SourceFile) (int, error) {
	unlock := s.locks.Lock(fileKey(file.ProjectID, file.Filename))
	defer unlock()

	chunks, err := s.contentStore.Chunks(ctx, file.ID)
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	model := domain.ModelTag(s.embeddingService.ModelName(), s.embeddingService.Dimensions())
	have, err := s.vectorIndex.CountByFile(ctx, file.ID, model)
	if err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	if have == len(chunks) {
		logger.Debug("%s already indexed for %s", file.Filename, model)
		return 0, nil
	}

	results := s.embed(ctx, chunks)
	if err := results.err; err != nil {
		return 0, err
	}
	if have > 0 {
		if err := s.vectorIndex.DeleteByFile(ctx, file.ID, model); err != nil {
			return 0, fmt.Errorf("clear partial vectors: %w", err)
		}
	}
	return s.putVectors(ctx, file, results.items)
}

// DeleteFile removes a file version with its chunks and vectors.
func (s *IngestionService) DeleteFile(ctx context.Context, id int64) error {
	file, err := s.contentStore.GetFile(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(fileKey(file.ProjectID, file.Filename))
	defer unlock()

	if err := s.contentStore.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	logger.Info("Deleted %s (id %d)", file.Filename, id)
	return nil
}

// DeleteProject removes all knowledge of a project.
func (s *IngestionService) DeleteProject(ctx context.Context, projectID string) error {
	if projectID == "" {
		return fmt.Errorf("%w: project id is required", domain.ErrInvalidInput)
	}
	if err := s.contentStore.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}
	logger.Info("Deleted project %s", projectID)
	return nil
}

// store runs the pipeline after extraction: dedup, chunk, embed, persist.
func (s *IngestionService) store(ctx context.Context, file domain.NewSourceFile) domain.IngestOutcome {
	unlock := s.locks.Lock(fileKey(file.ProjectID, file.Filename))
	defer unlock()

	if strings.TrimSpace(file.RawText) == "" {
		return domain.Failed(file.Filename, reasonNoContent)
	}

	stored, created, err := s.contentStore.PutFile(ctx, file)
	if err != nil {
		return domain.Failed(file.Filename, fmt.Sprintf("store file: %v", err))
	}

	outcome := domain.IngestOutcome{
		Status:   domain.IngestCreated,
		FileID:   stored.ID,
		Filename: stored.Filename,
		Kind:     stored.Kind,
		Preview:  domain.Preview(stored.RawText),
	}
	if !created {
		outcome.Status = domain.IngestUnchanged
		outcome.Reason = reasonUnchanged
		logger.Debug("%s unchanged (id %d)", stored.Filename, stored.ID)
		return outcome
	}

	chunks := s.chunker.Chunk(stored.RawText)
	results := s.embed(ctx, chunks)

	if err := s.contentStore.PutChunks(ctx, stored.ID, chunks); err != nil {
		s.rollback(ctx, stored)
		return domain.Failed(file.Filename, fmt.Sprintf("store chunks: %v", err))
	}
	outcome.ChunksCreated = len(chunks)

	if results.err != nil {
		outcome.TextOnly = true
		outcome.Reason = results.reason()
		logger.Warn("%s: %s", stored.Filename, outcome.Reason)
		return outcome
	}

	n, err := s.putVectors(ctx, stored, results.items)
	if err != nil {
		s.rollback(ctx, stored)
		return domain.Failed(file.Filename, fmt.Sprintf("store vectors: %v", err))
	}
	outcome.VectorsCreated = n

	logger.Debug("%s stored (id %d): %d chunks, %d vectors", stored.Filename, stored.ID, len(chunks), n)
	return outcome
}

// rollback removes a file version whose chunks or vectors could not be
// stored, so a retry is not mistaken for an unchanged upload.
func (s *IngestionService) rollback(ctx context.Context, file domain.SourceFile) {
	if err := s.contentStore.DeleteFile(context.WithoutCancel(ctx), file.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("rollback %s (id %d): %v", file.Filename, file.ID, err)
	}
}

// embedResults holds per-chunk embeddings in ascending chunk order.
type embedResults struct {
	items []domain.EmbeddingResult
	err   error
}

func (r embedResults) reason() string {
	switch {
	case r.err == nil:
		return ""
	case errors.Is(r.err, errNoEmbeddingService):
		return reasonNoEmbedding
	default:
		return fmt.Sprintf("embedding failed, stored text only: %v", r.err)
	}
}

var errNoEmbeddingService = errors.New("no embedding service")

// embed embeds chunks in one batch. Any failure leaves every chunk without
// a vector; the status says whether the provider was unavailable.
func (s *IngestionService) embed(ctx context.Context, chunks []domain.Chunk) embedResults {
	items := make([]domain.EmbeddingResult, len(chunks))
	for i, c := range chunks {
		items[i] = domain.EmbeddingResult{Chunk: c, Status: domain.EmbeddingUnavailable}
	}

	if s.embeddingService == nil {
		return embedResults{items: items, err: errNoEmbeddingService}
	}
	if len(chunks) == 0 {
		return embedResults{items: items}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) != len(chunks) {
		err = fmt.Errorf("provider returned %d embeddings for %d chunks", len(vectors), len(chunks))
	}
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			for i := range items {
				items[i].Status = domain.EmbeddingFailed
			}
		}
		return embedResults{items: items, err: err}
	}

	for i := range items {
		items[i].Vector = vectors[i]
		items[i].Status = domain.EmbeddingOK
	}
	return embedResults{items: items}
}

// putVectors stores the successful embeddings in ascending chunk order.
func (s *IngestionService) putVectors(ctx context.Context, file domain.SourceFile, items []domain.EmbeddingResult) (int, error) {
	model := domain.ModelTag(s.embeddingService.ModelName(), s.embeddingService.Dimensions())
	meta := domain.VectorMetadata{
		Filename:   file.Filename,
		Kind:       file.Kind,
		IsTemplate: file.IsTemplate,
	}

	written := 0
	for _, item := range items {
		if item.Status != domain.EmbeddingOK {
			continue
		}
		err := s.vectorIndex.Put(ctx, domain.Vector{
			ProjectID:    file.ProjectID,
			SourceFileID: file.ID,
			ChunkIndex:   item.Chunk.Index,
			Text:         item.Chunk.Text,
			Embedding:    item.Vector,
			Model:        model,
			Metadata:     meta,
		})
		if err != nil {
			return written, fmt.Errorf("chunk %d: %w", item.Chunk.Index, err)
		}
		written++
	}
	return written, nil
}

func validateTarget(projectID, filename string) string {
	switch {
	case strings.TrimSpace(projectID) == "":
		return "project id is required"
	case strings.TrimSpace(filename) == "":
		return "filename is required"
	}
	return ""
}
