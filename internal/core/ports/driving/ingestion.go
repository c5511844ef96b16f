package driving

import (
	"context"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// ProgressFunc is called after each file of a folder ingestion.
// done counts processed files including this one.
type ProgressFunc func(done, total int, outcome domain.IngestOutcome)

// IngestionService owns every write to a project's knowledge base.
// Per-file problems are reported in outcomes, never as errors.
type IngestionService interface {
	// IngestFile extracts, deduplicates, chunks, embeds and stores one file.
	IngestFile(ctx context.Context, upload domain.FileUpload) domain.IngestOutcome

	// IngestText stores already-extracted text as a file version.
	IngestText(ctx context.Context, upload domain.TextUpload) domain.IngestOutcome

	// IngestFolder ingests every eligible file under a folder recursively.
	// Hidden files and directories and ignore-file matches are skipped.
	// progress may be nil.
	IngestFolder(ctx context.Context, req domain.FolderRequest, progress ProgressFunc) domain.FolderOutcome

	// IngestPath ingests one file below req.Path, named relative to it.
	IngestPath(ctx context.Context, req domain.FolderRequest, path string) domain.IngestOutcome

	// Reindex embeds the stored chunks of a project's current file versions
	// with the configured provider. It returns the number of vectors written.
	Reindex(ctx context.Context, projectID string) (int, error)

	// DeleteFile removes a file version with its chunks and vectors.
	DeleteFile(ctx context.Context, id int64) error

	// DeleteProject removes all knowledge of a project.
	DeleteProject(ctx context.Context, projectID string) error
}
