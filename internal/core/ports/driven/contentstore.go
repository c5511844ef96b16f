package driven

import (
	"context"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// ContentStore persists SourceFiles and their chunks.
// (project_id, filename, content_hash) is unique.
type ContentStore interface {
	// PutFile stores a new file version or returns the existing one.
	// The content hash is computed over file.RawText. created is false when
	// an identical (project, filename, hash) version already existed; the
	// check and insert are atomic.
	PutFile(ctx context.Context, file domain.NewSourceFile) (stored domain.SourceFile, created bool, err error)

	// PutChunks stores the chunks of a file version.
	PutChunks(ctx context.Context, fileID int64, chunks []domain.Chunk) error

	// Chunks returns the chunks of a file version ordered by index.
	Chunks(ctx context.Context, fileID int64) ([]domain.Chunk, error)

	// GetFile retrieves a file version by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetFile(ctx context.Context, id int64) (*domain.SourceFile, error)

	// ListFiles returns a project's files, most recently uploaded first.
	// Templates are omitted unless includeTemplates is set.
	ListFiles(ctx context.Context, projectID string, includeTemplates bool) ([]domain.SourceFile, error)

	// DeleteFile removes a file version with its chunks and vectors.
	// Returns domain.ErrNotFound if it does not exist.
	DeleteFile(ctx context.Context, id int64) error

	// DeleteProject removes every file, chunk and vector of a project.
	DeleteProject(ctx context.Context, projectID string) error

	// Stats returns aggregate counts for a project.
	Stats(ctx context.Context, projectID string) (*domain.ProjectSummary, error)
}
