package driving

import (
	"context"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// KnowledgeService provides read access to a project's stored files.
type KnowledgeService interface {
	// ListFiles returns a project's files, most recently uploaded first.
	ListFiles(ctx context.Context, projectID string, includeTemplates bool) ([]domain.SourceFile, error)

	// GetFile retrieves a file version by ID.
	GetFile(ctx context.Context, id int64) (*domain.SourceFile, error)

	// Summary returns aggregate counts for a project.
	Summary(ctx context.Context, projectID string) (*domain.ProjectSummary, error)
}
