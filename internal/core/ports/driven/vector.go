package driven

import (
	"context"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// VectorIndex stores chunk embeddings and answers exact similarity queries.
// Search is a linear cosine scan so results are deterministic: ties keep
// insertion order.
type VectorIndex interface {
	// Put appends a vector. The referenced SourceFile must exist. A vector
	// already stored for the same chunk and model yields ErrVectorExists.
	Put(ctx context.Context, vector domain.Vector) error

	// Search returns up to query.TopK chunks of query.ProjectID ranked by
	// cosine similarity, highest first. An empty project yields an empty
	// slice and no error.
	Search(ctx context.Context, query domain.VectorQuery) ([]domain.ScoredChunk, error)

	// Count returns the number of vectors stored for a project.
	Count(ctx context.Context, projectID string) (int, error)

	// CountByFile returns the number of vectors of a file version. An empty
	// model counts all of them.
	CountByFile(ctx context.Context, fileID int64, model string) (int, error)

	// DeleteByFile removes the vectors of a file version, optionally only
	// those of one model. An empty model removes all of them.
	DeleteByFile(ctx context.Context, fileID int64, model string) error
}
