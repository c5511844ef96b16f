package driving

import (
	"context"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// RetrievalService answers similarity queries against a project.
type RetrievalService interface {
	// Search returns the topK most similar chunks for query.
	// Returns an empty slice when embeddings are unavailable.
	Search(ctx context.Context, projectID, query string, topK int) ([]domain.ScoredChunk, error)

	// AssembleContext builds a bounded context string for query.
	// maxChars <= 0 uses the configured default. The result never exceeds
	// maxChars characters and is empty when embeddings are unavailable.
	AssembleContext(ctx context.Context, projectID, query string, maxChars int) (string, error)

	// Available reports whether an embedding provider is configured.
	Available() bool
}
