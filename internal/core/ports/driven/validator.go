package driven

import "github.com/custodia-labs/projectrag/internal/core/domain"

// EmbeddingValidator checks that an embedding configuration can reach its provider.
type EmbeddingValidator interface {
	// ValidateEmbedding creates the configured service and pings it.
	// Returns nil when no provider is configured.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
}
