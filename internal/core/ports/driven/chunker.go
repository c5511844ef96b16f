package driven

import "github.com/custodia-labs/projectrag/internal/core/domain"

// Chunker splits extracted text into bounded, overlapping chunks.
// Implementations are pure: the same text always yields the same chunks.
type Chunker interface {
	// Chunk returns the chunks of text with contiguous indices from 0.
	// Empty or whitespace-only text yields no chunks.
	Chunk(text string) []domain.Chunk
}
