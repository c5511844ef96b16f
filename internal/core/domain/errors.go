package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no extractor handles a declared kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidChunkConfig indicates chunk size and overlap cannot produce progress.
	// Overlap must be non-negative and strictly smaller than the chunk size.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured,
	// unreachable, or timed out. Ingestion degrades to text-only storage and
	// retrieval returns empty results.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates a vector does not match the dimensionality
	// already recorded for its model.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrVectorExists indicates a vector is already stored for the same chunk
	// and model. Stored vectors are never overwritten.
	ErrVectorExists = errors.New("vector already exists")

	// ErrFolderNotFound indicates a folder ingestion path does not exist.
	ErrFolderNotFound = errors.New("folder path does not exist")
)
