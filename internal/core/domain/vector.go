package domain

import (
	"fmt"
	"time"
)

// VectorMetadata is denormalised file information stored with each vector
// so search results can be rendered without a join.
type VectorMetadata struct {
	Filename   string `json:"filename"`
	Kind       string `json:"kind"`
	IsTemplate bool   `json:"is_template"`
}

// Vector is the embedding of one chunk.
// At most one Vector exists per (SourceFileID, ChunkIndex, Model).
type Vector struct {
	// ID is a UUID assigned on creation.
	ID string

	// ProjectID scopes the vector for search.
	ProjectID string

	// SourceFileID is the file version the chunk came from.
	SourceFileID int64

	// ChunkIndex is the chunk's position within the file.
	ChunkIndex int

	// Text is the chunk text.
	Text string

	// Embedding is the fixed-length vector.
	Embedding []float32

	// Model is the provider tag, see ModelTag.
	Model string

	// Metadata carries file-level information for result rendering.
	Metadata VectorMetadata

	// CreatedAt is when the vector was stored.
	CreatedAt time.Time
}

// ModelTag identifies the embedding space a vector lives in.
// Vectors with different tags are never compared.
func ModelTag(model string, dimensions int) string {
	return fmt.Sprintf("%s@%d", model, dimensions)
}

// VectorQuery describes a similarity search.
type VectorQuery struct {
	// ProjectID restricts candidates to one project.
	ProjectID string

	// Vector is the query embedding.
	Vector []float32

	// TopK is the maximum number of results. Values <= 0 return nothing.
	TopK int

	// Model restricts candidates to vectors from the same embedding space.
	// Empty matches every model.
	Model string

	// IncludeSuperseded also considers vectors of older versions of a filename.
	IncludeSuperseded bool
}

// ScoredChunk is one similarity search result.
type ScoredChunk struct {
	// Text is the chunk text.
	Text string `json:"text"`

	// Filename is the source file's display name.
	Filename string `json:"filename"`

	// Kind is the source file's declared kind.
	Kind string `json:"kind"`

	// IsTemplate reports whether the source file is a template.
	IsTemplate bool `json:"is_template"`

	// SourceFileID identifies the file version.
	SourceFileID int64 `json:"source_file_id"`

	// ChunkIndex is the chunk's position in the file.
	ChunkIndex int `json:"chunk_index"`

	// Similarity is the cosine similarity to the query, in [-1, 1].
	Similarity float64 `json:"similarity"`
}
