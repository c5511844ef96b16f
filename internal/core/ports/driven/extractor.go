package driven

import (
	"context"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// Extractor turns the raw bytes of a file into plain text.
// Each extractor handles one or more declared kinds (e.g. "pdf", "md").
type Extractor interface {
	// SupportedKinds returns the declared kinds this extractor handles.
	SupportedKinds() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors return 50-89, fallbacks 1-9.
	Priority() int

	// Extract returns the text content of raw. An error means the
	// registry substitutes placeholder text.
	Extract(ctx context.Context, raw *domain.RawFile) (string, error)
}

// ExtractorRegistry selects the appropriate extractor for a file.
type ExtractorRegistry interface {
	// Extract returns text for raw using the best matching extractor.
	// It never fails: unsupported or broken input yields placeholder text.
	Extract(ctx context.Context, raw *domain.RawFile) string

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedKinds returns all kinds with a dedicated extractor.
	SupportedKinds() []string
}
