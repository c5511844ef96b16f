// Package fallback handles files of kinds without a dedicated extractor.
// Content that looks like text is decoded; anything else is reported as
// binary.
package fallback

import (
	"context"
	"fmt"

	"github.com/go-enry/go-enry/v2"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor decodes text-like content of unknown kinds.
type Extractor struct{}

// New creates a new fallback extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedKinds returns the wildcard kind.
func (e *Extractor) SupportedKinds() []string {
	return []string{"*"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5
}

// Extract decodes the content as UTF-8 when it is not binary. Binary
// content yields a placeholder naming its size and the language or kind
// detected for it.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	if len(raw.Content) == 0 || !enry.IsBinary(raw.Content) {
		return plaintext.Decode(raw.Content), nil
	}

	return fmt.Sprintf("binary file, %d bytes, type %s", len(raw.Content), detectType(raw)), nil
}

// detectType names the content using the filename and content heuristics,
// falling back to the declared kind.
func detectType(raw *domain.RawFile) string {
	if lang := enry.GetLanguage(raw.Filename, raw.Content); lang != "" {
		return lang
	}
	return domain.NormaliseKind(raw.Kind)
}
