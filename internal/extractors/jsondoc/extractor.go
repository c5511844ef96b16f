// Package jsondoc extracts text from JSON documents by re-indenting them.
package jsondoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles JSON documents.
type Extractor struct{}

// New creates a new JSON extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedKinds returns the declared kinds this extractor handles.
func (e *Extractor) SupportedKinds() []string {
	return []string{"json", "geojson", "jsonld"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 60
}

// Extract validates the document and returns it indented by two spaces
// so that keys and values land on their own lines for chunking.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(raw.Content), "", "  "); err != nil {
		return "", fmt.Errorf("parse json: %w", err)
	}
	return out.String(), nil
}
