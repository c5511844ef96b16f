package extractors

import (
	"github.com/custodia-labs/projectrag/internal/extractors/docx"
	"github.com/custodia-labs/projectrag/internal/extractors/fallback"
	"github.com/custodia-labs/projectrag/internal/extractors/html"
	"github.com/custodia-labs/projectrag/internal/extractors/jsondoc"
	"github.com/custodia-labs/projectrag/internal/extractors/markdown"
	"github.com/custodia-labs/projectrag/internal/extractors/pdf"
	"github.com/custodia-labs/projectrag/internal/extractors/plaintext"
	"github.com/custodia-labs/projectrag/internal/extractors/pptx"
	"github.com/custodia-labs/projectrag/internal/extractors/xlsx"
)

// RegisterDefaults registers all built-in extractors with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(jsondoc.New())
	r.Register(docx.New())
	r.Register(xlsx.New())
	r.Register(pptx.New())
	r.Register(pdf.New())
	r.Register(fallback.New())
}

// NewDefaultRegistry returns a registry with all built-in extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
