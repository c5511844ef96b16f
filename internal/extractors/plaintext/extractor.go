// Package plaintext extracts text from plain text and source code files.
package plaintext

import (
	"bytes"
	"context"
	"strings"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedKinds returns the declared kinds this extractor handles.
func (e *Extractor) SupportedKinds() []string {
	return []string{
		"txt", "text", "log", "csv", "tsv",
		"yaml", "yml", "toml", "ini", "cfg", "conf", "env",
		"xml", "svg", "sql", "rst", "tex",
		"go", "py", "rs", "java", "c", "h", "cpp", "hpp", "cs",
		"rb", "php", "swift", "kt", "scala",
		"js", "jsx", "ts", "tsx", "css", "scss",
		"sh", "bash", "zsh", "ps1",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract decodes the content as UTF-8. Invalid byte sequences are dropped.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	return Decode(raw.Content), nil
}

// Decode converts bytes to text, removing a UTF-8 byte order mark and
// any invalid UTF-8 sequences.
func Decode(content []byte) string {
	content = bytes.TrimPrefix(content, utf8BOM)
	return strings.ToValidUTF8(string(content), "")
}
