package extractors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/logger"
)

// AnyKind is the wildcard kind declared by fallback extractors.
const AnyKind = "*"

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches files to extractors by declared kind.
// For each kind the highest priority extractor wins; kinds without a
// dedicated extractor go to the highest priority fallback.
type Registry struct {
	mu        sync.RWMutex
	byKind    map[string][]driven.Extractor
	fallbacks []driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKind: make(map[string][]driven.Extractor),
	}
}

// Register adds an extractor to the registry.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, kind := range extractor.SupportedKinds() {
		if kind == AnyKind {
			r.fallbacks = insertByPriority(r.fallbacks, extractor)
			continue
		}
		kind = domain.NormaliseKind(kind)
		r.byKind[kind] = insertByPriority(r.byKind[kind], extractor)
	}
}

// SupportedKinds returns all kinds with a dedicated extractor, sorted.
func (r *Registry) SupportedKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.byKind))
	for kind := range r.byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Extract returns the text of raw. It never fails: an extractor error or a
// missing extractor yields placeholder text naming the file.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawFile) string {
	if raw == nil {
		return ""
	}

	kind := domain.NormaliseKind(raw.Kind)
	extractor := r.lookup(kind)
	if extractor == nil {
		return BinaryPlaceholder(len(raw.Content), kind)
	}

	text, err := extractor.Extract(ctx, raw)
	if err != nil {
		logger.Warn("extracting %s as %s: %v", raw.Filename, kind, err)
		return ErrorPlaceholder(raw.Filename, err)
	}
	return text
}

func (r *Registry) lookup(kind string) driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if list := r.byKind[kind]; len(list) > 0 {
		return list[0]
	}
	if len(r.fallbacks) > 0 {
		return r.fallbacks[0]
	}
	return nil
}

// insertByPriority keeps list ordered by descending priority. Equal
// priorities keep registration order.
func insertByPriority(list []driven.Extractor, e driven.Extractor) []driven.Extractor {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Priority() < e.Priority()
	})
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = e
	return list
}

// BinaryPlaceholder is the text recorded for content that cannot be
// extracted as text.
func BinaryPlaceholder(size int, kind string) string {
	return fmt.Sprintf("binary file, %d bytes, type %s", size, kind)
}

// ErrorPlaceholder is the text recorded when an extractor fails.
func ErrorPlaceholder(filename string, err error) string {
	return fmt.Sprintf("error extracting content from %s: %v", filename, err)
}
