package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
	"github.com/custodia-labs/projectrag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// ContextSeparator joins the blocks of an assembled context.
const ContextSeparator = "\n---\n"

// RetrievalService answers similarity queries and assembles context.
type RetrievalService struct {
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	settings         domain.RetrievalSettings
}

// NewRetrievalService creates a new retrieval service.
// embeddingService is optional - if nil, every query returns nothing.
func NewRetrievalService(
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	settings domain.RetrievalSettings,
) *RetrievalService {
	defaults := domain.DefaultAppSettings().Retrieval
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	if settings.MaxChars <= 0 {
		settings.MaxChars = defaults.MaxChars
	}
	return &RetrievalService{
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		settings:         settings,
	}
}

// Available reports whether an embedding provider is configured.
func (s *RetrievalService) Available() bool {
	return s.embeddingService != nil
}

// Search returns the topK most similar chunks for query.
// topK <= 0 uses the configured default.
func (s *RetrievalService) Search(ctx context.Context, projectID, query string, topK int) ([]domain.ScoredChunk, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", domain.ErrInvalidInput)
	}
	if s.embeddingService == nil || strings.TrimSpace(query) == "" {
		return []domain.ScoredChunk{}, nil
	}
	if topK <= 0 {
		topK = s.settings.TopK
	}

	queryVec, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			logger.Warn("search without embeddings: %v", err)
			return []domain.ScoredChunk{}, nil
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.vectorIndex.Search(ctx, domain.VectorQuery{
		ProjectID:         projectID,
		Vector:            queryVec,
		TopK:              topK,
		Model:             domain.ModelTag(s.embeddingService.ModelName(), s.embeddingService.Dimensions()),
		IncludeSuperseded: s.settings.IncludeSuperseded,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	logger.Debug("search %q in %s: %d results", query, projectID, len(results))
	return results, nil
}

// AssembleContext builds a bounded context string for query.
func (s *RetrievalService) AssembleContext(ctx context.Context, projectID, query string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = s.settings.MaxChars
	}

	results, err := s.Search(ctx, projectID, query, s.settings.TopK)
	if err != nil {
		return "", err
	}
	return FormatContext(results, maxChars), nil
}

// FormatContext renders results as attributed blocks in rank order.
// Blocks are added whole while the total, separators included, stays within
// maxChars characters; the first block that does not fit ends the context.
func FormatContext(results []domain.ScoredChunk, maxChars int) string {
	var b strings.Builder
	used := 0
	sepLen := utf8.RuneCountInString(ContextSeparator)

	for i, r := range results {
		block := FormatBlock(r)
		cost := utf8.RuneCountInString(block)
		if i > 0 {
			cost += sepLen
		}
		if used+cost > maxChars {
			break
		}
		if i > 0 {
			b.WriteString(ContextSeparator)
		}
		b.WriteString(block)
		used += cost
	}
	return b.String()
}

// FormatBlock renders one result with its source attribution.
func FormatBlock(r domain.ScoredChunk) string {
	return fmt.Sprintf("[From %s (similarity: %.3f)]:\n%s\n", r.Filename, r.Similarity, r.Text)
}
