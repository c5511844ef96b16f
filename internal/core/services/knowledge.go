package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
)

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// KnowledgeService provides read access to stored project files.
type KnowledgeService struct {
	contentStore driven.ContentStore
}

// NewKnowledgeService creates a new knowledge service.
func NewKnowledgeService(contentStore driven.ContentStore) *KnowledgeService {
	return &KnowledgeService{contentStore: contentStore}
}

// ListFiles returns a project's files, most recently uploaded first.
func (s *KnowledgeService) ListFiles(ctx context.Context, projectID string, includeTemplates bool) ([]domain.SourceFile, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", domain.ErrInvalidInput)
	}
	return s.contentStore.ListFiles(ctx, projectID, includeTemplates)
}

// GetFile retrieves a file version by ID.
func (s *KnowledgeService) GetFile(ctx context.Context, id int64) (*domain.SourceFile, error) {
	return s.contentStore.GetFile(ctx, id)
}

// Summary returns aggregate counts for a project.
func (s *KnowledgeService) Summary(ctx context.Context, projectID string) (*domain.ProjectSummary, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", domain.ErrInvalidInput)
	}
	summary, err := s.contentStore.Stats(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project stats: %w", err)
	}
	return summary, nil
}
