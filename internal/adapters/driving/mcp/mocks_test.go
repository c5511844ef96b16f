package mcp

import (
	"context"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
)

var (
	_ driving.RetrievalService = (*mockRetrievalService)(nil)
	_ driving.IngestionService = (*mockIngestionService)(nil)
	_ driving.KnowledgeService = (*mockKnowledgeService)(nil)
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results   []domain.ScoredChunk
	context   string
	available bool
	err       error

	gotTopK     int
	gotMaxChars int
}

func (m *mockRetrievalService) Search(_ context.Context, _, _ string, topK int) ([]domain.ScoredChunk, error) {
	m.gotTopK = topK
	return m.results, m.err
}

func (m *mockRetrievalService) AssembleContext(_ context.Context, _, _ string, maxChars int) (string, error) {
	m.gotMaxChars = maxChars
	return m.context, m.err
}

func (m *mockRetrievalService) Available() bool {
	return m.available
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	outcome domain.IngestOutcome
	folder  domain.FolderOutcome
	err     error

	gotUpload domain.FileUpload
	gotText   domain.TextUpload
	gotFolder domain.FolderRequest
}

func (m *mockIngestionService) IngestFile(_ context.Context, upload domain.FileUpload) domain.IngestOutcome {
	m.gotUpload = upload
	return m.outcome
}

func (m *mockIngestionService) IngestText(_ context.Context, upload domain.TextUpload) domain.IngestOutcome {
	m.gotText = upload
	return m.outcome
}

func (m *mockIngestionService) IngestFolder(
	_ context.Context,
	req domain.FolderRequest,
	_ driving.ProgressFunc,
) domain.FolderOutcome {
	m.gotFolder = req
	return m.folder
}

func (m *mockIngestionService) IngestPath(_ context.Context, _ domain.FolderRequest, _ string) domain.IngestOutcome {
	return m.outcome
}

func (m *mockIngestionService) Reindex(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func (m *mockIngestionService) DeleteFile(_ context.Context, _ int64) error {
	return m.err
}

func (m *mockIngestionService) DeleteProject(_ context.Context, _ string) error {
	return m.err
}

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	files   []domain.SourceFile
	file    *domain.SourceFile
	summary *domain.ProjectSummary
	err     error

	gotProject string
}

func (m *mockKnowledgeService) ListFiles(_ context.Context, projectID string, _ bool) ([]domain.SourceFile, error) {
	m.gotProject = projectID
	return m.files, m.err
}

func (m *mockKnowledgeService) GetFile(_ context.Context, _ int64) (*domain.SourceFile, error) {
	return m.file, m.err
}

func (m *mockKnowledgeService) Summary(_ context.Context, projectID string) (*domain.ProjectSummary, error) {
	m.gotProject = projectID
	return m.summary, m.err
}
