package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
)

// mockIngestionService records calls and returns canned outcomes.
type mockIngestionService struct {
	outcome  domain.IngestOutcome
	folder   domain.FolderOutcome
	reindex  int
	err      error
	progress []domain.IngestOutcome

	gotUpload  domain.FileUpload
	gotText    domain.TextUpload
	gotFolder  domain.FolderRequest
	gotDelete  int64
	gotProject string
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
	progress driving.ProgressFunc,
) domain.FolderOutcome {
	m.gotFolder = req
	for i, o := range m.progress {
		if progress != nil {
			progress(i+1, len(m.progress), o)
		}
	}
	return m.folder
}

func (m *mockIngestionService) IngestPath(_ context.Context, _ domain.FolderRequest, _ string) domain.IngestOutcome {
	return m.outcome
}

func (m *mockIngestionService) Reindex(_ context.Context, projectID string) (int, error) {
	m.gotProject = projectID
	return m.reindex, m.err
}

func (m *mockIngestionService) DeleteFile(_ context.Context, id int64) error {
	m.gotDelete = id
	return m.err
}

func (m *mockIngestionService) DeleteProject(_ context.Context, projectID string) error {
	m.gotProject = projectID
	return m.err
}

// mockRetrievalService returns canned search results and context.
type mockRetrievalService struct {
	results     []domain.ScoredChunk
	context     string
	unavailable bool
	err         error

	gotProject  string
	gotTopK     int
	gotMaxChars int
}

func (m *mockRetrievalService) Search(_ context.Context, projectID, _ string, topK int) ([]domain.ScoredChunk, error) {
	m.gotProject = projectID
	m.gotTopK = topK
	return m.results, m.err
}

func (m *mockRetrievalService) AssembleContext(_ context.Context, projectID, _ string, maxChars int) (string, error) {
	m.gotProject = projectID
	m.gotMaxChars = maxChars
	return m.context, m.err
}

func (m *mockRetrievalService) Available() bool {
	return !m.unavailable
}

// mockKnowledgeService returns canned files and summaries.
type mockKnowledgeService struct {
	files   []domain.SourceFile
	summary *domain.ProjectSummary
	err     error

	gotTemplates bool
}

func (m *mockKnowledgeService) ListFiles(_ context.Context, _ string, includeTemplates bool) ([]domain.SourceFile, error) {
	m.gotTemplates = includeTemplates
	return m.files, m.err
}

func (m *mockKnowledgeService) GetFile(_ context.Context, id int64) (*domain.SourceFile, error) {
	for i := range m.files {
		if m.files[i].ID == id {
			return &m.files[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockKnowledgeService) Summary(_ context.Context, projectID string) (*domain.ProjectSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &domain.ProjectSummary{ProjectID: projectID, Kinds: map[string]int{}}, nil
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings    domain.AppSettings
	set         map[string]string
	validateErr error
	pingErr     error

	gotProvider domain.AIProvider
	gotModel    string
	gotAPIKey   string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if key == "bogus" {
		return domain.ErrInvalidInput
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.gotProvider, m.gotModel, m.gotAPIKey = provider, model, apiKey
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	return nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.pingErr
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunking.overlap", "chunking.size"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// testFiles is the file listing returned by the default knowledge mock.
var testFiles = []domain.SourceFile{
	{ID: 2, ProjectID: "p1", Filename: "docs/plan.md", Kind: "md", ByteSize: 42, RawText: "# Plan", CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
	{ID: 1, ProjectID: "p1", Filename: "report.docx", Kind: "docx", ByteSize: 9000, IsTemplate: true, CreatedAt: time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)},
}

type testServices struct {
	ingestion *mockIngestionService
	retrieval *mockRetrievalService
	knowledge *mockKnowledgeService
	settings  *mockSettingsService
}

// setupTestServices installs mock services and returns a cleanup function
// restoring the previous services and flag values.
func setupTestServices() func() {
	_, cleanup := setupMockServices()
	return cleanup
}

func setupMockServices() (*testServices, func()) {
	old := &Services{
		Ingestion: ingestionService,
		Retrieval: retrievalService,
		Knowledge: knowledgeService,
		Settings:  settingsService,
		Walker:    folderWalker,
	}

	ts := &testServices{
		ingestion: &mockIngestionService{
			outcome: domain.IngestOutcome{Status: domain.IngestCreated, Filename: "a.txt", ChunksCreated: 2, VectorsCreated: 2},
		},
		retrieval: &mockRetrievalService{
			results: []domain.ScoredChunk{
				{Text: "The boiler is serviced every spring.", Filename: "maintenance.md", Similarity: 0.912},
			},
			context: "[From maintenance.md (similarity: 0.912)]:\nThe boiler is serviced every spring.\n",
		},
		knowledge: &mockKnowledgeService{files: testFiles},
		settings:  newMockSettingsService(),
	}

	SetServices(&Services{
		Ingestion: ts.ingestion,
		Retrieval: ts.retrieval,
		Knowledge: ts.knowledge,
		Settings:  ts.settings,
	})

	return ts, func() {
		SetServices(old)
		resetFlags()
	}
}

// resetFlags restores flag variables, which cobra keeps between executions.
func resetFlags() {
	projectFlag = ""
	verboseFlag = false
	ingestTemplate = false
	ingestKind = ""
	ingestWatch = false
	addTextKind = ""
	addTextTemplate = false
	searchLimit = domain.DefaultTopK
	searchJSON = false
	contextMaxChars = 0
	filesIncludeTemplates = true
	filesShowText = false
	projectDeleteForce = false
	summaryJSON = false
}
