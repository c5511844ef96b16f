package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/projectrag/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/projectrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/extractors"
	"github.com/custodia-labs/projectrag/internal/postprocessors/chunker"
)

// mockEmbeddingService embeds with the hashing service unless err is set.
type mockEmbeddingService struct {
	mu    sync.Mutex
	err   error
	calls int
	inner *hashing.EmbeddingService
}

func newMockEmbeddingService(err error) *mockEmbeddingService {
	return &mockEmbeddingService{
		err:   err,
		inner: hashing.NewEmbeddingService(hashing.Config{Dimensions: 64}),
	}
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.inner.Embed(ctx, text)
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.inner.EmbedBatch(ctx, texts)
}

func (m *mockEmbeddingService) Dimensions() int { return m.inner.Dimensions() }
func (m *mockEmbeddingService) ModelName() string { return m.inner.ModelName() }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return m.err }
func (m *mockEmbeddingService) Close() error { return nil }

// failingVectorIndex fails every Put.
type failingVectorIndex struct {
	driven.VectorIndex
	err error
}

func (f *failingVectorIndex) Put(_ context.Context, _ domain.Vector) error {
	return f.err
}

type testEnv struct {
	store     *memory.Store
	content   *memory.ContentStore
	vectors   *memory.VectorIndex
	embedder  driven.EmbeddingService
	ingestion *IngestionService
	retrieval *RetrievalService
}

// newTestEnv wires services over one memory store. embedder may be nil.
func newTestEnv(embedder driven.EmbeddingService) *testEnv {
	store := memory.NewStore()
	env := &testEnv{
		store:    store,
		content:  store.ContentStore(),
		vectors:  store.VectorIndex(),
		embedder: embedder,
	}
	env.ingestion = NewIngestionService(
		extractors.NewDefaultRegistry(),
		chunker.MustNew(chunker.WithChunkSize(120), chunker.WithOverlap(20)),
		env.content,
		env.vectors,
		embedder,
	)
	env.retrieval = NewRetrievalService(env.vectors, embedder, domain.DefaultAppSettings().Retrieval)
	return env
}
