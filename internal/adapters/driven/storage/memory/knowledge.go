package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/core/similarity"
)

// Ensure the wrappers implement the interfaces.
var (
	_ driven.ContentStore = (*ContentStore)(nil)
	_ driven.VectorIndex  = (*VectorIndex)(nil)
)

// Store holds files, chunks and vectors in memory.
// Content and vectors share one lock so deletes cascade atomically.
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	files   map[int64]domain.SourceFile
	order   []int64 // upload order; a re-upload moves its file to the end
	chunks  map[int64][]domain.Chunk
	vectors []domain.Vector
}

// NewStore creates a new in-memory knowledge store.
func NewStore() *Store {
	return &Store{
		files:  make(map[int64]domain.SourceFile),
		chunks: make(map[int64][]domain.Chunk),
	}
}

// ContentStore returns a ContentStore backed by this store.
func (s *Store) ContentStore() *ContentStore {
	return &ContentStore{store: s}
}

// VectorIndex returns a VectorIndex backed by this store.
func (s *Store) VectorIndex() *VectorIndex {
	return &VectorIndex{store: s}
}

// ContentStore is an in-memory implementation of driven.ContentStore.
type ContentStore struct {
	store *Store
}

// NewContentStore creates a content store with its own backing store.
func NewContentStore() *ContentStore {
	return NewStore().ContentStore()
}

// PutFile stores a file version unless an identical one exists.
// Either way the version becomes the most recent upload of its filename.
func (c *ContentStore) PutFile(_ context.Context, file domain.NewSourceFile) (domain.SourceFile, bool, error) {
	if file.ProjectID == "" || file.Filename == "" {
		return domain.SourceFile{}, false, domain.ErrInvalidInput
	}
	hash := domain.HashContent(file.RawText)

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range s.order {
		existing := s.files[id]
		if existing.ProjectID == file.ProjectID && existing.Filename == file.Filename && existing.ContentHash == hash {
			s.order = append(append(s.order[:i:i], s.order[i+1:]...), id)
			return existing, false, nil
		}
	}

	s.nextID++
	stored := domain.SourceFile{
		ID:          s.nextID,
		ProjectID:   file.ProjectID,
		Filename:    file.Filename,
		Kind:        domain.NormaliseKind(file.Kind),
		ByteSize:    int64(len(file.RawText)),
		RawText:     file.RawText,
		ContentHash: hash,
		IsTemplate:  file.IsTemplate,
		CreatedAt:   time.Now().UTC(),
	}
	s.files[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	return stored, true, nil
}

// PutChunks stores the chunks of a file version.
func (c *ContentStore) PutChunks(_ context.Context, fileID int64, chunks []domain.Chunk) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[fileID]; !ok {
		return fmt.Errorf("saving chunk: %w", domain.ErrNotFound)
	}

	stored := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		chunk.SourceFileID = fileID
		chunk.ByteLength = len(chunk.Text)
		stored = append(stored, chunk)
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].Index < stored[j].Index })
	s.chunks[fileID] = stored
	return nil
}

// Chunks returns the chunks of a file version ordered by index.
func (c *ContentStore) Chunks(_ context.Context, fileID int64) ([]domain.Chunk, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.chunks[fileID]
	if len(chunks) == 0 {
		return nil, nil
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// GetFile retrieves a file version by ID.
func (c *ContentStore) GetFile(_ context.Context, id int64) (*domain.SourceFile, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &file, nil
}

// ListFiles returns a project's files, most recently uploaded first.
func (c *ContentStore) ListFiles(_ context.Context, projectID string, includeTemplates bool) ([]domain.SourceFile, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SourceFile
	for i := len(s.order) - 1; i >= 0; i-- {
		file := s.files[s.order[i]]
		if file.ProjectID != projectID {
			continue
		}
		if file.IsTemplate && !includeTemplates {
			continue
		}
		result = append(result, file)
	}
	return result, nil
}

// DeleteFile removes a file version with its chunks and vectors.
func (c *ContentStore) DeleteFile(_ context.Context, id int64) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return domain.ErrNotFound
	}
	s.removeLocked(func(f domain.SourceFile) bool { return f.ID == id })
	return nil
}

// DeleteProject removes every file, chunk and vector of a project.
func (c *ContentStore) DeleteProject(_ context.Context, projectID string) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(func(f domain.SourceFile) bool { return f.ProjectID == projectID })
	return nil
}

// Stats returns aggregate counts for a project.
func (c *ContentStore) Stats(_ context.Context, projectID string) (*domain.ProjectSummary, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &domain.ProjectSummary{
		ProjectID: projectID,
		Kinds:     make(map[string]int),
	}
	for _, id := range s.order {
		file := s.files[id]
		if file.ProjectID != projectID {
			continue
		}
		summary.TotalFiles++
		summary.Kinds[file.Kind]++
		summary.TotalChunks += len(s.chunks[id])
		if file.IsTemplate {
			summary.TemplateFiles++
		} else {
			summary.DataFiles++
		}
	}
	for _, v := range s.vectors {
		if v.ProjectID == projectID {
			summary.TotalVectors++
		}
	}
	return summary, nil
}

// removeLocked deletes matching files and everything derived from them.
// The caller must hold the write lock.
func (s *Store) removeLocked(match func(domain.SourceFile) bool) {
	removed := make(map[int64]bool)
	order := s.order[:0]
	for _, id := range s.order {
		if match(s.files[id]) {
			removed[id] = true
			delete(s.files, id)
			delete(s.chunks, id)
			continue
		}
		order = append(order, id)
	}
	s.order = order

	vectors := s.vectors[:0]
	for _, v := range s.vectors {
		if !removed[v.SourceFileID] {
			vectors = append(vectors, v)
		}
	}
	s.vectors = vectors
}

// VectorIndex is an in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	store *Store
}

// Put appends a vector for an existing file version. A vector already
// stored for the same chunk and model is left untouched.
func (v *VectorIndex) Put(_ context.Context, vector domain.Vector) error {
	if len(vector.Embedding) == 0 {
		return fmt.Errorf("%w: empty embedding", domain.ErrInvalidInput)
	}

	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[vector.SourceFileID]
	if !ok {
		return fmt.Errorf("source file %d: %w", vector.SourceFileID, domain.ErrNotFound)
	}
	if vector.ProjectID == "" {
		vector.ProjectID = file.ProjectID
	}
	if vector.ID == "" {
		vector.ID = uuid.New().String()
	}
	if vector.CreatedAt.IsZero() {
		vector.CreatedAt = time.Now().UTC()
	}
	vector.Embedding = append([]float32(nil), vector.Embedding...)

	for _, existing := range s.vectors {
		if existing.SourceFileID == vector.SourceFileID &&
			existing.ChunkIndex == vector.ChunkIndex &&
			existing.Model == vector.Model {
			return fmt.Errorf("file %d chunk %d (%s): %w",
				vector.SourceFileID, vector.ChunkIndex, vector.Model, domain.ErrVectorExists)
		}
	}
	s.vectors = append(s.vectors, vector)
	return nil
}

// Search ranks a project's vectors by cosine similarity to the query.
func (v *VectorIndex) Search(_ context.Context, query domain.VectorQuery) ([]domain.ScoredChunk, error) {
	if query.TopK <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]int64)
	for _, id := range s.order {
		file := s.files[id]
		latest[file.ProjectID+"\x00"+file.Filename] = id
	}

	var candidates []similarity.Candidate[domain.ScoredChunk]
	for _, vec := range s.vectors {
		if vec.ProjectID != query.ProjectID {
			continue
		}
		if query.Model != "" && vec.Model != query.Model {
			continue
		}
		if !query.IncludeSuperseded {
			file := s.files[vec.SourceFileID]
			if latest[file.ProjectID+"\x00"+file.Filename] != vec.SourceFileID {
				continue
			}
		}
		candidates = append(candidates, similarity.Candidate[domain.ScoredChunk]{
			Embedding: vec.Embedding,
			Item: domain.ScoredChunk{
				Text:         vec.Text,
				Filename:     vec.Metadata.Filename,
				Kind:         vec.Metadata.Kind,
				IsTemplate:   vec.Metadata.IsTemplate,
				SourceFileID: vec.SourceFileID,
				ChunkIndex:   vec.ChunkIndex,
			},
		})
	}

	ranked := similarity.TopK(query.Vector, candidates, query.TopK)
	results := make([]domain.ScoredChunk, len(ranked))
	for i, r := range ranked {
		results[i] = r.Item
		results[i].Similarity = r.Score
	}
	return results, nil
}

// Count returns the number of vectors stored for a project.
func (v *VectorIndex) Count(_ context.Context, projectID string) (int, error) {
	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, vec := range s.vectors {
		if vec.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

// CountByFile returns the number of vectors of a file version for one model.
func (v *VectorIndex) CountByFile(_ context.Context, fileID int64, model string) (int, error) {
	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, vec := range s.vectors {
		if vec.SourceFileID == fileID && (model == "" || vec.Model == model) {
			count++
		}
	}
	return count, nil
}

// DeleteByFile removes the vectors of a file version.
func (v *VectorIndex) DeleteByFile(_ context.Context, fileID int64, model string) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.vectors[:0]
	for _, vec := range s.vectors {
		if vec.SourceFileID == fileID && (model == "" || vec.Model == model) {
			continue
		}
		kept = append(kept, vec)
	}
	s.vectors = kept
	return nil
}
