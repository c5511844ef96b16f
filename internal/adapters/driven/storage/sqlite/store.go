package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/projectrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/core/similarity"
)

// DatabaseFile is the name of the database file inside the data directory.
const DatabaseFile = "knowledge.db"

// Store is a unified SQLite-based storage that provides access to
// the content and vector stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.projectrag/data/knowledge.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".projectrag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ContentStore returns a ContentStore interface backed by this store.
func (s *Store) ContentStore() driven.ContentStore {
	return &contentStore{store: s}
}

// VectorIndex returns a VectorIndex interface backed by this store.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("getting schema version: %w", err)
	}
	return version, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	currentVersion, err := s.SchemaVersion(context.Background())
	if err != nil {
		return err
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// applyMigration executes one migration and records its version atomically.
func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("recording version: %w", err)
	}
	return tx.Commit()
}

// ==================== Content Store ====================

// contentStore implements driven.ContentStore.
type contentStore struct {
	store *Store
}

var _ driven.ContentStore = (*contentStore)(nil)

const sourceFileColumns = `id, project_id, filename, kind, byte_size, raw_text, content_hash, is_template, created_at`

// PutFile stores a file version unless an identical one exists.
// Either way the version becomes the most recent upload of its filename.
func (s *contentStore) PutFile(
	ctx context.Context,
	file domain.NewSourceFile,
) (domain.SourceFile, bool, error) {
	if file.ProjectID == "" || file.Filename == "" {
		return domain.SourceFile{}, false, domain.ErrInvalidInput
	}

	kind := domain.NormaliseKind(file.Kind)
	hash := domain.HashContent(file.RawText)

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO source_files (project_id, filename, kind, byte_size, raw_text, content_hash, is_template, created_at, upload_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(upload_seq), 0) + 1 FROM source_files))
		ON CONFLICT(project_id, filename, content_hash) DO NOTHING
	`, file.ProjectID, file.Filename, kind, len(file.RawText), file.RawText, hash,
		boolToInt(file.IsTemplate), time.Now().UTC())
	if err != nil {
		return domain.SourceFile{}, false, fmt.Errorf("saving source file: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.SourceFile{}, false, fmt.Errorf("checking insert: %w", err)
	}

	if affected == 0 {
		if _, err := s.store.db.ExecContext(ctx, `
			UPDATE source_files
			SET upload_seq = (SELECT MAX(upload_seq) + 1 FROM source_files)
			WHERE project_id = ? AND filename = ? AND content_hash = ?
		`, file.ProjectID, file.Filename, hash); err != nil {
			return domain.SourceFile{}, false, fmt.Errorf("recording upload: %w", err)
		}
	}

	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+sourceFileColumns+`
		FROM source_files WHERE project_id = ? AND filename = ? AND content_hash = ?
	`, file.ProjectID, file.Filename, hash)

	stored, err := scanSourceFile(row)
	if err != nil {
		return domain.SourceFile{}, false, err
	}
	return *stored, affected > 0, nil
}

// PutChunks stores the chunks of a file version.
func (s *contentStore) PutChunks(ctx context.Context, fileID int64, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (source_file_id, chunk_index, text, byte_length)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_file_id, chunk_index) DO UPDATE SET
			text = excluded.text,
			byte_length = excluded.byte_length
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, fileID, chunk.Index, chunk.Text, len(chunk.Text)); err != nil {
			if isForeignKeyError(err) {
				return fmt.Errorf("saving chunk: %w", domain.ErrNotFound)
			}
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Chunks returns the chunks of a file version ordered by index.
func (s *contentStore) Chunks(ctx context.Context, fileID int64) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_file_id, chunk_index, text, byte_length
		FROM chunks WHERE source_file_id = ?
		ORDER BY chunk_index
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.SourceFileID, &chunk.Index, &chunk.Text, &chunk.ByteLength); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetFile retrieves a file version by ID.
func (s *contentStore) GetFile(ctx context.Context, id int64) (*domain.SourceFile, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+sourceFileColumns+`
		FROM source_files WHERE id = ?
	`, id)

	return scanSourceFile(row)
}

// ListFiles returns a project's files, most recently uploaded first.
func (s *contentStore) ListFiles(
	ctx context.Context,
	projectID string,
	includeTemplates bool,
) ([]domain.SourceFile, error) {
	query := `SELECT ` + sourceFileColumns + ` FROM source_files WHERE project_id = ?`
	if !includeTemplates {
		query += ` AND is_template = 0`
	}
	query += ` ORDER BY upload_seq DESC, id DESC`

	rows, err := s.store.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying source files: %w", err)
	}
	defer rows.Close()

	var files []domain.SourceFile //nolint:prealloc // size unknown from query
	for rows.Next() {
		file, err := scanSourceFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source files: %w", err)
	}

	return files, nil
}

// DeleteFile removes a file version. Chunks and vectors cascade.
func (s *contentStore) DeleteFile(ctx context.Context, id int64) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM source_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting source file: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteProject removes every file of a project. Chunks and vectors cascade.
func (s *contentStore) DeleteProject(ctx context.Context, projectID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM vectors WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM source_files WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("deleting source files: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Stats returns aggregate counts for a project.
func (s *contentStore) Stats(ctx context.Context, projectID string) (*domain.ProjectSummary, error) {
	summary := &domain.ProjectSummary{
		ProjectID: projectID,
		Kinds:     make(map[string]int),
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT kind, is_template, COUNT(*)
		FROM source_files WHERE project_id = ?
		GROUP BY kind, is_template
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying file counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var isTemplate, count int
		if err := rows.Scan(&kind, &isTemplate, &count); err != nil {
			return nil, fmt.Errorf("scanning file counts: %w", err)
		}
		summary.TotalFiles += count
		summary.Kinds[kind] += count
		if isTemplate != 0 {
			summary.TemplateFiles += count
		} else {
			summary.DataFiles += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file counts: %w", err)
	}

	row := s.store.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM chunks c JOIN source_files f ON f.id = c.source_file_id WHERE f.project_id = ?),
			(SELECT COUNT(*) FROM vectors WHERE project_id = ?)
	`, projectID, projectID)
	if err := row.Scan(&summary.TotalChunks, &summary.TotalVectors); err != nil {
		return nil, fmt.Errorf("counting chunks and vectors: %w", err)
	}

	return summary, nil
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Put appends a vector for an existing file version. A vector already
// stored for the same chunk and model is left untouched.
func (s *vectorIndex) Put(ctx context.Context, vector domain.Vector) error {
	if len(vector.Embedding) == 0 {
		return fmt.Errorf("%w: empty embedding", domain.ErrInvalidInput)
	}

	var projectID string
	row := s.store.db.QueryRowContext(ctx, "SELECT project_id FROM source_files WHERE id = ?", vector.SourceFileID)
	if err := row.Scan(&projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("source file %d: %w", vector.SourceFileID, domain.ErrNotFound)
		}
		return fmt.Errorf("looking up source file: %w", err)
	}
	if vector.ProjectID == "" {
		vector.ProjectID = projectID
	}
	if vector.ID == "" {
		vector.ID = uuid.New().String()
	}
	if vector.CreatedAt.IsZero() {
		vector.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(vector.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO vectors (id, project_id, source_file_id, chunk_index, text, embedding, dims, model, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_file_id, chunk_index, model) DO NOTHING
	`, vector.ID, vector.ProjectID, vector.SourceFileID, vector.ChunkIndex, vector.Text,
		float32SliceToBytes(vector.Embedding), len(vector.Embedding), vector.Model,
		string(metadataJSON), vector.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving vector: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("file %d chunk %d (%s): %w",
			vector.SourceFileID, vector.ChunkIndex, vector.Model, domain.ErrVectorExists)
	}
	return nil
}

// Search ranks a project's vectors by cosine similarity to the query.
func (s *vectorIndex) Search(ctx context.Context, query domain.VectorQuery) ([]domain.ScoredChunk, error) {
	if query.TopK <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT v.source_file_id, v.chunk_index, v.text, v.embedding, v.metadata
		FROM vectors v
		WHERE v.project_id = ?
		  AND (? = '' OR v.model = ?)
		  AND (? = 1 OR NOT EXISTS (
			SELECT 1 FROM source_files f
			JOIN source_files newer
			  ON newer.project_id = f.project_id AND newer.filename = f.filename AND newer.upload_seq > f.upload_seq
			WHERE f.id = v.source_file_id
		  ))
		ORDER BY v.seq
	`, query.ProjectID, query.Model, query.Model, boolToInt(query.IncludeSuperseded))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var candidates []similarity.Candidate[domain.ScoredChunk] //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.ScoredChunk
		var embeddingBlob []byte
		var metadataJSON string
		if err := rows.Scan(&chunk.SourceFileID, &chunk.ChunkIndex, &chunk.Text,
			&embeddingBlob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}

		var meta domain.VectorMetadata
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &meta); err != nil {
				return nil, fmt.Errorf("unmarshaling vector metadata: %w", err)
			}
		}
		chunk.Filename = meta.Filename
		chunk.Kind = meta.Kind
		chunk.IsTemplate = meta.IsTemplate

		candidates = append(candidates, similarity.Candidate[domain.ScoredChunk]{
			Embedding: bytesToFloat32Slice(embeddingBlob),
			Item:      chunk,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
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
func (s *vectorIndex) Count(ctx context.Context, projectID string) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors WHERE project_id = ?", projectID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return count, nil
}

// CountByFile returns the number of vectors of a file version for one model.
func (s *vectorIndex) CountByFile(ctx context.Context, fileID int64, model string) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vectors WHERE source_file_id = ? AND (? = '' OR model = ?)",
		fileID, model, model)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting file vectors: %w", err)
	}
	return count, nil
}

// DeleteByFile removes the vectors of a file version.
func (s *vectorIndex) DeleteByFile(ctx context.Context, fileID int64, model string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE source_file_id = ? AND (? = '' OR model = ?)",
		fileID, model, model)
	if err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSourceFile scans a single source file row.
func scanSourceFile(row rowScanner) (*domain.SourceFile, error) {
	var file domain.SourceFile
	var isTemplate int

	if err := row.Scan(&file.ID, &file.ProjectID, &file.Filename, &file.Kind, &file.ByteSize,
		&file.RawText, &file.ContentHash, &isTemplate, &file.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source file: %w", err)
	}
	file.IsTemplate = isTemplate != 0

	return &file, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isForeignKeyError(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
