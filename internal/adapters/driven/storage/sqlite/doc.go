// Package sqlite provides the SQLite-backed ContentStore and VectorIndex.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share a single database
// connection:
//
//   - ContentStore: File versions and their chunks
//   - VectorIndex: Chunk embeddings with exact cosine search
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.projectrag/data/knowledge.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. File inserts rely on the unique
// (project_id, filename, content_hash) constraint so concurrent duplicate
// uploads resolve to a single row.
package sqlite
