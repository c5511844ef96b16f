// Package domain defines the core business entities for projectrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceFile: An ingested file version and its extracted text
//   - Chunk: A bounded, overlapping slice of a SourceFile's text
//   - Vector: The embedding of one chunk, scoped to a project
//   - IngestOutcome / FolderOutcome: Structured ingestion results
//   - ProjectSummary: Aggregate counts for a project's knowledge base
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
