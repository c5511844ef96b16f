// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Turns raw bytes of one declared kind into text
//   - ExtractorRegistry: Selects the extractor for a kind, never fails
//   - Chunker: Splits text into overlapping chunks
//   - ContentStore: SourceFile and chunk persistence with deduplication
//   - VectorIndex: Vector persistence and exact similarity search
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, files are
//     stored text-only and retrieval returns empty results.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
