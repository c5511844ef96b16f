// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - IngestionService: extract, deduplicate, chunk, embed and store files
//   - RetrievalService: similarity search and bounded context assembly
//   - KnowledgeService: file listing and project summaries
//   - SettingsService: typed settings over the config store
//
// Services are pure Go with no CGO or external dependencies.
package services
