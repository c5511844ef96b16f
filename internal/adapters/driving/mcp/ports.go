package mcp

import (
	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers search and context queries.
	Retrieval driving.RetrievalService

	// Ingestion stores files. Ingest tools are registered only when set.
	Ingestion driving.IngestionService

	// Knowledge lists stored files. Summary and file resources need it.
	Knowledge driving.KnowledgeService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
