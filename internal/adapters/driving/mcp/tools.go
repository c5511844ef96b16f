package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	ProjectID string `json:"project_id" jsonschema:"the project to search"`
	Query     string `json:"query" jsonschema:"the text to find similar passages for"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []domain.ScoredChunk `json:"results"`
	Count   int                  `json:"count"`

	// EmbeddingsAvailable is false when no embedding provider is configured,
	// in which case Results is always empty.
	EmbeddingsAvailable bool `json:"embeddings_available"`
}

// ContextInput is the input schema for the assemble_context tool.
type ContextInput struct {
	ProjectID string `json:"project_id" jsonschema:"the project to draw context from"`
	Query     string `json:"query" jsonschema:"the question or task the context is for"`
	MaxChars  int    `json:"max_chars,omitempty" jsonschema:"context budget in characters (default 3000)"`
}

// ContextOutput is the output schema for the assemble_context tool.
type ContextOutput struct {
	Context string `json:"context"`
	Length  int    `json:"length"`
}

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	ProjectID  string `json:"project_id" jsonschema:"the project to store the text in"`
	Filename   string `json:"filename" jsonschema:"display name of the text"`
	Text       string `json:"text" jsonschema:"the text to store"`
	Kind       string `json:"kind,omitempty" jsonschema:"declared kind (default txt)"`
	IsTemplate bool   `json:"is_template,omitempty" jsonschema:"mark the text as a template"`
}

// IngestFileInput is the input schema for the ingest_file tool.
type IngestFileInput struct {
	ProjectID  string `json:"project_id" jsonschema:"the project to store the file in"`
	Path       string `json:"path" jsonschema:"path of the file on the server's disk"`
	Kind       string `json:"kind,omitempty" jsonschema:"declared kind (defaults to the file extension)"`
	IsTemplate bool   `json:"is_template,omitempty" jsonschema:"mark the file as a template"`
}

// IngestFolderInput is the input schema for the ingest_folder tool.
type IngestFolderInput struct {
	ProjectID  string `json:"project_id" jsonschema:"the project to store the files in"`
	Path       string `json:"path" jsonschema:"path of the folder on the server's disk"`
	IsTemplate bool   `json:"is_template,omitempty" jsonschema:"mark every file as a template"`
}

// SummaryInput is the input schema for the project_summary tool.
type SummaryInput struct {
	ProjectID string `json:"project_id" jsonschema:"the project to summarise"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the passages of a project's files most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assemble_context",
		Description: "Build a bounded context block from a project's most relevant passages",
	}, s.handleAssembleContext)

	if s.ports.Ingestion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_text",
			Description: "Store already-extracted text in a project's knowledge base",
		}, s.handleIngestText)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_file",
			Description: "Extract and store a file from the server's disk",
		}, s.handleIngestFile)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_folder",
			Description: "Extract and store every eligible file below a folder on the server's disk",
		}, s.handleIngestFolder)
	}

	if s.ports.Knowledge != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "project_summary",
			Description: "Count a project's files, chunks and vectors",
		}, s.handleProjectSummary)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	results, err := s.ports.Retrieval.Search(ctx, input.ProjectID, input.Query, topK)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results:             results,
		Count:               len(results),
		EmbeddingsAvailable: s.ports.Retrieval.Available(),
	}, nil
}

// handleAssembleContext handles the assemble_context tool invocation.
func (s *Server) handleAssembleContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	text, err := s.ports.Retrieval.AssembleContext(ctx, input.ProjectID, input.Query, input.MaxChars)
	if err != nil {
		return nil, ContextOutput{}, err
	}
	return nil, ContextOutput{Context: text, Length: len([]rune(text))}, nil
}

// handleIngestText handles the ingest_text tool invocation.
func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, domain.IngestOutcome, error) {
	outcome := s.ports.Ingestion.IngestText(ctx, domain.TextUpload{
		ProjectID:  input.ProjectID,
		Filename:   input.Filename,
		Text:       input.Text,
		Kind:       input.Kind,
		IsTemplate: input.IsTemplate,
	})
	return nil, outcome, nil
}

// handleIngestFile handles the ingest_file tool invocation.
func (s *Server) handleIngestFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestFileInput,
) (*mcp.CallToolResult, domain.IngestOutcome, error) {
	if input.Path == "" {
		return nil, domain.IngestOutcome{}, errors.New("path is required")
	}

	name := filepath.Base(input.Path)
	content, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, domain.Failed(name, fmt.Sprintf("read file: %v", err)), nil
	}

	kind := input.Kind
	if kind == "" {
		kind = domain.KindFromFilename(input.Path)
	}

	outcome := s.ports.Ingestion.IngestFile(ctx, domain.FileUpload{
		ProjectID:  input.ProjectID,
		Filename:   name,
		Content:    content,
		Kind:       kind,
		IsTemplate: input.IsTemplate,
	})
	return nil, outcome, nil
}

// handleIngestFolder handles the ingest_folder tool invocation.
func (s *Server) handleIngestFolder(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestFolderInput,
) (*mcp.CallToolResult, domain.FolderOutcome, error) {
	outcome := s.ports.Ingestion.IngestFolder(ctx, domain.FolderRequest{
		ProjectID:  input.ProjectID,
		Path:       input.Path,
		IsTemplate: input.IsTemplate,
	}, nil)
	return nil, outcome, nil
}

// handleProjectSummary handles the project_summary tool invocation.
func (s *Server) handleProjectSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummaryInput,
) (*mcp.CallToolResult, domain.ProjectSummary, error) {
	summary, err := s.ports.Knowledge.Summary(ctx, input.ProjectID)
	if err != nil {
		return nil, domain.ProjectSummary{}, err
	}
	return nil, *summary, nil
}
