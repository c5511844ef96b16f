// Package mcp provides an MCP (Model Context Protocol) server adapter for projectrag.
// It lets AI assistants ingest project files and retrieve relevant context.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
