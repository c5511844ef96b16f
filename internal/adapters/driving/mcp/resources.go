package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for projectrag resources.
	uriScheme = "projectrag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Knowledge == nil {
		return
	}

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "projects/{projectId}/files",
		Name:        "project-files",
		Description: "Files ingested into a project, most recently uploaded first",
		MIMEType:    "application/json",
	}, s.handleFilesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "files/{fileId}",
		Name:        "file-content",
		Description: "Extracted text of a file version",
		MIMEType:    "text/plain",
	}, s.handleFileContentResource)
}

// handleFilesResource returns the files of a project.
func (s *Server) handleFilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract projectId from URI: projectrag://projects/{projectId}/files
	projectID := extractProjectID(req.Params.URI)
	if projectID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	files, err := s.ports.Knowledge.ListFiles(ctx, projectID, true)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	type fileInfo struct {
		ID         int64     `json:"id"`
		Filename   string    `json:"filename"`
		Kind       string    `json:"kind"`
		ByteSize   int64     `json:"byte_size"`
		IsTemplate bool      `json:"is_template"`
		CreatedAt  time.Time `json:"created_at"`
		URI        string    `json:"uri"`
	}

	infos := make([]fileInfo, len(files))
	for i := range files {
		infos[i] = fileInfo{
			ID:         files[i].ID,
			Filename:   files[i].Filename,
			Kind:       files[i].Kind,
			ByteSize:   files[i].ByteSize,
			IsTemplate: files[i].IsTemplate,
			CreatedAt:  files[i].CreatedAt,
			URI:        fmt.Sprintf("%sfiles/%d", uriScheme, files[i].ID),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling files: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleFileContentResource returns the extracted text of a file version.
func (s *Server) handleFileContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract fileId from URI: projectrag://files/{fileId}
	id, ok := extractFileID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	file, err := s.ports.Knowledge.GetFile(ctx, id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     file.RawText,
		}},
	}, nil
}

// extractProjectID extracts the project ID from a URI like projectrag://projects/{projectId}/files.
func extractProjectID(uri string) string {
	const prefix = uriScheme + "projects/"
	const suffix = "/files"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractFileID extracts the file ID from a URI like projectrag://files/{fileId}.
func extractFileID(uri string) (int64, bool) {
	const prefix = uriScheme + "files/"

	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(uri, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
