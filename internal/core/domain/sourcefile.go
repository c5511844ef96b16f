package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"
)

// KindUnknown is the declared kind of a file without an extension.
const KindUnknown = "unknown"

// SourceFile is one ingested version of a file within a project.
// A SourceFile is never mutated once stored. Re-uploading the same
// filename with different content appends a new SourceFile.
type SourceFile struct {
	// ID is assigned by the content store on insert and increases monotonically.
	ID int64

	// ProjectID scopes the file. All retrieval is per project.
	ProjectID string

	// Filename is the display name, used for same-name versioning.
	Filename string

	// Kind is the declared kind, typically the lower-case extension without the dot.
	Kind string

	// ByteSize is the size of the extracted text in UTF-8 bytes.
	ByteSize int64

	// RawText is the extracted text the chunks were cut from.
	RawText string

	// ContentHash is the hex SHA-256 digest of RawText.
	ContentHash string

	// IsTemplate marks reference templates as opposed to data files.
	IsTemplate bool

	// CreatedAt is when the file version was stored.
	CreatedAt time.Time
}

// NewSourceFile is the input to ContentStore.PutFile.
// The store computes the hash and assigns the ID.
type NewSourceFile struct {
	ProjectID  string
	Filename   string
	Kind       string
	RawText    string
	IsTemplate bool
}

// FileUpload is the input to a single-file ingestion.
type FileUpload struct {
	// ProjectID is the project to ingest into.
	ProjectID string

	// Filename is the display name of the file.
	Filename string

	// Content is the raw file bytes.
	Content []byte

	// Kind is the declared kind. When empty it is derived from Filename.
	Kind string

	// IsTemplate marks the file as a reference template.
	IsTemplate bool
}

// RawFile is the input to text extraction.
type RawFile struct {
	// Filename is used in placeholder and error text.
	Filename string

	// Kind selects the extractor.
	Kind string

	// Content is the raw file bytes.
	Content []byte
}

// HashContent returns the hex SHA-256 digest of extracted text.
// The digest is the deduplication key together with project and filename.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// KindFromFilename derives a declared kind from a filename's extension.
// "Report.PDF" yields "pdf"; a name without an extension yields KindUnknown.
func KindFromFilename(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return KindUnknown
	}
	return strings.ToLower(ext)
}

// NormaliseKind lower-cases a declared kind and strips a leading dot.
func NormaliseKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	kind = strings.TrimPrefix(kind, ".")
	if kind == "" {
		return KindUnknown
	}
	return kind
}

// TextUpload is the input to ingesting already-extracted text.
type TextUpload struct {
	ProjectID  string
	Filename   string
	Text       string
	Kind       string
	IsTemplate bool
}

// FolderRequest is the input to a folder ingestion.
type FolderRequest struct {
	// ProjectID is the project to ingest into.
	ProjectID string

	// Path is the folder to walk recursively.
	Path string

	// IsTemplate marks every ingested file as a template.
	IsTemplate bool
}
