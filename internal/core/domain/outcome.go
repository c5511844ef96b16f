package domain

// IngestStatus classifies the result of ingesting one file.
type IngestStatus string

// Ingestion statuses.
const (
	// IngestCreated means a new SourceFile was stored.
	IngestCreated IngestStatus = "created"

	// IngestUnchanged means an identical version already existed. It counts as success.
	IngestUnchanged IngestStatus = "unchanged"

	// IngestFailed means the file could not be ingested; Reason says why.
	IngestFailed IngestStatus = "failed"
)

// Succeeded reports whether the status counts as a success.
func (s IngestStatus) Succeeded() bool {
	return s == IngestCreated || s == IngestUnchanged
}

// String returns the string representation.
func (s IngestStatus) String() string {
	return string(s)
}

// previewLength is the number of characters kept in IngestOutcome.Preview.
const previewLength = 200

// IngestOutcome is the structured result of ingesting a single file.
// Ingestion never returns an error for per-file problems; they land here.
type IngestOutcome struct {
	Status   IngestStatus `json:"status"`
	FileID   int64        `json:"file_id,omitempty"`
	Filename string       `json:"filename"`
	Kind     string       `json:"kind,omitempty"`

	// ChunksCreated is the number of chunks stored.
	ChunksCreated int `json:"chunks_created"`

	// VectorsCreated is the number of vectors stored.
	VectorsCreated int `json:"vectors_created"`

	// TextOnly is set when chunks were stored without vectors because the
	// embedding provider was unavailable.
	TextOnly bool `json:"text_only,omitempty"`

	// Preview holds the first characters of the extracted text.
	Preview string `json:"preview,omitempty"`

	// Reason explains failures and no-ops.
	Reason string `json:"reason,omitempty"`
}

// Failed returns a failed outcome for a file.
func Failed(filename, reason string) IngestOutcome {
	return IngestOutcome{Status: IngestFailed, Filename: filename, Reason: reason}
}

// Preview returns the first characters of text, counted in runes.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength])
}

// FolderOutcome aggregates the results of a folder ingestion.
// Total equals Succeeded + Failed; Unchanged is a subset of Succeeded.
type FolderOutcome struct {
	Path      string          `json:"path"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Unchanged int             `json:"unchanged"`
	Results   []IngestOutcome `json:"results"`

	// Err is set when the folder itself could not be walked.
	Err string `json:"error,omitempty"`
}

// Add records a per-file outcome in the aggregate.
func (f *FolderOutcome) Add(o IngestOutcome) {
	f.Total++
	if o.Status.Succeeded() {
		f.Succeeded++
	} else {
		f.Failed++
	}
	if o.Status == IngestUnchanged {
		f.Unchanged++
	}
	f.Results = append(f.Results, o)
}

// OK reports whether the folder was walked and every file succeeded.
func (f *FolderOutcome) OK() bool {
	return f.Err == "" && f.Failed == 0
}

// EmbeddingStatus is the explicit outcome of embedding one chunk.
type EmbeddingStatus int

// Embedding statuses.
const (
	EmbeddingOK EmbeddingStatus = iota
	EmbeddingUnavailable
	EmbeddingFailed
)

// EmbeddingResult pairs a chunk with its embedding status.
type EmbeddingResult struct {
	Chunk  Chunk
	Vector []float32
	Status EmbeddingStatus
}
