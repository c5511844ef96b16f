package domain

// Chunk is a bounded slice of a SourceFile's extracted text.
// Chunk indices for one SourceFile are contiguous starting at 0.
type Chunk struct {
	// SourceFileID links the chunk to its file version. Zero before storage.
	SourceFileID int64

	// Index is the 0-based position of the chunk within the file.
	Index int

	// Text is the chunk content, trimmed of surrounding whitespace.
	Text string

	// ByteLength is len(Text) in UTF-8 bytes.
	ByteLength int
}
