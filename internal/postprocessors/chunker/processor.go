// Package chunker provides a boundary-aware, overlapping text chunker.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits text into chunks of at most chunkSize characters.
// Characters are Unicode code points. A window that does not reach the end
// of the text is shortened to the latest sentence, line or word boundary in
// its second half; the boundary character stays in the chunk.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker with the given options.
// Returns domain.ErrInvalidChunkConfig unless 0 <= overlap < size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 || p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: size %d, overlap %d", domain.ErrInvalidChunkConfig, p.chunkSize, p.overlap)
	}

	return p, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(opts ...Option) *Processor {
	p, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// FromSettings creates a chunker from chunking settings.
func FromSettings(s domain.ChunkingSettings) (*Processor, error) {
	return New(WithChunkSize(s.Size), WithOverlap(s.Overlap))
}

// Size returns the configured chunk size.
func (p *Processor) Size() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// span is a half-open window [start, end) over the text's runes.
type span struct {
	start, end int
}

// Chunk splits text into chunks with contiguous indices from 0.
// Windows that are empty after trimming whitespace are dropped.
func (p *Processor) Chunk(text string) []domain.Chunk {
	runes := []rune(text)
	windows := p.spans(runes)

	chunks := make([]domain.Chunk, 0, len(windows))
	for _, w := range windows {
		content := strings.TrimSpace(string(runes[w.start:w.end]))
		if content == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Index:      len(chunks),
			Text:       content,
			ByteLength: len(content),
		})
	}

	return chunks
}

// spans computes the chunk windows. Every rune lies in at least one window
// and each window starts strictly after the previous one.
func (p *Processor) spans(runes []rune) []span {
	n := len(runes)
	if n == 0 {
		return nil
	}

	windows := make([]span, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0

	for {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else if b := p.boundary(runes, start, end); b > 0 {
			end = b
		}

		windows = append(windows, span{start: start, end: end})

		if end == n {
			return windows
		}
		start = end - p.overlap
	}
}

// boundary returns the window end just after the latest boundary rune in
// the second half of runes[start:end], or 0 when there is none. A boundary
// is only accepted if the shortened window stays longer than the overlap,
// otherwise the next window would not advance.
func (p *Processor) boundary(runes []rune, start, end int) int {
	half := start + p.chunkSize/2
	for i := end - 1; i > half; i-- {
		if isBoundary(runes[i]) && i+1-start > p.overlap {
			return i + 1
		}
	}
	return 0
}

func isBoundary(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', ' ':
		return true
	default:
		return false
	}
}
