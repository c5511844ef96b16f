// Package pptx extracts text from PowerPoint (PPTX) presentations.
package pptx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles PPTX presentations.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedKinds returns the declared kinds this extractor handles.
func (e *Extractor) SupportedKinds() []string {
	return []string{"pptx", "pptm"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 60
}

// Extract renders each slide as a "--- Slide N ---" header followed by its
// text paragraphs, slides in numeric order.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	pkg, err := ooxml.Open(raw.Content)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for i, part := range pkg.Numbered(slidePart) {
		data, err := pkg.Read(part)
		if err != nil {
			return "", err
		}
		lines, err := parseSlide(data)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", part, err)
		}

		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		fmt.Fprintf(&out, "--- Slide %d ---\n", i+1)
		for _, line := range lines {
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}

	return strings.TrimSpace(out.String()), nil
}

// parseSlide returns the non-empty text paragraphs of a slide.
func parseSlide(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		lines  []string
		para   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				para.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(para.String()); text != "" {
					lines = append(lines, text)
				}
				para.Reset()
			}
		}
	}
}
