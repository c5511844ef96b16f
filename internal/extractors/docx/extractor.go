// Package docx extracts text from Word (DOCX) documents.
package docx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedKinds returns the declared kinds this extractor handles.
func (e *Extractor) SupportedKinds() []string {
	return []string{"docx", "docm", "dotx"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 60
}

// Extract returns paragraphs one per line in document order. Table rows
// become single lines with cells joined by " | ".
func (e *Extractor) Extract(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	pkg, err := ooxml.Open(raw.Content)
	if err != nil {
		return "", err
	}

	data, err := pkg.Read(documentPart)
	if err != nil {
		return "", err
	}

	return parseDocument(data)
}

// parseDocument walks word/document.xml as a token stream.
func parseDocument(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		out      strings.Builder
		para     strings.Builder
		cell     []string
		row      []string
		inText   bool
		tblDepth int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			case "tbl":
				tblDepth++
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
				text := strings.TrimSpace(para.String())
				para.Reset()
				if text == "" {
					continue
				}
				if tblDepth > 0 {
					cell = append(cell, text)
				} else {
					out.WriteString(text)
					out.WriteByte('\n')
				}
			case "tc":
				if tblDepth == 1 {
					row = append(row, strings.Join(cell, " "))
					cell = nil
				}
			case "tr":
				if tblDepth == 1 {
					writeRow(&out, row)
					row = nil
				}
			case "tbl":
				tblDepth--
			}
		}
	}

	return strings.TrimSpace(out.String()), nil
}

func writeRow(out *strings.Builder, cells []string) {
	for _, c := range cells {
		if c != "" {
			out.WriteString(strings.Join(cells, " | "))
			out.WriteByte('\n')
			return
		}
	}
}
