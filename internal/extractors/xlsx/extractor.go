// Package xlsx extracts text from Excel (XLSX) workbooks.
package xlsx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	workbookPart      = "xl/workbook.xml"
	workbookRelsPart  = "xl/_rels/workbook.xml.rels"
	sharedStringsPart = "xl/sharedStrings.xml"
)

var worksheetPart = regexp.MustCompile(`^xl/worksheets/sheet(\d+)\.xml$`)

// Extractor handles XLSX workbooks.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedKinds returns the declared kinds this extractor handles.
func (e *Extractor) SupportedKinds() []string {
	return []string{"xlsx", "xlsm"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 60
}

// Extract renders every sheet as a "--- Sheet: <name> ---" header followed
// by one line per non-empty row, cells joined by " | ".
func (e *Extractor) Extract(_ context.Context, raw *domain.RawFile) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	pkg, err := ooxml.Open(raw.Content)
	if err != nil {
		return "", err
	}

	shared, err := readSharedStrings(pkg)
	if err != nil {
		return "", err
	}

	sheets, err := listSheets(pkg)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, sheet := range sheets {
		data, err := pkg.Read(sheet.part)
		if err != nil {
			return "", err
		}
		rows, err := parseSheet(data, shared)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheet.name, err)
		}

		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		fmt.Fprintf(&out, "--- Sheet: %s ---\n", sheet.name)
		for _, row := range rows {
			out.WriteString(row)
			out.WriteByte('\n')
		}
	}

	return strings.TrimSpace(out.String()), nil
}

type sheetRef struct {
	name string
	part string
}

type workbookXML struct {
	Sheets []struct {
		Name string     `xml:"name,attr"`
		Attr []xml.Attr `xml:",any,attr"`
	} `xml:"sheets>sheet"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// listSheets returns sheets in workbook order. Packages without a
// workbook part fall back to the numbered worksheet parts.
func listSheets(pkg *ooxml.Package) ([]sheetRef, error) {
	if !pkg.Has(workbookPart) || !pkg.Has(workbookRelsPart) {
		return numberedSheets(pkg), nil
	}

	wbData, err := pkg.Read(workbookPart)
	if err != nil {
		return nil, err
	}
	var wb workbookXML
	if err := xml.Unmarshal(wbData, &wb); err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}

	relData, err := pkg.Read(workbookRelsPart)
	if err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(relData, &rels); err != nil {
		return nil, fmt.Errorf("parse workbook relationships: %w", err)
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		targets[rel.ID] = ooxml.ResolveTarget(path.Dir(workbookPart), rel.Target)
	}

	sheets := make([]sheetRef, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		for _, attr := range s.Attr {
			if attr.Name.Local != "id" {
				continue
			}
			if part, ok := targets[attr.Value]; ok && pkg.Has(part) {
				sheets = append(sheets, sheetRef{name: s.Name, part: part})
			}
		}
	}
	return sheets, nil
}

func numberedSheets(pkg *ooxml.Package) []sheetRef {
	parts := pkg.Numbered(worksheetPart)
	sheets := make([]sheetRef, len(parts))
	for i, part := range parts {
		sheets[i] = sheetRef{name: "Sheet" + strconv.Itoa(i+1), part: part}
	}
	return sheets
}

// readSharedStrings returns the shared string table, or nil when absent.
func readSharedStrings(pkg *ooxml.Package) ([]string, error) {
	if !pkg.Has(sharedStringsPart) {
		return nil, nil
	}

	data, err := pkg.Read(sharedStringsPart)
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		items  []string
		item   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse shared strings: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.CharData:
			if inText {
				item.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "si":
				items = append(items, item.String())
				item.Reset()
			}
		}
	}
}

// parseSheet returns one rendered line per non-empty row.
func parseSheet(data []byte, shared []string) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		rows      []string
		row       []string
		cellType  string
		value     strings.Builder
		capturing bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				row = row[:0]
			case "c":
				cellType = attr(t, "t")
				value.Reset()
			case "v", "t":
				capturing = true
			}
		case xml.CharData:
			if capturing {
				value.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "t":
				capturing = false
			case "c":
				row = append(row, cellText(cellType, value.String(), shared))
			case "row":
				if line := renderRow(row); line != "" {
					rows = append(rows, line)
				}
			}
		}
	}
}

func cellText(cellType, value string, shared []string) string {
	switch cellType {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "b":
		if strings.TrimSpace(value) == "1" {
			return "TRUE"
		}
		return "FALSE"
	default:
		return value
	}
}

// renderRow joins cells, dropping trailing empty cells. All-empty rows render as "".
func renderRow(cells []string) string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	if end == 0 {
		return ""
	}
	return strings.Join(cells[:end], " | ")
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
