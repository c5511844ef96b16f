// Package ooxml reads parts of Office Open XML packages (docx, xlsx, pptx).
package ooxml

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrPartNotFound indicates the package has no part with the requested name.
var ErrPartNotFound = errors.New("ooxml part not found")

// maxPartSize bounds the decompressed size of a single part.
const maxPartSize = 64 << 20

// Package is an opened OOXML zip container.
type Package struct {
	files map[string]*zip.File
}

// Open reads an OOXML package from memory.
func Open(content []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}
	return &Package{files: files}, nil
}

// Has reports whether the package contains a part.
func (p *Package) Has(name string) bool {
	_, ok := p.files[name]
	return ok
}

// Read returns the decompressed content of a part.
func (p *Package) Read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", name, err)
	}
	return data, nil
}

// Numbered returns the parts matching pattern, whose first capture group
// must be a number, in ascending numeric order.
// For example `^ppt/slides/slide(\d+)\.xml$` orders slide2 before slide10.
func (p *Package) Numbered(pattern *regexp.Regexp) []string {
	type numbered struct {
		name string
		n    int
	}

	var parts []numbered
	for name := range p.files {
		m := pattern.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, numbered{name: name, n: n})
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	names := make([]string, len(parts))
	for i, part := range parts {
		names[i] = part.name
	}
	return names
}

// ResolveTarget turns a relationship target into a part name.
// Relative targets are resolved against base, the directory of the
// part owning the relationship.
func ResolveTarget(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(base, target))
}
