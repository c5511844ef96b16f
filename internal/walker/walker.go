// Package walker lists the files of a folder that are eligible for ingestion.
//
// Hidden files and directories (names starting with ".") are never listed.
// A folder may contain an ignore file with gitignore-style patterns; its
// patterns apply to everything below the folder that holds it.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/logger"
)

// Walker finds eligible files below a root folder.
type Walker struct {
	ignoreFile string
}

// Option configures a Walker.
type Option func(*Walker)

// WithIgnoreFile sets the name of the per-folder ignore file.
// An empty name disables ignore files.
func WithIgnoreFile(name string) Option {
	return func(w *Walker) {
		w.ignoreFile = name
	}
}

// New creates a walker. The ignore file defaults to .ragignore.
func New(opts ...Option) *Walker {
	w := &Walker{ignoreFile: domain.DefaultIgnoreFile}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IgnoreFile returns the configured ignore file name.
func (w *Walker) IgnoreFile() string {
	return w.ignoreFile
}

// Files returns the regular files below root in lexical order.
// Returns domain.ErrFolderNotFound if root does not exist.
func (w *Walker) Files(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFolderNotFound, root)
		}
		return nil, fmt.Errorf("stat folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a folder", domain.ErrInvalidInput, root)
	}

	rules := newRuleSet(root, w.ignoreFile)
	var files []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// Unreadable entries are skipped rather than aborting the walk.
			logger.Warn("walk %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		if IsHidden(d.Name()) || rules.ignored(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Eligible reports whether path below root would be listed by Files.
// It checks hidden path components and the ignore files of every folder
// between root and path; it does not require path to exist.
func (w *Walker) Eligible(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if IsHidden(part) {
			return false
		}
	}

	info, err := os.Stat(path)
	isDir := err == nil && info.IsDir()
	return !newRuleSet(root, w.ignoreFile).ignored(path, isDir)
}

// IsHidden reports whether a file or directory name is hidden.
// "." and ".." are not hidden.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// ruleSet lazily loads ignore files per directory below root.
type ruleSet struct {
	root     string
	name     string
	matchers map[string]*gitignore.GitIgnore
}

func newRuleSet(root, name string) *ruleSet {
	return &ruleSet{
		root:     filepath.Clean(root),
		name:     name,
		matchers: make(map[string]*gitignore.GitIgnore),
	}
}

// ignored checks path against the ignore files of root and every folder
// between root and path, each relative to the folder holding it.
func (r *ruleSet) ignored(path string, isDir bool) bool {
	if r.name == "" {
		return false
	}

	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if m := r.matcher(dir); m != nil {
			rel, err := filepath.Rel(dir, path)
			if err == nil {
				rel = filepath.ToSlash(rel)
				if m.MatchesPath(rel) || (isDir && m.MatchesPath(rel+"/")) {
					return true
				}
			}
		}
		if dir == r.root || len(dir) <= len(r.root) {
			return false
		}
	}
}

func (r *ruleSet) matcher(dir string) *gitignore.GitIgnore {
	if m, ok := r.matchers[dir]; ok {
		return m
	}

	var m *gitignore.GitIgnore
	path := filepath.Join(dir, r.name)
	if _, err := os.Stat(path); err == nil {
		compiled, err := gitignore.CompileIgnoreFile(path)
		if err != nil {
			logger.Warn("ignore file %s: %v", path, err)
		} else {
			m = compiled
		}
	}
	r.matchers[dir] = m
	return m
}
