// Package loader reads plain-text documents from files, directories and glob patterns.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"ragscholar/internal/domain"
)

// DefaultExtensions are the file types read as documents.
var DefaultExtensions = []string{".txt", ".md", ".markdown"}

// Loader resolves paths into documents. Directories are walked recursively
// and only files with a supported extension are read.
type Loader struct {
	extensions []string
}

func New(extensions ...string) *Loader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	norm := make([]string, len(extensions))
	for i, e := range extensions {
		norm[i] = strings.ToLower(e)
	}
	return &Loader{extensions: norm}
}

// Extensions returns the supported file extensions.
func (l *Loader) Extensions() []string {
	return slices.Clone(l.extensions)
}

// Supports reports whether path has a supported extension.
func (l *Loader) Supports(path string) bool {
	return slices.Contains(l.extensions, strings.ToLower(filepath.Ext(path)))
}

// Load reads every document matched by paths. Each entry may be a file, a
// directory or a glob pattern. Files are returned in path order without
// duplicates.
func (l *Loader) Load(paths []string) ([]domain.Document, error) {
	files, err := l.Resolve(paths)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		docs = append(docs, domain.Document{
			ID:      hashString(f),
			Name:    filepath.Base(f),
			Path:    f,
			Content: string(data),
		})
	}
	return docs, nil
}

// Resolve expands paths into the sorted list of supported files they name.
func (l *Loader) Resolve(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if !l.Supports(p) {
			return
		}
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
