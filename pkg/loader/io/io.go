package io

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/OFFIS-RIT/kgraph/pkg/loader"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
)

// IOLoader loads documents from a directory on the local filesystem.
// Only files with one of loader.SupportedExtensions are read.
type IOLoader struct {
	recursive bool
	fsys      func(dir string) fs.FS
}

// IOLoaderOption configures an IOLoader.
type IOLoaderOption func(*IOLoader)

// WithRecursive makes the loader descend into subdirectories. Filenames are
// then reported relative to the loaded directory.
func WithRecursive() IOLoaderOption {
	return func(l *IOLoader) {
		l.recursive = true
	}
}

// WithFS replaces the filesystem the loader reads from.
func WithFS(fsys fs.FS) IOLoaderOption {
	return func(l *IOLoader) {
		l.fsys = func(string) fs.FS { return fsys }
	}
}

// NewIOLoader creates a new filesystem-based document loader.
func NewIOLoader(opts ...IOLoaderOption) *IOLoader {
	l := &IOLoader{fsys: os.DirFS}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every supported file in dir, ordered by filename. Files that
// cannot be read are logged and returned as skipped.
func (l *IOLoader) Load(ctx context.Context, dir string) ([]loader.Document, []loader.SkippedFile, error) {
	fsys := l.fsys(dir)

	var names []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != "." && !l.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !loader.IsSupported(path) {
			logger.Debug("[Loader] Skipping unsupported file", "file", path)
			return nil
		}
		names = append(names, path)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(names)

	var (
		docs    = make([]loader.Document, 0, len(names))
		skipped []loader.SkippedFile
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		filename := filepath.FromSlash(name)
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			logger.Warn("[Loader] Skipping unreadable file", "file", filepath.Join(dir, filename), "err", err)
			skipped = append(skipped, loader.SkippedFile{Filename: filename, Err: err})
			continue
		}
		docs = append(docs, loader.NewDocument(filename, content))
	}
	return docs, skipped, nil
}
