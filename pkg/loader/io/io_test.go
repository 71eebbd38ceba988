package io

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/OFFIS-RIT/kgraph/pkg/loader"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"b.txt":         {Data: []byte("Bob")},
		"a.pdf":         {Data: []byte("%PDF")},
		"c.docx":        {Data: []byte("PK")},
		"notes.md":      {Data: []byte("# skip")},
		"image.png":     {Data: []byte{0x89}},
		"sub/d.txt":     {Data: []byte("Dora")},
		"sub/deep/e.md": {Data: []byte("skip")},
	}
}

func names(docs []loader.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Filename)
	}
	return out
}

func TestLoadFiltersAndSorts(t *testing.T) {
	l := NewIOLoader(WithFS(testFS()))
	docs, _, err := l.Load(context.Background(), "example data")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"a.pdf", "b.txt", "c.docx"}
	if got := names(docs); !reflect.DeepEqual(got, want) {
		t.Fatalf("Load() = %#v, want %#v", got, want)
	}
	if docs[1].FileType != loader.FileTypeText || string(docs[1].Content) != "Bob" {
		t.Fatalf("unexpected document %#v", docs[1])
	}
}

func TestLoadRecursive(t *testing.T) {
	l := NewIOLoader(WithFS(testFS()), WithRecursive())
	docs, _, err := l.Load(context.Background(), ".")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"a.pdf", "b.txt", "c.docx", filepath.FromSlash("sub/d.txt")}
	if got := names(docs); !reflect.DeepEqual(got, want) {
		t.Fatalf("Load() = %#v, want %#v", got, want)
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	l := NewIOLoader()
	if _, _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

// unreadableFS lists every file of MapFS but fails to open the ones in deny.
type unreadableFS struct {
	fstest.MapFS
	deny map[string]bool
}

func (f unreadableFS) Open(name string) (fs.File, error) {
	if f.deny[name] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return f.MapFS.Open(name)
}

func (f unreadableFS) ReadFile(name string) ([]byte, error) {
	if f.deny[name] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return f.MapFS.ReadFile(name)
}

func TestLoadSkipsUnreadableFile(t *testing.T) {
	fsys := unreadableFS{
		MapFS: fstest.MapFS{
			"a.txt": {Data: []byte("Alice")},
			"b.txt": {Data: []byte("Bob")},
			"c.txt": {Data: []byte("Carol")},
		},
		deny: map[string]bool{"b.txt": true},
	}
	docs, skipped, err := NewIOLoader(WithFS(fsys)).Load(context.Background(), ".")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, want := names(docs), []string{"a.txt", "c.txt"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Load() = %#v, want %#v", got, want)
	}
	if len(skipped) != 1 || skipped[0].Filename != "b.txt" || !errors.Is(skipped[0].Err, fs.ErrPermission) {
		t.Fatalf("skipped = %+v", skipped)
	}
}

func TestLoadSkipsDanglingSymlink(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{"a.txt": "Alice", "c.txt": "Carol"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Symlink(filepath.Join(dir, "missing.txt"), filepath.Join(dir, "b.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	docs, skipped, err := NewIOLoader().Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, want := names(docs), []string{"a.txt", "c.txt"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Load() = %#v, want %#v", got, want)
	}
	if len(skipped) != 1 || skipped[0].Filename != "b.txt" || skipped[0].Err == nil {
		t.Fatalf("skipped = %+v", skipped)
	}
}
