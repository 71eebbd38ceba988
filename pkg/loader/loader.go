package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/OFFIS-RIT/kgraph/pkg/loader/doc"
	"github.com/OFFIS-RIT/kgraph/pkg/loader/pdf"
)

// FileType is the declared type of an input file, derived from its
// extension.
type FileType string

const (
	FileTypeText FileType = "text"
	FileTypePDF  FileType = "pdf"
	FileTypeDocx FileType = "docx"
)

// SupportedExtensions lists the file extensions loaders pick up.
var SupportedExtensions = []string{".txt", ".pdf", ".docx"}

var (
	// ErrExtraction is wrapped by every failure of ExtractText.
	ErrExtraction = errors.New("text extraction failed")
	// ErrUnsupportedType is returned for content that is not valid UTF-8 and
	// whose declared type has no parser.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ExtractionError describes why the text of a file could not be extracted.
type ExtractionError struct {
	FileType FileType
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExtraction, e.FileType, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}

// Document is a single input file held in memory.
//
// Documents are ephemeral; only the graph derived from them is persisted.
type Document struct {
	Filename string
	Content  []byte
	FileType FileType
}

// NewDocument creates a Document and derives its type from the filename.
func NewDocument(filename string, content []byte) Document {
	return Document{
		Filename: filename,
		Content:  content,
		FileType: FileTypeFromName(filename),
	}
}

// FileTypeFromName returns the lower-cased final extension of filename.
// "txt" maps to FileTypeText; unknown extensions are returned verbatim so they
// still show up in reports. A name without an extension has no type.
func FileTypeFromName(filename string) FileType {
	base := filepath.Base(filename)
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return ""
	}
	ext := strings.ToLower(base[idx+1:])
	if ext == "txt" {
		return FileTypeText
	}
	return FileType(ext)
}

// IsSupported reports whether filename carries one of SupportedExtensions.
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// DocumentsFromMap turns a filename to content mapping into documents ordered
// by filename.
func DocumentsFromMap(files map[string][]byte) []Document {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		docs = append(docs, NewDocument(name, files[name]))
	}
	return docs
}

// ExtractText returns the plain text of content.
//
// Content that is valid UTF-8 is returned as text whatever its declared type,
// so a ".pdf" file holding plain text is read as plain text. Otherwise the
// declared type selects the parser: PDF pages are joined with a single space,
// DOCX paragraphs with a newline. Every failure is an *ExtractionError.
func ExtractText(content []byte, fileType FileType) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}

	var (
		text string
		err  error
	)
	switch fileType {
	case FileTypePDF:
		text, err = pdf.ExtractText(content)
	case FileTypeDocx:
		text, err = doc.ExtractText(content)
	default:
		err = ErrUnsupportedType
	}
	if err != nil {
		return "", &ExtractionError{FileType: fileType, Err: err}
	}
	return text, nil
}

// Text extracts the text of the document.
func (d Document) Text() (string, error) {
	return ExtractText(d.Content, d.FileType)
}

// SkippedFile is a supported file a loader found but could not read.
type SkippedFile struct {
	Filename string
	Err      error
}

// DocumentLoader reads all supported documents below a location such as a
// directory or an object storage prefix. Files that cannot be read are
// skipped and returned alongside the documents; the error is reserved for a
// location that cannot be listed.
type DocumentLoader interface {
	Load(ctx context.Context, location string) ([]Document, []SkippedFile, error)
}
