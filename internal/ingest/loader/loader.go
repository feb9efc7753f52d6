// Package loader turns study material files into documents ready for
// indexing. Plain text and markdown load as a single body; PDFs load
// page by page so chunk citations can name the source page.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/khanalasmit/rag-study-assistant/internal/rag"
)

// Common errors for document loading
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEncodingInvalid   = errors.New("document is not valid UTF-8")
	ErrEmptyDocument     = errors.New("document contains no text")
)

// Document is one loaded study source. Paginated sources carry Pages;
// flat sources carry Text.
type Document struct {
	ID    string
	Name  string
	Path  string
	Text  string
	Pages []rag.PageText
}

// Paginated reports whether the document loaded page by page.
func (d *Document) Paginated() bool {
	return len(d.Pages) > 0
}

// Load reads one file into a Document, dispatching on extension.
// Supported formats: .txt, .md, .pdf.
func Load(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return loadText(path)
	case ".pdf":
		return loadPDF(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Supported reports whether Load understands the file's extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

func newDocument(path string) *Document {
	return &Document{
		ID:   uuid.NewString(),
		Name: filepath.Base(path),
		Path: path,
	}
}

func loadText(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrEncodingInvalid, path)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	doc := newDocument(path)
	doc.Text = text
	return doc, nil
}

func loadPDF(path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	doc := newDocument(path)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Scanned or image-only pages yield no extractable text.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, rag.PageText{Page: i, Text: text})
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	return doc, nil
}

// LoadDir loads every supported file directly under dir, skipping
// subdirectories and unsupported extensions. Files that fail to load
// are reported through onError and do not abort the rest of the batch.
func LoadDir(dir string, onError func(path string, err error)) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !Supported(path) {
			continue
		}
		doc, err := Load(path)
		if err != nil {
			if onError != nil {
				onError(path, err)
			}
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
