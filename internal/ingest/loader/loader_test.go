package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "Osmosis moves water across membranes.")

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.ID == "" {
		t.Error("expected generated document ID")
	}
	if doc.Name != "notes.txt" {
		t.Errorf("expected name notes.txt, got %q", doc.Name)
	}
	if doc.Text != "Osmosis moves water across membranes." {
		t.Errorf("unexpected text: %q", doc.Text)
	}
	if doc.Paginated() {
		t.Error("plain text document should not be paginated")
	}
}

func TestLoadMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "summary.md", "# Heading\n\nSome content here.")

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Text == "" {
		t.Error("expected markdown body to load")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "slides.pptx", "binary-ish")

	_, err := Load(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadInvalidEncoding(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.txt", "broken \xff\xfe bytes")

	_, err := Load(path)
	if !errors.Is(err, ErrEncodingInvalid) {
		t.Errorf("expected ErrEncodingInvalid, got %v", err)
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blank.txt", "   \n\t ")

	_, err := Load(path)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"notes.txt", true},
		{"notes.MD", true},
		{"book.pdf", true},
		{"image.png", false},
		{"archive.tar.gz", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.path); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadDirSkipsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", "Valid study notes about enzymes.")
	writeFile(t, dir, "bad.txt", "broken \xff bytes")
	writeFile(t, dir, "skip.png", "not a document")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	var failed []string
	docs, err := LoadDir(dir, func(path string, err error) {
		failed = append(failed, filepath.Base(path))
	})
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "good.txt" {
		t.Errorf("expected only good.txt to load, got %d docs", len(docs))
	}
	if len(failed) != 1 || failed[0] != "bad.txt" {
		t.Errorf("expected bad.txt to be reported, got %v", failed)
	}
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
