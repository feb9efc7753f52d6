package notes

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
)

func initNotesRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
	}

	_, err = wt.Commit("add notes", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Student",
			Email: "student@example.com",
			When:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return dir
}

func TestCollectPath(t *testing.T) {
	dir := initNotesRepo(t, map[string]string{
		"biology/cells.md": "# Cells\n\nThe cell is the basic unit of life.",
		"chemistry.txt":    "Atoms bond to form molecules.",
		"diagram.png":      "\x89PNG not text",
		"README":           "no extension, skipped",
	})

	notes, err := CollectPath(dir)
	if err != nil {
		t.Fatalf("CollectPath failed: %v", err)
	}
	if len(notes) != 2 {
		for _, n := range notes {
			t.Logf("note: %s", n.Path)
		}
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}

	byPath := make(map[string]Note)
	for _, n := range notes {
		byPath[n.Path] = n
	}
	cells, ok := byPath["biology/cells.md"]
	if !ok {
		t.Fatal("expected biology/cells.md to be collected")
	}
	if cells.Text == "" || cells.Hash == "" {
		t.Errorf("note missing content or hash: %+v", cells)
	}
	if cells.Updated.IsZero() {
		t.Error("note missing commit time")
	}
}

func TestCollectNoNotes(t *testing.T) {
	dir := initNotesRepo(t, map[string]string{
		"image.png": "not a note",
	})

	_, err := CollectPath(dir)
	if !errors.Is(err, ErrNoNotes) {
		t.Errorf("expected ErrNoNotes, got %v", err)
	}
}

func TestCollectPathMissingRepo(t *testing.T) {
	_, err := CollectPath(filepath.Join(t.TempDir(), "not-a-repo"))
	if err == nil {
		t.Error("expected error for missing repository")
	}
}

func TestNoteDocID(t *testing.T) {
	note := Note{
		Path: "biology/cell division.md",
		Hash: "0123456789abcdef0123456789abcdef01234567",
	}
	id := note.DocID()
	if id != "note-0123456789ab-biology-cell_division" {
		t.Errorf("unexpected DocID: %q", id)
	}

	// Same content, same identity
	if note.DocID() != id {
		t.Error("DocID must be deterministic")
	}
}

func TestNoteDocIDBounded(t *testing.T) {
	deep := Note{
		Path: "semester-2/biology/unit-4-cell-division/lecture-notes/mitosis and meiosis compared in depth.md",
		Hash: "0123456789abcdef0123456789abcdef01234567",
	}
	id := deep.DocID()
	if len(id) > 64 {
		t.Errorf("DocID %q is %d chars, must fit a 64-char identifier field", id, len(id))
	}
	if !strings.HasPrefix(id, "note-0123456789ab-") {
		t.Errorf("truncation must preserve the hash prefix, got %q", id)
	}

	// Truncated paths stay distinct through the blob hash.
	other := deep
	other.Hash = "fedcba9876543210fedcba9876543210fedcba98"
	if other.DocID() == id {
		t.Error("notes with different content must keep distinct DocIDs")
	}
}

func TestCollectURL_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	if os.Getenv("NOTES_TEST_REPO") == "" {
		t.Skip("NOTES_TEST_REPO not set")
	}

	notes, err := CollectURL(os.Getenv("NOTES_TEST_REPO"))
	if err != nil {
		t.Fatalf("CollectURL failed: %v", err)
	}
	if len(notes) == 0 {
		t.Fatal("expected notes from remote repository")
	}
}
