// Package notes ingests study notes kept in a Git repository. Many
// students version their markdown notes; pulling them straight from a
// repo means the index can track exactly what is committed.
package notes

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/memory"
)

// Common errors for notes ingestion
var (
	ErrNoNotes = errors.New("repository contains no note files")
)

// Note is one versioned note file at the repository HEAD.
type Note struct {
	Path    string    // path inside the repository
	Text    string    // file contents
	Hash    string    // blob hash, stable identity across renames
	Updated time.Time // author time of the HEAD commit
}

// maxPathTag bounds the path portion of a DocID so the full ID fits
// the dense index's 64-character doc_id field. Truncated paths stay
// unambiguous through the hash prefix.
const maxPathTag = 46

// DocID returns a stable document identifier for the note. The blob
// hash prefix keeps re-ingestion idempotent: unchanged notes map to
// the same chunks.
func (n Note) DocID() string {
	tag := sanitizePath(n.Path)
	for len(tag) > maxPathTag {
		_, size := utf8.DecodeLastRuneInString(tag)
		tag = tag[:len(tag)-size]
	}
	return fmt.Sprintf("note-%s-%s", shortHash(n.Hash), tag)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func sanitizePath(p string) string {
	p = strings.TrimSuffix(p, filepath.Ext(p))
	return strings.NewReplacer("/", "-", " ", "_", ":", "_").Replace(p)
}

// OpenRepository opens a Git repository from a local path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpen(path)
}

// CloneRepository clones a Git repository to memory
func CloneRepository(url string) (*git.Repository, error) {
	return git.Clone(memory.NewStorage(), nil, &git.CloneOptions{
		URL: url,
	})
}

// isNoteFile reports whether a repository path looks like a note.
func isNoteFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt":
		return true
	}
	return false
}

// Collect walks the repository HEAD and returns every readable note
// file. Binary and non-UTF-8 files are skipped, not errors: a notes
// repo often carries images alongside the text.
func Collect(repo *git.Repository) ([]Note, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD tree: %w", err)
	}

	var notes []Note
	err = tree.Files().ForEach(func(file *object.File) error {
		if !isNoteFile(file.Name) {
			return nil
		}
		if isBinary, _ := file.IsBinary(); isBinary {
			return nil
		}
		content, err := file.Contents()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		if !utf8.ValidString(content) || strings.TrimSpace(content) == "" {
			return nil
		}
		notes = append(notes, Note{
			Path:    file.Name,
			Text:    content,
			Hash:    file.Hash.String(),
			Updated: commit.Author.When,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk HEAD tree: %w", err)
	}

	if len(notes) == 0 {
		return nil, ErrNoNotes
	}
	return notes, nil
}

// CollectPath opens a local repository and collects its notes.
func CollectPath(path string) ([]Note, error) {
	repo, err := OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", path, err)
	}
	return Collect(repo)
}

// CollectURL clones a remote repository into memory and collects its
// notes. Nothing touches disk.
func CollectURL(url string) ([]Note, error) {
	repo, err := CloneRepository(url)
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
	return Collect(repo)
}
