package progress

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordDocumentUpsert(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.RecordDocument(ctx, "doc-1", "notes.txt", 4); err != nil {
		t.Fatalf("RecordDocument failed: %v", err)
	}
	// Re-indexing refreshes, not duplicates.
	if err := store.RecordDocument(ctx, "doc-1", "notes.txt", 6); err != nil {
		t.Fatalf("RecordDocument update failed: %v", err)
	}

	docs, err := store.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].ChunkCount != 6 {
		t.Errorf("expected refreshed chunk count 6, got %d", docs[0].ChunkCount)
	}
	if docs[0].IndexedAt.IsZero() {
		t.Error("expected indexed_at to be set")
	}
}

func TestRecordQuizAttempt(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.RecordQuizAttempt(ctx, "primary keys", 5, 4); err != nil {
		t.Fatalf("RecordQuizAttempt failed: %v", err)
	}
	if err := store.RecordQuizAttempt(ctx, "osmosis", 5, 2); err != nil {
		t.Fatalf("RecordQuizAttempt failed: %v", err)
	}

	attempts, err := store.Attempts(ctx, "primary keys")
	if err != nil {
		t.Fatalf("Attempts failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt for topic, got %d", len(attempts))
	}
	if got := attempts[0].Accuracy(); got != 0.8 {
		t.Errorf("expected accuracy 0.8, got %v", got)
	}

	all, err := store.Attempts(ctx, "")
	if err != nil {
		t.Fatalf("Attempts failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 attempts overall, got %d", len(all))
	}
}

func TestRecordQuizAttemptInvalid(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.RecordQuizAttempt(ctx, "topic", 5, 6); err == nil {
		t.Error("expected error for correct > questions")
	}
	if err := store.RecordQuizAttempt(ctx, "topic", -1, 0); err == nil {
		t.Error("expected error for negative question count")
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	store.RecordDocument(ctx, "doc-1", "a.txt", 3)
	store.RecordDocument(ctx, "doc-2", "b.pdf", 7)
	store.RecordQuizAttempt(ctx, "topic", 5, 4)
	store.RecordQuizAttempt(ctx, "topic", 10, 6)

	stats, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if stats.Documents != 2 || stats.Chunks != 10 {
		t.Errorf("unexpected document stats: %+v", stats)
	}
	if stats.QuizAttempts != 2 || stats.QuestionsSeen != 15 || stats.CorrectTotal != 10 {
		t.Errorf("unexpected quiz stats: %+v", stats)
	}
	if acc := stats.Accuracy(); acc < 0.66 || acc > 0.67 {
		t.Errorf("unexpected overall accuracy: %v", acc)
	}
}

func TestSummaryEmpty(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if stats.Documents != 0 || stats.QuizAttempts != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
	if stats.Accuracy() != 0 {
		t.Errorf("empty accuracy should be 0, got %v", stats.Accuracy())
	}
}
