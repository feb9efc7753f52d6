// Package progress persists study activity: which documents are
// indexed and how quiz attempts went over time. It backs the stats
// command so a student can see coverage and accuracy trends.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrStoreClosed = errors.New("progress store is closed")
)

// Store is a SQLite-backed record of indexed documents and quiz
// attempts. Safe for concurrent use; SQLite serializes writers and
// WAL mode keeps readers unblocked.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the progress database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening progress database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS indexed_documents (
			doc_id      TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			chunk_count INTEGER NOT NULL,
			indexed_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quiz_attempts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			topic        TEXT NOT NULL,
			questions    INTEGER NOT NULL,
			correct      INTEGER NOT NULL,
			attempted_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_topic ON quiz_attempts(topic)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrating progress schema: %w", err)
		}
	}
	return nil
}

// IndexedDocument is one ingested source on record.
type IndexedDocument struct {
	DocID      string
	Name       string
	ChunkCount int
	IndexedAt  time.Time
}

// QuizAttempt is one completed quiz on record.
type QuizAttempt struct {
	ID          int64
	Topic       string
	Questions   int
	Correct     int
	AttemptedAt time.Time
}

// Accuracy is the fraction of correct answers, 0 when no questions.
func (a QuizAttempt) Accuracy() float64 {
	if a.Questions == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Questions)
}

// RecordDocument upserts an indexed document. Re-indexing a document
// refreshes its chunk count and timestamp.
func (s *Store) RecordDocument(ctx context.Context, docID, name string, chunkCount int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO indexed_documents (doc_id, name, chunk_count, indexed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			name = excluded.name,
			chunk_count = excluded.chunk_count,
			indexed_at = excluded.indexed_at`,
		docID, name, chunkCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording document %s: %w", docID, err)
	}
	return nil
}

// Documents lists indexed documents, most recent first.
func (s *Store) Documents(ctx context.Context) ([]IndexedDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, name, chunk_count, indexed_at
		FROM indexed_documents
		ORDER BY indexed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []IndexedDocument
	for rows.Next() {
		var d IndexedDocument
		if err := rows.Scan(&d.DocID, &d.Name, &d.ChunkCount, &d.IndexedAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// RecordQuizAttempt stores a completed quiz result.
func (s *Store) RecordQuizAttempt(ctx context.Context, topic string, questions, correct int) error {
	if questions < 0 || correct < 0 || correct > questions {
		return fmt.Errorf("invalid quiz result: %d/%d", correct, questions)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_attempts (topic, questions, correct, attempted_at)
		VALUES (?, ?, ?, ?)`,
		topic, questions, correct, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording quiz attempt: %w", err)
	}
	return nil
}

// Attempts lists quiz attempts for a topic, or all topics when topic
// is empty, most recent first.
func (s *Store) Attempts(ctx context.Context, topic string) ([]QuizAttempt, error) {
	query := `
		SELECT id, topic, questions, correct, attempted_at
		FROM quiz_attempts`
	args := []any{}
	if topic != "" {
		query += ` WHERE topic = ?`
		args = append(args, topic)
	}
	query += ` ORDER BY attempted_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing quiz attempts: %w", err)
	}
	defer rows.Close()

	var attempts []QuizAttempt
	for rows.Next() {
		var a QuizAttempt
		if err := rows.Scan(&a.ID, &a.Topic, &a.Questions, &a.Correct, &a.AttemptedAt); err != nil {
			return nil, fmt.Errorf("scanning attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Stats aggregates overall study progress.
type Stats struct {
	Documents     int
	Chunks        int
	QuizAttempts  int
	QuestionsSeen int
	CorrectTotal  int
}

// Accuracy is the overall fraction of correct quiz answers.
func (st Stats) Accuracy() float64 {
	if st.QuestionsSeen == 0 {
		return 0
	}
	return float64(st.CorrectTotal) / float64(st.QuestionsSeen)
}

// Summary computes aggregate stats across all recorded activity.
func (s *Store) Summary(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(chunk_count), 0) FROM indexed_documents`).
		Scan(&st.Documents, &st.Chunks)
	if err != nil {
		return Stats{}, fmt.Errorf("summarizing documents: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(questions), 0), COALESCE(SUM(correct), 0) FROM quiz_attempts`).
		Scan(&st.QuizAttempts, &st.QuestionsSeen, &st.CorrectTotal)
	if err != nil {
		return Stats{}, fmt.Errorf("summarizing quiz attempts: %w", err)
	}
	return st, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
