package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/khanalasmit/rag-study-assistant/internal/assistant"
	"github.com/khanalasmit/rag-study-assistant/internal/config"
	"github.com/khanalasmit/rag-study-assistant/internal/ingest/loader"
	"github.com/khanalasmit/rag-study-assistant/internal/progress"
	"github.com/khanalasmit/rag-study-assistant/internal/rag"
)

// keywordEmbedder gives each known keyword its own axis so retrieval
// behaves deterministically without a provider.
type keywordEmbedder struct {
	axes map[string]int
	dim  int
}

func newKeywordEmbedder(keywords ...string) *keywordEmbedder {
	axes := make(map[string]int, len(keywords))
	for i, kw := range keywords {
		axes[kw] = i
	}
	return &keywordEmbedder{axes: axes, dim: len(keywords) + 1}
}

func (e *keywordEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dim)
		v[e.dim-1] = 0.1
		for kw, axis := range e.axes {
			if strings.Contains(strings.ToLower(text), kw) {
				v[axis] = 1
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (e *keywordEmbedder) GetModel() string  { return "keyword-test" }
func (e *keywordEmbedder) GetDimension() int { return e.dim }

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}
	cfg.Retrieval.ChunkMinUnits = 1
	cfg.Retrieval.BreakpointThreshold = 0.5
	return cfg
}

func testPipeline(t *testing.T, llm assistant.LLM) (*Pipeline, *progress.Store) {
	t.Helper()
	store, err := progress.Open(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatalf("progress.Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	embedder := newKeywordEmbedder("database", "key", "cell", "biology")
	pipeline, err := New(testConfig(t), embedder, rag.NewMemoryStore(), llm, store)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return pipeline, store
}

func writeDoc(t *testing.T, dir, name, content string) *loader.Document {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	doc, err := loader.Load(path)
	if err != nil {
		t.Fatalf("loader.Load failed: %v", err)
	}
	return doc
}

func TestIndexDocumentsWorkerPool(t *testing.T) {
	ctx := context.Background()
	pipeline, store := testPipeline(t, assistant.NewMockLLM("ok"))
	dir := t.TempDir()

	docs := []*loader.Document{
		writeDoc(t, dir, "db.txt", "A database key identifies rows."),
		writeDoc(t, dir, "bio.txt", "The cell is the unit of biology."),
		writeDoc(t, dir, "more.txt", "Another database note about key constraints."),
	}

	results := pipeline.IndexDocuments(ctx, docs, 2)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("document %s failed: %v", r.Name, r.Err)
		}
		if r.Chunks == 0 {
			t.Errorf("document %s produced no chunks", r.Name)
		}
	}

	recorded, err := store.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(recorded) != 3 {
		t.Errorf("expected 3 recorded documents, got %d", len(recorded))
	}
}

func TestIndexDocumentsPerDocumentFailure(t *testing.T) {
	ctx := context.Background()
	pipeline, _ := testPipeline(t, assistant.NewMockLLM("ok"))
	dir := t.TempDir()

	good := writeDoc(t, dir, "good.txt", "A database key identifies rows.")
	bad := &loader.Document{ID: "bad-doc", Name: "bad.txt", Text: "broken \xff bytes"}

	results := pipeline.IndexDocuments(ctx, []*loader.Document{good, bad}, 1)
	var goodOK, badFailed bool
	for _, r := range results {
		if r.Name == "good.txt" && r.Err == nil && r.Chunks > 0 {
			goodOK = true
		}
		if r.Name == "bad.txt" && errors.Is(r.Err, rag.ErrMalformedEncoding) {
			badFailed = true
		}
	}
	if !goodOK {
		t.Error("valid document should index despite a failing sibling")
	}
	if !badFailed {
		t.Error("malformed document should fail with ErrMalformedEncoding")
	}
}

func TestAnswerQuestionEndToEnd(t *testing.T) {
	ctx := context.Background()
	llm := assistant.NewMockLLM("According to your notes, a database key identifies rows.")
	pipeline, _ := testPipeline(t, llm)
	dir := t.TempDir()

	pipeline.IndexDocuments(ctx, []*loader.Document{
		writeDoc(t, dir, "db.txt", "A database key identifies rows."),
	}, 1)

	answer, err := pipeline.AnswerQuestion(ctx, "What does a database key do?", 3)
	if err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if len(answer.Sources) == 0 {
		t.Fatal("expected cited sources")
	}
	if !strings.Contains(llm.LastPrompt, "database key identifies rows") {
		t.Error("prompt should carry the retrieved chunk")
	}
}

func TestAnswerQuestionNoMaterial(t *testing.T) {
	pipeline, _ := testPipeline(t, assistant.NewMockLLM("ok"))

	_, err := pipeline.AnswerQuestion(context.Background(), "What is osmosis?", 3)
	if !errors.Is(err, assistant.ErrNoContext) {
		t.Errorf("expected ErrNoContext on empty corpus, got %v", err)
	}
}

func TestGenerateQuizClampsCount(t *testing.T) {
	ctx := context.Background()
	llm := assistant.NewMockLLM(`[{"question": "Q", "type": "mcq", "difficulty": "easy", "correct_answer": "A", "explanation": "E"}]`)
	pipeline, _ := testPipeline(t, llm)
	dir := t.TempDir()

	pipeline.IndexDocuments(ctx, []*loader.Document{
		writeDoc(t, dir, "db.txt", "A database key identifies rows."),
	}, 1)

	if _, err := pipeline.GenerateQuiz(ctx, "database", 50, ""); err != nil {
		t.Fatalf("GenerateQuiz failed: %v", err)
	}
	if !strings.Contains(llm.LastPrompt, "Generate 20 mixed questions") {
		t.Error("question count should clamp to the configured maximum of 20")
	}

	if _, err := pipeline.GenerateQuiz(ctx, "database", 0, "mcq"); err != nil {
		t.Fatalf("GenerateQuiz failed: %v", err)
	}
	if !strings.Contains(llm.LastPrompt, "Generate 5 mcq questions") {
		t.Error("zero count should fall back to the default of 5")
	}
}

func TestRecordQuizResultAndStats(t *testing.T) {
	ctx := context.Background()
	pipeline, _ := testPipeline(t, assistant.NewMockLLM("ok"))
	dir := t.TempDir()

	pipeline.IndexDocuments(ctx, []*loader.Document{
		writeDoc(t, dir, "db.txt", "A database key identifies rows."),
	}, 1)
	if err := pipeline.RecordQuizResult(ctx, "database", 5, 4); err != nil {
		t.Fatalf("RecordQuizResult failed: %v", err)
	}

	stats, err := pipeline.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Documents != 1 || stats.QuizAttempts != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.CorrectTotal != 4 || stats.QuestionsSeen != 5 {
		t.Errorf("unexpected quiz totals: %+v", stats)
	}
}

func TestSummarizeAndExplain(t *testing.T) {
	ctx := context.Background()
	llm := assistant.NewMockLLM("1. Key Concepts: database keys.")
	pipeline, _ := testPipeline(t, llm)
	dir := t.TempDir()

	pipeline.IndexDocuments(ctx, []*loader.Document{
		writeDoc(t, dir, "db.txt", "A database key identifies rows."),
	}, 1)

	summary, err := pipeline.SummarizeTopic(ctx, "database", "")
	if err != nil {
		t.Fatalf("SummarizeTopic failed: %v", err)
	}
	if summary.Text == "" {
		t.Error("expected summary text")
	}

	explanation, err := pipeline.ExplainConcept(ctx, "database key")
	if err != nil {
		t.Fatalf("ExplainConcept failed: %v", err)
	}
	if explanation.Text == "" {
		t.Error("expected explanation text")
	}
	if !strings.Contains(llm.LastPrompt, "explain this concept in detail: database key") {
		t.Error("explain prompt missing the concept")
	}
}
