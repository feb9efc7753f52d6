// Package orchestrator wires the retrieval core, document loaders,
// LLM generation, and progress tracking into the operations the CLI
// exposes: index, ask, quiz, summarize, explain, stats.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/khanalasmit/rag-study-assistant/internal/assistant"
	"github.com/khanalasmit/rag-study-assistant/internal/config"
	"github.com/khanalasmit/rag-study-assistant/internal/ingest/loader"
	"github.com/khanalasmit/rag-study-assistant/internal/ingest/notes"
	"github.com/khanalasmit/rag-study-assistant/internal/progress"
	"github.com/khanalasmit/rag-study-assistant/internal/rag"
)

// defaultIndexWorkers bounds concurrent document ingestion. Each
// worker owns its documents end to end until both indices committed.
const defaultIndexWorkers = 4

// Pipeline owns one corpus: its indices, ingestion pipeline, and
// generation stack. Construct one per corpus and share it across
// concurrent readers.
type Pipeline struct {
	cfg       *config.AppConfig
	indexer   *rag.Indexer
	retriever *rag.HybridRetriever
	generator *assistant.Generator
	progress  *progress.Store
}

// New assembles a pipeline from its collaborators. The dense index
// and LLM are passed in so callers choose backends (Milvus or memory,
// OpenAI or mock).
func New(cfg *config.AppConfig, embedder rag.Embedder, dense rag.DenseIndex, llm assistant.LLM, store *progress.Store) (*Pipeline, error) {
	core := cfg.RAGConfig()
	if err := core.Validate(); err != nil {
		return nil, err
	}

	chunker, err := rag.NewSemanticChunker(core)
	if err != nil {
		return nil, err
	}
	sparse, err := rag.NewSparseIndex(core)
	if err != nil {
		return nil, err
	}
	indexer, err := rag.NewIndexer(chunker, embedder, sparse, dense)
	if err != nil {
		return nil, err
	}
	retriever, err := rag.NewHybridRetriever(sparse, dense, embedder, core)
	if err != nil {
		return nil, err
	}

	generator := assistant.NewGenerator(llm, assistant.LLMConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	return &Pipeline{
		cfg:       cfg,
		indexer:   indexer,
		retriever: retriever,
		generator: generator,
		progress:  store,
	}, nil
}

// IndexResult reports the outcome of ingesting one document.
type IndexResult struct {
	DocID  string
	Name   string
	Chunks int
	Err    error
}

// IndexDocuments ingests a batch of loaded documents with a bounded
// worker pool. Failures are per-document: one bad file never aborts
// the rest of the batch.
func (p *Pipeline) IndexDocuments(ctx context.Context, docs []*loader.Document, workers int) []IndexResult {
	if workers <= 0 {
		workers = defaultIndexWorkers
	}
	if workers > len(docs) {
		workers = len(docs)
	}

	jobs := make(chan *loader.Document)
	results := make([]IndexResult, 0, len(docs))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				result := p.indexOne(ctx, doc)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}
	for _, doc := range docs {
		jobs <- doc
	}
	close(jobs)
	wg.Wait()

	return results
}

func (p *Pipeline) indexOne(ctx context.Context, doc *loader.Document) IndexResult {
	var chunks []rag.Chunk
	var err error
	if doc.Paginated() {
		chunks, err = p.indexer.IndexPages(ctx, doc.ID, doc.Pages)
	} else {
		chunks, err = p.indexer.IndexDocument(ctx, doc.ID, doc.Text)
	}
	result := IndexResult{DocID: doc.ID, Name: doc.Name, Chunks: len(chunks), Err: err}
	if err == nil && p.progress != nil {
		if perr := p.progress.RecordDocument(ctx, doc.ID, doc.Name, len(chunks)); perr != nil {
			result.Err = fmt.Errorf("indexed but failed to record progress: %w", perr)
		}
	}
	return result
}

// IndexNotesRepo ingests every note file from a Git repository,
// local path or remote URL.
func (p *Pipeline) IndexNotesRepo(ctx context.Context, repo string) ([]IndexResult, error) {
	collected, err := notes.CollectPath(repo)
	if err != nil {
		collected, err = notes.CollectURL(repo)
		if err != nil {
			return nil, fmt.Errorf("failed to collect notes from %s: %w", repo, err)
		}
	}

	var results []IndexResult
	for _, note := range collected {
		docID := note.DocID()
		chunks, err := p.indexer.IndexDocument(ctx, docID, note.Text)
		result := IndexResult{DocID: docID, Name: note.Path, Chunks: len(chunks), Err: err}
		if err == nil && p.progress != nil {
			if perr := p.progress.RecordDocument(ctx, docID, note.Path, len(chunks)); perr != nil {
				result.Err = fmt.Errorf("indexed but failed to record progress: %w", perr)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Retrieve exposes raw hybrid retrieval for callers that want chunks
// without generation.
func (p *Pipeline) Retrieve(ctx context.Context, query string, k int) (rag.RetrievalContext, error) {
	return p.retriever.Retrieve(ctx, query, k)
}

// AnswerQuestion retrieves relevant material and generates a grounded,
// page-cited answer.
func (p *Pipeline) AnswerQuestion(ctx context.Context, question string, k int) (*assistant.Answer, error) {
	results, err := p.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	return p.generator.AnswerQuestion(ctx, question, results)
}

// GenerateQuiz retrieves material on a topic and generates practice
// questions, clamping the count to the configured maximum.
func (p *Pipeline) GenerateQuiz(ctx context.Context, topic string, numQuestions int, questionType string) ([]assistant.QuizQuestion, error) {
	if numQuestions <= 0 {
		numQuestions = p.cfg.Quiz.DefaultQuestions
	}
	if numQuestions > p.cfg.Quiz.MaxQuestions {
		numQuestions = p.cfg.Quiz.MaxQuestions
	}
	if questionType == "" {
		questionType = p.cfg.Quiz.DefaultType
	}

	// Quizzes draw on a wider context than single-answer questions.
	results, err := p.retriever.Retrieve(ctx, topic, p.cfg.Retrieval.TopK*2)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	return p.generator.GenerateQuiz(ctx, topic, numQuestions, questionType, results)
}

// RecordQuizResult stores a completed quiz attempt for progress
// tracking.
func (p *Pipeline) RecordQuizResult(ctx context.Context, topic string, questions, correct int) error {
	if p.progress == nil {
		return nil
	}
	return p.progress.RecordQuizAttempt(ctx, topic, questions, correct)
}

// SummarizeTopic retrieves material on a topic and generates a
// structured summary.
func (p *Pipeline) SummarizeTopic(ctx context.Context, topic, focusArea string) (*assistant.Answer, error) {
	results, err := p.retriever.Retrieve(ctx, topic, p.cfg.Retrieval.TopK*2)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	return p.generator.SummarizeTopic(ctx, focusArea, results)
}

// ExplainConcept retrieves material about a concept and generates a
// step-by-step explanation.
func (p *Pipeline) ExplainConcept(ctx context.Context, concept string) (*assistant.Answer, error) {
	results, err := p.retriever.Retrieve(ctx, concept, p.cfg.Retrieval.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	return p.generator.ExplainConcept(ctx, concept, results)
}

// Stats reports aggregate study progress.
func (p *Pipeline) Stats(ctx context.Context) (progress.Stats, error) {
	if p.progress == nil {
		return progress.Stats{}, nil
	}
	return p.progress.Summary(ctx)
}
