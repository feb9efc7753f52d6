package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/khanalasmit/rag-study-assistant/internal/rag"
)

var (
	ErrGenerationFailed = errors.New("generation failed")
	ErrNoContext        = errors.New("no study material retrieved for request")
	ErrQuizMalformed    = errors.New("quiz response was not valid JSON")
)

// jsonArrayPattern extracts the first JSON array from an LLM response
// that may wrap it in prose or code fences.
var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// Answer is a grounded response to a student question.
type Answer struct {
	Text        string    `json:"text"`
	Sources     []Source  `json:"sources"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Source describes one chunk that grounded an answer.
type Source struct {
	ChunkID string  `json:"chunk_id"`
	DocID   string  `json:"doc_id"`
	Page    int     `json:"page,omitempty"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
}

// QuizQuestion is one generated practice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Difficulty    string   `json:"difficulty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Generator produces study help from retrieved chunks using an LLM.
// It does not perform retrieval itself; callers pass in the context.
type Generator struct {
	llm    LLM
	config LLMConfig
}

// NewGenerator creates a generator with the given LLM implementation.
func NewGenerator(llm LLM, config LLMConfig) *Generator {
	return &Generator{
		llm:    llm,
		config: config,
	}
}

// sources converts retrieved chunks into citation records.
func sources(results rag.RetrievalContext) []Source {
	out := make([]Source, len(results))
	for i, sc := range results {
		excerpt := sc.Chunk.Text
		if len(excerpt) > 200 {
			excerpt = excerpt[:200] + "..."
		}
		out[i] = Source{
			ChunkID: sc.Chunk.ID,
			DocID:   sc.Chunk.DocID,
			Page:    sc.Chunk.Page,
			Score:   sc.Score,
			Excerpt: excerpt,
		}
	}
	return out
}

func (g *Generator) generate(ctx context.Context, prompt string, results rag.RetrievalContext) (*Answer, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}
	text, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return &Answer{
		Text:        text,
		Sources:     sources(results),
		Model:       g.config.Model,
		GeneratedAt: time.Now(),
	}, nil
}

// AnswerQuestion answers a student question from retrieved material.
func (g *Generator) AnswerQuestion(ctx context.Context, question string, results rag.RetrievalContext) (*Answer, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrGenerationFailed)
	}
	if len(results) == 0 {
		return nil, ErrNoContext
	}
	return g.generate(ctx, AssembleQAPrompt(results, question), results)
}

// GenerateQuiz produces practice questions on a topic from retrieved
// material. The LLM response must be a JSON array of questions.
func (g *Generator) GenerateQuiz(ctx context.Context, topic string, numQuestions int, questionType string, results rag.RetrievalContext) ([]QuizQuestion, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrGenerationFailed)
	}
	if len(results) == 0 {
		return nil, ErrNoContext
	}
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}

	prompt := AssembleQuizPrompt(results, topic, numQuestions, questionType)
	response, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return ParseQuizResponse(response)
}

// ParseQuizResponse decodes the quiz JSON array from an LLM response,
// tolerating surrounding prose or code fences.
func ParseQuizResponse(response string) ([]QuizQuestion, error) {
	payload := response
	if match := jsonArrayPattern.FindString(response); match != "" {
		payload = match
	}

	var questions []QuizQuestion
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizMalformed, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty question array", ErrQuizMalformed)
	}
	return questions, nil
}

// SummarizeTopic produces a structured summary of retrieved material.
func (g *Generator) SummarizeTopic(ctx context.Context, focusArea string, results rag.RetrievalContext) (*Answer, error) {
	if focusArea == "" {
		focusArea = "all key concepts"
	}
	if len(results) == 0 {
		return nil, ErrNoContext
	}
	return g.generate(ctx, AssembleSummaryPrompt(results, focusArea), results)
}

// ExplainConcept produces a step-by-step explanation of one concept.
func (g *Generator) ExplainConcept(ctx context.Context, concept string, results rag.RetrievalContext) (*Answer, error) {
	if concept == "" {
		return nil, fmt.Errorf("%w: concept is required", ErrGenerationFailed)
	}
	if len(results) == 0 {
		return nil, ErrNoContext
	}
	return g.generate(ctx, AssembleExplainPrompt(results, concept), results)
}
