package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/khanalasmit/rag-study-assistant/internal/assistant"
	"github.com/khanalasmit/rag-study-assistant/internal/config"
	"github.com/khanalasmit/rag-study-assistant/internal/orchestrator"
	"github.com/khanalasmit/rag-study-assistant/internal/progress"
	"github.com/khanalasmit/rag-study-assistant/internal/rag"
)

var rootCmd = &cobra.Command{
	Use:   "study",
	Short: "Study assistant - hybrid retrieval over your own materials",
	Long: `Study assistant indexes your study materials (PDF, text, markdown, or a
Git repo of notes) with semantic chunking, then answers questions,
generates quizzes, and writes summaries grounded strictly in what you
uploaded, with page citations.

Required environment variables:
  OPENAI_API_KEY   - OpenAI API key for embeddings and answers
  MILVUS_ADDRESS   - Milvus server address (only for the milvus backend)`,
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Styling shared by all commands
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F780FF")). // Bright pink
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BE9FD")). // Cyan
			Italic(true)

	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E9E9F4")) // Light purple/white

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4")). // Muted purple
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")). // Red
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B")) // Green
)

// buildPipeline assembles the full pipeline from configuration and
// environment. The caller must Close the returned cleanup.
func buildPipeline(ctx context.Context) (*orchestrator.Pipeline, func(), error) {
	cfg, _, err := config.LoadDefault()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	embedder, err := rag.NewOpenAIEmbedder(cfg.Embedding.Model, cfg.Embedding.Dimension)
	if err != nil {
		return nil, nil, err
	}

	var dense rag.DenseIndex
	switch cfg.Storage.DenseBackend {
	case "milvus":
		milvusCfg := rag.DefaultMilvusConfig()
		milvusCfg.Dimension = cfg.Embedding.Dimension
		dense, err = rag.NewMilvusStore(ctx, milvusCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to Milvus: %w", err)
		}
	default:
		dense = rag.NewMemoryStore()
	}

	llm, err := assistant.NewOpenAILLM(assistant.LLMConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		dense.Close()
		return nil, nil, err
	}

	store, err := progress.Open(cfg.Storage.ProgressDB)
	if err != nil {
		dense.Close()
		return nil, nil, fmt.Errorf("opening progress store: %w", err)
	}

	pipeline, err := orchestrator.New(cfg, embedder, dense, llm, store)
	if err != nil {
		store.Close()
		dense.Close()
		return nil, nil, err
	}

	cleanup := func() {
		store.Close()
		dense.Close()
	}
	return pipeline, cleanup, nil
}

// printSources renders the citation list under an answer.
func printSources(sources []assistant.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(headerStyle.Render("Sources:"))
	for i, src := range sources {
		location := src.DocID
		if src.Page > 0 {
			location = fmt.Sprintf("%s, page %d", src.DocID, src.Page)
		}
		fmt.Println(progressStyle.Render(fmt.Sprintf("  %d. [%s] (score %.3f) %s", i+1, location, src.Score, src.Excerpt)))
	}
}
