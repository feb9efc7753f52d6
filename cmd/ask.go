package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askTopK    int
	askSources bool
)

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "Number of chunks to retrieve (0 uses the configured default)")
	askCmd.Flags().BoolVar(&askSources, "sources", true, "Show the cited source chunks under the answer")
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your indexed materials",
	Long: `Ask retrieves the most relevant chunks from your indexed materials
with hybrid BM25 + embedding search, then generates an answer grounded
strictly in those chunks, with page citations where available.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	ctx := context.Background()
	pipeline, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println(promptStyle.Render("? " + question))
	fmt.Println(progressStyle.Render("→ Searching your materials..."))

	answer, err := pipeline.AnswerQuestion(ctx, question, askTopK)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(answerStyle.Render(answer.Text))
	if askSources {
		printSources(answer.Sources)
	}
	return nil
}
