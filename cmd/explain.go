package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(explainCmd)
}

var explainCmd = &cobra.Command{
	Use:   "explain <concept>",
	Short: "Explain a concept step by step from your materials",
	Long: `Explain retrieves what your materials say about a concept and
generates a step-by-step explanation with a simple breakdown, an
analogy, and a note of common misconceptions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	concept := strings.Join(args, " ")

	ctx := context.Background()
	pipeline, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println(progressStyle.Render(fmt.Sprintf("→ Explaining %q...", concept)))
	explanation, err := pipeline.ExplainConcept(ctx, concept)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(answerStyle.Render(explanation.Text))
	printSources(explanation.Sources)
	return nil
}
