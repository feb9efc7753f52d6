package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var summarizeFocus string

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVarP(&summarizeFocus, "focus", "f", "", "Narrow the summary to a focus area within the topic")
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <topic>",
	Short: "Generate a structured summary of a topic",
	Long: `Summarize retrieves everything relevant to a topic from your indexed
materials and generates a structured study summary: key concepts,
definitions, important details, and connections.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	ctx := context.Background()
	pipeline, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println(progressStyle.Render(fmt.Sprintf("→ Summarizing %q...", topic)))
	summary, err := pipeline.SummarizeTopic(ctx, topic, summarizeFocus)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(answerStyle.Render(summary.Text))
	printSources(summary.Sources)
	return nil
}
