package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show indexed documents and quiz progress",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	pipeline, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := pipeline.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Study progress"))
	fmt.Printf("  Documents indexed:  %d\n", stats.Documents)
	fmt.Printf("  Chunks indexed:     %d\n", stats.Chunks)
	fmt.Printf("  Quiz attempts:      %d\n", stats.QuizAttempts)
	fmt.Printf("  Questions answered: %d\n", stats.QuestionsSeen)
	if stats.QuestionsSeen > 0 {
		fmt.Printf("  Accuracy:           %.0f%%\n", stats.Accuracy()*100)
	}
	return nil
}
