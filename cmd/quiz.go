package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanalasmit/rag-study-assistant/internal/assistant"
)

var (
	quizNum         int
	quizType        string
	quizInteractive bool
)

func init() {
	rootCmd.AddCommand(quizCmd)
	quizCmd.Flags().IntVarP(&quizNum, "num", "n", 0, "Number of questions (0 uses the configured default)")
	quizCmd.Flags().StringVarP(&quizType, "type", "t", "", "Question type: mcq, true_false, short_answer, or mixed")
	quizCmd.Flags().BoolVarP(&quizInteractive, "interactive", "i", false, "Answer the questions and record the result")
}

var quizCmd = &cobra.Command{
	Use:   "quiz <topic>",
	Short: "Generate a practice quiz from your indexed materials",
	Long: `Quiz retrieves material on a topic and generates practice questions
from it. With --interactive the quiz is scored and the attempt is
recorded for progress tracking.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuiz,
}

func runQuiz(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	ctx := context.Background()
	pipeline, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println(progressStyle.Render(fmt.Sprintf("→ Generating quiz on %q...", topic)))
	questions, err := pipeline.GenerateQuiz(ctx, topic, quizNum, quizType)
	if err != nil {
		return err
	}

	if !quizInteractive {
		for i, q := range questions {
			printQuestion(i, q)
			fmt.Println(successStyle.Render("  Answer: " + q.CorrectAnswer))
			if q.Explanation != "" {
				fmt.Println(progressStyle.Render("  " + q.Explanation))
			}
			fmt.Println()
		}
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	var correct int
	for i, q := range questions {
		printQuestion(i, q)
		fmt.Print(promptStyle.Render("  Your answer: "))
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading answer: %w", err)
		}
		if matchesAnswer(line, q.CorrectAnswer) {
			correct++
			fmt.Println(successStyle.Render("  ✓ Correct"))
		} else {
			fmt.Println(errorStyle.Render("  ✗ Incorrect. Answer: " + q.CorrectAnswer))
			if q.Explanation != "" {
				fmt.Println(progressStyle.Render("  " + q.Explanation))
			}
		}
		fmt.Println()
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Score: %d/%d", correct, len(questions))))
	if err := pipeline.RecordQuizResult(ctx, topic, len(questions), correct); err != nil {
		return fmt.Errorf("recording quiz result: %w", err)
	}
	return nil
}

func printQuestion(i int, q assistant.QuizQuestion) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Q%d. %s", i+1, q.Question)))
	for j, opt := range q.Options {
		fmt.Printf("  %c) %s\n", 'A'+j, opt)
	}
}

// matchesAnswer is deliberately forgiving: an MCQ answer matches its
// letter or its full text, case-insensitively.
func matchesAnswer(given, correct string) bool {
	given = strings.ToLower(strings.TrimSpace(given))
	correct = strings.ToLower(strings.TrimSpace(correct))
	if given == "" {
		return false
	}
	return given == correct || strings.HasPrefix(correct, given+")") || strings.HasPrefix(correct, given+".")
}
