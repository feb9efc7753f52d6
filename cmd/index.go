package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khanalasmit/rag-study-assistant/internal/ingest/loader"
	"github.com/khanalasmit/rag-study-assistant/internal/orchestrator"
)

var (
	indexNotesRepo string
	indexWorkers   int
	indexVerbose   bool
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&indexNotesRepo, "notes-repo", "", "Git repository (path or URL) of notes to index")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 4, "Number of documents to index concurrently")
	indexCmd.Flags().BoolVar(&indexVerbose, "verbose", false, "Show per-document progress")
}

var indexCmd = &cobra.Command{
	Use:   "index [files or directories...]",
	Short: "Index study materials into the retrieval corpus",
	Long: `Index PDF, text, and markdown files so they become searchable.
Arguments may be individual files or directories (scanned one level
deep). Use --notes-repo to pull markdown notes out of a Git repository
instead of, or in addition to, local files.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && indexNotesRepo == "" {
		return fmt.Errorf("nothing to index: pass files, directories, or --notes-repo")
	}

	ctx := context.Background()
	pipeline, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var docs []*loader.Document
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if info.IsDir() {
			loaded, err := loader.LoadDir(arg, func(path string, lerr error) {
				fmt.Println(errorStyle.Render(fmt.Sprintf("✗ Skipping %s: %v", path, lerr)))
			})
			if err != nil {
				return err
			}
			docs = append(docs, loaded...)
			continue
		}
		doc, err := loader.Load(arg)
		if err != nil {
			return fmt.Errorf("loading %s: %w", arg, err)
		}
		docs = append(docs, doc)
	}

	var failed int
	if len(docs) > 0 {
		if indexVerbose {
			fmt.Println(progressStyle.Render(fmt.Sprintf("→ Indexing %d document(s)...", len(docs))))
		}
		results := pipeline.IndexDocuments(ctx, docs, indexWorkers)
		failed += reportIndexResults(results)
	}

	if indexNotesRepo != "" {
		if indexVerbose {
			fmt.Println(progressStyle.Render(fmt.Sprintf("→ Collecting notes from %s...", indexNotesRepo)))
		}
		results, err := pipeline.IndexNotesRepo(ctx, indexNotesRepo)
		if err != nil {
			return err
		}
		failed += reportIndexResults(results)
	}

	if failed > 0 {
		return fmt.Errorf("%d document(s) failed to index", failed)
	}
	return nil
}

func reportIndexResults(results []orchestrator.IndexResult) int {
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Println(errorStyle.Render(fmt.Sprintf("✗ %s: %v", r.Name, r.Err)))
			continue
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ %s (%d chunks)", r.Name, r.Chunks)))
	}
	return failed
}
