package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorefield/internal/ingest"
)

var ingestFull bool

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Synchronise records with markdown source files",
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	result, err := ingest.Run(ctx, s.cfg, s.schema, s.db, ingest.Options{
		Full:      ingestFull,
		Suggester: newSuggester(ctx, s.cfg),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Records upserted:   %d\n", result.RecordsUpserted)
	fmt.Fprintf(os.Stdout, "  Embedded created:   %d\n", result.EmbeddedCreated)
	fmt.Fprintf(os.Stdout, "  Narratives written: %d\n", result.NarrativesWritten)
	fmt.Fprintf(os.Stdout, "  Records removed:    %d\n", result.RecordsRemoved)
	fmt.Fprintf(os.Stdout, "  Files skipped:      %d\n", result.FilesSkipped)

	if len(result.NarrativeFailures) > 0 {
		fmt.Fprintf(os.Stdout, "\nNarrative not stored (%d):\n", len(result.NarrativeFailures))
		for _, id := range result.NarrativeFailures {
			fmt.Fprintf(os.Stdout, "  - %s\n", id)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}
