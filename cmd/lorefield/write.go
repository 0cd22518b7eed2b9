package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lorefield/internal/markup"
)

func writeCmd() *cobra.Command {
	var fromMarkdown bool
	cmd := &cobra.Command{
		Use:   "write <id> [file]",
		Short: "Store narrative text in the best field a record accepts",
		Long:  "Reads the narrative from file, or from stdin when no file is given, and writes it into the first candidate field the store accepts.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 2 {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("reading narrative: %w", err)
			}
			return runWrite(args[0], string(data), fromMarkdown)
		},
	}
	cmd.Flags().BoolVar(&fromMarkdown, "markdown", false, "Treat the input as markdown and render it to HTML")
	return cmd
}

func runWrite(id, text string, fromMarkdown bool) error {
	ctx := context.Background()

	body := text
	if fromMarkdown {
		var err error
		body, err = markup.FromMarkdown(text)
		if err != nil {
			return err
		}
	}
	body = markup.Sanitize(body)

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	rec, err := s.record(ctx, id)
	if err != nil {
		return err
	}
	resolver := newResolver(ctx, s.cfg, s.db)

	result := resolver.WriteBest(ctx, rec, body)
	if !result.OK {
		return fmt.Errorf("no field of %q accepted the narrative (tried %s)", id, strings.Join(result.PathsTried, ", "))
	}
	fmt.Fprintf(os.Stdout, "Narrative stored at %s.\n", result.Path)
	return nil
}
