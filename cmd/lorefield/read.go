package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lorefield/internal/markup"
)

func readCmd() *cobra.Command {
	var asMarkdown bool
	var showPath bool
	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Print the best narrative field of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(args[0], asMarkdown, showPath)
		},
	}
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "Convert the stored HTML to markdown")
	cmd.Flags().BoolVar(&showPath, "path", false, "Print the resolved field path first")
	return cmd
}

func runRead(id string, asMarkdown, showPath bool) error {
	ctx := context.Background()

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

	result := resolver.ReadBest(ctx, rec)
	if !result.OK {
		fmt.Fprintf(os.Stdout, "No narrative found for %q (tried %s).\n", id, strings.Join(result.PathsTried, ", "))
		return nil
	}

	text := result.Value
	if asMarkdown {
		text = markup.ToMarkdown(text)
	}
	if showPath {
		fmt.Fprintf(os.Stdout, "Path: %s\n\n", result.Path)
	}
	fmt.Fprintln(os.Stdout, text)
	return nil
}
