package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorefield/internal/aggregate"
)

func aggregateCmd() *cobra.Command {
	var opts aggregate.Options
	cmd := &cobra.Command{
		Use:   "aggregate <id>",
		Short: "Combine every narrative field of a record into one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.IncludeFieldLabels, "labels", false, "Prefix each field with a heading")
	cmd.Flags().BoolVar(&opts.PreserveVisibility, "respect-visibility", false, "Omit fields the record marks hidden")
	cmd.Flags().BoolVar(&opts.ConvertToFormat, "markdown", false, "Print markdown instead of HTML")
	return cmd
}

func runAggregate(id string, opts aggregate.Options) error {
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

	result := aggregate.New(nil, logger).Aggregate(rec, opts)
	if len(result.Fields) == 0 {
		fmt.Fprintf(os.Stdout, "No narrative fields found for %q.\n", id)
		return nil
	}
	if opts.ConvertToFormat {
		fmt.Fprintln(os.Stdout, result.ConvertedText)
		return nil
	}
	fmt.Fprintln(os.Stdout, result.StructuredText)
	return nil
}
