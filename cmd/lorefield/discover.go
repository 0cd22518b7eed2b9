package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorefield/internal/aggregate"
)

func discoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <id>",
		Short: "List ranked narrative candidates and narrative fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(args[0])
		},
	}
}

func runDiscover(id string) error {
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

	fmt.Fprintf(os.Stdout, "%s (%s, %s)\n", rec.Name, rec.Type, rec.Kind())
	fmt.Fprintln(os.Stdout, "Candidates:")
	for _, c := range resolver.Candidates(rec) {
		fmt.Fprintf(os.Stdout, "  %6d  %s\n", c.Score, c.Path)
	}

	fields := aggregate.DiscoverAll(rec)
	if len(fields) == 0 {
		fmt.Fprintln(os.Stdout, "No narrative fields.")
		return nil
	}
	fmt.Fprintln(os.Stdout, "Fields:")
	for _, f := range fields {
		fmt.Fprintf(os.Stdout, "  %s (%d chars)\n", f.Path, len(f.Value))
	}
	return nil
}
