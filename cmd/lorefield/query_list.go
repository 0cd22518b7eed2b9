package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryListCmd() *cobra.Command {
	var recordType string
	var profile string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryList(recordType, profile)
		},
	}
	cmd.Flags().StringVar(&recordType, "type", "", "Record type to filter")
	cmd.Flags().StringVar(&profile, "profile", "", "Schema profile to filter")
	return cmd
}

func runQueryList(recordType, profile string) error {
	ctx := context.Background()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	records, err := s.db.ListRecords(ctx, recordType, profile)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "No records found.")
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(os.Stdout, "%s (%s) [%s]\n", rec.Name, rec.Type, rec.ID)
	}
	return nil
}
