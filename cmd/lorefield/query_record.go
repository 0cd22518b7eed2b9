package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorefield/internal/profile"
)

func queryRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <id>",
		Short: "Display a record, its attribute tree and embedded records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryRecord(args[0])
		},
	}
	return cmd
}

func runQueryRecord(id string) error {
	ctx := context.Background()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	rec, err := s.db.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Fprintf(os.Stdout, "No record found for %q.\n", id)
		return nil
	}

	fmt.Fprintf(os.Stdout, "ID: %s\n", rec.ID)
	fmt.Fprintf(os.Stdout, "Name: %s\n", profile.Name(rec))
	fmt.Fprintf(os.Stdout, "Type: %s\n", rec.Type)
	if rec.Profile != "" {
		fmt.Fprintf(os.Stdout, "Profile: %s\n", rec.Profile)
	}
	if rec.ParentID != "" {
		fmt.Fprintf(os.Stdout, "Parent: %s\n", rec.ParentID)
	}
	if rec.SourceFile != "" {
		fmt.Fprintf(os.Stdout, "Source: %s\n", rec.SourceFile)
	}
	if img := profile.Image(rec); img != "" {
		fmt.Fprintf(os.Stdout, "Image: %s\n", img)
	}
	if desc := profile.Description(rec); desc != "" {
		fmt.Fprintf(os.Stdout, "Description: %s\n", desc)
	}

	// attr.Node marshals with its keys in document order.
	payload, err := json.MarshalIndent(rec.System, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding attributes: %w", err)
	}
	fmt.Fprintf(os.Stdout, "System:\n%s\n", payload)

	embedded, err := s.db.ListEmbedded(ctx, rec.ID)
	if err != nil {
		return err
	}
	if len(embedded) == 0 {
		return nil
	}
	fmt.Fprintln(os.Stdout, "Embedded:")
	for _, child := range embedded {
		fmt.Fprintf(os.Stdout, "  %s (%s) [%s]\n", child.Name, child.Type, child.ID)
	}
	return nil
}
