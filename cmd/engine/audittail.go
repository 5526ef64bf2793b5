package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "audit",
		Short: "Inspect recorded decision receipts",
	}
	root.AddCommand(newAuditTailCmd())
	return root
}

func newAuditTailCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the last N audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := os.Getenv("AUDIT_POSTGRES_DSN")
			if dsn == "" {
				return fmt.Errorf("AUDIT_POSTGRES_DSN is not set — a fresh process has no history in its in-memory ring buffer to tail")
			}

			sink, err := newPostgresSink(dsn)
			if err != nil {
				return err
			}

			entries, err := sink.Tail(context.Background(), n)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			for _, e := range entries {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&n, "n", 20, "number of entries to print")
	return cmd
}
