package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func searchCMD(opts *rootOptions) *cobra.Command {
	var (
		query string
		topK  int
	)
	cmd := &cobra.Command{
		Use:   "search <paths...> -q query",
		Short: "Show the nearest excerpts for a query without calling the language model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return fmt.Errorf("--query is required")
			}
			a, err := setup(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			sess := a.svc.NewSession()
			report, err := a.svc.IngestDocuments(ctx, sess, args)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			printReport(cmd.ErrOrStderr(), sess, report)

			results, err := a.svc.Search(ctx, sess, query, topK)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search query")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of excerpts (default from config)")
	return cmd
}
