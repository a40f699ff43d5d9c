package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func askCMD(opts *rootOptions) *cobra.Command {
	var (
		questions  []string
		showPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "ask <paths...> -q question [-q follow-up ...]",
		Short: "Answer one or more questions in a single conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(questions) == 0 {
				return fmt.Errorf("at least one --question is required")
			}
			a, err := setup(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			sess := a.svc.NewSession()
			report, err := a.svc.IngestDocuments(ctx, sess, args)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			printReport(out, sess, report)

			for _, q := range questions {
				turn, err := a.svc.Ask(ctx, sess, q)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nUser: %s\n", turn.Question)
				if turn.FollowUp {
					fmt.Fprintf(out, "Expanded: %s\n", turn.ExpandedQuestion)
				}
				if showPrompt {
					fmt.Fprintf(out, "\n--- Generated Prompt ---\n%s\n------------------------\n", turn.Prompt)
				}
				fmt.Fprintf(out, "Bot: %s\n", turn.Answer)
				for _, n := range turn.Notices {
					fmt.Fprintf(errOut, "warning: %s\n", n)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "question to ask; repeat for follow-ups")
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "print the generated prompt for each question")
	return cmd
}
