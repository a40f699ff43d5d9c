package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragscholar/internal/tui"
	"ragscholar/internal/watcher"
)

func chatCMD(opts *rootOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "chat <paths...>",
		Short: "Process documents and start an interactive chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// log records would corrupt the screen; only a configured log file receives them
			a, err := setup(opts, io.Discard)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sess := a.svc.NewSession()
			fmt.Fprintln(cmd.OutOrStdout(), "Processing documents...")
			if _, err := a.svc.IngestDocuments(ctx, sess, args); err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}

			var changes <-chan []string
			if watch || a.cfg.Watch.Enabled {
				w, err := watcher.New(args, a.loader.Supports, time.Duration(a.cfg.Watch.DebounceMs)*time.Millisecond, a.logger)
				if err != nil {
					return fmt.Errorf("watching documents: %w", err)
				}
				defer w.Close()
				changes = w.Run(ctx)
			}

			m := tui.New(ctx, a.svc, sess, args, changes)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reprocess documents when they change")
	return cmd
}
