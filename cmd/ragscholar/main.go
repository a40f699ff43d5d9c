package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	_ = godotenv.Load()

	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ragscholar",
		Short:         "Ask questions about your documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default ./config.yaml or ~/.config/ragscholar/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(chatCMD(opts), askCMD(opts), searchCMD(opts))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
