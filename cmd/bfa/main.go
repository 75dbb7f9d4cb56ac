// Command bfa runs the lead-generation backend and its operator tools.
package main

import (
	"os"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Local development: values from .env, never overriding the environment.
	_ = config.LoadDotEnv(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bfa",
		Short: "Backend for the BPO lead-generation site",
		Long: `bfa serves the quote generator, candidate recommendations and engagement
tracking API for the marketing site. Without a subcommand it runs the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}
	root.AddCommand(newServeCmd(), newQuoteCmd(), newDeviceIDCmd())
	return root
}
