package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/config"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"

	"github.com/spf13/cobra"
)

func newQuoteCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a quote request and print the result",
		Long: `Price a generate-quote request body and print the quote as JSON.

Upstreams (LLM, exchange APIs) are used when configured; otherwise the
heuristic salaries and static rates apply. Nothing is persisted.

Examples:
  bfa quote -f request.json
  cat request.json | bfa quote -f -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuote(cmd, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "request JSON file, - for stdin")
	return cmd
}

func runQuote(cmd *cobra.Command, file string) error {
	var in io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var req domain.QuoteRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	a, err := buildApp(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	quote, err := a.quotes.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(quote)
}
