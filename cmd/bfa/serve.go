package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/config"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/handler"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/observability"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/jobs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("llm_configured", cfg.AnthropicAPIKey != ""),
		zap.Bool("exchange_key_configured", cfg.ExchangeRateAPIKey != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Strings("cors_allowed_origins", cfg.CORSAllowedOrigins),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, "bpo-leadgen-bfa")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// --- Wiring ---
	a, err := buildApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// --- Jobs ---
	scheduler := jobs.New(a.rates, a.tracking, jobs.Config{
		RateRefreshSpec:  cfg.RateRefreshSpec,
		SessionSweepSpec: cfg.SessionSweepSpec,
		SessionMaxAge:    cfg.TrackingSessionMaxAge,
	}, logger)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Quotes:          a.quotes,
		Salaries:        a.salaries,
		Recommendations: a.recommendations,
		Tracking:        a.tracking,
		Users:           a.users,
		Dependencies:    a.dependencies(),
	}, handler.Options{
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, a.metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	// --- Graceful shutdown ---
	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)

	logger.Info("server stopped")
	return nil
}
