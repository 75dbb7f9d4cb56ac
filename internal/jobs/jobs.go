// Package jobs runs the periodic maintenance tasks of the BFA: refreshing
// the exchange-rate cache and dropping abandoned viewing sessions.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RateRefresher re-fetches every supported exchange rate and returns how
// many were refreshed.
type RateRefresher interface {
	Refresh(ctx context.Context) int
}

// SessionSweeper drops viewing sessions older than maxAge.
type SessionSweeper interface {
	SweepStaleSessions(ctx context.Context, maxAge time.Duration) (int, error)
}

// Config holds the job schedules. An empty spec disables that job.
type Config struct {
	RateRefreshSpec  string        // e.g. "@every 1h"
	SessionSweepSpec string        // e.g. "@every 10m"
	SessionMaxAge    time.Duration // sessions older than this are dropped
}

// Scheduler wraps robfig/cron.
type Scheduler struct {
	cron    *cron.Cron
	rates   RateRefresher
	sweeper SessionSweeper
	cfg     Config
	logger  *zap.Logger
}

// New creates a Scheduler. rates or sweeper may be nil to skip that job.
func New(rates RateRefresher, sweeper SessionSweeper, cfg Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cronLogger{logger.Sugar()})),
		rates:   rates,
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the jobs and starts the scheduler. The rate refresh also
// runs once immediately so the cache is warm before the first quote.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.rates != nil && s.cfg.RateRefreshSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.RateRefreshSpec, func() { s.RefreshRates(ctx) }); err != nil {
			return fmt.Errorf("jobs: rate refresh spec %q: %w", s.cfg.RateRefreshSpec, err)
		}
		go s.RefreshRates(ctx)
	}
	if s.sweeper != nil && s.cfg.SessionSweepSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.SessionSweepSpec, func() { s.SweepSessions(ctx) }); err != nil {
			return fmt.Errorf("jobs: session sweep spec %q: %w", s.cfg.SessionSweepSpec, err)
		}
	}

	s.cron.Start()
	s.logger.Info("jobs: scheduler started",
		zap.String("rate_refresh", s.cfg.RateRefreshSpec),
		zap.String("session_sweep", s.cfg.SessionSweepSpec),
		zap.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop waits for running jobs to finish, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("jobs: stop timed out with jobs still running")
	}
	s.logger.Info("jobs: scheduler stopped")
}

// RefreshRates runs one rate refresh cycle.
func (s *Scheduler) RefreshRates(ctx context.Context) {
	start := time.Now()
	n := s.rates.Refresh(ctx)
	s.logger.Info("jobs: exchange rates refreshed",
		zap.Int("rates", n),
		zap.Duration("took", time.Since(start)),
	)
}

// SweepSessions runs one stale-session sweep.
func (s *Scheduler) SweepSessions(ctx context.Context) {
	n, err := s.sweeper.SweepStaleSessions(ctx, s.cfg.SessionMaxAge)
	if err != nil {
		s.logger.Error("jobs: session sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("jobs: stale sessions dropped", zap.Int("sessions", n))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
