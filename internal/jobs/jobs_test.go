package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRefresher struct{ calls atomic.Int32 }

func (r *countingRefresher) Refresh(context.Context) int {
	r.calls.Add(1)
	return 6
}

type stubSweeper struct {
	maxAge time.Duration
	calls  atomic.Int32
	err    error
}

func (s *stubSweeper) SweepStaleSessions(_ context.Context, maxAge time.Duration) (int, error) {
	s.maxAge = maxAge
	s.calls.Add(1)
	return 2, s.err
}

func TestStart_RefreshesRatesImmediately(t *testing.T) {
	rates := &countingRefresher{}
	s := jobs.New(rates, nil, jobs.Config{RateRefreshSpec: "@every 1h"}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return rates.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestStart_RejectsBadSpec(t *testing.T) {
	s := jobs.New(&countingRefresher{}, nil, jobs.Config{RateRefreshSpec: "every so often"}, zap.NewNop())
	assert.Error(t, s.Start(context.Background()))
}

func TestStart_DisabledJobsAreSkipped(t *testing.T) {
	sweeper := &stubSweeper{}
	s := jobs.New(nil, sweeper, jobs.Config{}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	s.Stop(context.Background())
	assert.Zero(t, sweeper.calls.Load())
}

func TestSweepSessions_PassesMaxAge(t *testing.T) {
	sweeper := &stubSweeper{}
	s := jobs.New(nil, sweeper, jobs.Config{SessionMaxAge: 2 * time.Hour}, zap.NewNop())

	s.SweepSessions(context.Background())
	assert.Equal(t, 2*time.Hour, sweeper.maxAge)

	sweeper.err = errors.New("redis down")
	s.SweepSessions(context.Background())
	assert.Equal(t, int32(2), sweeper.calls.Load())
}
