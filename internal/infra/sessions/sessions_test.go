package sessions_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/sessions"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/port"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store port.SessionStore) {
	t.Helper()
	ctx := context.Background()
	key := domain.SessionKey{UserID: "u-" + uuid.NewString(), ContentID: "pricing"}
	first := time.UnixMilli(time.Now().Add(-time.Minute).UnixMilli())

	start, opened, err := store.Open(ctx, key, first)
	require.NoError(t, err)
	assert.True(t, opened)
	assert.True(t, first.Equal(start))

	start, opened, err = store.Open(ctx, key, first.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, opened, "second open is a no-op")
	assert.True(t, first.Equal(start), "keeps the first start time")

	start, ok, err := store.Close(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, first.Equal(start))

	_, ok, err = store.Close(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "closing twice finds nothing")
}

func exerciseSweep(t *testing.T, store port.SessionStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	stale := domain.SessionKey{UserID: "u-" + uuid.NewString(), ContentID: "old"}
	fresh := domain.SessionKey{UserID: "u-" + uuid.NewString(), ContentID: "new"}

	_, _, err := store.Open(ctx, stale, now.Add(-2*time.Hour))
	require.NoError(t, err)
	_, _, err = store.Open(ctx, fresh, now)
	require.NoError(t, err)

	n, err := store.Sweep(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	_, ok, _ := store.Close(ctx, stale)
	assert.False(t, ok)
	_, ok, _ = store.Close(ctx, fresh)
	assert.True(t, ok)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, sessions.NewMemory())
	exerciseSweep(t, sessions.NewMemory())
}

func newRedis(t *testing.T) *sessions.Redis {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" || testing.Short() {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return sessions.NewRedis(rdb, 4*time.Hour)
}

func TestRedis(t *testing.T) {
	store := newRedis(t)
	exerciseStore(t, store)
	exerciseSweep(t, store)
}
