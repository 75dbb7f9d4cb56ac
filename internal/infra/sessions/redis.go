package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "bfa:tracking:session:"

// Redis keeps sessions as keys holding the start time in Unix milliseconds.
// Keys expire after maxAge, so abandoned sessions disappear even without
// the sweeper.
type Redis struct {
	rdb    *redis.Client
	prefix string
	maxAge time.Duration
}

// NewRedis creates a Redis-backed session store.
func NewRedis(rdb *redis.Client, maxAge time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: defaultPrefix, maxAge: maxAge}
}

func (r *Redis) key(k domain.SessionKey) string {
	return r.prefix + k.String()
}

func (r *Redis) Open(ctx context.Context, key domain.SessionKey, start time.Time) (time.Time, bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.key(key), start.UnixMilli(), r.maxAge).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sessions: setnx: %w", err)
	}
	if ok {
		return start, true, nil
	}

	existing, found, err := r.read(r.rdb.Get(ctx, r.key(key)))
	if err != nil {
		return time.Time{}, false, err
	}
	if !found {
		// Expired between SETNX and GET; treat this call as the opener.
		if err := r.rdb.Set(ctx, r.key(key), start.UnixMilli(), r.maxAge).Err(); err != nil {
			return time.Time{}, false, fmt.Errorf("sessions: set: %w", err)
		}
		return start, true, nil
	}
	return existing, false, nil
}

func (r *Redis) Close(ctx context.Context, key domain.SessionKey) (time.Time, bool, error) {
	return r.read(r.rdb.GetDel(ctx, r.key(key)))
}

func (r *Redis) read(cmd *redis.StringCmd) (time.Time, bool, error) {
	raw, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sessions: read: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sessions: corrupt start %q: %w", raw, err)
	}
	return time.UnixMilli(ms), true, nil
}

// Sweep scans the session keys and deletes those opened before cutoff.
func (r *Redis) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	n := 0
	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		start, found, err := r.read(r.rdb.Get(ctx, k))
		if err != nil || !found || !start.Before(cutoff) {
			continue
		}
		deleted, err := r.rdb.Del(ctx, k).Result()
		if err != nil {
			return n, fmt.Errorf("sessions: del: %w", err)
		}
		n += int(deleted)
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("sessions: scan: %w", err)
	}
	return n, nil
}
