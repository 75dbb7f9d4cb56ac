package fingerprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Storage persists the device identity between runs.
type Storage interface {
	Load(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// MemoryStorage keeps the identity for the lifetime of the process.
type MemoryStorage struct {
	mu sync.RWMutex
	id string
}

func (m *MemoryStorage) Load(context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id, m.id != "", nil
}

func (m *MemoryStorage) Save(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = ""
	return nil
}

// FileStorage keeps the identity in a small JSON file.
type FileStorage struct {
	Path string
}

type fileRecord struct {
	DeviceID string `json:"deviceId"`
}

func (f FileStorage) Load(context.Context) (string, bool, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", false, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return rec.DeviceID, rec.DeviceID != "", nil
}

func (f FileStorage) Save(_ context.Context, id string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(fileRecord{DeviceID: id})
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

func (f FileStorage) Clear(context.Context) error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// RedisStorage keeps the identity under a single Redis key.
type RedisStorage struct {
	Client *redis.Client
	Key    string
}

func (r RedisStorage) Load(ctx context.Context) (string, bool, error) {
	id, err := r.Client.Get(ctx, r.Key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, id != "", nil
}

func (r RedisStorage) Save(ctx context.Context, id string) error {
	return r.Client.Set(ctx, r.Key, id, 0).Err()
}

func (r RedisStorage) Clear(ctx context.Context) error {
	return r.Client.Del(ctx, r.Key).Err()
}
