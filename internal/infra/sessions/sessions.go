// Package sessions stores the start time of open content-viewing sessions,
// keyed by (user, content). A session opened twice keeps its first start.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/domain"
)

// Memory keeps sessions in process memory.
type Memory struct {
	mu   sync.Mutex
	open map[domain.SessionKey]time.Time
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *Memory {
	return &Memory{open: make(map[domain.SessionKey]time.Time)}
}

func (m *Memory) Open(_ context.Context, key domain.SessionKey, start time.Time) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.open[key]; ok {
		return existing, false, nil
	}
	m.open[key] = start
	return start, true, nil
}

func (m *Memory) Close(_ context.Context, key domain.SessionKey) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start, ok := m.open[key]
	if ok {
		delete(m.open, key)
	}
	return start, ok, nil
}

func (m *Memory) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key, start := range m.open {
		if start.Before(cutoff) {
			delete(m.open, key)
			n++
		}
	}
	return n, nil
}
