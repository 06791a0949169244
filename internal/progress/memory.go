package progress

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	update  Update
	expires time.Time
}

// Memory keeps updates in process, honoring the same TTL as Redis.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{entries: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (m *Memory) Set(_ context.Context, key string, u Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{update: u, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (Update, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expires) {
		return idle(), nil
	}
	return e.update, nil
}
