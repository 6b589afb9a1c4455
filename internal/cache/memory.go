package cache

import (
	"context"
	"sync"
	"time"
)

// InMemory is a process-local Backend. Expired entries are removed on access.
type InMemory struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewInMemory returns an empty in-memory backend.
func NewInMemory() *InMemory {
	return &InMemory{data: make(map[string]memoryEntry), now: time.Now}
}

func (m *InMemory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		delete(m.data, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *InMemory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *InMemory) Ping(context.Context) error { return nil }

func (m *InMemory) Close() error { return nil }
