package vikasyatra

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend is a goroutine-safe in-memory backend. With a quota set it
// rejects writes that would push the total size past it.
type MemoryBackend struct {
	mu    sync.RWMutex
	data  map[string][]byte
	used  int64
	quota int64
}

// NewMemoryBackend creates an empty backend. quota <= 0 means unlimited.
func NewMemoryBackend(quota int64) *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte), quota: quota}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.used + int64(len(key)+len(value))
	if old, ok := m.data[key]; ok {
		next -= int64(len(key) + len(old))
	}
	if m.quota > 0 && next > m.quota {
		return ErrQuotaExceeded
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	m.used = next
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.used -= int64(len(key) + len(old))
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryBackend) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) Close() error { return nil }
