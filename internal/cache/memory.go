package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

type entry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// Memory is a process-local Cache. Expired entries are dropped lazily on read
// and during pattern deletes.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// Ensure Memory implements Cache interface
var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock creates an in-memory cache that reads time from now.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{entries: make(map[string]entry), now: now}
}

// Get implements Cache.Get
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.expired(e) {
		delete(m.entries, key)
		return nil, false
	}
	return append([]byte(nil), e.value...), true
}

// Set implements Cache.Set
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return true
}

// Delete implements Cache.Delete
func (m *Memory) Delete(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return true
}

// DeleteByPattern implements Cache.DeleteByPattern. Patterns use the glob
// syntax of path.Match, which covers the '*', '?' and '[...]' forms Redis
// accepts for keys without '/'.
func (m *Memory) DeleteByPattern(_ context.Context, pattern string) bool {
	if _, err := path.Match(pattern, ""); err != nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if matched, _ := path.Match(pattern, key); matched || m.expired(e) {
			delete(m.entries, key)
		}
	}
	return true
}

// TTL returns the remaining lifetime of key, or 0 when it is absent or has no expiry.
func (m *Memory) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.expires.IsZero() {
		return 0
	}
	return e.expires.Sub(m.now())
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.entries {
		if !m.expired(e) {
			n++
		}
	}
	return n
}

func (m *Memory) expired(e entry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}
