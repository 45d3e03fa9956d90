package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/task-manager-api/internal/cache"
)

// MockCache implements cache.Cache for testing. Without Fn overrides every call
// behaves like an unreachable backend: reads miss and writes report false.
type MockCache struct {
	GetFn             func(ctx context.Context, key string) ([]byte, bool)
	SetFn             func(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	DeleteFn          func(ctx context.Context, key string) bool
	DeleteByPatternFn func(ctx context.Context, pattern string) bool

	// Keys records every key passed to Set, and Patterns every pattern passed
	// to DeleteByPattern
	Keys     []string
	Patterns []string
}

// Ensure MockCache implements cache.Cache interface
var _ cache.Cache = (*MockCache)(nil)

// Get implements the Cache interface
func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return nil, false
}

// Set implements the Cache interface
func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	m.Keys = append(m.Keys, key)
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, ttl)
	}
	return false
}

// Delete implements the Cache interface
func (m *MockCache) Delete(ctx context.Context, key string) bool {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return false
}

// DeleteByPattern implements the Cache interface
func (m *MockCache) DeleteByPattern(ctx context.Context, pattern string) bool {
	m.Patterns = append(m.Patterns, pattern)
	if m.DeleteByPatternFn != nil {
		return m.DeleteByPatternFn(ctx, pattern)
	}
	return false
}
