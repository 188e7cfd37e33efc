// Package cache provides get-or-compute caches with a fixed time-to-live.
package cache

import (
	"context"
	"sync"
	"time"
)

// ComputeFunc produces the value for a missing or expired key.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Cache is a keyed get-or-compute cache.
type Cache[V any] interface {
	// GetOrCompute returns the cached value for key, or calls compute and
	// caches its result. Errors from compute are returned and not cached.
	GetOrCompute(ctx context.Context, key string, compute ComputeFunc[V]) (V, error)
	// Invalidate removes key.
	Invalidate(ctx context.Context, key string) error
}

type memoryEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is a process-local cache. Entries expire lazily: an expired entry
// is replaced on its next access. Concurrent misses on one key may compute
// more than once; the last writer wins.
type Memory[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry[V]
	now     func() time.Time
}

var _ Cache[int] = (*Memory[int])(nil)

// NewMemory creates a Memory cache with the given TTL.
func NewMemory[V any](ttl time.Duration) *Memory[V] {
	return &Memory[V]{
		ttl:     ttl,
		entries: make(map[string]memoryEntry[V]),
		now:     time.Now,
	}
}

func (m *Memory[V]) GetOrCompute(ctx context.Context, key string, compute ComputeFunc[V]) (V, error) {
	now := m.now()

	m.mu.Lock()
	entry, ok := m.entries[key]
	m.mu.Unlock()
	if ok && entry.expiresAt.After(now) {
		return entry.value, nil
	}

	value, err := compute(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry[V]{value: value, expiresAt: now.Add(m.ttl)}
	m.mu.Unlock()
	return value, nil
}

func (m *Memory[V]) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
