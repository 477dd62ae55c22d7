package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count int64
	reset time.Time
}

// MemoryCounter keeps fixed-window counts in a map. Expired buckets are
// dropped lazily once the map grows past sweepAt entries.
type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	sweepAt int
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		sweepAt: 10000,
	}
}

func (m *MemoryCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if len(m.buckets) >= m.sweepAt {
		for k, b := range m.buckets {
			if !now.Before(b.reset) {
				delete(m.buckets, k)
			}
		}
	}

	b, ok := m.buckets[key]
	if !ok || !now.Before(b.reset) {
		b = &bucket{reset: now.Add(window)}
		m.buckets[key] = b
	}
	b.count++

	return b.count, b.reset, nil
}
