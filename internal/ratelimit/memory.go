package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a fixed window counter per key.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	clients map[string]*bucket
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemory() *Memory {
	return &Memory{
		now:     time.Now,
		clients: make(map[string]*bucket),
	}
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.clients[key]
	if !ok || now.After(b.windowEnd) {
		m.clients[key] = &bucket{count: 1, windowEnd: now.Add(window)}
		m.sweep(now)
		return Decision{Allowed: true, Remaining: limit - 1}, nil
	}

	if b.count >= limit {
		retry := b.windowEnd.Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	b.count++
	return Decision{Allowed: true, Remaining: limit - b.count}, nil
}

// sweep drops expired buckets once the map grows, so one-off clients do not
// pile up forever.
func (m *Memory) sweep(now time.Time) {
	if len(m.clients) < 1024 {
		return
	}
	for k, b := range m.clients {
		if now.After(b.windowEnd) {
			delete(m.clients, k)
		}
	}
}
