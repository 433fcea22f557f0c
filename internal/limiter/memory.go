package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a single-process fixed-window counter for tests and local
// development. Production deployments use RedisLimiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	clock   func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), clock: time.Now}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, windowDur time.Duration) (bool, error) {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(windowDur)}
		l.windows[key] = w
	}
	if w.count >= limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// MemoryDeduplicator is the in-process counterpart of RedisDeduplicator.
type MemoryDeduplicator struct {
	mu    sync.Mutex
	marks map[string]time.Time
	clock func() time.Time
}

func NewMemoryDeduplicator() *MemoryDeduplicator {
	return &MemoryDeduplicator{marks: make(map[string]time.Time), clock: time.Now}
}

func (d *MemoryDeduplicator) Seen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	_ = ctx
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	if until, ok := d.marks[key]; ok && now.Before(until) {
		return true, nil
	}
	d.marks[key] = now.Add(ttl)
	return false, nil
}
