package limiter

import (
	"context"
	"sync"
	"time"

	"marketplace-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// ConcurrencyGate caps simultaneous operations per key, e.g. one in-flight
// checkout per buyer. Acquire/Release pairs bracket the operation; Release is
// safe to call even if the slot expired in between.
type ConcurrencyGate interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

// RedisGate enforces the cap across API instances. The TTL bounds how long a
// crashed process can hold a slot.
type RedisGate struct {
	RDB   *redis.Client
	Limit int
	TTL   time.Duration
}

func (g *RedisGate) Acquire(ctx context.Context, key string) (bool, error) {
	limit := g.Limit
	if limit <= 0 {
		limit = 1
	}
	ttl := g.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return utils.AcquireConcurrencyCap(ctx, g.RDB, "cap:"+key, limit, ttl)
}

func (g *RedisGate) Release(ctx context.Context, key string) {
	_ = utils.ReleaseConcurrencyCap(ctx, g.RDB, "cap:"+key)
}

// MemoryGate backs tests and single-instance deployments.
type MemoryGate struct {
	Limit int

	mu     sync.Mutex
	counts map[string]int
}

func (g *MemoryGate) Acquire(_ context.Context, key string) (bool, error) {
	limit := g.Limit
	if limit <= 0 {
		limit = 1
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counts == nil {
		g.counts = make(map[string]int)
	}
	if g.counts[key] >= limit {
		return false, nil
	}
	g.counts[key]++
	return true, nil
}

func (g *MemoryGate) Release(_ context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counts[key] > 0 {
		g.counts[key]--
	}
}
