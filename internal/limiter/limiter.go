package limiter

import (
	"context"
	"time"
)

// RateLimiter and Deduplicator are injected capabilities rather than process
// state: counters and dedup marks live in an external keyed store with TTL
// semantics so a multi-instance deployment stays correct. Both are best
// effort and non-authoritative; losing their state on restart is acceptable.

type RateLimiter interface {
	// Allow consumes one unit from the key's window. allowed=false means the
	// caller should back off until the window rolls over.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, err error)
}

type Deduplicator interface {
	// Seen marks the key and reports whether it was already marked within
	// the TTL. The first caller gets false, everyone else true.
	Seen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
