// Package ratelimit counts requests per key. Memory is per process; Redis is
// shared by every replica pointing at the same server.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call. RetryAfter is only meaningful
// when Allowed is false.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}
