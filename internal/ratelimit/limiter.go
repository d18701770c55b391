// Package ratelimit implements fixed-window request limiting keyed by
// client identity.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts hits per key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(limit, count int, resetIn time.Duration) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{Allowed: count <= limit, Limit: limit, Remaining: remaining}
	if !d.Allowed {
		d.RetryAfter = resetIn
	}
	return d
}
