package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
)

// Limiter is a windowed rate limiter backed by an in-process store. The
// service keeps all state in memory, so the limiter does too.
type Limiter struct {
	Store  limiter.Store
	Prefix string
}

// Allow registers an event for the given key and returns whether it is within
// the limit. A nil store or non-positive thresholds disable limiting.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lctx, err := l.Store.Get(ctx, l.Prefix+key, limiter.Rate{Period: window, Limit: int64(max)})
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
