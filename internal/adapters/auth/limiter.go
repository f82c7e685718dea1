package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// loginLimiter throttles login attempts per key with a token bucket each.
type loginLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter(perSec float64, burst int, now func() time.Time) *loginLimiter {
	return &loginLimiter{
		limit:   rate.Limit(perSec),
		burst:   burst,
		now:     now,
		buckets: make(map[string]*bucket),
	}
}

// allow reports whether an attempt for key may proceed now. A non-positive
// rate disables throttling.
func (l *loginLimiter) allow(key string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(l.buckets, k)
		}
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}
