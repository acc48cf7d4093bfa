package conversation

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket per user. A zero rate disables limiting.
type Limiter struct {
	buckets map[int64]*rate.Limiter
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
}

// NewLimiter allows perSecond events per user with the given burst.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[int64]*rate.Limiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
}

// Allow reports whether userID may send another event now.
func (l *Limiter) Allow(userID int64) bool {
	if l == nil || l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	bucket, ok := l.buckets[userID]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[userID] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}
